package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/http2amcp/internal/config"
	"github.com/dkeye/http2amcp/internal/core"
	"github.com/dkeye/http2amcp/internal/domain"
	"github.com/dkeye/http2amcp/internal/metrics"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderAMCPStatus = "X-AMCP-Status"
)

// RequestIDMiddleware keeps a caller supplied request id or issues one, and
// puts a logger carrying it into the request context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Set("request_id", id)

		logger := log.With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Writer.Status(), time.Since(start))
	}
}

func SetupRouter(cfg *config.Config, fwd core.Forwarder, m *metrics.Metrics) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	handlers := []gin.HandlerFunc{handleAMCP(fwd)}
	if m != nil {
		handlers = append([]gin.HandlerFunc{metricsMiddleware(m)}, handlers...)
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.POST("/amcp", handlers...)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	log.Info().Str("module", "adapters.http").Bool("metrics", m != nil).Msg("router setup")
	return r
}

func handleAMCP(fwd core.Forwarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("failed to read request body")
			c.String(http.StatusBadRequest, "unreadable body")
			return
		}

		res := fwd.Forward(c.Request.Context(), domain.Command(body))
		c.Header(HeaderAMCPStatus, strconv.Itoa(res.StatusCode))
		c.Data(HTTPStatus(res.StatusCode), "text/plain; charset=utf-8", []byte(res.Payload))
	}
}

// HTTPStatus maps an AMCP status to the HTTP status sent to the client.
// 2xx to 5xx pass through. HTTP has no final 1xx response, so AMCP
// informational codes become 200. Anything else is a bad gateway.
func HTTPStatus(code int) int {
	switch {
	case code >= 200 && code <= 599:
		return code
	case code >= 100 && code <= 199:
		return http.StatusOK
	default:
		return http.StatusBadGateway
	}
}

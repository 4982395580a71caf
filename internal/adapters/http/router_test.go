package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/http2amcp/internal/config"
	"github.com/dkeye/http2amcp/internal/domain"
	"github.com/dkeye/http2amcp/internal/metrics"
)

type fakeForwarder struct {
	mu       sync.Mutex
	result   domain.Result
	commands []domain.Command
	loggers  []*zerolog.Logger
}

func (f *fakeForwarder) Forward(ctx context.Context, cmd domain.Command) domain.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	f.loggers = append(f.loggers, zerolog.Ctx(ctx))
	return f.result
}

func newRouter(t *testing.T, res domain.Result, m *metrics.Metrics) (*gin.Engine, *fakeForwarder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fwd := &fakeForwarder{result: res}
	return SetupRouter(&config.Config{Mode: "test"}, fwd, m), fwd
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/amcp", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAMCP_PassesStatusAndPayload(t *testing.T) {
	r, fwd := newRouter(t, domain.Result{StatusCode: 201, Payload: "2.3.0 Stable"}, nil)

	w := post(r, "VERSION")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2.3.0 Stable", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "201", w.Header().Get(HeaderAMCPStatus))
	assert.Equal(t, []domain.Command{"VERSION"}, fwd.commands)
}

func TestAMCP_BodyForwardedVerbatim(t *testing.T) {
	r, fwd := newRouter(t, domain.Result{StatusCode: 200, Payload: "200 OK"}, nil)

	post(r, "CG 1-20 ADD 1 \"lower\" 1 \"<x a='1'/>\"\n")
	post(r, "")

	assert.Equal(t, []domain.Command{"CG 1-20 ADD 1 \"lower\" 1 \"<x a='1'/>\"\n", ""}, fwd.commands)
}

func TestAMCP_GatewayFailure(t *testing.T) {
	r, _ := newRouter(t, domain.Result{StatusCode: 502, Payload: "connection failed"}, nil)

	w := post(r, "INFO")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "connection failed", w.Body.String())
}

func TestAMCP_UnmappableStatus(t *testing.T) {
	r, _ := newRouter(t, domain.Result{StatusCode: 999, Payload: "999 ODD"}, nil)

	w := post(r, "INFO")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "999", w.Header().Get(HeaderAMCPStatus))
	assert.Equal(t, "999 ODD", w.Body.String())
}

func TestAMCP_OnlyPost(t *testing.T) {
	r, fwd := newRouter(t, domain.Result{StatusCode: 200}, nil)

	req := httptest.NewRequest(http.MethodGet, "/amcp", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, fwd.commands)
}

func TestRequestID(t *testing.T) {
	r, fwd := newRouter(t, domain.Result{StatusCode: 200, Payload: "200 OK"}, nil)

	w := post(r, "INFO")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodPost, "/amcp", strings.NewReader("INFO"))
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	require.Len(t, fwd.loggers, 2)
	assert.NotEqual(t, zerolog.Disabled, fwd.loggers[1].GetLevel())
}

func TestHealthz(t *testing.T) {
	r, fwd := newRouter(t, domain.Result{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Empty(t, fwd.commands)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New("")
	r, _ := newRouter(t, domain.Result{StatusCode: 202, Payload: "202 PLAY OK"}, m)
	post(r, "PLAY 1-10")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http2amcp_requests_total{status="202"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	r, _ := newRouter(t, domain.Result{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := map[int]int{
		100: http.StatusOK,
		101: http.StatusOK,
		200: 200,
		201: 201,
		202: 202,
		400: 400,
		404: 404,
		500: 500,
		501: 501,
		502: 502,
		599: 599,
		0:   http.StatusBadGateway,
		99:  http.StatusBadGateway,
		600: http.StatusBadGateway,
		999: http.StatusBadGateway,
	}
	for in, want := range tests {
		assert.Equal(t, want, HTTPStatus(in), "amcp status %d", in)
	}
}

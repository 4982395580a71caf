// Package bridge runs one AMCP command/reply cycle per HTTP request.
package bridge

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkeye/http2amcp/internal/adapters/amcp"
	"github.com/dkeye/http2amcp/internal/config"
	"github.com/dkeye/http2amcp/internal/core"
	"github.com/dkeye/http2amcp/internal/domain"
)

type Bridge struct {
	Host string
	Port int
	// Timeout bounds the whole cycle: dial, write and reply.
	Timeout   time.Duration
	Connector *amcp.Connector
	Observer  core.Observer
}

func New(cfg *config.Config, obs core.Observer) *Bridge {
	if obs == nil {
		obs = core.NopObserver{}
	}
	return &Bridge{
		Host:      cfg.AMCPHost,
		Port:      cfg.AMCPPort,
		Timeout:   cfg.ReplyTimeout,
		Connector: amcp.NewConnector(nil),
		Observer:  obs,
	}
}

// Forward sends cmd to the AMCP server and frames the reply. Connections are
// never reused; the one opened here is closed before Forward returns.
func (b *Bridge) Forward(ctx context.Context, cmd domain.Command) domain.Result {
	logger := zerolog.Ctx(ctx).With().Str("module", "bridge").Logger()
	obs := b.observer()

	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	conn, err := b.Connector.Connect(ctx, b.Host, b.Port)
	if err != nil {
		logger.Error().Err(err).Str("host", b.Host).Int("port", b.Port).Msg("failed to connect to AMCP server")
		obs.BackendError(errorType(err))
		return domain.Result{StatusCode: domain.StatusBadGateway, Payload: domain.PayloadConnectFailed}
	}
	obs.ConnOpened()
	defer func() {
		_ = conn.Close()
		obs.ConnClosed()
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock a pending read when the HTTP client goes away.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := amcp.WriteCommand(conn, cmd); err != nil {
		logger.Error().Err(err).Str("command", string(cmd)).Str("host", b.Host).Int("port", b.Port).Msg("failed to send AMCP command")
		obs.BackendError(errorType(err))
		return domain.Result{StatusCode: domain.StatusBadGateway, Payload: domain.PayloadSendFailed}
	}

	reply := amcp.ReadReply(conn)
	obs.Framed(reply.State.String())
	if reply.State == amcp.StateTimedOut {
		logger.Warn().Err(reply.Err).Str("command", string(cmd)).Int("bytes", reply.Bytes).Msg("reply ended before it was complete")
	}

	res, err := amcp.Extract(reply.Text)
	if err != nil {
		logger.Warn().Err(err).Str("command", string(cmd)).Msg("no usable status in AMCP reply, defaulting")
	}
	logger.Debug().Int("status", res.StatusCode).Str("command", string(cmd)).Str("state", reply.State.String()).Msg("AMCP reply")
	return res
}

func (b *Bridge) observer() core.Observer {
	if b.Observer == nil {
		return core.NopObserver{}
	}
	return b.Observer
}

func errorType(err error) string {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, amcp.ErrConnect):
		return "connect"
	case errors.Is(err, amcp.ErrWrite):
		return "write"
	default:
		return "unknown"
	}
}

package core

import (
	"context"
	"net"

	"github.com/dkeye/http2amcp/internal/domain"
)

// Dialer opens transport connections to the AMCP server.
// *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Forwarder runs one command/reply cycle against the AMCP server.
// It never fails: transport problems are folded into the Result.
type Forwarder interface {
	Forward(ctx context.Context, cmd domain.Command) domain.Result
}

// Observer receives lifecycle events of a bridge cycle (metrics).
type Observer interface {
	ConnOpened()
	ConnClosed()
	BackendError(kind string)
	Framed(state string)
}

// NopObserver drops every event.
type NopObserver struct{}

func (NopObserver) ConnOpened()         {}
func (NopObserver) ConnClosed()         {}
func (NopObserver) BackendError(string) {}
func (NopObserver) Framed(string)       {}

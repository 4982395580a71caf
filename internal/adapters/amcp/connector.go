package amcp

import (
	"context"
	"net"
	"strconv"

	"github.com/dkeye/http2amcp/internal/core"
)

// Connector opens one TCP connection per call. It never retries.
type Connector struct {
	Dialer core.Dialer
}

func NewConnector(d core.Dialer) *Connector {
	if d == nil {
		d = &net.Dialer{}
	}
	return &Connector{Dialer: d}
}

// Connect dials host:port. On success the caller owns the connection and must close it.
func (c *Connector) Connect(ctx context.Context, host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := c.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &Error{Op: "connect", Addr: addr, Kind: ErrConnect, Err: err}
	}
	return conn, nil
}

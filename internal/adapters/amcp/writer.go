package amcp

import (
	"io"
	"net"

	"github.com/dkeye/http2amcp/internal/domain"
)

// WriteCommand sends cmd followed by the terminator in a single write.
// A short write counts as a failure.
func WriteCommand(w io.Writer, cmd domain.Command) error {
	line := string(cmd) + domain.Terminator
	n, err := io.WriteString(w, line)
	if err == nil && n < len(line) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &Error{Op: "write", Addr: remoteAddr(w), Kind: ErrWrite, Err: err}
	}
	return nil
}

func remoteAddr(w io.Writer) string {
	if c, ok := w.(interface{ RemoteAddr() net.Addr }); ok && c.RemoteAddr() != nil {
		return c.RemoteAddr().String()
	}
	return ""
}

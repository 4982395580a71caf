package amcp

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect indicates the AMCP server could not be reached.
	ErrConnect = errors.New("connect failed")

	// ErrWrite indicates the command could not be sent on an open connection.
	ErrWrite = errors.New("write failed")

	// ErrMissingStatus indicates the reply carried no status token at all.
	ErrMissingStatus = errors.New("missing status code")

	// ErrMalformedStatus indicates the leading token of the reply is not a number.
	ErrMalformedStatus = errors.New("malformed status code")
)

// Error wraps a transport failure with the operation and target address.
type Error struct {
	Op   string // connect, write
	Addr string // host:port of the AMCP server
	Kind error  // ErrConnect or ErrWrite
	Err  error  // underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("amcp %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports the failure class, so errors.Is(err, ErrConnect) works.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Package domain contains entity without logic, just meta-data
package domain

// Command is an AMCP command line as received from the HTTP client.
// It is forwarded verbatim, only the terminator is appended.
type Command string

// Result is the terminal outcome of one bridge cycle.
// Every request produces exactly one Result, failures included.
type Result struct {
	StatusCode int
	Payload    string
}

const (
	// Terminator ends every command and every reply line.
	Terminator = "\r\n"

	// StatusMultiBlock is the one status whose reply spans two terminated blocks.
	StatusMultiBlock = 201

	// StatusUnknown is used when no numeric status could be read.
	StatusUnknown = 500

	// StatusBadGateway is returned when the AMCP server cannot be reached or written to.
	StatusBadGateway = 502
)

const (
	PayloadConnectFailed = "connection failed"
	PayloadSendFailed    = "send failed"
)

package amcp

import (
	"bytes"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"

	"github.com/dkeye/http2amcp/internal/domain"
)

// readChunk matches the buffer size the control port is usually read with.
const readChunk = 256

var terminator = []byte(domain.Terminator)

type State int

const (
	StateReading State = iota
	StateAwaitingSecondBlock
	StateComplete
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateAwaitingSecondBlock:
		return "awaiting_second_block"
	case StateComplete:
		return "complete"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Done reports whether the framer stopped reading.
func (s State) Done() bool {
	return s == StateComplete || s == StateTimedOut
}

// Reply is a framed reply, ready for Extract.
type Reply struct {
	Text  string
	State State
	Bytes int
	// Err is the read error that ended a timed out reply.
	Err error
}

// Framer decides when an AMCP reply is complete. The protocol carries no
// length, so a reply ends at the first terminator, except for status 201
// which is followed by one more terminated block.
//
// A Framer serves a single reply and is not safe for concurrent use.
type Framer struct {
	state     State
	buf       bytes.Buffer
	status    int
	hasStatus bool
	err       error
}

func NewFramer() *Framer {
	return &Framer{state: StateReading}
}

func (f *Framer) State() State { return f.state }

// Feed appends a chunk read from the connection and advances the state machine.
func (f *Framer) Feed(chunk []byte) State {
	if f.state.Done() {
		return f.state
	}
	f.buf.Write(chunk)

	data := f.buf.Bytes()
	if !bytes.HasSuffix(data, terminator) {
		return f.state
	}
	if !f.hasStatus {
		// The accumulator holds at least one full line here.
		f.status, _ = ParseStatus(f.firstLine())
		f.hasStatus = true
	}
	if f.status == domain.StatusMultiBlock && bytes.Count(data, terminator) == 1 {
		f.state = StateAwaitingSecondBlock
		return f.state
	}
	f.state = StateComplete
	return f.state
}

// Interrupt records that the connection closed or timed out. Whatever has
// been accumulated becomes the final reply.
func (f *Framer) Interrupt(err error) State {
	if f.state.Done() {
		return f.state
	}
	f.err = err
	f.state = StateTimedOut
	return f.state
}

// Reply snapshots the accumulator. Invalid UTF-8 is replaced, never rejected.
func (f *Framer) Reply() Reply {
	return Reply{
		Text:  decode(f.buf.Bytes()),
		State: f.state,
		Bytes: f.buf.Len(),
		Err:   f.err,
	}
}

func (f *Framer) firstLine() string {
	data := f.buf.Bytes()
	if i := bytes.Index(data, terminator); i >= 0 {
		data = data[:i]
	}
	return decode(data)
}

// ReadReply reads from r until the framer completes or the read fails.
// Deadlines are the caller's business: set one on the connection, a read
// error of any kind ends the reply as timed out.
func ReadReply(r io.Reader) Reply {
	f := NewFramer()
	chunk := make([]byte, readChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			log.Trace().Str("module", "amcp").Str("data", decode(chunk[:n])).Msg("received data")
			if f.Feed(chunk[:n]) == StateComplete {
				return f.Reply()
			}
		}
		if err != nil {
			f.Interrupt(err)
			return f.Reply()
		}
	}
}

func decode(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

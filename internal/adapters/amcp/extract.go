package amcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/http2amcp/internal/domain"
)

// ParseStatus reads the leading whitespace-delimited token of line as a
// status code. On failure it returns StatusUnknown along with the reason.
func ParseStatus(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.StatusUnknown, ErrMissingStatus
	}
	code, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return domain.StatusUnknown, fmt.Errorf("%w: %q", ErrMalformedStatus, fields[0])
	}
	return int(code), nil
}

// SplitLines splits a framed reply on the terminator. The final terminator
// does not produce an empty trailing line.
func SplitLines(text string) []string {
	text = strings.TrimSuffix(text, domain.Terminator)
	if text == "" {
		return nil
	}
	return strings.Split(text, domain.Terminator)
}

// Extract turns a framed reply into a Result. The payload is every line
// after the status line joined by "\n", or the status line itself when
// nothing follows it.
//
// A non-nil error is a diagnostic only: the Result is always usable.
func Extract(text string) (domain.Result, error) {
	lines := SplitLines(text)
	if len(lines) == 0 {
		return domain.Result{StatusCode: domain.StatusUnknown}, ErrMissingStatus
	}

	code, err := ParseStatus(lines[0])
	payload := lines[0]
	if len(lines) > 1 {
		payload = strings.Join(lines[1:], "\n")
	}
	return domain.Result{StatusCode: code, Payload: payload}, err
}

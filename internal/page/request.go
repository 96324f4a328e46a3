package page

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pocsagtx/internal/pocsag"
)

// DefaultMaxLength is the message length limit of the web front-end
const DefaultMaxLength = 40

// Parse errors
var (
	ErrMalformedLine  = errors.New("malformed line: missing address separator")
	ErrInvalidAddress = errors.New("invalid pager address")
	ErrMessageTooLong = errors.New("message too long")
	ErrLineTooLong    = errors.New("line exceeds input buffer")
)

// Separator splits the address from the message text
const Separator = ':'

// Request is a single page to transmit
type Request struct {
	ID       string
	Address  uint32
	Function uint8
	Message  string
	Mode     pocsag.Mode
	Received time.Time
}

// ParseOptions carries the encoding settings applied to every parsed line
type ParseOptions struct {
	Function  uint8
	Mode      pocsag.Mode
	MaxLength int // 0 disables the limit
}

// LineError reports a line that could not be parsed
type LineError struct {
	Line string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Line)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ParseLine parses an "address:message" line
func ParseLine(line string, opts ParseOptions) (*Request, error) {
	line = strings.TrimRight(line, "\r\n")

	idx := strings.IndexByte(line, Separator)
	if idx < 0 {
		return nil, &LineError{Line: line, Err: ErrMalformedLine}
	}

	addrPart := strings.TrimSpace(line[:idx])
	message := line[idx+1:]

	address, err := parseAddress(addrPart)
	if err != nil {
		return nil, &LineError{Line: line, Err: err}
	}

	if opts.MaxLength > 0 && len(message) > opts.MaxLength {
		return nil, &LineError{
			Line: line,
			Err:  fmt.Errorf("%w: %d > %d characters", ErrMessageTooLong, len(message), opts.MaxLength),
		}
	}

	return &Request{
		ID:       uuid.NewString(),
		Address:  address,
		Function: opts.Function & pocsag.FunctionMask,
		Message:  message,
		Mode:     opts.Mode,
		Received: time.Now(),
	}, nil
}

func parseAddress(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q is not decimal", ErrInvalidAddress, s)
		}
	}

	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || uint32(v) > pocsag.AddressMask {
		return 0, fmt.Errorf("%w: %s exceeds 21 bits", ErrInvalidAddress, s)
	}
	return uint32(v), nil
}

// PocsagMessage converts the request into the encoder's message
func (r *Request) PocsagMessage() pocsag.Message {
	return pocsag.Message{
		Address:  r.Address,
		Function: r.Function,
		Text:     r.Message,
		Mode:     r.Mode,
	}
}

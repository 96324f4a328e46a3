package pocsag

import (
	"fmt"
	"strings"
)

// Mode selects how a message payload is packed
type Mode int

const (
	ModeText Mode = iota
	ModeNumeric
)

// String returns the configuration name of the mode
func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeNumeric:
		return "numeric"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// BitsPerUnit returns the payload bits contributed by one input character
func (m Mode) BitsPerUnit() int {
	if m == ModeNumeric {
		return NumericBitsPerDigit
	}
	return TextBitsPerChar
}

// ParseMode parses "text"/"alpha" or "numeric"/"num", case-insensitively
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "alpha", "alphanumeric":
		return ModeText, nil
	case "numeric", "num":
		return ModeNumeric, nil
	default:
		return ModeText, fmt.Errorf("unknown encoding mode %q", s)
	}
}

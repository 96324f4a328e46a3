package pocsag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMessageLength tests the estimator against hand-computed lengths
func TestMessageLength(t *testing.T) {
	tests := []struct {
		name        string
		repeatIndex int
		address     uint32
		numChars    int
		mode        Mode
		expected    int
	}{
		{name: "Hello first repeat", repeatIndex: 0, address: 1234, numChars: 5, mode: ModeText, expected: 35},
		{name: "Hello later repeat", repeatIndex: 1, address: 1234, numChars: 5, mode: ModeText, expected: 17},
		{name: "Empty message", repeatIndex: 1, address: 0, numChars: 0, mode: ModeText, expected: 17},
		{name: "Two batches", repeatIndex: 1, address: 7, numChars: 20, mode: ModeText, expected: 34},
		{name: "Terminator completes batch", repeatIndex: 1, address: 1, numChars: 34, mode: ModeText, expected: 17},
		{name: "Numeric short", repeatIndex: 0, address: 3, numChars: 10, mode: ModeNumeric, expected: 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MessageLength(tt.repeatIndex, tt.address, tt.numChars, tt.mode))
		})
	}
}

// TestMessageLengthMatchesEncoder checks the estimator against the assembler for every frame slot
func TestMessageLengthMatchesEncoder(t *testing.T) {
	for _, mode := range []Mode{ModeText, ModeNumeric} {
		for address := uint32(0); address < 16; address++ {
			for numChars := 0; numChars <= 200; numChars++ {
				for repeatIndex := 0; repeatIndex < 2; repeatIndex++ {
					msg := Message{Address: address, Function: 3, Text: strings.Repeat("9", numChars), Mode: mode}
					got := len(AppendTransmission(nil, repeatIndex, msg))
					want := MessageLength(repeatIndex, address, numChars, mode)
					if got != want {
						t.Fatalf("mode=%s address=%d chars=%d repeat=%d: encoder wrote %d words, estimator said %d",
							mode, address, numChars, repeatIndex, got, want)
					}
				}
			}
		}
	}
}

// TestMessageLengthWrappers tests the per-mode helpers
func TestMessageLengthWrappers(t *testing.T) {
	assert.Equal(t, MessageLength(0, 99, 40, ModeText), TextMessageLength(0, 99, 40))
	assert.Equal(t, MessageLength(2, 99, 40, ModeNumeric), NumericMessageLength(2, 99, 40))
}

// TestEncodeTransmissionCapacity tests that the estimator sizes the buffer exactly
func TestEncodeTransmissionCapacity(t *testing.T) {
	msg := Message{Address: 4321, Function: 3, Text: strings.Repeat("x", 77), Mode: ModeText}
	words := EncodeTransmission(0, msg)
	assert.Equal(t, cap(words), len(words))
}

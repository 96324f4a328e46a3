package pocsag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddressOffset tests frame offsets for all address low bits
func TestAddressOffset(t *testing.T) {
	for address := uint32(0); address < 4096; address++ {
		offset := AddressOffset(address)
		assert.Equal(t, int(address%8)*2, offset)
		assert.True(t, offset >= 0 && offset <= 14 && offset%2 == 0)
	}
}

// TestNumericCode tests the digit and symbol translation
func TestNumericCode(t *testing.T) {
	tests := []struct {
		input    byte
		expected uint8
	}{
		{'0', 0x0},
		{'1', 0x8},
		{'2', 0x4},
		{'5', 0xA},
		{'9', 0x9},
		{' ', 0x3},
		{'u', 0xD},
		{'U', 0xD},
		{'-', 0xB},
		{'_', 0xB},
		{'(', 0xF},
		{'[', 0xF},
		{')', 0x7},
		{']', 0x7},
		{'x', 0x5},
		{'*', 0x5},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, NumericCode(tt.input))
		})
	}
}

// TestReverseNibble tests nibble mirroring
func TestReverseNibble(t *testing.T) {
	assert.Equal(t, uint8(0x0), ReverseNibble(0x0))
	assert.Equal(t, uint8(0x9), ReverseNibble(0x9))
	assert.Equal(t, uint8(0x1), ReverseNibble(0x8))
	assert.Equal(t, uint8(0xC), ReverseNibble(0x3))
	assert.Equal(t, uint8(0xF), ReverseNibble(0xF))

	for v := uint8(0); v < 16; v++ {
		assert.Equal(t, v, ReverseNibble(ReverseNibble(v)))
	}
}

// TestAppendText tests packing of short text payloads
func TestAppendText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []uint32
	}{
		{name: "Empty", text: "", expected: nil},
		{name: "Two characters", text: "AB", expected: []uint32{0x82840}},
		{name: "Fourteen set bits", text: "\x7f\x7f", expected: []uint32{0xFFFC0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := AppendText(nil, 1, tt.text)
			require.Len(t, words, len(tt.expected))
			for i, want := range tt.expected {
				assert.True(t, words[i].IsMessage())
				assert.Equal(t, FlagMessage|want, words[i].Data())
			}
		})
	}
}

// TestAppendTextUsesLowSevenBits tests that the eighth bit of each byte is dropped
func TestAppendTextUsesLowSevenBits(t *testing.T) {
	assert.Equal(t, AppendText(nil, 0, "AB"), AppendText(nil, 0, "\xc1\xc2"))
}

// TestAppendTextBitOrder tests that characters go out least significant bit first
func TestAppendTextBitOrder(t *testing.T) {
	// 'a' is 1100001, sent as 1000011 in the top seven data bits
	words := AppendText(nil, 1, "a")
	require.Len(t, words, 1)
	assert.Equal(t, FlagMessage|uint32(0x86000), words[0].Data())
	assert.NotEqual(t, FlagMessage|uint32(0xC2000), words[0].Data())
}

// TestAppendNumeric tests numeric packing
func TestAppendNumeric(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []uint32
	}{
		{name: "Zero", text: "0", expected: []uint32{0x00000}},
		{name: "Nine", text: "9", expected: []uint32{0x90000}},
		{name: "One two", text: "12", expected: []uint32{0x84000}},
		{name: "Five digits", text: "12345", expected: []uint32{0x84C2A}},
		{name: "Six digits", text: "123456", expected: []uint32{0x84C2A, 0x60000}},
		{name: "Symbols", text: " U-[]", expected: []uint32{0x3DBF7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := AppendNumeric(nil, 1, tt.text)
			require.Len(t, words, len(tt.expected))
			for i, want := range tt.expected {
				assert.Equal(t, FlagMessage|want, words[i].Data())
			}
		})
	}
}

// TestAppendInsertsSync tests sync insertion at batch boundaries
func TestAppendInsertsSync(t *testing.T) {
	tests := []struct {
		name      string
		offset    int
		text      string
		mode      Mode
		wantWords int
		syncAt    []int
	}{
		{name: "Boundary on last word", offset: 15, text: "ABC", mode: ModeText, wantWords: 3, syncAt: []int{1}},
		{name: "No boundary", offset: 1, text: strings.Repeat("A", 40), mode: ModeText, wantWords: 14, syncAt: nil},
		{name: "Crossing from offset 1", offset: 1, text: strings.Repeat("A", 60), mode: ModeText, wantWords: 22, syncAt: []int{15}},
		{name: "Numeric crossing", offset: 9, text: strings.Repeat("1", 40), mode: ModeNumeric, wantWords: 9, syncAt: []int{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var words []Codeword
			if tt.mode == ModeNumeric {
				words = AppendNumeric(nil, tt.offset, tt.text)
			} else {
				words = AppendText(nil, tt.offset, tt.text)
			}

			require.Len(t, words, tt.wantWords)
			var syncs []int
			for i, w := range words {
				if w == Sync {
					syncs = append(syncs, i)
				}
			}
			assert.Equal(t, tt.syncAt, syncs)
		})
	}
}

// TestAppendPreservesDestination tests that payload words are appended after existing content
func TestAppendPreservesDestination(t *testing.T) {
	dst := []Codeword{Sync, Idle}
	out := AppendText(dst, 1, "HELLO")
	require.Len(t, out, 4)
	assert.Equal(t, Sync, out[0])
	assert.Equal(t, Idle, out[1])
}

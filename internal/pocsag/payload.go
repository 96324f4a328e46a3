package pocsag

// numericTable holds the BCD code of each digit in transmission bit order
var numericTable = [10]uint8{0x00, 0x08, 0x04, 0x0c, 0x02, 0x0a, 0x06, 0x0e, 0x01, 0x09}

// NumericCode maps a character to its 4-bit numeric pager code.
// Characters without a code map to 0x5.
func NumericCode(c byte) uint8 {
	if c >= '0' && c <= '9' {
		return numericTable[c-'0']
	}

	switch c {
	case ' ':
		return 0x03
	case 'u', 'U':
		return 0x0d
	case '-', '_':
		return 0x0b
	case '(', '[':
		return 0x0f
	case ')', ']':
		return 0x07
	}

	return 0x05
}

// ReverseNibble mirrors the low four bits of v
func ReverseNibble(v uint8) uint8 {
	return (v&1)<<3 | (v&2)<<1 | (v&4)>>1 | (v&8)>>3
}

// AddressOffset returns the word offset of the address's frame within a batch
func AddressOffset(address uint32) int {
	return int(address&0x7) * FrameSize
}

// packer accumulates payload bits into message codewords and inserts a
// sync word every time a batch of data words fills up
type packer struct {
	out      []Codeword
	word     uint32
	numBits  int
	position int
}

func (p *packer) pushBit(bit uint32) {
	p.word = (p.word << 1) | (bit & 1)
	p.numBits++
	if p.numBits == BitsPerWord {
		p.emit()
	}
}

func (p *packer) emit() {
	p.out = append(p.out, EncodeCodeword(p.word|FlagMessage))
	p.word = 0
	p.numBits = 0

	p.position++
	if p.position == BatchSize {
		p.out = append(p.out, Sync)
		p.position = 0
	}
}

// flush pads a partial word with trailing zeroes and emits it
func (p *packer) flush() []Codeword {
	if p.numBits > 0 {
		p.word <<= BitsPerWord - p.numBits
		p.emit()
	}
	return p.out
}

// AppendText packs the low 7 bits of each byte of text, least significant
// bit first, into message codewords appended to dst. offset is the batch
// word position of the first payload word.
//
// Least significant bit first is the on-air character order that pagers
// decode, so "AB" packs to the data bits 0x82840.
func AppendText(dst []Codeword, offset int, text string) []Codeword {
	p := packer{out: dst, position: offset}
	for i := 0; i < len(text); i++ {
		c := uint32(text[i])
		for bit := 0; bit < TextBitsPerChar; bit++ {
			p.pushBit(c >> bit)
		}
	}
	return p.flush()
}

// AppendNumeric packs one 4-bit code per byte of text into message
// codewords appended to dst. offset is as for AppendText.
func AppendNumeric(dst []Codeword, offset int, text string) []Codeword {
	p := packer{out: dst, position: offset}
	for i := 0; i < len(text); i++ {
		digit := uint32(ReverseNibble(NumericCode(text[i])))
		for bit := 0; bit < NumericBitsPerDigit; bit++ {
			p.pushBit(digit >> bit)
		}
	}
	return p.flush()
}

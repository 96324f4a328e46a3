package pocsag

import "math/bits"

// CRC computes the 10-bit BCH(31,21) check bits for 21 bits of data
func CRC(data uint32) uint32 {
	return remainder((data & 0x1FFFFF) << CRCBits)
}

// Syndrome returns the remainder of a 31-bit word divided by the generator.
// Zero means data and check bits are consistent.
func Syndrome(word uint32) uint32 {
	return remainder(word & 0x7FFFFFFF)
}

// remainder performs long division of a 31-bit value by the generator,
// XOR in place of subtraction, one column per data bit from the top down
func remainder(msg uint32) uint32 {
	// Align MSB of the generator with bit 30
	denominator := uint32(CRCGenerator) << 20

	for column := 0; column <= 20; column++ {
		if (msg>>(30-column))&1 != 0 {
			msg ^= denominator
		}
		denominator >>= 1
	}

	return msg & 0x3FF
}

// Parity returns the XOR of all 32 bits of x
func Parity(x uint32) uint32 {
	return uint32(bits.OnesCount32(x) & 1)
}

// EncodeCodeword builds a complete codeword from 21 bits of data:
// data, then 10 CRC bits, then an even parity bit
func EncodeCodeword(data uint32) Codeword {
	data &= 0x1FFFFF
	full := (data << CRCBits) | CRC(data)
	return Codeword((full << 1) | Parity(full))
}

// IsMessage reports whether the codeword carries the message role flag
func (c Codeword) IsMessage() bool {
	return c&0x80000000 != 0
}

// Data returns the 21 data bits of the codeword, role flag included
func (c Codeword) Data() uint32 {
	return uint32(c) >> (CRCBits + 1)
}

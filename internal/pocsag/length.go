package pocsag

// MessageLength returns the number of codewords AppendTransmission writes
// for one repeat, without encoding anything
func MessageLength(repeatIndex int, address uint32, numChars int, mode Mode) int {
	bitsPerUnit := mode.BitsPerUnit()

	numWords := AddressOffset(address)
	numWords++ // address word
	numWords += (numChars*bitsPerUnit + (BitsPerWord - 1)) / BitsPerWord
	numWords++ // terminator

	// Round up to whole batches of data words, then add one sync per batch
	if rem := numWords % BatchSize; rem != 0 {
		numWords += BatchSize - rem
	}
	numWords += numWords / BatchSize

	if repeatIndex == 0 {
		numWords += PreambleWords
	}
	return numWords
}

// TextMessageLength is MessageLength for text pages
func TextMessageLength(repeatIndex int, address uint32, numChars int) int {
	return MessageLength(repeatIndex, address, numChars, ModeText)
}

// NumericMessageLength is MessageLength for numeric pages
func NumericMessageLength(repeatIndex int, address uint32, numChars int) int {
	return MessageLength(repeatIndex, address, numChars, ModeNumeric)
}

// RepeatsLength returns the total length of EncodeRepeats(msg, repeats)
func RepeatsLength(msg Message, repeats int) int {
	total := 0
	for i := 0; i < repeats; i++ {
		total += MessageLength(i, msg.Address, len(msg.Text), msg.Mode)
	}
	return total
}

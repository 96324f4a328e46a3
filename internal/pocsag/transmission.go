package pocsag

// Message is a page addressed to a single pager
type Message struct {
	Address  uint32 // Pager address (RIC), low 21 bits used
	Function uint8  // Function bits, low 2 bits used
	Text     string
	Mode     Mode
}

// addressWord builds the address codeword. The low 3 address bits are
// implied by the frame position and are not transmitted.
func addressWord(address uint32, function uint8) Codeword {
	address &= AddressMask
	return EncodeCodeword(FlagAddress | (address>>3)<<2 | uint32(function&FunctionMask))
}

// AppendTransmission appends one repeat of msg to dst. Only repeat 0
// carries the preamble. The repeat always ends on a batch boundary.
func AppendTransmission(dst []Codeword, repeatIndex int, msg Message) []Codeword {
	out := dst

	if repeatIndex == 0 {
		for i := 0; i < PreambleWords; i++ {
			out = append(out, PreambleWord)
		}
	}

	start := len(out)
	out = append(out, Sync)

	prefixLength := AddressOffset(msg.Address)
	for i := 0; i < prefixLength; i++ {
		out = append(out, Idle)
	}

	out = append(out, addressWord(msg.Address, msg.Function))

	if msg.Mode == ModeNumeric {
		out = AppendNumeric(out, prefixLength+1, msg.Text)
	} else {
		out = AppendText(out, prefixLength+1, msg.Text)
	}

	// Message terminator
	out = append(out, Idle)

	// Pad out to a whole number of batches, sync included
	written := len(out) - start
	if rem := written % (BatchSize + 1); rem != 0 {
		for i := rem; i < BatchSize+1; i++ {
			out = append(out, Idle)
		}
	}

	return out
}

// EncodeTransmission encodes one repeat of msg into a buffer sized by MessageLength
func EncodeTransmission(repeatIndex int, msg Message) []Codeword {
	out := make([]Codeword, 0, MessageLength(repeatIndex, msg.Address, len(msg.Text), msg.Mode))
	return AppendTransmission(out, repeatIndex, msg)
}

// EncodeRepeats encodes msg repeats times back to back; only the first
// repeat carries the preamble
func EncodeRepeats(msg Message, repeats int) []Codeword {
	out := make([]Codeword, 0, RepeatsLength(msg, repeats))
	for i := 0; i < repeats; i++ {
		out = AppendTransmission(out, i, msg)
	}
	return out
}

package pocsag

// Codeword is a single 32-bit POCSAG protocol word
type Codeword uint32

// Fixed protocol words
const (
	Sync         Codeword = 0x7CD215D8 // Frame synchronization, starts every batch
	Idle         Codeword = 0x7A89C197 // Fills unused frame slots
	PreambleWord Codeword = 0xAAAAAAAA // Alternating 1,0 bits
)

// Framing constants
const (
	PreambleBits   = 576                        // Preamble length in bits
	PreambleWords  = PreambleBits / 32          // 18 words
	FrameSize      = 2                          // Words per frame
	FramesPerBatch = 8                          // Frames per batch, selected by the low 3 address bits
	BatchSize      = FrameSize * FramesPerBatch // Data words per batch, excluding sync
)

// Codeword data layout
const (
	FlagAddress uint32 = 0x000000 // Role flag of an address word
	FlagMessage uint32 = 0x100000 // Role flag of a message word

	BitsPerWord         = 20 // Payload bits carried by one message word
	TextBitsPerChar     = 7
	NumericBitsPerDigit = 4

	CRCBits      = 10
	CRCGenerator = 0b11101101001

	AddressMask  uint32 = 0x1FFFFF // Only 21 address bits go on the wire
	FunctionMask uint8  = 0x3
)

// Function bits carried in the address word. Their meaning is pager-specific.
const (
	FunctionNumeric uint8 = 0
	FunctionTone1   uint8 = 1
	FunctionTone2   uint8 = 2
	FunctionAlpha   uint8 = 3
)

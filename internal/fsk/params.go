package fsk

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default transmitter parameters
const (
	DefaultFrequency  = 466230000 // 466.23 MHz
	DefaultBaudRate   = 1200
	DefaultDeviation  = 4500  // Hz
	DefaultSampleRate = 48000 // PCM output rate
)

// ErrInvalidParams is returned for unusable transmitter parameters
var ErrInvalidParams = errors.New("invalid transmitter parameters")

// Format selects how codewords are rendered to the output
type Format string

const (
	FormatPCM   Format = "pcm"   // Unsigned 8-bit mono baseband, one level per bit
	FormatRaw   Format = "raw"   // Big-endian 32-bit words
	FormatText  Format = "text"  // One %032b line per word
	FormatAudio Format = "audio" // PCM played on the sound device
)

// ParseFormat parses an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPCM, FormatRaw, FormatText, FormatAudio:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Params are the radio parameters handed over with every transmission
type Params struct {
	Frequency  uint64  // Carrier frequency in Hz
	BaudRate   int     // 512, 1200 or 2400
	Deviation  float64 // FSK deviation in Hz
	Inverted   bool    // Swap mark and space
	SampleRate int     // Samples per second for PCM output
}

// DefaultParams returns the standard 1200 baud setup
func DefaultParams() Params {
	return Params{
		Frequency:  DefaultFrequency,
		BaudRate:   DefaultBaudRate,
		Deviation:  DefaultDeviation,
		SampleRate: DefaultSampleRate,
	}
}

// Validate checks the parameters
func (p Params) Validate() error {
	switch p.BaudRate {
	case 512, 1200, 2400:
	default:
		return fmt.Errorf("%w: baud rate %d (want 512, 1200 or 2400)", ErrInvalidParams, p.BaudRate)
	}

	if p.Frequency == 0 {
		return fmt.Errorf("%w: frequency not set", ErrInvalidParams)
	}
	if p.Deviation <= 0 || float64(p.Frequency) <= p.Deviation {
		return fmt.Errorf("%w: deviation %.0f Hz", ErrInvalidParams, p.Deviation)
	}
	if p.SampleRate < 2*p.BaudRate {
		return fmt.Errorf("%w: sample rate %d too low for %d baud", ErrInvalidParams, p.SampleRate, p.BaudRate)
	}

	return nil
}

// BitDuration returns the time each bit is held
func (p Params) BitDuration() time.Duration {
	return time.Second / time.Duration(p.BaudRate)
}

// AirTime returns how long a transmission of numWords codewords lasts
func (p Params) AirTime(numWords int) time.Duration {
	return time.Duration(numWords) * 32 * time.Second / time.Duration(p.BaudRate)
}

// MarkFrequency is the carrier frequency for a 1 bit
func (p Params) MarkFrequency() float64 {
	return float64(p.Frequency) + p.Deviation
}

// SpaceFrequency is the carrier frequency for a 0 bit
func (p Params) SpaceFrequency() float64 {
	return float64(p.Frequency) - p.Deviation
}

//go:build cgo

package fsk

import (
	"fmt"

	"github.com/hajimehoshi/oto"
	"github.com/sirupsen/logrus"
)

// AudioSupported reports whether sound device playback is compiled in
const AudioSupported = true

// NewAudioSink returns a transmitter that plays the two-level PCM keying on
// the default sound device, for radios keyed from a sound card.
func NewAudioSink(params Params, logger *logrus.Logger) (*Transmitter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Mono, unsigned 8-bit samples
	device, err := oto.NewContext(params.SampleRate, 1, 1, AudioBufferSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}

	out := newAudioOutput(device.NewPlayer(), device, params.SampleRate, logger)
	tx, err := NewTransmitter(out, FormatAudio, params, logger)
	if err != nil {
		out.Close()
		return nil, err
	}
	return tx, nil
}

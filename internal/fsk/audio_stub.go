//go:build !cgo

package fsk

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// AudioSupported reports whether sound device playback is compiled in
const AudioSupported = false

// NewAudioSink returns an error, sound device playback needs a cgo build
func NewAudioSink(params Params, logger *logrus.Logger) (*Transmitter, error) {
	return nil, fmt.Errorf("audio output is not available in builds without cgo, use --format pcm and pipe to aplay")
}

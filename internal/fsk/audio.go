package fsk

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AudioBufferSize is the playback buffer handed to the sound device, in bytes
const AudioBufferSize = 4096

// audioOutput feeds PCM samples to a sound device player. Close waits for
// the device buffer to drain before releasing the player and the device.
type audioOutput struct {
	player io.WriteCloser
	device io.Closer
	drain  time.Duration
	logger *logrus.Logger
	once   sync.Once
	sleep  func(time.Duration)
}

func newAudioOutput(player io.WriteCloser, device io.Closer, sampleRate int, logger *logrus.Logger) *audioOutput {
	return &audioOutput{
		player: player,
		device: device,
		drain:  time.Duration(AudioBufferSize) * time.Second / time.Duration(sampleRate),
		logger: logger,
		sleep:  time.Sleep,
	}
}

func (a *audioOutput) Write(p []byte) (int, error) {
	return a.player.Write(p)
}

func (a *audioOutput) Close() error {
	var err error
	a.once.Do(func() {
		a.sleep(a.drain)
		if perr := a.player.Close(); perr != nil {
			err = fmt.Errorf("failed to close audio player: %w", perr)
			return
		}
		if a.device != nil {
			if derr := a.device.Close(); derr != nil {
				err = fmt.Errorf("failed to close audio device: %w", derr)
				return
			}
		}
		a.logger.Debug("Audio device closed")
	})
	return err
}

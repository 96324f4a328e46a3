package fsk

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParams_Validate tests parameter validation
func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Params)
		wantErr bool
	}{
		{name: "Defaults", modify: func(p *Params) {}},
		{name: "512 baud", modify: func(p *Params) { p.BaudRate = 512 }},
		{name: "2400 baud", modify: func(p *Params) { p.BaudRate = 2400 }},
		{name: "Unsupported baud", modify: func(p *Params) { p.BaudRate = 9600 }, wantErr: true},
		{name: "No frequency", modify: func(p *Params) { p.Frequency = 0 }, wantErr: true},
		{name: "No deviation", modify: func(p *Params) { p.Deviation = 0 }, wantErr: true},
		{name: "Sample rate too low", modify: func(p *Params) { p.SampleRate = 1000 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidParams))
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestParams_Timing tests bit duration and air time
func TestParams_Timing(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, time.Second/1200, p.BitDuration())

	// One 17 word batch at 1200 baud is 544 bits
	assert.Equal(t, 544*time.Second/1200, p.AirTime(17))

	p.BaudRate = 512
	assert.Equal(t, time.Second, p.AirTime(16))
}

// TestParams_Frequencies tests mark and space frequencies
func TestParams_Frequencies(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 466234500.0, p.MarkFrequency())
	assert.Equal(t, 466225500.0, p.SpaceFrequency())
}

// TestParseFormat tests output format parsing
func TestParseFormat(t *testing.T) {
	for _, s := range []string{"pcm", "RAW", " text ", "audio"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("wav")
	assert.Error(t, err)
}

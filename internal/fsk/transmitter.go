package fsk

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"pocsagtx/internal/pocsag"
)

// PCM sample levels
const (
	LevelMark  = 255
	LevelSpace = 0
)

// Sink consumes complete transmissions
type Sink interface {
	Transmit(ctx context.Context, words []pocsag.Codeword) error
	Close() error
}

// Transmitter keys codewords onto an output stream
type Transmitter struct {
	out      io.Writer
	buf      *bufio.Writer
	format   Format
	params   Params
	logger   *logrus.Logger
	bitIndex uint64 // Bits sent since creation, keeps PCM timing continuous
}

// NewTransmitter creates a transmitter writing to out
func NewTransmitter(out io.Writer, format Format, params Params, logger *logrus.Logger) (*Transmitter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"frequency":   params.Frequency,
		"baud_rate":   params.BaudRate,
		"deviation":   params.Deviation,
		"inverted":    params.Inverted,
		"mark_hz":     params.MarkFrequency(),
		"space_hz":    params.SpaceFrequency(),
		"bit_time":    params.BitDuration(),
		"format":      format,
		"sample_rate": params.SampleRate,
	}).Info("Transmitter configured")

	return &Transmitter{
		out:    out,
		buf:    bufio.NewWriterSize(out, 64*1024),
		format: format,
		params: params,
		logger: logger,
	}, nil
}

// Params returns the transmitter parameters
func (t *Transmitter) Params() Params {
	return t.params
}

// Transmit sends every codeword most significant bit first.
// Cancellation is checked between codewords.
func (t *Transmitter) Transmit(ctx context.Context, words []pocsag.Codeword) error {
	t.logger.WithFields(logrus.Fields{
		"words":    len(words),
		"air_time": t.params.AirTime(len(words)),
	}).Debug("Starting transmission")

	for i, word := range words {
		select {
		case <-ctx.Done():
			err := fmt.Errorf("transmission interrupted after %d of %d words: %w", i, len(words), ctx.Err())
			if flushErr := t.buf.Flush(); flushErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to flush output: %w", flushErr))
			}
			return err
		default:
		}

		if err := t.writeWord(word); err != nil {
			return fmt.Errorf("failed to write codeword %d: %w", i, err)
		}
	}

	if err := t.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	t.logger.WithField("words", len(words)).Debug("Transmission complete")
	return nil
}

func (t *Transmitter) writeWord(word pocsag.Codeword) error {
	switch t.format {
	case FormatRaw:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(word))
		_, err := t.buf.Write(b[:])
		return err
	case FormatText:
		_, err := fmt.Fprintf(t.buf, "%032b\n", uint32(word))
		return err
	default:
		for j := 31; j >= 0; j-- {
			if err := t.writeBit(Mark(word, j, t.params.Inverted)); err != nil {
				return err
			}
		}
		return nil
	}
}

// writeBit holds the mark or space level for one bit period. Sample
// counts alternate so the average matches SampleRate/BaudRate exactly.
func (t *Transmitter) writeBit(mark bool) error {
	sr := uint64(t.params.SampleRate)
	baud := uint64(t.params.BaudRate)
	n := (t.bitIndex+1)*sr/baud - t.bitIndex*sr/baud
	t.bitIndex++

	level := byte(LevelSpace)
	if mark {
		level = LevelMark
	}
	for i := uint64(0); i < n; i++ {
		if err := t.buf.WriteByte(level); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes pending output and closes the underlying stream
func (t *Transmitter) Close() error {
	if err := t.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if c, ok := t.out.(io.Closer); ok && t.out != os.Stdout {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close output: %w", err)
		}
	}
	t.logger.Info("Transmitter closed")
	return nil
}

// Mark reports whether bit j of word is sent as mark
func Mark(word pocsag.Codeword, j int, inverted bool) bool {
	bit := (uint32(word)>>uint(j))&1 == 1
	return bit != inverted
}

// OpenOutput opens the transmitter output; "-" is stdout
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output %s: %w", path, err)
	}
	return f, nil
}

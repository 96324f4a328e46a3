package page

import (
	"bytes"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultMaxLineLength matches the line buffer of the serial firmware
const DefaultMaxLineLength = 65536

// Decoder splits a byte stream into lines and parses each one
type Decoder struct {
	logger        *logrus.Logger
	opts          ParseOptions
	maxLineLength int
	buffer        []byte
	discarding    bool
}

// NewDecoder creates a new line decoder
func NewDecoder(opts ParseOptions, maxLineLength int, logger *logrus.Logger) *Decoder {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	return &Decoder{
		logger:        logger,
		opts:          opts,
		maxLineLength: maxLineLength,
		buffer:        make([]byte, 0, 256),
	}
}

// Decode consumes a chunk of input and returns the requests of every line
// it completed. Lines that fail to parse are returned as *LineError.
func (d *Decoder) Decode(data []byte) ([]*Request, []error) {
	d.buffer = append(d.buffer, data...)

	var requests []*Request
	var errs []error

	for {
		idx := bytes.IndexByte(d.buffer, '\n')
		if idx < 0 {
			break
		}

		if d.discarding {
			// Tail of an oversized line, already reported
			d.buffer = d.buffer[idx+1:]
			d.discarding = false
			continue
		}

		if idx > d.maxLineLength {
			errs = append(errs, d.overflow(d.buffer[:idx]))
			d.buffer = d.buffer[idx+1:]
			continue
		}

		line := string(d.buffer[:idx])
		d.buffer = d.buffer[idx+1:]

		req, err := d.parse(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if req != nil {
			requests = append(requests, req)
		}
	}

	switch {
	case d.discarding:
		d.buffer = d.buffer[:0]
	case len(d.buffer) > d.maxLineLength:
		errs = append(errs, d.overflow(d.buffer))
		d.buffer = d.buffer[:0]
		d.discarding = true
	}

	return requests, errs
}

// overflow reports a line longer than the input buffer
func (d *Decoder) overflow(line []byte) error {
	d.logger.WithFields(logrus.Fields{
		"line_size":  len(line),
		"max_length": d.maxLineLength,
	}).Debug("Line exceeds input buffer, discarding")

	return &LineError{Line: preview(line), Err: ErrLineTooLong}
}

// Flush parses whatever remains in the buffer as a final line
func (d *Decoder) Flush() (*Request, error) {
	if d.discarding || len(d.buffer) == 0 {
		d.buffer = d.buffer[:0]
		d.discarding = false
		return nil, nil
	}

	line := string(d.buffer)
	d.buffer = d.buffer[:0]
	return d.parse(line)
}

// parse skips blank lines and parses the rest
func (d *Decoder) parse(line string) (*Request, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	req, err := ParseLine(line, d.opts)
	if err != nil {
		d.logger.WithError(err).Debug("Failed to parse page line")
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"id":      req.ID,
		"address": req.Address,
		"length":  len(req.Message),
	}).Debug("Parsed page request")

	return req, nil
}

// preview shortens an oversized line for error reporting
func preview(b []byte) string {
	if len(b) > 32 {
		return string(b[:32]) + "..."
	}
	return string(b)
}

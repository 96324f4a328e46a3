package page

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocsagtx/internal/pocsag"
)

func newTestDecoder(maxLineLength int) *Decoder {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewDecoder(ParseOptions{Function: 3, Mode: pocsag.ModeText}, maxLineLength, logger)
}

// TestDecoder_Decode tests line assembly across chunk boundaries
func TestDecoder_Decode(t *testing.T) {
	d := newTestDecoder(0)

	reqs, errs := d.Decode([]byte("12"))
	assert.Empty(t, reqs)
	assert.Empty(t, errs)

	reqs, errs = d.Decode([]byte("34:HEL"))
	assert.Empty(t, reqs)
	assert.Empty(t, errs)

	reqs, errs = d.Decode([]byte("LO\n99:second\r\n"))
	assert.Empty(t, errs)
	require.Len(t, reqs, 2)
	assert.Equal(t, uint32(1234), reqs[0].Address)
	assert.Equal(t, "HELLO", reqs[0].Message)
	assert.Equal(t, uint32(99), reqs[1].Address)
	assert.Equal(t, "second", reqs[1].Message)
}

// TestDecoder_MalformedLines tests that bad lines are reported and skipped
func TestDecoder_MalformedLines(t *testing.T) {
	d := newTestDecoder(0)

	reqs, errs := d.Decode([]byte("no separator\n\n   \nabc:def\n5:ok\n"))
	require.Len(t, reqs, 1)
	assert.Equal(t, uint32(5), reqs[0].Address)

	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs[0], ErrMalformedLine))
	assert.True(t, errors.Is(errs[1], ErrInvalidAddress))
}

// TestDecoder_OversizedLine tests that a line longer than the buffer is discarded
func TestDecoder_OversizedLine(t *testing.T) {
	d := newTestDecoder(16)

	reqs, errs := d.Decode([]byte("1:" + strings.Repeat("x", 30)))
	assert.Empty(t, reqs)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrLineTooLong))

	// Rest of the oversized line is dropped, the next line parses
	reqs, errs = d.Decode([]byte("yyyy\n2:next\n"))
	assert.Empty(t, errs)
	require.Len(t, reqs, 1)
	assert.Equal(t, "next", reqs[0].Message)
}

// TestDecoder_OversizedLineSpanningChunks tests that a long line is reported once
func TestDecoder_OversizedLineSpanningChunks(t *testing.T) {
	d := newTestDecoder(100)

	var errs []error
	for i := 0; i < 3; i++ {
		reqs, chunkErrs := d.Decode([]byte(strings.Repeat("z", 150)))
		assert.Empty(t, reqs)
		errs = append(errs, chunkErrs...)
	}
	reqs, chunkErrs := d.Decode([]byte("zzz\n3:after\n"))
	errs = append(errs, chunkErrs...)

	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrLineTooLong))
	require.Len(t, reqs, 1)
	assert.Equal(t, "after", reqs[0].Message)

	req, err := d.Flush()
	assert.NoError(t, err)
	assert.Nil(t, req)
}

// TestDecoder_OversizedCompleteLine tests the limit on a line that arrives whole
func TestDecoder_OversizedCompleteLine(t *testing.T) {
	d := newTestDecoder(100)

	input := "1:short\n12:" + strings.Repeat("y", 500) + "\n2:also short\n"
	reqs, errs := d.Decode([]byte(input))

	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrLineTooLong))
	var lineErr *LineError
	require.True(t, errors.As(errs[0], &lineErr))
	assert.True(t, strings.HasPrefix(lineErr.Line, "12:yyy"))

	require.Len(t, reqs, 2)
	assert.Equal(t, "short", reqs[0].Message)
	assert.Equal(t, "also short", reqs[1].Message)
}

// TestDecoder_LineAtLimit tests that a line of exactly the limit is accepted
func TestDecoder_LineAtLimit(t *testing.T) {
	d := newTestDecoder(10)

	reqs, errs := d.Decode([]byte("1:abcdefgh\n"))
	assert.Empty(t, errs)
	require.Len(t, reqs, 1)
	assert.Equal(t, "abcdefgh", reqs[0].Message)
}

// TestDecoder_Flush tests parsing of a final unterminated line
func TestDecoder_Flush(t *testing.T) {
	d := newTestDecoder(0)

	reqs, _ := d.Decode([]byte("1:first\n2:last"))
	require.Len(t, reqs, 1)

	req, err := d.Flush()
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "last", req.Message)

	req, err = d.Flush()
	assert.NoError(t, err)
	assert.Nil(t, req)
}

// TestDecoder_FlushMalformed tests that a malformed trailing line is reported
func TestDecoder_FlushMalformed(t *testing.T) {
	d := newTestDecoder(0)
	d.Decode([]byte("garbage"))

	req, err := d.Flush()
	assert.Nil(t, req)
	assert.True(t, errors.Is(err, ErrMalformedLine))
}

package journal

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() Record {
	return Record{
		ID:       "6f1c2d1e-0000-4000-8000-000000000001",
		Time:     time.Date(2026, 10, 14, 9, 30, 15, 250_000_000, time.UTC),
		Address:  1234,
		Function: 3,
		Mode:     "text",
		Repeats:  4,
		Words:    86,
		Message:  "HELLO",
	}
}

// TestFormatRecord tests the journal line layout
func TestFormatRecord(t *testing.T) {
	line, err := FormatRecord(testRecord())
	require.NoError(t, err)
	assert.Equal(t, "PAGE,2026/10/14,09:30:15.250,6f1c2d1e-0000-4000-8000-000000000001,1234,3,text,4,86,HELLO\n", string(line))
}

// TestFormatRecordQuoting tests that message text with separators survives
func TestFormatRecordQuoting(t *testing.T) {
	rec := testRecord()
	rec.Message = `call "home", now`

	line, err := FormatRecord(rec)
	require.NoError(t, err)

	fields, err := csv.NewReader(bytes.NewReader(line)).Read()
	require.NoError(t, err)
	require.Len(t, fields, 10)
	assert.Equal(t, rec.Message, fields[9])
}

// TestWriter_WritePage tests writing records
func TestWriter_WritePage(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var out bytes.Buffer
	w := NewWriter(&out, logger)

	require.NoError(t, w.WritePage(testRecord()))
	require.NoError(t, w.WritePage(testRecord()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, RecordType+","))
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestWriter_WriteError tests error propagation
func TestWriter_WriteError(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w := NewWriter(failingWriter{}, logger)
	err := w.WritePage(testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

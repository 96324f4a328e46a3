package journal

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RecordType is the first field of every journal line
const RecordType = "PAGE"

// Record describes one transmitted page
type Record struct {
	ID       string
	Time     time.Time
	Address  uint32
	Function uint8
	Mode     string
	Repeats  int
	Words    int
	Message  string
}

// Writer appends page records as comma separated lines
type Writer struct {
	out    io.Writer
	logger *logrus.Logger
	mutex  sync.Mutex
}

// NewWriter creates a journal writer on out
func NewWriter(out io.Writer, logger *logrus.Logger) *Writer {
	return &Writer{
		out:    out,
		logger: logger,
	}
}

// WritePage writes one record
func (w *Writer) WritePage(rec Record) error {
	line, err := FormatRecord(rec)
	if err != nil {
		return err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if _, err := w.out.Write(line); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"id":      rec.ID,
		"address": rec.Address,
	}).Debug("Journal record written")
	return nil
}

// FormatRecord renders rec as a newline-terminated line:
// PAGE,date,time,id,address,function,mode,repeats,words,message
func FormatRecord(rec Record) ([]byte, error) {
	t := rec.Time.UTC()

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	err := cw.Write([]string{
		RecordType,
		t.Format("2006/01/02"),
		t.Format("15:04:05.000"),
		rec.ID,
		strconv.FormatUint(uint64(rec.Address), 10),
		strconv.Itoa(int(rec.Function)),
		rec.Mode,
		strconv.Itoa(rec.Repeats),
		strconv.Itoa(rec.Words),
		rec.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format journal record: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to format journal record: %w", err)
	}

	return buf.Bytes(), nil
}

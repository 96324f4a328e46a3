package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

// DefaultPrefix names the page journal files
const DefaultPrefix = "pages"

const dateLayout = "2006-01-02"

// LogRotator writes to one file per day and gzips the previous day's file
type LogRotator struct {
	logDir      string
	prefix      string
	useUTC      bool
	logger      *logrus.Logger
	currentFile *os.File
	currentDate string
	mutex       sync.RWMutex
	compressWg  sync.WaitGroup
	now         func() time.Time
}

// NewLogRotator creates the log directory and opens today's file
func NewLogRotator(logDir, prefix string, useUTC bool, logger *logrus.Logger) (*LogRotator, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &LogRotator{
		logDir: logDir,
		prefix: prefix,
		useUTC: useUTC,
		logger: logger,
		now:    time.Now,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.openFile(r.today()); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return r, nil
}

// Start checks for a date change every minute until ctx is done
func (r *LogRotator) Start(ctx context.Context) {
	r.logger.Info("Starting log rotator")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Log rotator stopping")
			return
		case <-ticker.C:
			if err := r.Rotate(); err != nil {
				r.logger.WithError(err).Error("Failed to rotate log file")
			}
		}
	}
}

func (r *LogRotator) today() string {
	now := r.now()
	if r.useUTC {
		now = now.UTC()
	}
	return now.Format(dateLayout)
}

func (r *LogRotator) fileName(date string) string {
	return filepath.Join(r.logDir, fmt.Sprintf("%s_%s.log", r.prefix, date))
}

// Rotate switches to a new file if the date changed. The old file is
// compressed in the background.
func (r *LogRotator) Rotate() error {
	date := r.today()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if date == r.currentDate && r.currentFile != nil {
		return nil
	}

	r.logger.WithFields(logrus.Fields{
		"old_date": r.currentDate,
		"new_date": date,
	}).Info("Rotating log file")

	if r.currentFile != nil {
		oldDate := r.currentDate
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old log file")
		}
		r.currentFile = nil

		r.compressWg.Add(1)
		go func() {
			defer r.compressWg.Done()
			if err := r.compressFile(oldDate); err != nil {
				r.logger.WithError(err).WithField("date", oldDate).Error("Failed to compress log file")
			}
		}()
	}

	return r.openFile(date)
}

// openFile must be called with the mutex held
func (r *LogRotator) openFile(date string) error {
	name := r.fileName(date)
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", name, err)
	}

	r.currentFile = file
	r.currentDate = date
	r.logger.WithField("file", name).Info("Opened log file")
	return nil
}

// compressFile gzips the file for date and removes the uncompressed file
func (r *LogRotator) compressFile(date string) error {
	src := r.fileName(date)
	dst := src + ".gz"

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to compress %s: %w", src, err)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finish %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %s: %w", src, err)
	}

	r.logger.WithField("file", dst).Info("Log file compressed")
	return nil
}

// Write appends p to the current file
func (r *LogRotator) Write(p []byte) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return 0, fmt.Errorf("log rotator closed")
	}
	return r.currentFile.Write(p)
}

// CurrentFile returns the path of the file being written
func (r *LogRotator) CurrentFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentDate == "" {
		return ""
	}
	return r.fileName(r.currentDate)
}

// Files lists all files of this rotator, compressed ones included
func (r *LogRotator) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.logDir, r.prefix+"_*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	return files, nil
}

// Cleanup removes files not modified in the last maxDays days
func (r *LogRotator) Cleanup(maxDays int) (int, error) {
	if maxDays <= 0 {
		return 0, fmt.Errorf("maxDays must be positive")
	}

	files, err := r.Files()
	if err != nil {
		return 0, err
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.CurrentFile()

	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}

		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat log file")
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Error("Failed to remove old log file")
				continue
			}
			removed++
		}
	}

	r.logger.WithField("count", removed).Debug("Cleaned up old log files")
	return removed, nil
}

// Close closes the current file and waits for pending compression
func (r *LogRotator) Close() error {
	r.mutex.Lock()
	var err error
	if r.currentFile != nil {
		err = r.currentFile.Close()
		r.currentFile = nil
	}
	r.mutex.Unlock()

	r.compressWg.Wait()

	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

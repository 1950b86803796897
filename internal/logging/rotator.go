// Package logging rotates the receiver's decoded-frame log daily and
// compresses the previous day's file in the background.
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

// Rotator writes to a dated log file, swapping to a new one and
// gzip-compressing the previous day's file whenever the date changes.
type Rotator struct {
	logDir string
	useUTC bool
	logger *logrus.Logger

	mutex       sync.RWMutex
	currentFile *os.File
	currentDate string

	cancel context.CancelFunc
}

// New creates logDir if needed and opens today's log file.
func New(logDir string, useUTC bool, logger *logrus.Logger) (*Rotator, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: create log dir: %w", err)
	}

	r := &Rotator{logDir: logDir, useUTC: useUTC, logger: logger}
	if err := r.rotate(); err != nil {
		return nil, fmt.Errorf("logging: initialize log file: %w", err)
	}
	return r, nil
}

// Run checks for a date rollover once a minute until ctx is canceled.
func (r *Rotator) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *Rotator) now() time.Time {
	if r.useUTC {
		return time.Now().UTC()
	}
	return time.Now()
}

func (r *Rotator) checkRotation() {
	date := r.now().Format("2006-01-02")

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.currentDate == date {
		return
	}
	r.logger.WithFields(logrus.Fields{"old_date": r.currentDate, "new_date": date}).Info("logging: rotating")
	if err := r.rotateLocked(); err != nil {
		r.logger.WithError(err).Error("logging: rotation failed")
	}
}

func (r *Rotator) rotate() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.rotateLocked()
}

func (r *Rotator) rotateLocked() error {
	newDate := r.now().Format("2006-01-02")

	if r.currentFile != nil {
		oldFile, oldDate := r.currentFile, r.currentDate
		if err := oldFile.Close(); err != nil {
			r.logger.WithError(err).Error("logging: close old log file failed")
		}
		go r.compress(oldDate)
	}

	path := r.pathFor(newDate)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %s: %w", path, err)
	}
	r.currentFile = f
	r.currentDate = newDate
	return nil
}

func (r *Rotator) pathFor(date string) string {
	return filepath.Join(r.logDir, fmt.Sprintf("go1090_%s.log", date))
}

func (r *Rotator) compress(date string) {
	src, dst := r.pathFor(date), r.pathFor(date)+".gz"

	if _, err := os.Stat(src); os.IsNotExist(err) {
		return
	}
	in, err := os.Open(src)
	if err != nil {
		r.logger.WithError(err).WithField("file", src).Error("logging: open for compression failed")
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		r.logger.WithError(err).WithField("file", dst).Error("logging: create compressed file failed")
		return
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, in); err != nil {
		r.logger.WithError(err).Error("logging: compress failed")
		return
	}
	if err := gz.Close(); err != nil {
		r.logger.WithError(err).Error("logging: close gzip writer failed")
		return
	}
	if err := os.Remove(src); err != nil {
		r.logger.WithError(err).WithField("file", src).Error("logging: remove original failed")
	}
}

// Write implements io.Writer over the current log file.
func (r *Rotator) Write(p []byte) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.currentFile == nil {
		return 0, fmt.Errorf("logging: no current log file")
	}
	return r.currentFile.Write(p)
}

// Cleanup removes rotated log files (compressed or not, excluding
// today's) older than maxDays.
func (r *Rotator) Cleanup(maxDays int) error {
	if maxDays <= 0 {
		return fmt.Errorf("logging: maxDays must be positive")
	}
	files, err := filepath.Glob(filepath.Join(r.logDir, "go1090_*.log*"))
	if err != nil {
		return fmt.Errorf("logging: glob log files: %w", err)
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.pathFor(r.currentDate)
	for _, f := range files {
		if f == current {
			continue
		}
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(f); err != nil {
				r.logger.WithError(err).WithField("file", f).Error("logging: remove old log failed")
			}
		}
	}
	return nil
}

// Close stops the rotation ticker and closes the current file.
func (r *Rotator) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.currentFile != nil {
		err := r.currentFile.Close()
		r.currentFile = nil
		return err
	}
	return nil
}

package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/lestrrat-go/strftime"
	"github.com/sirupsen/logrus"
)

// DefaultPattern names one output file per day
const DefaultPattern = "adsb_%Y-%m-%d.log"

const compressedSuffix = ".gz"

var verbRegexp = regexp.MustCompile(`%.`)

// LogRotator handles log rotation with gzip compression. The file name is built from a
// strftime pattern; a new file is started whenever the formatted name changes.
type LogRotator struct {
	logDir      string
	pattern     *strftime.Strftime
	glob        string
	useUTC      bool
	logger      *logrus.Logger
	now         func() time.Time
	currentFile *os.File
	currentName string
	mutex       sync.RWMutex
	compressing sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewLogRotator creates a new log rotator
func NewLogRotator(logDir, pattern string, useUTC bool, logger *logrus.Logger) (*LogRotator, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid log file pattern %q: %w", pattern, err)
	}

	// Create log directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	rotator := &LogRotator{
		logDir:  logDir,
		pattern: f,
		glob:    verbRegexp.ReplaceAllString(pattern, "*"),
		useUTC:  useUTC,
		logger:  logger,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}

	// Initialize current log file
	if err := rotator.rotateLogFile(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return rotator, nil
}

// Start starts the log rotation scheduler
func (r *LogRotator) Start(ctx context.Context) {
	r.logger.Info("Starting log rotator")

	ticker := time.NewTicker(1 * time.Minute) // Check every minute
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Log rotator stopping")
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *LogRotator) clock() time.Time {
	if r.useUTC {
		return r.now().UTC()
	}
	return r.now()
}

// checkRotation checks if log rotation is needed
func (r *LogRotator) checkRotation() {
	name := r.pattern.FormatString(r.clock())

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile != nil && r.currentName != name {
		r.logger.WithFields(logrus.Fields{
			"old_file": r.currentName,
			"new_file": name,
		}).Info("Rotating log file")

		if err := r.rotateLogFile(); err != nil {
			r.logger.WithError(err).Error("Failed to rotate log file")
		}
	}
}

// rotateLogFile closes the current file, compresses it in the background and opens
// the file named after the current time. The caller holds the lock, or is the constructor.
func (r *LogRotator) rotateLogFile() error {
	newName := r.pattern.FormatString(r.clock())
	if r.currentFile != nil && newName == r.currentName {
		return nil
	}

	// Close current file if it exists
	if r.currentFile != nil {
		oldName := r.currentName

		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old log file")
		}
		r.currentFile = nil

		r.compressing.Add(1)
		go func() {
			defer r.compressing.Done()
			r.compressLogFile(oldName)
		}()
	}

	path := filepath.Join(r.logDir, newName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	r.currentFile = file
	r.currentName = newName

	r.logger.WithField("file", path).Info("Created new log file")

	return nil
}

// compressLogFile compresses a log file with gzip and removes the original
func (r *LogRotator) compressLogFile(name string) {
	logFile := filepath.Join(r.logDir, name)
	gzipFile := logFile + compressedSuffix

	r.logger.WithFields(logrus.Fields{
		"source": logFile,
		"target": gzipFile,
	}).Info("Compressing log file")

	if err := compressFile(logFile, gzipFile); err != nil {
		if os.IsNotExist(err) {
			r.logger.WithField("file", logFile).Debug("Log file doesn't exist, skipping compression")
			return
		}
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to compress log file")
		return
	}

	if err := os.Remove(logFile); err != nil {
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to remove original log file")
		return
	}

	r.logger.WithField("file", gzipFile).Info("Log file compressed successfully")
}

func compressFile(source, target string) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create compressed file: %w", err)
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	gzWriter.Name = filepath.Base(source)
	gzWriter.ModTime = time.Now()

	if _, err := io.Copy(gzWriter, src); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to copy data: %w", err)
	}

	// Close gzip writer to flush data
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return dst.Close()
}

// GetWriter returns the current log writer
func (r *LogRotator) GetWriter() (io.Writer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return nil, fmt.Errorf("no current log file")
	}

	return r.currentFile, nil
}

// Close closes the log rotator and waits for pending compressions
func (r *LogRotator) Close() error {
	r.logger.Info("Closing log rotator")

	r.cancel()

	r.mutex.Lock()
	defer r.mutex.Unlock()
	defer r.compressing.Wait()

	if r.currentFile != nil {
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close current log file")
			return err
		}
		r.currentFile = nil
	}

	return nil
}

// GetCurrentLogFile returns the current log file path
func (r *LogRotator) GetCurrentLogFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentName == "" {
		return ""
	}

	return filepath.Join(r.logDir, r.currentName)
}

// GetLogFiles returns a list of all log files (including compressed ones)
func (r *LogRotator) GetLogFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.logDir, r.glob))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	compressed, err := filepath.Glob(filepath.Join(r.logDir, r.glob+compressedSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	return append(files, compressed...), nil
}

// CleanupOldLogs removes log files older than the specified number of days
func (r *LogRotator) CleanupOldLogs(maxDays int) error {
	if maxDays <= 0 {
		return fmt.Errorf("maxDays must be positive")
	}

	files, err := r.GetLogFiles()
	if err != nil {
		return fmt.Errorf("failed to get log files: %w", err)
	}

	cutoff := r.clock().AddDate(0, 0, -maxDays)
	current := r.GetCurrentLogFile()

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
			} else {
				r.logger.WithField("file", file).Info("Removed old log file")
				removed++
			}
		}
	}

	r.logger.WithField("count", removed).Info("Cleaned up old log files")
	return nil
}

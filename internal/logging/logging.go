package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	appDir  = "maccleanup"
	logFile = "maccleanup.log"
)

// Options configures the diagnostic log.
type Options struct {
	File       string
	Level      zerolog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console, when set, mirrors every event in human-readable form (--debug).
	Console io.Writer
}

// DefaultFile returns <configDir>/maccleanup/maccleanup.log.
func DefaultFile(configDir string) string {
	return filepath.Join(configDir, appDir, logFile)
}

// Dir returns the directory holding the log file and its rotated backups.
func (o Options) Dir() string {
	return filepath.Dir(o.File)
}

// New creates a JSON logger writing to a rotating file. When the log directory
// cannot be created the logger falls back to the console writer only and the
// error is returned alongside it.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: "15:04:05",
		})
	}

	var closer io.Closer = nopCloser{}
	var setupErr error
	if err := os.MkdirAll(opts.Dir(), 0o755); err != nil {
		setupErr = fmt.Errorf("ensure log directory %s: %w", opts.Dir(), err)
	} else {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writers = append(writers, rotating)
		closer = rotating
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, setupErr
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(opts.Level).
		With().
		Timestamp().
		Logger()
	return logger, closer, setupErr
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

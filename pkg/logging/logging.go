// Package logging builds the logrus logger shared by pmaxcheck components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options configures a logger.
type Options struct {
	Level   string
	Path    string // directory for the log file; created if missing
	File    string // log file name; empty disables file output
	Verbose bool   // forces debug level
	Console io.Writer
}

// New creates a logger that writes to the console and, when configured, to a log file.
// The returned close function releases the file handle.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	closer := func() error { return nil }
	if opts.File == "" {
		logger.SetOutput(console)
		return logger, closer, nil
	}

	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(opts.Path, opts.File), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}

	logger.SetOutput(io.MultiWriter(console, f))
	return logger, f.Close, nil
}

// Default returns a logger that only reports warnings and above to stderr.
// Components use it when no logger is supplied.
func Default() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

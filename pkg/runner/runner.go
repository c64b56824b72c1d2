// Package runner executes shell commands and caches their output on disk.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/danpilch/pmaxcheck/pkg/logging"
)

// Result holds the outcome of a command run.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Cached   bool
	Duration time.Duration
}

// Runner runs commands through a shell, optionally persisting stdout under OutputPath.
type Runner struct {
	shell      string
	outputPath string
	timeout    time.Duration
	logger     *logrus.Logger
}

// New creates a runner. Shell defaults to $SHELL, then /bin/sh.
func New(outputPath string, timeout time.Duration, logger *logrus.Logger) *Runner {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		shell:      shell,
		outputPath: outputPath,
		timeout:    timeout,
		logger:     logger,
	}
}

// WithShell overrides the shell used to run commands.
func (r *Runner) WithShell(shell string) *Runner {
	r.shell = shell
	return r
}

// Run executes command. When outputFile is set and already exists under the
// output path, the command is skipped and the file contents are returned,
// unless recreate is true. Stdout of a successful run is written to outputFile.
func (r *Runner) Run(ctx context.Context, command, outputFile string, recreate bool) (Result, error) {
	var outPath string
	if outputFile != "" {
		outPath = filepath.Join(r.outputPath, outputFile)
		if !recreate {
			content, err := readLocked(outPath)
			if err == nil {
				r.logger.WithField("path", outPath).Info("Output file exists, skipping command execution")
				return Result{Command: command, Stdout: content, Cached: true}, nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return Result{Command: command}, fmt.Errorf("cannot read cached output: %w", err)
			}
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.WithField("command", command).Info("Executing command")

	c := exec.CommandContext(ctx, r.shell, "-c", command)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	// Children of the shell may hold the pipes open after it is killed.
	c.WaitDelay = time.Second

	start := time.Now()
	err := c.Run()
	result := Result{
		Command:  command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		if ctx.Err() != nil {
			return result, fmt.Errorf("command timed out after %v: %w", r.timeout, ctx.Err())
		}
		return result, fmt.Errorf("command failed with exit code %d: %w", result.ExitCode, err)
	}

	if outPath != "" {
		if err := writeLocked(outPath, result.Stdout); err != nil {
			return result, fmt.Errorf("cannot save command output: %w", err)
		}
		r.logger.WithField("path", outPath).Info("Command output saved")
	}

	return result, nil
}

// readLocked reads path while holding a shared advisory lock so a concurrent
// writer never hands back a truncated file.
func readLocked(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		return "", fmt.Errorf("lock %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeLocked(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err = f.WriteString(content)
	return err
}

package unisphere

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/runner"
)

// Snapshot is a captured set of upstream responses in one JSON document.
// Health and SRP hold the raw bodies of the corresponding REST endpoints.
type Snapshot struct {
	ArrayID string            `json:"array_id"`
	Health  json.RawMessage   `json:"health,omitempty"`
	SRP     json.RawMessage   `json:"srp,omitempty"`
	Alerts  []json.RawMessage `json:"alerts,omitempty"`
}

// ParseSnapshot decodes a snapshot document.
func ParseSnapshot(raw []byte) (*Snapshot, error) {
	if isEmpty(raw) {
		return nil, ErrNoData
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("cannot parse snapshot: %w", err)
	}
	return &snap, nil
}

var errNotPrepared = errors.New("snapshot not loaded")

// snapshotSource serves fetches from a snapshot loaded by Prepare.
type snapshotSource struct {
	name     string
	arrayID  string
	mu       sync.RWMutex
	snapshot *Snapshot
	load     func(ctx context.Context) ([]byte, error)
	tracer   Tracer
}

// SetTracer enables tracing of snapshot loads.
func (s *snapshotSource) SetTracer(t Tracer) {
	s.tracer = t
}

func (s *snapshotSource) Name() string {
	return s.name
}

// ArrayID prefers the configured ID and falls back to the one in the document.
func (s *snapshotSource) ArrayID() string {
	if s.arrayID != "" {
		return s.arrayID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot != nil {
		return s.snapshot.ArrayID
	}
	return ""
}

// Prepare loads (or reloads) the snapshot document.
func (s *snapshotSource) Prepare(ctx context.Context) error {
	start := time.Now()
	raw, err := s.load(ctx)
	if err != nil {
		return err
	}
	snap, err := ParseSnapshot(raw)
	if err != nil {
		return err
	}
	if s.tracer != nil {
		s.tracer.Trace(s.name, "load", fmt.Sprintf("bytes=%d alerts=%d elapsed=%v",
			len(raw), len(snap.Alerts), time.Since(start)))
	}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return nil
}

func (s *snapshotSource) current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, errNotPrepared
	}
	return s.snapshot, nil
}

func (s *snapshotSource) Health(ctx context.Context) (*check.HealthSnapshot, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return DecodeHealth(snap.Health)
}

// Capacity returns the document's SRP figures. The document holds a single
// SRP, so srpID is not used for lookup.
func (s *snapshotSource) Capacity(ctx context.Context, srpID string) (*check.CapacityMetrics, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return DecodeCapacity(snap.SRP)
}

// AlertCount returns the number of alerts in the document. The producer of
// the snapshot is responsible for windowing.
func (s *snapshotSource) AlertCount(ctx context.Context, since, until time.Time) (int, error) {
	snap, err := s.current()
	if err != nil {
		return 0, err
	}
	return len(snap.Alerts), nil
}

// FileSource reads a snapshot document from disk.
type FileSource struct {
	snapshotSource
	path string
}

// NewFileSource creates a source backed by the snapshot file at path.
func NewFileSource(path, arrayID string) *FileSource {
	fs := &FileSource{path: path}
	fs.name = "file"
	fs.arrayID = arrayID
	fs.load = func(context.Context) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read snapshot %q: %w", path, err)
		}
		return data, nil
	}
	return fs
}

// Path returns the snapshot file path.
func (f *FileSource) Path() string {
	return f.path
}

// CommandSource obtains a snapshot document from the stdout of a shell command.
// Output is cached in outputFile under the runner's output path.
type CommandSource struct {
	snapshotSource
	command string
}

// NewCommandSource creates a source that runs command through r.
func NewCommandSource(r *runner.Runner, command, outputFile string, recreate bool, arrayID string) *CommandSource {
	cs := &CommandSource{command: command}
	cs.name = "command"
	cs.arrayID = arrayID
	cs.load = func(ctx context.Context) ([]byte, error) {
		res, err := r.Run(ctx, command, outputFile, recreate)
		if err != nil {
			return nil, fmt.Errorf("snapshot command: %w", err)
		}
		return []byte(res.Stdout), nil
	}
	return cs
}

// Command returns the configured command.
func (c *CommandSource) Command() string {
	return c.command
}

var (
	_ Source   = (*FileSource)(nil)
	_ Preparer = (*FileSource)(nil)
	_ Source   = (*CommandSource)(nil)
	_ Preparer = (*CommandSource)(nil)
)

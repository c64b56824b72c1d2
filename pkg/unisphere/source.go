// Package unisphere fetches array health, SRP capacity and alert counts from
// the management REST API or from a captured snapshot document.
package unisphere

import (
	"context"
	"time"

	"github.com/danpilch/pmaxcheck/pkg/check"
)

// Source supplies the raw inputs for an evaluation. A nil result with a nil
// error means the upstream had nothing to report.
type Source interface {
	// Name identifies the source in logs (e.g. "rest", "file").
	Name() string

	// ArrayID returns the array the source reports on.
	ArrayID() string

	Health(ctx context.Context) (*check.HealthSnapshot, error)
	Capacity(ctx context.Context, srpID string) (*check.CapacityMetrics, error)
	AlertCount(ctx context.Context, since, until time.Time) (int, error)
}

// Preparer is implemented by sources that load their data in one step before
// the individual fetches run.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Tracer receives a line per upstream step when request tracing is enabled.
type Tracer interface {
	Trace(component, step, detail string)
}

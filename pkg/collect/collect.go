// Package collect gathers the inputs for one evaluation from a source.
package collect

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/logging"
	"github.com/danpilch/pmaxcheck/pkg/unisphere"
)

// Collection holds what a source reported. Nil fields are absent data.
type Collection struct {
	ArrayID      string                 `json:"array_id"`
	SRPID        string                 `json:"srp_id"`
	Source       string                 `json:"source"`
	CollectedAt  time.Time              `json:"collected_at"`
	Health       *check.HealthSnapshot  `json:"health"`
	Capacity     *check.CapacityMetrics `json:"capacity"`
	RecentAlerts int                    `json:"recent_alerts"`

	// Errors maps a fetch name to the error that made it absent.
	Errors map[string]string `json:"errors,omitempty"`
}

// Options selects what to fetch.
type Options struct {
	SRPID       string
	AlertWindow time.Duration
	Timeout     time.Duration
}

// Collector fetches health, capacity and alerts from a source.
type Collector struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewCollector creates a collector.
func NewCollector(logger *logrus.Logger) *Collector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Collector{
		logger: logger,
		now:    time.Now,
	}
}

// Collect runs the three fetches concurrently. A failed fetch is logged and
// left absent; Collect itself only fails when the source cannot be prepared.
func (c *Collector) Collect(ctx context.Context, src unisphere.Source, opts Options) (Collection, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	now := c.now()
	col := Collection{
		SRPID:       opts.SRPID,
		Source:      src.Name(),
		CollectedAt: now,
	}

	if p, ok := src.(unisphere.Preparer); ok {
		c.logger.WithField("source", src.Name()).Debug("Preparing source")
		if err := p.Prepare(ctx); err != nil {
			return col, err
		}
	}
	col.ArrayID = src.ArrayID()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	fail := func(fetch string, err error) {
		c.logger.WithFields(logrus.Fields{
			"source": src.Name(),
			"fetch":  fetch,
			"error":  err,
		}).Warn("Fetch failed")

		mu.Lock()
		if col.Errors == nil {
			col.Errors = make(map[string]string)
		}
		col.Errors[fetch] = err.Error()
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		health, err := src.Health(ctx)
		if err != nil {
			fail("health", err)
			return
		}
		mu.Lock()
		col.Health = health
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		capacity, err := src.Capacity(ctx, opts.SRPID)
		if err != nil {
			fail("capacity", err)
			return
		}
		mu.Lock()
		col.Capacity = capacity
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		n, err := src.AlertCount(ctx, now.Add(-opts.AlertWindow), now)
		if err != nil {
			fail("alerts", err)
			return
		}
		mu.Lock()
		col.RecentAlerts = n
		mu.Unlock()
	}()
	wg.Wait()

	c.logger.WithFields(logrus.Fields{
		"source":  src.Name(),
		"array":   col.ArrayID,
		"failed":  len(col.Errors),
		"elapsed": c.now().Sub(now),
	}).Debug("Collection complete")

	return col, nil
}

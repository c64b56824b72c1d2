// Package report turns a collection into an evaluated report.
package report

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/collect"
)

// Report is the evaluated state of one array at one point in time.
type Report struct {
	Timestamp    time.Time              `json:"timestamp"`
	ArrayID      string                 `json:"array_id"`
	Health       check.EvaluationResult `json:"health"`
	Capacity     check.EvaluationResult `json:"capacity"`
	RecentAlerts int                    `json:"recent_alerts"`

	// Sanity holds failed capacity sanity checks.
	Sanity []check.SanityResult `json:"sanity,omitempty"`

	// AlertWindow is the period RecentAlerts covers.
	AlertWindow time.Duration            `json:"-"`
	Thresholds  check.CapacityThresholds `json:"-"`
	Inputs      collect.Collection       `json:"-"`
}

// Build evaluates a collection against the capacity thresholds.
func Build(col collect.Collection, thresholds check.CapacityThresholds, window time.Duration) Report {
	return Report{
		Timestamp:    col.CollectedAt,
		ArrayID:      col.ArrayID,
		Health:       check.EvaluateHealth(col.Health),
		Capacity:     check.EvaluateCapacity(col.Capacity, thresholds),
		RecentAlerts: col.RecentAlerts,
		Sanity:       check.Failed(check.SanityCheck(col.Capacity)),
		AlertWindow:  window,
		Thresholds:   thresholds,
		Inputs:       col,
	}
}

// Results returns the report's evaluations, health first.
func (r Report) Results() []check.EvaluationResult {
	return []check.EvaluationResult{r.Health, r.Capacity}
}

// Status returns the overall status of the report.
func (r Report) Status() check.Status {
	return check.Overall(r.Results()...)
}

// ExitCode returns the monitoring-plugin exit code for the report.
func (r Report) ExitCode() int {
	return check.ExitCode(r.Results()...)
}

// LogSanity logs every failed sanity check at warn level.
func (r Report) LogSanity(logger *logrus.Logger) {
	for _, s := range r.Sanity {
		logger.WithFields(logrus.Fields{
			"array":   r.ArrayID,
			"check":   s.Check,
			"details": s.Details,
		}).Warn("Capacity sanity check failed")
	}
}

// Package metrics exposes reports as Prometheus gauges and writes them in the
// node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/report"
)

const namespace = "pmax"

// StatusValue maps a status to the gauge value used for it.
func StatusValue(s check.Status) float64 {
	switch s {
	case check.StatusOK:
		return 0
	case check.StatusWarning:
		return 1
	case check.StatusCritical:
		return 2
	}
	return 3
}

// Exporter holds the gauges for one process on a private registry.
type Exporter struct {
	registry *prometheus.Registry

	HealthScore    *prometheus.GaugeVec
	Status         *prometheus.GaugeVec
	CapacityGB     *prometheus.GaugeVec
	CapacityPct    *prometheus.GaugeVec
	RecentAlerts   *prometheus.GaugeVec
	FetchFailed    *prometheus.GaugeVec
	LastCollection *prometheus.GaugeVec
}

// NewExporter creates an exporter with all gauges registered.
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		registry: reg,

		HealthScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "array_health_score",
			Help:      "Array health score reported by the management API (0-100, -1 if unreported)",
		}, []string{"array"}),

		Status: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_status",
			Help:      "Evaluated status per check (0=OK, 1=WARNING, 2=CRITICAL, 3=UNKNOWN)",
		}, []string{"array", "check"}),

		CapacityGB: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "srp_capacity_gigabytes",
			Help:      "Storage resource pool capacity in GB",
		}, []string{"array", "srp", "kind"}),

		CapacityPct: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "srp_capacity_percent",
			Help:      "Used and subscribed capacity as a percentage of total",
		}, []string{"array", "srp", "kind"}),

		RecentAlerts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recent_alerts",
			Help:      "Alerts raised on the array within the alert window",
		}, []string{"array"}),

		FetchFailed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetch_failed",
			Help:      "1 if the last fetch of this kind failed",
		}, []string{"array", "fetch"}),

		LastCollection: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_collection_timestamp_seconds",
			Help:      "Unix time of the last collection",
		}, []string{"array"}),
	}
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Update sets every gauge from a report. Capacity series are removed when the
// report has no capacity figures so stale values are not exported.
func (e *Exporter) Update(r report.Report) {
	array := r.ArrayID
	srp := r.Inputs.SRPID

	if h := r.Inputs.Health; h != nil {
		e.HealthScore.WithLabelValues(array).Set(float64(h.Score))
	} else {
		e.HealthScore.DeleteLabelValues(array)
	}

	e.Status.WithLabelValues(array, "health").Set(StatusValue(r.Health.Status))
	e.Status.WithLabelValues(array, "capacity").Set(StatusValue(r.Capacity.Status))
	e.Status.WithLabelValues(array, "overall").Set(StatusValue(r.Status()))

	if m := r.Capacity.Metrics; m != nil {
		e.CapacityGB.WithLabelValues(array, srp, "total").Set(m.TotalCapacityGB)
		e.CapacityGB.WithLabelValues(array, srp, "used").Set(m.UsedCapacityGB)
		e.CapacityGB.WithLabelValues(array, srp, "subscribed").Set(m.SubscribedCapacityGB)
		e.CapacityPct.WithLabelValues(array, srp, "used").Set(m.PercentUsed)
		e.CapacityPct.WithLabelValues(array, srp, "subscribed").Set(m.PercentSubscribed)
	} else {
		e.CapacityGB.DeletePartialMatch(prometheus.Labels{"array": array})
		e.CapacityPct.DeletePartialMatch(prometheus.Labels{"array": array})
	}

	e.RecentAlerts.WithLabelValues(array).Set(float64(r.RecentAlerts))

	for _, fetch := range []string{"health", "capacity", "alerts"} {
		failed := 0.0
		if _, ok := r.Inputs.Errors[fetch]; ok {
			failed = 1
		}
		e.FetchFailed.WithLabelValues(array, fetch).Set(failed)
	}

	if !r.Timestamp.IsZero() {
		e.LastCollection.WithLabelValues(array).Set(float64(r.Timestamp.Unix()))
	}
}

// WriteTextfile writes the registry to path for the node_exporter textfile
// collector. The file is replaced atomically.
func (e *Exporter) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create textfile directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("cannot write textfile %q: %w", path, err)
	}
	return nil
}

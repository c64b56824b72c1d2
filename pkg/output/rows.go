package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/report"
)

// Row is one line of a report as shown by the tabular formats.
type Row struct {
	Key    string
	Name   string
	Status check.Status // empty for informational rows
	Value  string
	Raw    float64
	Detail string
}

// Rows flattens a report into display rows: health, capacity, then alerts.
func Rows(r report.Report) []Row {
	rows := []Row{healthRow(r)}

	if m := r.Capacity.Metrics; m != nil {
		rows = append(rows,
			Row{
				Key:    "used",
				Name:   "Used capacity",
				Status: r.Thresholds.Used.Evaluate(m.PercentUsed),
				Value:  fmt.Sprintf("%.2f%%", m.PercentUsed),
				Raw:    m.PercentUsed,
				Detail: fmt.Sprintf("%.2f of %.2f GB", m.UsedCapacityGB, m.TotalCapacityGB),
			},
			Row{
				Key:    "subscribed",
				Name:   "Subscribed capacity",
				Status: r.Thresholds.Subscribed.Evaluate(m.PercentSubscribed),
				Value:  fmt.Sprintf("%.2f%%", m.PercentSubscribed),
				Raw:    m.PercentSubscribed,
				Detail: fmt.Sprintf("%.2f of %.2f GB", m.SubscribedCapacityGB, m.TotalCapacityGB),
			},
		)
	} else {
		rows = append(rows, Row{
			Key:    "capacity",
			Name:   "Capacity",
			Status: r.Capacity.Status,
			Value:  "-",
			Detail: strings.Join(r.Capacity.Messages, "; "),
		})
	}

	rows = append(rows, Row{
		Key:    "alerts",
		Name:   "Recent alerts",
		Value:  strconv.Itoa(r.RecentAlerts),
		Raw:    float64(r.RecentAlerts),
		Detail: "last " + WindowLabel(r.AlertWindow),
	})
	return rows
}

func healthRow(r report.Report) Row {
	row := Row{
		Key:    "health",
		Name:   "Array health",
		Status: r.Health.Status,
		Value:  "-",
		Detail: strings.Join(r.Health.Messages, "; "),
	}
	if h := r.Inputs.Health; h != nil {
		row.Value = strconv.Itoa(h.Score)
		row.Raw = float64(h.Score)
	}
	return row
}

// Headroom describes how much capacity remains in the pool.
type Headroom struct {
	FreeGB        float64
	FreePercent   float64
	UntilWarnGB   float64
	UntilCritGB   float64
	Oversubscribe float64 // subscribed / total
}

// ComputeHeadroom derives remaining capacity from evaluated metrics. It
// returns false when no capacity figures are available.
func ComputeHeadroom(m *check.CapacityPercentages, t check.Thresholds) (Headroom, bool) {
	if m == nil || m.TotalCapacityGB <= 0 {
		return Headroom{}, false
	}
	free := m.TotalCapacityGB - m.UsedCapacityGB
	if free < 0 {
		free = 0
	}
	return Headroom{
		FreeGB:        free,
		FreePercent:   free / m.TotalCapacityGB * 100,
		UntilWarnGB:   untilThreshold(m, t.Warning),
		UntilCritGB:   untilThreshold(m, t.Critical),
		Oversubscribe: m.SubscribedCapacityGB / m.TotalCapacityGB,
	}, true
}

func untilThreshold(m *check.CapacityPercentages, percent float64) float64 {
	gb := m.TotalCapacityGB*percent/100 - m.UsedCapacityGB
	if gb < 0 {
		return 0
	}
	return gb
}

// WindowLabel renders an alert window the way the report text names it,
// e.g. "24 hours" or "7 days".
func WindowLabel(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d <= 0:
		return "0 hours"
	case d > day && d%day == 0:
		return plural(int(d/day), "day")
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	}
	return d.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

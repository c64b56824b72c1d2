package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/collect"
	"github.com/danpilch/pmaxcheck/pkg/report"
)

func sampleReport(used float64) report.Report {
	return report.Build(collect.Collection{
		ArrayID:      "000197900123",
		SRPID:        "SRP_1",
		CollectedAt:  time.Date(2025, 5, 21, 9, 30, 0, 0, time.UTC),
		Health:       &check.HealthSnapshot{Score: 100, Description: "OK"},
		Capacity:     &check.CapacityMetrics{TotalCapacityGB: 100, UsedCapacityGB: used, SubscribedCapacityGB: 50},
		RecentAlerts: 3,
	}, check.DefaultCapacityThresholds(), 24*time.Hour)
}

func render(t *testing.T, f Format, r report.Report) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(f, &buf).Render(r))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "table", "json", "markdown", "TSV"} {
		_, err := ParseFormat(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseFormat("ai")
	assert.Error(t, err)
}

func TestRenderText(t *testing.T) {
	out := render(t, FormatText, sampleReport(90))

	want := `PowerMax Health and Capacity Report - 2025-05-21T09:30:00Z
Array ID: 000197900123

Health Status:
  Status: OK
  Details: Array health is OK (score: 100)

Capacity Status:
  Status: CRITICAL
  - Used capacity at 90.00% (threshold: 85%)
  - Subscribed capacity at 50.00% - OK

Recent Alerts (last 24 hours): 3
`
	assert.Equal(t, want, out)
}

func TestRenderJSON(t *testing.T) {
	out := render(t, FormatJSON, sampleReport(40))

	var decoded struct {
		Timestamp    string                 `json:"timestamp"`
		ArrayID      string                 `json:"array_id"`
		Health       check.EvaluationResult `json:"health"`
		Capacity     check.EvaluationResult `json:"capacity"`
		RecentAlerts int                    `json:"recent_alerts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "000197900123", decoded.ArrayID)
	assert.Equal(t, check.StatusOK, decoded.Capacity.Status)
	require.NotNil(t, decoded.Capacity.Metrics)
	assert.InDelta(t, 40.0, decoded.Capacity.Metrics.PercentUsed, 0.001)
	assert.Equal(t, 3, decoded.RecentAlerts)
}

func TestRenderTable(t *testing.T) {
	out := render(t, FormatTable, sampleReport(75))

	assert.Contains(t, out, "Used capacity")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "Free: 25.00 GB")
	assert.Contains(t, out, "1 warnings")
}

func TestRenderMarkdown(t *testing.T) {
	out := render(t, FormatMarkdown, sampleReport(90))

	assert.True(t, strings.HasPrefix(out, "# Array 000197900123: CRITICAL"))
	assert.Contains(t, out, "- **[CRITICAL] Used capacity:** 90.00%")
	assert.Contains(t, out, "| Used capacity | **90.00%** | CRITICAL |")
	assert.Contains(t, out, "## Suggested Next Steps")
	assert.Contains(t, out, "symcfg -sid 000197900123 show -srp SRP_1 -gb")
	assert.Contains(t, out, "symevent -sid 000197900123 list -warn")
}

func TestRenderMarkdown_AllOK(t *testing.T) {
	r := sampleReport(10)
	r.RecentAlerts = 0
	out := render(t, FormatMarkdown, r)

	assert.Contains(t, out, "All checks passed")
	assert.NotContains(t, out, "Suggested Next Steps")
}

func TestRenderTSV(t *testing.T) {
	out := render(t, FormatTSV, sampleReport(72))
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, "CHECK\tVALUE\tRAW_VALUE\tSTATUS\tDETAILS", lines[0])
	assert.Equal(t, "used\t72.00%\t72.0000\tWARNING\t72.00 of 100.00 GB", lines[2])
	assert.Equal(t, "alerts\t3\t3.0000\t-\tlast 24 hours", lines[4])
}

func TestRows_AbsentCapacity(t *testing.T) {
	r := report.Build(collect.Collection{ArrayID: "a"}, check.DefaultCapacityThresholds(), time.Hour)
	rows := Rows(r)

	require.Len(t, rows, 3)
	assert.Equal(t, "health", rows[0].Key)
	assert.Equal(t, "-", rows[0].Value)
	assert.Equal(t, "capacity", rows[1].Key)
	assert.Equal(t, check.StatusUnknown, rows[1].Status)
	assert.Equal(t, "No SRP data available", rows[1].Detail)
}

func TestComputeHeadroom(t *testing.T) {
	m := &check.CapacityPercentages{TotalCapacityGB: 200, UsedCapacityGB: 150, SubscribedCapacityGB: 300}
	h, ok := ComputeHeadroom(m, check.DefaultThresholds())
	require.True(t, ok)
	assert.InDelta(t, 50, h.FreeGB, 1e-9)
	assert.InDelta(t, 25, h.FreePercent, 1e-9)
	assert.Zero(t, h.UntilWarnGB)
	assert.InDelta(t, 20, h.UntilCritGB, 1e-9)
	assert.InDelta(t, 1.5, h.Oversubscribe, 1e-9)

	_, ok = ComputeHeadroom(nil, check.DefaultThresholds())
	assert.False(t, ok)
}

func TestWindowLabel(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{24 * time.Hour, "24 hours"},
		{time.Hour, "1 hour"},
		{7 * 24 * time.Hour, "7 days"},
		{30 * time.Minute, "30 minutes"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WindowLabel(tt.in))
	}
}

func TestDrillDown(t *testing.T) {
	critHealth := Row{Key: "health", Status: check.StatusCritical}
	assert.Len(t, DrillDown(critHealth, "123", ""), 3)

	okUsed := Row{Key: "used", Status: check.StatusOK}
	assert.Empty(t, DrillDown(okUsed, "123", "SRP_1"))

	unknownHealth := Row{Key: "health", Status: check.StatusUnknown}
	s := DrillDown(unknownHealth, "123", "")
	require.Len(t, s, 1)
	assert.Equal(t, "pmaxcheck", s[0].Tool)
}

func TestSparklineTracker(t *testing.T) {
	s := NewSparklineTracker(3)
	assert.Empty(t, s.Sparkline("used"))

	s.Record("used", 10)
	s.Record("used", 20)
	s.Record("used", 30)
	s.Record("used", 40)
	assert.Equal(t, "▁▄█", s.Sparkline("used"))

	d, ok := s.Delta("used")
	require.True(t, ok)
	assert.Equal(t, 10.0, d)
	assert.Equal(t, "▁▄█ +10.00", s.Trend("used"))

	s.Record("flat", 5)
	s.Record("flat", 5)
	assert.Equal(t, "▁▁", s.Trend("flat"))
}

func TestFormatterRecordsSparklines(t *testing.T) {
	tracker := NewSparklineTracker(10)
	var buf bytes.Buffer
	f := NewFormatter(FormatTable, &buf)
	f.SetSparklineTracker(tracker)

	require.NoError(t, f.Render(sampleReport(50)))
	require.NoError(t, f.Render(sampleReport(60)))

	d, ok := tracker.Delta("used")
	require.True(t, ok)
	assert.InDelta(t, 10, d, 1e-9)
	assert.Contains(t, buf.String(), "TREND")
}

package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCapacity_NilMetrics(t *testing.T) {
	res := EvaluateCapacity(nil, DefaultCapacityThresholds())

	assert.Equal(t, StatusUnknown, res.Status)
	assert.Equal(t, []string{"No SRP data available"}, res.Messages)
	assert.Nil(t, res.Metrics)
}

func TestEvaluateCapacity_ZeroTotalIsUnknown(t *testing.T) {
	cases := []CapacityMetrics{
		{TotalCapacityGB: 0, UsedCapacityGB: 0, SubscribedCapacityGB: 0},
		{TotalCapacityGB: 0, UsedCapacityGB: 500, SubscribedCapacityGB: 900},
		{TotalCapacityGB: 0, UsedCapacityGB: 1e9, SubscribedCapacityGB: 0},
	}
	for _, m := range cases {
		m := m
		res := EvaluateCapacity(&m, DefaultCapacityThresholds())
		assert.Equal(t, StatusUnknown, res.Status, "metrics %+v", m)
		assert.Equal(t, []string{"Total capacity is zero"}, res.Messages)
	}
}

func TestEvaluateCapacity_UsedBands(t *testing.T) {
	tests := []struct {
		name string
		used float64
		want Status
	}{
		{"well below warning", 10, StatusOK},
		{"just below warning", 69.99, StatusOK},
		{"at warning", 70, StatusWarning},
		{"between", 80, StatusWarning},
		{"just below critical", 84.99, StatusWarning},
		{"at critical", 85, StatusCritical},
		{"full", 100, StatusCritical},
		{"over full", 120, StatusCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &CapacityMetrics{TotalCapacityGB: 100, UsedCapacityGB: tt.used, SubscribedCapacityGB: 0}
			res := EvaluateCapacity(m, DefaultCapacityThresholds())
			assert.Equal(t, tt.want, res.Status)
		})
	}
}

func TestEvaluateCapacity_UsedTriggersCritical(t *testing.T) {
	m := &CapacityMetrics{TotalCapacityGB: 100, UsedCapacityGB: 90, SubscribedCapacityGB: 50}
	res := EvaluateCapacity(m, DefaultCapacityThresholds())

	assert.Equal(t, StatusCritical, res.Status)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Used capacity at 90.00% (threshold: 85%)", res.Messages[0])
	assert.Equal(t, "Subscribed capacity at 50.00% - OK", res.Messages[1])

	require.NotNil(t, res.Metrics)
	assert.InDelta(t, 90.0, res.Metrics.PercentUsed, 1e-9)
	assert.InDelta(t, 50.0, res.Metrics.PercentSubscribed, 1e-9)
	assert.Equal(t, 100.0, res.Metrics.TotalCapacityGB)
}

func TestEvaluateCapacity_SubscribedTriggersCritical(t *testing.T) {
	m := &CapacityMetrics{TotalCapacityGB: 100, UsedCapacityGB: 50, SubscribedCapacityGB: 95}
	res := EvaluateCapacity(m, DefaultCapacityThresholds())

	assert.Equal(t, StatusCritical, res.Status)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Used capacity at 50.00% - OK", res.Messages[0])
	assert.Equal(t, "Subscribed capacity at 95.00% (threshold: 85%)", res.Messages[1])
}

func TestEvaluateCapacity_CriticalNotDowngradedByWarning(t *testing.T) {
	used := &CapacityMetrics{TotalCapacityGB: 100, UsedCapacityGB: 90, SubscribedCapacityGB: 75}
	assert.Equal(t, StatusCritical, EvaluateCapacity(used, DefaultCapacityThresholds()).Status)

	subscribed := &CapacityMetrics{TotalCapacityGB: 100, UsedCapacityGB: 75, SubscribedCapacityGB: 90}
	res := EvaluateCapacity(subscribed, DefaultCapacityThresholds())
	assert.Equal(t, StatusCritical, res.Status)
	assert.Equal(t, "Used capacity at 75.00% (threshold: 70%)", res.Messages[0])
}

func TestEvaluateCapacity_IndependentThresholds(t *testing.T) {
	th := CapacityThresholds{
		Used:       Thresholds{Warning: 70, Critical: 85},
		Subscribed: Thresholds{Warning: 150, Critical: 200},
	}
	// Overcommitted thin pools are expected to run above 100% subscribed.
	m := &CapacityMetrics{TotalCapacityGB: 1000, UsedCapacityGB: 100, SubscribedCapacityGB: 1600}
	res := EvaluateCapacity(m, th)

	assert.Equal(t, StatusWarning, res.Status)
	assert.Equal(t, "Subscribed capacity at 160.00% (threshold: 150%)", res.Messages[1])
}

func TestEvaluateCapacity_MonotonicInUsed(t *testing.T) {
	th := DefaultCapacityThresholds()
	for _, subscribed := range []float64{0, 72, 90} {
		prev := -1
		for used := 0.0; used <= 120; used += 0.5 {
			m := &CapacityMetrics{TotalCapacityGB: 100, UsedCapacityGB: used, SubscribedCapacityGB: subscribed}
			rank := EvaluateCapacity(m, th).Status.rank()
			require.GreaterOrEqual(t, rank, prev, "severity dropped at used=%.1f subscribed=%.1f", used, subscribed)
			prev = rank
		}
	}
}

func TestEvaluateHealth(t *testing.T) {
	tests := []struct {
		name   string
		health *HealthSnapshot
		want   Status
		msg    string
	}{
		{"absent", nil, StatusUnknown, "No health data available"},
		{"ok description", &HealthSnapshot{Score: 100, Description: "OK"}, StatusOK, "Array health is OK (score: 100)"},
		{"ok lower case", &HealthSnapshot{Score: 40, Description: "ok"}, StatusOK, "Array health is OK (score: 40)"},
		{"perfect score any description", &HealthSnapshot{Score: 100, Description: "DEGRADED"}, StatusOK, "Array health is DEGRADED (score: 100)"},
		{"warning description", &HealthSnapshot{Score: 85, Description: "WARNING"}, StatusWarning, "Array health is WARNING (score: 85)"},
		{"warning description low score", &HealthSnapshot{Score: 10, Description: "Warning"}, StatusWarning, "Array health is WARNING (score: 10)"},
		{"score band lower edge", &HealthSnapshot{Score: 80, Description: "DEGRADED"}, StatusWarning, "Array health is DEGRADED (score: 80)"},
		{"score band upper edge", &HealthSnapshot{Score: 99, Description: "DEGRADED"}, StatusWarning, "Array health is DEGRADED (score: 99)"},
		{"below band", &HealthSnapshot{Score: 79, Description: "DEGRADED"}, StatusCritical, "Array health is DEGRADED (score: 79)"},
		{"bad", &HealthSnapshot{Score: 50, Description: "BAD"}, StatusCritical, "Array health is BAD (score: 50)"},
		{"unknown score unknown description", &HealthSnapshot{Score: -1, Description: "UNKNOWN"}, StatusCritical, "Array health is UNKNOWN (score: -1)"},
		{"unknown score empty description", &HealthSnapshot{Score: -1}, StatusCritical, "Array health is UNKNOWN (score: -1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := EvaluateHealth(tt.health)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, []string{tt.msg}, res.Messages)
			assert.Nil(t, res.Metrics)
		})
	}
}

func TestWorse(t *testing.T) {
	assert.Equal(t, StatusCritical, worse(StatusCritical, StatusWarning))
	assert.Equal(t, StatusCritical, worse(StatusWarning, StatusCritical))
	assert.Equal(t, StatusWarning, worse(StatusOK, StatusWarning))
	assert.Equal(t, StatusOK, worse(StatusOK, StatusOK))
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultCapacityThresholds().Validate())
	assert.Error(t, Thresholds{Warning: 90, Critical: 80}.Validate())
	assert.Error(t, Thresholds{Warning: 0, Critical: 80}.Validate())
	assert.NoError(t, Thresholds{Warning: 150, Critical: 200}.Validate())

	oversubscribed := CapacityThresholds{Used: DefaultThresholds(), Subscribed: Thresholds{Warning: 150, Critical: 200}}
	assert.NoError(t, oversubscribed.Validate())

	err := CapacityThresholds{Used: Thresholds{Warning: 50, Critical: 101}, Subscribed: DefaultThresholds()}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "used capacity")

	err = CapacityThresholds{Used: DefaultThresholds(), Subscribed: Thresholds{Warning: 85, Critical: 85}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribed capacity")
}

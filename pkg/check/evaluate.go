package check

import (
	"fmt"
	"strings"
)

// EvaluateCapacity classifies SRP capacity against the used and subscribed thresholds.
// Used and subscribed capacity are evaluated independently and the worse status wins.
func EvaluateCapacity(metrics *CapacityMetrics, t CapacityThresholds) EvaluationResult {
	if metrics == nil {
		return unknown("No SRP data available")
	}
	if metrics.TotalCapacityGB == 0 {
		return unknown("Total capacity is zero")
	}

	percentUsed := (metrics.UsedCapacityGB / metrics.TotalCapacityGB) * 100
	percentSubscribed := (metrics.SubscribedCapacityGB / metrics.TotalCapacityGB) * 100

	usedStatus := t.Used.Evaluate(percentUsed)
	subscribedStatus := t.Subscribed.Evaluate(percentSubscribed)

	return EvaluationResult{
		Status: worse(usedStatus, subscribedStatus),
		Messages: []string{
			capacityMessage("Used", percentUsed, usedStatus, t.Used),
			capacityMessage("Subscribed", percentSubscribed, subscribedStatus, t.Subscribed),
		},
		Metrics: &CapacityPercentages{
			TotalCapacityGB:      metrics.TotalCapacityGB,
			UsedCapacityGB:       metrics.UsedCapacityGB,
			SubscribedCapacityGB: metrics.SubscribedCapacityGB,
			PercentUsed:          percentUsed,
			PercentSubscribed:    percentSubscribed,
		},
	}
}

func capacityMessage(kind string, percent float64, status Status, t Thresholds) string {
	if status == StatusOK {
		return fmt.Sprintf("%s capacity at %.2f%% - OK", kind, percent)
	}
	return fmt.Sprintf("%s capacity at %.2f%% (threshold: %g%%)", kind, percent, t.Crossed(status))
}

// EvaluateHealth classifies the array health score.
//
// A description of OK or a perfect score is healthy. A description of WARNING
// or a score in [80, 100) is a warning. Anything else is critical, including an
// unreported score (-1) paired with an unrecognised description.
func EvaluateHealth(health *HealthSnapshot) EvaluationResult {
	if health == nil {
		return unknown("No health data available")
	}

	state := strings.ToUpper(health.Description)
	if state == "" {
		state = "UNKNOWN"
	}
	msg := fmt.Sprintf("Array health is %s (score: %d)", state, health.Score)

	var status Status
	switch {
	case state == "OK" || health.Score == 100:
		status = StatusOK
	case state == "WARNING" || (health.Score < 100 && health.Score >= 80):
		status = StatusWarning
	default:
		status = StatusCritical
	}

	return EvaluationResult{
		Status:   status,
		Messages: []string{msg},
	}
}

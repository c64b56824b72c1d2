// Package check classifies storage array health and capacity metrics into severities.
package check

import "strings"

// Status represents the severity of an evaluation.
type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
	StatusUnknown  Status = "UNKNOWN"
)

// rank orders OK < WARNING < CRITICAL. UNKNOWN sits outside the ordering.
func (s Status) rank() int {
	switch s {
	case StatusOK:
		return 0
	case StatusWarning:
		return 1
	case StatusCritical:
		return 2
	}
	return -1
}

// worse returns the more severe of two statuses. It only orders OK, WARNING
// and CRITICAL; roll up results that may be UNKNOWN with Overall.
func worse(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Label returns a lower-case name for the status, suitable as a label value.
func (s Status) Label() string {
	return strings.ToLower(string(s))
}

// CapacityMetrics holds SRP capacity figures as reported upstream.
// A nil *CapacityMetrics means no data was obtained.
type CapacityMetrics struct {
	TotalCapacityGB      float64 `json:"total_capacity_gb"`
	UsedCapacityGB       float64 `json:"used_capacity_gb"`
	SubscribedCapacityGB float64 `json:"subscribed_capacity_gb"`
}

// HealthSnapshot holds the array's overall health score.
// Score is -1 when the upstream did not report one.
type HealthSnapshot struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
}

// CapacityPercentages carries the raw figures and the derived percentages.
type CapacityPercentages struct {
	TotalCapacityGB      float64 `json:"total_capacity_gb"`
	UsedCapacityGB       float64 `json:"used_capacity_gb"`
	SubscribedCapacityGB float64 `json:"subscribed_capacity_gb"`
	PercentUsed          float64 `json:"percent_used"`
	PercentSubscribed    float64 `json:"percent_subscribed"`
}

// EvaluationResult is the outcome of a single evaluation.
type EvaluationResult struct {
	Status   Status               `json:"status"`
	Messages []string             `json:"messages"`
	Metrics  *CapacityPercentages `json:"metrics,omitempty"`
}

func unknown(msg string) EvaluationResult {
	return EvaluationResult{
		Status:   StatusUnknown,
		Messages: []string{msg},
	}
}

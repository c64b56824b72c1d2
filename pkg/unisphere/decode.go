package unisphere

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danpilch/pmaxcheck/pkg/check"
)

// ErrNoData is returned when the upstream answered with an empty body.
var ErrNoData = errors.New("no data returned")

type healthBody struct {
	Health *struct {
		HealthScore *struct {
			Value       *int    `json:"value"`
			Description *string `json:"description"`
		} `json:"health_score"`
	} `json:"health"`
}

type srpBody struct {
	TotalCapacityGB      float64 `json:"total_capacity_gb"`
	UsedCapacityGB       float64 `json:"used_capacity_gb"`
	SubscribedCapacityGB float64 `json:"subscribed_capacity_gb"`
}

type alertBody struct {
	AlertIDs []string `json:"alertId"`
}

// isEmpty reports whether raw is missing, null or an empty JSON object or array.
func isEmpty(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}

// DecodeHealth converts a health response into a snapshot. An empty document
// yields nil. Missing fields default to score -1 and description UNKNOWN.
func DecodeHealth(raw []byte) (*check.HealthSnapshot, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	var body healthBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("cannot parse health response: %w", err)
	}

	snap := &check.HealthSnapshot{Score: -1, Description: "UNKNOWN"}
	if body.Health == nil || body.Health.HealthScore == nil {
		return snap, nil
	}
	if v := body.Health.HealthScore.Value; v != nil {
		snap.Score = *v
	}
	if d := body.Health.HealthScore.Description; d != nil {
		snap.Description = *d
	}
	return snap, nil
}

// DecodeCapacity converts an SRP response into capacity metrics. An empty
// document yields nil; missing fields are zero.
func DecodeCapacity(raw []byte) (*check.CapacityMetrics, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	var body srpBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("cannot parse SRP response: %w", err)
	}
	return &check.CapacityMetrics{
		TotalCapacityGB:      body.TotalCapacityGB,
		UsedCapacityGB:       body.UsedCapacityGB,
		SubscribedCapacityGB: body.SubscribedCapacityGB,
	}, nil
}

// DecodeAlertCount returns the number of alert IDs in an alert list response.
func DecodeAlertCount(raw []byte) (int, error) {
	if isEmpty(raw) {
		return 0, nil
	}
	var body alertBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, fmt.Errorf("cannot parse alert response: %w", err)
	}
	return len(body.AlertIDs), nil
}

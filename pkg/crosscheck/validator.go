// Package crosscheck compares the figures reported for one array by several
// sources (for example the live API and a captured snapshot).
package crosscheck

import (
	"math"
	"sort"
)

// ValidationStatus indicates the confidence level of a cross-checked metric.
type ValidationStatus string

const (
	StatusValid    ValidationStatus = "valid"
	StatusSuspect  ValidationStatus = "suspect"
	StatusConflict ValidationStatus = "conflict"
)

// Reading is a single metric value as reported by one source.
type Reading struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

// ValidationResult holds the cross-check outcome for a metric.
type ValidationResult struct {
	Metric       string           `json:"metric"`
	Readings     []Reading        `json:"readings"`
	Consensus    float64          `json:"consensus"`
	MaxDeviation float64          `json:"max_deviation_percent"`
	Status       ValidationStatus `json:"status"`
}

// Validator cross-checks metrics from multiple sources.
type Validator struct {
	SuspectThreshold  float64 // deviation % to mark suspect (default 1%)
	ConflictThreshold float64 // deviation % to mark conflict (default 5%)
}

// NewValidator creates a validator with default thresholds. Capacity figures
// from the same array should agree closely, so the bands are narrow.
func NewValidator() *Validator {
	return &Validator{
		SuspectThreshold:  1.0,
		ConflictThreshold: 5.0,
	}
}

// CrossCheck compares a metric's readings against their median.
func (v *Validator) CrossCheck(metric string, readings []Reading) ValidationResult {
	result := ValidationResult{
		Metric:   metric,
		Readings: readings,
		Status:   StatusValid,
	}

	switch len(readings) {
	case 0:
		return result
	case 1:
		result.Consensus = readings[0].Value
		return result
	}

	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}
	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 0 {
		result.Consensus = (values[mid-1] + values[mid]) / 2
	} else {
		result.Consensus = values[mid]
	}

	for _, val := range values {
		if result.Consensus == 0 {
			if val != 0 {
				result.MaxDeviation = 100.0
			}
			continue
		}
		dev := math.Abs(val-result.Consensus) / math.Abs(result.Consensus) * 100
		if dev > result.MaxDeviation {
			result.MaxDeviation = dev
		}
	}

	switch {
	case result.MaxDeviation >= v.ConflictThreshold:
		result.Status = StatusConflict
	case result.MaxDeviation >= v.SuspectThreshold:
		result.Status = StatusSuspect
	}

	return result
}

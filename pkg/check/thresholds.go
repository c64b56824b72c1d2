package check

import "fmt"

// Thresholds defines warning and critical levels for a percentage metric.
type Thresholds struct {
	Warning  float64 `mapstructure:"warning" yaml:"warning" json:"warning"`
	Critical float64 `mapstructure:"critical" yaml:"critical" json:"critical"`
}

// CapacityThresholds holds independent thresholds for used and subscribed capacity.
type CapacityThresholds struct {
	Used       Thresholds `mapstructure:"used" yaml:"used" json:"used"`
	Subscribed Thresholds `mapstructure:"subscribed" yaml:"subscribed" json:"subscribed"`
}

// DefaultThresholds returns the default threshold values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  70.0,
		Critical: 85.0,
	}
}

// DefaultCapacityThresholds returns the defaults for both capacity checks.
func DefaultCapacityThresholds() CapacityThresholds {
	return CapacityThresholds{
		Used:       DefaultThresholds(),
		Subscribed: DefaultThresholds(),
	}
}

// Evaluate returns the status for a percentage.
func (t Thresholds) Evaluate(percent float64) Status {
	if percent >= t.Critical {
		return StatusCritical
	}
	if percent >= t.Warning {
		return StatusWarning
	}
	return StatusOK
}

// Crossed returns the threshold that a status was derived from.
func (t Thresholds) Crossed(s Status) float64 {
	if s == StatusCritical {
		return t.Critical
	}
	return t.Warning
}

// Validate checks the thresholds are positive and ordered. It sets no upper
// bound, since subscribed capacity of a thin pool can exceed 100%.
func (t Thresholds) Validate() error {
	if t.Warning <= 0 {
		return fmt.Errorf("warning threshold %g must be positive", t.Warning)
	}
	if t.Critical <= 0 {
		return fmt.Errorf("critical threshold %g must be positive", t.Critical)
	}
	if t.Warning >= t.Critical {
		return fmt.Errorf("warning threshold %g must be below critical threshold %g", t.Warning, t.Critical)
	}
	return nil
}

// Validate checks both capacity threshold pairs. Used thresholds are capped
// at 100%; subscribed thresholds only need 0 < warning < critical.
func (c CapacityThresholds) Validate() error {
	if err := c.Used.Validate(); err != nil {
		return fmt.Errorf("used capacity: %w", err)
	}
	if c.Used.Critical > 100 {
		return fmt.Errorf("used capacity: critical threshold %g must not exceed 100", c.Used.Critical)
	}
	if err := c.Subscribed.Validate(); err != nil {
		return fmt.Errorf("subscribed capacity: %w", err)
	}
	return nil
}

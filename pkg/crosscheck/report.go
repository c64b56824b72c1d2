package crosscheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/collect"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	suspectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// SourceSanity holds the capacity sanity checks for one source.
type SourceSanity struct {
	Source  string               `json:"source"`
	Results []check.SanityResult `json:"results"`
}

// Result is the full outcome of a cross-check run.
type Result struct {
	Validations []ValidationResult `json:"validations"`
	Sanity      []SourceSanity     `json:"sanity"`
}

// Worst returns the most severe validation status.
func (r Result) Worst() ValidationStatus {
	worst := StatusValid
	for _, v := range r.Validations {
		switch v.Status {
		case StatusConflict:
			return StatusConflict
		case StatusSuspect:
			worst = StatusSuspect
		}
	}
	return worst
}

// ExitCode maps the worst status to a plugin exit code: conflict 2, suspect 1.
func (r Result) ExitCode() int {
	switch r.Worst() {
	case StatusConflict:
		return 2
	case StatusSuspect:
		return 1
	}
	return 0
}

// Run cross-checks the figures of several collections of the same array.
// A metric is compared only across the sources that reported it.
func Run(cols []collect.Collection) Result {
	validator := NewValidator()

	metrics := []struct {
		name  string
		value func(collect.Collection) (float64, bool)
	}{
		{"Health Score", func(c collect.Collection) (float64, bool) {
			if c.Health == nil || c.Health.Score < 0 {
				return 0, false
			}
			return float64(c.Health.Score), true
		}},
		{"Total Capacity GB", func(c collect.Collection) (float64, bool) {
			if c.Capacity == nil {
				return 0, false
			}
			return c.Capacity.TotalCapacityGB, true
		}},
		{"Used Capacity GB", func(c collect.Collection) (float64, bool) {
			if c.Capacity == nil {
				return 0, false
			}
			return c.Capacity.UsedCapacityGB, true
		}},
		{"Subscribed Capacity GB", func(c collect.Collection) (float64, bool) {
			if c.Capacity == nil {
				return 0, false
			}
			return c.Capacity.SubscribedCapacityGB, true
		}},
	}

	var res Result
	for _, m := range metrics {
		var readings []Reading
		for _, c := range cols {
			if v, ok := m.value(c); ok {
				readings = append(readings, Reading{Source: c.Source, Value: v})
			}
		}
		if len(readings) > 0 {
			res.Validations = append(res.Validations, validator.CrossCheck(m.name, readings))
		}
	}

	for _, c := range cols {
		if sanity := check.SanityCheck(c.Capacity); len(sanity) > 0 {
			res.Sanity = append(res.Sanity, SourceSanity{Source: c.Source, Results: sanity})
		}
	}
	return res
}

// Report outputs cross-check validation results and sanity checks as a styled table.
func Report(w io.Writer, res Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Cross-Check Validation Report"))
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("═", 60)))

	if len(res.Validations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Metric Cross-Checks"))
		fmt.Fprintf(w, "  %-25s %-12s %-12s %-10s %s\n",
			headerStyle.Render("METRIC"), headerStyle.Render("CONSENSUS"),
			headerStyle.Render("MAX DEV"), headerStyle.Render("STATUS"),
			headerStyle.Render("SOURCES"))
		fmt.Fprintln(w, "  "+dimStyle.Render(strings.Repeat("─", 80)))

		for _, v := range res.Validations {
			readings := make([]string, len(v.Readings))
			for i, r := range v.Readings {
				readings[i] = fmt.Sprintf("%s=%.2f", r.Source, r.Value)
			}
			var statusStr string
			switch v.Status {
			case StatusConflict:
				statusStr = conflictStyle.Render("CONFLICT")
			case StatusSuspect:
				statusStr = suspectStyle.Render("SUSPECT")
			default:
				statusStr = validStyle.Render("VALID")
			}
			fmt.Fprintf(w, "  %-25s %-12.2f %-11.2f%% %-10s %s\n",
				v.Metric, v.Consensus, v.MaxDeviation, statusStr,
				dimStyle.Render(strings.Join(readings, ", ")))
		}
	}

	for _, s := range res.Sanity {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Sanity Checks ("+s.Source+")"))
		failed := 0
		for _, r := range s.Results {
			var icon string
			if r.Passed {
				icon = passStyle.Render("PASS")
			} else {
				icon = failStyle.Render("FAIL")
				failed++
			}
			fmt.Fprintf(w, "  [%s] %-40s %s\n", icon, r.Check, dimStyle.Render(r.Details))
		}
		if failed == 0 {
			fmt.Fprintf(w, "  %s\n", passStyle.Render(fmt.Sprintf("All %d sanity checks passed.", len(s.Results))))
		} else {
			fmt.Fprintf(w, "  %s\n", failStyle.Render(fmt.Sprintf("%d of %d sanity checks failed.", failed, len(s.Results))))
		}
	}
}

// ReportJSON outputs cross-check results as JSON.
func ReportJSON(w io.Writer, res Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

package output

import (
	"fmt"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/report"
)

// Suggestion represents a diagnostic next-step.
type Suggestion struct {
	Tool    string
	Command string
	Reason  string
}

// SuggestionGroup holds the suggestions for one report row.
type SuggestionGroup struct {
	Metric      string
	Suggestions []Suggestion
}

// DrillDown returns diagnostic suggestions for a row with issues.
func DrillDown(row Row, arrayID, srpID string) []Suggestion {
	if srpID == "" {
		srpID = "SRP_1"
	}
	sid := fmt.Sprintf("-sid %s", arrayID)

	var suggestions []Suggestion

	switch row.Key {
	case "health":
		switch row.Status {
		case check.StatusWarning, check.StatusCritical:
			suggestions = append(suggestions,
				Suggestion{"symcfg", "symcfg " + sid + " list -v", "Array configuration and component state"},
				Suggestion{"symevent", "symevent " + sid + " list -error", "Recent error events"},
			)
			if row.Status == check.StatusCritical {
				suggestions = append(suggestions,
					Suggestion{"symdisk", "symdisk " + sid + " list -failed", "Failed drives"},
				)
			}
		case check.StatusUnknown:
			suggestions = append(suggestions,
				Suggestion{"pmaxcheck", "pmaxcheck -v --dump-raw", "Inspect what the API returned"},
			)
		}

	case "used":
		if row.Status == check.StatusWarning || row.Status == check.StatusCritical {
			suggestions = append(suggestions,
				Suggestion{"symcfg", fmt.Sprintf("symcfg %s show -srp %s -gb", sid, srpID), "SRP capacity breakdown"},
				Suggestion{"symsnapvx", "symsnapvx " + sid + " list -detail -gb", "Snapshot space consumption"},
			)
		}

	case "subscribed":
		if row.Status == check.StatusWarning || row.Status == check.StatusCritical {
			suggestions = append(suggestions,
				Suggestion{"symsg", "symsg " + sid + " list -thin -detail -gb", "Storage group allocations"},
			)
		}

	case "capacity":
		if row.Status == check.StatusUnknown {
			suggestions = append(suggestions,
				Suggestion{"symcfg", "symcfg " + sid + " list -srp -gb", "Confirm the SRP name and capacity"},
			)
		}

	case "alerts":
		if row.Raw > 0 {
			suggestions = append(suggestions,
				Suggestion{"symevent", "symevent " + sid + " list -warn", "Review recent alerts"},
			)
		}
	}

	return suggestions
}

// GetDrillDownSuggestions returns suggestions for every row of a report that
// needs attention, in row order.
func GetDrillDownSuggestions(r report.Report) []SuggestionGroup {
	var groups []SuggestionGroup
	for _, row := range Rows(r) {
		if s := DrillDown(row, r.ArrayID, r.Inputs.SRPID); len(s) > 0 {
			groups = append(groups, SuggestionGroup{Metric: row.Name, Suggestions: s})
		}
	}
	return groups
}

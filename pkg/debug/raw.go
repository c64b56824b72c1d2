package debug

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/danpilch/pmaxcheck/pkg/collect"
)

// DumpRaw outputs the collected inputs before threshold evaluation.
func DumpRaw(w io.Writer, col collect.Collection) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Raw Collection Dump"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 60)))
	fmt.Fprintf(w, "  %s %s\n",
		debugHeader.Render("FIELD                     "),
		debugHeader.Render("VALUE                        "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 60)))

	field := func(name, value string) {
		fmt.Fprintf(w, "  %-27s %s\n", name, value)
	}

	field("source", col.Source)
	field("array_id", col.ArrayID)
	field("srp_id", col.SRPID)
	field("collected_at", col.CollectedAt.Format("2006-01-02T15:04:05.000Z07:00"))

	if h := col.Health; h != nil {
		field("health.score", fmt.Sprintf("%d", h.Score))
		field("health.description", fmt.Sprintf("%q", h.Description))
	} else {
		field("health", debugDim.Render("<absent>"))
	}

	if c := col.Capacity; c != nil {
		field("capacity.total_gb", fmt.Sprintf("%.4f", c.TotalCapacityGB))
		field("capacity.used_gb", fmt.Sprintf("%.4f", c.UsedCapacityGB))
		field("capacity.subscribed_gb", fmt.Sprintf("%.4f", c.SubscribedCapacityGB))
	} else {
		field("capacity", debugDim.Render("<absent>"))
	}

	field("recent_alerts", fmt.Sprintf("%d", col.RecentAlerts))

	fetches := make([]string, 0, len(col.Errors))
	for f := range col.Errors {
		fetches = append(fetches, f)
	}
	sort.Strings(fetches)
	for _, f := range fetches {
		field("error."+f, col.Errors[f])
	}
}

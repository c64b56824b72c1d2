// Package output provides formatters for displaying array health reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/report"
)

// Format represents the output format type.
type Format string

const (
	FormatText     Format = "text"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTSV      Format = "tsv"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatTable, FormatJSON, FormatMarkdown, FormatTSV}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (valid: text, table, json, markdown, tsv)", s)
}

// Formatter handles output formatting.
type Formatter struct {
	format    Format
	writer    io.Writer
	sparkline *SparklineTracker
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

// SetSparklineTracker enables sparkline tracking for watch mode.
func (f *Formatter) SetSparklineTracker(s *SparklineTracker) {
	f.sparkline = s
}

// Render outputs the report in the configured format.
func (f *Formatter) Render(r report.Report) error {
	rows := Rows(r)

	if f.sparkline != nil {
		for _, row := range rows {
			if row.Value != "-" {
				f.sparkline.Record(row.Key, row.Raw)
			}
		}
	}

	switch f.format {
	case FormatJSON:
		return f.renderJSON(r)
	case FormatTable:
		return f.renderTable(r, rows)
	case FormatMarkdown:
		return f.renderMarkdown(r, rows)
	case FormatTSV:
		return f.renderTSV(rows)
	default:
		return f.renderText(r)
	}
}

// renderJSON outputs the report as indented JSON.
func (f *Formatter) renderJSON(r report.Report) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// renderText prints the plain report layout.
func (f *Formatter) renderText(r report.Report) error {
	w := f.writer
	fmt.Fprintf(w, "PowerMax Health and Capacity Report - %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Array ID: %s\n", r.ArrayID)

	fmt.Fprintln(w, "\nHealth Status:")
	fmt.Fprintf(w, "  Status: %s\n", r.Health.Status)
	fmt.Fprintf(w, "  Details: %s\n", strings.Join(r.Health.Messages, "; "))

	fmt.Fprintln(w, "\nCapacity Status:")
	fmt.Fprintf(w, "  Status: %s\n", r.Capacity.Status)
	for _, msg := range r.Capacity.Messages {
		fmt.Fprintf(w, "  - %s\n", msg)
	}

	fmt.Fprintf(w, "\nRecent Alerts (last %s): %d\n", WindowLabel(r.AlertWindow), r.RecentAlerts)
	return nil
}

var statusStyles = map[check.Status]lipgloss.Style{
	check.StatusOK:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true), // Green
	check.StatusWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true), // Yellow
	check.StatusCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
	check.StatusUnknown:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true),  // Gray
}

func renderStatus(s check.Status) string {
	if s == "" {
		return "-"
	}
	return statusStyles[s].Render(string(s))
}

// renderTable outputs the report as a styled table.
func (f *Formatter) renderTable(r report.Report, rows []Row) error {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	fmt.Fprintln(f.writer, titleStyle.Render("Array "+r.ArrayID+" Health and Capacity"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	hasSparklines := f.sparkline != nil
	data := make([][]string, len(rows))
	for i, row := range rows {
		cells := []string{row.Name, row.Value, renderStatus(row.Status), row.Detail}
		if hasSparklines {
			cells = append(cells, f.sparkline.Trend(row.Key))
		}
		data[i] = cells
	}

	headers := []string{"CHECK", "VALUE", "STATUS", "DETAILS"}
	if hasSparklines {
		headers = append(headers, "TREND")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(data...)

	fmt.Fprintln(f.writer, t)
	fmt.Fprintln(f.writer)

	if h, ok := ComputeHeadroom(r.Capacity.Metrics, r.Thresholds.Used); ok {
		fmt.Fprintf(f.writer, "Free: %.2f GB (%.1f%%), %.2f GB until used warning, %.2f GB until critical\n",
			h.FreeGB, h.FreePercent, h.UntilWarnGB, h.UntilCritGB)
	}
	f.renderSummary(r)
	return nil
}

// renderSummary outputs the summary line.
func (f *Formatter) renderSummary(r report.Report) {
	summary := check.Summarize(r.Results()...)
	parts := []string{}

	if summary.Critical > 0 {
		parts = append(parts, statusStyles[check.StatusCritical].Render(fmt.Sprintf("%d critical", summary.Critical)))
	}
	if summary.Warnings > 0 {
		parts = append(parts, statusStyles[check.StatusWarning].Render(fmt.Sprintf("%d warnings", summary.Warnings)))
	}
	if summary.Unknown > 0 {
		parts = append(parts, statusStyles[check.StatusUnknown].Render(fmt.Sprintf("%d unknown", summary.Unknown)))
	}

	if len(parts) == 0 {
		fmt.Fprintln(f.writer, statusStyles[check.StatusOK].Render("All checks passed"))
	} else {
		fmt.Fprintf(f.writer, "Summary: %s\n", strings.Join(parts, ", "))
	}
}

// renderMarkdown outputs the report as markdown for tickets and chat.
func (f *Formatter) renderMarkdown(r report.Report, rows []Row) error {
	w := f.writer
	overall := r.Status()

	fmt.Fprintf(w, "# Array %s: %s\n\n", r.ArrayID, overall)
	fmt.Fprintf(w, "_Collected %s_\n\n", r.Timestamp.Format(time.RFC3339))

	var issues []Row
	for _, row := range rows {
		if row.Status == check.StatusWarning || row.Status == check.StatusCritical || row.Status == check.StatusUnknown {
			issues = append(issues, row)
		}
	}
	if len(issues) > 0 {
		fmt.Fprintln(w, "## Issues Requiring Attention")
		fmt.Fprintln(w)
		for _, row := range issues {
			fmt.Fprintf(w, "- **[%s] %s:** %s\n", row.Status, row.Name, row.Value)
			fmt.Fprintf(w, "  - %s\n", interpretation(row))
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "All checks passed. No issues detected.")
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "## All Metrics")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Check | Value | Status | Details |")
	fmt.Fprintln(w, "|-------|-------|--------|---------|")
	for _, row := range rows {
		value := row.Value
		if row.Status == check.StatusWarning || row.Status == check.StatusCritical {
			value = "**" + value + "**"
		}
		status := string(row.Status)
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", row.Name, value, status, row.Detail)
	}
	fmt.Fprintln(w)

	if h, ok := ComputeHeadroom(r.Capacity.Metrics, r.Thresholds.Used); ok {
		fmt.Fprintf(w, "Free capacity: %.2f GB (%.1f%%), %.2f GB until the used warning threshold. Subscription ratio %.2fx.\n\n",
			h.FreeGB, h.FreePercent, h.UntilWarnGB, h.Oversubscribe)
	}

	fmt.Fprintln(w, "## Interpretation Guide")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "- **Used capacity**: Physical capacity consumed in the storage resource pool")
	fmt.Fprintln(w, "- **Subscribed capacity**: Thin-provisioned capacity promised to hosts, may exceed 100%")
	fmt.Fprintln(w, "- **Array health**: Overall health score reported by the management API (100 = healthy)")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Thresholds: used warning ≥%g%%, critical ≥%g%%; subscribed warning ≥%g%%, critical ≥%g%%.\n",
		r.Thresholds.Used.Warning, r.Thresholds.Used.Critical,
		r.Thresholds.Subscribed.Warning, r.Thresholds.Subscribed.Critical)

	if groups := GetDrillDownSuggestions(r); len(groups) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "## Suggested Next Steps")
		fmt.Fprintln(w)
		for _, g := range groups {
			fmt.Fprintf(w, "**%s:**\n", g.Metric)
			for _, s := range g.Suggestions {
				fmt.Fprintf(w, "- `%s` - %s\n", s.Command, s.Reason)
			}
			fmt.Fprintln(w)
		}
	}

	return nil
}

// renderTSV outputs rows as tab-separated values.
func (f *Formatter) renderTSV(rows []Row) error {
	fmt.Fprintln(f.writer, "CHECK\tVALUE\tRAW_VALUE\tSTATUS\tDETAILS")

	for _, row := range rows {
		status := string(row.Status)
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(f.writer, "%s\t%s\t%.4f\t%s\t%s\n",
			row.Key, row.Value, row.Raw, status, row.Detail)
	}

	return nil
}

// interpretation returns actionable context for a row.
func interpretation(row Row) string {
	if row.Status == check.StatusUnknown {
		return "No data was returned. Check API connectivity, credentials and the array/SRP identifiers."
	}
	switch row.Key {
	case "health":
		if row.Status == check.StatusCritical {
			return "Array reports degraded components. Review hardware events immediately."
		}
		return "Array health is below perfect. Review recent events."
	case "used":
		if row.Status == check.StatusCritical {
			return "Pool is close to full. Writes to thin devices may fail when it runs out."
		}
		return "Pool usage is elevated. Plan capacity expansion or reclaim space."
	case "subscribed":
		return "Hosts have been promised more capacity than is comfortable. Monitor growth of used capacity."
	}
	return row.Detail
}

// Package benchmark measures upstream fetch latency and value stability.
package benchmark

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/pmaxcheck/pkg/unisphere"
)

// Options configures a benchmark run.
type Options struct {
	Iterations  int
	Warmup      int
	SRPID       string
	AlertWindow time.Duration
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations:  10,
		Warmup:      1,
		SRPID:       "SRP_1",
		AlertWindow: 24 * time.Hour,
	}
}

// Result holds benchmark results for a single fetch.
type Result struct {
	Fetch       string
	Latencies   []time.Duration
	Errors      int
	P50         time.Duration
	P95         time.Duration
	P99         time.Duration
	ValueStdDev float64
}

// Overhead holds the tool's own resource usage.
type Overhead struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// fetch is one timed call; it returns the value it observed.
type fetch struct {
	name string
	call func(ctx context.Context) (float64, bool, error)
}

func fetches(src unisphere.Source, opts Options) []fetch {
	return []fetch{
		{"health", func(ctx context.Context) (float64, bool, error) {
			h, err := src.Health(ctx)
			if err != nil || h == nil {
				return 0, false, err
			}
			return float64(h.Score), true, nil
		}},
		{"capacity", func(ctx context.Context) (float64, bool, error) {
			c, err := src.Capacity(ctx, opts.SRPID)
			if err != nil || c == nil {
				return 0, false, err
			}
			return c.UsedCapacityGB, true, nil
		}},
		{"alerts", func(ctx context.Context) (float64, bool, error) {
			now := time.Now()
			n, err := src.AlertCount(ctx, now.Add(-opts.AlertWindow), now)
			return float64(n), err == nil, err
		}},
	}
}

// Run calls each fetch of src sequentially and records latency percentiles.
// Sources that need preparing are prepared once before the warmup.
func Run(ctx context.Context, src unisphere.Source, opts Options) ([]Result, error) {
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	if p, ok := src.(unisphere.Preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			return nil, err
		}
	}

	var results []Result
	for _, f := range fetches(src, opts) {
		for i := 0; i < opts.Warmup; i++ {
			f.call(ctx)
		}

		result := Result{
			Fetch:     f.name,
			Latencies: make([]time.Duration, opts.Iterations),
		}
		var values []float64

		for i := 0; i < opts.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			start := time.Now()
			v, ok, err := f.call(ctx)
			result.Latencies[i] = time.Since(start)

			if err != nil {
				result.Errors++
			} else if ok {
				values = append(values, v)
			}
		}

		slices.Sort(result.Latencies)
		result.P50 = percentile(result.Latencies, 0.50)
		result.P95 = percentile(result.Latencies, 0.95)
		result.P99 = percentile(result.Latencies, 0.99)
		result.ValueStdDev = stddev(values)
		results = append(results, result)
	}

	return results, nil
}

// MeasureOverhead returns the tool's memory overhead so far.
func MeasureOverhead() Overhead {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Overhead{
		AllocBytes: m.TotalAlloc,
		AllocCount: m.Mallocs,
		GCPauses:   m.NumGC,
	}
}

// RenderResults outputs styled benchmark results.
func RenderResults(w io.Writer, source string, results []Result, overhead Overhead) {
	fmt.Fprintln(w, bmTitle.Render("Fetch Benchmark ("+source+")"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 78)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s %s\n",
		bmHeader.Render("FETCH      "),
		bmHeader.Render("P50        "),
		bmHeader.Render("P95        "),
		bmHeader.Render("P99        "),
		bmHeader.Render("ERRORS"),
		bmHeader.Render("VALUE STDDEV"))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 78)))

	for _, r := range results {
		fmt.Fprintf(w, "  %-12s %-12v %-12v %-12v %-8d %.4f\n",
			r.Fetch, r.P50.Round(time.Microsecond), r.P95.Round(time.Microsecond),
			r.P99.Round(time.Microsecond), r.Errors, r.ValueStdDev)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Tool Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", lipgloss.NewStyle().Bold(true).Render(formatBytes(overhead.AllocBytes)))
	fmt.Fprintf(w, "  Allocations:      %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.AllocCount)))
	fmt.Fprintf(w, "  GC pauses:        %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.GCPauses)))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)))
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

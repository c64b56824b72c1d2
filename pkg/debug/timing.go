package debug

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/pmaxcheck/pkg/check"
	"github.com/danpilch/pmaxcheck/pkg/unisphere"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// FetchTiming records the duration of one source call.
type FetchTiming struct {
	Name     string
	Duration time.Duration
	Err      error
}

// TimedSource wraps a unisphere.Source to record how long each fetch takes.
// Fetches run concurrently, so timings are recorded under a lock.
type TimedSource struct {
	inner unisphere.Source

	mu      sync.Mutex
	timings []FetchTiming
}

// NewTimedSource wraps a source with timing instrumentation.
func NewTimedSource(src unisphere.Source) *TimedSource {
	return &TimedSource{inner: src}
}

func (t *TimedSource) record(name string, start time.Time, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timings = append(t.timings, FetchTiming{
		Name:     name,
		Duration: time.Since(start),
		Err:      err,
	})
}

// Timings returns the recorded timings and resets them.
func (t *TimedSource) Timings() []FetchTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.timings
	t.timings = nil
	return out
}

// Name returns the wrapped source's name.
func (t *TimedSource) Name() string {
	return t.inner.Name()
}

// ArrayID returns the wrapped source's array ID.
func (t *TimedSource) ArrayID() string {
	return t.inner.ArrayID()
}

// Prepare forwards to the wrapped source when it needs preparing.
func (t *TimedSource) Prepare(ctx context.Context) error {
	p, ok := t.inner.(unisphere.Preparer)
	if !ok {
		return nil
	}
	start := time.Now()
	err := p.Prepare(ctx)
	t.record("prepare", start, err)
	return err
}

func (t *TimedSource) Health(ctx context.Context) (*check.HealthSnapshot, error) {
	start := time.Now()
	h, err := t.inner.Health(ctx)
	t.record("health", start, err)
	return h, err
}

func (t *TimedSource) Capacity(ctx context.Context, srpID string) (*check.CapacityMetrics, error) {
	start := time.Now()
	c, err := t.inner.Capacity(ctx, srpID)
	t.record("capacity", start, err)
	return c, err
}

func (t *TimedSource) AlertCount(ctx context.Context, since, until time.Time) (int, error) {
	start := time.Now()
	n, err := t.inner.AlertCount(ctx, since, until)
	t.record("alerts", start, err)
	return n, err
}

// TimingReport prints a styled timing summary. Fetches overlap, so the total
// is the slowest fetch plus preparation rather than the sum.
func TimingReport(w io.Writer, source string, timings []FetchTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Fetch Timing Report ("+source+")"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 48)))
	fmt.Fprintf(w, "  %s  %s  %s\n",
		debugHeader.Render("FETCH       "),
		debugHeader.Render("DURATION    "),
		debugHeader.Render("RESULT  "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 48)))

	var prepare, slowest time.Duration
	for _, t := range timings {
		result := "ok"
		if t.Err != nil {
			result = "failed"
		}
		fmt.Fprintf(w, "  %-14s %-14v %s\n", t.Name, t.Duration.Round(time.Microsecond), result)
		if t.Name == "prepare" {
			prepare += t.Duration
		} else if t.Duration > slowest {
			slowest = t.Duration
		}
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 48)))
	fmt.Fprintf(w, "  %-14s %v\n",
		lipgloss.NewStyle().Bold(true).Render("WALL"), (prepare + slowest).Round(time.Microsecond))
}

var (
	_ unisphere.Source   = (*TimedSource)(nil)
	_ unisphere.Preparer = (*TimedSource)(nil)
)

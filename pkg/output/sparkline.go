package output

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// SparklineTracker keeps a rolling window of row values across watch ticks.
type SparklineTracker struct {
	mu     sync.Mutex
	data   map[string][]float64
	maxLen int
}

// NewSparklineTracker creates a tracker with a fixed window size.
func NewSparklineTracker(maxLen int) *SparklineTracker {
	if maxLen < 2 {
		maxLen = 20
	}
	return &SparklineTracker{
		data:   make(map[string][]float64),
		maxLen: maxLen,
	}
}

// Record adds a new value for a row key. NaN and Inf are dropped.
func (s *SparklineTracker) Record(key string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values := append(s.data[key], value)
	if len(values) > s.maxLen {
		values = values[len(values)-s.maxLen:]
	}
	s.data[key] = values
}

// Sparkline returns a Unicode sparkline for a row key.
func (s *SparklineTracker) Sparkline(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return renderSparkline(s.data[key])
}

// Delta returns the change between the last two recorded values.
func (s *SparklineTracker) Delta(key string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.data[key]
	if len(values) < 2 {
		return 0, false
	}
	return values[len(values)-1] - values[len(values)-2], true
}

// Trend renders the sparkline followed by the latest change, e.g. "▁▃█ +2.50".
func (s *SparklineTracker) Trend(key string) string {
	line := s.Sparkline(key)
	if d, ok := s.Delta(key); ok && d != 0 {
		return fmt.Sprintf("%s %+.2f", line, d)
	}
	return line
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func renderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(top))
		}
		b.WriteRune(sparkBlocks[min(max(idx, 0), top)])
	}
	return b.String()
}

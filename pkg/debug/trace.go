package debug

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TraceLogger writes step-by-step trace lines for upstream requests.
// It satisfies unisphere.Tracer.
type TraceLogger struct {
	mu     sync.Mutex
	writer io.Writer
	now    func() time.Time
}

// NewTraceLogger creates a trace logger writing to the given writer.
func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{
		writer: w,
		now:    time.Now,
	}
}

// Trace records a trace entry for one step of a component.
func (t *TraceLogger) Trace(component, step, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE %s] %s: %s - %s\n",
		t.now().Format("15:04:05.000"), component, step, detail)
}

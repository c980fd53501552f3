package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/lineembed/core"
)

// ProgressTracker renders run snapshots as plain text progress lines.
// Use its Observe method as an Observer.
type ProgressTracker struct {
	writer       io.Writer
	label        string
	step         int
	lastReported int
	startTime    time.Time
	started      bool
	mu           sync.Mutex
}

// NewProgressTracker creates a tracker that writes to writer every time
// progress advances by at least step percent.
func NewProgressTracker(writer io.Writer, label string, step int) *ProgressTracker {
	if step < 1 {
		step = 1
	}
	return &ProgressTracker{
		writer: writer,
		label:  label,
		step:   step,
	}
}

// Observe records a snapshot and reports it when it crosses a step or ends the run.
func (p *ProgressTracker) Observe(s core.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		p.startTime = time.Now()
		p.started = true
		p.lastReported = -p.step
	}

	switch {
	case s.Status == core.StatusDone:
		p.report(s)
		fmt.Fprintln(p.writer)
	case s.Status == core.StatusFailed:
		p.report(s)
		fmt.Fprintf(p.writer, " - failed: %s\n", s.Error)
	case s.Progress-p.lastReported >= p.step:
		p.report(s)
		p.lastReported = s.Progress
	}
}

// Elapsed returns the time since the first observed snapshot.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report(s core.Snapshot) {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(s.Processed) / elapsed.Seconds()
	}

	fmt.Fprintf(p.writer, "\r%s: %d%% (%d/%d bytes) - %d embedded, %d skipped, %d unparseable - %.1f records/s",
		p.label, s.Progress, s.ConsumedBytes, s.TotalBytes, s.Processed, s.Skipped, s.Errors, rate)
}

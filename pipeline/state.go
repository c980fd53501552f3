package pipeline

import (
	"sync"

	"github.com/poiesic/lineembed/core"
)

// State holds the counters of one run. Only the run mutates it; readers get
// copies through Snapshot.
type State struct {
	mu        sync.RWMutex
	runID     string
	status    core.RunStatus
	processed int
	skipped   int
	errors    int
	consumed  int64
	total     int64
	err       string
}

func newState(runID string, totalBytes int64) *State {
	return &State{runID: runID, status: core.StatusPending, total: totalBytes}
}

func (s *State) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = core.StatusProcessing
	s.processed, s.skipped, s.errors = 0, 0, 0
	s.consumed = 0
	s.err = ""
}

func (s *State) addProcessed(n int) {
	s.mu.Lock()
	s.processed += n
	s.mu.Unlock()
}

func (s *State) addSkipped() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

func (s *State) addError() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

func (s *State) setConsumed(n int64) {
	s.mu.Lock()
	s.consumed = n
	s.mu.Unlock()
}

func (s *State) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = core.StatusDone
	if s.consumed > s.total {
		s.total = s.consumed
	}
}

func (s *State) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = core.StatusFailed
	s.err = err.Error()
}

// Snapshot returns a copy of the current counters.
func (s *State) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Snapshot{
		RunID:         s.runID,
		Status:        s.status,
		Progress:      s.progress(),
		Processed:     s.processed,
		Skipped:       s.skipped,
		Errors:        s.errors,
		TotalBytes:    s.total,
		ConsumedBytes: s.consumed,
		Error:         s.err,
	}
}

// progress stays below 100 until the run is done. Must be called with lock held.
func (s *State) progress() int {
	if s.status == core.StatusDone {
		return 100
	}
	if s.total <= 0 {
		return 0
	}
	return int(min(99, s.consumed*100/s.total))
}

package state

import (
	"fmt"
	"sync"
	"time"
)

// Phase is the workflow position of the current run.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Polling
	Downloading
	Done
	Failed
)

var phaseNames = [...]string{
	Idle:        "idle",
	Submitting:  "submitting",
	Polling:     "polling",
	Downloading: "downloading",
	Done:        "done",
	Failed:      "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Active reports whether a run is in flight.
func (p Phase) Active() bool {
	return p == Submitting || p == Polling || p == Downloading
}

// Terminal reports whether the last run has finished.
func (p Phase) Terminal() bool {
	return p == Done || p == Failed
}

// Snapshot is a point-in-time copy of the workflow state.
type Snapshot struct {
	Phase      Phase
	JobID      string
	LastStatus string
	OutputPath string
	LastError  error
	Polls      int
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// Elapsed returns how long the current or last run has taken.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := s.UpdatedAt
	if s.Phase.Active() {
		end = time.Now()
	}
	return end.Sub(s.StartedAt)
}

// Store coordinates the workflow goroutine (writer) and the UI (reader).
// The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Begin starts a new run and reports whether it did. It returns false, leaving
// the state untouched, while another run is active.
func (s *Store) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.Phase.Active() {
		return false
	}
	now := time.Now()
	s.snapshot = Snapshot{
		Phase:     Submitting,
		StartedAt: now,
		UpdatedAt: now,
	}
	return true
}

// SetJob records the ID returned by the service and moves to Polling.
func (s *Store) SetJob(id string) {
	s.update(func(snap *Snapshot) {
		snap.JobID = id
		snap.Phase = Polling
	})
}

// ObserveStatus records one status observation.
func (s *Store) ObserveStatus(status string) {
	s.update(func(snap *Snapshot) {
		snap.LastStatus = status
		snap.Polls++
	})
}

// StartDownload moves to Downloading with the destination path.
func (s *Store) StartDownload(path string) {
	s.update(func(snap *Snapshot) {
		snap.Phase = Downloading
		snap.OutputPath = path
	})
}

// Finish marks the run as Done.
func (s *Store) Finish() {
	s.update(func(snap *Snapshot) {
		snap.Phase = Done
		snap.LastError = nil
	})
}

// Fail marks the run as Failed. Job ID and status observations are kept.
func (s *Store) Fail(err error) {
	s.update(func(snap *Snapshot) {
		snap.Phase = Failed
		snap.LastError = err
	})
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot)
	s.snapshot.UpdatedAt = time.Now()
}

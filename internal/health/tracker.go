// Package health tracks rolling success/failure statistics per library
// system. Records are created lazily on first use and live for the process.
package health

import (
	"sync"
	"time"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

// Record is the health snapshot of one library system.
type Record struct {
	SystemID      domain.LibrarySystemId `json:"systemId"`
	SuccessCount  int                    `json:"successCount"`
	FailureCount  int                    `json:"failureCount"`
	LastSuccessAt time.Time              `json:"lastSuccessAt,omitzero"`
	LastFailureAt time.Time              `json:"lastFailureAt,omitzero"`
	LastError     string                 `json:"lastError,omitempty"`
	TotalDuration time.Duration          `json:"-"`
	TotalMs       int64                  `json:"totalDurationMs"`
}

// SuccessRate returns successes over total calls, or 0 with no samples.
func (r Record) SuccessRate() float64 {
	total := r.SuccessCount + r.FailureCount
	if total == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(total)
}

// Tracker observes every adapter call. Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	records map[domain.LibrarySystemId]*Record
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[domain.LibrarySystemId]*Record),
		now:     time.Now,
	}
}

// RecordSuccess notes a successful call and its duration.
func (t *Tracker) RecordSuccess(systemID domain.LibrarySystemId, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.recordLocked(systemID)
	r.SuccessCount++
	r.LastSuccessAt = t.now()
	r.TotalDuration += duration
	r.TotalMs = r.TotalDuration.Milliseconds()
}

// RecordFailure notes a failed call, its error, and its duration.
func (t *Tracker) RecordFailure(systemID domain.LibrarySystemId, err error, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.recordLocked(systemID)
	r.FailureCount++
	r.LastFailureAt = t.now()
	if err != nil {
		r.LastError = err.Error()
	}
	r.TotalDuration += duration
	r.TotalMs = r.TotalDuration.Milliseconds()
}

// Snapshot returns a defensive copy of one system's record. Mutating the
// returned value never affects the tracker. The ok result reports whether
// the system has been observed.
func (t *Tracker) Snapshot(systemID domain.LibrarySystemId) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[systemID]
	if !ok {
		return Record{SystemID: systemID}, false
	}
	return *r, true
}

// SuccessRate returns the success ratio for one system, 0 with no samples.
func (t *Tracker) SuccessRate(systemID domain.LibrarySystemId) float64 {
	snap, _ := t.Snapshot(systemID)
	return snap.SuccessRate()
}

// All returns defensive copies of every record.
func (t *Tracker) All() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, *r)
	}
	return out
}

func (t *Tracker) recordLocked(systemID domain.LibrarySystemId) *Record {
	r, ok := t.records[systemID]
	if !ok {
		r = &Record{SystemID: systemID}
		t.records[systemID] = r
	}
	return r
}

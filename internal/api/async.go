package api

import (
	"sync"
	"time"

	"github.com/arguspanoptes/argus-server/internal/cache"
	"github.com/arguspanoptes/argus-server/internal/domain"
	domainerrors "github.com/arguspanoptes/argus-server/internal/errors"
)

// AsyncStatus is the lifecycle of a background search.
type AsyncStatus string

// Background search states.
const (
	AsyncPending   AsyncStatus = "pending"
	AsyncCompleted AsyncStatus = "completed"
	AsyncFailed    AsyncStatus = "failed"
)

// AsyncSearch is one background search. The coordinator goroutine writes
// the outcome; pollers read a snapshot.
type AsyncSearch struct {
	mu          sync.Mutex
	searchID    string
	status      AsyncStatus
	result      *domain.SearchResult
	errCode     string
	errMessage  string
	submittedAt time.Time
}

// AsyncView is a race-free snapshot of a background search.
type AsyncView struct {
	SearchID     string
	Status       AsyncStatus
	Result       *domain.SearchResult
	ErrorCode    string
	ErrorMessage string
	SubmittedAt  time.Time
}

func (a *AsyncSearch) complete(result *domain.SearchResult) {
	a.mu.Lock()
	a.status = AsyncCompleted
	a.result = result
	a.mu.Unlock()
}

func (a *AsyncSearch) fail(err error) {
	a.mu.Lock()
	a.status = AsyncFailed
	a.errCode = domainerrors.CodeOf(err).String()
	a.errMessage = err.Error()
	a.mu.Unlock()
}

// View returns a consistent snapshot.
func (a *AsyncSearch) View() AsyncView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AsyncView{
		SearchID:     a.searchID,
		Status:       a.status,
		Result:       a.result,
		ErrorCode:    a.errCode,
		ErrorMessage: a.errMessage,
		SubmittedAt:  a.submittedAt,
	}
}

// AsyncStore retains background searches, bounded in count and age.
// Eviction can drop a still-pending search under sustained load; pollers
// of an evicted id get a 404 and resubmit.
type AsyncStore struct {
	entries *cache.Memory[string, *AsyncSearch]
}

// NewAsyncStore creates a bounded store.
func NewAsyncStore(maxEntries int, ttl time.Duration) *AsyncStore {
	return &AsyncStore{entries: cache.NewMemory[string, *AsyncSearch](maxEntries, ttl)}
}

// Begin registers a new pending search under the given id.
func (s *AsyncStore) Begin(searchID string) *AsyncSearch {
	a := &AsyncSearch{
		searchID:    searchID,
		status:      AsyncPending,
		submittedAt: time.Now().UTC(),
	}
	s.entries.Set(searchID, a)
	return a
}

// Get looks up a search by id.
func (s *AsyncStore) Get(searchID string) (*AsyncSearch, bool) {
	return s.entries.Get(searchID)
}

// Package retry schedules keyed retries with exponential backoff. The
// session service uses it to re-save progress snapshots after a store
// failure.
package retry

import (
	"container/heap"
	"sync"
	"time"
)

// ─── Retry Queue ────────────────────────────────────────────────────────────
// Entries are ordered by NextRetry in a min-heap. Each key is pending at
// most once; rescheduling a pending key keeps its place and attempt count.

// Config configures the retry queue behavior.
type Config struct {
	MaxRetries int           // Maximum retry attempts before giving up
	BaseDelay  time.Duration // Initial backoff delay (doubles each retry)
	MaxDelay   time.Duration // Cap on backoff delay
}

// DefaultConfig returns production retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
	}
}

// Entry tracks one key's retry state.
type Entry struct {
	Key       string
	Attempt   int       // Retries scheduled so far
	NextRetry time.Time // Earliest time this can be retried
	FailedAt  time.Time // When the last failure occurred
	Error     string    // Last failure reason
}

// Queue is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	config  Config
	entries entryHeap
	pending map[string]*Entry

	// Stats
	totalRetries   int64
	totalExhausted int64
}

// NewQueue creates an empty retry queue.
func NewQueue(cfg Config) *Queue {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return &Queue{
		config:  cfg,
		pending: make(map[string]*Entry),
	}
}

// Schedule records a failure for key at now. Returns false once the key has
// exceeded MaxRetries; the key is then dropped.
func (q *Queue) Schedule(key, reason string, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e, ok := q.pending[key]; ok {
		e.Error = reason
		e.FailedAt = now
		return true
	}
	return q.pushLocked(Entry{Key: key, Error: reason}, now)
}

// Reschedule puts back an entry whose retry failed again.
func (q *Queue) Reschedule(e Entry, reason string, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[e.Key]; ok {
		return true
	}
	e.Error = reason
	return q.pushLocked(e, now)
}

func (q *Queue) pushLocked(e Entry, now time.Time) bool {
	e.Attempt++
	if e.Attempt > q.config.MaxRetries {
		q.totalExhausted++
		return false
	}

	// Exponential backoff: baseDelay * 2^(attempt-1)
	delay := q.config.BaseDelay
	for i := 1; i < e.Attempt; i++ {
		delay *= 2
		if delay > q.config.MaxDelay {
			delay = q.config.MaxDelay
			break
		}
	}
	e.FailedAt = now
	e.NextRetry = now.Add(delay)

	entry := &e
	heap.Push(&q.entries, entry)
	q.pending[e.Key] = entry
	q.totalRetries++
	return true
}

// DrainReady removes and returns every entry due at now, earliest first.
func (q *Queue) DrainReady(now time.Time) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []Entry
	for q.entries.Len() > 0 && !now.Before(q.entries[0].NextRetry) {
		e := heap.Pop(&q.entries).(*Entry)
		delete(q.pending, e.Key)
		ready = append(ready, *e)
	}
	return ready
}

// Remove drops a pending key, e.g. after a later save succeeded.
func (q *Queue) Remove(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.pending[key]
	if !ok {
		return
	}
	delete(q.pending, key)
	for i, cur := range q.entries {
		if cur == e {
			heap.Remove(&q.entries, i)
			return
		}
	}
}

// Pending reports whether key is waiting for a retry.
func (q *Queue) Pending(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[key]
	return ok
}

// Len returns the number of keys pending retry.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries.Len()
}

// Stats holds retry queue statistics.
type Stats struct {
	PendingRetries int   `json:"pending_retries"`
	TotalRetries   int64 `json:"total_retries"`
	TotalExhausted int64 `json:"total_exhausted"` // Exceeded MaxRetries
}

// Stats returns current retry queue statistics.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		PendingRetries: q.entries.Len(),
		TotalRetries:   q.totalRetries,
		TotalExhausted: q.totalExhausted,
	}
}

// ─── Heap ───────────────────────────────────────────────────────────────────

type entryHeap []*Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].NextRetry.Before(h[j].NextRetry) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Package ratelimit implements an in-memory dual sliding-window rate
// limiter keyed by client IP.
//
// Each key tracks two independent windows (minute-scale and
// hour-scale); either, both, or neither may be enabled. Window state is
// re-filtered on every access, so the periodic sweep only bounds memory
// from transient clients, it is not needed for correctness.
package ratelimit

import (
	"sync"
	"time"
)

// sweepInterval limits how often the full-store sweep runs.
const sweepInterval = 5 * time.Minute

// Window configures one sliding window. Max <= 0 disables the window.
type Window struct {
	Max  int
	Span time.Duration
}

// Result is the outcome of a single admission check.
type Result struct {
	OK bool
	// RetryAfter is the number of whole seconds until the oldest
	// counted request leaves the violated window. Zero when OK.
	RetryAfter int
	// Max and Span describe the violated window, for error messages.
	Max  int
	Span time.Duration
}

type record struct {
	minute []time.Time
	hour   []time.Time
}

// Store owns the per-IP records. All access goes through one mutex;
// request volume is modest (server-to-server callers), so per-key
// locking is not worth the bookkeeping.
type Store struct {
	mu        sync.Mutex
	records   map[string]*record
	minute    Window
	hour      Window
	lastSweep time.Time

	now func() time.Time // injectable for tests
}

// NewStore creates a rate-limit store with the given windows.
func NewStore(minute, hour Window) *Store {
	return &Store{
		records:   make(map[string]*record),
		minute:    minute,
		hour:      hour,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Enabled reports whether at least one window is configured.
func (s *Store) Enabled() bool {
	return s.minute.Max > 0 || s.hour.Max > 0
}

// Allow records a request for ip and reports whether it is admitted.
//
// Windows are evaluated in order: the minute window is
// filtered-checked-appended first, then the hour window. A rejection on
// the hour window does not undo the minute window's append; this
// ordering keeps retry-after values deterministic.
func (s *Store) Allow(ip string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > sweepInterval {
		s.sweep(now)
		s.lastSweep = now
	}

	rec, ok := s.records[ip]
	if !ok {
		rec = &record{}
		s.records[ip] = rec
	}

	if s.minute.Max > 0 {
		rec.minute = prune(rec.minute, now.Add(-s.minute.Span))
		if len(rec.minute) >= s.minute.Max {
			return rejected(rec.minute[0], s.minute, now)
		}
		rec.minute = append(rec.minute, now)
	}

	if s.hour.Max > 0 {
		rec.hour = prune(rec.hour, now.Add(-s.hour.Span))
		if len(rec.hour) >= s.hour.Max {
			return rejected(rec.hour[0], s.hour, now)
		}
		rec.hour = append(rec.hour, now)
	}

	return Result{OK: true}
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// sweep prunes stale timestamps from every record and evicts records
// with both windows empty. Caller holds the mutex.
func (s *Store) sweep(now time.Time) {
	minuteCutoff := now.Add(-s.minute.Span)
	hourCutoff := now.Add(-s.hour.Span)
	for key, rec := range s.records {
		rec.minute = prune(rec.minute, minuteCutoff)
		rec.hour = prune(rec.hour, hourCutoff)
		if len(rec.minute) == 0 && len(rec.hour) == 0 {
			delete(s.records, key)
		}
	}
}

func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	// Timestamps are appended in order; find the first still inside
	// the window.
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append(stamps[:0], stamps[i:]...)
}

func rejected(oldest time.Time, w Window, now time.Time) Result {
	wait := oldest.Add(w.Span).Sub(now)
	retryAfter := int((wait + time.Second - 1) / time.Second)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Result{RetryAfter: retryAfter, Max: w.Max, Span: w.Span}
}

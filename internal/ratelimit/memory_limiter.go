package ratelimit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// MemoryLimiter keeps sliding windows in process memory. It backs the
// adaptive limiter while Redis is unreachable.
type MemoryLimiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	log  *slog.Logger
	now  func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an empty in-memory limiter.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		hits: make(map[string][]time.Time),
		log:  log,
		now:  time.Now,
	}
}

// Check admits a hit when fewer than limit hits fall inside the window.
// Rejected hits are not recorded.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := prune(m.hits[key], now.Add(-window))
	allowed := len(hits) < limit
	if allowed {
		hits = append(hits, now)
	}
	m.hits[key] = hits

	result := &Result{
		Allowed:   allowed,
		Remaining: max(limit-len(hits), 0),
		ResetAt:   now.Add(window),
	}
	if len(hits) > 0 {
		result.ResetAt = hits[0].Add(window)
	}

	if !allowed {
		return result, ErrLimitExceeded
	}
	return result, nil
}

// Cleanup forgets keys whose latest hit is older than maxAge and returns how
// many were dropped.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key, hits := range m.hits {
		if len(hits) > 0 && !hits[len(hits)-1].Before(cutoff) {
			continue
		}
		delete(m.hits, key)
		dropped++
	}
	if dropped > 0 {
		m.log.Debug("in-memory rate limit keys dropped", slog.Int("count", dropped))
	}

	return dropped
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// prune drops hits before start, reusing the backing array. hits is sorted.
func prune(hits []time.Time, start time.Time) []time.Time {
	i := sort.Search(len(hits), func(i int) bool { return !hits[i].Before(start) })
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}

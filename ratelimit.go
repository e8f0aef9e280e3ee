package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimitStore keeps one token bucket per client IP. Buckets idle for
// longer than idleTTL are dropped by a background sweep.
type rateLimitStore struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	cleanup  *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// newRateLimitStore allows perMinute requests per minute per IP with the
// given burst.
func newRateLimitStore(perMinute float64, burst int) *rateLimitStore {
	s := &rateLimitStore{
		limiters: make(map[string]*rateLimiterEntry),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		cleanup:  time.NewTicker(5 * time.Minute),
		done:     make(chan struct{}),
	}
	go s.cleanupOldEntries()
	return s
}

func (s *rateLimitStore) Stop() {
	s.stopOnce.Do(func() {
		s.cleanup.Stop()
		close(s.done)
	})
}

func (s *rateLimitStore) cleanupOldEntries() {
	for {
		select {
		case <-s.done:
			return
		case now := <-s.cleanup.C:
			s.sweep(now)
		}
	}
}

func (s *rateLimitStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > s.idleTTL {
			delete(s.limiters, ip)
		}
	}
}

// Allow reports whether the client at ip may make another request now.
func (s *rateLimitStore) Allow(ip string) bool {
	s.mu.Lock()
	entry, ok := s.limiters[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	s.mu.Unlock()

	return entry.limiter.Allow()
}

func (s *rateLimitStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

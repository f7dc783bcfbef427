package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	janitorInterval = time.Minute
	bucketIdleTTL   = 10 * time.Minute
)

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Memory is a per-process token-bucket limiter keyed by client IP. Each key
// gets perMinute tokens refilled continuously over a rolling minute. A
// janitor evicts buckets that have been idle long enough to be full again.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	perMinute float64
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewMemory creates an in-memory limiter allowing perMinute actions per key.
func NewMemory(perMinute int) *Memory {
	if perMinute < 1 {
		perMinute = 1
	}
	m := &Memory{
		buckets:   make(map[string]*bucket),
		perMinute: float64(perMinute),
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
	go m.janitor()
	return m
}

func (m *Memory) Allow(_ context.Context, key string) (bool, int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.buckets[key]
	if !exists {
		b = &bucket{tokens: m.perMinute}
		m.buckets[key] = b
	} else {
		refill := now.Sub(b.lastSeen).Minutes() * m.perMinute
		b.tokens += refill
		if b.tokens > m.perMinute {
			b.tokens = m.perMinute
		}
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false, 0, nil
	}
	b.tokens--
	return true, int(b.tokens), nil
}

// Stop terminates the janitor goroutine.
func (m *Memory) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Memory) evictIdle() {
	cutoff := m.now().Add(-bucketIdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}

package session

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// OffsetClock is the local clock corrected by the offset to the server clock.
type OffsetClock struct {
	mu     sync.RWMutex
	base   Clock
	offset time.Duration
}

func NewOffsetClock(base Clock) *OffsetClock {
	if base == nil {
		base = SystemClock{}
	}
	return &OffsetClock{base: base}
}

// Sync records serverTime as the current authoritative instant.
func (c *OffsetClock) Sync(serverTime time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = serverTime.Sub(c.base.Now())
}

func (c *OffsetClock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

func (c *OffsetClock) Now() time.Time {
	return c.base.Now().Add(c.Offset())
}

package clock

import (
	"sync"
	"time"
)

// Clock provides the two monotonic counters the protocol does not control:
// a coarse height counter (challenge windows, bonding periods, consensus
// rounds) and a wall clock (dispute voting windows). Components only read;
// advancing is the surrounding environment's job.
type Clock interface {
	Height() int64
	Now() time.Time
}

//----------------------------------------
// ManualClock

// ManualClock is a Clock the test harness advances by hand.
type ManualClock struct {
	mtx    sync.RWMutex
	height int64
	now    time.Time
}

func NewManualClock(height int64, now time.Time) *ManualClock {
	return &ManualClock{height: height, now: now}
}

func (c *ManualClock) Height() int64 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.height
}

func (c *ManualClock) Now() time.Time {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.now
}

// AdvanceHeight moves the height counter forward by delta.
func (c *ManualClock) AdvanceHeight(delta int64) {
	c.mtx.Lock()
	c.height += delta
	c.mtx.Unlock()
}

// AdvanceTime moves the wall clock forward by d.
func (c *ManualClock) AdvanceTime(d time.Duration) {
	c.mtx.Lock()
	c.now = c.now.Add(d)
	c.mtx.Unlock()
}

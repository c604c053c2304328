package clock

import (
	"sync"
	"time"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
)

// IntervalClock advances the height counter once per fixed interval, the
// way a block producer would. Now() is the real wall clock.
type IntervalClock struct {
	service.BaseService

	interval time.Duration

	mtx    sync.RWMutex
	height int64

	quit chan struct{}
}

func NewIntervalClock(initialHeight int64, interval time.Duration) *IntervalClock {
	c := &IntervalClock{
		interval: interval,
		height:   initialHeight,
		quit:     make(chan struct{}),
	}
	c.BaseService = *service.NewBaseService(nil, "IntervalClock", c)
	return c
}

func (c *IntervalClock) SetLogger(logger log.Logger) {
	c.Logger = logger
}

func (c *IntervalClock) OnStart() error {
	go c.tickRoutine()
	return nil
}

func (c *IntervalClock) OnStop() {
	close(c.quit)
}

func (c *IntervalClock) Height() int64 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.height
}

func (c *IntervalClock) Now() time.Time {
	return time.Now()
}

func (c *IntervalClock) tickRoutine() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.quit:
			return
		case <-ticker.C:
			c.mtx.Lock()
			c.height++
			height := c.height
			c.mtx.Unlock()
			if c.Logger != nil {
				c.Logger.Debug("height advanced", "height", height)
			}
		}
	}
}

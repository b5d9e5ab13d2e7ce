package shared

import (
	"sync"
	"time"
)

// IDClock hands out millisecond timestamps usable as record ids. Values are
// strictly increasing within a process, so two records created in the same
// millisecond still get distinct ids.
type IDClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDClock constructs a clock. A nil now defaults to time.Now.
func NewIDClock(now func() time.Time) *IDClock {
	if now == nil {
		now = time.Now
	}
	return &IDClock{now: now}
}

// Next returns the next id.
func (c *IDClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// Observe records an id issued elsewhere (for example one loaded from storage)
// so that later calls to Next never hand it out again.
func (c *IDClock) Observe(id int64) {
	c.mu.Lock()
	if id > c.last {
		c.last = id
	}
	c.mu.Unlock()
}

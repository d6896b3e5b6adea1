package service

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClockUnavailable is returned when no trustworthy time reading exists.
var ErrClockUnavailable = errors.New("trusted clock unavailable")

// SystemClock reads the host wall clock.
type SystemClock struct {
	now func() time.Time
}

// NewSystemClock returns a clock backed by time.Now.
func NewSystemClock() *SystemClock {
	return &SystemClock{now: time.Now}
}

// Now returns the current UTC time. A reading before the Unix epoch means
// the host clock is unset and is reported as ErrClockUnavailable.
func (c *SystemClock) Now() (time.Time, error) {
	t := c.now()
	if t.Unix() <= 0 {
		return time.Time{}, fmt.Errorf("%w: host clock reads %s", ErrClockUnavailable, t.Format(time.RFC3339))
	}
	return t.UTC(), nil
}

// Source is the clock interface MonotonicClock wraps.
type Source interface {
	Now() (time.Time, error)
}

// MonotonicClock never returns a reading older than one it already returned.
// If the underlying clock steps backwards the last reading is repeated.
type MonotonicClock struct {
	source Source
	last   time.Time
	mu     sync.Mutex
}

// NewMonotonicClock wraps source.
func NewMonotonicClock(source Source) *MonotonicClock {
	return &MonotonicClock{source: source}
}

// Now returns max(source reading, previous reading).
func (c *MonotonicClock) Now() (time.Time, error) {
	t, err := c.source.Now()
	if err != nil {
		return time.Time{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.last) {
		return c.last, nil
	}
	c.last = t
	return t, nil
}

// Package testutil holds deterministic stand-ins for the sources of
// nondeterminism in ramc: the logical sequence clock and build ids.
package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Clock is a resettable logical clock. The first call to Next returns 1.
// Safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	seq int64
}

// NewClock returns a clock at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the clock value without advancing it.
func (c *Clock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// BuildIDs returns a build id source whose n-th id is
// 00000000-0000-7000-8000-<n as 12 hex digits>. The ids carry the UUIDv7
// version and RFC 4122 variant bits so they pass the same checks as real
// ones. Plug it into store.WithBuildIDs.
func BuildIDs(clock *Clock) func() (uuid.UUID, error) {
	return func() (uuid.UUID, error) {
		n := clock.Next()
		if n >= 1<<48 {
			return uuid.Nil, fmt.Errorf("build id sequence exhausted at %d", n)
		}
		return uuid.Parse(fmt.Sprintf("00000000-0000-7000-8000-%012x", n))
	}
}

package tracing

import (
	"fmt"

	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/ufm/pagebuffer"
)

// CacheCounts are the event counts of a page buffer.
type CacheCounts struct {
	Hits    uint64
	Misses  uint64
	Fills   uint64
	Flushes uint64
}

// HitRate returns the share of hits among hits and misses.
func (c CacheCounts) HitRate() float64 {
	total := c.Hits + c.Misses
	if total == 0 {
		return 0
	}

	return float64(c.Hits) / float64(total)
}

func (c CacheCounts) String() string {
	return fmt.Sprintf("hits %d, misses %d, fills %d, flushes %d (%.1f%% hit)",
		c.Hits, c.Misses, c.Fills, c.Flushes, 100*c.HitRate())
}

// CacheCounter counts the page buffer events. A hit is counted for every
// cycle a read hits the cached page.
type CacheCounter struct {
	counts CacheCounts
}

// NewCacheCounter returns a counter with all counts at zero.
func NewCacheCounter() *CacheCounter {
	return &CacheCounter{}
}

// Counts returns the current counts.
func (c *CacheCounter) Counts() CacheCounts {
	return c.counts
}

// Func counts one page buffer event.
func (c *CacheCounter) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case pagebuffer.HookPosHit:
		c.counts.Hits++
	case pagebuffer.HookPosMiss:
		c.counts.Misses++
	case pagebuffer.HookPosFillDone:
		c.counts.Fills++
	case pagebuffer.HookPosFlush:
		c.counts.Flushes++
	}
}

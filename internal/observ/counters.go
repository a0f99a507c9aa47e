package observ

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Counters is a named set of monotonically increasing tallies. The zero
// value is ready to use; a nil *Counters discards every update.
type Counters struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewCounters creates an empty counter set.
func NewCounters() *Counters { return &Counters{values: make(map[string]int64)} }

// Add increments name by n.
func (c *Counters) Add(name string, n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]int64)
	}
	c.values[name] += n
}

// Get returns the current value of name.
func (c *Counters) Get(name string) int64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Snapshot copies all counters.
func (c *Counters) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	if c == nil {
		return out
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Summary renders counters sorted by name, one per line.
func (c *Counters) Summary() string {
	snap := c.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("counters:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-36s %d\n", name, snap[name])
	}
	return b.String()
}

package solver

import (
	"sync"
	"sync/atomic"
)

// FlowPos is a node of a control flow graph, as numbered by the flow analysis
type FlowPos uint32

// VarID identifies a narrowable reference within a function body
type VarID uint32

// flowKey includes the declared type, so that two references that share a flow
// position and variable id but were declared differently never share an entry
type flowKey struct {
	pos      FlowPos
	v        VarID
	declared TypeID
}

// FlowCache memoises the narrowed type of a reference at a flow position.
// It is safe for concurrent use.
type FlowCache struct {
	in *Interner

	mu      sync.RWMutex
	entries map[flowKey]TypeID

	hits, misses atomic.Uint64
}

func NewFlowCache(in *Interner) *FlowCache {
	return &FlowCache{in: in, entries: make(map[flowKey]TypeID)}
}

func (c *FlowCache) Lookup(pos FlowPos, v VarID, declared TypeID) (TypeID, bool) {
	c.mu.RLock()
	narrowed, ok := c.entries[flowKey{pos, v, declared}]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return narrowed, ok
}

func (c *FlowCache) Store(pos FlowPos, v VarID, declared, narrowed TypeID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[flowKey{pos, v, declared}] = narrowed
}

// GetOrCompute returns the cached entry, computing and storing it on a miss.
// compute runs without the lock held and may itself use the cache.
func (c *FlowCache) GetOrCompute(pos FlowPos, v VarID, declared TypeID, compute func() TypeID) TypeID {
	if narrowed, ok := c.Lookup(pos, v, declared); ok {
		return narrowed
	}
	narrowed := compute()
	c.mu.Lock()
	defer c.mu.Unlock()
	key := flowKey{pos, v, declared}
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = narrowed
	return narrowed
}

// AtLoopHeader records the type of a reference entering a loop. A mutable binding
// may be reassigned in the loop body, so it is widened to `entry | declared`;
// a const binding keeps its entry type.
func (c *FlowCache) AtLoopHeader(pos FlowPos, v VarID, declared, entry TypeID, isConst bool) TypeID {
	narrowed := entry
	if !isConst {
		narrowed = c.in.Union(entry, declared)
	}
	c.Store(pos, v, declared, narrowed)
	return narrowed
}

func (c *FlowCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the number of lookups answered from the cache and the number that were not
func (c *FlowCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

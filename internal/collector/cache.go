package collector

import (
	"sync"

	"MervalSentinel/internal/model"
)

// InstrumentCache memoizes resolved instruments by domain symbol.
type InstrumentCache interface {
	Get(key string) (*model.Instrument, bool)
	Put(key string, inst *model.Instrument)
}

// MemoryCache is a process-lifetime InstrumentCache safe for concurrent use.
// Entries never expire; Reset drops them all.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]*model.Instrument
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]*model.Instrument)}
}

func (c *MemoryCache) Get(key string) (*model.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, ok := c.items[key]
	return inst, ok
}

func (c *MemoryCache) Put(key string, inst *model.Instrument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = inst
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*model.Instrument)
}

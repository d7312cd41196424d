package proxyvars

import "sync"

// ProgramCache stores compiled expression programs keyed by expression
// strings, shared across derived proxies that repeat the same expressions.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewMemoryProgramCache returns an unbounded in-process ProgramCache.
func NewMemoryProgramCache() ProgramCache {
	return &memoryProgramCache{}
}

type memoryProgramCache struct {
	programs sync.Map
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}

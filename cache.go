package dbcontext

import "sync"

// Cache stores immutable metadata for the lifetime of the process: field
// schemas keyed by fully-qualified type name and parameter lists keyed by
// procedure name. Implementations must be safe for concurrent use. There is
// no eviction or expiry; once a key is present its value is treated as valid
// until the process exits.
//
// Population is check-then-set without an atomic read-through: two callers may
// both miss and both fetch. That is harmless because every cached value is
// immutable and structurally equal regardless of which caller stored it.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapCache is the default Cache, backed by a sync.Map.
type MapCache struct {
	m sync.Map
}

func NewMapCache() *MapCache { return &MapCache{} }

func (c *MapCache) Get(key string) (any, bool) { return c.m.Load(key) }

func (c *MapCache) Set(key string, value any) { c.m.Store(key, value) }

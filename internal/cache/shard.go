package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

type shard[V any] struct {
	mu sync.RWMutex
	m  map[string]*entry[V]
}

func (c *Cache[V]) getShard(key string) *shard[V] {
	h := xxhash.Sum64String(key)
	return &c.shards[h&c.shardMask]
}

package cache

// OldestAccessed はアクセスが最も古い n 件をタイムスタンプ昇順で返します。
// sweep と同じロックを取るため、回収中のタイムスタンプ書き換えと
// 交錯することはありません。通常の Get/Put はブロックしません。
func (c *Cache[V]) OldestAccessed(n int) []Item[V] {
	return c.snapshotTopK(n, false)
}

// NewestAccessed はアクセスが最も新しい n 件をタイムスタンプ降順で返します。
func (c *Cache[V]) NewestAccessed(n int) []Item[V] {
	return c.snapshotTopK(n, true)
}

func (c *Cache[V]) snapshotTopK(n int, newest bool) []Item[V] {
	if n <= 0 {
		return nil
	}
	if l := c.Len(); n > l {
		n = l
	}
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	q := newSelector[V](n, newest)
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.RLock()
		for _, e := range sh.m {
			e.tsCopy = e.lastAccessed.Load()
			q.insertWithOverflow(e)
		}
		sh.mu.RUnlock()
	}

	// pop は最弱側から出てくるので後ろから詰めると所望の順になる
	res := make([]Item[V], q.Len())
	for i := len(res) - 1; i >= 0; i-- {
		e := q.pop()
		res[i] = Item[V]{Key: e.key, Value: e.value}
	}
	return res
}

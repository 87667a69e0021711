package cache

// Get はキーに対応する値を取得します。
// ヒット時はエントリのタイムスタンプを新しいクロック値へ進めます。
// 読み取りであっても「最近使われた」を成立させるための副作用です。
func (c *Cache[V]) Get(key string) (V, bool) {
	sh := c.getShard(key)
	sh.mu.RLock()
	e, ok := sh.m[key]
	var v V
	if ok {
		v = e.value
	}
	sh.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		c.cfg.Metrics.IncGetMiss()
		var zero V
		return zero, false
	}
	e.lastAccessed.Store(c.clock.Add(1))
	c.hits.Add(1)
	c.cfg.Metrics.IncGetHit()
	return v, true
}

// Put はキーと値をキャッシュに格納し、上書き前の値を返します。
// nil 相当の値は no-op です。挿入後にサイズが upperWaterMark を超えていれば
// 回収をトリガーします。このチェックは意図的に race を許容しており、
// 重複トリガーは sweep ロック側で弾かれます。
func (c *Cache[V]) Put(key string, value V) (prev V, existed bool) {
	if isNil(value) {
		var zero V
		return zero, false
	}
	ts := c.clock.Add(1)

	sh := c.getShard(key)
	sh.mu.Lock()
	e, existed := sh.m[key]
	if existed {
		prev = e.value
		e.value = value
		e.lastAccessed.Store(ts)
	} else {
		e = &entry[V]{key: key, value: value}
		e.lastAccessed.Store(ts)
		sh.m[key] = e
	}
	sh.mu.Unlock()

	var current int64
	if existed {
		current = c.size.Load()
		c.cfg.Metrics.IncPutUpdate()
	} else {
		current = c.size.Add(1)
		c.cfg.Metrics.IncPutNew()
		c.cfg.Metrics.SetCacheSize(int(current))
	}
	c.puts.Add(1)

	if c.cfg.Logger != nil {
		if existed {
			c.cfg.Logger.Debug("cache.update", "key", key)
		} else {
			c.cfg.Logger.Debug("cache.put", "key", key, "size", current)
		}
	}

	// sweeping はヒントに過ぎない。複数の writer が同時に超過を観測しても
	// markAndSweep の TryLock で 1 つだけが勝つ。
	if int(current) > c.upper && !c.sweeping.Load() {
		c.triggerReclaim()
	}

	return prev, existed
}

// Evict はキーが存在すれば無条件に削除し、削除したかどうかを返します。
func (c *Cache[V]) Evict(key string) bool {
	return c.evictEntry(key)
}

func (c *Cache[V]) evictEntry(key string) bool {
	sh := c.getShard(key)
	sh.mu.Lock()
	e, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	sh.mu.Unlock()
	if !ok {
		return false
	}
	current := c.size.Add(-1)
	c.evictions.Add(1)
	c.cfg.Metrics.AddEvicted(1)
	c.cfg.Metrics.SetCacheSize(int(current))
	if fn := c.onEvict.Load(); fn != nil {
		(*fn)(e.key, e.value)
	}
	return true
}

// Clear は全エントリを破棄します。エビクションの付帯処理
// （リスナー呼び出し・evictions カウント）は行いません。
func (c *Cache[V]) Clear() {
	var removed int64
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.Lock()
		removed += int64(len(sh.m))
		sh.m = make(map[string]*entry[V])
		sh.mu.Unlock()
	}
	current := c.size.Add(-removed)
	c.cfg.Metrics.SetCacheSize(int(current))
}

func (c *Cache[V]) triggerReclaim() {
	switch c.cfg.Mode {
	case TriggerInline:
		c.markAndSweep()
	case TriggerSpawn:
		go c.sweepRecover()
	default:
		if c.worker != nil {
			c.worker.wakeUp()
		} else {
			c.markAndSweep()
		}
	}
}

// sweepRecover は非同期実行時の panic を呼び出し元へ伝播させないための
// ラッパです。失敗はログに残すのみで再試行しません。
func (c *Cache[V]) sweepRecover() {
	defer func() {
		if r := recover(); r != nil {
			if c.cfg.Logger != nil {
				c.cfg.Logger.Error("cache.sweep.panic", "panic", r)
			}
		}
	}()
	c.markAndSweep()
}

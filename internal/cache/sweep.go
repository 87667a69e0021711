package cache

import "time"

// markAndSweep はサイズを acceptableWaterMark 以下（理想は lowerWaterMark）
// まで引き下げます。ソートせずに 3 フェーズで勝ち抜きを行います。
//
// wantToKeep 件を残すなら、タイムスタンプが current-wantToKeep より新しい
// エントリは最古グループに入り得ません。逆に wantToRemove 件を消すなら、
// oldestEntry+wantToRemove より古いエントリは必ず削除対象です。この 2 つの
// 区間証明で大半のエントリをフェーズ 1 の一巡で確定させ、残った曖昧帯
// だけを再走査（フェーズ 2）と有界優先度選択（フェーズ 3）に回します。
//
// 同時実行は TryLock で 1 本に制限され、負けた呼び出しは待たずに戻ります。
func (c *Cache[V]) markAndSweep() {
	if !c.sweepMu.TryLock() {
		return
	}
	c.sweeping.Store(true)
	defer func() {
		c.sweeping.Store(false)
		c.sweepMu.Unlock()
	}()

	started := time.Now()

	oldest := c.oldestEntry
	newest := c.clock.Load()
	sz := int(c.size.Load())

	numRemoved := 0
	numKept := 0
	newNewest := int64(-1)
	newOldest := maxTimestamp

	wantToKeep := c.lower
	wantToRemove := sz - c.lower

	// フェーズ 1: 全エントリを一巡して二方向に分類する。
	// 曖昧なものだけ eset に集め、観測した min/max を次フェーズの窓にする。
	all := make([]*entry[V], 0, sz)
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.RLock()
		for _, e := range sh.m {
			all = append(all, e)
		}
		sh.mu.RUnlock()
	}

	eset := all[:0]
	for _, e := range all {
		// volatile 読みを繰り返さないよう安定スナップショットを取る
		ts := e.lastAccessed.Load()
		e.tsCopy = ts

		if ts > newest-int64(wantToKeep) {
			// 最古グループに入り得ない
			numKept++
			if ts < newOldest {
				newOldest = ts
			}
		} else if ts < oldest+int64(wantToRemove) {
			// 確実に最古グループ
			c.evictEntry(e.key)
			numRemoved++
		} else {
			eset = append(eset, e)
			if ts > newNewest {
				newNewest = ts
			}
			if ts < newOldest {
				newOldest = ts
			}
		}
	}

	// フェーズ 2: 足りなければ窓を締め直して eset を再走査する。
	// 回数は RepassBudget で打ち切る。順序は不要なので swap 削除。
	passes := c.cfg.RepassBudget
	for sz-numRemoved > c.acceptable && passes > 0 {
		passes--
		if newOldest != maxTimestamp {
			oldest = newOldest
		}
		newOldest = maxTimestamp
		newest = newNewest
		newNewest = -1
		wantToKeep = c.lower - numKept
		wantToRemove = sz - c.lower - numRemoved

		for i := len(eset) - 1; i >= 0; i-- {
			e := eset[i]
			ts := e.tsCopy
			if ts > newest-int64(wantToKeep) {
				numKept++
				eset[i] = eset[len(eset)-1]
				eset = eset[:len(eset)-1]
				if ts < newOldest {
					newOldest = ts
				}
			} else if ts < oldest+int64(wantToRemove) {
				c.evictEntry(e.key)
				numRemoved++
				eset[i] = eset[len(eset)-1]
				eset = eset[:len(eset)-1]
			} else {
				if ts > newNewest {
					newNewest = ts
				}
				if ts < newOldest {
					newOldest = ts
				}
			}
		}
	}

	// フェーズ 3: それでも足りなければ残量分の有界優先度セレクタに流し込む。
	// セレクタから溢れたものはセレクタが保持する全てより古いので即削除できる。
	if sz-numRemoved > c.acceptable {
		if newOldest != maxTimestamp {
			oldest = newOldest
		}
		newOldest = maxTimestamp
		newest = newNewest
		wantToKeep = c.lower - numKept
		wantToRemove = sz - c.lower - numRemoved

		q := newSelector[V](wantToRemove, false)
		for i := len(eset) - 1; i >= 0; i-- {
			e := eset[i]
			ts := e.tsCopy
			if ts > newest-int64(wantToKeep) {
				numKept++
				if ts < newOldest {
					newOldest = ts
				}
			} else if ts < oldest+int64(wantToRemove) {
				c.evictEntry(e.key)
				numRemoved++
			} else {
				// ループ中の即時削除の分だけ残量が減るので、先に容量を縮める。
				// 縮小で追い出されたエントリは生存が確定する。
				for _, out := range q.shrink(sz - c.lower - numRemoved) {
					if out.tsCopy < newOldest {
						newOldest = out.tsCopy
					}
				}
				if q.maxSize <= 0 {
					break
				}
				if out := q.insertWithOverflow(e); out != nil {
					if out.tsCopy < newOldest {
						newOldest = out.tsCopy
					}
				}
			}
		}
		// セレクタに残った分は全て削除する。順序は不要。
		for _, e := range q.items {
			c.evictEntry(e.key)
			numRemoved++
		}
	}

	if newOldest != maxTimestamp {
		oldest = newOldest
	}
	// 次回の下界ヒントとして引き継ぐ
	c.oldestEntry = oldest

	c.cfg.Metrics.IncSweepRun()
	if c.cfg.Logger != nil {
		c.cfg.Logger.Info("cache.sweep",
			"removed", numRemoved,
			"kept", numKept,
			"size", c.size.Load(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}

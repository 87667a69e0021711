package metrics

import (
	"sync/atomic"
)

// Interface はメトリクス更新用抽象
type Interface interface {
	IncPutNew()
	IncPutUpdate()
	IncGetHit()
	IncGetMiss()
	AddEvicted(n int)
	IncSweepRun()
	SetCacheSize(n int)
}

// Noop は何もしないメトリクス実装
type Noop struct{}

// IncPutNew は何もしないメトリクス実装
func (Noop) IncPutNew() {}

// IncPutUpdate は何もしないメトリクス実装
func (Noop) IncPutUpdate() {}

// IncGetHit は何もしないメトリクス実装
func (Noop) IncGetHit() {}

// IncGetMiss は何もしないメトリクス実装
func (Noop) IncGetMiss() {}

// AddEvicted は何もしないメトリクス実装
func (Noop) AddEvicted(_ int) {}

// IncSweepRun は何もしないメトリクス実装
func (Noop) IncSweepRun() {}

// SetCacheSize は何もしないメトリクス実装
func (Noop) SetCacheSize(_ int) {}

// Simple はシンプルなメトリクス実装です。
type Simple struct {
	PutNew    atomic.Uint64
	PutUpdate atomic.Uint64
	GetHit    atomic.Uint64
	GetMiss   atomic.Uint64
	Evicted   atomic.Uint64
	SweepRuns atomic.Uint64
	CacheSize atomic.Int64
}

// NewSimple は新しい Simple メトリクスを作成します。
func NewSimple() *Simple { return &Simple{} }

// IncPutNew は新しいキーが追加されたことをカウントします。
func (m *Simple) IncPutNew() { m.PutNew.Add(1) }

// IncPutUpdate は既存のキーが更新されたことをカウントします。
func (m *Simple) IncPutUpdate() { m.PutUpdate.Add(1) }

// IncGetHit はキャッシュヒットをカウントします。
func (m *Simple) IncGetHit() { m.GetHit.Add(1) }

// IncGetMiss はキャッシュミスをカウントします。
func (m *Simple) IncGetMiss() { m.GetMiss.Add(1) }

// AddEvicted はエビクションされたアイテムの数を加算します。
func (m *Simple) AddEvicted(n int) {
	if n > 0 {
		m.Evicted.Add(uint64(n))
	}
}

// IncSweepRun は mark-and-sweep の実行回数をカウントします。
func (m *Simple) IncSweepRun() { m.SweepRuns.Add(1) }

// SetCacheSize は現在のキャッシュサイズを設定します。
func (m *Simple) SetCacheSize(n int) {
	m.CacheSize.Store(int64(n))
}

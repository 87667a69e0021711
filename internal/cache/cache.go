// Package cache はウォーターマーク駆動のエビクションを行う有界キャッシュを提供します。
//
// サイズが upperWaterMark を超えた書き込みを契機に、おおよその LRU 順で
// acceptableWaterMark まで非同期にエントリを回収します。厳密な LRU 順序は
// 保証しません（mark-and-sweep による近似）。
package cache

import (
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/amakane-hakari/suimon/internal/metrics"
)

// Item はスナップショットクエリの結果 1 件を表します。
type Item[V any] struct {
	Key   string
	Value V
}

// entry はストアが所有するキャッシュエントリです。
// lastAccessed はアクセスクロック由来の論理タイムスタンプで、
// Get 成功のたびに進みます。tsCopy は sweep ロック保持中のみ
// 読み書きされる作業用スナップショットです。
type entry[V any] struct {
	key          string
	value        V
	lastAccessed atomic.Int64
	tsCopy       int64
}

// Cache はウォーターマーク制御付きの並行キャッシュです。
type Cache[V any] struct {
	cfg Config

	shards    []shard[V]
	shardMask uint64

	upper      int
	lower      int
	acceptable int

	// アクセスクロック。atomic increment により全操作で一意な値を配る。
	clock atomic.Int64

	size      atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	puts      atomic.Int64
	evictions atomic.Int64

	// sweep の single-flight 用。TryLock に負けた呼び出しは即座に戻る。
	sweepMu sync.Mutex
	// sweeping は put の高速パス用ヒント。正しさはロック側が保証する。
	sweeping atomic.Bool
	// oldestEntry は生存エントリの最小タイムスタンプの下界。
	// sweep ロック保持中のみアクセスし、実行間で引き継ぐ。
	oldestEntry int64

	// onEvict は atomic に差し替え可能。進行中の sweep と並行して
	// 設定されても、以後の削除から新しいフックが見える。
	onEvict atomic.Pointer[func(key string, value V)]

	worker *reclaimWorker[V]
}

// New は指定ウォーターマークで Cache を作成します。
// 0 <= lower < acceptable < upper を満たさない場合はエラーを返します。
func New[V any](upper, lower, acceptable int, opts ...Option) (*Cache[V], error) {
	if upper < 1 {
		return nil, fmt.Errorf("cache: upperWaterMark must be >= 1, got %d", upper)
	}
	if lower < 0 || lower >= upper {
		return nil, fmt.Errorf("cache: lowerWaterMark must satisfy 0 <= lower < upper, got lower=%d upper=%d", lower, upper)
	}
	if acceptable <= lower || acceptable >= upper {
		return nil, fmt.Errorf("cache: acceptableWaterMark must satisfy lower < acceptable < upper, got lower=%d acceptable=%d upper=%d", lower, acceptable, upper)
	}

	cfg := Config{
		Shards:       16,
		RepassBudget: 1,
		Mode:         TriggerWorker,
		Metrics:      metrics.Noop{},
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Shards < 1 {
		cfg.Shards = 16
	}
	// 2 の冪に揃える
	cfg.Shards = nextPowerOfTwo(cfg.Shards)
	if cfg.RepassBudget < 0 {
		cfg.RepassBudget = 0
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	if cfg.InitialCapacity <= 0 {
		cfg.InitialCapacity = upper * 3 / 4
	}

	c := &Cache[V]{
		cfg:        cfg,
		shards:     make([]shard[V], cfg.Shards),
		shardMask:  uint64(cfg.Shards - 1),
		upper:      upper,
		lower:      lower,
		acceptable: acceptable,
	}
	perShard := cfg.InitialCapacity/cfg.Shards + 1
	for i := range c.shards {
		c.shards[i].m = make(map[string]*entry[V], perShard)
	}

	if cfg.Mode == TriggerWorker {
		c.worker = startReclaimWorker(c)
		// 明示 Close なしで Cache が到達不能になった場合の保険。
		// 保証された停止手段はあくまで Close。
		runtime.AddCleanup(c, func(w *reclaimWorker[V]) { w.shutdown() }, c.worker)
	}

	return c, nil
}

// NewWithSize はサイズのみを指定する簡易コンストラクタです。
// lower ≈ 0.9*size, acceptable ≈ 0.95*size を導出します。
// 0 <= lower < acceptable < size を満たす三つ組は size >= 2 でしか
// 作れないため、それ未満はエラーです。
func NewWithSize[V any](size int, opts ...Option) (*Cache[V], error) {
	if size < 2 {
		return nil, fmt.Errorf("cache: size must be >= 2 to derive watermarks, got %d", size)
	}
	lower := size * 9 / 10
	acceptable := size * 95 / 100
	if acceptable >= size {
		acceptable = size - 1
	}
	if lower >= acceptable {
		lower = acceptable - 1
	}
	if lower < 0 {
		lower = 0
	}
	return New[V](size, lower, acceptable, opts...)
}

// NewWithLowerMark は (size, lowerWaterMark) を指定する簡易コンストラクタです。
// acceptable は両者の中点を取ります。
func NewWithLowerMark[V any](size, lower int, opts ...Option) (*Cache[V], error) {
	acceptable := (size + lower) / 2
	if acceptable <= lower {
		acceptable = lower + 1
	}
	return New[V](size, lower, acceptable, opts...)
}

// OnEvict はエントリ削除ごとに同期的に呼ばれるフックを設定します。
// 稼働中の差し替えも安全で、以後の削除に反映されます。
// フックは削除完了後に呼ばれるため、ストアの状態を壊すことはできません。
func (c *Cache[V]) OnEvict(fn func(key string, value V)) *Cache[V] {
	if fn == nil {
		c.onEvict.Store(nil)
		return c
	}
	c.onEvict.Store(&fn)
	return c
}

// Stats はカウンタ群のスナップショットです。各カウンタは独立に更新され、
// カウンタ間の整合性（hits+misses == アクセス数など）は保証しません。
type Stats struct {
	Size      int64
	Hits      int64
	Misses    int64
	Puts      int64
	Evictions int64
}

// Stats は統計のスナップショットを返します。
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Size:      c.size.Load(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Puts:      c.puts.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Len は現在のエントリ数を返します。
func (c *Cache[V]) Len() int {
	return int(c.size.Load())
}

// Close はバックグラウンドワーカーを停止します。複数回呼んでも安全です。
// 進行中の sweep は中断しません。
func (c *Cache[V]) Close() {
	if c.worker == nil {
		return
	}
	c.worker.shutdown()
	<-c.worker.done
}

// isNil は V がポインタ等の nil 相当値かどうかを判定します。
// put は nil 値を no-op として弾くため。
func isNil[V any](v V) bool {
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

const maxTimestamp = int64(math.MaxInt64)

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

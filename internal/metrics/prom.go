package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prom は Prometheus を使ったメトリクス実装です。
type Prom struct {
	putNew    prometheus.Counter
	putUpdate prometheus.Counter
	getHit    prometheus.Counter
	getMiss   prometheus.Counter
	evicted   prometheus.Counter
	sweepRuns prometheus.Counter
	cacheSize prometheus.Gauge
}

// NewProm は Prometheus を使ったメトリクス実装を初期化します。
func NewProm(namespace string) *Prom {
	makeC := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	p := &Prom{
		putNew:    makeC("put_new_total", "Number of new keys put"),
		putUpdate: makeC("put_update_total", "Number of keys overwritten"),
		getHit:    makeC("get_hit_total", "Number of cache hits"),
		getMiss:   makeC("get_miss_total", "Number of cache misses"),
		evicted:   makeC("evicted_total", "Number of evicted entries"),
		sweepRuns: makeC("sweep_runs_total", "Number of mark-and-sweep passes"),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_size",
			Help:      "Current number of cached entries",
		}),
	}

	// Register (重複登録は MustRegister で panic するため、利用側で 1 回だけ呼ぶ設計)
	prometheus.MustRegister(
		p.putNew, p.putUpdate, p.getHit, p.getMiss, p.evicted, p.sweepRuns, p.cacheSize,
	)
	return p
}

// IncPutNew は新しいキーが追加されたことをカウントします。
func (p *Prom) IncPutNew() { p.putNew.Inc() }

// IncPutUpdate は既存のキーが更新されたことをカウントします。
func (p *Prom) IncPutUpdate() { p.putUpdate.Inc() }

// IncGetHit はキャッシュヒットをカウントします。
func (p *Prom) IncGetHit() { p.getHit.Inc() }

// IncGetMiss はキャッシュミスをカウントします。
func (p *Prom) IncGetMiss() { p.getMiss.Inc() }

// AddEvicted は追い出されたエントリの数を加算します。
func (p *Prom) AddEvicted(n int) {
	if n > 0 {
		p.evicted.Add(float64(n))
	}
}

// IncSweepRun は mark-and-sweep の実行回数をカウントします。
func (p *Prom) IncSweepRun() { p.sweepRuns.Inc() }

// SetCacheSize は現在のキャッシュサイズを設定します。
func (p *Prom) SetCacheSize(n int) {
	if n >= 0 {
		p.cacheSize.Set(float64(n))
	}
}

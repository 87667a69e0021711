package cache

import (
	"sync"
	"weak"
)

// reclaimWorker は TriggerWorker モードの常駐ワーカーです。
// 起床要求が来るまで眠り、来たら 1 回 sweep して再び眠ります。
// Cache への参照は weak に持ち、ワーカーがキャッシュの寿命を
// 延ばさないようにします。解決できなくなったらループを抜けます。
type reclaimWorker[V any] struct {
	ref  weak.Pointer[Cache[V]]
	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
	log  logLike
}

func startReclaimWorker[V any](c *Cache[V]) *reclaimWorker[V] {
	w := &reclaimWorker[V]{
		ref:  weak.Make(c),
		wake: make(chan struct{}, 1), // 起床要求は合流させる
		stop: make(chan struct{}),
		done: make(chan struct{}),
		log:  c.cfg.Logger,
	}
	go w.loop()
	return w
}

func (w *reclaimWorker[V]) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.wake:
		}
		select {
		case <-w.stop:
			return
		default:
		}
		c := w.ref.Value()
		if c == nil {
			// キャッシュは回収済み。残っても仕事はない。
			return
		}
		w.sweep(c)
	}
}

// sweep は panic をワーカーのループまで波及させません。
func (w *reclaimWorker[V]) sweep(c *Cache[V]) {
	defer func() {
		if r := recover(); r != nil {
			if w.log != nil {
				w.log.Error("cache.worker.panic", "panic", r)
			}
		}
	}()
	c.markAndSweep()
}

// wakeUp はワーカーを起床させます。既に起床要求が積まれていれば何もしません。
func (w *reclaimWorker[V]) wakeUp() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// shutdown は停止を通知します。何度呼んでも安全です。
func (w *reclaimWorker[V]) shutdown() {
	w.once.Do(func() { close(w.stop) })
}

package cache

import "container/heap"

// selector は固定容量の有界優先度セレクタです。
// keepLargest=false なら、流し込まれたエントリのうちタイムスタンプの
// 小さい方から maxSize 件だけを常に保持します（sweep と oldest クエリ用）。
// keepLargest=true は逆向きで newest クエリ用です。
// ヒープの根は保持中で最も「負けやすい」エントリになります。
type selector[V any] struct {
	maxSize     int
	keepLargest bool
	items       []*entry[V]
}

func newSelector[V any](maxSize int, keepLargest bool) *selector[V] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &selector[V]{
		maxSize:     maxSize,
		keepLargest: keepLargest,
		items:       make([]*entry[V], 0, maxSize),
	}
}

// outranks は a が b より保持に値するかを返します。
func (q *selector[V]) outranks(a, b int64) bool {
	if q.keepLargest {
		return a > b
	}
	return a < b
}

func (q *selector[V]) Len() int { return len(q.items) }

func (q *selector[V]) Less(i, j int) bool {
	// 根に最弱を置くため比較を反転する
	return q.outranks(q.items[j].tsCopy, q.items[i].tsCopy)
}

func (q *selector[V]) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *selector[V]) Push(x any) { q.items = append(q.items, x.(*entry[V])) }

func (q *selector[V]) Pop() any {
	old := q.items
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return e
}

// insertWithOverflow はエントリを受け入れ、押し出されたエントリを返します。
// 容量未満ならそのまま受け入れて nil を返す。容量一杯なら現在の最弱と比べ、
// 新しいエントリが勝つ場合は最弱を差し替えて返し、負ける場合は
// 新しいエントリ自身を返します。
func (q *selector[V]) insertWithOverflow(e *entry[V]) *entry[V] {
	if len(q.items) < q.maxSize {
		heap.Push(q, e)
		return nil
	}
	if len(q.items) > 0 && q.outranks(e.tsCopy, q.items[0].tsCopy) {
		out := q.items[0]
		q.items[0] = e
		heap.Fix(q, 0)
		return out
	}
	return e
}

// shrink は容量を n へ縮め、押し出したエントリ群を返します。
// 縮小で出ていくのは常に保持中の最弱側です。
func (q *selector[V]) shrink(n int) []*entry[V] {
	if n < 0 {
		n = 0
	}
	q.maxSize = n
	var out []*entry[V]
	for len(q.items) > q.maxSize {
		out = append(out, heap.Pop(q).(*entry[V]))
	}
	return out
}

// pop は最弱のエントリを取り出します。
func (q *selector[V]) pop() *entry[V] {
	return heap.Pop(q).(*entry[V])
}

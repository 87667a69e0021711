package cache

import (
	"math/rand"
	"sort"
	"testing"
)

func mkEntry(ts int64) *entry[string] {
	e := &entry[string]{key: "k", value: "v"}
	e.tsCopy = ts
	return e
}

func heldTimestamps(q *selector[string]) []int64 {
	out := make([]int64, 0, len(q.items))
	for _, e := range q.items {
		out = append(out, e.tsCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestSelector_InsertWithOverflow(t *testing.T) {
	q := newSelector[string](3, false)

	for _, ts := range []int64{50, 20, 40} {
		if out := q.insertWithOverflow(mkEntry(ts)); out != nil {
			t.Fatalf("insert under capacity must not overflow, got ts=%d", out.tsCopy)
		}
	}

	// より古い 10 は入り、保持中の最大 50 が押し出される
	out := q.insertWithOverflow(mkEntry(10))
	if out == nil || out.tsCopy != 50 {
		t.Fatalf("expected 50 to be displaced, got %v", out)
	}

	// より新しい 99 は門前払いされる
	out = q.insertWithOverflow(mkEntry(99))
	if out == nil || out.tsCopy != 99 {
		t.Fatalf("expected 99 to be rejected, got %v", out)
	}

	want := []int64{10, 20, 40}
	got := heldTimestamps(q)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("held=%v want=%v", got, want)
		}
	}
}

func TestSelector_RetainsSmallestOfStream(t *testing.T) {
	const capacity = 8
	const n = 200

	q := newSelector[string](capacity, false)
	r := rand.New(rand.NewSource(42))
	perm := r.Perm(n)
	for _, v := range perm {
		q.insertWithOverflow(mkEntry(int64(v)))
	}

	got := heldTimestamps(q)
	if len(got) != capacity {
		t.Fatalf("expected %d held, got %d", capacity, len(got))
	}
	for i, ts := range got {
		if ts != int64(i) {
			t.Fatalf("expected the %d smallest timestamps, got %v", capacity, got)
		}
	}
}

func TestSelector_Shrink(t *testing.T) {
	q := newSelector[string](5, false)
	for _, ts := range []int64{5, 1, 4, 2, 3} {
		q.insertWithOverflow(mkEntry(ts))
	}

	out := q.shrink(2)
	if len(out) != 3 {
		t.Fatalf("expected 3 forced evictions, got %d", len(out))
	}
	// 縮小で出ていくのは常に最大側
	for _, e := range out {
		if e.tsCopy < 3 {
			t.Fatalf("shrink evicted a small timestamp %d", e.tsCopy)
		}
	}
	got := heldTimestamps(q)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2] held after shrink, got %v", got)
	}

	// 縮小後も新たな挿入は新しい容量に従う
	if out := q.insertWithOverflow(mkEntry(0)); out == nil || out.tsCopy != 2 {
		t.Fatalf("expected 2 displaced after shrink, got %v", out)
	}
}

func TestSelector_KeepLargest(t *testing.T) {
	q := newSelector[string](3, true)
	for _, ts := range []int64{1, 9, 3, 7, 5} {
		q.insertWithOverflow(mkEntry(ts))
	}
	got := heldTimestamps(q)
	want := []int64{5, 7, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("held=%v want=%v", got, want)
		}
	}
	// pop は最弱（ここでは最小）から出てくる
	if e := q.pop(); e.tsCopy != 5 {
		t.Fatalf("expected weakest 5 first, got %d", e.tsCopy)
	}
}

func TestSelector_ZeroCapacityRejectsAll(t *testing.T) {
	q := newSelector[string](0, false)
	if out := q.insertWithOverflow(mkEntry(1)); out == nil || out.tsCopy != 1 {
		t.Fatalf("zero-capacity selector must reject the offered entry")
	}
	if q.Len() != 0 {
		t.Fatalf("zero-capacity selector must hold nothing")
	}
}

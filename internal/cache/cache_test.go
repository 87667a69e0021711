package cache

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

func newTestCache(t *testing.T, upper, lower, acceptable int, opts ...Option) *Cache[string] {
	t.Helper()
	opts = append([]Option{WithTriggerMode(TriggerInline)}, opts...)
	c, err := New[string](upper, lower, acceptable, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestCache_PutGetEvict(t *testing.T) {
	c := newTestCache(t, 100, 50, 70)

	c.Put("foo", "bar")
	if v, ok := c.Get("foo"); !ok || v != "bar" {
		t.Fatalf("expected bar, got %v", v)
	}

	if _, ok := c.Get("baz"); ok {
		t.Fatalf("expected baz to not exist")
	}

	if !c.Evict("foo") {
		t.Fatalf("expected foo to be evicted")
	}
	if _, ok := c.Get("foo"); ok {
		t.Fatalf("expected foo to be gone")
	}
	if c.Evict("foo") {
		t.Fatalf("second evict should report absent")
	}
}

func TestCache_OverwriteDoesNotGrowSize(t *testing.T) {
	c := newTestCache(t, 100, 50, 70)

	prev, existed := c.Put("k", "v1")
	if existed || prev != "" {
		t.Fatalf("first put should not report previous value")
	}
	prev, existed = c.Put("k", "v2")
	if !existed || prev != "v1" {
		t.Fatalf("overwrite should return previous value, got %q existed=%v", prev, existed)
	}
	if l := c.Len(); l != 1 {
		t.Fatalf("overwrite must not grow size, got %d", l)
	}
	if v, _ := c.Get("k"); v != "v2" {
		t.Fatalf("expected v2, got %q", v)
	}
}

func TestCache_NilValueIsNoop(t *testing.T) {
	c, err := New[*int](100, 50, 70, WithTriggerMode(TriggerInline))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put("k", nil)
	if c.Len() != 0 {
		t.Fatalf("nil value must not be stored")
	}
	if st := c.Stats(); st.Puts != 0 {
		t.Fatalf("nil put must not count, got %d", st.Puts)
	}
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(t, 100, 50, 70)
	for i := 0; i < 10; i++ {
		c.Put("k"+strconv.Itoa(i), "v")
	}
	c.Clear()
	if l := c.Len(); l != 0 {
		t.Fatalf("expected empty cache, got %d", l)
	}
	if _, ok := c.Get("k3"); ok {
		t.Fatalf("expected k3 to be gone")
	}
	// Clear はエビクション扱いにしない
	if st := c.Stats(); st.Evictions != 0 {
		t.Fatalf("clear must not count evictions, got %d", st.Evictions)
	}
}

func TestCache_Stats(t *testing.T) {
	c := newTestCache(t, 100, 50, 70)

	c.Put("a", "1")
	c.Put("a", "2")
	c.Put("b", "3")
	_, _ = c.Get("a")
	_, _ = c.Get("missing")
	c.Evict("b")

	st := c.Stats()
	if st.Size != 1 {
		t.Fatalf("Size want 1 got %d", st.Size)
	}
	if st.Puts != 3 {
		t.Fatalf("Puts want 3 got %d", st.Puts)
	}
	if st.Hits != 1 {
		t.Fatalf("Hits want 1 got %d", st.Hits)
	}
	if st.Misses != 1 {
		t.Fatalf("Misses want 1 got %d", st.Misses)
	}
	if st.Evictions != 1 {
		t.Fatalf("Evictions want 1 got %d", st.Evictions)
	}
}

func TestCache_Validation(t *testing.T) {
	cases := []struct {
		name                      string
		upper, lower, acceptable int
	}{
		{"zero upper", 0, 0, 0},
		{"negative lower", 10, -1, 5},
		{"lower >= upper", 10, 10, 10},
		{"acceptable <= lower", 10, 5, 5},
		{"acceptable >= upper", 10, 5, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New[string](tc.upper, tc.lower, tc.acceptable); err == nil {
				t.Fatalf("expected construction error for (%d,%d,%d)", tc.upper, tc.lower, tc.acceptable)
			}
		})
	}

	if _, err := New[string](10, 5, 7, WithTriggerMode(TriggerInline)); err != nil {
		t.Fatalf("valid watermarks rejected: %v", err)
	}
}

func TestCache_ConvenienceConstructors(t *testing.T) {
	c, err := NewWithSize[string](100, WithTriggerMode(TriggerInline))
	if err != nil {
		t.Fatalf("NewWithSize: %v", err)
	}
	if c.upper != 100 || c.lower != 90 || c.acceptable != 95 {
		t.Fatalf("derived marks wrong: upper=%d lower=%d acceptable=%d", c.upper, c.lower, c.acceptable)
	}

	c2, err := NewWithLowerMark[string](100, 60, WithTriggerMode(TriggerInline))
	if err != nil {
		t.Fatalf("NewWithLowerMark: %v", err)
	}
	if c2.acceptable != 80 {
		t.Fatalf("midpoint acceptable wrong: %d", c2.acceptable)
	}

	// 小さいサイズでも導出値が妥当に補正される
	for _, size := range []int{2, 3, 4} {
		c, err := NewWithSize[string](size, WithTriggerMode(TriggerInline))
		if err != nil {
			t.Fatalf("NewWithSize(%d): %v", size, err)
		}
		if c.lower < 0 || c.lower >= c.acceptable || c.acceptable >= c.upper {
			t.Fatalf("NewWithSize(%d) derived invalid marks: lower=%d acceptable=%d upper=%d",
				size, c.lower, c.acceptable, c.upper)
		}
	}

	// 有効な三つ組が存在しないサイズは明示的に拒否される
	for _, size := range []int{1, 0, -1} {
		if _, err := NewWithSize[string](size); err == nil {
			t.Fatalf("NewWithSize(%d) should fail", size)
		}
	}
}

// フックの登録は sweep を起こしている put 群と並行しても安全で、
// 登録後の削除には必ず反映される。
func TestCache_OnEvictConcurrentSet(t *testing.T) {
	c := newTestCache(t, 50, 20, 30)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c.Put("k"+strconv.Itoa(i), "v")
		}
	}()

	var n atomic.Int64
	for i := 0; i < 100; i++ {
		c.OnEvict(func(string, string) { n.Add(1) })
	}
	<-done

	c.Put("last", "v")
	before := n.Load()
	if !c.Evict("last") {
		t.Fatalf("expected last to be evictable")
	}
	if n.Load() != before+1 {
		t.Fatalf("hook registered concurrently was not invoked afterwards")
	}
}

func TestCache_Concurrency(t *testing.T) {
	c := newTestCache(t, 10_000, 5_000, 7_000)
	const n = 1000
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := "k" + strconv.Itoa(i)
			c.Put(k, "v")
			if _, ok := c.Get(k); !ok {
				t.Errorf("missing key %s", k)
			}
			c.Evict(k)
		}(i)
	}
	wg.Wait()

	if l := c.Len(); l != 0 {
		t.Fatalf("expected len=0 got %d", l)
	}
}

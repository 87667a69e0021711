package cache

import (
	"fmt"
	"testing"
)

func fillSequential(t *testing.T, c *Cache[string], n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		c.Put(fmt.Sprintf("k%03d", i), fmt.Sprintf("v%03d", i))
	}
}

func TestSnapshot_OldestAccessed(t *testing.T) {
	c := newTestCache(t, 1000, 500, 700)
	fillSequential(t, c, 10)

	items := c.OldestAccessed(3)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, it := range items {
		want := fmt.Sprintf("k%03d", i)
		if it.Key != want {
			t.Fatalf("items[%d]=%s, want %s", i, it.Key, want)
		}
	}
}

func TestSnapshot_NewestAccessed(t *testing.T) {
	c := newTestCache(t, 1000, 500, 700)
	fillSequential(t, c, 10)

	// k002 を触って最新にする
	_, _ = c.Get("k002")

	items := c.NewestAccessed(3)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	wants := []string{"k002", "k009", "k008"}
	for i, it := range items {
		if it.Key != wants[i] {
			t.Fatalf("items[%d]=%s, want %s", i, it.Key, wants[i])
		}
	}
}

func TestSnapshot_Bounds(t *testing.T) {
	c := newTestCache(t, 1000, 500, 700)
	fillSequential(t, c, 5)

	if items := c.OldestAccessed(0); len(items) != 0 {
		t.Fatalf("n=0 must return empty, got %d", len(items))
	}
	if items := c.NewestAccessed(-3); len(items) != 0 {
		t.Fatalf("negative n must return empty, got %d", len(items))
	}
	// n がサイズを超える場合は全件
	if items := c.OldestAccessed(100); len(items) != 5 {
		t.Fatalf("expected min(n, size)=5, got %d", len(items))
	}
}

// n == size のとき、oldest と newest は互いの逆順で同じ全集合を返す。
func TestSnapshot_Complementary(t *testing.T) {
	c := newTestCache(t, 1000, 500, 700)
	fillSequential(t, c, 8)

	oldest := c.OldestAccessed(8)
	newest := c.NewestAccessed(8)
	if len(oldest) != 8 || len(newest) != 8 {
		t.Fatalf("expected full snapshots, got %d and %d", len(oldest), len(newest))
	}
	for i := range oldest {
		if oldest[i].Key != newest[len(newest)-1-i].Key {
			t.Fatalf("oldest and newest are not mirror images: %v vs %v", oldest, newest)
		}
	}
}

// スナップショットは値も一緒に返す。
func TestSnapshot_CarriesValues(t *testing.T) {
	c := newTestCache(t, 1000, 500, 700)
	fillSequential(t, c, 4)

	for _, it := range c.OldestAccessed(4) {
		want := "v" + it.Key[1:]
		if it.Value != want {
			t.Fatalf("key %s carries %q, want %q", it.Key, it.Value, want)
		}
	}
}

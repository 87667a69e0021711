// Package objcache は「型名 + ID」の複合キーでオブジェクトを扱う
// キャッシュの便宜レイヤです。コア（internal/cache）は型を知らない
// 文字列キーのストアのままにし、型/ID の合成と型ごとのキー索引は
// このアダプタが持ちます。
package objcache

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/amakane-hakari/suimon/internal/cache"
)

// EvictionListener はエントリが追い出されるたびに 1 回ずつ呼ばれます。
// 呼び出し時点でエントリは既にストアから消えています。
type EvictionListener interface {
	OnEviction(typeName, key string)
}

// Loader はキャッシュミス時にバッキングストアから値を取り出す契約です。
type Loader interface {
	Load(ctx context.Context, id string) (any, error)
}

// LoaderFunc は関数を Loader として使うためのアダプタです。
type LoaderFunc func(ctx context.Context, id string) (any, error)

// Load は f(ctx, id) を呼び出します。
func (f LoaderFunc) Load(ctx context.Context, id string) (any, error) { return f(ctx, id) }

// Store は型付きの便宜レイヤ本体です。
type Store struct {
	c *cache.Cache[any]

	mu       sync.Mutex
	keys     map[string]map[string]struct{} // 型名 -> 複合キー集合
	listener EvictionListener

	// 同一キーの同時ロードを 1 回に合流させる
	sf singleflight.Group
}

// New はサイズ指定の簡易コンストラクタでコアを作って包みます。
func New(size int, opts ...cache.Option) (*Store, error) {
	c, err := cache.NewWithSize[any](size, opts...)
	if err != nil {
		return nil, err
	}
	return Wrap(c), nil
}

// Wrap は既存のコアキャッシュを包みます。コアのエビクションフックを
// 奪うため、他のフックと併用はできません。
func Wrap(c *cache.Cache[any]) *Store {
	s := &Store{
		c:    c,
		keys: make(map[string]map[string]struct{}),
	}
	c.OnEvict(s.onEvict)
	return s
}

// onEvict はコアからの削除通知で型索引を掃除し、リスナーへ転送します。
// 型名が引けないキーは索引の掃除だけを諦める（削除自体は完了している）。
func (s *Store) onEvict(key string, value any) {
	var l EvictionListener
	s.mu.Lock()
	if i := strings.IndexByte(key, ':'); i > 0 {
		tn := key[:i]
		if set, ok := s.keys[tn]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(s.keys, tn)
			}
		}
	}
	l = s.listener
	s.mu.Unlock()

	if l != nil {
		l.OnEviction(TypeName(value), key)
	}
}

// SetEvictionListener はエビクションリスナーを設定します。
func (s *Store) SetEvictionListener(l EvictionListener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Cache は entity を「型名:id」キーで格納し、型索引に登録します。
// nil の entity は no-op です。
func (s *Store) Cache(entity any, id string) {
	if entity == nil {
		return
	}
	s.put(TypeName(entity), id, entity)
}

func (s *Store) put(typeName, id string, entity any) {
	key := Key(typeName, id)
	s.c.Put(key, entity)

	s.mu.Lock()
	set := s.keys[typeName]
	if set == nil {
		set = make(map[string]struct{})
		s.keys[typeName] = set
	}
	set[key] = struct{}{}
	s.mu.Unlock()
}

// Get は型 T と id からキーを導出して値を取得します。
func Get[T any](s *Store, id string) (T, bool) {
	v, ok := s.c.Get(Key(typeNameFor[T](), id))
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Evict は型 T と id からキーを導出して無条件に削除します。
func Evict[T any](s *Store, id string) bool {
	return s.c.Evict(Key(typeNameFor[T](), id))
}

// EvictAll は型 T で登録された全エントリを削除し、型索引を空にします。
func EvictAll[T any](s *Store) {
	s.EvictTypeName(typeNameFor[T]())
}

// EvictTypeName は型名で登録された全エントリを削除します。
func (s *Store) EvictTypeName(typeName string) {
	s.mu.Lock()
	set := s.keys[typeName]
	delete(s.keys, typeName)
	ks := make([]string, 0, len(set))
	for k := range set {
		ks = append(ks, k)
	}
	s.mu.Unlock()

	for _, k := range ks {
		s.c.Evict(k)
	}
}

// GetOrLoad はミス時に loader で値を取り寄せて格納します。
// 同一キーへの同時ロードは singleflight で 1 回に合流します。
func (s *Store) GetOrLoad(ctx context.Context, typeName, id string, loader Loader) (any, error) {
	key := Key(typeName, id)
	if v, ok := s.c.Get(key); ok {
		return v, nil
	}
	v, err, _ := s.sf.Do(key, func() (any, error) {
		// 合流待ちの間に他の goroutine が載せているかもしれない
		if v, ok := s.c.Get(key); ok {
			return v, nil
		}
		v, err := loader.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if v != nil {
			s.put(typeName, id, v)
		}
		return v, nil
	})
	return v, err
}

// Len は現在のエントリ数を返します。
func (s *Store) Len() int { return s.c.Len() }

// Stats はコアの統計スナップショットを返します。
func (s *Store) Stats() cache.Stats { return s.c.Stats() }

// Clear は全エントリと型索引を破棄します。
func (s *Store) Clear() {
	s.c.Clear()
	s.mu.Lock()
	s.keys = make(map[string]map[string]struct{})
	s.mu.Unlock()
}

// Close はコアのバックグラウンドワーカーを停止します。
func (s *Store) Close() { s.c.Close() }

// Key は複合キー「型名:id」を組み立てます。
func Key(typeName, id string) string {
	return typeName + ":" + id
}

// TypeName は値の完全修飾型名を返します。ポインタは要素型まで辿ります。
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	return nameOf(t)
}

func typeNameFor[T any]() string {
	return nameOf(reflect.TypeOf((*T)(nil)).Elem())
}

func nameOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

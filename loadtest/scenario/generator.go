package scenario

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// Generator は GET/PUT 混合のターゲットを生成します。
// キー空間をキャッシュサイズより広く取ることで、PUT が
// ウォーターマーク越えの回収を誘発するシナリオになります。
type Generator struct {
	BaseURL   string
	Keys      int
	ReadRatio float64
	ValueSize int
	ReadOnly  bool

	rnd *rand.Rand
	mu  sync.Mutex
	buf []byte
}

// NewGenerator は 指定されたパラメータに基づいて新しい Generator を作成します。
func NewGenerator(base string, keys int, readRatio float64, valueSize int, readOnly bool) *Generator {
	src := rand.NewSource(time.Now().UnixNano())
	return &Generator{
		BaseURL:   base,
		Keys:      keys,
		ReadRatio: clamp(readRatio, 0, 1),
		ValueSize: valueSize,
		ReadOnly:  readOnly,
		rnd:       rand.New(src),
		buf:       make([]byte, valueSize),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Targeter は vegeta.Targeter を実装し、負荷試験のターゲットを生成します。
func (g *Generator) Targeter() vegeta.Targeter {
	return func(t *vegeta.Target) error {
		g.mu.Lock()
		defer g.mu.Unlock()

		key := fmt.Sprintf("k%07d", g.rnd.Intn(g.Keys))

		isGet := g.ReadOnly || g.rnd.Float64() < g.ReadRatio
		if isGet {
			t.Method = "GET"
			t.URL = fmt.Sprintf("%s/cache/%s", g.BaseURL, key)
			t.Body = nil
			t.Header = nil
			return nil
		}

		fillRandomLetters(g.rnd, g.buf)
		b, err := json.Marshal(map[string]any{"value": string(g.buf)})
		if err != nil {
			return err
		}
		t.Method = "PUT"
		t.URL = fmt.Sprintf("%s/cache/%s", g.BaseURL, key)
		t.Body = b
		if t.Header == nil {
			t.Header = make(map[string][]string, 1)
		}
		t.Header["Content-Type"] = []string{"application/json"}
		return nil
	}
}

func fillRandomLetters(r *rand.Rand, buf []byte) {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	for i := range buf {
		buf[i] = letters[r.Intn(len(letters))]
	}
}

package http

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amakane-hakari/suimon/internal/cache"
	ilog "github.com/amakane-hakari/suimon/internal/log"
)

// NewRouter はキャッシュ API のルータを組み立てます。
func NewRouter(c *cache.Cache[string], l ilog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(RecoverMiddleware(l))
	r.Use(AccessLog(l))

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h := &cacheHandler{c: c}
	h.mount(r)

	return r
}

var draining atomic.Bool

// SetDraining はドレイニング状態を設定します。
func SetDraining(v bool) {
	draining.Store(v)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"draining"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amakane-hakari/suimon/internal/cache"
)

type cacheHandler struct {
	c *cache.Cache[string]
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, err)
		}
	}
}

func (h *cacheHandler) mount(r chi.Router) {
	r.Route("/cache", func(r chi.Router) {
		r.Get("/_oldest", wrap(h.oldest))
		r.Get("/_newest", wrap(h.newest))
		r.Put("/{key}", wrap(h.put))
		r.Get("/{key}", wrap(h.get))
		r.Delete("/{key}", wrap(h.del))
	})
	r.Get("/stats", wrap(h.stats))
}

type valueRequest struct {
	Value string `json:"value"`
}

type valueDTO struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

type statsDTO struct {
	Size      int64 `json:"size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Puts      int64 `json:"puts"`
	Evictions int64 `json:"evictions"`
}

func (h *cacheHandler) put(w http.ResponseWriter, r *http.Request) error {
	key := chi.URLParam(r, "key")
	if key == "" {
		return BadRequest("empty key")
	}
	var req valueRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}
	h.c.Put(key, req.Value)
	writeSuccess(w, http.StatusOK, valueDTO{Key: key, Value: req.Value})
	return nil
}

func (h *cacheHandler) get(w http.ResponseWriter, r *http.Request) error {
	key := chi.URLParam(r, "key")
	if key == "" {
		return BadRequest("empty key")
	}
	v, ok := h.c.Get(key)
	if !ok {
		return NotFound("key not found")
	}
	writeSuccess(w, http.StatusOK, valueDTO{Key: key, Value: v})
	return nil
}

func (h *cacheHandler) del(w http.ResponseWriter, r *http.Request) error {
	key := chi.URLParam(r, "key")
	if key == "" {
		return BadRequest("empty key")
	}
	if !h.c.Evict(key) {
		return NotFound("key not found")
	}
	writeSuccess(w, http.StatusOK, valueDTO{Key: key})
	return nil
}

func (h *cacheHandler) stats(w http.ResponseWriter, _ *http.Request) error {
	st := h.c.Stats()
	writeSuccess(w, http.StatusOK, statsDTO{
		Size:      st.Size,
		Hits:      st.Hits,
		Misses:    st.Misses,
		Puts:      st.Puts,
		Evictions: st.Evictions,
	})
	return nil
}

func (h *cacheHandler) oldest(w http.ResponseWriter, r *http.Request) error {
	n, err := parseN(r)
	if err != nil {
		return err
	}
	writeSuccess(w, http.StatusOK, toDTOs(h.c.OldestAccessed(n)))
	return nil
}

func (h *cacheHandler) newest(w http.ResponseWriter, r *http.Request) error {
	n, err := parseN(r)
	if err != nil {
		return err
	}
	writeSuccess(w, http.StatusOK, toDTOs(h.c.NewestAccessed(n)))
	return nil
}

func parseN(r *http.Request) (int, error) {
	q := r.URL.Query().Get("n")
	if q == "" {
		return 10, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return 0, BadRequest("n must be an integer")
	}
	return n, nil
}

func toDTOs(items []cache.Item[string]) []valueDTO {
	res := make([]valueDTO, 0, len(items))
	for _, it := range items {
		res = append(res, valueDTO{Key: it.Key, Value: it.Value})
	}
	return res
}

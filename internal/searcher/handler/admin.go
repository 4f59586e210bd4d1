package handler

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/logger"
)

// Rebuild serves POST /api/v1/index/rebuild and blocks until the build is
// done.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Engine.Rebuild(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("manual rebuild failed", "error", err)
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.deps.Engine.Stats())
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.deps.Engine.Stats())
}

// CategoryBreakdown serves GET /api/v1/stats/categories?start=&end= with
// RFC3339 bounds; either may be omitted.
func (h *Handler) CategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	start, err := parseTime(r.URL.Query().Get("start"), "start")
	if err != nil {
		h.writeErr(w, err)
		return
	}
	end, err := parseTime(r.URL.Query().Get("end"), "end")
	if err != nil {
		h.writeErr(w, err)
		return
	}
	b, err := h.deps.Stats.CategoryBreakdown(r.Context(), start, end)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

// DailyCounts serves GET /api/v1/stats/daily?date=YYYY-MM-DD, defaulting to
// today.
func (h *Handler) DailyCounts(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	dc, err := h.deps.Stats.DailyCounts(r.Context(), day)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dc)
}

func (h *Handler) Streak(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Stats.CurrentStreak(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	list := h.deps.Stats.CacheStats()
	var hits, misses int64
	for _, s := range list {
		hits += s.Hits
		misses += s.Misses
	}
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"caches":   list,
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Stats.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

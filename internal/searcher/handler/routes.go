package handler

import (
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/health"
)

// Routes builds the API mux. The caller adds the middleware chain.
//
// Route table:
//
//	GET    /api/v1/search                search the index
//	GET    /api/v1/suggestions           term completion
//	POST   /api/v1/filter                apply a Filter
//	GET    /api/v1/history               recent filter queries
//	DELETE /api/v1/history               clear history
//	POST   /api/v1/filters               save a named filter
//	GET    /api/v1/filters               list named filters
//	GET    /api/v1/filters/{id}          get a named filter
//	DELETE /api/v1/filters/{id}          delete a named filter
//	POST   /api/v1/filters/{id}/apply    apply a named filter
//	GET    /api/v1/records/{id}          get a record
//	PUT    /api/v1/records/{id}          create or replace a record
//	DELETE /api/v1/records/{id}          delete a record
//	POST   /api/v1/index/rebuild         full rebuild now
//	GET    /api/v1/index/stats           snapshot size and age
//	GET    /api/v1/stats/categories      category breakdown
//	GET    /api/v1/stats/daily           records per kind for a day
//	GET    /api/v1/stats/streak          current daily streak
//	GET    /api/v1/cache/stats           aggregate cache hit rates
//	POST   /api/v1/cache/invalidate      drop cached aggregates
//	GET    /api/v1/analytics             search analytics
//	GET    /health/live, /health/ready   probes
func Routes(h *Handler, analyticsH *analytics.Handler, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggestions", h.Suggestions)
	mux.HandleFunc("POST /api/v1/filter", h.Filter)

	mux.HandleFunc("GET /api/v1/history", h.History)
	mux.HandleFunc("DELETE /api/v1/history", h.ClearHistory)

	mux.HandleFunc("POST /api/v1/filters", h.SaveFilter)
	mux.HandleFunc("GET /api/v1/filters", h.ListFilters)
	mux.HandleFunc("GET /api/v1/filters/{id}", h.GetFilter)
	mux.HandleFunc("DELETE /api/v1/filters/{id}", h.DeleteFilter)
	mux.HandleFunc("POST /api/v1/filters/{id}/apply", h.ApplyFilter)

	mux.HandleFunc("GET /api/v1/records/{id}", h.GetRecord)
	mux.HandleFunc("PUT /api/v1/records/{id}", h.PutRecord)
	mux.HandleFunc("DELETE /api/v1/records/{id}", h.DeleteRecord)

	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)

	mux.HandleFunc("GET /api/v1/stats/categories", h.CategoryBreakdown)
	mux.HandleFunc("GET /api/v1/stats/daily", h.DailyCounts)
	mux.HandleFunc("GET /api/v1/stats/streak", h.Streak)

	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)

	if analyticsH != nil {
		mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	}
	if checker != nil {
		mux.HandleFunc("GET /health/live", checker.LiveHandler())
		mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	}
	return mux
}

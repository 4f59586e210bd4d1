// Package handler exposes the search engine, the filter composer and their
// supporting services over HTTP/JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/history"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/tracing"
)

const maxBodyBytes = 1 << 20

// Engine is the part of *indexer.Engine the handler uses.
type Engine interface {
	SearchWith(ctx context.Context, q indexer.Query) (indexer.Result, error)
	Suggestions(ctx context.Context, prefix string, limit int) ([]string, error)
	Rebuild(ctx context.Context) error
	Update(r record.Record)
	Remove(id string)
	Stats() indexer.Stats
}

// Composer is the part of *filter.Composer the handler uses.
type Composer interface {
	Apply(ctx context.Context, f filter.Filter) (filter.Result, error)
}

// Deps are the services behind the API. Changes and Tracker may be nil.
type Deps struct {
	Engine   Engine
	Composer Composer
	Filters  *filter.NamedFilters
	History  history.Log
	Records  record.Store
	Stats    *stats.Service
	// Changes receives record change events so other instances can
	// update their index.
	Changes kafka.Publisher
	Tracker analytics.Tracker
}

type Handler struct {
	deps         Deps
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(deps Deps, cfg config.SearchConfig) *Handler {
	if deps.Tracker == nil {
		deps.Tracker = analytics.Discard{}
	}
	return &Handler{
		deps:         deps,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search serves GET /api/v1/search?q=&limit=&fuzzy=&fields=&case_sensitive=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	query := params.Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, err := h.limit(params.Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := filter.SearchOptions{Fields: filter.FieldsAll, Fuzzy: true}
	if v := params.Get("fields"); v != "" {
		opts.Fields = filter.FieldScope(v)
	}
	if v := params.Get("fuzzy"); v != "" {
		if opts.Fuzzy, err = strconv.ParseBool(v); err != nil {
			h.writeError(w, http.StatusBadRequest, "fuzzy must be a boolean")
			return
		}
	}
	if v := params.Get("case_sensitive"); v != "" {
		if opts.CaseSensitive, err = strconv.ParseBool(v); err != nil {
			h.writeError(w, http.StatusBadRequest, "case_sensitive must be a boolean")
			return
		}
	}
	candidate := filter.Filter{Options: opts}
	if err := candidate.Validate(); err != nil {
		h.writeErr(w, err)
		return
	}

	res, err := h.deps.Engine.SearchWith(ctx, indexer.Query{
		Text:          query,
		Limit:         limit,
		Fields:        opts.Fields.IndexFields(),
		Fuzzy:         opts.Fuzzy,
		CaseSensitive: opts.CaseSensitive,
	})
	event := analytics.SearchEvent{
		Operation:     analytics.OpSearch,
		Query:         query,
		Terms:         parser.Parse(query).Terms,
		TotalHits:     res.Total,
		Returned:      len(res.Hits),
		LatencyMs:     time.Since(start).Milliseconds(),
		FuzzyFallback: len(res.FuzzyTerms) > 0,
		Failed:        err != nil,
		Timestamp:     time.Now().UTC(),
		RequestID:     middleware.GetRequestID(ctx),
	}
	h.deps.Tracker.Track(event)
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.writeErr(w, err)
		return
	}

	log.Info("search completed",
		"query", query,
		"total_hits", res.Total,
		"returned", len(res.Hits),
		"fuzzy_terms", res.FuzzyTerms,
		"latency_ms", event.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"total_hits":  res.Total,
		"results":     res.Hits,
		"fuzzy_terms": res.FuzzyTerms,
		"took_ms":     res.Took.Milliseconds(),
	})
}

// Suggestions serves GET /api/v1/suggestions?prefix=&limit=.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	prefix := r.URL.Query().Get("prefix")
	limit, err := h.limit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	terms, err := h.deps.Engine.Suggestions(ctx, prefix, limit)
	h.deps.Tracker.Track(analytics.SearchEvent{
		Operation: analytics.OpSuggest,
		Query:     prefix,
		TotalHits: len(terms),
		Returned:  len(terms),
		LatencyMs: time.Since(start).Milliseconds(),
		Failed:    err != nil,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"prefix": prefix, "suggestions": terms})
}

// Filter serves POST /api/v1/filter with a Filter body. Omitted fields keep
// the defaults of filter.New.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	f := filter.New()
	if err := decodeBody(w, r, &f); err != nil {
		h.writeErr(w, err)
		return
	}
	h.applyFilter(w, r, f)
}

func (h *Handler) applyFilter(w http.ResponseWriter, r *http.Request, f filter.Filter) {
	start := time.Now()
	ctx, span := tracing.Start(r.Context(), "http.filter")
	defer span.Finish(ctx)
	if f.Limit == 0 || f.Limit > h.maxResults {
		f.Limit = h.maxResults
	}

	res, err := h.deps.Composer.Apply(ctx, f)
	h.deps.Tracker.Track(analytics.SearchEvent{
		Operation:     analytics.OpFilter,
		Query:         f.Query,
		Terms:         parser.Parse(f.Query).Terms,
		TotalHits:     res.Total,
		Returned:      len(res.Records),
		LatencyMs:     time.Since(start).Milliseconds(),
		FuzzyFallback: len(res.FuzzyTerms) > 0,
		Failed:        err != nil,
		Timestamp:     time.Now().UTC(),
		RequestID:     middleware.GetRequestID(ctx),
	})
	if err != nil {
		logger.FromContext(ctx).Error("filter failed", "query", f.Query, "error", err)
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.History.List(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.History.Clear(r.Context()); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type saveFilterRequest struct {
	Name   string          `json:"name"`
	Filter json.RawMessage `json:"filter"`
}

// SaveFilter serves POST /api/v1/filters.
func (h *Handler) SaveFilter(w http.ResponseWriter, r *http.Request) {
	var req saveFilterRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeErr(w, err)
		return
	}
	f := filter.New()
	if len(req.Filter) > 0 {
		if err := json.Unmarshal(req.Filter, &f); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid filter: "+err.Error())
			return
		}
	}
	nf, err := h.deps.Filters.Save(r.Context(), req.Name, f)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.logger.Info("named filter saved", "filter_id", nf.ID, "name", nf.Name)
	h.writeJSON(w, http.StatusCreated, nf)
}

func (h *Handler) ListFilters(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Filters.List(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"filters": list})
}

func (h *Handler) GetFilter(w http.ResponseWriter, r *http.Request) {
	nf, err := h.deps.Filters.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nf)
}

func (h *Handler) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Filters.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyFilter serves POST /api/v1/filters/{id}/apply.
func (h *Handler) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	f, err := h.deps.Filters.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.applyFilter(w, r, f)
}

func (h *Handler) limit(raw string) (int, error) {
	if raw == "" {
		return h.defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > h.maxResults {
		n = h.maxResults
	}
	return n, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid request body: %v", err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeErr maps err onto a status code. Internal failures are not echoed.
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		message = "internal error"
	}
	h.writeError(w, status, message)
}

func parseTime(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339: %w", name, apperrors.ErrInvalidInput)
	}
	return t, nil
}

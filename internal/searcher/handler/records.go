package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/logger"
)

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.Records.FetchByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// PutRecord serves PUT /api/v1/records/{id}: validate, store, then update
// the local index, drop cached aggregates and announce the change.
func (h *Handler) PutRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var rec record.Record
	if err := decodeBody(w, r, &rec); err != nil {
		h.writeErr(w, err)
		return
	}
	if rec.ID == "" {
		rec.ID = id
	}
	if rec.ID != id {
		h.writeError(w, http.StatusBadRequest, "record id does not match path")
		return
	}
	if err := record.Validate(rec); err != nil {
		var verr *record.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verr.Fields})
			return
		}
		h.writeErr(w, err)
		return
	}
	rec.Timestamp = rec.Timestamp.UTC()

	if err := h.deps.Records.Upsert(ctx, rec); err != nil {
		h.writeErr(w, apperrors.Unavailable("storing record", err))
		return
	}
	h.deps.Engine.Update(rec)
	h.afterChange(ctx, consumer.Upsert(rec))

	logger.FromContext(ctx).Info("record stored", "record_id", rec.ID, "kind", rec.Kind.String())
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := h.deps.Records.Delete(ctx, id); err != nil {
		if !errors.Is(err, apperrors.ErrRecordNotFound) {
			err = apperrors.Unavailable("deleting record", err)
		}
		h.writeErr(w, err)
		return
	}
	h.deps.Engine.Remove(id)
	h.afterChange(ctx, consumer.Delete(id))

	logger.FromContext(ctx).Info("record deleted", "record_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// afterChange runs the best-effort follow-ups of a stored change. Failures
// are logged; the change itself already succeeded.
func (h *Handler) afterChange(ctx context.Context, event kafka.Event) {
	log := logger.FromContext(ctx)
	if h.deps.Stats != nil {
		if err := h.deps.Stats.Invalidate(ctx); err != nil {
			log.Warn("failed to invalidate aggregates", "error", err)
		}
	}
	if h.deps.Changes != nil {
		if err := h.deps.Changes.PublishBatch(ctx, []kafka.Event{event}); err != nil {
			log.Warn("failed to publish record change", "key", event.Key, "error", err)
		}
	}
}

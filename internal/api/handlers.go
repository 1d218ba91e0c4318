// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/dispatch"
	"github.com/recshelf/recshelf/internal/recommend"
)

// RecommendationReader serves persisted recommendation sets. Satisfied by
// *recommend.Engine.
type RecommendationReader interface {
	Recommendations(ctx context.Context, userID, limit int) ([]recommend.Recommendation, error)
}

// EmbeddingReader serves stored vectors. Satisfied by *embedding.Service.
type EmbeddingReader interface {
	Embedding(ctx context.Context, documentID int) ([]float64, bool, error)
}

// JobStatusReader serves dispatcher status records. Satisfied by
// *dispatch.Dispatcher.
type JobStatusReader interface {
	Status(entityID int, kind dispatch.JobKind) (dispatch.StatusRecord, bool)
}

// Pinger verifies storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler implements the operational endpoints.
type Handler struct {
	recommendations RecommendationReader
	embeddings      EmbeddingReader
	jobs            JobStatusReader
	db              Pinger
	logger          zerolog.Logger
}

// NewHandler wires the handler's read-only dependencies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(recs RecommendationReader, embs EmbeddingReader, jobs JobStatusReader, db Pinger, logger zerolog.Logger) *Handler {
	return &Handler{
		recommendations: recs,
		embeddings:      embs,
		jobs:            jobs,
		db:              db,
		logger:          logger.With().Str("component", "api").Logger(),
	}
}

// Health reports process and storage liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		h.logger.Warn().Err(err).Msg("health check database ping failed")
	}

	h.writeJSON(w, code, map[string]string{"status": status})
}

// Recommendations returns a user's persisted ranked set. The optional limit
// query parameter truncates the response.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathInt(w, r, "userID")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	recs, err := h.recommendations.Recommendations(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", userID).Msg("recommendations query failed")
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"user_id":         userID,
		"recommendations": recs,
	})
}

// Embedding returns a document's stored vector, or 404 when none exists.
func (h *Handler) Embedding(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.pathInt(w, r, "documentID")
	if !ok {
		return
	}

	vector, exists, err := h.embeddings.Embedding(r.Context(), documentID)
	if err != nil {
		h.logger.Error().Err(err).Int("document_id", documentID).Msg("embedding query failed")
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if !exists {
		h.writeError(w, http.StatusNotFound, "no embedding stored")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"document_id": documentID,
		"dim":         len(vector),
		"vector":      vector,
	})
}

// JobStatus returns the last known dispatcher record for an (entity, kind).
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	kind := dispatch.JobKind(chi.URLParam(r, "kind"))
	switch kind {
	case dispatch.KindEmbedding, dispatch.KindRecommendation, dispatch.KindSummary:
	default:
		h.writeError(w, http.StatusBadRequest, "unknown job kind")
		return
	}

	entityID, ok := h.pathInt(w, r, "entityID")
	if !ok {
		return
	}

	rec, found := h.jobs.Status(entityID, kind)
	if !found {
		h.writeError(w, http.StatusNotFound, "no job recorded")
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// pathInt parses a positive integer path parameter, writing a 400 on
// failure.
func (h *Handler) pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("response encode failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, map[string]string{"error": msg})
}

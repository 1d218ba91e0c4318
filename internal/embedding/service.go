// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/metrics"
)

// ErrEmbeddingUnavailable is returned by Compute when the document has no
// usable source text. The stored vector is cleared first, so stale
// embeddings never survive a text removal.
var ErrEmbeddingUnavailable = errors.New("embedding: no usable source text")

// VectorStore persists embeddings. Implemented by the database layer.
type VectorStore interface {
	SaveEmbedding(ctx context.Context, documentID int, vector []float64) error
	DeleteEmbedding(ctx context.Context, documentID int) error
	Embedding(ctx context.Context, documentID int) ([]float64, bool, error)
}

// Service computes and serves document embeddings.
type Service struct {
	source     TextSource
	vectorizer *Vectorizer
	store      VectorStore
	logger     zerolog.Logger
}

// NewService creates an embedding service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(source TextSource, vectorizer *Vectorizer, store VectorStore, logger zerolog.Logger) *Service {
	return &Service{
		source:     source,
		vectorizer: vectorizer,
		store:      store,
		logger:     logger.With().Str("component", "embedding").Logger(),
	}
}

// Compute recomputes and overwrites the stored vector for a document. Last
// write wins; recomputing unchanged text stores an identical vector. When
// the document has no usable text the stored vector is cleared and
// ErrEmbeddingUnavailable is returned.
func (s *Service) Compute(ctx context.Context, documentID int) error {
	text, err := s.source.Text(ctx, documentID)
	if err != nil {
		return fmt.Errorf("extract text for document %d: %w", documentID, err)
	}

	vec := s.vectorizer.Vector(text)
	if vec == nil {
		if err := s.store.DeleteEmbedding(ctx, documentID); err != nil {
			return fmt.Errorf("clear embedding for document %d: %w", documentID, err)
		}
		metrics.EmbeddingsUnavailable.Inc()
		s.logger.Debug().Int("document_id", documentID).Msg("no source text, embedding cleared")
		return fmt.Errorf("document %d: %w", documentID, ErrEmbeddingUnavailable)
	}

	if err := s.store.SaveEmbedding(ctx, documentID, vec); err != nil {
		return fmt.Errorf("save embedding for document %d: %w", documentID, err)
	}
	metrics.EmbeddingsComputed.Inc()

	s.logger.Debug().
		Int("document_id", documentID).
		Int("dim", len(vec)).
		Msg("embedding computed")

	return nil
}

// Embedding returns the stored vector for a document and whether one exists.
func (s *Service) Embedding(ctx context.Context, documentID int) ([]float64, bool, error) {
	return s.store.Embedding(ctx, documentID)
}

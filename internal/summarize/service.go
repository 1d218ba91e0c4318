// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package summarize

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/embedding"
)

// SummaryStore persists generated summaries. Implemented by the database
// layer.
type SummaryStore interface {
	SaveSummary(ctx context.Context, documentID int, summary string) error
}

// Service generates and persists document summaries from a text source.
// The source is backed by extracted file content, not document metadata, so
// a summary never feeds back into itself.
type Service struct {
	source     embedding.TextSource
	summarizer *Summarizer
	store      SummaryStore
	logger     zerolog.Logger
}

// NewService creates a summary service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(source embedding.TextSource, summarizer *Summarizer, store SummaryStore, logger zerolog.Logger) *Service {
	return &Service{
		source:     source,
		summarizer: summarizer,
		store:      store,
		logger:     logger.With().Str("component", "summarize").Logger(),
	}
}

// Generate recomputes and persists the summary for a document. A document
// with no source text gets an empty summary; that is not an error.
func (s *Service) Generate(ctx context.Context, documentID int) error {
	text, err := s.source.Text(ctx, documentID)
	if err != nil {
		return fmt.Errorf("extract text for document %d: %w", documentID, err)
	}

	summary := s.summarizer.Summarize(text)
	if err := s.store.SaveSummary(ctx, documentID, summary); err != nil {
		return fmt.Errorf("save summary for document %d: %w", documentID, err)
	}

	s.logger.Debug().
		Int("document_id", documentID).
		Int("summary_runes", len([]rune(summary))).
		Msg("summary generated")

	return nil
}

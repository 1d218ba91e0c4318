// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/dispatch"
	"github.com/recshelf/recshelf/internal/embedding"
	"github.com/recshelf/recshelf/internal/recommend"
	"github.com/recshelf/recshelf/internal/store"
	"github.com/recshelf/recshelf/internal/summarize"
)

// registerHandlers binds the three job kinds to their services.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func registerHandlers(
	dispatcher *dispatch.Dispatcher,
	engine *recommend.Engine,
	embeddingSvc *embedding.Service,
	summarySvc *summarize.Service,
	db *store.DB,
	logger zerolog.Logger,
) {
	dispatcher.Register(dispatch.KindRecommendation, func(ctx context.Context, job dispatch.Job) error {
		return engine.Refresh(ctx, job.EntityID)
	})

	dispatcher.Register(dispatch.KindSummary, func(ctx context.Context, job dispatch.Job) error {
		return summarySvc.Generate(ctx, job.EntityID)
	})

	// A changed vector shifts content scores, so the embedding handler fans
	// out recommendation refreshes to every user who interacted with the
	// document. Fan-out submissions are independently schedulable jobs; a
	// full queue drops the refresh, not the embedding.
	dispatcher.Register(dispatch.KindEmbedding, func(ctx context.Context, job dispatch.Job) error {
		if err := embeddingSvc.Compute(ctx, job.EntityID); err != nil {
			return err
		}

		users, err := db.UsersInteractedWith(ctx, job.EntityID)
		if err != nil {
			return err
		}
		for _, userID := range users {
			if _, err := dispatcher.Submit(dispatch.KindRecommendation, userID); err != nil {
				if errors.Is(err, dispatch.ErrShuttingDown) {
					return nil
				}
				logger.Warn().
					Err(err).
					Int("user_id", userID).
					Int("document_id", job.EntityID).
					Msg("follow-up refresh dropped")
			}
		}
		return nil
	})
}

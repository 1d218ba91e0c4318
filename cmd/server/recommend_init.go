// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package main

import (
	"fmt"

	"github.com/recshelf/recshelf/internal/config"
	"github.com/recshelf/recshelf/internal/logging"
	"github.com/recshelf/recshelf/internal/recommend"
	"github.com/recshelf/recshelf/internal/recommend/scorers"
	"github.com/recshelf/recshelf/internal/store"
)

// buildEngine assembles the hybrid engine: collaborative and content scorers
// plus the popularity fallback, all fed by the store.
func buildEngine(cfg *config.Config, db *store.DB) (*recommend.Engine, error) {
	rc := cfg.Recommend

	cf := scorers.NewCollaborative(scorers.CollaborativeConfig{
		MinOverlap: rc.MinOverlap,
	})
	cb := scorers.NewContentBased(scorers.ContentBasedConfig{
		EmbeddingBoost: rc.EmbeddingBoost,
	})
	pop := scorers.NewPopularity(scorers.PopularityConfig{
		ViewWeight:     rc.ViewWeight,
		DownloadWeight: rc.DownloadWeight,
		RatingWeight:   rc.RatingWeight,
		MaxResults:     rc.TopN,
	})

	engine, err := recommend.NewEngine(&recommend.Config{
		TopN:           rc.TopN,
		CFWeight:       rc.CFWeight,
		CBWeight:       rc.CBWeight,
		LikedThreshold: rc.LikedThreshold,
		BookmarkRating: rc.BookmarkRating,
	}, cf, cb, pop, db, db, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}

// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package recommend implements the hybrid recommendation pipeline: an
// engine that runs a collaborative and a content scorer over an immutable
// snapshot, normalizes and merges their outputs, and atomically replaces
// the user's persisted recommendation set.
//
// The package has no storage imports; the DataProvider and
// RecommendationStore interfaces are implemented by the database layer.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/recshelf/recshelf/internal/metrics"
)

// Engine coordinates the scorers and the combiner for refresh operations.
// It is safe for concurrent use; refreshes for different users may run in
// parallel on separate dispatcher workers.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	combiner *Combiner

	collaborative Scorer
	content       Scorer
	fallback      Scorer

	provider DataProvider
	store    RecommendationStore
}

// NewEngine creates an engine. The collaborative and content scorers drive
// the hybrid ranking; fallback supplies the cold-start popularity list.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, collaborative, content, fallback Scorer, provider DataProvider, store RecommendationStore, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil || store == nil {
		return nil, fmt.Errorf("provider and store are required")
	}

	return &Engine{
		config:        cfg,
		logger:        logger.With().Str("component", "recommend").Logger(),
		combiner:      NewCombiner(cfg.CFWeight, cfg.CBWeight),
		collaborative: collaborative,
		content:       content,
		fallback:      fallback,
		provider:      provider,
		store:         store,
	}, nil
}

// Refresh recomputes and atomically replaces the user's recommendation set.
// It is all-or-nothing: any scorer or load failure aborts before the write,
// leaving the prior set untouched.
func (e *Engine) Refresh(ctx context.Context, userID int) error {
	start := time.Now()
	defer func() {
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	snap, err := e.provider.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	cfList, cbList, err := e.runScorers(ctx, userID, snap)
	if err != nil {
		return err
	}

	ranked, strategy, err := e.rank(ctx, userID, snap, cfList, cbList)
	if err != nil {
		return err
	}

	recs := e.buildRecommendations(userID, ranked, strategy)
	if err := e.store.ReplaceRecommendations(ctx, userID, recs); err != nil {
		return fmt.Errorf("replace recommendations: %w", err)
	}

	metrics.RefreshesByStrategy.WithLabelValues(strategy).Inc()
	e.logger.Debug().
		Int("user_id", userID).
		Str("strategy", strategy).
		Int("count", len(recs)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation refresh complete")

	return nil
}

// runScorers executes the collaborative and content scorers concurrently.
func (e *Engine) runScorers(ctx context.Context, userID int, snap *Snapshot) (cfList, cbList []ScoredDoc, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var scoreErr error
		cfList, scoreErr = e.collaborative.Score(gctx, userID, snap)
		if scoreErr != nil {
			return fmt.Errorf("%s: %w", e.collaborative.Name(), scoreErr)
		}
		return nil
	})

	g.Go(func() error {
		var scoreErr error
		cbList, scoreErr = e.content.Score(gctx, userID, snap)
		if scoreErr != nil {
			return fmt.Errorf("%s: %w", e.content.Name(), scoreErr)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cfList, cbList, nil
}

// rank merges the scorer outputs, or falls back to the popularity list when
// both are empty (cold start is not an error).
func (e *Engine) rank(ctx context.Context, userID int, snap *Snapshot, cfList, cbList []ScoredDoc) ([]ScoredDoc, string, error) {
	if len(cfList) == 0 && len(cbList) == 0 {
		popular, err := e.fallback.Score(ctx, userID, snap)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", e.fallback.Name(), err)
		}
		if len(popular) > e.config.TopN {
			popular = popular[:e.config.TopN]
		}
		return popular, StrategyPopularity, nil
	}

	return e.combiner.Combine(cfList, cbList, snap, e.config.TopN), StrategyHybrid, nil
}

// buildRecommendations converts a ranked list into persistable rows sharing
// one generation timestamp.
func (e *Engine) buildRecommendations(userID int, ranked []ScoredDoc, strategy string) []Recommendation {
	now := time.Now().UTC()
	recs := make([]Recommendation, 0, len(ranked))
	for _, sd := range ranked {
		recs = append(recs, Recommendation{
			UserID:      userID,
			DocumentID:  sd.DocumentID,
			Score:       sd.Score,
			Strategy:    strategy,
			GeneratedAt: now,
		})
	}
	return recs
}

// Recommendations reads back the user's persisted ranked set. A limit of 0
// defaults to the configured top N.
func (e *Engine) Recommendations(ctx context.Context, userID, limit int) ([]Recommendation, error) {
	if limit <= 0 || limit > e.config.TopN {
		limit = e.config.TopN
	}
	return e.store.Recommendations(ctx, userID, limit)
}

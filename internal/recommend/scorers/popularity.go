// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package scorers

import (
	"context"

	"github.com/recshelf/recshelf/internal/recommend"
)

// Popularity ranks approved documents by a weighted composite of view
// count, download count, and average rating, each min-max normalized across
// the approved corpus. It ignores the user and serves as the universal
// cold-start answer for both personalized scorers.
type Popularity struct {
	cfg PopularityConfig
}

// PopularityConfig contains the composite weights. They are renormalized to
// sum to 1 at construction.
type PopularityConfig struct {
	ViewWeight     float64
	DownloadWeight float64
	RatingWeight   float64

	// MaxResults truncates the ranked output.
	MaxResults int
}

// NewPopularity creates a popularity scorer.
func NewPopularity(cfg PopularityConfig) *Popularity {
	if cfg.ViewWeight <= 0 && cfg.DownloadWeight <= 0 && cfg.RatingWeight <= 0 {
		cfg.ViewWeight, cfg.DownloadWeight, cfg.RatingWeight = 0.25, 0.35, 0.4
	}
	total := cfg.ViewWeight + cfg.DownloadWeight + cfg.RatingWeight
	cfg.ViewWeight /= total
	cfg.DownloadWeight /= total
	cfg.RatingWeight /= total

	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	return &Popularity{cfg: cfg}
}

// Name returns the strategy identifier.
func (p *Popularity) Name() string { return "popularity" }

// Score ranks all approved documents; userID is ignored.
func (p *Popularity) Score(ctx context.Context, _ int, snap *recommend.Snapshot) ([]recommend.ScoredDoc, error) {
	approved := make([]recommend.Document, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		if doc.Approved {
			approved = append(approved, doc)
		}
	}
	if len(approved) == 0 {
		return nil, nil
	}

	if cancelled(ctx) {
		return nil, ctx.Err()
	}

	views := normalizeCounter(approved, func(d recommend.Document) float64 { return float64(d.ViewCount) })
	downloads := normalizeCounter(approved, func(d recommend.Document) float64 { return float64(d.DownloadCount) })
	ratings := normalizeCounter(approved, func(d recommend.Document) float64 { return d.AvgRating })

	ranked := make([]recommend.ScoredDoc, 0, len(approved))
	for i, doc := range approved {
		score := p.cfg.ViewWeight*views[i] +
			p.cfg.DownloadWeight*downloads[i] +
			p.cfg.RatingWeight*ratings[i]
		ranked = append(ranked, recommend.ScoredDoc{DocumentID: doc.ID, Score: score})
	}

	ranked = sortRanked(ranked, p.cfg.MaxResults, func(i, j recommend.ScoredDoc) bool {
		return i.DocumentID < j.DocumentID
	})

	return ranked, nil
}

// normalizeCounter min-max normalizes one dimension across the corpus. A
// dimension with no spread contributes 0.5 everywhere.
func normalizeCounter(docs []recommend.Document, value func(recommend.Document) float64) []float64 {
	out := make([]float64, len(docs))
	minV, maxV := value(docs[0]), value(docs[0])
	for _, d := range docs[1:] {
		v := value(d)
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	span := maxV - minV
	for i, d := range docs {
		if span == 0 {
			out[i] = 0.5
			continue
		}
		out[i] = (value(d) - minV) / span
	}
	return out
}

// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package scorers

import (
	"context"
	"strings"

	"github.com/recshelf/recshelf/internal/recommend"
)

// ContentBased implements attribute-based filtering from category overlap
// and embedding similarity.
//
// The user's preferred categories are the union over their liked documents.
// A candidate's base score is the normalized overlap
//
//	|categories(d) ∩ preferred(u)| / |categories(d)|
//
// optionally boosted by cosine similarity between the candidate's embedding
// and the centroid of the liked documents' embeddings, when both exist:
//
//	score = overlap * (1 + boost * max(0, cos))
//
// Liked and unapproved documents are excluded. A user with no liked
// documents yields an empty list; the engine then serves the popularity
// fallback.
type ContentBased struct {
	cfg ContentBasedConfig
}

// ContentBasedConfig contains the content scorer parameters.
type ContentBasedConfig struct {
	// EmbeddingBoost scales the cosine boost. 0 disables the boost.
	EmbeddingBoost float64

	// MaxResults truncates the ranked output.
	MaxResults int
}

// NewContentBased creates a content-based scorer.
func NewContentBased(cfg ContentBasedConfig) *ContentBased {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	return &ContentBased{cfg: cfg}
}

// Name returns the strategy identifier.
func (c *ContentBased) Name() string { return "cb" }

// Score ranks approved candidates by category affinity to the user's liked
// documents.
func (c *ContentBased) Score(ctx context.Context, userID int, snap *recommend.Snapshot) ([]recommend.ScoredDoc, error) {
	liked := snap.Liked(userID)
	if len(liked) == 0 {
		return nil, nil // engine falls back to popularity
	}

	preferred := c.preferredCategories(liked, snap)
	if len(preferred) == 0 {
		return nil, nil
	}

	profile := c.likedCentroid(liked, snap)

	ranked := make([]recommend.ScoredDoc, 0, 16)
	for docID, doc := range snap.Documents {
		if cancelled(ctx) {
			return nil, ctx.Err()
		}

		if !doc.Approved {
			continue
		}
		if _, alreadyLiked := liked[docID]; alreadyLiked {
			continue
		}
		if len(doc.Categories) == 0 {
			continue
		}

		overlap := 0
		for _, cat := range doc.Categories {
			if _, ok := preferred[normalizeCategory(cat)]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		score := float64(overlap) / float64(len(doc.Categories))

		if profile != nil && c.cfg.EmbeddingBoost > 0 {
			if vec, ok := snap.Embeddings[docID]; ok {
				if cos := cosine(vec, profile); cos > 0 {
					score *= 1 + c.cfg.EmbeddingBoost*cos
				}
			}
		}

		ranked = append(ranked, recommend.ScoredDoc{DocumentID: docID, Score: score})
	}

	ranked = sortRanked(ranked, c.cfg.MaxResults, func(i, j recommend.ScoredDoc) bool {
		return i.DocumentID < j.DocumentID
	})

	return ranked, nil
}

// preferredCategories unions the categories of the liked documents.
func (c *ContentBased) preferredCategories(liked map[int]struct{}, snap *recommend.Snapshot) map[string]struct{} {
	preferred := make(map[string]struct{})
	for docID := range liked {
		doc, ok := snap.Documents[docID]
		if !ok {
			continue
		}
		for _, cat := range doc.Categories {
			preferred[normalizeCategory(cat)] = struct{}{}
		}
	}
	return preferred
}

// likedCentroid averages the embeddings of the liked documents that have
// one. Returns nil when none do.
func (c *ContentBased) likedCentroid(liked map[int]struct{}, snap *recommend.Snapshot) []float64 {
	vectors := make([][]float64, 0, len(liked))
	for docID := range liked {
		if vec, ok := snap.Embeddings[docID]; ok && len(vec) > 0 {
			vectors = append(vectors, vec)
		}
	}
	return centroid(vectors)
}

// normalizeCategory folds category names for case-insensitive matching.
func normalizeCategory(cat string) string {
	return strings.ToLower(strings.TrimSpace(cat))
}

// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package scorers implements the scoring strategies behind the hybrid
// recommendation engine.
//
//   - Collaborative: behavior-based ranking from the rating/bookmark graph
//   - ContentBased: attribute-based ranking from categories and embeddings
//   - Popularity: the universal cold-start fallback
//
// Each scorer implements the recommend.Scorer capability and is stateless
// between calls: all inputs come from the snapshot passed to Score.
package scorers

import (
	"context"
	"math"
	"sort"

	"github.com/recshelf/recshelf/internal/recommend"
)

// Interface conformance.
var (
	_ recommend.Scorer = (*Collaborative)(nil)
	_ recommend.Scorer = (*ContentBased)(nil)
	_ recommend.Scorer = (*Popularity)(nil)
)

// jaccard computes |a ∩ b| and |a ∩ b| / |a ∪ b| for two sets.
func jaccard(a, b map[int]struct{}) (intersection int, similarity float64) {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	for id := range small {
		if _, ok := large[id]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0, 0
	}
	return intersection, float64(intersection) / float64(union)
}

// cosine computes cosine similarity between two vectors of equal length.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// centroid averages a set of equal-length vectors. Returns nil when no
// vectors are present.
func centroid(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}

	dim := len(vectors[0])
	out := make([]float64, dim)
	count := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i := range v {
			out[i] += v[i]
		}
		count++
	}

	if count == 0 {
		return nil
	}
	for i := range out {
		out[i] /= float64(count)
	}
	return out
}

// sortRanked orders a list by descending score with a deterministic
// per-scorer tie-break, then truncates to max.
func sortRanked(list []recommend.ScoredDoc, max int, tieBreak func(i, j recommend.ScoredDoc) bool) []recommend.ScoredDoc {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return tieBreak(list[i], list[j])
	})

	if max > 0 && len(list) > max {
		list = list[:max]
	}
	return list
}

// cancelled checks whether the context has been cancelled.
func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

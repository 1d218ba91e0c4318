// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package scorers

import (
	"context"
	"math"
	"testing"

	"github.com/recshelf/recshelf/internal/recommend"
)

func TestContentBasedCategoryOverlap(t *testing.T) {
	// U likes P1={AI} and P2={AI, NLP}; preferred = {AI, NLP}. Candidates
	// tagged AI or NLP are recommended, excluding P1 and P2.
	docs := []recommend.Document{
		approvedDoc(1, "AI"),
		approvedDoc(2, "AI", "NLP"),
		approvedDoc(3, "AI", "NLP"),     // full overlap: 2/2
		approvedDoc(4, "NLP", "Search"), // partial: 1/2
		approvedDoc(5, "Databases"),     // none
	}
	interactions := []recommend.Interaction{
		rating(1, 1, 5),
		rating(1, 2, 4),
	}

	cb := NewContentBased(ContentBasedConfig{})
	got, err := cb.Score(context.Background(), 1, snapshot(docs, interactions))
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected documents 3 and 4, got %v", got)
	}
	if got[0].DocumentID != 3 {
		t.Errorf("expected full-overlap document 3 first, got %d", got[0].DocumentID)
	}
	if math.Abs(got[0].Score-1.0) > 1e-9 {
		t.Errorf("full overlap score = %v, want 1.0", got[0].Score)
	}
	if got[1].DocumentID != 4 || math.Abs(got[1].Score-0.5) > 1e-9 {
		t.Errorf("partial overlap = %v, want doc 4 at 0.5", got[1])
	}
}

func TestContentBasedCaseInsensitiveCategories(t *testing.T) {
	docs := []recommend.Document{
		approvedDoc(1, "ai"),
		approvedDoc(2, "AI"),
	}
	interactions := []recommend.Interaction{rating(1, 1, 5)}

	cb := NewContentBased(ContentBasedConfig{})
	got, err := cb.Score(context.Background(), 1, snapshot(docs, interactions))
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != 2 {
		t.Errorf("category matching should be case-insensitive, got %v", got)
	}
}

func TestContentBasedExcludesUnapproved(t *testing.T) {
	unapproved := approvedDoc(3, "AI")
	unapproved.Approved = false

	docs := []recommend.Document{approvedDoc(1, "AI"), unapproved}
	interactions := []recommend.Interaction{rating(1, 1, 5)}

	cb := NewContentBased(ContentBasedConfig{})
	got, err := cb.Score(context.Background(), 1, snapshot(docs, interactions))
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unapproved documents must be excluded, got %v", got)
	}
}

func TestContentBasedNoLikesYieldsEmpty(t *testing.T) {
	docs := []recommend.Document{approvedDoc(1, "AI")}

	cb := NewContentBased(ContentBasedConfig{})
	got, err := cb.Score(context.Background(), 42, snapshot(docs, nil))
	if err != nil {
		t.Fatalf("no likes must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty output for user without likes, got %v", got)
	}
}

func TestContentBasedEmbeddingBoost(t *testing.T) {
	docs := []recommend.Document{
		approvedDoc(1, "AI"),
		approvedDoc(2, "AI"), // aligned embedding
		approvedDoc(3, "AI"), // orthogonal embedding
	}
	interactions := []recommend.Interaction{rating(1, 1, 5)}
	embeddings := map[int][]float64{
		1: {1, 0},
		2: {1, 0},
		3: {0, 1},
	}

	snap := recommend.NewSnapshot(docs, interactions, embeddings, recommend.SnapshotParams{
		LikedThreshold: 4,
		BookmarkRating: 5,
	})

	cb := NewContentBased(ContentBasedConfig{EmbeddingBoost: 0.5})
	got, err := cb.Score(context.Background(), 1, snap)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two candidates, got %v", got)
	}

	// Both share full category overlap (1.0); doc 2 gains the cosine boost:
	// 1.0 * (1 + 0.5*1) = 1.5 versus doc 3 at 1.0.
	if got[0].DocumentID != 2 {
		t.Errorf("embedding-aligned document should rank first, got %d", got[0].DocumentID)
	}
	if math.Abs(got[0].Score-1.5) > 1e-9 {
		t.Errorf("boosted score = %v, want 1.5", got[0].Score)
	}
	if math.Abs(got[1].Score-1.0) > 1e-9 {
		t.Errorf("unboosted score = %v, want 1.0", got[1].Score)
	}
}

func TestContentBasedMissingEmbeddingsAreFine(t *testing.T) {
	docs := []recommend.Document{approvedDoc(1, "AI"), approvedDoc(2, "AI")}
	interactions := []recommend.Interaction{rating(1, 1, 5)}

	// Boost configured but no embeddings stored anywhere: score must fall
	// back to pure category overlap.
	cb := NewContentBased(ContentBasedConfig{EmbeddingBoost: 0.5})
	got, err := cb.Score(context.Background(), 1, snapshot(docs, interactions))
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(got) != 1 || math.Abs(got[0].Score-1.0) > 1e-9 {
		t.Errorf("expected plain overlap score 1.0, got %v", got)
	}
}

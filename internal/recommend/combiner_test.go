// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package recommend

import (
	"math"
	"testing"
	"time"
)

func testSnapshot(docs ...Document) *Snapshot {
	return NewSnapshot(docs, nil, nil, SnapshotParams{LikedThreshold: 4, BookmarkRating: 5})
}

func docAt(id int, updated time.Time) Document {
	return Document{ID: id, Approved: true, UpdatedAt: updated}
}

func TestCombinerWeightsAndMerge(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := testSnapshot(docAt(1, base), docAt(2, base), docAt(3, base))

	cf := []ScoredDoc{
		{DocumentID: 1, Score: 5},
		{DocumentID: 2, Score: 3},
	}
	cb := []ScoredDoc{
		{DocumentID: 2, Score: 0.9},
		{DocumentID: 3, Score: 0.1},
	}

	c := NewCombiner(0.6, 0.4)
	got := c.Combine(cf, cb, snap, 10)

	// After min-max normalization: cf -> {1:1, 2:0}, cb -> {2:1, 3:0}.
	// Combined: 1 -> 0.6, 2 -> 0.4, 3 -> 0.
	want := map[int]float64{1: 0.6, 2: 0.4, 3: 0}
	if len(got) != 3 {
		t.Fatalf("expected 3 merged entries, got %v", got)
	}
	for _, sd := range got {
		if math.Abs(sd.Score-want[sd.DocumentID]) > 1e-9 {
			t.Errorf("doc %d combined = %v, want %v", sd.DocumentID, sd.Score, want[sd.DocumentID])
		}
	}
	if got[0].DocumentID != 1 || got[1].DocumentID != 2 || got[2].DocumentID != 3 {
		t.Errorf("expected order [1 2 3], got %v", got)
	}
}

// TestCombinerScaleInvariance verifies the hard invariant: combination must
// not change under positive rescaling of either scorer's raw outputs.
func TestCombinerScaleInvariance(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := testSnapshot(docAt(1, base), docAt(2, base), docAt(3, base), docAt(4, base))

	cf := []ScoredDoc{
		{DocumentID: 1, Score: 4.2},
		{DocumentID: 2, Score: 3.7},
		{DocumentID: 3, Score: 1.1},
	}
	cb := []ScoredDoc{
		{DocumentID: 2, Score: 0.8},
		{DocumentID: 4, Score: 0.3},
	}

	scale := func(list []ScoredDoc, factor float64) []ScoredDoc {
		out := make([]ScoredDoc, len(list))
		for i, sd := range list {
			out[i] = ScoredDoc{DocumentID: sd.DocumentID, Score: sd.Score * factor}
		}
		return out
	}

	c := NewCombiner(0.6, 0.4)
	baseline := c.Combine(cf, cb, snap, 10)
	rescaled := c.Combine(scale(cf, 1000), scale(cb, 0.001), snap, 10)

	if len(baseline) != len(rescaled) {
		t.Fatalf("length mismatch: %d vs %d", len(baseline), len(rescaled))
	}
	for i := range baseline {
		if baseline[i].DocumentID != rescaled[i].DocumentID {
			t.Errorf("rank %d: %d vs %d after rescale", i, baseline[i].DocumentID, rescaled[i].DocumentID)
		}
		if math.Abs(baseline[i].Score-rescaled[i].Score) > 1e-9 {
			t.Errorf("rank %d: score %v vs %v after rescale", i, baseline[i].Score, rescaled[i].Score)
		}
	}
}

func TestCombinerAbsenceContributesZero(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := testSnapshot(docAt(1, base), docAt(2, base))

	cf := []ScoredDoc{
		{DocumentID: 1, Score: 2},
		{DocumentID: 2, Score: 1},
	}

	c := NewCombiner(0.6, 0.4)
	got := c.Combine(cf, nil, snap, 10)

	// Doc 1 normalizes to 1.0 with no cb contribution: 0.6 * 1.0.
	if math.Abs(got[0].Score-0.6) > 1e-9 {
		t.Errorf("cf-only top score = %v, want 0.6", got[0].Score)
	}
}

func TestCombinerAllEqualCollapsesToHalf(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := testSnapshot(docAt(1, base), docAt(2, base))

	cf := []ScoredDoc{
		{DocumentID: 1, Score: 7},
		{DocumentID: 2, Score: 7},
	}

	c := NewCombiner(1, 0)
	got := c.Combine(cf, nil, snap, 10)
	for _, sd := range got {
		if math.Abs(sd.Score-0.5) > 1e-9 {
			t.Errorf("all-equal list should normalize to 0.5, got %v", sd.Score)
		}
	}
}

func TestCombinerTieBreakRecencyThenID(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := testSnapshot(docAt(5, older), docAt(6, newer), docAt(7, older))

	// Identical scores everywhere: normalization collapses to 0.5 each.
	cf := []ScoredDoc{
		{DocumentID: 5, Score: 1},
		{DocumentID: 6, Score: 1},
		{DocumentID: 7, Score: 1},
	}

	c := NewCombiner(1, 0)
	got := c.Combine(cf, nil, snap, 10)

	if got[0].DocumentID != 6 {
		t.Errorf("more recent document should win ties, got %d first", got[0].DocumentID)
	}
	if got[1].DocumentID != 5 || got[2].DocumentID != 7 {
		t.Errorf("equal recency should order by id, got %v", got)
	}
}

func TestCombinerTruncates(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	docs := make([]Document, 0, 30)
	cf := make([]ScoredDoc, 0, 30)
	for i := 1; i <= 30; i++ {
		docs = append(docs, docAt(i, base))
		cf = append(cf, ScoredDoc{DocumentID: i, Score: float64(i)})
	}

	c := NewCombiner(0.6, 0.4)
	got := c.Combine(cf, nil, NewSnapshot(docs, nil, nil, SnapshotParams{}), 10)
	if len(got) != 10 {
		t.Errorf("expected truncation to 10, got %d", len(got))
	}
	if got[0].DocumentID != 30 {
		t.Errorf("expected highest-scored document first, got %d", got[0].DocumentID)
	}
}

// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package recommend

import "sort"

// Combiner merges the collaborative and content ranked lists into a single
// hybrid ranking.
//
// Each input list is min-max normalized to [0, 1] independently before
// weighting. This makes the combination invariant to the absolute scale
// either scorer happens to produce; only relative order within a list
// matters. Absence from a list contributes 0 from that source.
type Combiner struct {
	cfWeight float64
	cbWeight float64
}

// NewCombiner creates a combiner with the given raw weights. Weights are
// renormalized to sum to 1 so callers can pass any positive pair.
func NewCombiner(cfWeight, cbWeight float64) *Combiner {
	if cfWeight <= 0 && cbWeight <= 0 {
		cfWeight, cbWeight = 0.6, 0.4
	}
	total := cfWeight + cbWeight
	return &Combiner{
		cfWeight: cfWeight / total,
		cbWeight: cbWeight / total,
	}
}

// Combine merges the two ranked lists, sorts descending by combined score
// with ties broken by more recently updated document and then by lower
// document id, and truncates to topN.
func (c *Combiner) Combine(cf, cb []ScoredDoc, snap *Snapshot, topN int) []ScoredDoc {
	cfNorm := normalizeScores(cf)
	cbNorm := normalizeScores(cb)

	combined := make(map[int]float64, len(cfNorm)+len(cbNorm))
	for id, score := range cfNorm {
		combined[id] += c.cfWeight * score
	}
	for id, score := range cbNorm {
		combined[id] += c.cbWeight * score
	}

	merged := make([]ScoredDoc, 0, len(combined))
	for id, score := range combined {
		merged = append(merged, ScoredDoc{DocumentID: id, Score: score})
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		ti := snap.Documents[merged[i].DocumentID].UpdatedAt
		tj := snap.Documents[merged[j].DocumentID].UpdatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return merged[i].DocumentID < merged[j].DocumentID
	})

	if topN > 0 && len(merged) > topN {
		merged = merged[:topN]
	}

	return merged
}

// normalizeScores min-max normalizes a ranked list to [0, 1], keyed by
// document id. A list whose scores are all equal collapses to 0.5 so it
// still contributes signal without dominating.
func normalizeScores(list []ScoredDoc) map[int]float64 {
	if len(list) == 0 {
		return nil
	}

	minScore, maxScore := list[0].Score, list[0].Score
	for _, sd := range list[1:] {
		if sd.Score < minScore {
			minScore = sd.Score
		}
		if sd.Score > maxScore {
			maxScore = sd.Score
		}
	}

	out := make(map[int]float64, len(list))
	span := maxScore - minScore
	if span == 0 {
		for _, sd := range list {
			out[sd.DocumentID] = 0.5
		}
		return out
	}

	for _, sd := range list {
		out[sd.DocumentID] = (sd.Score - minScore) / span
	}
	return out
}

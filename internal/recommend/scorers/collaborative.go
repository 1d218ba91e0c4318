// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package scorers

import (
	"context"

	"github.com/recshelf/recshelf/internal/recommend"
)

// Collaborative implements user-based collaborative filtering over the
// liked-document graph.
//
// Similarity between two users is the Jaccard index of their liked sets,
// requiring a minimum intersection size to count as similar at all.
// Candidates are documents liked by any similar user, excluding documents
// the target user already likes and unapproved documents. A candidate's
// score is the similarity-weighted average of the contributing users'
// effective ratings:
//
//	score(u, d) = sum_{v in S(u,d)} sim(u, v) * r(v, d) / sum_{v in S(u,d)} sim(u, v)
//
// where S(u, d) is the set of users similar to u who like d.
//
// Cold start (no liked documents, or no similar users) yields an empty
// list, never an error.
type Collaborative struct {
	cfg CollaborativeConfig
}

// CollaborativeConfig contains the collaborative scorer parameters.
type CollaborativeConfig struct {
	// MinOverlap is the minimum liked-set intersection for similarity.
	MinOverlap int

	// MaxResults truncates the ranked output.
	MaxResults int
}

// NewCollaborative creates a collaborative scorer.
func NewCollaborative(cfg CollaborativeConfig) *Collaborative {
	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = 1
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	return &Collaborative{cfg: cfg}
}

// Name returns the strategy identifier.
func (c *Collaborative) Name() string { return "cf" }

// Score ranks candidates for the user from the behavior of similar users.
func (c *Collaborative) Score(ctx context.Context, userID int, snap *recommend.Snapshot) ([]recommend.ScoredDoc, error) {
	targetLiked := snap.Liked(userID)
	if len(targetLiked) == 0 {
		return nil, nil // cold start
	}

	similar := c.similarUsers(userID, targetLiked, snap)
	if len(similar) == 0 {
		return nil, nil
	}

	type accum struct {
		weighted  float64 // sum sim * rating
		simTotal  float64 // sum sim
		maxRating int     // highest contributing raw rating, for ties
	}
	scores := make(map[int]*accum)

	for _, sim := range similar {
		if cancelled(ctx) {
			return nil, ctx.Err()
		}

		for docID := range snap.Liked(sim.userID) {
			if _, alreadyLiked := targetLiked[docID]; alreadyLiked {
				continue
			}
			if !snap.Approved(docID) {
				continue
			}

			rating, ok := snap.EffectiveRating(sim.userID, docID)
			if !ok {
				continue
			}

			a := scores[docID]
			if a == nil {
				a = &accum{}
				scores[docID] = a
			}
			a.weighted += sim.similarity * float64(rating)
			a.simTotal += sim.similarity
			if rating > a.maxRating {
				a.maxRating = rating
			}
		}
	}

	ranked := make([]recommend.ScoredDoc, 0, len(scores))
	maxRatings := make(map[int]int, len(scores))
	for docID, a := range scores {
		ranked = append(ranked, recommend.ScoredDoc{
			DocumentID: docID,
			Score:      a.weighted / a.simTotal,
		})
		maxRatings[docID] = a.maxRating
	}

	// Ties break by higher contributing raw rating, then by document id.
	ranked = sortRanked(ranked, c.cfg.MaxResults, func(i, j recommend.ScoredDoc) bool {
		if maxRatings[i.DocumentID] != maxRatings[j.DocumentID] {
			return maxRatings[i.DocumentID] > maxRatings[j.DocumentID]
		}
		return i.DocumentID < j.DocumentID
	})

	return ranked, nil
}

// similarUser pairs a user id with its Jaccard similarity to the target.
type similarUser struct {
	userID     int
	similarity float64
}

// similarUsers finds all users whose liked sets overlap the target's by at
// least MinOverlap, excluding the target.
func (c *Collaborative) similarUsers(userID int, targetLiked map[int]struct{}, snap *recommend.Snapshot) []similarUser {
	var similar []similarUser
	for _, other := range snap.UsersWithLikes() {
		if other == userID {
			continue
		}

		intersection, similarity := jaccard(targetLiked, snap.Liked(other))
		if intersection < c.cfg.MinOverlap || similarity <= 0 {
			continue
		}
		similar = append(similar, similarUser{userID: other, similarity: similarity})
	}
	return similar
}

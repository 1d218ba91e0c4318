// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package recommend

import (
	"context"
	"time"
)

// InteractionKind distinguishes explicit ratings from bookmarks. A user may
// hold at most one interaction per kind per document; uniqueness is enforced
// at the storage layer.
type InteractionKind string

const (
	// KindRating is an explicit 1-5 star rating.
	KindRating InteractionKind = "rating"
	// KindBookmark is a bookmark flag without an explicit rating.
	KindBookmark InteractionKind = "bookmark"
)

// Interaction is one user-document signal. History is immutable: scorers
// consume it, nothing in this package mutates it.
type Interaction struct {
	UserID     int             `json:"user_id"`
	DocumentID int             `json:"document_id"`
	Kind       InteractionKind `json:"kind"`

	// Rating is 1-5 for KindRating, 0 for KindBookmark.
	Rating int `json:"rating,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Document carries the metadata the scorers need. The surrounding
// application owns the full record; this is the projection the pipeline
// reads.
type Document struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Approved      bool      `json:"approved"`
	Categories    []string  `json:"categories"`
	AvgRating     float64   `json:"avg_rating"`
	ViewCount     int64     `json:"view_count"`
	DownloadCount int64     `json:"download_count"`
	Summary       string    `json:"summary,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ScoredDoc is one entry of a ranked scorer output.
type ScoredDoc struct {
	DocumentID int     `json:"document_id"`
	Score      float64 `json:"score"`
}

// Recommendation is one persisted row of a user's recommendation set. The
// full set for a user is replaced atomically on each refresh.
type Recommendation struct {
	UserID      int       `json:"user_id"`
	DocumentID  int       `json:"document_id"`
	Score       float64   `json:"score"`
	Strategy    string    `json:"strategy"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Strategy identifiers persisted with each recommendation row.
const (
	StrategyHybrid     = "hybrid"
	StrategyPopularity = "popularity"
)

// Scorer is the scoring capability: one strategy producing a ranked list for
// a user from an immutable snapshot. Collaborative and content-based
// filtering are the two personalized variants; popularity is the cold-start
// fallback. The engine is generic over this interface, not over concrete
// scorer types.
type Scorer interface {
	// Name returns the strategy identifier (e.g. "cf", "cb", "popularity").
	Name() string

	// Score returns a ranked, truncated candidate list for the user. An
	// empty list is a valid cold-start answer, not an error.
	Score(ctx context.Context, userID int, snap *Snapshot) ([]ScoredDoc, error)
}

// DataProvider loads the immutable snapshot a refresh operates on. It is
// implemented by the storage layer; the interface keeps this package free of
// database imports.
type DataProvider interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// RecommendationStore persists refresh results and serves ranked reads.
type RecommendationStore interface {
	// ReplaceRecommendations atomically swaps the user's entire set: rows
	// outside recs are removed, rows in recs are inserted or updated, all
	// within one transaction.
	ReplaceRecommendations(ctx context.Context, userID int, recs []Recommendation) error

	// Recommendations returns the user's persisted set ordered by
	// descending score, truncated to limit.
	Recommendations(ctx context.Context, userID, limit int) ([]Recommendation, error)
}

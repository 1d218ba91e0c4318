// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package recommend

import "fmt"

// Config contains the engine-level parameters of the pipeline. Scorer
// internals (liked threshold, minimum overlap, embedding boost) are
// configured on the scorers themselves at construction.
type Config struct {
	// TopN is the size of the persisted recommendation set per user.
	TopN int `json:"top_n"`

	// CFWeight and CBWeight blend the normalized scorer outputs.
	CFWeight float64 `json:"cf_weight"`
	CBWeight float64 `json:"cb_weight"`

	// LikedThreshold and BookmarkRating fix the snapshot's liked-set
	// semantics.
	LikedThreshold int `json:"liked_threshold"`
	BookmarkRating int `json:"bookmark_rating"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		TopN:           10,
		CFWeight:       0.6,
		CBWeight:       0.4,
		LikedThreshold: 4,
		BookmarkRating: 5,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.CFWeight < 0 || c.CBWeight < 0 {
		return fmt.Errorf("weights must be non-negative, got cf=%v cb=%v", c.CFWeight, c.CBWeight)
	}
	if c.CFWeight+c.CBWeight == 0 {
		return fmt.Errorf("at least one combiner weight must be positive")
	}
	if c.LikedThreshold < 1 || c.LikedThreshold > 5 {
		return fmt.Errorf("liked_threshold must be in [1,5], got %d", c.LikedThreshold)
	}
	if c.BookmarkRating < 1 || c.BookmarkRating > 5 {
		return fmt.Errorf("bookmark_rating must be in [1,5], got %d", c.BookmarkRating)
	}
	return nil
}

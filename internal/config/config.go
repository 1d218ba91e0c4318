// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package config provides layered configuration loading for Recshelf.
//
// Configuration is resolved in precedence order ENV > file > defaults using
// Koanf v2. Environment variables use the RECSHELF_ prefix with underscores
// mapping to nested keys: RECSHELF_DISPATCH_WORKERS -> dispatch.workers.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the process.
type Config struct {
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	Recommend RecommendConfig `koanf:"recommend"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Summary   SummaryConfig   `koanf:"summary"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig controls the embedded DuckDB instance.
type DatabaseConfig struct {
	// Path is the database file path. Empty means in-memory (tests).
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// ServerConfig controls the operational HTTP surface (health, metrics,
// read-only queries). The domain boundary stays in-process; this server is
// for operators and dashboards.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// DispatchConfig controls the background worker pool.
type DispatchConfig struct {
	// Workers is the fixed worker pool size.
	Workers int `koanf:"workers" validate:"gt=0"`

	// QueueSize bounds the shared FIFO queue. Submissions beyond the bound
	// are rejected with ErrQueueFull, never silently queued.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// DrainTimeout bounds the best-effort drain on shutdown.
	DrainTimeout time.Duration `koanf:"drain_timeout" validate:"gt=0"`
}

// RecommendConfig controls the scoring pipeline and hybrid combination.
type RecommendConfig struct {
	// TopN is the size of the persisted recommendation set per user.
	TopN int `koanf:"top_n" validate:"gt=0"`

	// CFWeight and CBWeight blend the two scorers after per-list min-max
	// normalization. They are renormalized at runtime so they need not sum
	// to 1.
	CFWeight float64 `koanf:"cf_weight" validate:"gte=0"`
	CBWeight float64 `koanf:"cb_weight" validate:"gte=0"`

	// LikedThreshold is the minimum rating that counts as "liked".
	LikedThreshold int `koanf:"liked_threshold" validate:"gte=1,lte=5"`

	// BookmarkRating is the rating a bookmark-only interaction contributes
	// to collaborative weighted averages.
	BookmarkRating int `koanf:"bookmark_rating" validate:"gte=1,lte=5"`

	// MinOverlap is the minimum liked-set intersection for two users to be
	// considered similar at all.
	MinOverlap int `koanf:"min_overlap" validate:"gte=1"`

	// EmbeddingBoost scales the cosine-similarity boost applied to content
	// scores when both candidate and profile embeddings exist.
	EmbeddingBoost float64 `koanf:"embedding_boost" validate:"gte=0"`

	// Popularity weights for the cold-start list.
	ViewWeight     float64 `koanf:"view_weight" validate:"gte=0"`
	DownloadWeight float64 `koanf:"download_weight" validate:"gte=0"`
	RatingWeight   float64 `koanf:"rating_weight" validate:"gte=0"`
}

// EmbeddingConfig controls the deterministic document vectorizer.
type EmbeddingConfig struct {
	// Dim is the fixed embedding dimensionality.
	Dim int `koanf:"dim" validate:"gt=0"`
}

// SummaryConfig controls the extractive summarizer.
type SummaryConfig struct {
	// MaxRunes bounds the stored summary length.
	MaxRunes int `koanf:"max_runes" validate:"gt=0"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:      "/data/recshelf.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Dispatch: DispatchConfig{
			Workers:      4,
			QueueSize:    256,
			DrainTimeout: 10 * time.Second,
		},
		Recommend: RecommendConfig{
			TopN:           10,
			CFWeight:       0.6,
			CBWeight:       0.4,
			LikedThreshold: 4,
			BookmarkRating: 5,
			MinOverlap:     1,
			EmbeddingBoost: 0.5,
			ViewWeight:     0.25,
			DownloadWeight: 0.35,
			RatingWeight:   0.4,
		},
		Embedding: EmbeddingConfig{
			Dim: 64,
		},
		Summary: SummaryConfig{
			MaxRunes: 480,
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Recommend.CFWeight+c.Recommend.CBWeight <= 0 {
		return fmt.Errorf("recommend: cf_weight + cb_weight must be positive")
	}

	popWeights := c.Recommend.ViewWeight + c.Recommend.DownloadWeight + c.Recommend.RatingWeight
	if popWeights <= 0 {
		return fmt.Errorf("recommend: popularity weights must be positive")
	}

	return nil
}

// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package store is the DuckDB persistence layer. It implements the data
// interfaces declared by the recommend, embedding, and summarize packages,
// so those packages never import database code.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/cache"
	"github.com/recshelf/recshelf/internal/config"
	"github.com/recshelf/recshelf/internal/recommend"
)

const queryTimeout = 30 * time.Second

// snapshotTTL bounds snapshot reuse across a burst of refresh jobs. Writes
// invalidate eagerly, so the TTL only limits reuse between reads.
const snapshotTTL = 2 * time.Second

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger

	// snapshotParams fixes the liked-set semantics LoadSnapshot applies.
	snapshotParams recommend.SnapshotParams

	// snapCache serves one snapshot to fan-out refresh bursts.
	snapCache *cache.TTL[*recommend.Snapshot]
}

// New opens (or creates) the database and initializes the schema. An empty
// path opens an in-memory database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.DatabaseConfig, params recommend.SnapshotParams, logger zerolog.Logger) (*DB, error) {
	connStr := ""
	if cfg.Path != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}

		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, threads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{
		conn:           conn,
		logger:         logger.With().Str("component", "store").Logger(),
		snapshotParams: params,
		snapCache:      cache.NewTTL[*recommend.Snapshot](snapshotTTL),
	}

	if err := db.initSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	db.logger.Info().Str("path", cfg.Path).Msg("database ready")
	return db, nil
}

// initSchema creates tables and indexes if they do not exist.
func (db *DB) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE SEQUENCE IF NOT EXISTS documents_id_seq START 1`,

		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY DEFAULT nextval('documents_id_seq'),
			title VARCHAR NOT NULL,
			categories JSON NOT NULL DEFAULT '[]',
			approved BOOLEAN NOT NULL DEFAULT false,
			avg_rating DOUBLE NOT NULL DEFAULT 0,
			view_count BIGINT NOT NULL DEFAULT 0,
			download_count BIGINT NOT NULL DEFAULT 0,
			summary VARCHAR NOT NULL DEFAULT '',
			content VARCHAR NOT NULL DEFAULT '',
			has_file BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS interactions (
			user_id INTEGER NOT NULL,
			document_id INTEGER NOT NULL,
			kind VARCHAR NOT NULL,
			rating INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			PRIMARY KEY (user_id, document_id, kind)
		)`,

		`CREATE TABLE IF NOT EXISTS embeddings (
			document_id INTEGER PRIMARY KEY,
			vector JSON NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			user_id INTEGER NOT NULL,
			document_id INTEGER NOT NULL,
			score DOUBLE NOT NULL,
			strategy VARCHAR NOT NULL,
			generated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, document_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_recommendations_user
			ON recommendations (user_id)`,

		`CREATE INDEX IF NOT EXISTS idx_interactions_document
			ON interactions (document_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

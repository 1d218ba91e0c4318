// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/recshelf/recshelf/internal/metrics"
)

// SaveEmbedding stores or overwrites a document's vector. Implements
// embedding.VectorStore.
func (db *DB) SaveEmbedding(ctx context.Context, documentID int, vector []float64) error {
	done := metrics.TrackDBQuery("upsert", "embeddings")

	payload, err := json.Marshal(vector)
	if err != nil {
		done(err)
		return fmt.Errorf("marshal vector: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO embeddings (document_id, vector)
		VALUES (?, ?)
		ON CONFLICT (document_id)
		DO UPDATE SET vector = excluded.vector, updated_at = current_timestamp`,
		documentID, string(payload))
	done(err)
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	db.snapCache.Invalidate()
	return nil
}

// DeleteEmbedding removes a document's vector. Deleting a missing vector is
// a no-op.
func (db *DB) DeleteEmbedding(ctx context.Context, documentID int) error {
	done := metrics.TrackDBQuery("delete", "embeddings")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM embeddings WHERE document_id = ?`, documentID)
	done(err)
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	db.snapCache.Invalidate()
	return nil
}

// Embedding returns a document's stored vector and whether one exists.
func (db *DB) Embedding(ctx context.Context, documentID int) ([]float64, bool, error) {
	done := metrics.TrackDBQuery("select", "embeddings")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var payload string
	err := db.conn.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE document_id = ?`, documentID,
	).Scan(&payload)
	done(err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select embedding: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal([]byte(payload), &vector); err != nil {
		return nil, false, fmt.Errorf("unmarshal vector: %w", err)
	}
	return vector, true, nil
}

// allEmbeddings loads every stored vector, keyed by document id.
func (db *DB) allEmbeddings(ctx context.Context) (map[int][]float64, error) {
	done := metrics.TrackDBQuery("select", "embeddings")

	rows, err := db.conn.QueryContext(ctx, `SELECT document_id, vector FROM embeddings`)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	vectors := make(map[int][]float64)
	for rows.Next() {
		var (
			id      int
			payload string
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		var vector []float64
		if err := json.Unmarshal([]byte(payload), &vector); err != nil {
			return nil, fmt.Errorf("unmarshal vector for document %d: %w", id, err)
		}
		vectors[id] = vector
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return vectors, nil
}

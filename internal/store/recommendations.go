// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package store

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/recshelf/recshelf/internal/metrics"
	"github.com/recshelf/recshelf/internal/recommend"
)

// ReplaceRecommendations swaps the user's entire recommendation set in one
// transaction. Readers never observe a partial set. Implements
// recommend.RecommendationStore.
func (db *DB) ReplaceRecommendations(ctx context.Context, userID int, recs []recommend.Recommendation) error {
	done := metrics.TrackDBQuery("replace", "recommendations")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recommendations WHERE user_id = ?`, userID); err != nil {
		done(err)
		return fmt.Errorf("delete old recommendations: %w", err)
	}

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recommendations (user_id, document_id, score, strategy, generated_at)
			VALUES (?, ?, ?, ?, ?)`,
			rec.UserID, rec.DocumentID, rec.Score, rec.Strategy, rec.GeneratedAt); err != nil {
			done(err)
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		done(err)
		return fmt.Errorf("commit recommendations: %w", err)
	}
	done(nil)
	return nil
}

// Recommendations returns the user's set ordered by descending score.
func (db *DB) Recommendations(ctx context.Context, userID, limit int) ([]recommend.Recommendation, error) {
	done := metrics.TrackDBQuery("select", "recommendations")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, document_id, score, strategy, generated_at
		FROM recommendations
		WHERE user_id = ?
		ORDER BY score DESC, document_id ASC
		LIMIT ?`, userID, limit)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []recommend.Recommendation
	for rows.Next() {
		var rec recommend.Recommendation
		if err := rows.Scan(&rec.UserID, &rec.DocumentID, &rec.Score,
			&rec.Strategy, &rec.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return recs, nil
}

// LoadSnapshot reads documents, interactions, and embeddings into an
// immutable snapshot. Implements recommend.DataProvider. A fan-out of refresh
// jobs shares one snapshot through the cache; writes invalidate it. The load
// runs on its own context: it serves every waiting caller, so one caller's
// cancellation or deadline must not fail the rest.
func (db *DB) LoadSnapshot(_ context.Context) (*recommend.Snapshot, error) {
	return db.snapCache.Get(func() (*recommend.Snapshot, error) {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		docs, err := db.allDocuments(ctx)
		if err != nil {
			return nil, err
		}
		interactions, err := db.allInteractions(ctx)
		if err != nil {
			return nil, err
		}
		embeddings, err := db.allEmbeddings(ctx)
		if err != nil {
			return nil, err
		}

		return recommend.NewSnapshot(docs, interactions, embeddings, db.snapshotParams), nil
	})
}

// allDocuments loads every document projection.
func (db *DB) allDocuments(ctx context.Context) ([]recommend.Document, error) {
	done := metrics.TrackDBQuery("select", "documents")

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, categories, approved, avg_rating, view_count,
		       download_count, summary, updated_at
		FROM documents`)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []recommend.Document
	for rows.Next() {
		var (
			doc        recommend.Document
			categories string
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &categories, &doc.Approved,
			&doc.AvgRating, &doc.ViewCount, &doc.DownloadCount,
			&doc.Summary, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &doc.Categories); err != nil {
			return nil, fmt.Errorf("unmarshal categories for document %d: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// allInteractions loads the full interaction history.
func (db *DB) allInteractions(ctx context.Context) ([]recommend.Interaction, error) {
	done := metrics.TrackDBQuery("select", "interactions")

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, document_id, kind, rating, created_at
		FROM interactions`)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []recommend.Interaction
	for rows.Next() {
		var (
			in   recommend.Interaction
			kind string
		)
		if err := rows.Scan(&in.UserID, &in.DocumentID, &kind, &in.Rating,
			&in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Kind = recommend.InteractionKind(kind)
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return interactions, nil
}

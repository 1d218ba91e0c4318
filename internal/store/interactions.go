// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package store

import (
	"context"
	"fmt"

	"github.com/recshelf/recshelf/internal/metrics"
	"github.com/recshelf/recshelf/internal/recommend"
)

// UpsertInteraction inserts or updates the user's interaction of that kind
// with the document, then refreshes the document's average rating. The
// (user, document, kind) primary key enforces one row per signal.
func (db *DB) UpsertInteraction(ctx context.Context, in recommend.Interaction) error {
	done := metrics.TrackDBQuery("upsert", "interactions")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO interactions (user_id, document_id, kind, rating)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, document_id, kind)
		DO UPDATE SET rating = excluded.rating, updated_at = current_timestamp`,
		in.UserID, in.DocumentID, string(in.Kind), in.Rating)
	done(err)
	if err != nil {
		return fmt.Errorf("upsert interaction: %w", err)
	}
	db.snapCache.Invalidate()

	if in.Kind == recommend.KindRating {
		return db.refreshAvgRating(ctx, in.DocumentID)
	}
	return nil
}

// DeleteInteraction removes one signal, refreshing the average rating when a
// rating was removed.
func (db *DB) DeleteInteraction(ctx context.Context, userID, documentID int, kind recommend.InteractionKind) error {
	done := metrics.TrackDBQuery("delete", "interactions")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM interactions
		WHERE user_id = ? AND document_id = ? AND kind = ?`,
		userID, documentID, string(kind))
	done(err)
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}
	db.snapCache.Invalidate()

	if kind == recommend.KindRating {
		return db.refreshAvgRating(ctx, documentID)
	}
	return nil
}

// refreshAvgRating recomputes the document's denormalized average rating
// from its rating rows.
func (db *DB) refreshAvgRating(ctx context.Context, documentID int) error {
	done := metrics.TrackDBQuery("update", "documents")

	_, err := db.conn.ExecContext(ctx, `
		UPDATE documents SET avg_rating = COALESCE((
			SELECT AVG(rating) FROM interactions
			WHERE document_id = ? AND kind = 'rating'
		), 0)
		WHERE id = ?`, documentID, documentID)
	done(err)
	if err != nil {
		return fmt.Errorf("refresh avg rating: %w", err)
	}
	return nil
}

// UsersInteractedWith returns the distinct users holding any interaction
// with the document. The embedding job uses this to fan out recommendation
// refreshes after a vector changes.
func (db *DB) UsersInteractedWith(ctx context.Context, documentID int) ([]int, error) {
	done := metrics.TrackDBQuery("select", "interactions")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM interactions
		WHERE document_id = ?
		ORDER BY user_id`, documentID)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("query interacting users: %w", err)
	}
	defer rows.Close()

	var users []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

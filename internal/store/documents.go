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

	"github.com/recshelf/recshelf/internal/embedding"
	"github.com/recshelf/recshelf/internal/metrics"
	"github.com/recshelf/recshelf/internal/recommend"
)

// ErrNotFound is returned for lookups of rows that do not exist.
var ErrNotFound = errors.New("store: not found")

// NewDocument is the input for document creation.
type NewDocument struct {
	Title      string
	Categories []string
	Approved   bool
	Content    string
}

// CreateDocument inserts a document and returns its assigned id.
func (db *DB) CreateDocument(ctx context.Context, doc NewDocument) (int, error) {
	done := metrics.TrackDBQuery("insert", "documents")

	categories, err := json.Marshal(doc.Categories)
	if err != nil {
		done(err)
		return 0, fmt.Errorf("marshal categories: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO documents (title, categories, approved, content, has_file)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		doc.Title, string(categories), doc.Approved, doc.Content, doc.Content != "",
	).Scan(&id)
	done(err)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	db.snapCache.Invalidate()
	return id, nil
}

// Document returns one document projection by id.
func (db *DB) Document(ctx context.Context, documentID int) (recommend.Document, error) {
	done := metrics.TrackDBQuery("select", "documents")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		doc        recommend.Document
		categories string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, title, categories, approved, avg_rating, view_count,
		       download_count, summary, updated_at
		FROM documents WHERE id = ?`, documentID,
	).Scan(&doc.ID, &doc.Title, &categories, &doc.Approved, &doc.AvgRating,
		&doc.ViewCount, &doc.DownloadCount, &doc.Summary, &doc.UpdatedAt)
	done(err)
	if errors.Is(err, sql.ErrNoRows) {
		return recommend.Document{}, fmt.Errorf("document %d: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return recommend.Document{}, fmt.Errorf("select document: %w", err)
	}

	if err := json.Unmarshal([]byte(categories), &doc.Categories); err != nil {
		return recommend.Document{}, fmt.Errorf("unmarshal categories: %w", err)
	}
	return doc, nil
}

// DocumentText loads the text fields for feature extraction. Implements
// embedding.DocumentReader.
func (db *DB) DocumentText(ctx context.Context, documentID int) (embedding.DocumentText, error) {
	done := metrics.TrackDBQuery("select", "documents")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		dt         embedding.DocumentText
		categories string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT title, categories, summary, content
		FROM documents WHERE id = ?`, documentID,
	).Scan(&dt.Title, &categories, &dt.Summary, &dt.Content)
	done(err)
	if errors.Is(err, sql.ErrNoRows) {
		return embedding.DocumentText{}, fmt.Errorf("document %d: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return embedding.DocumentText{}, fmt.Errorf("select document text: %w", err)
	}

	if err := json.Unmarshal([]byte(categories), &dt.Categories); err != nil {
		return embedding.DocumentText{}, fmt.Errorf("unmarshal categories: %w", err)
	}
	return dt, nil
}

// AttachFile stores extracted file content for a document.
func (db *DB) AttachFile(ctx context.Context, documentID int, content string) error {
	done := metrics.TrackDBQuery("update", "documents")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE documents
		SET content = ?, has_file = true, updated_at = current_timestamp
		WHERE id = ?`, content, documentID)
	done(err)
	if err != nil {
		return fmt.Errorf("attach file: %w", err)
	}
	db.snapCache.Invalidate()
	return db.requireRow(res, documentID)
}

// SetApproved flips a document's moderation state.
func (db *DB) SetApproved(ctx context.Context, documentID int, approved bool) error {
	done := metrics.TrackDBQuery("update", "documents")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE documents
		SET approved = ?, updated_at = current_timestamp
		WHERE id = ?`, approved, documentID)
	done(err)
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}
	db.snapCache.Invalidate()
	return db.requireRow(res, documentID)
}

// SaveSummary persists a generated summary. Implements
// summarize.SummaryStore.
func (db *DB) SaveSummary(ctx context.Context, documentID int, summary string) error {
	done := metrics.TrackDBQuery("update", "documents")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE documents
		SET summary = ?, updated_at = current_timestamp
		WHERE id = ?`, summary, documentID)
	done(err)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	db.snapCache.Invalidate()
	return db.requireRow(res, documentID)
}

// IncrementViewCount bumps the view counter atomically in SQL. The counter
// is never read-modify-written in the application.
func (db *DB) IncrementViewCount(ctx context.Context, documentID int) error {
	return db.incrementCounter(ctx, "view_count", documentID)
}

// IncrementDownloadCount bumps the download counter atomically in SQL.
func (db *DB) IncrementDownloadCount(ctx context.Context, documentID int) error {
	return db.incrementCounter(ctx, "download_count", documentID)
}

func (db *DB) incrementCounter(ctx context.Context, column string, documentID int) error {
	done := metrics.TrackDBQuery("update", "documents")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// column is one of two compile-time constants, never user input.
	res, err := db.conn.ExecContext(ctx, fmt.Sprintf(
		`UPDATE documents SET %s = %s + 1 WHERE id = ?`, column, column), documentID)
	done(err)
	if err != nil {
		return fmt.Errorf("increment %s: %w", column, err)
	}
	db.snapCache.Invalidate()
	return db.requireRow(res, documentID)
}

// requireRow converts a zero-row update into ErrNotFound.
func (db *DB) requireRow(res sql.Result, documentID int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %d: %w", documentID, ErrNotFound)
	}
	return nil
}

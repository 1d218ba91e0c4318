// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package dispatch

import (
	"context"
	"time"
)

// JobKind identifies the type of background work a job carries.
type JobKind string

const (
	// KindEmbedding recomputes a document's embedding vector.
	KindEmbedding JobKind = "embedding"

	// KindRecommendation refreshes a user's recommendation set.
	KindRecommendation JobKind = "recommendation"

	// KindSummary regenerates a document's extractive summary.
	KindSummary JobKind = "summary"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	StatusQueued  JobStatus = "queued"
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// Job is a unit of background work. EntityID is the document id for
// embedding and summary jobs and the user id for recommendation jobs.
type Job struct {
	ID         string
	Kind       JobKind
	EntityID   int
	EnqueuedAt time.Time
}

// Handler executes the work for one job kind. Handlers must be safe for
// concurrent invocation; up to Workers jobs run at once.
type Handler func(ctx context.Context, job Job) error

// StatusRecord is the observable state of the most recent job for an
// (entity, kind) pair. Terminal records are retained so callers can inspect
// the outcome after completion.
type StatusRecord struct {
	JobID      string    `json:"job_id"`
	Kind       JobKind   `json:"kind"`
	EntityID   int       `json:"entity_id"`
	Status     JobStatus `json:"status"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// jobKey identifies the coalescing unit: one queued job per (entity, kind).
type jobKey struct {
	entityID int
	kind     JobKind
}

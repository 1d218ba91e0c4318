// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package dispatch implements the background task dispatcher: a fixed worker
// pool draining one bounded FIFO queue shared by all job kinds.
//
// Admission control coalesces duplicate triggers: while a job for an
// (entity, kind) pair is queued or running, further submissions for the
// same pair are absorbed into it and counted, not enqueued.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/metrics"
)

var (
	// ErrQueueFull is returned when the bounded queue cannot admit the job.
	ErrQueueFull = errors.New("dispatch: queue full")

	// ErrShuttingDown is returned for submissions after drain has begun.
	ErrShuttingDown = errors.New("dispatch: shutting down")

	// ErrUnknownKind is returned for submissions with no registered handler.
	ErrUnknownKind = errors.New("dispatch: no handler registered for kind")
)

// Config holds the dispatcher pool parameters.
type Config struct {
	// Workers is the fixed worker pool size.
	Workers int

	// QueueSize bounds the shared FIFO queue.
	QueueSize int

	// DrainTimeout bounds the best-effort drain on shutdown. Jobs still
	// running or queued when it expires are abandoned via context cancel.
	DrainTimeout time.Duration
}

// Dispatcher owns the queue, the worker pool, and the per-(entity, kind)
// status table. It implements suture.Service via Serve.
type Dispatcher struct {
	config   Config
	logger   zerolog.Logger
	handlers map[JobKind]Handler

	mu       sync.Mutex
	queue    chan Job
	active   map[jobKey]string // job id, present while queued or running
	statuses map[jobKey]*StatusRecord
	draining bool
}

// New creates a dispatcher. Handlers are registered with Register before
// Serve starts the pool.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}

	return &Dispatcher{
		config:   cfg,
		logger:   logger.With().Str("component", "dispatch").Logger(),
		handlers: make(map[JobKind]Handler),
		queue:    make(chan Job, cfg.QueueSize),
		active:   make(map[jobKey]string),
		statuses: make(map[jobKey]*StatusRecord),
	}
}

// Register binds a handler to a job kind. It must be called before Serve.
func (d *Dispatcher) Register(kind JobKind, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = handler
}

// Submit enqueues a job and returns its id. A submission that coalesces into
// an already-queued job returns the queued job's id with no error. The queue
// never blocks the caller: a full queue returns ErrQueueFull immediately.
func (d *Dispatcher) Submit(kind JobKind, entityID int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.draining {
		return "", ErrShuttingDown
	}
	if _, ok := d.handlers[kind]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	key := jobKey{entityID: entityID, kind: kind}
	if id, ok := d.active[key]; ok {
		metrics.JobsCoalesced.WithLabelValues(string(kind)).Inc()
		return id, nil
	}

	job := Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		EntityID:   entityID,
		EnqueuedAt: time.Now().UTC(),
	}

	select {
	case d.queue <- job:
	default:
		metrics.JobsRejected.WithLabelValues(string(kind)).Inc()
		return "", fmt.Errorf("%w: %s/%d", ErrQueueFull, kind, entityID)
	}

	d.active[key] = job.ID
	d.statuses[key] = &StatusRecord{
		JobID:      job.ID,
		Kind:       kind,
		EntityID:   entityID,
		Status:     StatusQueued,
		EnqueuedAt: job.EnqueuedAt,
	}
	metrics.JobsEnqueued.WithLabelValues(string(kind)).Inc()
	metrics.QueueDepth.Inc()

	return job.ID, nil
}

// Status returns the most recent record for an (entity, kind) pair. Terminal
// records persist until a new job for the same pair replaces them.
func (d *Dispatcher) Status(entityID int, kind JobKind) (StatusRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.statuses[jobKey{entityID: entityID, kind: kind}]
	if !ok {
		return StatusRecord{}, false
	}
	return *rec, true
}

// Serve runs the worker pool until ctx is cancelled, then drains. Queued
// jobs still execute during the drain window; when DrainTimeout expires the
// remaining work is cancelled.
func (d *Dispatcher) Serve(ctx context.Context) error {
	// Workers run on an independent context so that shutdown can drain the
	// queue instead of aborting in-flight jobs immediately.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	var wg sync.WaitGroup
	for i := 0; i < d.config.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.worker(workCtx, id)
		}(i)
	}

	d.logger.Info().
		Int("workers", d.config.Workers).
		Int("queue_size", d.config.QueueSize).
		Msg("dispatcher running")

	<-ctx.Done()

	d.mu.Lock()
	// The supervisor may restart Serve after a drain; only the first pass
	// closes the queue.
	if !d.draining {
		d.draining = true
		close(d.queue)
	}
	pending := len(d.queue)
	d.mu.Unlock()

	d.logger.Info().
		Int("pending", pending).
		Dur("drain_timeout", d.config.DrainTimeout).
		Msg("dispatcher draining")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("dispatcher drained")
	case <-time.After(d.config.DrainTimeout):
		d.logger.Warn().Msg("drain timeout expired, cancelling remaining jobs")
		cancelWork()
		<-done
	}

	return ctx.Err()
}

// worker drains the queue until it is closed and empty.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	for job := range d.queue {
		d.run(ctx, id, job)
	}
}

// run executes one job with panic isolation and status bookkeeping.
func (d *Dispatcher) run(ctx context.Context, workerID int, job Job) {
	key := jobKey{entityID: job.EntityID, kind: job.Kind}

	d.mu.Lock()
	handler := d.handlers[job.Kind]
	if rec, ok := d.statuses[key]; ok && rec.JobID == job.ID {
		rec.Status = StatusRunning
		rec.StartedAt = time.Now().UTC()
	}
	d.mu.Unlock()
	metrics.QueueDepth.Dec()

	start := time.Now()
	err := d.invoke(ctx, handler, job)
	elapsed := time.Since(start)

	status := StatusDone
	if err != nil {
		status = StatusFailed
		d.logger.Error().
			Err(err).
			Str("job_id", job.ID).
			Str("kind", string(job.Kind)).
			Int("entity_id", job.EntityID).
			Int("worker", workerID).
			Msg("job failed")
	} else {
		d.logger.Debug().
			Str("job_id", job.ID).
			Str("kind", string(job.Kind)).
			Int("entity_id", job.EntityID).
			Dur("elapsed", elapsed).
			Msg("job complete")
	}

	d.mu.Lock()
	if id, ok := d.active[key]; ok && id == job.ID {
		delete(d.active, key)
	}
	if rec, ok := d.statuses[key]; ok && rec.JobID == job.ID {
		rec.Status = status
		rec.FinishedAt = time.Now().UTC()
		if err != nil {
			rec.Error = err.Error()
		}
	}
	d.mu.Unlock()

	metrics.JobsCompleted.WithLabelValues(string(job.Kind), string(status)).Inc()
	metrics.JobDuration.WithLabelValues(string(job.Kind)).Observe(elapsed.Seconds())
}

// invoke calls the handler, converting panics into errors so a misbehaving
// job cannot take down its worker.
func (d *Dispatcher) invoke(ctx context.Context, handler Handler, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	if handler == nil {
		return fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}
	return handler(ctx, job)
}

// String returns the service name for supervisor logging.
func (d *Dispatcher) String() string {
	return "dispatcher"
}

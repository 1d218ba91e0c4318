// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// startDispatcher runs Serve in the background and returns a stop function
// that triggers shutdown and waits for the drain to finish.
func startDispatcher(t *testing.T, d *Dispatcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Serve(ctx)
		close(done)
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("dispatcher did not shut down")
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

// waitFor polls until the condition holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSubmitAndExecute(t *testing.T) {
	d := New(Config{Workers: 2, QueueSize: 16}, zerolog.Nop())

	var executed atomic.Int32
	d.Register(KindEmbedding, func(_ context.Context, job Job) error {
		if job.EntityID != 42 {
			t.Errorf("entity id = %d, want 42", job.EntityID)
		}
		executed.Add(1)
		return nil
	})

	startDispatcher(t, d)

	id, err := d.Submit(KindEmbedding, 42)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}

	waitFor(t, func() bool {
		rec, ok := d.Status(42, KindEmbedding)
		return ok && rec.Status == StatusDone
	}, "job never reached done")

	if executed.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", executed.Load())
	}

	rec, _ := d.Status(42, KindEmbedding)
	if rec.JobID != id || rec.Error != "" || rec.FinishedAt.IsZero() {
		t.Errorf("unexpected terminal record: %+v", rec)
	}
}

func TestCoalescingWhileQueued(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 16}, zerolog.Nop())

	gate := make(chan struct{})
	var targetRuns atomic.Int32
	d.Register(KindRecommendation, func(_ context.Context, job Job) error {
		if job.EntityID == 1 {
			<-gate // blocker occupies the single worker
			return nil
		}
		targetRuns.Add(1)
		return nil
	})

	startDispatcher(t, d)

	if _, err := d.Submit(KindRecommendation, 1); err != nil {
		t.Fatalf("blocker submit: %v", err)
	}
	waitFor(t, func() bool {
		rec, ok := d.Status(1, KindRecommendation)
		return ok && rec.Status == StatusRunning
	}, "blocker never started")

	first, err := d.Submit(KindRecommendation, 2)
	if err != nil {
		t.Fatalf("target submit: %v", err)
	}
	for i := 0; i < 20; i++ {
		id, err := d.Submit(KindRecommendation, 2)
		if err != nil {
			t.Fatalf("duplicate submit %d: %v", i, err)
		}
		if id != first {
			t.Errorf("duplicate submit returned new id %s, want coalesced %s", id, first)
		}
	}

	close(gate)
	waitFor(t, func() bool {
		rec, ok := d.Status(2, KindRecommendation)
		return ok && rec.Status == StatusDone
	}, "target never finished")

	if targetRuns.Load() != 1 {
		t.Errorf("coalesced job ran %d times, want 1", targetRuns.Load())
	}
}

func TestCoalescingWhileRunning(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 16}, zerolog.Nop())

	gate := make(chan struct{})
	var runs atomic.Int32
	d.Register(KindEmbedding, func(_ context.Context, _ Job) error {
		runs.Add(1)
		<-gate
		return nil
	})

	startDispatcher(t, d)

	first, err := d.Submit(KindEmbedding, 7)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	waitFor(t, func() bool {
		rec, ok := d.Status(7, KindEmbedding)
		return ok && rec.Status == StatusRunning
	}, "first job never started")

	second, err := d.Submit(KindEmbedding, 7)
	if err != nil {
		t.Fatalf("resubmit while running: %v", err)
	}
	if second != first {
		t.Error("a running job must absorb duplicate submissions")
	}

	close(gate)
	waitFor(t, func() bool {
		rec, ok := d.Status(7, KindEmbedding)
		return ok && rec.Status == StatusDone
	}, "job never finished")

	if runs.Load() != 1 {
		t.Errorf("coalesced pair ran %d times, want 1", runs.Load())
	}

	// Terminal jobs stop coalescing: the next submit is new work.
	third, err := d.Submit(KindEmbedding, 7)
	if err != nil {
		t.Fatalf("submit after completion: %v", err)
	}
	if third == first {
		t.Error("completed job must not absorb new submissions")
	}
	waitFor(t, func() bool { return runs.Load() == 2 }, "new job never ran")
}

func TestQueueFullRejection(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 1}, zerolog.Nop())

	gate := make(chan struct{})
	defer close(gate)
	d.Register(KindSummary, func(_ context.Context, _ Job) error {
		<-gate
		return nil
	})

	startDispatcher(t, d)

	if _, err := d.Submit(KindSummary, 1); err != nil {
		t.Fatalf("blocker submit: %v", err)
	}
	waitFor(t, func() bool {
		rec, ok := d.Status(1, KindSummary)
		return ok && rec.Status == StatusRunning
	}, "blocker never started")

	if _, err := d.Submit(KindSummary, 2); err != nil {
		t.Fatalf("submit filling the queue: %v", err)
	}

	_, err := d.Submit(KindSummary, 3)
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestPanicIsolation(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 16}, zerolog.Nop())

	var survived atomic.Bool
	d.Register(KindEmbedding, func(_ context.Context, job Job) error {
		if job.EntityID == 1 {
			panic("corrupt document")
		}
		survived.Store(true)
		return nil
	})

	startDispatcher(t, d)

	if _, err := d.Submit(KindEmbedding, 1); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	waitFor(t, func() bool {
		rec, ok := d.Status(1, KindEmbedding)
		return ok && rec.Status == StatusFailed
	}, "panicking job never reached failed")

	rec, _ := d.Status(1, KindEmbedding)
	if rec.Error == "" {
		t.Error("failed record should carry the panic message")
	}

	// The worker must survive and keep processing.
	if _, err := d.Submit(KindEmbedding, 2); err != nil {
		t.Fatalf("Submit() after panic: %v", err)
	}
	waitFor(t, func() bool { return survived.Load() }, "worker died after panic")
}

func TestFailedJobNotRetried(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 16}, zerolog.Nop())

	var runs atomic.Int32
	d.Register(KindSummary, func(_ context.Context, _ Job) error {
		runs.Add(1)
		return errors.New("no source text")
	})

	startDispatcher(t, d)

	if _, err := d.Submit(KindSummary, 9); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	waitFor(t, func() bool {
		rec, ok := d.Status(9, KindSummary)
		return ok && rec.Status == StatusFailed
	}, "job never failed")

	time.Sleep(50 * time.Millisecond)
	if runs.Load() != 1 {
		t.Errorf("failed job ran %d times, want exactly 1", runs.Load())
	}
}

func TestShutdownDrainsQueuedJobs(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 16, DrainTimeout: 5 * time.Second}, zerolog.Nop())

	gate := make(chan struct{})
	var executed atomic.Int32
	d.Register(KindRecommendation, func(_ context.Context, job Job) error {
		if job.EntityID == 1 {
			<-gate
		}
		executed.Add(1)
		return nil
	})

	stop := startDispatcher(t, d)

	if _, err := d.Submit(KindRecommendation, 1); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	waitFor(t, func() bool {
		rec, ok := d.Status(1, KindRecommendation)
		return ok && rec.Status == StatusRunning
	}, "blocker never started")

	for id := 2; id <= 5; id++ {
		if _, err := d.Submit(KindRecommendation, id); err != nil {
			t.Fatalf("Submit(%d) error: %v", id, err)
		}
	}

	// Release the blocker once shutdown begins, then verify every queued job
	// still executed before Serve returned.
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(gate)
	}()
	stop()

	if executed.Load() != 5 {
		t.Errorf("drain executed %d jobs, want 5", executed.Load())
	}

	_, err := d.Submit(KindRecommendation, 99)
	if !errors.Is(err, ErrShuttingDown) {
		t.Errorf("expected ErrShuttingDown after drain, got %v", err)
	}
}

func TestServeRestartAfterDrain(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 4}, zerolog.Nop())
	d.Register(KindEmbedding, func(_ context.Context, _ Job) error { return nil })

	// A supervisor may restart a service that returned; a second Serve after
	// the drain must come up and shut down cleanly rather than panic.
	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = d.Serve(ctx)
			close(done)
		}()
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("Serve %d did not return", i)
		}
	}

	if _, err := d.Submit(KindEmbedding, 1); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("expected ErrShuttingDown after drain, got %v", err)
	}
}

func TestSubmitUnknownKind(t *testing.T) {
	d := New(Config{}, zerolog.Nop())

	_, err := d.Submit(JobKind("reindex"), 1)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestStatusUnknownPair(t *testing.T) {
	d := New(Config{}, zerolog.Nop())

	if _, ok := d.Status(1, KindEmbedding); ok {
		t.Error("expected no record for never-submitted pair")
	}
}

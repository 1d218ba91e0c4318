// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockScorer implements Scorer for testing.
type mockScorer struct {
	name   string
	result []ScoredDoc
	err    error
	calls  int
	mu     sync.Mutex
}

func (m *mockScorer) Name() string { return m.name }

func (m *mockScorer) Score(_ context.Context, _ int, _ *Snapshot) ([]ScoredDoc, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockProvider implements DataProvider for testing.
type mockProvider struct {
	snap *Snapshot
	err  error
}

func (m *mockProvider) LoadSnapshot(_ context.Context) (*Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

// mockStore implements RecommendationStore with an in-memory per-user set.
type mockStore struct {
	mu       sync.Mutex
	sets     map[int][]Recommendation
	replaces int
	err      error
}

func newMockStore() *mockStore {
	return &mockStore{sets: make(map[int][]Recommendation)}
}

func (m *mockStore) ReplaceRecommendations(_ context.Context, userID int, recs []Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.replaces++
	m.sets[userID] = append([]Recommendation(nil), recs...)
	return nil
}

func (m *mockStore) Recommendations(_ context.Context, userID, limit int) ([]Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.sets[userID]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func newTestEngine(t *testing.T, cf, cb, pop Scorer, provider DataProvider, store RecommendationStore) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), cf, cb, pop, provider, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return e
}

func engineSnapshot() *Snapshot {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	docs := []Document{
		{ID: 1, Approved: true, UpdatedAt: now},
		{ID: 2, Approved: true, UpdatedAt: now},
		{ID: 3, Approved: true, UpdatedAt: now},
	}
	return NewSnapshot(docs, nil, nil, SnapshotParams{})
}

func TestRefreshPersistsHybridSet(t *testing.T) {
	cf := &mockScorer{name: "cf", result: []ScoredDoc{{DocumentID: 1, Score: 5}, {DocumentID: 2, Score: 3}}}
	cb := &mockScorer{name: "cb", result: []ScoredDoc{{DocumentID: 2, Score: 0.8}}}
	pop := &mockScorer{name: "popularity"}
	store := newMockStore()

	e := newTestEngine(t, cf, cb, pop, &mockProvider{snap: engineSnapshot()}, store)
	if err := e.Refresh(context.Background(), 7); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	recs, _ := e.Recommendations(context.Background(), 7, 0)
	if len(recs) != 2 {
		t.Fatalf("expected 2 persisted rows, got %v", recs)
	}
	for _, r := range recs {
		if r.Strategy != StrategyHybrid {
			t.Errorf("strategy = %q, want %q", r.Strategy, StrategyHybrid)
		}
		if r.UserID != 7 {
			t.Errorf("user id = %d, want 7", r.UserID)
		}
	}
	if pop.calls != 0 {
		t.Error("popularity fallback must not run when scorers produced results")
	}
}

func TestRefreshColdStartUsesPopularity(t *testing.T) {
	cf := &mockScorer{name: "cf"}
	cb := &mockScorer{name: "cb"}
	pop := &mockScorer{name: "popularity", result: []ScoredDoc{{DocumentID: 3, Score: 0.9}}}
	store := newMockStore()

	e := newTestEngine(t, cf, cb, pop, &mockProvider{snap: engineSnapshot()}, store)
	if err := e.Refresh(context.Background(), 9); err != nil {
		t.Fatalf("cold start refresh must succeed: %v", err)
	}

	recs, _ := e.Recommendations(context.Background(), 9, 0)
	if len(recs) != 1 || recs[0].Strategy != StrategyPopularity {
		t.Errorf("expected popularity strategy rows, got %v", recs)
	}
}

func TestRefreshScorerFailureLeavesPriorSet(t *testing.T) {
	store := newMockStore()
	prior := []Recommendation{{UserID: 5, DocumentID: 99, Score: 1, Strategy: StrategyHybrid}}
	store.sets[5] = prior

	cf := &mockScorer{name: "cf", err: errors.New("malformed interaction data")}
	cb := &mockScorer{name: "cb", result: []ScoredDoc{{DocumentID: 1, Score: 1}}}
	pop := &mockScorer{name: "popularity"}

	e := newTestEngine(t, cf, cb, pop, &mockProvider{snap: engineSnapshot()}, store)
	if err := e.Refresh(context.Background(), 5); err == nil {
		t.Fatal("expected refresh to fail")
	}

	recs, _ := e.Recommendations(context.Background(), 5, 10)
	if len(recs) != 1 || recs[0].DocumentID != 99 {
		t.Errorf("prior set must remain untouched after failure, got %v", recs)
	}
	if store.replaces != 0 {
		t.Errorf("no replace must happen on failure, got %d", store.replaces)
	}
}

func TestRefreshProviderFailure(t *testing.T) {
	e := newTestEngine(t,
		&mockScorer{name: "cf"}, &mockScorer{name: "cb"}, &mockScorer{name: "popularity"},
		&mockProvider{err: errors.New("db unavailable")}, newMockStore())

	if err := e.Refresh(context.Background(), 1); err == nil {
		t.Fatal("expected error from provider failure")
	}
}

func TestRefreshRunsScorersConcurrently(t *testing.T) {
	cf := &mockScorer{name: "cf", result: []ScoredDoc{{DocumentID: 1, Score: 1}}}
	cb := &mockScorer{name: "cb", result: []ScoredDoc{{DocumentID: 2, Score: 1}}}
	store := newMockStore()

	e := newTestEngine(t, cf, cb, &mockScorer{name: "popularity"}, &mockProvider{snap: engineSnapshot()}, store)
	if err := e.Refresh(context.Background(), 1); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	if cf.calls != 1 || cb.calls != 1 {
		t.Errorf("each scorer must run exactly once, got cf=%d cb=%d", cf.calls, cb.calls)
	}
}

func TestRecommendationsLimitClamped(t *testing.T) {
	store := newMockStore()
	for i := 1; i <= 15; i++ {
		store.sets[1] = append(store.sets[1], Recommendation{UserID: 1, DocumentID: i, Score: float64(15 - i)})
	}

	e := newTestEngine(t,
		&mockScorer{name: "cf"}, &mockScorer{name: "cb"}, &mockScorer{name: "popularity"},
		&mockProvider{snap: engineSnapshot()}, store)

	recs, err := e.Recommendations(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("Recommendations() error: %v", err)
	}
	if len(recs) != 10 {
		t.Errorf("limit must clamp to configured top N (10), got %d", len(recs))
	}
}

func TestNewEngineValidation(t *testing.T) {
	bad := &Config{TopN: 0}
	_, err := NewEngine(bad, &mockScorer{}, &mockScorer{}, &mockScorer{}, &mockProvider{}, newMockStore(), zerolog.Nop())
	if err == nil {
		t.Error("expected config validation error")
	}

	_, err = NewEngine(DefaultConfig(), &mockScorer{}, &mockScorer{}, &mockScorer{}, nil, nil, zerolog.Nop())
	if err == nil {
		t.Error("expected error for missing provider/store")
	}
}

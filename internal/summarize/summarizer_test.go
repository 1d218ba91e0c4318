// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package summarize

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSummarizeLeadingSentences(t *testing.T) {
	s := New(50)

	text := "First sentence here. Second one fits too. Third is dropped entirely."
	got := s.Summarize(text)
	want := "First sentence here. Second one fits too."
	if got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}

func TestSummarizeRespectsBudget(t *testing.T) {
	s := New(100)

	text := strings.Repeat("Sentence number n goes here. ", 20)
	got := s.Summarize(text)
	if n := len([]rune(got)); n > 100 {
		t.Errorf("summary length %d exceeds budget 100", n)
	}
	if got == "" {
		t.Error("expected at least one sentence")
	}
}

func TestSummarizeLongFirstSentenceHardCut(t *testing.T) {
	s := New(10)

	got := s.Summarize("this single sentence is much longer than the budget allows.")
	if len([]rune(got)) != 10 {
		t.Errorf("expected hard cut at 10 runes, got %d (%q)", len([]rune(got)), got)
	}
}

func TestSummarizeEmptyText(t *testing.T) {
	s := New(100)

	for _, text := range []string{"", "   ", "\n\t"} {
		if got := s.Summarize(text); got != "" {
			t.Errorf("Summarize(%q) = %q, want empty", text, got)
		}
	}
}

func TestSummarizeQuestionAndExclamation(t *testing.T) {
	s := New(30)

	got := s.Summarize("Is this a question? Yes! And a very long trailing sentence that cannot fit.")
	if got != "Is this a question? Yes!" {
		t.Errorf("Summarize() = %q", got)
	}
}

func TestSummarizeDecimalNotSentenceBoundary(t *testing.T) {
	s := New(80)

	got := s.Summarize("Version 2.5 shipped last week. It fixes the importer.")
	if got != "Version 2.5 shipped last week. It fixes the importer." {
		t.Errorf("decimal point split a sentence: %q", got)
	}
}

type mockSource struct {
	text string
	err  error
}

func (m *mockSource) Text(_ context.Context, _ int) (string, error) {
	return m.text, m.err
}

type mockSummaryStore struct {
	saved map[int]string
}

func (m *mockSummaryStore) SaveSummary(_ context.Context, documentID int, summary string) error {
	if m.saved == nil {
		m.saved = make(map[int]string)
	}
	m.saved[documentID] = summary
	return nil
}

func TestServiceGenerate(t *testing.T) {
	store := &mockSummaryStore{}
	svc := NewService(&mockSource{text: "A short report. With details."}, New(100), store, zerolog.Nop())

	if err := svc.Generate(context.Background(), 3); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if store.saved[3] != "A short report. With details." {
		t.Errorf("persisted summary = %q", store.saved[3])
	}
}

func TestServiceGenerateEmptySourceClears(t *testing.T) {
	store := &mockSummaryStore{saved: map[int]string{3: "old summary"}}
	svc := NewService(&mockSource{text: "  "}, New(100), store, zerolog.Nop())

	if err := svc.Generate(context.Background(), 3); err != nil {
		t.Fatalf("empty source must not error: %v", err)
	}
	if store.saved[3] != "" {
		t.Errorf("expected cleared summary, got %q", store.saved[3])
	}
}

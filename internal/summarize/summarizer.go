// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package summarize generates extractive document summaries: the leading
// sentences of the source text up to a rune budget. No language model is
// involved; the summary is a deterministic function of the text.
package summarize

import "strings"

// DefaultMaxRunes is the summary budget used when none is configured.
const DefaultMaxRunes = 480

// Summarizer extracts leading sentences within a rune budget.
type Summarizer struct {
	maxRunes int
}

// New creates a summarizer with the given rune budget.
func New(maxRunes int) *Summarizer {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}
	return &Summarizer{maxRunes: maxRunes}
}

// Summarize returns the first sentences of text that fit the budget. A first
// sentence longer than the budget is cut at the budget. Whitespace-only text
// yields the empty string.
func (s *Summarizer) Summarize(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	var b strings.Builder
	used := 0
	for i, sentence := range sentences {
		n := len([]rune(sentence))
		sep := 0
		if i > 0 {
			sep = 1
		}
		if used+sep+n > s.maxRunes {
			break
		}
		if sep == 1 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
		used += sep + n
	}

	if b.Len() == 0 {
		// First sentence alone exceeds the budget: hard cut.
		runes := []rune(sentences[0])
		return string(runes[:s.maxRunes])
	}
	return b.String()
}

// splitSentences breaks text on terminal punctuation followed by whitespace
// or end of input, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			end := i + 1
			if end < len(runes) && !isSpace(runes[end]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start:end])); s != "" {
				sentences = append(sentences, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

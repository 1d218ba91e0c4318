// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package embedding computes deterministic document vectors by feature
// hashing. Vectors depend only on the multiset of normalized keywords in a
// document's text: the same keywords in any order always hash to the same
// vector, so recomputation is idempotent and needs no model state.
package embedding

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDim is the embedding dimensionality used when none is configured.
const DefaultDim = 64

// Vectorizer hashes keyword bags into fixed-dimension vectors.
type Vectorizer struct {
	dim int
}

// NewVectorizer creates a vectorizer with the given dimensionality.
func NewVectorizer(dim int) *Vectorizer {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Vectorizer{dim: dim}
}

// Dim returns the vector dimensionality.
func (v *Vectorizer) Dim() int {
	return v.dim
}

// Vector computes the feature-hash vector for a text. Each keyword maps to
// the FNV-1a hash of its bytes modulo the dimension; term frequencies
// accumulate and the result is L2-normalized. Text with no usable keywords
// yields nil.
func (v *Vectorizer) Vector(text string) []float64 {
	keywords := Tokenize(text)
	if len(keywords) == 0 {
		return nil
	}

	vec := make([]float64, v.dim)
	for _, kw := range keywords {
		h := fnv.New32a()
		_, _ = h.Write([]byte(kw))
		vec[int(h.Sum32())%v.dim]++
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}

	return vec
}

// Tokenize splits text into normalized keywords: lowercased runs of letters
// and digits, dropping single-rune fragments.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	keywords := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

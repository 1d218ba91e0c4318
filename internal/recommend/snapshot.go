// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package recommend

// Snapshot is an immutable view of documents, interactions, and embeddings
// loaded once per refresh. Derived indexes (liked sets, effective ratings)
// are built eagerly so scorers can share them without recomputation.
//
// A snapshot is never mutated after construction and is therefore safe to
// share across the scorers running concurrently within one refresh.
type Snapshot struct {
	// Documents indexes all documents by id, approved or not. Scorers are
	// responsible for restricting candidates to approved documents.
	Documents map[int]Document

	// Interactions is the full immutable interaction history.
	Interactions []Interaction

	// Embeddings holds the stored vector per document id. Absence is a
	// valid state.
	Embeddings map[int][]float64

	// liked maps userID -> set of liked document ids.
	liked map[int]map[int]struct{}

	// ratings maps userID -> documentID -> effective rating: the explicit
	// rating when present, otherwise the configured bookmark rating for
	// bookmark-only interactions.
	ratings map[int]map[int]int
}

// SnapshotParams fixes the liked-set semantics for a snapshot.
type SnapshotParams struct {
	// LikedThreshold is the minimum explicit rating that counts as liked.
	LikedThreshold int

	// BookmarkRating is the effective rating a bookmark contributes when no
	// explicit rating exists for the same (user, document).
	BookmarkRating int
}

// NewSnapshot builds a snapshot with its derived indexes.
func NewSnapshot(docs []Document, interactions []Interaction, embeddings map[int][]float64, params SnapshotParams) *Snapshot {
	if params.LikedThreshold <= 0 {
		params.LikedThreshold = 4
	}
	if params.BookmarkRating <= 0 {
		params.BookmarkRating = 5
	}
	if embeddings == nil {
		embeddings = make(map[int][]float64)
	}

	s := &Snapshot{
		Documents:    make(map[int]Document, len(docs)),
		Interactions: interactions,
		Embeddings:   embeddings,
		liked:        make(map[int]map[int]struct{}),
		ratings:      make(map[int]map[int]int),
	}

	for _, d := range docs {
		s.Documents[d.ID] = d
	}

	for _, in := range interactions {
		likedNow := false
		switch in.Kind {
		case KindRating:
			if in.Rating >= params.LikedThreshold {
				likedNow = true
			}
			s.setRating(in.UserID, in.DocumentID, in.Rating)
		case KindBookmark:
			likedNow = true
			// Explicit ratings win over the bookmark default.
			if _, ok := s.ratings[in.UserID][in.DocumentID]; !ok {
				s.setRating(in.UserID, in.DocumentID, params.BookmarkRating)
			}
		}

		if likedNow {
			if s.liked[in.UserID] == nil {
				s.liked[in.UserID] = make(map[int]struct{})
			}
			s.liked[in.UserID][in.DocumentID] = struct{}{}
		}
	}

	return s
}

// setRating records an effective rating, letting explicit ratings overwrite
// a previously seen bookmark default.
func (s *Snapshot) setRating(userID, docID, rating int) {
	if s.ratings[userID] == nil {
		s.ratings[userID] = make(map[int]int)
	}
	if cur, ok := s.ratings[userID][docID]; !ok || rating > 0 && cur != rating {
		s.ratings[userID][docID] = rating
	}
}

// Liked returns the set of document ids the user likes: rated at or above
// the threshold, or bookmarked. The returned map must not be modified.
func (s *Snapshot) Liked(userID int) map[int]struct{} {
	return s.liked[userID]
}

// EffectiveRating returns the rating the user contributes for a document in
// similarity-weighted averages, and whether one exists.
func (s *Snapshot) EffectiveRating(userID, docID int) (int, bool) {
	r, ok := s.ratings[userID][docID]
	return r, ok
}

// UsersWithLikes returns the ids of all users with a non-empty liked set.
func (s *Snapshot) UsersWithLikes() []int {
	users := make([]int, 0, len(s.liked))
	for id := range s.liked {
		users = append(users, id)
	}
	return users
}

// Approved reports whether the document exists and is approved.
func (s *Snapshot) Approved(docID int) bool {
	d, ok := s.Documents[docID]
	return ok && d.Approved
}

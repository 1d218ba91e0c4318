// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package events defines the application's trigger events and the in-process
// pub/sub plumbing that turns them into dispatcher submissions. Everything
// runs over Watermill's gochannel transport; there is no external broker.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Topic names. One topic per event type.
const (
	TopicDocumentCreated    = "document.created"
	TopicInteractionChanged = "interaction.changed"
	TopicDocumentUploaded   = "document.uploaded"
)

// DocumentCreated fires when a document record enters the system.
type DocumentCreated struct {
	EventID         string    `json:"event_id"`
	DocumentID      int       `json:"document_id"`
	HasAttachedFile bool      `json:"has_attached_file"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// InteractionChanged fires when a user rates, bookmarks, or removes an
// interaction with a document.
type InteractionChanged struct {
	EventID    string    `json:"event_id"`
	UserID     int       `json:"user_id"`
	DocumentID int       `json:"document_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DocumentUploaded fires when a file is attached to an existing document.
type DocumentUploaded struct {
	EventID    string    `json:"event_id"`
	DocumentID int       `json:"document_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewDocumentCreated creates the event with id and timestamp populated.
func NewDocumentCreated(documentID int, hasAttachedFile bool) DocumentCreated {
	return DocumentCreated{
		EventID:         uuid.NewString(),
		DocumentID:      documentID,
		HasAttachedFile: hasAttachedFile,
		OccurredAt:      time.Now().UTC(),
	}
}

// NewInteractionChanged creates the event with id and timestamp populated.
func NewInteractionChanged(userID, documentID int) InteractionChanged {
	return InteractionChanged{
		EventID:    uuid.NewString(),
		UserID:     userID,
		DocumentID: documentID,
		OccurredAt: time.Now().UTC(),
	}
}

// NewDocumentUploaded creates the event with id and timestamp populated.
func NewDocumentUploaded(documentID int) DocumentUploaded {
	return DocumentUploaded{
		EventID:    uuid.NewString(),
		DocumentID: documentID,
		OccurredAt: time.Now().UTC(),
	}
}

// marshalEvent serializes an event payload.
func marshalEvent(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}

// unmarshalEvent deserializes an event payload.
func unmarshalEvent(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	return nil
}

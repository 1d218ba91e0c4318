// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher emits trigger events. The web handlers and the importer publish
// through it; they never talk to the dispatcher directly.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// DocumentCreated publishes a document.created event.
func (p *Publisher) DocumentCreated(evt DocumentCreated) error {
	return p.publish(TopicDocumentCreated, evt.EventID, evt)
}

// InteractionChanged publishes an interaction.changed event.
func (p *Publisher) InteractionChanged(evt InteractionChanged) error {
	return p.publish(TopicInteractionChanged, evt.EventID, evt)
}

// DocumentUploaded publishes a document.uploaded event.
func (p *Publisher) DocumentUploaded(evt DocumentUploaded) error {
	return p.publish(TopicDocumentUploaded, evt.EventID, evt)
}

func (p *Publisher) publish(topic, eventID string, evt any) error {
	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}
	if err := p.pub.Publish(topic, message.NewMessage(eventID, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

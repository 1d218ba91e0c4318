// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/dispatch"
)

// Submitter is the dispatcher's admission surface. Satisfied by
// *dispatch.Dispatcher.
type Submitter interface {
	Submit(kind dispatch.JobKind, entityID int) (string, error)
}

// Router subscribes to the trigger topics and converts each event into
// dispatcher submissions. A full queue at this boundary is logged and the
// event dropped; events are fire-and-forget triggers, not durable commands.
type Router struct {
	router *message.Router
	logger zerolog.Logger
}

// NewRouter wires the trigger topics to the dispatcher.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(sub message.Subscriber, submitter Submitter, logger zerolog.Logger) (*Router, error) {
	wmLogger := NewLoggerAdapter(logger)

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 10 * time.Second,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	wmRouter.AddMiddleware(middleware.Recoverer)

	r := &Router{
		router: wmRouter,
		logger: logger.With().Str("component", "events").Logger(),
	}

	wmRouter.AddNoPublisherHandler("document-created", TopicDocumentCreated, sub,
		r.handleDocumentCreated(submitter))
	wmRouter.AddNoPublisherHandler("interaction-changed", TopicInteractionChanged, sub,
		r.handleInteractionChanged(submitter))
	wmRouter.AddNoPublisherHandler("document-uploaded", TopicDocumentUploaded, sub,
		r.handleDocumentUploaded(submitter))

	return r, nil
}

// handleDocumentCreated submits the embedding job, plus a summary job when
// the document arrived with an attached file.
func (r *Router) handleDocumentCreated(submitter Submitter) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var evt DocumentCreated
		if err := unmarshalEvent(msg.Payload, &evt); err != nil {
			return err
		}

		if evt.HasAttachedFile {
			r.submit(submitter, dispatch.KindSummary, evt.DocumentID)
		}
		r.submit(submitter, dispatch.KindEmbedding, evt.DocumentID)
		return nil
	}
}

// handleInteractionChanged submits a recommendation refresh for the user.
func (r *Router) handleInteractionChanged(submitter Submitter) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var evt InteractionChanged
		if err := unmarshalEvent(msg.Payload, &evt); err != nil {
			return err
		}

		r.submit(submitter, dispatch.KindRecommendation, evt.UserID)
		return nil
	}
}

// handleDocumentUploaded submits an embedding recompute for the document.
func (r *Router) handleDocumentUploaded(submitter Submitter) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var evt DocumentUploaded
		if err := unmarshalEvent(msg.Payload, &evt); err != nil {
			return err
		}

		r.submit(submitter, dispatch.KindEmbedding, evt.DocumentID)
		return nil
	}
}

// submit performs one dispatcher submission with the drop-and-log policy:
// admission failures never nack the message.
func (r *Router) submit(submitter Submitter, kind dispatch.JobKind, entityID int) {
	_, err := submitter.Submit(kind, entityID)
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrQueueFull):
		r.logger.Warn().
			Str("kind", string(kind)).
			Int("entity_id", entityID).
			Msg("queue full, event dropped")
	case errors.Is(err, dispatch.ErrShuttingDown):
		r.logger.Debug().
			Str("kind", string(kind)).
			Int("entity_id", entityID).
			Msg("dispatcher shutting down, event dropped")
	default:
		r.logger.Error().
			Err(err).
			Str("kind", string(kind)).
			Int("entity_id", entityID).
			Msg("event submission failed")
	}
}

// Serve runs the router until ctx is cancelled. Implements suture.Service.
func (r *Router) Serve(ctx context.Context) error {
	return r.router.Run(ctx)
}

// String returns the service name for supervisor logging.
func (r *Router) String() string {
	return "events-router"
}

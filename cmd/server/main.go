// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Command server runs the Recshelf pipeline: the DuckDB store, the
// recommendation engine, the task dispatcher, the event router, and the
// operational HTTP API, all under one supervision tree.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/recshelf/recshelf/internal/api"
	"github.com/recshelf/recshelf/internal/config"
	"github.com/recshelf/recshelf/internal/dispatch"
	"github.com/recshelf/recshelf/internal/embedding"
	"github.com/recshelf/recshelf/internal/events"
	"github.com/recshelf/recshelf/internal/logging"
	"github.com/recshelf/recshelf/internal/recommend"
	"github.com/recshelf/recshelf/internal/store"
	"github.com/recshelf/recshelf/internal/summarize"
	"github.com/recshelf/recshelf/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration load failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logger.Info().
		Int("workers", cfg.Dispatch.Workers).
		Int("queue_size", cfg.Dispatch.QueueSize).
		Msg("starting recshelf")

	db, err := store.New(&cfg.Database, recommend.SnapshotParams{
		LikedThreshold: cfg.Recommend.LikedThreshold,
		BookmarkRating: cfg.Recommend.BookmarkRating,
	}, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("database initialization failed")
	}
	defer func() { _ = db.Close() }()

	app, err := buildApplication(cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("application wiring failed")
	}

	tree := supervisor.NewTree(
		slog.New(logging.NewSlogHandler()),
		supervisor.DefaultTreeConfig(),
	)
	tree.AddPipelineService(app.dispatcher)
	tree.AddPipelineService(app.router)
	tree.AddAPIService(app.server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("supervision tree failed")
	}

	logger.Info().Msg("recshelf stopped")
}

// application holds the supervised services.
type application struct {
	dispatcher *dispatch.Dispatcher
	router     *events.Router
	server     *api.Server
}

// buildApplication wires services to the store and to each other.
func buildApplication(cfg *config.Config, db *store.DB) (*application, error) {
	logger := logging.Logger()

	engine, err := buildEngine(cfg, db)
	if err != nil {
		return nil, err
	}

	embeddingSvc := embedding.NewService(
		embedding.NewMetadataSource(db),
		embedding.NewVectorizer(cfg.Embedding.Dim),
		db,
		logger,
	)

	summarySvc := summarize.NewService(
		&contentSource{db: db},
		summarize.New(cfg.Summary.MaxRunes),
		db,
		logger,
	)

	dispatcher := dispatch.New(dispatch.Config{
		Workers:      cfg.Dispatch.Workers,
		QueueSize:    cfg.Dispatch.QueueSize,
		DrainTimeout: cfg.Dispatch.DrainTimeout,
	}, logger)

	registerHandlers(dispatcher, engine, embeddingSvc, summarySvc, db, logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, events.NewLoggerAdapter(logger))
	router, err := events.NewRouter(pubsub, dispatcher, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(engine, embeddingSvc, dispatcher, db, logger)
	server := api.NewServer(cfg.Server, handler, logger)

	return &application{
		dispatcher: dispatcher,
		router:     router,
		server:     server,
	}, nil
}

// contentSource feeds the summarizer extracted file content only, so a
// previously generated summary never feeds back into the next one.
type contentSource struct {
	db *store.DB
}

func (c *contentSource) Text(ctx context.Context, documentID int) (string, error) {
	dt, err := c.db.DocumentText(ctx, documentID)
	if err != nil {
		return "", err
	}
	return dt.Content, nil
}

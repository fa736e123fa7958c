package main

import (
	"context"
	"fmt"
	"log"

	"github.com/pagetrail/pagetrail/config"
	"github.com/pagetrail/pagetrail/internal/capture"
	redisstore "github.com/pagetrail/pagetrail/internal/capture/redis"

	"github.com/pagetrail/pagetrail/internal/capture/inmemory"
	"github.com/pagetrail/pagetrail/internal/embed"
	"github.com/pagetrail/pagetrail/internal/vectorstore"
	"github.com/pagetrail/pagetrail/internal/vectorstore/flat"
	"github.com/pagetrail/pagetrail/internal/vectorstore/postgres"
)

// openVectorStore picks the configured backend.
func openVectorStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Storage.VectorBackend {
	case "postgres":
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return nil, err
		}
		return postgres.Open(ctx, dsn)
	case "flat":
		return flat.Open(cfg.Storage.FlatIndexPath)
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Storage.VectorBackend)
	}
}

func newEmbedClient(cfg *config.Config, logger *log.Logger) *embed.Client {
	return embed.NewClient(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.MaxChars,
		cfg.Embedding.Timeout,
		logger,
	)
}

func newCaptureStore(cfg *config.Config) (capture.Store, error) {
	switch cfg.Capture.Store {
	case "memory":
		return inmemory.NewStore(), nil
	case "redis":
		r := cfg.Storage.Redis
		return redisstore.NewStore(r.Addr(), r.Password, r.DB), nil
	default:
		return nil, fmt.Errorf("unknown capture store: %s", cfg.Capture.Store)
	}
}

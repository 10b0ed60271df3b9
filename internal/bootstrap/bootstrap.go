// Package bootstrap wires the therapist store and search index from configuration.
// It is shared by the api, importer and indexer binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/therapistdirectory/internal/adapters/cache"
	"github.com/zatekoja/therapistdirectory/internal/adapters/database"
	"github.com/zatekoja/therapistdirectory/internal/adapters/memory"
	"github.com/zatekoja/therapistdirectory/internal/adapters/search"
	"github.com/zatekoja/therapistdirectory/internal/domain/providers"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/clients/redis"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	"github.com/zatekoja/therapistdirectory/pkg/config"
)

const (
	cacheKeyPrefix = "therapistdirectory:"
	lruCacheSize   = 2048
)

// Store is an opened therapist store and the resources behind it
type Store struct {
	Repository repositories.TherapistRepository
	Postgres   *postgres.Client
	Redis      *redis.Client
	Cache      providers.CacheProvider
}

// Close releases the connections held by the store
func (s *Store) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close Redis client")
		}
	}
	if s.Postgres != nil {
		if err := s.Postgres.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close PostgreSQL client")
		}
	}
}

// OpenStore builds the repository selected by STORE_DRIVER. The postgres
// store is wrapped in a profile cache: Redis when reachable, otherwise an
// in-process LRU.
func OpenStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewTherapistStore()
		if cfg.Store.SeedFile != "" {
			seed, err := memory.LoadSeedFile(cfg.Store.SeedFile)
			if err != nil {
				return nil, err
			}
			store = memory.NewTherapistStore(seed...)
			log.Info().Int("therapists", len(seed)).Str("file", cfg.Store.SeedFile).Msg("memory store seeded")
		}
		return &Store{Repository: store}, nil

	case "postgres":
		pg, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}

		s := &Store{Postgres: pg}
		s.Cache, s.Redis = openCache(cfg)
		var repo repositories.TherapistRepository = database.NewTherapistAdapter(pg, metrics)
		if s.Cache != nil {
			repo = database.NewCachedTherapistAdapter(repo, s.Cache, metrics)
		}
		s.Repository = repo
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func openCache(cfg *config.Config) (providers.CacheProvider, *redis.Client) {
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Redis)
		if err == nil {
			return cache.NewRedisAdapter(client, cacheKeyPrefix), client
		}
		log.Warn().Err(err).Msg("Redis unavailable, using in-process profile cache")
	}

	lru, err := cache.NewLRUAdapter(lruCacheSize)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create in-process cache, running without profile cache")
		return nil, nil
	}
	return lru, nil
}

// OpenSearchIndex connects to Typesense and ensures the collection exists.
// It returns nil when the index is disabled or unreachable.
func OpenSearchIndex(ctx context.Context, cfg *config.Config) (*typesense.Client, *search.TypesenseAdapter) {
	if !cfg.Typesense.Enabled {
		return nil, nil
	}

	client, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, typeahead falls back to the store")
		return nil, nil
	}
	if err := client.InitSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to init Typesense schema")
	}
	return client, search.NewTypesenseAdapter(client)
}

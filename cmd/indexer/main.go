package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/therapistdirectory/internal/bootstrap"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	"github.com/zatekoja/therapistdirectory/pkg/config"
)

const indexBatchSize = 100

// documentIndexer is the part of the search index the reindexer writes to
type documentIndexer interface {
	Index(ctx context.Context, therapist *entities.Therapist) error
}

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	observability.InitLogger("therapist-indexer", cfg.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}
	interval, err := parseInterval(intervalValue)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid reindex interval")
	}

	// only the first run resets, even when repeating on an interval
	reset = resetRequested(reset, os.Getenv("RESET_TYPESENSE"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("interval", interval).Msg("reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func resetRequested(flagValue bool, env string) bool {
	return flagValue || strings.EqualFold(strings.TrimSpace(env), "true")
}

func parseInterval(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	interval, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", value, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be greater than zero")
	}
	return interval, nil
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	if !cfg.Typesense.Enabled {
		return fmt.Errorf("typesense is disabled, set TYPESENSE_ENABLED=true")
	}

	store, err := bootstrap.OpenStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	client, adapter := bootstrap.OpenSearchIndex(ctx, cfg)
	if adapter == nil {
		return fmt.Errorf("typesense is unreachable")
	}

	if reset {
		log.Info().Msg("reset requested, recreating therapists collection")
		if err := client.ResetSchema(ctx); err != nil {
			return err
		}
	}

	indexed, failed, err := reindex(ctx, store.Repository, adapter, indexBatchSize)
	log.Info().Int("indexed", indexed).Int("failed", failed).Msg("reindex finished")
	return err
}

// reindex walks every published therapist in name order and indexes it.
// Individual index failures are counted and logged; store errors abort.
func reindex(ctx context.Context, repo repositories.TherapistRepository, index documentIndexer, batchSize int) (indexed, failed int, err error) {
	pred := filters.NewPredicate(filters.Published())

	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return indexed, failed, err
		}

		batch, err := repo.Find(ctx, pred, batchSize, offset)
		if err != nil {
			return indexed, failed, fmt.Errorf("failed to list published therapists: %w", err)
		}

		for _, t := range batch {
			if t == nil {
				continue
			}
			if err := index.Index(ctx, t); err != nil {
				failed++
				log.Warn().Err(err).Str("therapist_id", t.ID).Msg("failed to index therapist")
				continue
			}
			indexed++
		}

		if len(batch) < batchSize {
			return indexed, failed, nil
		}
	}
}

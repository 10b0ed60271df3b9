package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/therapistdirectory/pkg/config"
	"github.com/zatekoja/therapistdirectory/pkg/retry"
)

const (
	TherapistsCollection = "therapists"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// TherapistSchema describes the typeahead collection
func TherapistSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: TherapistsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "slug", Type: "string", Index: pointer.False()},
			{Name: "name", Type: "string", Sort: pointer.True()},
			{Name: "credentials", Type: "string", Optional: pointer.True()},
			{Name: "city", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "state", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "remote", Type: "bool", Facet: pointer.True()},
			{Name: "issues", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "updated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("updated_at"),
	}
}

// InitSchema ensures the therapists collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.client.Collection(TherapistsCollection).Retrieve(ctx); err == nil {
		return nil
	}

	if _, err := c.client.Collections().Create(ctx, TherapistSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", TherapistsCollection).Msg("created Typesense collection")
	return nil
}

// ResetSchema drops and recreates the therapists collection
func (c *Client) ResetSchema(ctx context.Context) error {
	if _, err := c.client.Collection(TherapistsCollection).Delete(ctx); err != nil {
		log.Debug().Err(err).Msg("therapists collection did not exist before reset")
	}
	return c.InitSchema(ctx)
}

package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
	"github.com/zatekoja/therapistdirectory/internal/domain/providers"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	"golang.org/x/sync/singleflight"
)

// therapistTTL is the profile cache lifetime in seconds
const therapistTTL = 300

func therapistIDKey(id string) string {
	return fmt.Sprintf("therapist:id:%s", id)
}

func therapistSlugKey(slug string) string {
	return fmt.Sprintf("therapist:slug:%s", slug)
}

// CachedTherapistAdapter caches profile lookups. Count and Find always hit
// the wrapped repository so listing results are never served from cache.
type CachedTherapistAdapter struct {
	repo    repositories.TherapistRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
	group   singleflight.Group
}

var _ repositories.TherapistRepository = (*CachedTherapistAdapter)(nil)

// NewCachedTherapistAdapter creates a new cached therapist adapter. metrics may be nil.
func NewCachedTherapistAdapter(repo repositories.TherapistRepository, cache providers.CacheProvider, metrics *observability.Metrics) *CachedTherapistAdapter {
	return &CachedTherapistAdapter{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
	}
}

// Count delegates to the wrapped repository
func (a *CachedTherapistAdapter) Count(ctx context.Context, pred *filters.Predicate) (int, error) {
	return a.repo.Count(ctx, pred)
}

// Find delegates to the wrapped repository
func (a *CachedTherapistAdapter) Find(ctx context.Context, pred *filters.Predicate, limit, offset int) ([]*entities.Therapist, error) {
	return a.repo.Find(ctx, pred, limit, offset)
}

// GetByID retrieves a therapist by ID with caching
func (a *CachedTherapistAdapter) GetByID(ctx context.Context, id string) (*entities.Therapist, error) {
	return a.cached(ctx, therapistIDKey(id), func() (*entities.Therapist, error) {
		return a.repo.GetByID(ctx, id)
	})
}

// GetBySlug retrieves a therapist by slug with caching
func (a *CachedTherapistAdapter) GetBySlug(ctx context.Context, slug string) (*entities.Therapist, error) {
	return a.cached(ctx, therapistSlugKey(slug), func() (*entities.Therapist, error) {
		return a.repo.GetBySlug(ctx, slug)
	})
}

func (a *CachedTherapistAdapter) cached(ctx context.Context, key string, load func() (*entities.Therapist, error)) (*entities.Therapist, error) {
	if data, err := a.cache.Get(ctx, key); err == nil {
		var therapist entities.Therapist
		if err := json.Unmarshal(data, &therapist); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "therapist")
			return &therapist, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cached therapist")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		log.Warn().Err(err).Str("key", key).Msg("therapist cache read failed")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "therapist")

	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		therapist, err := load()
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(therapist); err == nil {
			if err := a.cache.Set(ctx, key, data, therapistTTL); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to cache therapist")
			}
		}
		return therapist, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share a pointer
	copied := *v.(*entities.Therapist)
	return &copied, nil
}

// Create delegates to the wrapped repository
func (a *CachedTherapistAdapter) Create(ctx context.Context, therapist *entities.Therapist) error {
	return a.repo.Create(ctx, therapist)
}

// Update writes through and invalidates the id key and both old and new slug keys
func (a *CachedTherapistAdapter) Update(ctx context.Context, therapist *entities.Therapist) error {
	keys := []string{therapistIDKey(therapist.ID)}
	if previous, err := a.repo.GetByID(ctx, therapist.ID); err == nil && previous.Slug != "" && previous.Slug != therapist.Slug {
		keys = append(keys, therapistSlugKey(previous.Slug))
	}
	if therapist.Slug != "" {
		keys = append(keys, therapistSlugKey(therapist.Slug))
	}

	if err := a.repo.Update(ctx, therapist); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("therapist_id", therapist.ID).Msg("failed to invalidate therapist cache")
	}
	return nil
}

// SlugExists delegates to the wrapped repository
func (a *CachedTherapistAdapter) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return a.repo.SlugExists(ctx, slug, excludeID)
}

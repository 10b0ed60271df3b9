package repositories

import (
	"context"

	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
)

// TherapistRepository defines the interface for therapist data operations
type TherapistRepository interface {
	// Count returns the number of therapists matching the predicate
	Count(ctx context.Context, pred *filters.Predicate) (int, error)

	// Find returns one page of matching therapists ordered by name, then id
	Find(ctx context.Context, pred *filters.Predicate, limit, offset int) ([]*entities.Therapist, error)

	// GetByID retrieves a therapist by ID
	GetByID(ctx context.Context, id string) (*entities.Therapist, error)

	// GetBySlug retrieves a therapist by public slug
	GetBySlug(ctx context.Context, slug string) (*entities.Therapist, error)

	// Create creates a new therapist
	Create(ctx context.Context, therapist *entities.Therapist) error

	// Update updates a therapist
	Update(ctx context.Context, therapist *entities.Therapist) error

	// SlugExists reports whether any therapist other than excludeID holds slug
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}

// TherapistSearchRepository defines the name typeahead index (e.g. Typesense)
type TherapistSearchRepository interface {
	// Index indexes a published therapist
	Index(ctx context.Context, therapist *entities.Therapist) error

	// Delete removes a therapist from the index
	Delete(ctx context.Context, id string) error

	// Suggest returns published therapists whose name starts with prefix
	Suggest(ctx context.Context, prefix string, limit int) ([]*entities.TherapistSuggestion, error)
}

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
)

// TherapistStore is an in-process TherapistRepository that evaluates
// predicates clause by clause. It backs local development and service tests.
type TherapistStore struct {
	mu         sync.RWMutex
	therapists map[string]*entities.Therapist
}

var _ repositories.TherapistRepository = (*TherapistStore)(nil)

// NewTherapistStore creates a store holding copies of the given therapists
func NewTherapistStore(seed ...*entities.Therapist) *TherapistStore {
	s := &TherapistStore{therapists: make(map[string]*entities.Therapist, len(seed))}
	for _, t := range seed {
		s.therapists[t.ID] = clone(t)
	}
	return s
}

// LoadSeedFile reads a JSON array of therapists
func LoadSeedFile(path string) ([]*entities.Therapist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var therapists []*entities.Therapist
	if err := json.Unmarshal(data, &therapists); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return therapists, nil
}

// Count returns the number of therapists matching the predicate
func (s *TherapistStore) Count(ctx context.Context, pred *filters.Predicate) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.therapists {
		if pred.Matches(t) {
			n++
		}
	}
	return n, nil
}

// Find returns one page of matching therapists ordered by lower-cased name, then id
func (s *TherapistStore) Find(ctx context.Context, pred *filters.Predicate, limit, offset int) ([]*entities.Therapist, error) {
	s.mu.RLock()
	matched := make([]*entities.Therapist, 0)
	for _, t := range s.therapists {
		if pred.Matches(t) {
			matched = append(matched, clone(t))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := strings.ToLower(matched[i].Name), strings.ToLower(matched[j].Name)
		if a != b {
			return a < b
		}
		return matched[i].ID < matched[j].ID
	})

	if offset >= len(matched) {
		return []*entities.Therapist{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// GetByID retrieves a therapist by ID
func (s *TherapistStore) GetByID(ctx context.Context, id string) (*entities.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.therapists[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("therapist with id %s not found", id))
	}
	return clone(t), nil
}

// GetBySlug retrieves a therapist by public slug
func (s *TherapistStore) GetBySlug(ctx context.Context, slug string) (*entities.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if slug != "" {
		for _, t := range s.therapists {
			if t.Slug == slug {
				return clone(t), nil
			}
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("therapist with slug %s not found", slug))
}

// Create creates a new therapist
func (s *TherapistStore) Create(ctx context.Context, therapist *entities.Therapist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.therapists[therapist.ID]; ok {
		return apperrors.NewConflictError(fmt.Sprintf("therapist %s already exists", therapist.ID))
	}
	s.therapists[therapist.ID] = clone(therapist)
	return nil
}

// Update updates a therapist
func (s *TherapistStore) Update(ctx context.Context, therapist *entities.Therapist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.therapists[therapist.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("therapist with id %s not found", therapist.ID))
	}
	if therapist.Slug != "" {
		for id, t := range s.therapists {
			if id != therapist.ID && t.Slug == therapist.Slug {
				return apperrors.NewConflictError(fmt.Sprintf("slug %s is already taken", therapist.Slug))
			}
		}
	}
	therapist.UpdatedAt = time.Now().UTC()
	s.therapists[therapist.ID] = clone(therapist)
	return nil
}

// SlugExists reports whether any therapist other than excludeID holds slug
func (s *TherapistStore) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, t := range s.therapists {
		if id != excludeID && t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func clone(t *entities.Therapist) *entities.Therapist {
	c := *t
	if t.UserID != nil {
		uid := *t.UserID
		c.UserID = &uid
	}
	c.Languages = append([]string(nil), t.Languages...)
	c.Issues = append([]string(nil), t.Issues...)
	c.Ages = append([]string(nil), t.Ages...)
	c.Communities = append([]string(nil), t.Communities...)
	c.TreatmentStyle = append([]string(nil), t.TreatmentStyle...)
	c.PaymentMethods = append([]string(nil), t.PaymentMethods...)
	return &c
}

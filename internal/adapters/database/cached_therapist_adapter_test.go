package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/therapistdirectory/internal/adapters/cache"
	"github.com/zatekoja/therapistdirectory/internal/adapters/database"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
)

type MockTherapistRepository struct {
	mock.Mock
}

func (m *MockTherapistRepository) Count(ctx context.Context, pred *filters.Predicate) (int, error) {
	args := m.Called(ctx, pred)
	return args.Int(0), args.Error(1)
}

func (m *MockTherapistRepository) Find(ctx context.Context, pred *filters.Predicate, limit, offset int) ([]*entities.Therapist, error) {
	args := m.Called(ctx, pred, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Therapist), args.Error(1)
}

func (m *MockTherapistRepository) GetByID(ctx context.Context, id string) (*entities.Therapist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Therapist), args.Error(1)
}

func (m *MockTherapistRepository) GetBySlug(ctx context.Context, slug string) (*entities.Therapist, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Therapist), args.Error(1)
}

func (m *MockTherapistRepository) Create(ctx context.Context, therapist *entities.Therapist) error {
	return m.Called(ctx, therapist).Error(0)
}

func (m *MockTherapistRepository) Update(ctx context.Context, therapist *entities.Therapist) error {
	return m.Called(ctx, therapist).Error(0)
}

func (m *MockTherapistRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func newCached(t *testing.T) (*database.CachedTherapistAdapter, *MockTherapistRepository) {
	t.Helper()
	lru, err := cache.NewLRUAdapter(16)
	require.NoError(t, err)
	repo := new(MockTherapistRepository)
	return database.NewCachedTherapistAdapter(repo, lru, nil), repo
}

func TestCachedTherapistAdapter_GetByIDCaches(t *testing.T) {
	adapter, repo := newCached(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, "t-1").Return(&entities.Therapist{ID: "t-1", Name: "Jane Doe"}, nil).Once()

	first, err := adapter.GetByID(ctx, "t-1")
	require.NoError(t, err)
	second, err := adapter.GetByID(ctx, "t-1")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", first.Name)
	assert.Equal(t, "Jane Doe", second.Name)
	repo.AssertExpectations(t)
}

func TestCachedTherapistAdapter_UpdateInvalidatesOldAndNewSlug(t *testing.T) {
	adapter, repo := newCached(t)
	ctx := context.Background()

	repo.On("GetBySlug", ctx, "jane-doe").Return(&entities.Therapist{ID: "t-1", Slug: "jane-doe", Name: "Jane Doe"}, nil).Once()
	_, err := adapter.GetBySlug(ctx, "jane-doe")
	require.NoError(t, err)

	updated := &entities.Therapist{ID: "t-1", Slug: "jane-m-doe", Name: "Jane M. Doe"}
	repo.On("GetByID", ctx, "t-1").Return(&entities.Therapist{ID: "t-1", Slug: "jane-doe", Name: "Jane Doe"}, nil).Once()
	repo.On("Update", ctx, updated).Return(nil).Once()
	require.NoError(t, adapter.Update(ctx, updated))

	repo.On("GetBySlug", ctx, "jane-doe").Return(nil, assert.AnError).Once()
	_, err = adapter.GetBySlug(ctx, "jane-doe")
	assert.ErrorIs(t, err, assert.AnError)

	repo.AssertExpectations(t)
}

func TestCachedTherapistAdapter_ListingBypassesCache(t *testing.T) {
	adapter, repo := newCached(t)
	ctx := context.Background()
	pred := filters.NewPredicate(filters.Published())

	repo.On("Count", ctx, pred).Return(3, nil).Twice()
	repo.On("Find", ctx, pred, 10, 0).Return([]*entities.Therapist{}, nil).Twice()

	for i := 0; i < 2; i++ {
		_, err := adapter.Count(ctx, pred)
		require.NoError(t, err)
		_, err = adapter.Find(ctx, pred, 10, 0)
		require.NoError(t, err)
	}
	repo.AssertExpectations(t)
}

func TestCachedTherapistAdapter_ErrorsAreNotCached(t *testing.T) {
	adapter, repo := newCached(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, "t-9").Return(nil, assert.AnError).Twice()

	for i := 0; i < 2; i++ {
		_, err := adapter.GetByID(ctx, "t-9")
		assert.Error(t, err)
	}
	repo.AssertExpectations(t)
}

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/therapistdirectory/internal/adapters/memory"
	"github.com/zatekoja/therapistdirectory/internal/application/services"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
)

type MockTherapistSearchRepository struct {
	mock.Mock
}

func (m *MockTherapistSearchRepository) Index(ctx context.Context, therapist *entities.Therapist) error {
	return m.Called(ctx, therapist).Error(0)
}

func (m *MockTherapistSearchRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTherapistSearchRepository) Suggest(ctx context.Context, prefix string, limit int) ([]*entities.TherapistSuggestion, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TherapistSuggestion), args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestTherapistService_CreateStub(t *testing.T) {
	store := memory.NewTherapistStore()
	svc := services.NewTherapistService(store, nil)
	ctx := context.Background()

	stub, err := svc.CreateStub(ctx, entities.StubInput{UserID: "user-1", Name: " Jane Doe ", Email: "jane@example.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, stub.ID)
	assert.Equal(t, "Jane Doe", stub.Name)
	assert.Empty(t, stub.Slug)
	assert.False(t, stub.Published)
	require.NotNil(t, stub.UserID)
	assert.Equal(t, "user-1", *stub.UserID)

	stored, err := store.GetByID(ctx, stub.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", stored.Email)

	_, err = svc.CreateStub(ctx, entities.StubInput{UserID: "user-2"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestTherapistService_PublishAssignsUniqueSlugAndIndexes(t *testing.T) {
	store := memory.NewTherapistStore(
		&entities.Therapist{ID: "existing", Name: "Jane Doe", Slug: "jane-doe", Published: true},
		&entities.Therapist{ID: "new", Name: "Jane Doe"},
	)
	search := new(MockTherapistSearchRepository)
	svc := services.NewTherapistService(store, search)
	ctx := context.Background()

	search.On("Index", ctx, mock.MatchedBy(func(th *entities.Therapist) bool { return th.ID == "new" })).Return(nil).Once()

	published, err := svc.Publish(ctx, "new")
	require.NoError(t, err)

	assert.Equal(t, "jane-doe-2", published.Slug)
	assert.True(t, published.Published)

	profile, err := svc.GetPublicProfile(ctx, "jane-doe-2")
	require.NoError(t, err)
	assert.Equal(t, "new", profile.ID)
	search.AssertExpectations(t)
}

func TestTherapistService_PublishRequiresName(t *testing.T) {
	store := memory.NewTherapistStore(&entities.Therapist{ID: "t-1", Email: "x@example.com"})
	svc := services.NewTherapistService(store, nil)

	_, err := svc.Publish(context.Background(), "t-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestTherapistService_IndexFailureIsNotFatal(t *testing.T) {
	store := memory.NewTherapistStore(&entities.Therapist{ID: "t-1", Name: "Ana Ruiz"})
	search := new(MockTherapistSearchRepository)
	svc := services.NewTherapistService(store, search)
	ctx := context.Background()

	search.On("Index", ctx, mock.Anything).Return(errors.New("typesense down")).Once()

	published, err := svc.Publish(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "ana-ruiz", published.Slug)
	search.AssertExpectations(t)
}

func TestTherapistService_UnpublishHidesProfile(t *testing.T) {
	store := memory.NewTherapistStore(&entities.Therapist{ID: "t-1", Name: "Ana Ruiz", Slug: "ana-ruiz", Published: true})
	search := new(MockTherapistSearchRepository)
	svc := services.NewTherapistService(store, search)
	ctx := context.Background()

	search.On("Delete", ctx, "t-1").Return(nil).Once()

	_, err := svc.Unpublish(ctx, "t-1")
	require.NoError(t, err)

	_, err = svc.GetPublicProfile(ctx, "ana-ruiz")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	search.AssertExpectations(t)
}

func TestTherapistService_SaveProfileIsIncremental(t *testing.T) {
	store := memory.NewTherapistStore(&entities.Therapist{
		ID:        "t-1",
		Name:      "Ana Ruiz",
		Bio:       "Original bio",
		Languages: []string{"English"},
	})
	svc := services.NewTherapistService(store, nil)
	ctx := context.Background()

	langs := []string{" Spanish ", "English", "", "Spanish"}
	remote := true
	saved, err := svc.SaveProfile(ctx, "t-1", entities.ProfileUpdate{
		Tagline:   strPtr("Warm and direct"),
		Languages: &langs,
		Remote:    &remote,
	})
	require.NoError(t, err)

	assert.Equal(t, "Original bio", saved.Bio)
	assert.Equal(t, "Warm and direct", saved.Tagline)
	assert.Equal(t, []string{"Spanish", "English"}, saved.Languages)
	assert.True(t, saved.Remote)

	_, err = svc.SaveProfile(ctx, "missing", entities.ProfileUpdate{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestTherapistService_SaveProfileReindexesPublished(t *testing.T) {
	store := memory.NewTherapistStore(&entities.Therapist{ID: "t-1", Name: "Ana Ruiz", Slug: "ana-ruiz", Published: true})
	search := new(MockTherapistSearchRepository)
	svc := services.NewTherapistService(store, search)
	ctx := context.Background()

	search.On("Index", ctx, mock.MatchedBy(func(th *entities.Therapist) bool { return th.Name == "Ana M. Ruiz" })).Return(nil).Once()

	_, err := svc.SaveProfile(ctx, "t-1", entities.ProfileUpdate{Name: strPtr("Ana M. Ruiz")})
	require.NoError(t, err)

	_, err = svc.SaveProfile(ctx, "t-1", entities.ProfileUpdate{Name: strPtr("  ")})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	search.AssertExpectations(t)
}

func TestTherapistService_Import(t *testing.T) {
	store := memory.NewTherapistStore(&entities.Therapist{ID: "old", Name: "Ben Adams", Slug: "ben-adams", Published: true})
	svc := services.NewTherapistService(store, nil)
	ctx := context.Background()

	summary, err := svc.Import(ctx, []entities.ImportRecord{
		{Name: "Ben Adams", State: "Oregon", Issues: []string{"Grief", "grief", " "}},
		{Name: "  "},
		{Name: "Carla Díaz", City: "Portland"},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "record 2")

	ben, err := svc.GetPublicProfile(ctx, "ben-adams-2")
	require.NoError(t, err)
	assert.Equal(t, "Oregon", ben.Address.State)
	assert.Equal(t, []string{"Grief", "grief"}, ben.Issues)

	_, err = svc.GetPublicProfile(ctx, "carla-diaz")
	assert.NoError(t, err)
}

func TestTherapistService_ImportUnpublished(t *testing.T) {
	store := memory.NewTherapistStore()
	svc := services.NewTherapistService(store, nil)

	summary, err := svc.Import(context.Background(), []entities.ImportRecord{{Name: "Dana Lee"}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	suggestions, err := svc.Suggest(context.Background(), "Dana", 5)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestTherapistService_SuggestFallsBackToStore(t *testing.T) {
	store := memory.NewTherapistStore(
		&entities.Therapist{ID: "1", Name: "Ana Ruiz", Slug: "ana-ruiz", Published: true},
		&entities.Therapist{ID: "2", Name: "Andre Wu", Slug: "andre-wu", Published: true},
		&entities.Therapist{ID: "3", Name: "Ben Adams", Slug: "ben-adams", Published: true},
		&entities.Therapist{ID: "4", Name: "Anna Hidden"},
	)
	search := new(MockTherapistSearchRepository)
	svc := services.NewTherapistService(store, search)
	ctx := context.Background()

	search.On("Suggest", ctx, "an", 8).Return(nil, errors.New("index unavailable")).Once()

	suggestions, err := svc.Suggest(ctx, " an ", 0)
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "Ana Ruiz", suggestions[0].Name)
	assert.Equal(t, "andre-wu", suggestions[1].Slug)
	search.AssertExpectations(t)
}

func TestTherapistService_SuggestUsesIndex(t *testing.T) {
	search := new(MockTherapistSearchRepository)
	svc := services.NewTherapistService(memory.NewTherapistStore(), search)
	ctx := context.Background()

	hits := []*entities.TherapistSuggestion{{ID: "1", Slug: "ana-ruiz", Name: "Ana Ruiz"}}
	search.On("Suggest", ctx, "ana", 20).Return(hits, nil).Once()

	suggestions, err := svc.Suggest(ctx, "ana", 500)
	require.NoError(t, err)
	assert.Equal(t, hits, suggestions)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Jane Doe":            "jane-doe",
		"  Dr. Jane O'Neil ": "dr-jane-oneil",
		"Carla Díaz, LMFT":    "carla-diaz-lmft",
		"---":                 "",
		"Ana   Ruiz 2":        "ana-ruiz-2",
	}
	for in, want := range tests {
		assert.Equal(t, want, services.Slugify(in), in)
	}
}

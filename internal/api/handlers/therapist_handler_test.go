package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/therapistdirectory/internal/adapters/memory"
	"github.com/zatekoja/therapistdirectory/internal/api/handlers"
	"github.com/zatekoja/therapistdirectory/internal/application/services"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
)

type MockTherapistSearcher struct {
	mock.Mock
}

func (m *MockTherapistSearcher) GetSearchResults(ctx context.Context, criteria entities.SearchCriteria) (*entities.SearchResults, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SearchResults), args.Error(1)
}

func newProfileHandler(seed ...*entities.Therapist) (*handlers.TherapistHandler, *memory.TherapistStore) {
	store := memory.NewTherapistStore(seed...)
	search := services.NewTherapistSearchService(store, nil)
	return handlers.NewTherapistHandler(search, services.NewTherapistService(store, nil)), store
}

func TestTherapistHandler_ListTherapists_PassesQueryAsCriteria(t *testing.T) {
	searcher := new(MockTherapistSearcher)
	handler := handlers.NewTherapistHandler(searcher, nil)

	searcher.On("GetSearchResults", mock.Anything, mock.MatchedBy(func(c entities.SearchCriteria) bool {
		return c.Get(entities.CriteriaState) == "california" &&
			len(c.Values(entities.CriteriaLanguage)) == 2 &&
			c.Get(entities.CriteriaPage) == "2"
	})).Return(&entities.SearchResults{
		Items:         []*entities.Therapist{{ID: "t-1", Name: "Ana Ruiz"}},
		Total:         11,
		TotalPages:    2,
		CurrentPage:   2,
		RankingStatus: entities.RankingNotRequested,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/therapists?state=california&language=English&language=Spanish&page=2", nil)
	rec := httptest.NewRecorder()
	handler.ListTherapists(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(11), body["total"])
	assert.Equal(t, float64(2), body["total_pages"])
	assert.Equal(t, float64(2), body["current_page"])
	assert.Equal(t, "not_requested", body["ranking_status"])
	assert.NotContains(t, body, "ranking_error")
	searcher.AssertExpectations(t)
}

func TestTherapistHandler_ListTherapists_PageOutOfRange(t *testing.T) {
	searcher := new(MockTherapistSearcher)
	handler := handlers.NewTherapistHandler(searcher, nil)

	searcher.On("GetSearchResults", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewNotFoundError("page 9 not found, there are 2 pages")).Once()

	rec := httptest.NewRecorder()
	handler.ListTherapists(rec, httptest.NewRequest(http.MethodGet, "/api/therapists?page=9", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "page 9 not found")
}

func TestTherapistHandler_ListTherapists_StoreFailureHidesDetails(t *testing.T) {
	searcher := new(MockTherapistSearcher)
	handler := handlers.NewTherapistHandler(searcher, nil)

	searcher.On("GetSearchResults", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewInternalError("failed to count therapists", fmt.Errorf("dial tcp: refused"))).Once()

	rec := httptest.NewRecorder()
	handler.ListTherapists(rec, httptest.NewRequest(http.MethodGet, "/api/therapists", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestTherapistHandler_ListTherapists_RankingErrorIsAdvisory(t *testing.T) {
	searcher := new(MockTherapistSearcher)
	handler := handlers.NewTherapistHandler(searcher, nil)

	searcher.On("GetSearchResults", mock.Anything, mock.Anything).Return(&entities.SearchResults{
		Items:         []*entities.Therapist{{ID: "t-1"}},
		Total:         1,
		TotalPages:    1,
		CurrentPage:   1,
		RankingError:  "ranking timed out after 15s",
		RankingStatus: entities.RankingFailed,
	}, nil).Once()

	rec := httptest.NewRecorder()
	handler.ListTherapists(rec, httptest.NewRequest(http.MethodGet, "/api/therapists?issue=grief", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ranking_error":"ranking timed out after 15s"`)
	assert.Contains(t, rec.Body.String(), `"ranking_status":"failed"`)
}

func TestTherapistHandler_GetTherapist(t *testing.T) {
	handler, _ := newProfileHandler(
		&entities.Therapist{ID: "t-1", Name: "Ana Ruiz", Slug: "ana-ruiz", Published: true},
		&entities.Therapist{ID: "t-2", Name: "Hidden", Slug: "hidden"},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/therapists/ana-ruiz", nil)
	req.SetPathValue("slug", "ana-ruiz")
	rec := httptest.NewRecorder()
	handler.GetTherapist(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ana Ruiz"`)

	req = httptest.NewRequest(http.MethodGet, "/api/therapists/hidden", nil)
	req.SetPathValue("slug", "hidden")
	rec = httptest.NewRecorder()
	handler.GetTherapist(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTherapistHandler_CreateUpdatePublish(t *testing.T) {
	handler, _ := newProfileHandler()

	rec := httptest.NewRecorder()
	handler.CreateTherapist(rec, httptest.NewRequest(http.MethodPost, "/api/therapists",
		strings.NewReader(`{"user_id":"u-1","name":"Dana Lee","email":"dana@example.com"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created entities.Therapist
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.False(t, created.Published)

	req := httptest.NewRequest(http.MethodPatch, "/api/therapists/"+created.ID,
		strings.NewReader(`{"city":"Portland","languages":["English"," English ","ASL"]}`))
	req.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	handler.UpdateTherapist(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated entities.Therapist
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Portland", updated.Address.City)
	assert.Equal(t, []string{"English", "ASL"}, updated.Languages)
	assert.Equal(t, "Dana Lee", updated.Name)

	req = httptest.NewRequest(http.MethodPost, "/api/therapists/"+created.ID+"/publish", nil)
	req.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	handler.PublishTherapist(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"dana-lee"`)

	req = httptest.NewRequest(http.MethodPost, "/api/therapists/"+created.ID+"/unpublish", nil)
	req.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	handler.UnpublishTherapist(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"published":false`)
}

func TestTherapistHandler_BadRequests(t *testing.T) {
	handler, _ := newProfileHandler(&entities.Therapist{ID: "t-1", Name: "Ana Ruiz"})

	rec := httptest.NewRecorder()
	handler.CreateTherapist(rec, httptest.NewRequest(http.MethodPost, "/api/therapists", strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.CreateTherapist(rec, httptest.NewRequest(http.MethodPost, "/api/therapists", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPatch, "/api/therapists/missing", strings.NewReader(`{}`))
	req.SetPathValue("id", "missing")
	rec = httptest.NewRecorder()
	handler.UpdateTherapist(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTherapistHandler_SuggestTherapists(t *testing.T) {
	handler, _ := newProfileHandler(
		&entities.Therapist{ID: "1", Name: "Ana Ruiz", Slug: "ana-ruiz", Published: true},
		&entities.Therapist{ID: "2", Name: "Ben Adams", Slug: "ben-adams", Published: true},
	)

	rec := httptest.NewRecorder()
	handler.SuggestTherapists(rec, httptest.NewRequest(http.MethodGet, "/api/therapists/suggest?q=an&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Suggestions []entities.TherapistSuggestion `json:"suggestions"`
		Count       int                            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "ana-ruiz", body.Suggestions[0].Slug)
}

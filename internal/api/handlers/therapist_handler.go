package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
)

// TherapistSearcher serves the listing page
type TherapistSearcher interface {
	GetSearchResults(ctx context.Context, criteria entities.SearchCriteria) (*entities.SearchResults, error)
}

// TherapistProfiles manages individual profiles
type TherapistProfiles interface {
	CreateStub(ctx context.Context, input entities.StubInput) (*entities.Therapist, error)
	GetPublicProfile(ctx context.Context, slug string) (*entities.Therapist, error)
	SaveProfile(ctx context.Context, id string, update entities.ProfileUpdate) (*entities.Therapist, error)
	Publish(ctx context.Context, id string) (*entities.Therapist, error)
	Unpublish(ctx context.Context, id string) (*entities.Therapist, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]*entities.TherapistSuggestion, error)
}

// TherapistHandler handles therapist-related HTTP requests
type TherapistHandler struct {
	search   TherapistSearcher
	profiles TherapistProfiles
}

// NewTherapistHandler creates a new therapist handler
func NewTherapistHandler(search TherapistSearcher, profiles TherapistProfiles) *TherapistHandler {
	return &TherapistHandler{
		search:   search,
		profiles: profiles,
	}
}

// ListTherapists handles GET /api/therapists
func (h *TherapistHandler) ListTherapists(w http.ResponseWriter, r *http.Request) {
	criteria := entities.CriteriaFromQuery(r.URL.Query())

	results, err := h.search.GetSearchResults(r.Context(), criteria)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}

// SuggestTherapists handles GET /api/therapists/suggest
func (h *TherapistHandler) SuggestTherapists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	suggestions, err := h.profiles.Suggest(r.Context(), query.Get("q"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// GetTherapist handles GET /api/therapists/{slug}
func (h *TherapistHandler) GetTherapist(w http.ResponseWriter, r *http.Request) {
	therapist, err := h.profiles.GetPublicProfile(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if !therapist.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", therapist.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	respondWithJSON(w, http.StatusOK, therapist)
}

// CreateTherapist handles POST /api/therapists
func (h *TherapistHandler) CreateTherapist(w http.ResponseWriter, r *http.Request) {
	var input entities.StubInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	therapist, err := h.profiles.CreateStub(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, therapist)
}

// UpdateTherapist handles PATCH /api/therapists/{id}
func (h *TherapistHandler) UpdateTherapist(w http.ResponseWriter, r *http.Request) {
	var update entities.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	therapist, err := h.profiles.SaveProfile(r.Context(), r.PathValue("id"), update)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, therapist)
}

// PublishTherapist handles POST /api/therapists/{id}/publish
func (h *TherapistHandler) PublishTherapist(w http.ResponseWriter, r *http.Request) {
	therapist, err := h.profiles.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, therapist)
}

// UnpublishTherapist handles POST /api/therapists/{id}/unpublish
func (h *TherapistHandler) UnpublishTherapist(w http.ResponseWriter, r *http.Request) {
	therapist, err := h.profiles.Unpublish(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, therapist)
}

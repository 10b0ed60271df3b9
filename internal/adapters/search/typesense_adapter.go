package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	tsclient "github.com/zatekoja/therapistdirectory/internal/infrastructure/clients/typesense"
)

const maxSuggestions = 20

// TypesenseAdapter implements the therapist name typeahead using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.TherapistSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a therapist document
func (a *TypesenseAdapter) Index(ctx context.Context, therapist *entities.Therapist) error {
	_, err := a.client.Client().Collection(tsclient.TherapistsCollection).Documents().Upsert(ctx, therapistDocument(therapist))
	if err != nil {
		return fmt.Errorf("failed to index therapist %s: %w", therapist.ID, err)
	}
	return nil
}

// Delete removes a therapist from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.TherapistsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete therapist %s from index: %w", id, err)
	}
	return nil
}

// Suggest returns therapists whose name matches the typed prefix
func (a *TypesenseAdapter) Suggest(ctx context.Context, prefix string, limit int) ([]*entities.TherapistSuggestion, error) {
	if limit <= 0 || limit > maxSuggestions {
		limit = maxSuggestions
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(prefix),
		QueryBy: pointer.String("name"),
		SortBy:  pointer.String("_text_match:desc,name:asc"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.TherapistsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search therapists: %w", err)
	}

	suggestions := []*entities.TherapistSuggestion{}
	if result.Hits == nil {
		return suggestions, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if s := suggestionFromDocument(*hit.Document); s != nil {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

func therapistDocument(t *entities.Therapist) map[string]interface{} {
	issues := make([]string, 0, len(t.Issues))
	for _, issue := range t.Issues {
		if issue = strings.TrimSpace(issue); issue != "" {
			issues = append(issues, issue)
		}
	}

	return map[string]interface{}{
		"id":          t.ID,
		"slug":        t.Slug,
		"name":        strings.TrimSpace(t.Name),
		"credentials": t.Credentials,
		"city":        t.Address.City,
		"state":       t.Address.State,
		"remote":      t.Remote,
		"issues":      issues,
		"updated_at":  t.UpdatedAt.Unix(),
	}
}

func suggestionFromDocument(doc map[string]interface{}) *entities.TherapistSuggestion {
	str := func(key string) string {
		if v, ok := doc[key].(string); ok {
			return v
		}
		return ""
	}

	s := &entities.TherapistSuggestion{
		ID:          str("id"),
		Slug:        str("slug"),
		Name:        str("name"),
		Credentials: str("credentials"),
		City:        str("city"),
		State:       str("state"),
	}
	if s.ID == "" || s.Name == "" {
		return nil
	}
	return s
}

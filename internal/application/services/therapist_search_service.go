package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/filters"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// TherapistSearchService builds the therapist listing page
type TherapistSearchService struct {
	repo   repositories.TherapistRepository
	ranker Ranker
}

// NewTherapistSearchService creates a new search service. A nil ranker
// disables relevance ranking.
func NewTherapistSearchService(repo repositories.TherapistRepository, ranker Ranker) *TherapistSearchService {
	return &TherapistSearchService{
		repo:   repo,
		ranker: ranker,
	}
}

// GetSearchResults counts and fetches one page of published therapists
// matching criteria. When an issue is given the page is reordered by
// relevance; ranking problems only set RankingError.
func (s *TherapistSearchService) GetSearchResults(ctx context.Context, criteria entities.SearchCriteria) (*entities.SearchResults, error) {
	start := time.Now()
	query := filters.BuildQuery(criteria)

	ctx, span := observability.StartSpan(ctx, "therapists.search",
		attribute.Int("search.page", query.Page),
		attribute.String("search.predicate", query.Predicate.String()),
	)
	defer span.End()

	logger := observability.ComponentLogger(ctx, "therapist_search")

	total, err := s.repo.Count(ctx, query.Predicate)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	totalPages := filters.TotalPages(total)
	if total > 0 && query.Page > totalPages {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("page %d not found, there are %d pages", query.Page, totalPages))
	}

	results := &entities.SearchResults{
		Items:         []*entities.Therapist{},
		Total:         total,
		TotalPages:    totalPages,
		CurrentPage:   query.Page,
		RankingStatus: entities.RankingNotRequested,
	}
	if total == 0 {
		return results, nil
	}

	items, err := s.repo.Find(ctx, query.Predicate, query.Limit, query.Offset)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	results.Items = items

	issue := criteria.Issue()
	if issue != "" && s.ranker != nil && len(items) > 0 {
		s.applyRanking(ctx, issue, results)
	}

	span.SetAttributes(
		attribute.Int("search.total", total),
		attribute.String("search.ranking_status", string(results.RankingStatus)),
	)
	logger.Debug().
		Int("total", total).
		Int("page", query.Page).
		Int("items", len(results.Items)).
		Str("ranking_status", string(results.RankingStatus)).
		Dur("duration", time.Since(start)).
		Msg("therapist search completed")

	return results, nil
}

func (s *TherapistSearchService) applyRanking(ctx context.Context, issue string, results *entities.SearchResults) {
	results.RankingStatus = entities.RankingRequested

	candidates := make([]entities.TherapistSummary, len(results.Items))
	for i, t := range results.Items {
		candidates[i] = t.Summary()
	}

	outcome := s.ranker.Rank(ctx, issue, candidates)
	if outcome.Error != "" {
		results.RankingStatus = entities.RankingFailed
		results.RankingError = outcome.Error
		return
	}

	results.Items = orderByRanking(results.Items, outcome.Ranked)
	results.RankingScores = make(map[string]int, len(outcome.Ranked))
	results.RankingReasons = make(map[string]string, len(outcome.Ranked))
	for _, r := range outcome.Ranked {
		results.RankingScores[r.ID] = r.Score
		results.RankingReasons[r.ID] = r.Reason
	}
	results.RankingStatus = entities.RankingSucceeded
}

// orderByRanking reorders items to follow ranked. Items the ranking does not
// mention keep their relative order at the end.
func orderByRanking(items []*entities.Therapist, ranked []entities.RankedResult) []*entities.Therapist {
	byID := make(map[string][]*entities.Therapist, len(items))
	for _, t := range items {
		byID[t.ID] = append(byID[t.ID], t)
	}

	ordered := make([]*entities.Therapist, 0, len(items))
	for _, r := range ranked {
		queue := byID[r.ID]
		if len(queue) == 0 {
			continue
		}
		ordered = append(ordered, queue[0])
		byID[r.ID] = queue[1:]
	}
	for _, t := range items {
		if queue := byID[t.ID]; len(queue) > 0 && queue[0] == t {
			ordered = append(ordered, t)
			byID[t.ID] = queue[1:]
		}
	}
	return ordered
}

package entities

import (
	"net/url"
	"strings"
)

// Search criteria keys recognized by the listing page
const (
	CriteriaZip            = "zip"
	CriteriaCity           = "city"
	CriteriaState          = "state"
	CriteriaSpecialty      = "specialty"
	CriteriaIssue          = "issue"
	CriteriaCondition      = "condition"
	CriteriaInsurance      = "insurance"
	CriteriaDegree         = "degree"
	CriteriaRemote         = "remote"
	CriteriaPrice          = "price"
	CriteriaAge            = "age"
	CriteriaLanguage       = "language"
	CriteriaFaith          = "faith"
	CriteriaCommunity      = "community"
	CriteriaTreatmentStyle = "treatmentStyle"
	CriteriaPage           = "page"
)

// SearchCriteria maps filter names to one or more values.
type SearchCriteria map[string][]string

// CriteriaFromQuery builds criteria from URL query parameters.
func CriteriaFromQuery(values url.Values) SearchCriteria {
	criteria := make(SearchCriteria, len(values))
	for key, vals := range values {
		criteria[key] = append([]string(nil), vals...)
	}
	return criteria
}

// Get returns the first non-blank value for key.
func (c SearchCriteria) Get(key string) string {
	for _, v := range c[key] {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Values returns every non-blank value for key, trimmed and de-duplicated.
func (c SearchCriteria) Values(key string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, v := range c[key] {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Set replaces the values for key.
func (c SearchCriteria) Set(key string, values ...string) {
	c[key] = values
}

// Issue returns the free-text issue description used for relevance ranking.
func (c SearchCriteria) Issue() string {
	return c.Get(CriteriaIssue)
}

// RankingStatus tracks the ranking step of a single search request
type RankingStatus string

const (
	RankingNotRequested RankingStatus = "not_requested"
	RankingRequested    RankingStatus = "requested"
	RankingSucceeded    RankingStatus = "succeeded"
	RankingFailed       RankingStatus = "failed"
)

// RankedResult is the relevance verdict for one therapist on the current page
type RankedResult struct {
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// SearchResults is the listing page payload
type SearchResults struct {
	Items          []*Therapist      `json:"items"`
	Total          int               `json:"total"`
	TotalPages     int               `json:"total_pages"`
	CurrentPage    int               `json:"current_page"`
	RankingScores  map[string]int    `json:"ranking_scores,omitempty"`
	RankingReasons map[string]string `json:"ranking_reasons,omitempty"`
	RankingError   string            `json:"ranking_error,omitempty"`
	RankingStatus  RankingStatus     `json:"ranking_status"`
}

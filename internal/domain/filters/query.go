package filters

import (
	"strconv"
	"strings"

	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
)

// PageSize is the number of therapists shown per listing page.
const PageSize = 10

// Query is the predicate plus the page window for one listing request.
type Query struct {
	Predicate *Predicate
	Page      int
	Offset    int
	Limit     int
}

// BuildQuery turns listing criteria into a predicate and page window.
// Absent or blank keys add no constraint.
func BuildQuery(criteria entities.SearchCriteria) Query {
	pred := NewPredicate(Published())

	if zip := criteria.Get(entities.CriteriaZip); zip != "" {
		pred.Where(equalsClause{field: fieldZip, value: zip})
	}
	if city := criteria.Get(entities.CriteriaCity); city != "" {
		pred.Where(foldEqualsClause{field: fieldCity, value: city})
	}
	if state := criteria.Get(entities.CriteriaState); state != "" {
		pred.Where(foldEqualsClause{field: fieldState, value: state})
	}

	// specialty, issue and condition share one OR group with the description test
	for _, key := range []string{entities.CriteriaSpecialty, entities.CriteriaIssue, entities.CriteriaCondition} {
		if v := criteria.Get(key); v != "" {
			pred.AnyOf(
				membershipClause{field: fieldIssues, values: []string{v}},
				containsClause{field: fieldSpecialty, value: v},
			)
		}
	}
	if styles := criteria.Values(entities.CriteriaTreatmentStyle); len(styles) > 0 {
		pred.AnyOf(membershipClause{field: fieldTreatmentStyle, values: styles})
		for _, s := range styles {
			pred.AnyOf(containsClause{field: fieldTreatment, value: s})
		}
	}

	if insurance := criteria.Get(entities.CriteriaInsurance); insurance != "" {
		pred.Where(containsClause{field: fieldInsurance, value: insurance})
	}
	if degree := criteria.Get(entities.CriteriaDegree); degree != "" {
		pred.Where(containsClause{field: fieldCredentials, value: degree})
	}
	if remote, ok := parseYesNo(criteria.Get(entities.CriteriaRemote)); ok {
		pred.Where(boolClause{column: "remote", get: func(t *entities.Therapist) bool { return t.Remote }, value: remote})
	}
	if bucket, ok := LookupPriceBucket(criteria.Get(entities.CriteriaPrice)); ok {
		pred.Where(feeRangeClause{field: fieldFee, bucket: bucket})
	}

	if ages := criteria.Values(entities.CriteriaAge); len(ages) > 0 {
		pred.Where(membershipClause{field: fieldAges, values: ages})
	}
	if langs := criteria.Values(entities.CriteriaLanguage); len(langs) > 0 {
		pred.Where(membershipClause{field: fieldLanguages, values: langs})
	}
	communities := append(criteria.Values(entities.CriteriaFaith), criteria.Values(entities.CriteriaCommunity)...)
	if len(communities) > 0 {
		pred.Where(membershipClause{field: fieldCommunities, values: dedupe(communities)})
	}

	page := ParsePage(criteria.Get(entities.CriteriaPage))
	return Query{
		Predicate: pred,
		Page:      page,
		Offset:    (page - 1) * PageSize,
		Limit:     PageSize,
	}
}

// ParsePage reads a 1-indexed page number. Anything that is not a positive
// integer becomes 1.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// TotalPages returns the number of pages needed for total results.
func TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

func parseYesNo(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "1":
		return true, true
	case "no", "false", "0":
		return false, true
	}
	return false, false
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

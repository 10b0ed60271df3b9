package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/providers"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultRankingTimeout bounds one ranking round trip
const DefaultRankingTimeout = 15 * time.Second

// UnrankedReason is given to candidates the generator left out
const UnrankedReason = "Not specifically ranked for this issue."

// wrapperKeys are tried in order when the reply is an object instead of an array
var wrapperKeys = []string{"rankings", "results", "ranked", "therapists", "candidates", "items", "data", "matches"}

// RankingOutcome is the result of one ranking attempt. Error is advisory:
// when set, Ranked is empty and callers keep their original order.
type RankingOutcome struct {
	Ranked []entities.RankedResult
	Error  string
}

// Ranker reorders a page of candidates for an issue description
type Ranker interface {
	Rank(ctx context.Context, issue string, candidates []entities.TherapistSummary) RankingOutcome
}

// RelevanceRanker scores candidates with an external text generator. It
// never returns an error or panics; every failure becomes RankingOutcome.Error.
type RelevanceRanker struct {
	generator providers.TextGenerator
	timeout   time.Duration
}

var _ Ranker = (*RelevanceRanker)(nil)

// NewRelevanceRanker creates a ranker. A non-positive timeout uses DefaultRankingTimeout.
func NewRelevanceRanker(generator providers.TextGenerator, timeout time.Duration) *RelevanceRanker {
	if timeout <= 0 {
		timeout = DefaultRankingTimeout
	}
	return &RelevanceRanker{generator: generator, timeout: timeout}
}

// Rank makes a single generator call and reconciles the reply against the
// candidates: one entry per candidate, sorted by score with ties kept in
// candidate order.
func (r *RelevanceRanker) Rank(ctx context.Context, issue string, candidates []entities.TherapistSummary) (outcome RankingOutcome) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "ranking.rank", attribute.Int("ranking.candidates", len(candidates)))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			outcome = failed(fmt.Sprintf("ranking aborted: %v", rec))
		}
		observability.RecordRanking(ctx, len(candidates), time.Since(start), outcome.Error)
		if outcome.Error != "" {
			span.SetAttributes(attribute.String("ranking.error", outcome.Error))
			observability.ComponentLogger(ctx, "ranking").Warn().
				Int("candidates", len(candidates)).
				Str("ranking_error", outcome.Error).
				Msg("relevance ranking failed, keeping store order")
		}
	}()

	issue = strings.TrimSpace(issue)
	switch {
	case r.generator == nil:
		return failed("relevance ranking is not configured")
	case issue == "":
		return failed("an issue description is required for ranking")
	case len(candidates) == 0:
		return RankingOutcome{Ranked: []entities.RankedResult{}}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.generator.Generate(callCtx, rankingSystemPrompt, buildRankingPrompt(issue, candidates))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return failed(fmt.Sprintf("ranking timed out after %s", r.timeout))
		}
		return failed(fmt.Sprintf("text generation failed: %v", err))
	}

	entries, err := parseRankingResponse(raw)
	if err != nil {
		return failed(fmt.Sprintf("could not parse ranking response: %v", err))
	}

	return RankingOutcome{Ranked: reconcileRankings(candidates, entries)}
}

func failed(msg string) RankingOutcome {
	return RankingOutcome{Ranked: []entities.RankedResult{}, Error: msg}
}

type rankingEntry struct {
	id     string
	score  int
	reason string
}

// parseRankingResponse accepts a bare array or an object wrapping one,
// optionally inside markdown fences. Elements must be objects; elements
// without a usable id or score are dropped.
func parseRankingResponse(raw string) ([]rankingEntry, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}

	// A reply cut off mid-array repairs to its complete prefix; the missing
	// candidates then reconcile to the unranked default without an error.
	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return nil, fmt.Errorf("not JSON: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(repaired)))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("not JSON: %w", err)
	}

	items, err := locateRankingArray(doc)
	if err != nil {
		return nil, err
	}

	entries := make([]rankingEntry, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
		id, ok := stringValue(obj["id"])
		if !ok || id == "" {
			continue
		}
		score, ok := scoreValue(obj["score"])
		if !ok {
			continue
		}
		reason, _ := obj["reason"].(string)
		entries = append(entries, rankingEntry{id: id, score: score, reason: strings.TrimSpace(reason)})
	}
	return entries, nil
}

func locateRankingArray(doc interface{}) ([]interface{}, error) {
	switch v := doc.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		for _, key := range wrapperKeys {
			if arr, ok := v[key].([]interface{}); ok {
				return arr, nil
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if arr, ok := v[k].([]interface{}); ok {
				return arr, nil
			}
		}
		return nil, errors.New("object holds no ranking array")
	default:
		return nil, fmt.Errorf("expected a JSON array, got %T", doc)
	}
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "[{") {
			s = s[nl+1:]
		}
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func stringValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// scoreValue rounds to the nearest integer and clamps to 1..10
func scoreValue(v interface{}) (int, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	score := int(math.Round(f))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score, true
}

// reconcileRankings yields exactly one result per candidate. Unknown ids are
// dropped, the first entry wins for duplicate ids and candidates without an
// entry score 0.
func reconcileRankings(candidates []entities.TherapistSummary, entries []rankingEntry) []entities.RankedResult {
	byID := make(map[string]rankingEntry, len(entries))
	for _, e := range entries {
		if _, dup := byID[e.id]; !dup {
			byID[e.id] = e
		}
	}

	ranked := make([]entities.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		if e, ok := byID[c.ID]; ok {
			ranked = append(ranked, entities.RankedResult{ID: c.ID, Score: e.score, Reason: e.reason})
			continue
		}
		ranked = append(ranked, entities.RankedResult{ID: c.ID, Score: 0, Reason: UnrankedReason})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

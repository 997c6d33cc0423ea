package assessment

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const maxTopRelevant = 10

// Relevance weights.
const (
	caseTypeTitleWeight = 0.4
	caseTypeDescWeight  = 0.3
	caseTypeAreaWeight  = 0.3
	themeTitleWeight    = 0.2
	themeDescWeight     = 0.1
	themeAreaWeight     = 0.1
)

// QueryErrorHandler observes corpus queries that failed and were skipped.
type QueryErrorHandler func(query string, err error)

// Ranker scores research corpus items against a case type and its themes.
type Ranker struct {
	searcher legalcase.CorpusSearcher
	onError  QueryErrorHandler
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithQueryErrorHandler installs a callback for skipped queries.
func WithQueryErrorHandler(h QueryErrorHandler) RankerOption {
	return func(r *Ranker) { r.onError = h }
}

// NewRanker builds a Ranker over searcher.
func NewRanker(searcher legalcase.CorpusSearcher, opts ...RankerOption) *Ranker {
	r := &Ranker{searcher: searcher}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank queries the corpus with the lower-cased case type and then once per
// theme, merges the results by id (first occurrence wins), scores each item
// and orders them by descending score.  Ties keep merge order.  A failed
// query is skipped; Rank only fails when every query failed.
func (r *Ranker) Rank(ctx context.Context, caseType string, themes []string) (legalcase.ResearchAnalysis, error) {
	queries := make([]string, 0, len(themes)+1)
	queries = append(queries, strings.ToLower(strings.TrimSpace(caseType)))
	queries = append(queries, themes...)

	var (
		merged   []legalcase.CorpusItem
		seen     = make(map[string]struct{})
		failures int
		lastErr  error
	)
	for _, q := range queries {
		items, err := r.searcher.Search(ctx, q)
		if err != nil {
			failures++
			lastErr = err
			if r.onError != nil {
				r.onError(q, err)
			}
			continue
		}
		for _, item := range items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
	}
	if failures == len(queries) {
		return emptyResearch(), errors.Wrap(lastErr, errors.ErrCodeCorpusSearchFailed, "all corpus queries failed")
	}

	for i := range merged {
		merged[i].RelevanceScore = ScoreRelevance(merged[i], caseType, themes)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})

	research := emptyResearch()
	research.TotalFound = len(merged)
	n := len(merged)
	if n > maxTopRelevant {
		n = maxTopRelevant
	}
	research.TopRelevant = append(research.TopRelevant, merged[:n]...)
	for _, item := range merged {
		if bucket, ok := NormalizeCategory(item.Category); ok {
			research.Categorized[bucket] = append(research.Categorized[bucket], item)
		}
	}
	return research, nil
}

// ScoreRelevance computes the additive relevance of item for caseType and
// themes, clamped to [0, 1].  Matching is case-insensitive.
func ScoreRelevance(item legalcase.CorpusItem, caseType string, themes []string) float64 {
	ct := strings.ToLower(strings.TrimSpace(caseType))
	title := strings.ToLower(item.Title)
	desc := strings.ToLower(item.Description)
	areas := make([]string, len(item.ResearchAreas))
	for i, a := range item.ResearchAreas {
		areas[i] = strings.ToLower(a)
	}

	var score float64
	if ct != "" {
		if strings.Contains(title, ct) {
			score += caseTypeTitleWeight
		}
		if strings.Contains(desc, ct) {
			score += caseTypeDescWeight
		}
		for _, a := range areas {
			if strings.Contains(a, ct) {
				score += caseTypeAreaWeight
			}
		}
	}

	for _, theme := range themes {
		th := strings.ToLower(strings.TrimSpace(theme))
		if th == "" {
			continue
		}
		if strings.Contains(title, th) {
			score += themeTitleWeight
		}
		if strings.Contains(desc, th) {
			score += themeDescWeight
		}
		for _, a := range areas {
			if strings.Contains(a, th) {
				score += themeAreaWeight
				break
			}
		}
	}
	return clamp01(score)
}

// NormalizeCategory maps a corpus category onto one of the fixed buckets,
// accepting singular forms ("precedent" → "precedents").
func NormalizeCategory(category string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, bucket := range legalcase.CorpusCategories {
		if c == bucket || c+"s" == bucket {
			return bucket, true
		}
	}
	return "", false
}

func emptyResearch() legalcase.ResearchAnalysis {
	cat := make(map[string][]legalcase.CorpusItem, len(legalcase.CorpusCategories))
	for _, c := range legalcase.CorpusCategories {
		cat[c] = []legalcase.CorpusItem{}
	}
	return legalcase.ResearchAnalysis{
		TopRelevant: []legalcase.CorpusItem{},
		Categorized: cat,
	}
}

//Personal.AI order the ending

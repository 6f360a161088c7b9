package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

const (
	DefaultThreshold        = 0.6
	HighConfidenceThreshold = 0.75
	suggestionFloor         = 0.45
)

// Matcher scores free text against catalog names.
type Matcher struct {
	threshold float64
	high      float64
}

// NewMatcher falls back to the default thresholds for non-positive values.
func NewMatcher(threshold, high float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if high <= 0 {
		high = HighConfidenceThreshold
	}
	return &Matcher{threshold: threshold, high: high}
}

// Match returns the best catalog name or nil when nothing reaches the
// threshold. The first name seen wins ties.
func (m *Matcher) Match(phrase string, names []string) *model.MatchResult {
	if strings.TrimSpace(phrase) == "" || len(names) == 0 {
		return nil
	}
	bestScore := 0.0
	bestName := ""
	for _, name := range names {
		score := Similarity(phrase, name)
		if score > bestScore {
			bestScore = score
			bestName = name
		}
	}
	if bestName == "" || bestScore < m.threshold {
		return nil
	}
	return model.NewMatchResult(phrase, bestName, bestScore, m.high)
}

// MatchBatch resolves each phrase independently. Phrases below threshold go
// to Unmatched.
func (m *Matcher) MatchBatch(phrases []string, names []string) model.BatchResult {
	out := model.BatchResult{Matched: []model.MatchResult{}, Unmatched: []string{}}
	for _, p := range phrases {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if r := m.Match(p, names); r != nil {
			out.Matched = append(out.Matched, *r)
		} else {
			out.Unmatched = append(out.Unmatched, p)
		}
	}
	return out
}

type nameSource []string

func (s nameSource) String(i int) string { return s[i] }
func (s nameSource) Len() int            { return len(s) }

// Suggest proposes near misses for a phrase that did not resolve. Fuzzy
// subsequence hits come first, then names with a moderate similarity.
func Suggest(phrase string, names []string, limit int) []string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" || limit <= 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, match := range fuzzy.FindFrom(phrase, nameSource(names)) {
		if len(out) >= limit {
			return out
		}
		name := names[match.Index]
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	type cand struct {
		name  string
		score float64
	}
	var cands []cand
	for _, n := range names {
		if seen[n] {
			continue
		}
		if s := Similarity(phrase, n); s >= suggestionFloor {
			cands = append(cands, cand{n, s})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	for _, c := range cands {
		if len(out) >= limit {
			break
		}
		out = append(out, c.name)
	}
	return out
}

// Resolver binds a Matcher to the live catalog. The catalog is read on every
// call so stock and names are never stale across turns.
type Resolver struct {
	catalog model.CatalogReader
	matcher *Matcher
}

func NewResolver(catalog model.CatalogReader, matcher *Matcher) *Resolver {
	if matcher == nil {
		matcher = NewMatcher(DefaultThreshold, HighConfidenceThreshold)
	}
	return &Resolver{catalog: catalog, matcher: matcher}
}

func (r *Resolver) names(ctx context.Context) ([]string, error) {
	products, err := r.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names, nil
}

// Resolve returns the match (possibly nil) and up to three suggestions when
// nothing matched.
func (r *Resolver) Resolve(ctx context.Context, phrase string) (*model.MatchResult, []string, error) {
	names, err := r.names(ctx)
	if err != nil {
		return nil, nil, err
	}
	match := r.matcher.Match(phrase, names)
	if match != nil {
		logx.Debug().Str("phrase", phrase).Str("matched", match.MatchedName).Float64("confidence", match.Confidence).Msg("entity resolved")
		return match, nil, nil
	}
	logx.Debug().Str("phrase", phrase).Msg("no catalog match")
	return nil, Suggest(phrase, names, 3), nil
}

func (r *Resolver) ResolveBatch(ctx context.Context, phrases []string) (model.BatchResult, error) {
	names, err := r.names(ctx)
	if err != nil {
		return model.BatchResult{}, err
	}
	return r.matcher.MatchBatch(phrases, names), nil
}

package safety

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarthi-rx/server/internal/agent/model"
)

//go:embed interactions.yaml
var defaultRules []byte

type Alias struct {
	Alias string `yaml:"alias"`
	Drug  string `yaml:"drug"`
}

type Rule struct {
	Drug1          string         `yaml:"drug1"`
	Drug2          string         `yaml:"drug2"`
	Severity       model.Severity `yaml:"severity"`
	Description    string         `yaml:"description"`
	Recommendation string         `yaml:"recommendation"`
}

// RuleSet is the alias table plus the interaction pairs.
type RuleSet struct {
	Aliases      []Alias `yaml:"aliases"`
	Interactions []Rule  `yaml:"interactions"`

	canonical []string
}

// LoadRules parses a YAML rule document.
func LoadRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse interaction rules: %w", err)
	}
	for i, r := range rs.Interactions {
		switch r.Severity {
		case model.SeverityMild, model.SeverityModerate, model.SeveritySevere:
		default:
			return nil, fmt.Errorf("rule %d (%s/%s): unknown severity %q", i, r.Drug1, r.Drug2, r.Severity)
		}
	}
	seen := map[string]bool{}
	add := func(d string) {
		if d != "" && !seen[strings.ToLower(d)] {
			seen[strings.ToLower(d)] = true
			rs.canonical = append(rs.canonical, d)
		}
	}
	for _, r := range rs.Interactions {
		add(r.Drug1)
		add(r.Drug2)
	}
	for _, a := range rs.Aliases {
		add(a.Drug)
	}
	return &rs, nil
}

// DefaultRules returns the embedded rule table.
func DefaultRules() *RuleSet {
	rs, err := LoadRules(defaultRules)
	if err != nil {
		panic(err)
	}
	return rs
}

// Canonicalize maps a product name to a drug name via the first alias it
// contains. Unknown names are returned trimmed.
func (rs *RuleSet) Canonicalize(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, a := range rs.Aliases {
		if strings.Contains(lower, strings.ToLower(a.Alias)) {
			return a.Drug
		}
	}
	for _, d := range rs.canonical {
		if strings.Contains(lower, strings.ToLower(d)) {
			return d
		}
	}
	return strings.TrimSpace(name)
}

// Lookup checks both orderings of the pair.
func (rs *RuleSet) Lookup(a, b string) *Rule {
	for i := range rs.Interactions {
		r := &rs.Interactions[i]
		if (strings.EqualFold(r.Drug1, a) && strings.EqualFold(r.Drug2, b)) ||
			(strings.EqualFold(r.Drug1, b) && strings.EqualFold(r.Drug2, a)) {
			return r
		}
	}
	return nil
}

// Canonical lists every drug name the rules know about.
func (rs *RuleSet) Canonical() []string {
	return rs.canonical
}

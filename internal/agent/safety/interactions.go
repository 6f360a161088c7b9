package safety

import (
	"context"
	"strings"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/resolver"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

const (
	DefaultHistoryWindow  = 90 * 24 * time.Hour
	DefaultFuzzyThreshold = 0.7
)

// InteractionChecker cross-references a candidate product with the patient's
// recent orders.
type InteractionChecker struct {
	history model.HistoryReader
	rules   *RuleSet
	window  time.Duration
	fuzzy   float64
}

func NewInteractionChecker(history model.HistoryReader, rules *RuleSet, window time.Duration, fuzzy float64) *InteractionChecker {
	if rules == nil {
		rules = DefaultRules()
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if fuzzy <= 0 {
		fuzzy = DefaultFuzzyThreshold
	}
	return &InteractionChecker{history: history, rules: rules, window: window, fuzzy: fuzzy}
}

// Check returns the first finding, or nil. A failing history lookup is
// logged and treated as no finding; the bool reports whether the lookup
// degraded.
func (c *InteractionChecker) Check(ctx context.Context, patientID, productName string) (*model.InteractionFinding, bool) {
	if c.history == nil {
		return nil, false
	}
	items, err := c.history.RecentOrders(ctx, patientID, c.window)
	if err != nil {
		logx.Error().Err(err).Str("patient_id", patientID).Msg("history lookup failed, skipping interaction check")
		return nil, true
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.ProductName)
	}
	return c.CheckAgainst(productName, names), false
}

// CheckAgainst runs the rule table against explicit history names.
func (c *InteractionChecker) CheckAgainst(productName string, history []string) *model.InteractionFinding {
	newDrug := c.rules.Canonicalize(productName)
	for _, h := range history {
		existing := c.rules.Canonicalize(h)
		if strings.EqualFold(existing, newDrug) {
			continue
		}
		if r := c.rules.Lookup(newDrug, existing); r != nil {
			return finding(existing, newDrug, r)
		}
		fn, fe := c.snap(newDrug), c.snap(existing)
		if strings.EqualFold(fn, fe) {
			continue
		}
		if r := c.rules.Lookup(fn, fe); r != nil {
			return finding(fe, fn, r)
		}
	}
	return nil
}

// snap replaces a name with the closest known drug when the sequence
// similarity exceeds the fuzzy threshold.
func (c *InteractionChecker) snap(name string) string {
	best, bestScore := name, 0.0
	lower := strings.ToLower(name)
	for _, d := range c.rules.Canonical() {
		s := resolver.SequenceRatio(lower, strings.ToLower(d))
		if s > c.fuzzy && s > bestScore {
			best, bestScore = d, s
		}
	}
	return best
}

func finding(existing, newDrug string, r *Rule) *model.InteractionFinding {
	return &model.InteractionFinding{
		ExistingDrug:   existing,
		NewDrug:        newDrug,
		Severity:       r.Severity,
		Description:    r.Description,
		Recommendation: r.Recommendation,
	}
}

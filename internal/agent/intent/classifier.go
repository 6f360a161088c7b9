package intent

import (
	"context"
	"errors"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/parsers"
	"github.com/sarthi-rx/server/internal/agent/prompts"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// Classifier maps an utterance to one intent: overrides, then the language
// model, then keyword rules.
type Classifier struct {
	llm      model.TextCompleter
	pharmacy string
}

func NewClassifier(llm model.TextCompleter, pharmacyName string) *Classifier {
	return &Classifier{llm: llm, pharmacy: pharmacyName}
}

// Classify never fails. history is a rendered transcript used only as prompt
// context.
func (c *Classifier) Classify(ctx context.Context, utterance, declaredLanguage, history string) model.RouterOutput {
	lang := NormalizeLanguage(declaredLanguage)
	if lang == "" {
		lang = DetectLanguage(utterance)
	}
	out := model.RouterOutput{Language: lang}

	norm := Normalize(utterance)
	if it, ok := Override(norm); ok {
		out.Intent, out.Source = it, model.RouteOverride
		return out
	}

	if it, err := c.classifyLLM(ctx, utterance, lang, history); err == nil {
		out.Intent, out.Source = it, model.RouteLLM
		return out
	} else if !errors.Is(err, model.ErrUnavailable) {
		logx.Warn().Err(err).Msg("discarding language model intent")
	}

	out.Intent, out.Source = ClassifyRules(norm), model.RouteRules
	return out
}

func (c *Classifier) classifyLLM(ctx context.Context, utterance, lang, history string) (model.Intent, error) {
	if c.llm == nil {
		return "", model.ErrUnavailable
	}
	p, err := prompts.RenderIntent(ctx, c.pharmacy, lang, history, utterance)
	if err != nil {
		return "", err
	}
	reply, err := c.llm.Complete(ctx, p)
	if err != nil {
		return "", err
	}
	it, err := parsers.ParseIntent(reply)
	if err != nil {
		metrics.ParseFailures.WithLabelValues("intent").Inc()
		return "", err
	}
	return it, nil
}

// Override returns the intent for an unambiguous keyword, if any.
func Override(normalized string) (model.Intent, bool) {
	for _, o := range overrides {
		if HasPhrase(normalized, o.phrase) {
			return o.intent, true
		}
	}
	return "", false
}

// ClassifyRules applies the keyword groups in priority order and defaults to
// MEDICINE_ORDER.
func ClassifyRules(normalized string) model.Intent {
	for _, g := range ruleGroups {
		if HasAny(normalized, g.keywords) != "" {
			return g.intent
		}
	}
	return model.IntentMedicineOrder
}

// WantsOrder reports whether the utterance asks to buy something.
func WantsOrder(utterance string) bool {
	return HasAny(Normalize(utterance), OrderWords) != ""
}

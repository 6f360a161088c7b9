package confirm

import (
	"context"
	"errors"
	"strings"

	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/parsers"
	"github.com/sarthi-rx/server/internal/agent/prompts"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

var (
	negativeWords = []string{
		"not now", "do not", "don't", "dont", "no", "nope", "not", "cancel", "abort",
		"stop", "wait", "later", "never mind",
		"नहीं", "नही", "रद्द", "नको", "नाही",
	}
	hedgeWords = []string{"maybe", "think", "consider", "not sure", "hmm", "शायद", "कदाचित"}
	// benignPhrases carry a negative word but read as assent.
	benignPhrases = []string{
		"no problem", "not a problem", "no worries", "no issue", "don't mind", "dont mind",
		"do not mind", "why not", "कोई बात नहीं",
	}
	positiveWords = []string{
		"yes please", "place order", "order now", "go ahead", "do it", "please do",
		"of course", "buy it", "get it", "order it", "that's right",
		"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm", "confirmed",
		"proceed", "absolutely", "definitely", "correct", "haan", "ha",
		"हाँ", "हां", "हा", "हो", "ठीक", "ठीक है", "पुष्टि",
	}
)

// Handshake interprets the turn after a pending order was offered.
type Handshake struct {
	llm model.TextCompleter
}

func NewHandshake(llm model.TextCompleter) *Handshake {
	return &Handshake{llm: llm}
}

// Decide never fails. The language model is asked first; when its answer
// flatly contradicts an explicit keyword in the reply the turn is unclear
// and the user is asked again.
func (h *Handshake) Decide(ctx context.Context, utterance string, pending model.PendingOrder) model.ConfirmationOutput {
	rule := Rules(utterance)

	d, err := h.decideLLM(ctx, utterance, pending)
	switch {
	case err == nil && d != model.ConfirmUnclear:
		if contradicts(d, rule) {
			return model.ConfirmationOutput{Decision: model.ConfirmUnclear, Source: model.RouteLLM}
		}
		return model.ConfirmationOutput{Decision: d, Source: model.RouteLLM}
	case err != nil && !errors.Is(err, model.ErrUnavailable):
		logx.Warn().Err(err).Msg("discarding language model confirmation")
	}

	return model.ConfirmationOutput{Decision: rule, Source: model.RouteRules}
}

func contradicts(a, b model.ConfirmDecision) bool {
	return (a == model.ConfirmYes && b == model.ConfirmNo) || (a == model.ConfirmNo && b == model.ConfirmYes)
}

func (h *Handshake) decideLLM(ctx context.Context, utterance string, pending model.PendingOrder) (model.ConfirmDecision, error) {
	if h.llm == nil {
		return "", model.ErrUnavailable
	}
	p, err := prompts.RenderConfirmation(ctx, pending.ProductName, pending.Quantity, pending.UnitPrice, utterance)
	if err != nil {
		return "", err
	}
	reply, err := h.llm.Complete(ctx, p)
	if err != nil {
		return "", err
	}
	d, err := parsers.ParseConfirmation(reply)
	if err != nil {
		metrics.ParseFailures.WithLabelValues("confirmation").Inc()
		return "", err
	}
	return d, nil
}

// Rules is the keyword fallback. A reply carrying both a positive and a
// negative word is unclear, as is a hedge ("let me think").
func Rules(utterance string) model.ConfirmDecision {
	norm := neutralize(intent.Normalize(utterance))
	yes := intent.HasAny(norm, positiveWords) != ""
	no := intent.HasAny(norm, negativeWords) != ""
	switch {
	case yes && no:
		return model.ConfirmUnclear
	case no:
		return model.ConfirmNo
	case intent.HasAny(norm, hedgeWords) != "":
		return model.ConfirmUnclear
	case yes:
		return model.ConfirmYes
	}
	return model.ConfirmUnclear
}

// Remainder drops assent words from the utterance and returns what is
// left, normalized. "ok, what is the price of vitamin c" leaves
// "what is the price of vitamin c".
func Remainder(utterance string) string {
	norm := neutralize(intent.Normalize(utterance))
	for _, w := range positiveWords {
		for intent.HasPhrase(norm, w) {
			norm = strings.Replace(norm, " "+w+" ", " ", 1)
		}
	}
	return strings.Join(strings.Fields(norm), " ")
}

func neutralize(norm string) string {
	for _, p := range benignPhrases {
		norm = strings.ReplaceAll(norm, " "+p+" ", " ok ")
	}
	return norm
}

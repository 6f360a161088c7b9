package nodes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/sarthi-rx/server/internal/agent/extract"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/replies"
	"github.com/sarthi-rx/server/internal/agent/safety"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// NewExtractNode pulls the product phrase and quantity out of the utterance.
// References like "the second one" pick from the latest recommendations.
func NewExtractNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		utterance := tc.Input.Utterance
		out := &model.OrderOutput{Mode: model.ModeOrder}
		if tc.Router.Intent == model.IntentMedicalInformation {
			out.Mode = model.ModeInfo
		}

		candidates := tc.Session.LastRecommended
		if tc.Advice != nil && len(tc.Advice.Recommendations) > 0 {
			candidates = tc.Advice.Recommendations
		}
		fromRecommendations := tc.Router.Intent == model.IntentFollowUp || tc.Advice != nil

		var source string
		if fromRecommendations {
			if idx, ok := extract.PickOrdinal(utterance, len(candidates)); ok {
				out.ProductPhrase = candidates[idx].Name
				source = "recommendation"
			} else if tc.Advice != nil && len(candidates) > 0 {
				out.ProductPhrase = candidates[0].Name
				source = "recommendation"
			}
			out.Quantity = d.Extractor.Rules(utterance).Quantity
		}

		if out.ProductPhrase == "" {
			ex := d.Extractor.Extract(ctx, utterance)
			out.ProductPhrase, out.Quantity, source = ex.Phrase, ex.Quantity, string(ex.Source)
			if ex.Strength > 0 && ex.Phrase != "" {
				out.ProductPhrase, out.Quantity = d.strengthOrQuantity(ctx, ex)
			}
			if out.ProductPhrase == "" {
				if idx, ok := extract.PickOrdinal(utterance, len(candidates)); ok {
					out.ProductPhrase = candidates[idx].Name
					source = "recommendation"
				}
			}
		}
		if out.Mode == model.ModeInfo && out.Quantity < 1 {
			out.Quantity = 1
		}
		tc.Order = out

		trace(ctx, "order_extractor", "extract", utterance,
			fmt.Sprintf("%q x %d (%s, %s)", out.ProductPhrase, out.Quantity, out.Mode, source))
		if out.Quantity < 1 {
			tc.Abort = model.ReasonInvalidQuantity
			trace(ctx, "order_extractor", "validate", strconv.Itoa(out.Quantity), string(model.ReasonInvalidQuantity))
			respond(tc, replies.Render(lang(tc), replies.InvalidQuantity))
		}
		return tc, nil
	})
}

// strengthOrQuantity decides whether a large bare number is a dose. It is
// when the phrase plus the number resolves to a catalog name carrying that
// dose; otherwise it stays the quantity for the gate to judge.
func (d *Deps) strengthOrQuantity(ctx context.Context, ex extract.Extraction) (string, int) {
	withDose := strings.TrimSpace(ex.Phrase + " " + strconv.Itoa(ex.Strength))
	match, _, err := d.Resolver.Resolve(ctx, withDose)
	if err != nil || match == nil || !extract.NamesStrength(match.MatchedName, ex.Strength) {
		return ex.Phrase, ex.Quantity
	}
	return withDose, ex.StrengthQuantity
}

// NewResolveNode maps the phrase onto a catalog name. Below-threshold
// phrases keep a nil match plus suggestions.
func NewResolveNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		if tc.Abort != "" {
			return tc, nil
		}
		o := tc.Order
		if strings.TrimSpace(o.ProductPhrase) == "" {
			trace(ctx, "entity_resolver", "resolve", "", string(model.ReasonNoEntityMatch))
			return tc, nil
		}

		match, suggestions, err := d.Resolver.Resolve(ctx, o.ProductPhrase)
		if err != nil {
			abort(ctx, tc, "entity_resolver", model.ReasonUpstreamUnavailable, err)
			respond(tc, replies.Render(lang(tc), replies.Unavailable))
			return tc, nil
		}
		o.Match = match
		o.Suggestions = suggestions

		if match == nil {
			trace(ctx, "entity_resolver", "resolve", o.ProductPhrase, string(model.ReasonNoEntityMatch))
			return tc, nil
		}
		trace(ctx, "entity_resolver", "resolve", o.ProductPhrase,
			fmt.Sprintf("%s (%.2f, high=%t)", match.MatchedName, match.Confidence, match.IsHighConfidence))
		return tc, nil
	})
}

func NewResolveCondition() func(context.Context, *model.TurnContext) (string, error) {
	return continueUnlessAborted(NodeSafety)
}

// NewSafetyNode runs the gate. Approval of an order creates the pending
// order and asks for confirmation; informational lookups only report.
func NewSafetyNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		o := tc.Order
		l := lang(tc)
		patientID := tc.Input.Patient()

		ev, err := d.Gate.Evaluate(ctx, safety.GateInput{
			Match:     o.Match,
			Quantity:  o.Quantity,
			PatientID: patientID,
			Mode:      o.Mode,
		})
		if err != nil {
			abort(ctx, tc, "safety_gate", model.ReasonUpstreamUnavailable, err)
			respond(tc, replies.Render(l, replies.Unavailable))
			return tc, nil
		}
		if ev.HistoryDegraded {
			trace(ctx, "interaction_checker", "history", patientID, string(model.ReasonUpstreamUnavailable))
		}

		res := ev.Result
		tc.Safety = &res
		trace(ctx, "safety_gate", "evaluate", matchedName(o), fmt.Sprintf("%s: %s", res.Reason, res.Detail))

		if o.Mode == model.ModeInfo && res.Product != nil {
			respond(tc, productInfo(l, *res.Product, d.Pharmacy.Currency))
			return tc, nil
		}
		if !res.Approved {
			respond(tc, denial(l, o, res))
			return tc, nil
		}

		p := res.Product
		pending := model.PendingOrder{
			ID:            uuid.NewString(),
			PatientID:     patientID,
			ProductName:   p.Name,
			Quantity:      o.Quantity,
			UnitPrice:     p.UnitPrice,
			StockSnapshot: p.Stock,
			CreatedAt:     tc.Now,
		}
		tc.Session.SetPending(pending)
		tc.RequiresConfirmation = true

		logx.Debug().
			Str("session_key", tc.Session.Key().String()).
			Str("pending_id", pending.ID).
			Str("product", pending.ProductName).
			Int("quantity", pending.Quantity).
			Msg("pending order created")
		respond(tc, replies.Render(l, replies.ConfirmPrompt,
			pending.ProductName, pending.Quantity, d.Pharmacy.Currency, model.OrderTotal(pending.UnitPrice, pending.Quantity)))
		return tc, nil
	})
}

func denial(l string, o *model.OrderOutput, res model.SafetyResult) string {
	switch res.Reason {
	case model.ReasonNotFound:
		if strings.TrimSpace(o.ProductPhrase) == "" {
			return replies.Render(l, replies.NoProductNamed)
		}
		text := replies.Render(l, replies.NotFound, o.ProductPhrase)
		if len(o.Suggestions) > 0 {
			text += replies.Render(l, replies.NotFoundSuggest, strings.Join(o.Suggestions, ", "))
		}
		return text
	case model.ReasonOutOfStock:
		return replies.Render(l, replies.OutOfStock, res.Product.Name, o.Quantity, res.Product.Stock)
	case model.ReasonPrescriptionRequired:
		return replies.Render(l, replies.RxRequired, res.Product.Name)
	case model.ReasonDrugInteraction:
		f := res.Interaction
		return replies.Render(l, replies.Interaction,
			strings.ToUpper(string(f.Severity)), f.ExistingDrug, f.NewDrug, f.Description, f.Recommendation)
	}
	return replies.Render(l, replies.Fallback)
}

func productInfo(l string, p model.ProductRef, currency string) string {
	rx := replies.Render(l, replies.RxInfoNo)
	if p.PrescriptionRequired {
		rx = replies.Render(l, replies.RxInfoYes)
	}
	return replies.Render(l, replies.ProductInfo, p.Name, p.Stock, currency, p.UnitPrice, rx)
}

func matchedName(o *model.OrderOutput) string {
	if o.Match != nil {
		return o.Match.MatchedName
	}
	return o.ProductPhrase
}

package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/sarthi-rx/server/internal/agent/confirm"
	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/replies"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// NewConfirmNode resolves the pending order. A yes or no always clears it;
// anything else keeps it and asks again. A yes that also carries a new
// request is treated as unclear.
func NewConfirmNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		s := tc.Session
		l := lang(tc)
		pending := *s.PendingOrder

		out := d.Handshake.Decide(ctx, tc.Input.Utterance, pending)
		blocked := out.Decision == model.ConfirmYes && d.carriesNewRequest(ctx, tc.Input.Utterance, pending)
		if blocked {
			out.Decision = model.ConfirmUnclear
		}
		tc.Confirmation = &out

		switch out.Decision {
		case model.ConfirmYes:
			out.Pending = s.TakePending()
		case model.ConfirmNo:
			out.Pending = s.TakePending()
			respond(tc, replies.Render(l, replies.Cancelled))
		default:
			tc.RequiresConfirmation = true
			key := replies.ConfirmReprompt
			if blocked || looksLikeNewRequest(tc.Input.Utterance) {
				key = replies.PendingBlocks
			}
			respond(tc, replies.Render(l, key, pending.ProductName, pending.Quantity))
		}

		result := string(out.Decision)
		if out.Decision == model.ConfirmUnclear {
			result = string(model.ReasonAmbiguousConfirmation)
		}
		logx.Debug().
			Str("session_key", s.Key().String()).
			Str("pending_id", pending.ID).
			Str("decision", string(out.Decision)).
			Str("source", string(out.Source)).
			Msg("confirmation decided")
		trace(ctx, "confirmation", "decide", tc.Input.Utterance, fmt.Sprintf("%s via %s", result, out.Source))
		return tc, nil
	})
}

// looksLikeNewRequest reports whether an unclear reply to a confirmation
// prompt is really a different request. The pending order still has to be
// answered first.
func looksLikeNewRequest(utterance string) bool {
	norm := intent.Normalize(utterance)
	if _, ok := intent.Override(norm); ok {
		return true
	}
	if intent.WantsOrder(utterance) {
		return true
	}
	switch intent.ClassifyRules(norm) {
	case model.IntentMedicineOrder, model.IntentFollowUp:
		return false
	}
	return true
}

// carriesNewRequest reports whether a yes also asks for something else,
// such as "ok, what is the price of vitamin c" or "sure, also order 2
// aspirin". Such a reply must not execute the pending order.
func (d *Deps) carriesNewRequest(ctx context.Context, utterance string, pending model.PendingOrder) bool {
	rest := confirm.Remainder(utterance)
	if rest == "" {
		return false
	}
	norm := intent.Normalize(rest)
	if _, ok := intent.Override(norm); ok {
		return true
	}
	switch intent.ClassifyRules(norm) {
	case model.IntentMedicineOrder, model.IntentFollowUp, model.IntentGreeting, model.IntentGeneralChat:
	default:
		return true
	}
	phrase := d.Extractor.Rules(rest).Phrase
	if phrase == "" {
		return false
	}
	match, _, err := d.Resolver.Resolve(ctx, phrase)
	if err != nil || match == nil {
		return false
	}
	return !strings.EqualFold(match.MatchedName, pending.ProductName)
}

func NewConfirmCondition() func(context.Context, *model.TurnContext) (string, error) {
	return func(_ context.Context, tc *model.TurnContext) (string, error) {
		if tc.Confirmation != nil && tc.Confirmation.Decision == model.ConfirmYes && tc.Confirmation.Pending != nil {
			return NodeExecute, nil
		}
		return NodeFinalize, nil
	}
}

// NewExecuteNode commits the confirmed order and reports the outcome.
func NewExecuteNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		l := lang(tc)
		pending := *tc.Confirmation.Pending
		out := d.Engine.Execute(ctx, pending)
		tc.Execution = &out

		for _, n := range out.Notifications {
			result := "sent"
			if !n.Success {
				result = "failed: " + n.Error
			}
			trace(ctx, "notifier", n.Channel, pending.ID, result)
		}

		if out.Reason == model.ReasonPriceChanged {
			trace(ctx, "execution", "execute", pending.ID, fmt.Sprintf("%s %.2f->%.2f", out.Reason, pending.UnitPrice, out.CurrentPrice))
			d.requote(tc, pending, out.CurrentPrice)
			return tc, nil
		}
		if out.Reason != model.ReasonNone || out.Order == nil {
			trace(ctx, "execution", "execute", pending.ID, string(out.Reason))
			respond(tc, d.executionFailure(ctx, l, pending, out.Reason))
			return tc, nil
		}

		o := out.Order
		tc.Session.LastOrderID = o.OrderID
		if out.Duplicate {
			respond(tc, replies.Render(l, replies.OrderReplayed, o.OrderID, d.Pharmacy.Currency, o.TotalPrice))
		} else {
			respond(tc, replies.Render(l, replies.OrderPlaced, o.OrderID, o.ProductName, o.Quantity, d.Pharmacy.Currency, o.TotalPrice))
		}
		trace(ctx, "execution", "execute", pending.ID,
			fmt.Sprintf("%s %s total=%.2f duplicate=%t", o.OrderID, o.Status, o.TotalPrice, out.Duplicate))
		return tc, nil
	})
}

// requote offers the same order again at the current price under a fresh
// pending ID. Nothing was committed for the old one.
func (d *Deps) requote(tc *model.TurnContext, old model.PendingOrder, price float64) {
	l := lang(tc)
	p := old
	p.ID = uuid.NewString()
	p.UnitPrice = price
	p.CreatedAt = tc.Now
	tc.Session.SetPending(p)
	tc.RequiresConfirmation = true

	logx.Info().
		Str("session_key", tc.Session.Key().String()).
		Str("pending_id", p.ID).
		Str("replaces", old.ID).
		Msg("pending order requoted")
	respond(tc, replies.Render(l, replies.PriceChanged, p.ProductName, d.Pharmacy.Currency, old.UnitPrice, d.Pharmacy.Currency, price))
	respond(tc, replies.Render(l, replies.ConfirmPrompt, p.ProductName, p.Quantity, d.Pharmacy.Currency, model.OrderTotal(price, p.Quantity)))
}

func (d *Deps) executionFailure(ctx context.Context, l string, pending model.PendingOrder, reason model.ReasonCode) string {
	switch reason {
	case model.ReasonOutOfStock:
		available := 0
		if p, err := d.Catalog.GetProduct(ctx, pending.ProductName); err == nil && p != nil {
			available = p.Stock
		}
		return replies.Render(l, replies.OutOfStock, pending.ProductName, pending.Quantity, available)
	case model.ReasonPriceNotAvailable:
		return replies.Render(l, replies.PriceUnavailable, pending.ProductName)
	case model.ReasonNotFound:
		return replies.Render(l, replies.NotFound, pending.ProductName)
	}
	return replies.Render(l, replies.OrderFailed)
}

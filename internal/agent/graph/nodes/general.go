package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/prompts"
	"github.com/sarthi-rx/server/internal/agent/replies"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

var (
	thanksWords = []string{"thank", "thanks", "thank you", "thx", "धन्यवाद", "शुक्रिया"}
	helpWords   = []string{"help", "what can you do", "who are you", "मदद", "मदत"}
)

// NewGeneralNode answers everything that is not part of the order or advice
// flows: greetings, catalog and account views, follow-up recaps and chat.
func NewGeneralNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		text, step, err := d.general(ctx, tc)
		if err != nil {
			abort(ctx, tc, "general", model.ReasonUpstreamUnavailable, err)
			respond(tc, replies.Render(lang(tc), replies.Unavailable))
			return tc, nil
		}
		respond(tc, text)
		trace(ctx, "general", step, string(tc.Router.Intent), "answered")
		return tc, nil
	})
}

func (d *Deps) general(ctx context.Context, tc *model.TurnContext) (string, string, error) {
	l := lang(tc)
	patientID := tc.Input.Patient()

	switch tc.Router.Intent {
	case model.IntentGreeting:
		return replies.Render(l, replies.Greeting, d.Pharmacy.Name), "greeting", nil

	case model.IntentShowCatalog:
		text, err := d.catalogListing(ctx, l)
		return text, "catalog", err

	case model.IntentOrderHistory:
		if d.Orders == nil {
			return replies.Render(l, replies.HistoryEmpty), "order_history", nil
		}
		orders, err := d.Orders.ListOrders(ctx, patientID, historyListLimit)
		if err != nil {
			return "", "", fmt.Errorf("list orders: %w", err)
		}
		if len(orders) == 0 {
			return replies.Render(l, replies.HistoryEmpty), "order_history", nil
		}
		lines := make([]string, 0, len(orders))
		for _, o := range orders {
			lines = append(lines, fmt.Sprintf("%s: %s x %d - %s%.2f (%s, %s)",
				o.OrderID, o.ProductName, o.Quantity, d.Pharmacy.Currency, o.TotalPrice,
				o.Status, o.Timestamp.Format("2006-01-02")))
		}
		return replies.Render(l, replies.HistoryHeader) + replies.Bullets(lines), "order_history", nil

	case model.IntentRefillReminders:
		if d.Refills == nil {
			return replies.Render(l, replies.RefillsNone), "refills", nil
		}
		due, err := d.Refills.DueRefills(ctx, patientID, tc.Now)
		if err != nil {
			return "", "", fmt.Errorf("due refills: %w", err)
		}
		if len(due) == 0 {
			return replies.Render(l, replies.RefillsNone), "refills", nil
		}
		items := make([]string, 0, len(due))
		for _, r := range due {
			items = append(items, replies.Render(l, replies.RefillItem, r.ProductName, r.DaysUntil))
		}
		return replies.Render(l, replies.RefillsHeader) + strings.Join(items, "\n"), "refills", nil

	case model.IntentShowProfile:
		if d.Patients == nil {
			return replies.Render(l, replies.ProfileMissing), "profile", nil
		}
		p, err := d.Patients.GetPatient(ctx, patientID)
		if err != nil {
			return "", "", fmt.Errorf("get patient: %w", err)
		}
		if p == nil {
			return replies.Render(l, replies.ProfileMissing), "profile", nil
		}
		return replies.Render(l, replies.Profile, p.Name, orDash(p.Phone), orDash(p.Email), orDash(p.Language)), "profile", nil

	case model.IntentUploadPrescription:
		return replies.Render(l, replies.UploadRx), "upload_prescription", nil

	case model.IntentFollowUp:
		recent := tc.Session.LastRecommended
		if len(recent) == 0 {
			return replies.Render(l, replies.Fallback), "follow_up", nil
		}
		names := make([]string, 0, len(recent))
		for _, p := range recent {
			names = append(names, p.Name)
		}
		return replies.Render(l, replies.FollowUpRecap, strings.Join(names, ", ")), "follow_up", nil
	}

	return d.chat(ctx, tc), "chat", nil
}

func (d *Deps) catalogListing(ctx context.Context, l string) (string, error) {
	products, err := d.Catalog.ListProducts(ctx)
	if err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return replies.Render(l, replies.CatalogEmpty), nil
	}
	shown := products
	if len(shown) > catalogListLimit {
		shown = shown[:catalogListLimit]
	}
	lines := make([]string, 0, len(shown))
	for _, p := range shown {
		lines = append(lines, productLine(p, d.Pharmacy.Currency))
	}
	text := replies.Render(l, replies.CatalogHeader) + replies.Bullets(lines)
	if more := len(products) - len(shown); more > 0 {
		text += "\n" + replies.Render(l, replies.CatalogMore, more)
	}
	return text, nil
}

// chat answers small talk. Thanks and help have canned replies; the rest
// goes to the language model with a canned fallback.
func (d *Deps) chat(ctx context.Context, tc *model.TurnContext) string {
	l := lang(tc)
	norm := intent.Normalize(tc.Input.Utterance)
	if intent.HasAny(norm, thanksWords) != "" {
		return replies.Render(l, replies.Thanks)
	}
	if intent.HasAny(norm, helpWords) != "" {
		return replies.Render(l, replies.Help)
	}
	if d.LLM == nil {
		return replies.Render(l, replies.Fallback)
	}

	p, err := prompts.RenderChat(ctx, d.Pharmacy.Name, l, d.Messages.BuildContext(tc.Session.History), tc.Input.Utterance)
	if err != nil {
		logx.Warn().Err(err).Msg("chat prompt render failed")
		return replies.Render(l, replies.Fallback)
	}
	reply, err := d.LLM.Complete(ctx, p)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil && !errors.Is(err, model.ErrUnavailable) {
			logx.Warn().Err(err).Msg("chat completion failed")
		}
		return replies.Render(l, replies.Fallback)
	}
	return strings.TrimSpace(reply)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/agent/advice"
	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/replies"
)

// NewMedicalAdviceNode identifies symptoms and gives non-diagnostic advice.
// Red-flag symptoms get an urgent-care message instead.
func NewMedicalAdviceNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		l := lang(tc)
		out, source := d.Advisor.Analyze(ctx, tc.Input.Utterance, l)
		out.WantsOrder = intent.WantsOrder(tc.Input.Utterance)
		tc.Advice = &out

		if len(out.Symptoms) > 0 {
			tc.Session.LastSymptoms = out.Symptoms
			tc.Session.LastConditions = out.Conditions
		}

		switch {
		case out.Urgent:
			respond(tc, replies.Render(l, replies.Urgent, strings.Join(advice.UrgentSymptoms(out), ", ")))
		case len(out.Symptoms) == 0:
			respond(tc, replies.Render(l, replies.NoSymptoms))
		default:
			conditions := strings.Join(out.Conditions, ", ")
			if conditions == "" {
				conditions = "a common minor illness"
			}
			respond(tc, replies.Render(l, replies.SymptomAdvice, strings.Join(out.Symptoms, ", "), conditions, out.Advice))
		}

		trace(ctx, "medical_advisor", "analyze", tc.Input.Utterance,
			fmt.Sprintf("symptoms=%v urgent=%t via %s", out.Symptoms, out.Urgent, source))
		return tc, nil
	})
}

// NewMedicalAdviceCondition recommends only when symptoms were identified
// and none of them is a red flag.
func NewMedicalAdviceCondition() func(context.Context, *model.TurnContext) (string, error) {
	return func(_ context.Context, tc *model.TurnContext) (string, error) {
		if tc.Advice == nil || tc.Advice.Urgent || len(tc.Advice.Symptoms) == 0 {
			return NodeFinalize, nil
		}
		return NodeRecommend, nil
	}
}

// NewRecommendNode searches the catalog for over-the-counter products that
// match the identified symptoms and remembers them for follow-ups.
func NewRecommendNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		l := lang(tc)
		recs, err := d.Recommender.Recommend(ctx, tc.Advice.Symptoms)
		if err != nil {
			abort(ctx, tc, "recommender", model.ReasonUpstreamUnavailable, err)
			respond(tc, replies.Render(l, replies.Unavailable))
			return tc, nil
		}
		tc.Advice.Recommendations = recs

		if len(recs) == 0 {
			respond(tc, replies.Render(l, replies.NoRecommendations))
			trace(ctx, "recommender", "recommend", strings.Join(tc.Advice.Symptoms, ", "), "no suitable products")
			return tc, nil
		}

		tc.Session.LastRecommended = recs
		lines := make([]string, 0, len(recs))
		names := make([]string, 0, len(recs))
		for _, p := range recs {
			lines = append(lines, productLine(p, d.Pharmacy.Currency))
			names = append(names, p.Name)
		}
		if !tc.Advice.WantsOrder {
			respond(tc, replies.Render(l, replies.Recommendations, replies.Bullets(lines)))
			respond(tc, replies.Render(l, replies.RecommendOrderTip))
		}
		trace(ctx, "recommender", "recommend", strings.Join(tc.Advice.Symptoms, ", "), strings.Join(names, ", "))
		return tc, nil
	})
}

// NewRecommendCondition continues into the order flow only when the user
// explicitly asked to buy.
func NewRecommendCondition() func(context.Context, *model.TurnContext) (string, error) {
	return func(_ context.Context, tc *model.TurnContext) (string, error) {
		if tc.Abort != "" || tc.Advice == nil || !tc.Advice.WantsOrder || len(tc.Advice.Recommendations) == 0 {
			return NodeFinalize, nil
		}
		return NodeExtract, nil
	}
}

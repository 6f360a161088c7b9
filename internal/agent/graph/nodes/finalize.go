package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/replies"
	"github.com/sarthi-rx/server/internal/metrics"
)

// NewFinalizeNode turns the context into the public result and attaches the
// trace collected in graph state.
func NewFinalizeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnResult, error) {
		if tc.Response == "" {
			tc.Response = replies.Render(lang(tc), replies.Fallback)
		}
		res := &model.TurnResult{
			ResponseText:         tc.Response,
			RequiresConfirmation: tc.RequiresConfirmation,
			Intent:               tc.Router.Intent,
			Language:             lang(tc),
		}
		if p := tc.Session.PendingOrder; p != nil {
			summary := p.Summary()
			res.PendingOrderSummary = &summary
			res.RequiresConfirmation = true
		}
		if tc.Execution != nil {
			res.Order = tc.Execution.Order
		}

		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			res.Trace = append([]model.TraceEntry(nil), s.Trace...)
			return nil
		})
		if err != nil {
			return nil, err
		}

		metrics.Turns.WithLabelValues(string(tc.Router.Intent), string(tc.Router.Source)).Inc()
		return res, nil
	})
}

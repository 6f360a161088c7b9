package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

const (
	catalogListLimit = 10
	historyListLimit = 5
)

// trace appends one entry to the turn trace held in graph state.
func trace(ctx context.Context, agent, step, inputs, result string) {
	err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		s.Trace = append(s.Trace, model.TraceEntry{
			Agent:     agent,
			Step:      step,
			Inputs:    inputs,
			Result:    result,
			Timestamp: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		logx.Warn().Err(err).Str("agent", agent).Msg("trace state unavailable")
	}
}

// respond appends text to the turn response, one paragraph per stage.
func respond(tc *model.TurnContext, text string) {
	if text == "" {
		return
	}
	if tc.Response == "" {
		tc.Response = text
		return
	}
	tc.Response += "\n\n" + text
}

// abort marks the turn as unable to continue and records why.
func abort(ctx context.Context, tc *model.TurnContext, agent string, reason model.ReasonCode, err error) {
	tc.Abort = reason
	logx.Error().Err(err).
		Str("session_key", tc.Session.Key().String()).
		Str("agent", agent).
		Str("reason", string(reason)).
		Msg("stage failed")
	trace(ctx, agent, "error", err.Error(), string(reason))
}

func lang(tc *model.TurnContext) string {
	if tc.Router.Language != "" {
		return tc.Router.Language
	}
	return tc.Session.Language
}

func productLine(p model.ProductRef, currency string) string {
	line := fmt.Sprintf("%s - %s%.2f", p.Name, currency, p.UnitPrice)
	if p.PrescriptionRequired {
		line += " (Rx)"
	}
	return line
}

// continueUnlessAborted routes to next, or straight to finalize when a stage
// aborted the turn.
func continueUnlessAborted(next string) func(context.Context, *model.TurnContext) (string, error) {
	return func(_ context.Context, tc *model.TurnContext) (string, error) {
		if tc.Abort != "" {
			return NodeFinalize, nil
		}
		return next, nil
	}
}

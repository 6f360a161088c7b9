package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

type stageStartKey struct{ name string }

// newStageHandler times every lambda node of the turn graph.
func newStageHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if !isStage(info) {
				return ctx
			}
			return context.WithValue(ctx, stageStartKey{info.Name}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			if !isStage(info) {
				return ctx
			}
			if start, ok := ctx.Value(stageStartKey{info.Name}).(time.Time); ok {
				elapsed := time.Since(start)
				metrics.StageDuration.WithLabelValues(info.Name).Observe(elapsed.Seconds())
				logx.Debug().Str("stage", info.Name).Dur("elapsed", elapsed).Msg("stage done")
			}
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			if isStage(info) {
				logx.Error().Err(err).Str("stage", info.Name).Msg("stage failed")
			}
			return ctx
		}).
		Build()
}

func isStage(info *einocb.RunInfo) bool {
	return info != nil && info.Name != "" && info.Component == compose.ComponentOfLambda
}

package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

const defaultTimeout = 8 * time.Second

// Provider is one text-completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Chain tries providers in order, each bounded by its own timeout, and
// reports model.ErrUnavailable when none of them answers.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ps := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Chain{providers: ps, timeout: timeout}
}

func (c *Chain) Len() int { return len(c.providers) }

func (c *Chain) Complete(ctx context.Context, prompt string) (string, error) {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}
		text, err := c.try(ctx, p, prompt)
		if err == nil {
			metrics.LLMRequests.WithLabelValues(p.Name(), "ok").Inc()
			return text, nil
		}
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
		metrics.LLMRequests.WithLabelValues(p.Name(), result).Inc()
		logx.Warn().Err(err).Str("provider", p.Name()).Msg("text completion failed, trying next provider")
	}
	return "", model.ErrUnavailable
}

func (c *Chain) try(ctx context.Context, p Provider, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logx.Error().Str("provider", p.Name()).Msgf("panic recovered: %v", r)
				done <- reply{err: errors.New("provider panic")}
			}
		}()
		text, err := p.Complete(cctx, prompt)
		done <- reply{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if strings.TrimSpace(r.text) == "" {
			return "", errors.New("empty completion")
		}
		return r.text, nil
	case <-cctx.Done():
		return "", cctx.Err()
	}
}

var _ model.TextCompleter = (*Chain)(nil)

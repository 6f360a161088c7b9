package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-rx/server/internal/agent/model"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
	block bool
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, _ string) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestChainUsesFirstHealthyProvider(t *testing.T) {
	a := &fakeProvider{name: "a", err: errors.New("boom")}
	b := &fakeProvider{name: "b", reply: "ok"}
	c := &fakeProvider{name: "c", reply: "never"}

	out, err := NewChain(time.Second, a, b, c).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 0, c.calls)
}

func TestChainTimesOutSlowProvider(t *testing.T) {
	slow := &fakeProvider{name: "slow", block: true}
	fast := &fakeProvider{name: "fast", reply: "done"}

	start := time.Now()
	out, err := NewChain(50*time.Millisecond, slow, fast).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestChainReportsUnavailable(t *testing.T) {
	_, err := NewChain(time.Second).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, model.ErrUnavailable)

	empty := &fakeProvider{name: "empty", reply: "   "}
	_, err = NewChain(time.Second, empty, nil).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

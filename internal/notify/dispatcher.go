package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

type Channel = model.Channel

// ErrNoRecipient marks a notification the channel has no address for.
var ErrNoRecipient = errors.New("no recipient for channel")

// Dispatcher sends one notification to every channel concurrently. A failing
// or panicking channel never affects the others.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
}

func NewDispatcher(timeout time.Duration, channels ...Channel) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{channels: channels, timeout: timeout}
}

// Dispatch waits for every channel and returns results in channel order.
func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification) []model.NotificationResult {
	results := make([]model.NotificationResult, len(d.channels))
	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = d.send(ctx, ch, n)
		}(i, ch)
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, n model.Notification) (res model.NotificationResult) {
	res.Channel = ch.Name()
	defer func() {
		if r := recover(); r != nil {
			res.Success, res.Error = false, fmt.Sprintf("panic: %v", r)
		}
		result := "ok"
		if !res.Success {
			result = "failed"
			logx.Warn().Str("channel", res.Channel).Str("kind", n.Kind).Str("order_id", n.OrderID).
				Str("error", res.Error).Msg("notification not delivered")
		}
		metrics.Notifications.WithLabelValues(res.Channel, result).Inc()
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	if err := ch.Send(ctx, n); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

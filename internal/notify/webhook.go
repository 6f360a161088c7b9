package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// Webhook posts the notification as JSON. It doubles as the fulfillment
// hook when pointed at the warehouse endpoint.
type Webhook struct {
	name   string
	url    string
	client *http.Client
}

func NewWebhook(name, url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Webhook{name: name, url: url, client: client}
}

func (w *Webhook) Name() string { return w.name }

func (w *Webhook) Send(ctx context.Context, n model.Notification) error {
	return w.post(ctx, map[string]any{"event": n.Kind, "notification": n})
}

// Trigger implements model.Fulfiller.
func (w *Webhook) Trigger(ctx context.Context, order model.Order) error {
	return w.post(ctx, map[string]any{"event": "fulfillment_requested", "order": order})
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sarthi-rx/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s webhook: %w", w.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s webhook returned %d", w.name, resp.StatusCode)
	}
	return nil
}

// LogFulfiller records the handoff when no warehouse endpoint is configured.
type LogFulfiller struct{}

func (LogFulfiller) Trigger(_ context.Context, order model.Order) error {
	logx.Info().Str("order_id", order.OrderID).Str("product", order.ProductName).Msg("order handed to fulfillment")
	return nil
}

package execution

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// Notifier fans a notification out to every configured channel.
type Notifier interface {
	Dispatch(ctx context.Context, n model.Notification) []model.NotificationResult
}

type Engine struct {
	catalog   model.CatalogReader
	orders    model.OrderStore
	patients  model.PatientReader
	fulfiller model.Fulfiller
	notifier  Notifier
	currency  string
}

type Option func(*Engine)

func WithFulfiller(f model.Fulfiller) Option {
	return func(e *Engine) { e.fulfiller = f }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithPatients(p model.PatientReader) Option {
	return func(e *Engine) { e.patients = p }
}

func WithCurrency(symbol string) Option {
	return func(e *Engine) { e.currency = symbol }
}

func NewEngine(catalog model.CatalogReader, orders model.OrderStore, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, orders: orders, currency: "₹"}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute commits a confirmed pending order. The returned output always
// carries a reason code; a nil Order means nothing was committed.
func (e *Engine) Execute(ctx context.Context, pending model.PendingOrder) model.ExecutionOutput {
	product, err := e.catalog.GetProduct(ctx, pending.ProductName)
	switch {
	case err != nil:
		logx.Error().Err(err).Str("product", pending.ProductName).Msg("revalidate product failed")
		metrics.Orders.WithLabelValues("persistence_failed").Inc()
		return model.ExecutionOutput{Reason: model.ReasonPersistenceFailed}
	case product == nil:
		metrics.Orders.WithLabelValues("not_found").Inc()
		return model.ExecutionOutput{Reason: model.ReasonNotFound}
	case product.UnitPrice <= 0:
		metrics.Orders.WithLabelValues("price_not_available").Inc()
		return model.ExecutionOutput{Reason: model.ReasonPriceNotAvailable}
	case priceChanged(pending.UnitPrice, product.UnitPrice):
		logx.Info().
			Str("pending_id", pending.ID).
			Float64("confirmed_price", pending.UnitPrice).
			Float64("current_price", product.UnitPrice).
			Msg("price changed since confirmation prompt")
		metrics.Orders.WithLabelValues(string(model.ReasonPriceChanged)).Inc()
		return model.ExecutionOutput{Reason: model.ReasonPriceChanged, CurrentPrice: product.UnitPrice}
	}

	receipt, err := e.orders.CreateOrder(ctx, model.OrderRequest{
		IdempotencyKey: pending.ID,
		PatientID:      pending.PatientID,
		ProductName:    product.Name,
		Quantity:       pending.Quantity,
		UnitPrice:      product.UnitPrice,
	})
	if err != nil {
		reason := reasonFor(err)
		if reason == model.ReasonPersistenceFailed {
			logx.Error().Err(err).Str("pending_id", pending.ID).Msg("create order failed")
		}
		metrics.Orders.WithLabelValues(string(reason)).Inc()
		return model.ExecutionOutput{Reason: reason}
	}

	order := receipt.Order
	out := model.ExecutionOutput{Order: &order, Reason: model.ReasonNone, Duplicate: receipt.Duplicate}
	if receipt.Duplicate {
		logx.Info().Str("order_id", order.OrderID).Msg("confirmation replay, returning existing order")
		metrics.Orders.WithLabelValues("duplicate").Inc()
		return out
	}
	metrics.Orders.WithLabelValues("created").Inc()

	e.fulfil(ctx, out.Order)
	out.Notifications = e.notify(ctx, order)
	return out
}

func (e *Engine) fulfil(ctx context.Context, order *model.Order) {
	if e.fulfiller == nil {
		return
	}
	if err := e.fulfiller.Trigger(ctx, *order); err != nil {
		logx.Warn().Err(err).Str("order_id", order.OrderID).Msg("fulfillment trigger failed")
		return
	}
	if err := e.orders.UpdateOrderStatus(ctx, order.OrderID, model.OrderConfirmed); err != nil {
		logx.Warn().Err(err).Str("order_id", order.OrderID).Msg("order status update failed")
		return
	}
	order.Status = model.OrderConfirmed
}

func (e *Engine) notify(ctx context.Context, order model.Order) []model.NotificationResult {
	if e.notifier == nil {
		return nil
	}
	n := model.Notification{
		Kind:        model.NotificationOrderPlaced,
		OrderID:     order.OrderID,
		PatientID:   order.PatientID,
		ProductName: order.ProductName,
		Quantity:    order.Quantity,
		TotalPrice:  order.TotalPrice,
	}
	if e.patients != nil {
		if p, err := e.patients.GetPatient(ctx, order.PatientID); err != nil {
			logx.Warn().Err(err).Str("patient_id", order.PatientID).Msg("patient lookup for notification failed")
		} else if p != nil {
			n.PatientName, n.Email, n.Phone = p.Name, p.Email, p.Phone
		}
	}
	n.Message = fmt.Sprintf("Your order %s for %d x %s has been placed. Total: %s%.2f",
		order.OrderID, order.Quantity, order.ProductName, e.currency, order.TotalPrice)
	return e.notifier.Dispatch(ctx, n)
}

// priceChanged compares to the cent. A zero quoted price predates price
// snapshots and is not compared.
func priceChanged(quoted, current float64) bool {
	if quoted <= 0 {
		return false
	}
	return math.Abs(quoted-current) >= 0.005
}

func reasonFor(err error) model.ReasonCode {
	switch {
	case errors.Is(err, model.ErrOutOfStock):
		return model.ReasonOutOfStock
	case errors.Is(err, model.ErrProductNotFound):
		return model.ReasonNotFound
	case errors.Is(err, model.ErrInvalidPrice):
		return model.ReasonPriceNotAvailable
	}
	return model.ReasonPersistenceFailed
}

package execution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

func init() {
	logx.Disable()
}

// memStore is a single-mutex stand-in for the SQL store.
type memStore struct {
	mu       sync.Mutex
	products map[string]*model.ProductRef
	orders   map[string]model.Order
	byKey    map[string]string
	failNext error
}

func newMemStore(products ...model.ProductRef) *memStore {
	s := &memStore{products: map[string]*model.ProductRef{}, orders: map[string]model.Order{}, byKey: map[string]string{}}
	for i := range products {
		p := products[i]
		s.products[p.Name] = &p
	}
	return s
}

func (s *memStore) GetProduct(_ context.Context, name string) (*model.ProductRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[name]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ListProducts(context.Context) ([]model.ProductRef, error) { return nil, nil }

func (s *memStore) CreateOrder(_ context.Context, req model.OrderRequest) (*model.OrderReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return nil, err
	}
	if id, ok := s.byKey[req.IdempotencyKey]; ok {
		return &model.OrderReceipt{Order: s.orders[id], Duplicate: true}, nil
	}
	p, ok := s.products[req.ProductName]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	if p.Stock < req.Quantity {
		return nil, model.ErrOutOfStock
	}
	p.Stock -= req.Quantity
	o := model.Order{
		OrderID:     uuid.NewString(),
		PatientID:   req.PatientID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalPrice:  model.OrderTotal(req.UnitPrice, req.Quantity),
		Status:      model.OrderCreated,
		Timestamp:   time.Now(),
	}
	s.orders[o.OrderID] = o
	s.byKey[req.IdempotencyKey] = o.OrderID
	return &model.OrderReceipt{Order: o}, nil
}

func (s *memStore) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	o.Status = status
	s.orders[id] = o
	return nil
}

func (s *memStore) ListOrders(context.Context, string, int) ([]model.Order, error) { return nil, nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (r *recordingNotifier) Dispatch(_ context.Context, n model.Notification) []model.NotificationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return []model.NotificationResult{{Channel: "email", Success: true}, {Channel: "sms", Success: false, Error: "gateway down"}}
}

type fulfiller struct{ err error }

func (f fulfiller) Trigger(context.Context, model.Order) error { return f.err }

func omega() model.ProductRef {
	return model.ProductRef{Name: "Omega-3", UnitPrice: 15, Stock: 10}
}

func pendingFor(name string, qty int) model.PendingOrder {
	return model.PendingOrder{ID: uuid.NewString(), PatientID: "P001", ProductName: name, Quantity: qty, UnitPrice: 15}
}

func TestExecuteCommitsOrder(t *testing.T) {
	store := newMemStore(omega())
	n := &recordingNotifier{}
	e := NewEngine(store, store, WithNotifier(n), WithFulfiller(fulfiller{}))

	out := e.Execute(context.Background(), pendingFor("Omega-3", 2))
	require.NotNil(t, out.Order)
	assert.Equal(t, model.ReasonNone, out.Reason)
	assert.Equal(t, 30.0, out.Order.TotalPrice)
	assert.Equal(t, model.OrderConfirmed, out.Order.Status)
	assert.Equal(t, 8, store.products["Omega-3"].Stock)

	require.Len(t, n.sent, 1)
	assert.Equal(t, model.NotificationOrderPlaced, n.sent[0].Kind)
	assert.Len(t, out.Notifications, 2)
	assert.False(t, out.Notifications[1].Success)
}

func TestExecuteReplayDoesNotDecrementTwice(t *testing.T) {
	store := newMemStore(omega())
	n := &recordingNotifier{}
	e := NewEngine(store, store, WithNotifier(n))
	p := pendingFor("Omega-3", 2)

	first := e.Execute(context.Background(), p)
	second := e.Execute(context.Background(), p)
	require.NotNil(t, second.Order)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Order.OrderID, second.Order.OrderID)
	assert.Equal(t, 8, store.products["Omega-3"].Stock)
	assert.Len(t, n.sent, 1)
}

func TestExecuteFulfillmentFailureKeepsOrder(t *testing.T) {
	store := newMemStore(omega())
	e := NewEngine(store, store, WithFulfiller(fulfiller{err: errors.New("warehouse offline")}))

	out := e.Execute(context.Background(), pendingFor("Omega-3", 1))
	require.NotNil(t, out.Order)
	assert.Equal(t, model.OrderCreated, out.Order.Status)
}

func TestExecuteRevalidates(t *testing.T) {
	store := newMemStore(model.ProductRef{Name: "Free Sample", UnitPrice: 0, Stock: 5})
	e := NewEngine(store, store)

	out := e.Execute(context.Background(), pendingFor("Free Sample", 1))
	assert.Nil(t, out.Order)
	assert.Equal(t, model.ReasonPriceNotAvailable, out.Reason)
	assert.Equal(t, 5, store.products["Free Sample"].Stock)

	out = e.Execute(context.Background(), pendingFor("Discontinued", 1))
	assert.Equal(t, model.ReasonNotFound, out.Reason)
}

func TestExecuteRefusesChangedPrice(t *testing.T) {
	store := newMemStore(model.ProductRef{Name: "Omega-3", UnitPrice: 18, Stock: 10})
	n := &recordingNotifier{}
	e := NewEngine(store, store, WithNotifier(n))

	out := e.Execute(context.Background(), pendingFor("Omega-3", 2))
	assert.Nil(t, out.Order)
	assert.Equal(t, model.ReasonPriceChanged, out.Reason)
	assert.InDelta(t, 18.0, out.CurrentPrice, 0.001)
	assert.Equal(t, 10, store.products["Omega-3"].Stock)
	assert.Empty(t, store.orders)
	assert.Empty(t, n.sent)
}

func TestExecuteIgnoresSubCentPriceDrift(t *testing.T) {
	store := newMemStore(model.ProductRef{Name: "Omega-3", UnitPrice: 15.001, Stock: 10})
	e := NewEngine(store, store)

	out := e.Execute(context.Background(), pendingFor("Omega-3", 1))
	require.NotNil(t, out.Order)
	assert.Equal(t, model.ReasonNone, out.Reason)
}

func TestExecuteStockRaceFailsCleanly(t *testing.T) {
	store := newMemStore(model.ProductRef{Name: "Omega-3", UnitPrice: 15, Stock: 1})
	e := NewEngine(store, store)

	out := e.Execute(context.Background(), pendingFor("Omega-3", 2))
	assert.Nil(t, out.Order)
	assert.Equal(t, model.ReasonOutOfStock, out.Reason)
	assert.Equal(t, 1, store.products["Omega-3"].Stock)
}

func TestExecutePersistenceFailure(t *testing.T) {
	store := newMemStore(omega())
	store.failNext = errors.New("disk full")
	e := NewEngine(store, store)

	out := e.Execute(context.Background(), pendingFor("Omega-3", 2))
	assert.Nil(t, out.Order)
	assert.Equal(t, model.ReasonPersistenceFailed, out.Reason)
	assert.Equal(t, 10, store.products["Omega-3"].Stock)
}

func TestConcurrentConfirmationsNeverOversell(t *testing.T) {
	store := newMemStore(model.ProductRef{Name: "Omega-3", UnitPrice: 15, Stock: 5})
	e := NewEngine(store, store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out := e.Execute(context.Background(), pendingFor("Omega-3", 1)); out.Order != nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, created)
	assert.Equal(t, 0, store.products["Omega-3"].Stock)
}

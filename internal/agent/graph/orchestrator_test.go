package graph

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-rx/server/internal/agent/advice"
	"github.com/sarthi-rx/server/internal/agent/confirm"
	"github.com/sarthi-rx/server/internal/agent/execution"
	"github.com/sarthi-rx/server/internal/agent/extract"
	"github.com/sarthi-rx/server/internal/agent/graph/conversations"
	"github.com/sarthi-rx/server/internal/agent/graph/nodes"
	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/repo"
	"github.com/sarthi-rx/server/internal/agent/resolver"
	"github.com/sarthi-rx/server/internal/agent/safety"
	errx "github.com/sarthi-rx/server/internal/core/error"
	"github.com/sarthi-rx/server/internal/store"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

func init() {
	logx.Disable()
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (r *recordingNotifier) Dispatch(_ context.Context, n model.Notification) []model.NotificationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return []model.NotificationResult{
		{Channel: "email", Success: true},
		{Channel: "sms", Success: false, Error: "gateway down"},
	}
}

type okFulfiller struct{}

func (okFulfiller) Trigger(context.Context, model.Order) error { return nil }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// backends are the stores the graph reads and writes. Options swap one of
// them for a failing wrapper around the real store.
type backends struct {
	catalog       model.CatalogReader
	orders        model.OrderStore
	prescriptions model.PrescriptionStore
}

type harnessOption func(*backends)

type failingCatalog struct {
	model.CatalogReader
	err error
}

func (f failingCatalog) ListProducts(context.Context) ([]model.ProductRef, error) { return nil, f.err }

type failingOrders struct {
	model.OrderStore
	err error
}

func (f failingOrders) CreateOrder(context.Context, model.OrderRequest) (*model.OrderReceipt, error) {
	return nil, f.err
}

type failingPrescriptions struct {
	model.PrescriptionStore
	err error
}

func (f failingPrescriptions) HasPrescription(context.Context, string, string) (bool, error) {
	return false, f.err
}

func withCatalogError(err error) harnessOption {
	return func(b *backends) { b.catalog = failingCatalog{CatalogReader: b.catalog, err: err} }
}

func withOrderError(err error) harnessOption {
	return func(b *backends) { b.orders = failingOrders{OrderStore: b.orders, err: err} }
}

func withPrescriptionError(err error) harnessOption {
	return func(b *backends) {
		b.prescriptions = failingPrescriptions{PrescriptionStore: b.prescriptions, err: err}
	}
}

type harness struct {
	orch     *Orchestrator
	store    *store.SQLiteStore
	sessions *repo.MemorySessionStore
	notifier *recordingNotifier
	clock    *clock
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(ctx, store.Config{
		Path:             filepath.Join(t.TempDir(), "turns.db"),
		Seed:             true,
		RefillSupplyDays: 30,
		RefillWindowDays: 7,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	conv := model.ConversationConfig{
		SessionTTL:      24 * time.Hour,
		PendingOrderTTL: 10 * time.Minute,
		MaxHistory:      20,
		ContextTurns:    6,
	}
	b := &backends{catalog: st, orders: st, prescriptions: st}
	for _, opt := range opts {
		opt(b)
	}

	notifier := &recordingNotifier{}
	checker := safety.NewInteractionChecker(st, safety.DefaultRules(), safety.DefaultHistoryWindow, safety.DefaultFuzzyThreshold)
	deps := &nodes.Deps{
		Classifier:  intent.NewClassifier(nil, "Test Pharmacy"),
		Advisor:     advice.NewAdvisor(nil),
		Recommender: advice.NewRecommender(st, 3),
		Extractor:   extract.NewExtractor(nil, 50),
		Resolver:    resolver.NewResolver(b.catalog, resolver.NewMatcher(resolver.DefaultThreshold, resolver.HighConfidenceThreshold)),
		Gate:        safety.NewGate(b.catalog, b.prescriptions, checker),
		Handshake:   confirm.NewHandshake(nil),
		Engine: execution.NewEngine(b.catalog, b.orders,
			execution.WithNotifier(notifier),
			execution.WithFulfiller(okFulfiller{}),
			execution.WithPatients(st),
			execution.WithCurrency("₹"),
		),
		Messages: conversations.NewMessagesManager(conv),
		Catalog:  b.catalog,
		Orders:   b.orders,
		Patients: st,
		Refills:  st,
		Pharmacy: model.PharmacyConfig{Name: "Test Pharmacy", Currency: "₹"},
	}

	clk := &clock{now: time.Now()}
	sessions := repo.NewMemorySessionStore(conv.SessionTTL)
	orch, err := NewOrchestrator(ctx, Config{
		Deps:          deps,
		Sessions:      sessions,
		Prescriptions: b.prescriptions,
		Conversation:  conv,
		Now:           clk.Now,
	})
	require.NoError(t, err)
	return &harness{orch: orch, store: st, sessions: sessions, notifier: notifier, clock: clk}
}

func (h *harness) turn(t *testing.T, session, patient, utterance string) *model.TurnResult {
	t.Helper()
	res, err := h.orch.ProcessTurn(context.Background(), model.TurnInput{
		UserID:    "user-1",
		SessionID: session,
		PatientID: patient,
		Utterance: utterance,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func (h *harness) session(t *testing.T, id string) *model.Session {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), model.SessionKey{UserID: "user-1", SessionID: id})
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func (h *harness) stock(t *testing.T, name string) int {
	t.Helper()
	p, err := h.store.GetProduct(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (h *harness) orderCount(t *testing.T, patient string) int {
	t.Helper()
	orders, err := h.store.ListOrders(context.Background(), patient, -1)
	require.NoError(t, err)
	return len(orders)
}

func hasTrace(res *model.TurnResult, agent, result string) bool {
	for _, e := range res.Trace {
		if e.Agent == agent && (result == "" || e.Result == result) {
			return true
		}
	}
	return false
}

func TestOrderIsPendingUntilConfirmed(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
	assert.Equal(t, model.IntentMedicineOrder, res.Intent)
	assert.True(t, res.RequiresConfirmation)
	require.NotNil(t, res.PendingOrderSummary)
	assert.Equal(t, "Omega-3", res.PendingOrderSummary.ProductName)
	assert.Equal(t, 2, res.PendingOrderSummary.Quantity)
	assert.InDelta(t, 15.0, res.PendingOrderSummary.UnitPrice, 0.001)
	assert.Equal(t, 10, h.stock(t, "Omega-3"))
	assert.NotEmpty(t, res.Trace)

	before := h.orderCount(t, "PAT001")
	res = h.turn(t, "s1", "PAT001", "yes")
	require.NotNil(t, res.Order)
	assert.InDelta(t, 30.0, res.Order.TotalPrice, 0.001)
	assert.Equal(t, model.OrderConfirmed, res.Order.Status)
	assert.Contains(t, res.ResponseText, res.Order.OrderID)
	assert.Contains(t, res.ResponseText, "30.00")
	assert.False(t, res.RequiresConfirmation)
	assert.Nil(t, res.PendingOrderSummary)
	assert.Equal(t, 8, h.stock(t, "Omega-3"))
	assert.Equal(t, before+1, h.orderCount(t, "PAT001"))

	assert.True(t, hasTrace(res, "notifier", "sent"))
	assert.True(t, hasTrace(res, "notifier", "failed: gateway down"))
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "Ramesh Kumar", h.notifier.sent[0].PatientName)

	s := h.session(t, "s1")
	assert.False(t, s.HasPending())
	assert.Equal(t, res.Order.OrderID, s.LastOrderID)
	assert.Len(t, s.History, 4)
}

func TestRepeatedYesCreatesNoSecondOrder(t *testing.T) {
	h := newHarness(t)
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
	h.turn(t, "s1", "PAT001", "yes")
	count := h.orderCount(t, "PAT001")

	res := h.turn(t, "s1", "PAT001", "yes")
	assert.Nil(t, res.Order)
	assert.Equal(t, count, h.orderCount(t, "PAT001"))
	assert.Equal(t, 8, h.stock(t, "Omega-3"))
}

func TestCancelClearsPendingOrder(t *testing.T) {
	h := newHarness(t)
	before := h.orderCount(t, "PAT001")

	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
	res := h.turn(t, "s1", "PAT001", "cancel")

	assert.Contains(t, res.ResponseText, "cancelled")
	assert.False(t, res.RequiresConfirmation)
	assert.False(t, h.session(t, "s1").HasPending())
	assert.Equal(t, before, h.orderCount(t, "PAT001"))
	assert.Equal(t, 10, h.stock(t, "Omega-3"))
}

func TestUnknownProductIsNotFound(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "I want to buy Xyzmedicine123")
	assert.False(t, res.RequiresConfirmation)
	assert.Nil(t, res.PendingOrderSummary)
	assert.Contains(t, res.ResponseText, "couldn't find")
	assert.True(t, hasTrace(res, "entity_resolver", string(model.ReasonNoEntityMatch)))

	var gate *model.TraceEntry
	for i := range res.Trace {
		if res.Trace[i].Agent == "safety_gate" {
			gate = &res.Trace[i]
		}
	}
	require.NotNil(t, gate)
	assert.Contains(t, gate.Result, string(model.ReasonNotFound))
	assert.False(t, h.session(t, "s1").HasPending())
}

func TestInteractionBlocksOrder(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT002", "buy 1 aspirin")
	assert.False(t, res.RequiresConfirmation)
	assert.Contains(t, res.ResponseText, "DRUG SAFETY ALERT")
	assert.Contains(t, res.ResponseText, "SEVERE")
	assert.False(t, h.session(t, "s1").HasPending())
}

func TestOutOfStockReportedBeforePrescription(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "buy atenolol")
	assert.Contains(t, res.ResponseText, "don't have enough stock")
	assert.NotContains(t, res.ResponseText, "prescription")
}

func TestPrescriptionRequiredUntilAttached(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "buy amoxicillin")
	assert.Contains(t, res.ResponseText, "requires a doctor's prescription")
	assert.False(t, res.RequiresConfirmation)

	batch, err := h.orch.AttachPrescription(context.Background(), "user-1", "s1", "PAT001", []string{"Amoxicilin 500", "Unicorn tears"})
	require.NoError(t, err)
	require.Len(t, batch.Matched, 1)
	assert.Equal(t, "Amoxicillin 500mg", batch.Matched[0].MatchedName)
	assert.Equal(t, []string{"Unicorn tears"}, batch.Unmatched)

	res = h.turn(t, "s1", "PAT001", "buy amoxicillin")
	assert.True(t, res.RequiresConfirmation)
	require.NotNil(t, res.PendingOrderSummary)
	assert.Equal(t, "Amoxicillin 500mg", res.PendingOrderSummary.ProductName)
}

func TestPendingOrderBlocksNewRequests(t *testing.T) {
	h := newHarness(t)
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")

	res := h.turn(t, "s1", "PAT001", "show available medicines")
	assert.True(t, res.RequiresConfirmation)
	assert.Contains(t, res.ResponseText, "still have an order waiting")
	assert.True(t, hasTrace(res, "confirmation", ""))

	s := h.session(t, "s1")
	require.True(t, s.HasPending())
	assert.Equal(t, "Omega-3", s.PendingOrder.ProductName)
}

func TestPendingOrderExpires(t *testing.T) {
	h := newHarness(t)
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
	before := h.orderCount(t, "PAT001")

	h.clock.Advance(11 * time.Minute)
	res := h.turn(t, "s1", "PAT001", "hello")

	require.NotEmpty(t, res.Trace)
	assert.Equal(t, "pending_expiry", res.Trace[0].Step)
	assert.Contains(t, res.ResponseText, "expired")
	assert.Contains(t, res.ResponseText, "Test Pharmacy")
	assert.Nil(t, res.PendingOrderSummary)
	assert.Equal(t, before, h.orderCount(t, "PAT001"))
}

func TestInformationModeCreatesNoPendingOrder(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "tell me about paracetamol")
	assert.Equal(t, model.IntentMedicalInformation, res.Intent)
	assert.Contains(t, res.ResponseText, "Paracetamol 500mg")
	assert.Contains(t, res.ResponseText, "200 units")
	assert.False(t, res.RequiresConfirmation)
	assert.False(t, h.session(t, "s1").HasPending())
}

func TestRecommendationFollowUp(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT003", "I have a headache, can you recommend something?")
	assert.Contains(t, res.ResponseText, "not a diagnosis")
	s := h.session(t, "s1")
	require.NotEmpty(t, s.LastRecommended)
	first := s.LastRecommended[0].Name
	for _, p := range s.LastRecommended {
		assert.False(t, p.PrescriptionRequired)
	}

	res = h.turn(t, "s1", "PAT003", "order the first one")
	assert.True(t, res.RequiresConfirmation)
	require.NotNil(t, res.PendingOrderSummary)
	assert.Equal(t, first, res.PendingOrderSummary.ProductName)
}

func TestUrgentSymptomsSkipRecommendations(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "I have chest pain, what should I take")
	assert.Contains(t, res.ResponseText, "seek medical care")
	assert.Empty(t, h.session(t, "s1").LastRecommended)
}

func TestGeneralHandlers(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "hello")
	assert.Equal(t, model.IntentGreeting, res.Intent)
	assert.Contains(t, res.ResponseText, "Test Pharmacy")

	res = h.turn(t, "s1", "PAT001", "show catalog")
	assert.Equal(t, model.IntentShowCatalog, res.Intent)
	assert.Contains(t, res.ResponseText, "Paracetamol 500mg")
	assert.Contains(t, res.ResponseText, "... and 8 more")

	res = h.turn(t, "s1", "PAT001", "my orders")
	assert.Contains(t, res.ResponseText, "Vitamin D")

	res = h.turn(t, "s1", "PAT001", "refill reminders")
	assert.Contains(t, res.ResponseText, "Vitamin D")

	res = h.turn(t, "s1", "PAT001", "my profile")
	assert.Contains(t, res.ResponseText, "Ramesh Kumar")
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")

	res := h.turn(t, "s2", "PAT001", "yes")
	assert.Nil(t, res.Order)
	assert.True(t, h.session(t, "s1").HasPending())
	assert.Equal(t, 10, h.stock(t, "Omega-3"))
}

func TestClearSessionDropsPending(t *testing.T) {
	h := newHarness(t)
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")

	key := model.SessionKey{UserID: "user-1", SessionID: "s1"}
	require.NoError(t, h.orch.ClearSession(context.Background(), key))
	s, err := h.sessions.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestInvalidTurnIsRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.ProcessTurn(context.Background(), model.TurnInput{UserID: "u", SessionID: "s", Utterance: "   "})
	assert.ErrorIs(t, err, ErrInvalidTurn)
}

func TestConcurrentSessionsNeverOversell(t *testing.T) {
	h := newHarness(t)
	const sessions = 8

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			ctx := context.Background()
			in := model.TurnInput{UserID: "user-1", SessionID: id, PatientID: "PAT001", Utterance: "I want to buy 2 Omega-3"}
			if _, err := h.orch.ProcessTurn(ctx, in); err != nil {
				return
			}
			in.Utterance = "yes"
			_, _ = h.orch.ProcessTurn(ctx, in)
		}(string(rune('a' + i)))
	}
	wg.Wait()

	assert.Equal(t, 0, h.stock(t, "Omega-3"))
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")

	acquired := make(chan struct{})
	go func() {
		u := k.Lock("a")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}

	other := k.Lock("b")
	other()

	unlock()
	<-acquired
	k.mu.Lock()
	defer k.mu.Unlock()
	assert.Empty(t, k.locks)
}

func TestAssentWithBenignNegativePlacesOrder(t *testing.T) {
	for _, reply := range []string{"yes, no problem", "sure, not a problem", "yes go ahead, I don't mind"} {
		t.Run(reply, func(t *testing.T) {
			h := newHarness(t)
			h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")

			res := h.turn(t, "s1", "PAT001", reply)
			require.NotNil(t, res.Order)
			assert.NotContains(t, res.ResponseText, "cancelled")
			assert.Equal(t, 8, h.stock(t, "Omega-3"))
		})
	}
}

func TestMixedConfirmationAsksAgain(t *testing.T) {
	h := newHarness(t)
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")

	res := h.turn(t, "s1", "PAT001", "yes... actually wait")
	assert.Nil(t, res.Order)
	assert.True(t, res.RequiresConfirmation)
	assert.True(t, h.session(t, "s1").HasPending())
	assert.Equal(t, 10, h.stock(t, "Omega-3"))
}

func TestAssentWithNewRequestKeepsPending(t *testing.T) {
	for _, reply := range []string{"ok, what is the price of Vitamin C?", "sure, also order 2 aspirin"} {
		t.Run(reply, func(t *testing.T) {
			h := newHarness(t)
			h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
			before := h.orderCount(t, "PAT001")

			res := h.turn(t, "s1", "PAT001", reply)
			assert.Nil(t, res.Order)
			assert.True(t, res.RequiresConfirmation)
			assert.Contains(t, res.ResponseText, "still have an order waiting")
			assert.Equal(t, before, h.orderCount(t, "PAT001"))
			assert.Equal(t, 10, h.stock(t, "Omega-3"))

			s := h.session(t, "s1")
			require.True(t, s.HasPending())
			assert.Equal(t, "Omega-3", s.PendingOrder.ProductName)
			assert.Equal(t, 2, s.PendingOrder.Quantity)
		})
	}
}

func TestAssentNamingPendingProductPlacesOrder(t *testing.T) {
	h := newHarness(t)
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")

	res := h.turn(t, "s1", "PAT001", "yes please order the omega-3")
	require.NotNil(t, res.Order)
	assert.Equal(t, "Omega-3", res.Order.ProductName)
	assert.Equal(t, 8, h.stock(t, "Omega-3"))
}

func TestLargeQuantityReachesStockCheck(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "buy 60 Omega-3")
	assert.False(t, res.RequiresConfirmation)
	assert.Contains(t, res.ResponseText, "don't have enough stock for 60")
	assert.True(t, hasTrace(res, "safety_gate", ""))
	assert.False(t, h.session(t, "s1").HasPending())
}

func TestMultiplierQuantity(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "order 3x Omega-3")
	require.NotNil(t, res.PendingOrderSummary)
	assert.Equal(t, "Omega-3", res.PendingOrderSummary.ProductName)
	assert.Equal(t, 3, res.PendingOrderSummary.Quantity)
	assert.Contains(t, res.ResponseText, "45.00")
}

func TestZeroQuantityAsksForAmount(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "buy 0 aspirin")
	assert.False(t, res.RequiresConfirmation)
	assert.Nil(t, res.PendingOrderSummary)
	assert.Contains(t, res.ResponseText, "at least 1")
	assert.True(t, hasTrace(res, "order_extractor", string(model.ReasonInvalidQuantity)))
	assert.False(t, hasTrace(res, "entity_resolver", ""))
	assert.False(t, h.session(t, "s1").HasPending())
}

func TestBareStrengthIsNotQuantity(t *testing.T) {
	h := newHarness(t)

	res := h.turn(t, "s1", "PAT001", "I need paracetamol 500")
	require.NotNil(t, res.PendingOrderSummary)
	assert.Equal(t, "Paracetamol 500mg", res.PendingOrderSummary.ProductName)
	assert.Equal(t, 1, res.PendingOrderSummary.Quantity)
}

func TestPersistenceFailureOnConfirm(t *testing.T) {
	h := newHarness(t, withOrderError(errors.New("disk I/O error")))
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
	before := h.orderCount(t, "PAT001")

	res := h.turn(t, "s1", "PAT001", "yes")
	assert.Nil(t, res.Order)
	assert.Contains(t, res.ResponseText, "could not complete your order")
	assert.True(t, hasTrace(res, "execution", string(model.ReasonPersistenceFailed)))
	assert.False(t, res.RequiresConfirmation)
	assert.False(t, h.session(t, "s1").HasPending())
	assert.Equal(t, before, h.orderCount(t, "PAT001"))
	assert.Equal(t, 10, h.stock(t, "Omega-3"))
}

func TestCatalogFailureAbortsTurn(t *testing.T) {
	h := newHarness(t, withCatalogError(errors.New("database is locked")))

	res := h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
	assert.True(t, hasTrace(res, "entity_resolver", string(model.ReasonUpstreamUnavailable)))
	assert.False(t, hasTrace(res, "safety_gate", ""))
	assert.Contains(t, res.ResponseText, "having trouble")
	assert.False(t, res.RequiresConfirmation)
	assert.False(t, h.session(t, "s1").HasPending())
}

func TestPrescriptionStoreFailureAbortsTurn(t *testing.T) {
	h := newHarness(t, withPrescriptionError(errors.New("database is locked")))

	res := h.turn(t, "s1", "PAT001", "buy amoxicillin")
	assert.True(t, hasTrace(res, "safety_gate", string(model.ReasonUpstreamUnavailable)))
	assert.Contains(t, res.ResponseText, "having trouble")
	assert.NotContains(t, res.ResponseText, "requires a doctor's prescription")
	assert.False(t, h.session(t, "s1").HasPending())
}

func TestPriceChangeRequotesBeforeCommit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.turn(t, "s1", "PAT001", "I want to buy 2 Omega-3")
	first := h.session(t, "s1").PendingOrder.ID

	p, err := h.store.GetProduct(ctx, "Omega-3")
	require.NoError(t, err)
	p.UnitPrice = 18
	require.NoError(t, h.store.UpsertProduct(ctx, *p))
	before := h.orderCount(t, "PAT001")

	res := h.turn(t, "s1", "PAT001", "yes")
	assert.Nil(t, res.Order)
	assert.True(t, res.RequiresConfirmation)
	assert.Contains(t, res.ResponseText, "has changed")
	assert.Contains(t, res.ResponseText, "36.00")
	assert.True(t, hasTrace(res, "execution", ""))
	require.NotNil(t, res.PendingOrderSummary)
	assert.InDelta(t, 18.0, res.PendingOrderSummary.UnitPrice, 0.001)
	assert.NotEqual(t, first, h.session(t, "s1").PendingOrder.ID)
	assert.Equal(t, before, h.orderCount(t, "PAT001"))
	assert.Equal(t, 10, h.stock(t, "Omega-3"))

	res = h.turn(t, "s1", "PAT001", "yes")
	require.NotNil(t, res.Order)
	assert.InDelta(t, 36.0, res.Order.TotalPrice, 0.001)
}

func TestSeparatorInIDsIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.ProcessTurn(ctx, model.TurnInput{UserID: "a:b", SessionID: "c", Utterance: "hello"})
	assert.ErrorIs(t, err, ErrInvalidTurn)
	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))

	_, err = h.orch.ProcessTurn(ctx, model.TurnInput{UserID: "a", SessionID: "b:c", Utterance: "hello"})
	assert.ErrorIs(t, err, ErrInvalidTurn)

	_, err = h.orch.AttachPrescription(ctx, "a:b", "c", "PAT001", []string{"Amoxicillin 500mg"})
	assert.ErrorIs(t, err, ErrInvalidTurn)

	assert.ErrorIs(t, h.orch.ClearSession(ctx, model.SessionKey{UserID: "a", SessionID: "b:c"}), ErrInvalidTurn)
}

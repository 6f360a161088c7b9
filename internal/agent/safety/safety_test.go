package safety

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

func init() {
	logx.Disable()
}

type fakeCatalog map[string]*model.ProductRef

func (f fakeCatalog) GetProduct(_ context.Context, name string) (*model.ProductRef, error) {
	p, ok := f[name]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeCatalog) ListProducts(context.Context) ([]model.ProductRef, error) {
	out := make([]model.ProductRef, 0, len(f))
	for _, p := range f {
		out = append(out, *p)
	}
	return out, nil
}

type fakeHistory struct {
	items []model.HistoryItem
	err   error
}

func (f fakeHistory) RecentOrders(context.Context, string, time.Duration) ([]model.HistoryItem, error) {
	return f.items, f.err
}

type fakePrescriptions map[string]bool

func (f fakePrescriptions) HasPrescription(_ context.Context, patientID, product string) (bool, error) {
	return f[patientID+"|"+product], nil
}

func (f fakePrescriptions) AddPrescription(_ context.Context, patientID string, products []string) error {
	for _, p := range products {
		f[patientID+"|"+p] = true
	}
	return nil
}

func history(names ...string) fakeHistory {
	h := fakeHistory{}
	for _, n := range names {
		h.items = append(h.items, model.HistoryItem{ProductName: n, Quantity: 1, Date: time.Now()})
	}
	return h
}

func match(name string) *model.MatchResult {
	return model.NewMatchResult(name, name, 1, 0.75)
}

func TestDefaultRulesLoad(t *testing.T) {
	rs := DefaultRules()
	assert.NotEmpty(t, rs.Interactions)
	assert.Equal(t, "Ibuprofen", rs.Canonicalize("Nurofen Express 200mg"))
	assert.Equal(t, "Warfarin", rs.Canonicalize("Coumadin"))
	assert.Equal(t, "Omega-3", rs.Canonicalize(" Omega-3 "))
}

func TestLoadRulesRejectsUnknownSeverity(t *testing.T) {
	_, err := LoadRules([]byte("interactions:\n  - {drug1: A, drug2: B, severity: fatal}\n"))
	require.Error(t, err)
}

func TestLookupChecksBothOrderings(t *testing.T) {
	rs := DefaultRules()
	assert.NotNil(t, rs.Lookup("Warfarin", "Aspirin"))
	assert.NotNil(t, rs.Lookup("Aspirin", "Warfarin"))
	assert.Nil(t, rs.Lookup("Paracetamol", "Omega-3"))
}

func TestInteractionCheckerFindsKnownPair(t *testing.T) {
	c := NewInteractionChecker(history("Warfarin 5mg"), nil, 0, 0)
	f, degraded := c.Check(context.Background(), "P001", "Aspirin 100mg")
	require.NotNil(t, f)
	assert.False(t, degraded)
	assert.Equal(t, "Warfarin", f.ExistingDrug)
	assert.Equal(t, "Aspirin", f.NewDrug)
	assert.Equal(t, model.SeveritySevere, f.Severity)
	assert.NotEmpty(t, f.Recommendation)
}

func TestInteractionCheckerSnapsMisspellings(t *testing.T) {
	c := NewInteractionChecker(history("Warfrin"), nil, 0, 0)
	f := c.CheckAgainst("Aspirin", []string{"Warfrin"})
	require.NotNil(t, f)
	assert.Equal(t, "Warfarin", f.ExistingDrug)
}

func TestInteractionCheckerIgnoresUnrelated(t *testing.T) {
	c := NewInteractionChecker(history("Vitamin D", "Omega-3"), nil, 0, 0)
	f, _ := c.Check(context.Background(), "P001", "Aspirin 100mg")
	assert.Nil(t, f)
}

func TestInteractionCheckerFailsOpen(t *testing.T) {
	c := NewInteractionChecker(fakeHistory{err: errors.New("db down")}, nil, 0, 0)
	f, degraded := c.Check(context.Background(), "P001", "Aspirin 100mg")
	assert.Nil(t, f)
	assert.True(t, degraded)
}

func newGate(cat fakeCatalog, h fakeHistory, rx fakePrescriptions) *Gate {
	return NewGate(cat, rx, NewInteractionChecker(h, nil, 0, 0))
}

func TestGateApproves(t *testing.T) {
	cat := fakeCatalog{"Omega-3": {Name: "Omega-3", UnitPrice: 15, Stock: 10}}
	g := newGate(cat, history(), fakePrescriptions{})

	ev, err := g.Evaluate(context.Background(), GateInput{Match: match("Omega-3"), Quantity: 2, PatientID: "P001", Mode: model.ModeOrder})
	require.NoError(t, err)
	assert.True(t, ev.Result.Approved)
	assert.Equal(t, model.ReasonNone, ev.Result.Reason)
	require.NotNil(t, ev.Result.Product)
	assert.Equal(t, 10, ev.Result.Product.Stock)
}

func TestGateNotFound(t *testing.T) {
	g := newGate(fakeCatalog{}, history(), fakePrescriptions{})
	ev, err := g.Evaluate(context.Background(), GateInput{Quantity: 1, PatientID: "P001", Mode: model.ModeOrder})
	require.NoError(t, err)
	assert.False(t, ev.Result.Approved)
	assert.Equal(t, model.ReasonNotFound, ev.Result.Reason)

	ev, err = g.Evaluate(context.Background(), GateInput{Match: match("Ghost"), Quantity: 1, Mode: model.ModeOrder})
	require.NoError(t, err)
	assert.Equal(t, model.ReasonNotFound, ev.Result.Reason)
}

func TestGateOutOfStockBeatsPrescription(t *testing.T) {
	cat := fakeCatalog{"Warfarin 5mg": {Name: "Warfarin 5mg", UnitPrice: 40, Stock: 1, PrescriptionRequired: true}}
	g := newGate(cat, history(), fakePrescriptions{})

	ev, err := g.Evaluate(context.Background(), GateInput{Match: match("Warfarin 5mg"), Quantity: 3, PatientID: "P001", Mode: model.ModeOrder})
	require.NoError(t, err)
	assert.Equal(t, model.ReasonOutOfStock, ev.Result.Reason)
	assert.True(t, strings.Contains(ev.Result.Detail, "only 1"))
}

func TestGatePrescriptionRequired(t *testing.T) {
	cat := fakeCatalog{"Warfarin 5mg": {Name: "Warfarin 5mg", UnitPrice: 40, Stock: 20, PrescriptionRequired: true}}
	rx := fakePrescriptions{}
	g := newGate(cat, history(), rx)

	in := GateInput{Match: match("Warfarin 5mg"), Quantity: 1, PatientID: "P001", Mode: model.ModeOrder}
	ev, err := g.Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonPrescriptionRequired, ev.Result.Reason)

	require.NoError(t, rx.AddPrescription(context.Background(), "P001", []string{"Warfarin 5mg"}))
	ev, err = g.Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, ev.Result.Approved)
}

func TestGateBlocksInteraction(t *testing.T) {
	cat := fakeCatalog{"Aspirin 100mg": {Name: "Aspirin 100mg", UnitPrice: 5, Stock: 100}}
	g := newGate(cat, history("Warfarin 5mg"), fakePrescriptions{})

	ev, err := g.Evaluate(context.Background(), GateInput{Match: match("Aspirin 100mg"), Quantity: 1, PatientID: "P001", Mode: model.ModeOrder})
	require.NoError(t, err)
	assert.False(t, ev.Result.Approved)
	assert.Equal(t, model.ReasonDrugInteraction, ev.Result.Reason)
	require.NotNil(t, ev.Result.Interaction)
	assert.Equal(t, model.SeveritySevere, ev.Result.Interaction.Severity)
}

func TestGateInfoModeSkipsInteraction(t *testing.T) {
	cat := fakeCatalog{"Aspirin 100mg": {Name: "Aspirin 100mg", UnitPrice: 5, Stock: 100}}
	g := newGate(cat, history("Warfarin 5mg"), fakePrescriptions{})

	ev, err := g.Evaluate(context.Background(), GateInput{Match: match("Aspirin 100mg"), Quantity: 1, PatientID: "P001", Mode: model.ModeInfo})
	require.NoError(t, err)
	assert.True(t, ev.Result.Approved)
	assert.Nil(t, ev.Result.Interaction)
}

func TestGateDegradedHistoryStillApproves(t *testing.T) {
	cat := fakeCatalog{"Aspirin 100mg": {Name: "Aspirin 100mg", UnitPrice: 5, Stock: 100}}
	g := newGate(cat, fakeHistory{err: errors.New("timeout")}, fakePrescriptions{})

	ev, err := g.Evaluate(context.Background(), GateInput{Match: match("Aspirin 100mg"), Quantity: 1, PatientID: "P001", Mode: model.ModeOrder})
	require.NoError(t, err)
	assert.True(t, ev.Result.Approved)
	assert.True(t, ev.HistoryDegraded)
}

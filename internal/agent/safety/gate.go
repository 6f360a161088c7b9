package safety

import (
	"context"
	"fmt"

	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

type GateInput struct {
	Match     *model.MatchResult
	Quantity  int
	PatientID string
	Mode      model.OrderMode
}

// Evaluation bundles the gate decision with side-channel facts for the trace.
type Evaluation struct {
	Result model.SafetyResult
	// HistoryDegraded is set when the interaction check was skipped because
	// the history lookup failed.
	HistoryDegraded bool
}

// Gate runs the ordered safety checks. The first failing check wins.
type Gate struct {
	catalog       model.CatalogReader
	prescriptions model.PrescriptionStore
	interactions  *InteractionChecker
}

func NewGate(catalog model.CatalogReader, prescriptions model.PrescriptionStore, interactions *InteractionChecker) *Gate {
	return &Gate{catalog: catalog, prescriptions: prescriptions, interactions: interactions}
}

func (g *Gate) Evaluate(ctx context.Context, in GateInput) (Evaluation, error) {
	ev, err := g.evaluate(ctx, in)
	if err == nil {
		metrics.SafetyDecisions.WithLabelValues(string(ev.Result.Reason)).Inc()
	}
	return ev, err
}

func (g *Gate) evaluate(ctx context.Context, in GateInput) (Evaluation, error) {
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	if in.Match == nil {
		return deny(model.ReasonNotFound, "no catalog entry matched the request", nil), nil
	}

	product, err := g.catalog.GetProduct(ctx, in.Match.MatchedName)
	if err != nil {
		return Evaluation{}, fmt.Errorf("read product %q: %w", in.Match.MatchedName, err)
	}
	if product == nil {
		return deny(model.ReasonNotFound, fmt.Sprintf("%s is no longer in the catalog", in.Match.MatchedName), nil), nil
	}

	// Informational lookups report availability without blocking on
	// prescriptions or interactions.
	if in.Mode == model.ModeInfo {
		return Evaluation{Result: model.SafetyResult{
			Approved: product.Stock > 0,
			Reason:   stockReason(product.Stock > 0),
			Detail:   fmt.Sprintf("%d units in stock", product.Stock),
			Product:  product,
		}}, nil
	}

	if product.Stock < in.Quantity {
		return deny(model.ReasonOutOfStock,
			fmt.Sprintf("requested %d, only %d units available", in.Quantity, product.Stock), product), nil
	}

	if product.PrescriptionRequired {
		ok := false
		if g.prescriptions != nil {
			ok, err = g.prescriptions.HasPrescription(ctx, in.PatientID, product.Name)
			if err != nil {
				return Evaluation{}, fmt.Errorf("read prescriptions: %w", err)
			}
		}
		if !ok {
			return deny(model.ReasonPrescriptionRequired,
				fmt.Sprintf("%s requires a prescription on file", product.Name), product), nil
		}
	}

	var degraded bool
	if g.interactions != nil {
		var finding *model.InteractionFinding
		finding, degraded = g.interactions.Check(ctx, in.PatientID, product.Name)
		if finding != nil {
			logx.Warn().
				Str("patient_id", in.PatientID).
				Str("existing", finding.ExistingDrug).
				Str("new", finding.NewDrug).
				Str("severity", string(finding.Severity)).
				Msg("drug interaction blocked order")
			ev := deny(model.ReasonDrugInteraction,
				fmt.Sprintf("%s interacts with %s (%s)", finding.NewDrug, finding.ExistingDrug, finding.Severity), product)
			ev.Result.Interaction = finding
			return ev, nil
		}
	}

	return Evaluation{
		Result: model.SafetyResult{
			Approved: true,
			Reason:   model.ReasonNone,
			Detail:   fmt.Sprintf("%d x %s approved", in.Quantity, product.Name),
			Product:  product,
		},
		HistoryDegraded: degraded,
	}, nil
}

func deny(reason model.ReasonCode, detail string, product *model.ProductRef) Evaluation {
	return Evaluation{Result: model.SafetyResult{
		Approved: false,
		Reason:   reason,
		Detail:   detail,
		Product:  product,
	}}
}

func stockReason(inStock bool) model.ReasonCode {
	if inStock {
		return model.ReasonNone
	}
	return model.ReasonOutOfStock
}

package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/agent/advice"
	"github.com/sarthi-rx/server/internal/agent/confirm"
	"github.com/sarthi-rx/server/internal/agent/execution"
	"github.com/sarthi-rx/server/internal/agent/extract"
	"github.com/sarthi-rx/server/internal/agent/graph/conversations"
	"github.com/sarthi-rx/server/internal/agent/intent"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/resolver"
	"github.com/sarthi-rx/server/internal/agent/safety"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

const (
	NodeRoute         = "route"
	NodeGeneral       = "general"
	NodeMedicalAdvice = "medical_advice"
	NodeRecommend     = "recommend"
	NodeExtract       = "extract"
	NodeResolve       = "resolve"
	NodeSafety        = "safety"
	NodeConfirm       = "confirm"
	NodeExecute       = "execute"
	NodeFinalize      = "finalize"
)

// Deps are the collaborators shared by every node.
type Deps struct {
	Classifier  *intent.Classifier
	Advisor     *advice.Advisor
	Recommender *advice.Recommender
	Extractor   *extract.Extractor
	Resolver    *resolver.Resolver
	Gate        *safety.Gate
	Handshake   *confirm.Handshake
	Engine      *execution.Engine
	Messages    *conversations.MessagesManager

	Catalog  model.CatalogReader
	Orders   model.OrderStore
	Patients model.PatientReader
	Refills  model.RefillReader
	LLM      model.TextCompleter

	Pharmacy model.PharmacyConfig
}

// Validate reports the first missing collaborator the graph cannot run
// without.
func (d *Deps) Validate() error {
	switch {
	case d == nil:
		return fmt.Errorf("node deps are nil")
	case d.Classifier == nil:
		return fmt.Errorf("intent classifier is nil")
	case d.Extractor == nil || d.Resolver == nil || d.Gate == nil:
		return fmt.Errorf("order flow is not properly initialized")
	case d.Handshake == nil || d.Engine == nil:
		return fmt.Errorf("confirmation or execution is not properly initialized")
	case d.Advisor == nil || d.Recommender == nil:
		return fmt.Errorf("advice stages are not properly initialized")
	case d.Catalog == nil:
		return fmt.Errorf("catalog reader is nil")
	case d.Messages == nil:
		return fmt.Errorf("messages manager is nil")
	}
	return nil
}

// NewRouteNode classifies the utterance. A pending order skips
// classification since the handshake owns the turn.
func NewRouteNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, tc *model.TurnContext) (*model.TurnContext, error) {
		s := tc.Session
		if s.HasPending() {
			lang := intent.NormalizeLanguage(tc.Input.Language)
			if lang == "" {
				lang = intent.DetectLanguage(tc.Input.Utterance)
			}
			tc.Router = model.RouterOutput{
				Intent:   s.LastIntent,
				Language: lang,
				Source:   model.RouteConfirmation,
			}
			s.Language = lang
			trace(ctx, "router", "route", tc.Input.Utterance, "pending order awaiting confirmation")
			return tc, nil
		}

		history := d.Messages.BuildContext(s.History)
		tc.Router = d.Classifier.Classify(ctx, tc.Input.Utterance, tc.Input.Language, history)
		s.Language = tc.Router.Language
		s.LastIntent = tc.Router.Intent

		logx.Debug().
			Str("session_key", s.Key().String()).
			Str("intent", string(tc.Router.Intent)).
			Str("source", string(tc.Router.Source)).
			Str("language", tc.Router.Language).
			Msg("turn routed")
		trace(ctx, "router", "classify", tc.Input.Utterance,
			fmt.Sprintf("%s via %s (%s)", tc.Router.Intent, tc.Router.Source, tc.Router.Language))
		return tc, nil
	})
}

// NewRouteCondition picks the stage that owns the turn.
func NewRouteCondition() func(context.Context, *model.TurnContext) (string, error) {
	return func(ctx context.Context, tc *model.TurnContext) (string, error) {
		if tc.Session.HasPending() {
			return NodeConfirm, nil
		}
		switch tc.Router.Intent {
		case model.IntentSymptomQuery, model.IntentMedicineRecommendation:
			return NodeMedicalAdvice, nil
		case model.IntentMedicineOrder, model.IntentMedicalInformation:
			return NodeExtract, nil
		case model.IntentFollowUp:
			if _, ok := extract.PickOrdinal(tc.Input.Utterance, len(tc.Session.LastRecommended)); ok {
				return NodeExtract, nil
			}
			return NodeGeneral, nil
		}
		return NodeGeneral, nil
	}
}

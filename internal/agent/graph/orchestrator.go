package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/agent/graph/conversations"
	"github.com/sarthi-rx/server/internal/agent/graph/nodes"
	"github.com/sarthi-rx/server/internal/agent/graph/observers"
	"github.com/sarthi-rx/server/internal/agent/model"
	"github.com/sarthi-rx/server/internal/agent/replies"
	"github.com/sarthi-rx/server/internal/agent/resolver"
	errx "github.com/sarthi-rx/server/internal/core/error"
	"github.com/sarthi-rx/server/internal/metrics"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

var ErrInvalidTurn = errors.New("invalid turn")

const reasonInvalidTurn = "invalid_turn"

// validKey rejects IDs that could alias another session once joined into a
// store key.
func validKey(key model.SessionKey) error {
	if key.UserID == "" || key.SessionID == "" {
		return errx.New(ErrInvalidTurn, http.StatusBadRequest, "user_id and session_id are required").WithReason(reasonInvalidTurn)
	}
	if strings.Contains(key.UserID, model.KeySeparator) || strings.Contains(key.SessionID, model.KeySeparator) {
		return errx.New(ErrInvalidTurn, http.StatusBadRequest, "user_id and session_id must not contain "+strconv.Quote(model.KeySeparator)).WithReason(reasonInvalidTurn)
	}
	return nil
}

// Config holds everything the orchestrator needs besides the node deps.
type Config struct {
	Deps          *nodes.Deps
	Sessions      model.SessionStore
	Prescriptions model.PrescriptionStore
	Conversation  model.ConversationConfig

	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator runs one turn per call. Turns of the same session are
// serialized; distinct sessions run concurrently.
type Orchestrator struct {
	runnable      compose.Runnable[*model.TurnContext, *model.TurnResult]
	sessions      model.SessionStore
	prescriptions model.PrescriptionStore
	resolver      *resolver.Resolver
	messages      *conversations.MessagesManager
	cfg           model.ConversationConfig
	locks         *keyedMutex
	now           func() time.Time
}

func NewOrchestrator(ctx context.Context, cfg Config) (*Orchestrator, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is nil")
	}
	runnable, err := BuildGraph(ctx, cfg.Deps)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		runnable:      runnable,
		sessions:      cfg.Sessions,
		prescriptions: cfg.Prescriptions,
		resolver:      cfg.Deps.Resolver,
		messages:      cfg.Deps.Messages,
		cfg:           cfg.Conversation,
		locks:         newKeyedMutex(),
		now:           now,
	}, nil
}

// ProcessTurn loads the session, runs the graph and persists the session.
// Only input validation and session persistence fail the turn.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	in.Utterance = strings.TrimSpace(in.Utterance)
	if in.Utterance == "" {
		return nil, errx.New(ErrInvalidTurn, http.StatusBadRequest, "utterance is required").WithReason(reasonInvalidTurn)
	}
	key := in.Key()
	if err := validKey(key); err != nil {
		return nil, err
	}

	unlock := o.locks.Lock(key.String())
	defer unlock()

	metrics.ActiveTurns.Inc()
	defer metrics.ActiveTurns.Dec()

	now := o.now().UTC()
	s, err := o.sessions.Get(ctx, key)
	if err != nil {
		logx.Error().Err(err).Str("session_key", key.String()).Msg("Failed to load session")
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		s = model.NewSession(key, now)
	}

	var preface []model.TraceEntry
	var prefix string
	if s.PendingExpired(now, o.cfg.PendingOrderTTL) {
		expired := s.TakePending()
		logx.Info().Str("session_key", key.String()).Str("pending_id", expired.ID).Msg("pending order expired")
		preface = append(preface, model.TraceEntry{
			Agent:     "orchestrator",
			Step:      "pending_expiry",
			Inputs:    expired.ID,
			Result:    fmt.Sprintf("discarded %s x %d", expired.ProductName, expired.Quantity),
			Timestamp: now,
		})
		prefix = replies.Render(s.Language, replies.PendingExpired, expired.ProductName)
	}

	tc := &model.TurnContext{Input: in, Session: s, Now: now}
	res, err := o.runnable.Invoke(ctx, tc, compose.WithCallbacks(observers.NewAllCallbacks()...))
	if err != nil {
		logx.Error().Err(err).Str("session_key", key.String()).Msg("turn graph failed")
		return nil, fmt.Errorf("run turn graph: %w", err)
	}
	if len(preface) > 0 {
		res.Trace = append(preface, res.Trace...)
	}
	if prefix != "" {
		res.ResponseText = prefix + "\n\n" + res.ResponseText
	}

	o.messages.Record(s, in.Utterance, res.ResponseText)
	s.UpdatedAt = now
	if err := o.sessions.Put(ctx, s); err != nil {
		logx.Error().Err(err).Str("session_key", key.String()).Msg("Failed to save session")
		return nil, fmt.Errorf("save session: %w", err)
	}
	return res, nil
}

// AttachPrescription records the catalog products found on a prescription.
// Item names come from an external reader and are resolved like utterances.
func (o *Orchestrator) AttachPrescription(ctx context.Context, userID, sessionID, patientID string, items []string) (model.BatchResult, error) {
	key := model.SessionKey{UserID: userID, SessionID: sessionID}
	if err := validKey(key); err != nil {
		return model.BatchResult{}, err
	}
	if patientID == "" {
		patientID = userID
	}
	if o.prescriptions == nil {
		return model.BatchResult{}, fmt.Errorf("prescription store is not configured")
	}

	unlock := o.locks.Lock(key.String())
	defer unlock()

	batch, err := o.resolver.ResolveBatch(ctx, items)
	if err != nil {
		return model.BatchResult{}, fmt.Errorf("resolve prescription items: %w", err)
	}
	names := make([]string, 0, len(batch.Matched))
	for _, m := range batch.Matched {
		names = append(names, m.MatchedName)
	}
	if len(names) > 0 {
		if err := o.prescriptions.AddPrescription(ctx, patientID, names); err != nil {
			return model.BatchResult{}, fmt.Errorf("record prescription: %w", err)
		}
	}
	logx.Info().
		Str("patient_id", patientID).
		Int("matched", len(batch.Matched)).
		Int("unmatched", len(batch.Unmatched)).
		Msg("prescription attached")
	return batch, nil
}

// ClearSession deletes the session, dropping any pending order.
func (o *Orchestrator) ClearSession(ctx context.Context, key model.SessionKey) error {
	if err := validKey(key); err != nil {
		return err
	}
	unlock := o.locks.Lock(key.String())
	defer unlock()
	return o.sessions.Delete(ctx, key)
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

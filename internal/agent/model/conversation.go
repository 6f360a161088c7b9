package model

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
)

// SessionKey identifies one conversation. Sessions never read each other.
type SessionKey struct {
	UserID    string
	SessionID string
}

// KeySeparator joins the parts of a session key. IDs must not contain it.
const KeySeparator = ":"

func (k SessionKey) String() string {
	return k.UserID + KeySeparator + k.SessionID
}

// SessionStore persists sessions. Get returns nil, nil for an unknown key.
type SessionStore interface {
	Get(ctx context.Context, key SessionKey) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, key SessionKey) error
}

// PendingOrder is an approved order waiting for an explicit yes. ID is reused
// as the order idempotency key.
type PendingOrder struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	StockSnapshot int       `json:"stock_snapshot"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p PendingOrder) Summary() PendingOrderSummary {
	return PendingOrderSummary{
		ProductName: p.ProductName,
		Quantity:    p.Quantity,
		UnitPrice:   p.UnitPrice,
		TotalPrice:  OrderTotal(p.UnitPrice, p.Quantity),
	}
}

type PendingOrderSummary struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Session is the per (user, session) memory.
type Session struct {
	UserID          string            `json:"user_id"`
	SessionID       string            `json:"session_id"`
	Language        string            `json:"language"`
	LastIntent      Intent            `json:"last_intent,omitempty"`
	LastSymptoms    []string          `json:"last_symptoms,omitempty"`
	LastConditions  []string          `json:"last_conditions,omitempty"`
	LastRecommended []ProductRef      `json:"last_recommended_products,omitempty"`
	PendingOrder    *PendingOrder     `json:"pending_order,omitempty"`
	LastOrderID     string            `json:"last_order_id,omitempty"`
	History         []*schema.Message `json:"history,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func NewSession(key SessionKey, now time.Time) *Session {
	return &Session{
		UserID:    key.UserID,
		SessionID: key.SessionID,
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Key() SessionKey {
	return SessionKey{UserID: s.UserID, SessionID: s.SessionID}
}

func (s *Session) HasPending() bool {
	return s.PendingOrder != nil
}

// SetPending replaces any previous pending order, keeping at most one.
func (s *Session) SetPending(p PendingOrder) {
	s.PendingOrder = &p
}

// TakePending returns the pending order and clears it.
func (s *Session) TakePending() *PendingOrder {
	p := s.PendingOrder
	s.PendingOrder = nil
	return p
}

// PendingExpired reports whether the pending order outlived ttl. A zero ttl
// never expires.
func (s *Session) PendingExpired(now time.Time, ttl time.Duration) bool {
	if s.PendingOrder == nil || ttl <= 0 {
		return false
	}
	return now.Sub(s.PendingOrder.CreatedAt) > ttl
}

// AppendExchange records one user/assistant pair and keeps the last max
// messages.
func (s *Session) AppendExchange(user, assistant string, max int) {
	if user != "" {
		s.History = append(s.History, schema.UserMessage(user))
	}
	if assistant != "" {
		s.History = append(s.History, schema.AssistantMessage(assistant, nil))
	}
	if max > 0 && len(s.History) > max {
		s.History = append([]*schema.Message(nil), s.History[len(s.History)-max:]...)
	}
}

func (s *Session) String() string {
	return fmt.Sprintf("session(%s, intent=%s, pending=%t)", s.Key(), s.LastIntent, s.HasPending())
}

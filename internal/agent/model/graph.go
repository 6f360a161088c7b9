package model

import "time"

// TurnInput is the public input of one conversational turn.
type TurnInput struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	PatientID string `json:"patient_id,omitempty"`
	Utterance string `json:"utterance"`
	Language  string `json:"language,omitempty"`
}

func (in TurnInput) Key() SessionKey {
	return SessionKey{UserID: in.UserID, SessionID: in.SessionID}
}

// Patient falls back to the user id when no patient id is supplied.
func (in TurnInput) Patient() string {
	if in.PatientID != "" {
		return in.PatientID
	}
	return in.UserID
}

type TurnResult struct {
	ResponseText         string               `json:"response_text"`
	RequiresConfirmation bool                 `json:"requires_confirmation"`
	PendingOrderSummary  *PendingOrderSummary `json:"pending_order_summary,omitempty"`
	Intent               Intent               `json:"intent"`
	Language             string               `json:"language"`
	Order                *Order               `json:"order,omitempty"`
	Trace                []TraceEntry         `json:"trace"`
}

// TraceEntry is observability only. Nothing in the pipeline reads it back.
type TraceEntry struct {
	Agent     string    `json:"agent"`
	Step      string    `json:"step"`
	Inputs    string    `json:"inputs"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnState is the eino graph local state. It only carries the trace so that
// decision data cannot depend on it.
type TurnState struct {
	Trace []TraceEntry
}

type RouteSource string

const (
	RouteOverride     RouteSource = "override"
	RouteLLM          RouteSource = "llm"
	RouteRules        RouteSource = "rules"
	RouteConfirmation RouteSource = "pending_order"
)

type RouterOutput struct {
	Intent   Intent      `json:"intent"`
	Language string      `json:"language"`
	Source   RouteSource `json:"source"`
}

type AdviceOutput struct {
	Symptoms        []string     `json:"symptoms"`
	Conditions      []string     `json:"conditions"`
	Advice          string       `json:"advice"`
	Urgent          bool         `json:"urgent"`
	Recommendations []ProductRef `json:"recommendations"`
	WantsOrder      bool         `json:"wants_order"`
}

type OrderMode string

const (
	ModeOrder OrderMode = "order"
	ModeInfo  OrderMode = "info"
)

type OrderOutput struct {
	Mode          OrderMode    `json:"mode"`
	ProductPhrase string       `json:"product_phrase"`
	Quantity      int          `json:"quantity"`
	Match         *MatchResult `json:"match,omitempty"`
	Suggestions   []string     `json:"suggestions,omitempty"`
}

type ConfirmDecision string

const (
	ConfirmYes     ConfirmDecision = "confirmed"
	ConfirmNo      ConfirmDecision = "declined"
	ConfirmUnclear ConfirmDecision = "unclear"
)

// ConfirmationOutput carries the consumed pending order when the decision
// cleared it.
type ConfirmationOutput struct {
	Decision ConfirmDecision `json:"decision"`
	Source   RouteSource     `json:"source"`
	Pending  *PendingOrder   `json:"pending,omitempty"`
}

// ExecutionOutput reports one commit attempt. CurrentPrice is only set with
// ReasonPriceChanged.
type ExecutionOutput struct {
	Order         *Order               `json:"order,omitempty"`
	Reason        ReasonCode           `json:"reason"`
	Duplicate     bool                 `json:"duplicate"`
	CurrentPrice  float64              `json:"current_price,omitempty"`
	Notifications []NotificationResult `json:"notifications,omitempty"`
}

// TurnContext is threaded through every graph node. Each stage owns one
// output field and leaves the others alone.
type TurnContext struct {
	Input   TurnInput
	Session *Session
	Now     time.Time

	Router       RouterOutput
	Advice       *AdviceOutput
	Order        *OrderOutput
	Safety       *SafetyResult
	Confirmation *ConfirmationOutput
	Execution    *ExecutionOutput

	Response             string
	RequiresConfirmation bool

	// Abort is set by a stage that cannot continue; later stages are skipped.
	Abort ReasonCode
}

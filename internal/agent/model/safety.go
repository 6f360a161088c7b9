package model

// ReasonCode is the error taxonomy surfaced to users and traces.
type ReasonCode string

const (
	ReasonNone                  ReasonCode = "none"
	ReasonNotFound              ReasonCode = "not_found"
	ReasonOutOfStock            ReasonCode = "out_of_stock"
	ReasonPrescriptionRequired  ReasonCode = "prescription_required"
	ReasonDrugInteraction       ReasonCode = "drug_interaction"
	ReasonPriceNotAvailable     ReasonCode = "price_not_available"
	ReasonAmbiguousConfirmation ReasonCode = "ambiguous_confirmation"
	ReasonNoEntityMatch         ReasonCode = "no_entity_match"
	ReasonUpstreamUnavailable   ReasonCode = "upstream_unavailable"
	ReasonPersistenceFailed     ReasonCode = "persistence_failed"
	ReasonPriceChanged          ReasonCode = "price_changed"
	ReasonInvalidQuantity       ReasonCode = "invalid_quantity"
)

// MatchResult is produced by the entity resolver. Build it with NewMatchResult
// so IsHighConfidence stays derived from Confidence.
type MatchResult struct {
	InputName        string  `json:"input_name"`
	MatchedName      string  `json:"matched_name"`
	Confidence       float64 `json:"confidence"`
	IsHighConfidence bool    `json:"is_high_confidence"`
}

func NewMatchResult(input, matched string, confidence, highThreshold float64) *MatchResult {
	return &MatchResult{
		InputName:        input,
		MatchedName:      matched,
		Confidence:       confidence,
		IsHighConfidence: confidence >= highThreshold,
	}
}

// BatchResult splits resolved items from the ones below threshold.
type BatchResult struct {
	Matched   []MatchResult `json:"matched"`
	Unmatched []string      `json:"unmatched"`
}

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

type InteractionFinding struct {
	ExistingDrug   string   `json:"existing_drug"`
	NewDrug        string   `json:"new_drug"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// SafetyResult is immutable once returned by the gate.
type SafetyResult struct {
	Approved    bool                `json:"approved"`
	Reason      ReasonCode          `json:"reason"`
	Detail      string              `json:"detail"`
	Product     *ProductRef         `json:"product,omitempty"`
	Interaction *InteractionFinding `json:"interaction,omitempty"`
}

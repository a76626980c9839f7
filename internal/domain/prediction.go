package domain

import "time"

// JobKind enumerates the kinds of provider jobs we track asynchronously.
type JobKind string

const (
	JobKindSynthesisSingle JobKind = "synthesis_single"
	JobKindSynthesisDual   JobKind = "synthesis_dual"
)

// PredictionStatus enumerates the provider-side lifecycle states.
type PredictionStatus string

const (
	PredictionStarting   PredictionStatus = "starting"
	PredictionProcessing PredictionStatus = "processing"
	PredictionSucceeded  PredictionStatus = "succeeded"
	PredictionFailed     PredictionStatus = "failed"
	PredictionCanceled   PredictionStatus = "canceled"
)

// IsTerminal reports whether no further transitions are expected.
func (s PredictionStatus) IsTerminal() bool {
	return s == PredictionSucceeded || s == PredictionFailed || s == PredictionCanceled
}

// PredictionRecord is the durable state of one asynchronous provider job.
// It is keyed by the provider-assigned prediction id. OutputJSON is set only
// when the status is succeeded; ErrorMessage only when failed or canceled.
type PredictionRecord struct {
	PredictionID string
	Kind         JobKind
	Status       PredictionStatus
	InputJSON    []byte
	OutputJSON   []byte
	ErrorMessage string
	OwnerID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PredictionResult carries a terminal observation of a prediction from
// either reconciliation writer (webhook push or poll fallback). Both writers
// derive it from the same provider truth, so applying it twice is harmless.
type PredictionResult struct {
	Status       PredictionStatus
	OutputJSON   []byte
	ErrorMessage string
}

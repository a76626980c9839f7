package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
)

// Gateway is the direct status-read slice of the inference client.
type Gateway interface {
	GetPrediction(ctx context.Context, predictionID string) (*replicate.Prediction, error)
}

// StatusView is the caller-facing state of a job. ImageURL is set only for
// succeeded jobs; Message only for failed or canceled ones and may be empty
// when the provider gave no detail.
type StatusView struct {
	Status   domain.PredictionStatus
	ImageURL string
	Message  string
}

// Notification is a provider push payload announcing job completion.
type Notification struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Service reconciles job state from its two unordered sources: the local
// record (which a webhook may already have resolved) and a direct provider
// read. Both writers persist terminal state through the same idempotent
// upsert, so arrival order does not matter.
type Service struct {
	records domain.PredictionRepository
	gateway Gateway
	logger  zerolog.Logger
}

// NewService constructs a status reconciliation service.
func NewService(records domain.PredictionRepository, gateway Gateway, logger zerolog.Logger) *Service {
	return &Service{records: records, gateway: gateway, logger: logger}
}

// Status resolves the current state of a job for the given owner. The local
// record is consulted first; only non-terminal (or invisible) jobs fall back
// to a provider fetch, whose terminal outcome is written back.
func (s *Service) Status(ctx context.Context, predictionID, ownerID string) (*StatusView, error) {
	rec, err := s.records.GetForOwner(ctx, predictionID, ownerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		// A store outage must not strand the caller; the provider remains
		// the source of truth.
		s.logger.Error().Err(err).Str("prediction_id", predictionID).Msg("reconcile: record lookup failed")
	}
	if rec != nil {
		switch rec.Status {
		case domain.PredictionSucceeded:
			return &StatusView{
				Status:   domain.PredictionSucceeded,
				ImageURL: replicate.FirstURLFromOutput(rec.OutputJSON),
			}, nil
		case domain.PredictionFailed, domain.PredictionCanceled:
			return &StatusView{Status: rec.Status, Message: rec.ErrorMessage}, nil
		}
	}

	pred, err := s.gateway.GetPrediction(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	status := domain.PredictionStatus(pred.Status)
	switch status {
	case domain.PredictionSucceeded:
		s.persist(ctx, predictionID, domain.PredictionResult{
			Status:     domain.PredictionSucceeded,
			OutputJSON: pred.Output,
		})
		return &StatusView{Status: status, ImageURL: pred.FirstOutputURL()}, nil
	case domain.PredictionFailed, domain.PredictionCanceled:
		s.persist(ctx, predictionID, domain.PredictionResult{
			Status:       status,
			ErrorMessage: pred.Error,
		})
		return &StatusView{Status: status, Message: pred.Error}, nil
	default:
		return &StatusView{Status: status}, nil
	}
}

// Apply persists a provider push notification. It authenticates by the
// unguessable prediction id alone: unknown ids update nothing, and repeated
// deliveries overwrite the row with the same terminal values.
func (s *Service) Apply(ctx context.Context, n Notification) error {
	if strings.TrimSpace(n.ID) == "" {
		return domain.ErrInvalidPayload
	}
	status := domain.PredictionStatus(n.Status)
	if status == "" {
		status = "unknown"
	}
	result := domain.PredictionResult{
		Status:       status,
		OutputJSON:   n.Output,
		ErrorMessage: n.Error,
	}
	if err := s.records.UpsertResult(ctx, n.ID, result); err != nil {
		return err
	}
	s.logger.Info().
		Str("prediction_id", n.ID).
		Str("status", string(status)).
		Msg("reconcile: webhook applied")
	return nil
}

func (s *Service) persist(ctx context.Context, predictionID string, result domain.PredictionResult) {
	if err := s.records.UpsertResult(ctx, predictionID, result); err != nil {
		s.logger.Error().Err(err).Str("prediction_id", predictionID).Msg("reconcile: write-back failed")
	}
}

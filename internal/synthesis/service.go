package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
)

// DefaultModel is the image-synthesis model rendering the final composite.
const DefaultModel = "bytedance/seedream-4"

var (
	// ErrNoOutput indicates a successful prediction without an output field.
	ErrNoOutput = errors.New("synthesis: no output from image generator")
	// ErrInvalidOutput indicates an output field with no usable URL in it.
	ErrInvalidOutput = errors.New("synthesis: invalid output format from image generator")
	// ErrNoPredictionID indicates the provider accepted an async submission
	// but returned no job identifier to track it by.
	ErrNoPredictionID = errors.New("synthesis: provider returned no prediction id")
)

// Gateway is the slice of the inference client the orchestrator needs.
type Gateway interface {
	CreateSync(ctx context.Context, model string, input map[string]any, timeout time.Duration) (*replicate.Prediction, error)
	CreateAsync(ctx context.Context, model string, input map[string]any, webhookURL string) (*replicate.Prediction, error)
}

// Request composes one model from identity, outfit and background references.
type Request struct {
	IdentityURL   string
	OutfitURL     string
	BackgroundURL string
	PosePrompt    string
}

// DuoRequest composes two models. Reference images are numbered in the fixed
// order identity A, outfit A, identity B, outfit B, background, and the
// prompt suffix references exactly that order.
type DuoRequest struct {
	IdentityAURL  string
	OutfitAURL    string
	IdentityBURL  string
	OutfitBURL    string
	BackgroundURL string
	PosePrompt    string
}

// JobHandle identifies a submitted asynchronous synthesis job.
type JobHandle struct {
	PredictionID string
	Status       domain.PredictionStatus
}

// Service submits synthesis jobs to the provider, either blocking until the
// final image URL is available or recording an asynchronous job for later
// reconciliation.
type Service struct {
	gateway    Gateway
	records    domain.PredictionRepository
	model      string
	webhookURL string
	logger     zerolog.Logger
}

// NewService constructs an image synthesis orchestrator. webhookURL may be
// empty, in which case async jobs are resolved by polling alone.
func NewService(gateway Gateway, records domain.PredictionRepository, model, webhookURL string, logger zerolog.Logger) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{gateway: gateway, records: records, model: model, webhookURL: webhookURL, logger: logger}
}

// Synthesize renders the composite synchronously and returns the image URL.
func (s *Service) Synthesize(ctx context.Context, req Request) (string, error) {
	input := synthesisInput(singlePrompt(req.PosePrompt), []string{req.IdentityURL, req.OutfitURL, req.BackgroundURL})
	return s.runSync(ctx, input)
}

// SynthesizeAsync submits the composite job without waiting and records it.
func (s *Service) SynthesizeAsync(ctx context.Context, req Request, ownerID string) (*JobHandle, error) {
	input := synthesisInput(singlePrompt(req.PosePrompt), []string{req.IdentityURL, req.OutfitURL, req.BackgroundURL})
	return s.runAsync(ctx, input, domain.JobKindSynthesisSingle, ownerID)
}

// SynthesizeDuo renders a two-model composite synchronously.
func (s *Service) SynthesizeDuo(ctx context.Context, req DuoRequest) (string, error) {
	input := synthesisInput(duoPrompt(req.PosePrompt), duoImages(req))
	return s.runSync(ctx, input)
}

// SynthesizeDuoAsync submits a two-model composite job and records it.
func (s *Service) SynthesizeDuoAsync(ctx context.Context, req DuoRequest, ownerID string) (*JobHandle, error) {
	input := synthesisInput(duoPrompt(req.PosePrompt), duoImages(req))
	return s.runAsync(ctx, input, domain.JobKindSynthesisDual, ownerID)
}

func (s *Service) runSync(ctx context.Context, input map[string]any) (string, error) {
	pred, err := s.gateway.CreateSync(ctx, s.model, input, 0)
	if err != nil {
		return "", err
	}
	if len(pred.Output) == 0 {
		return "", ErrNoOutput
	}
	url := pred.FirstOutputURL()
	if url == "" {
		return "", ErrInvalidOutput
	}
	s.logger.Debug().Str("prediction_id", pred.ID).Msg("synthesis: image rendered")
	return url, nil
}

func (s *Service) runAsync(ctx context.Context, input map[string]any, kind domain.JobKind, ownerID string) (*JobHandle, error) {
	pred, err := s.gateway.CreateAsync(ctx, s.model, input, s.webhookURL)
	if err != nil {
		return nil, err
	}
	if pred.ID == "" {
		return nil, ErrNoPredictionID
	}

	inputJSON, _ := json.Marshal(input)
	rec := &domain.PredictionRecord{
		PredictionID: pred.ID,
		Kind:         kind,
		Status:       domain.PredictionStarting,
		InputJSON:    inputJSON,
		OwnerID:      ownerID,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		// The poll fallback reads the provider directly, so a failed insert
		// degrades to webhook-less reconciliation rather than losing the job.
		s.logger.Error().Err(err).Str("prediction_id", pred.ID).Msg("synthesis: record insert failed")
	}

	status := domain.PredictionStatus(pred.Status)
	if status == "" {
		status = domain.PredictionStarting
	}
	s.logger.Info().
		Str("prediction_id", pred.ID).
		Str("kind", string(kind)).
		Str("owner_id", ownerID).
		Msg("synthesis: job submitted")
	return &JobHandle{PredictionID: pred.ID, Status: status}, nil
}

// Fixed generation parameters. These are deliberate constants, not caller
// inputs: every synthesis sends the same resolution and framing.
func synthesisInput(prompt string, images []string) map[string]any {
	return map[string]any{
		"prompt":                      prompt,
		"image_input":                 images,
		"size":                        "4K",
		"width":                       2048,
		"height":                      2048,
		"max_images":                  1,
		"aspect_ratio":                "4:3",
		"enhance_prompt":              true,
		"sequential_image_generation": "disabled",
	}
}

func singlePrompt(posePrompt string) string {
	return posePrompt + " Maintain the identity from Image 1 and the clothing details from Image 2."
}

func duoPrompt(posePrompt string) string {
	return posePrompt + " Maintain identity of Model A from Image 1 with clothing from Image 2, and identity of Model B from Image 3 with clothing from Image 4."
}

func duoImages(req DuoRequest) []string {
	return []string{req.IdentityAURL, req.OutfitAURL, req.IdentityBURL, req.OutfitBURL, req.BackgroundURL}
}

package choreography

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
)

// DefaultModel is the vision/language model acting as choreographer.
const DefaultModel = "openai/gpt-5-nano"

const proposeTimeout = 30 * time.Second

// Gateway is the slice of the inference client the service needs.
type Gateway interface {
	CreateSync(ctx context.Context, model string, input map[string]any, timeout time.Duration) (*replicate.Prediction, error)
}

// Request describes a single-model pose proposal.
type Request struct {
	BackgroundURL string
	OutfitURL     string
	Gender        string
	Style         Style
}

// DuoRequest describes a two-model pose proposal.
type DuoRequest struct {
	BackgroundURL string
	OutfitAURL    string
	OutfitBURL    string
	GenderA       string
	GenderB       string
	Style         Style
}

// Service asks the choreographer model for grounded pose descriptions.
type Service struct {
	gateway Gateway
	model   string
	logger  zerolog.Logger
}

// NewService constructs a pose choreography service.
func NewService(gateway Gateway, model string, logger zerolog.Logger) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{gateway: gateway, model: model, logger: logger}
}

// ProposePoses returns 5 pose descriptions grounded in the background image,
// tailored to the outfit when one is provided.
func (s *Service) ProposePoses(ctx context.Context, req Request) ([]string, error) {
	if req.BackgroundURL == "" {
		return nil, errors.New("choreography: background image is required")
	}
	hasOutfit := req.OutfitURL != ""
	images := []string{req.BackgroundURL}
	if hasOutfit {
		images = append(images, req.OutfitURL)
	}
	input := map[string]any{
		"system_prompt":    buildSystemPrompt(req.Gender, req.Style, hasOutfit),
		"prompt":           buildUserPrompt(hasOutfit),
		"image_input":      images,
		"reasoning_effort": "minimal",
		"verbosity":        "low",
	}
	return s.propose(ctx, input)
}

// ProposeDuoPoses returns 5 coordinated pose descriptions for two models.
func (s *Service) ProposeDuoPoses(ctx context.Context, req DuoRequest) ([]string, error) {
	if req.BackgroundURL == "" {
		return nil, errors.New("choreography: background image is required")
	}
	hasA := req.OutfitAURL != ""
	hasB := req.OutfitBURL != ""
	images := []string{req.BackgroundURL}
	if hasA {
		images = append(images, req.OutfitAURL)
	}
	if hasB {
		images = append(images, req.OutfitBURL)
	}
	input := map[string]any{
		"system_prompt":    buildDuoSystemPrompt(req.GenderA, req.GenderB, req.Style, hasA, hasB),
		"prompt":           buildDuoUserPrompt(hasA || hasB),
		"image_input":      images,
		"reasoning_effort": "minimal",
		"verbosity":        "low",
	}
	return s.propose(ctx, input)
}

func (s *Service) propose(ctx context.Context, input map[string]any) ([]string, error) {
	pred, err := s.gateway.CreateSync(ctx, s.model, input, proposeTimeout)
	if err != nil {
		return nil, err
	}
	poses, err := ExtractPoses(pred.Raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("model", s.model).Msg("choreography: unparseable response")
		return nil, err
	}
	s.logger.Debug().Int("poses", len(poses)).Str("model", s.model).Msg("choreography: poses proposed")
	return poses, nil
}

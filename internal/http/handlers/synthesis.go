package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumiself/ai-influencer-studio/internal/middleware"
	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
	"github.com/lumiself/ai-influencer-studio/internal/synthesis"
)

type synthesisRequest struct {
	IdentityURL   string `json:"identity_url"`
	OutfitURL     string `json:"outfit_url"`
	BackgroundURL string `json:"background_url"`
	PosePrompt    string `json:"pose_prompt"`
}

type duoSynthesisRequest struct {
	IdentityAURL  string `json:"identity_a_url"`
	OutfitAURL    string `json:"outfit_a_url"`
	IdentityBURL  string `json:"identity_b_url"`
	OutfitBURL    string `json:"outfit_b_url"`
	BackgroundURL string `json:"background_url"`
	PosePrompt    string `json:"pose_prompt"`
}

func (r synthesisRequest) valid() bool {
	return r.IdentityURL != "" && r.OutfitURL != "" && r.BackgroundURL != "" && r.PosePrompt != ""
}

func (r duoSynthesisRequest) valid() bool {
	return r.IdentityAURL != "" && r.OutfitAURL != "" && r.IdentityBURL != "" &&
		r.OutfitBURL != "" && r.BackgroundURL != "" && r.PosePrompt != ""
}

// SynthesesCreate renders a single-model composite. The default mode blocks
// until the image is ready; ?mode=async submits the job and returns a
// prediction id to poll.
func (a *App) SynthesesCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req synthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !req.valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "identity_url, outfit_url, background_url and pose_prompt are required")
		return
	}
	in := synthesis.Request{
		IdentityURL:   req.IdentityURL,
		OutfitURL:     req.OutfitURL,
		BackgroundURL: req.BackgroundURL,
		PosePrompt:    req.PosePrompt,
	}
	if r.URL.Query().Get("mode") == "async" {
		handle, err := a.Synth.SynthesizeAsync(r.Context(), in, userID)
		if err != nil {
			a.synthesisError(w, r, err)
			return
		}
		a.json(w, http.StatusAccepted, map[string]any{
			"prediction_id": handle.PredictionID,
			"status":        handle.Status,
		})
		return
	}
	url, err := a.Synth.Synthesize(r.Context(), in)
	if err != nil {
		a.synthesisError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"image_url": url})
}

// SynthesesCreateDuo renders a two-model composite with the same mode switch.
func (a *App) SynthesesCreateDuo(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req duoSynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !req.valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "all image urls and pose_prompt are required")
		return
	}
	in := synthesis.DuoRequest{
		IdentityAURL:  req.IdentityAURL,
		OutfitAURL:    req.OutfitAURL,
		IdentityBURL:  req.IdentityBURL,
		OutfitBURL:    req.OutfitBURL,
		BackgroundURL: req.BackgroundURL,
		PosePrompt:    req.PosePrompt,
	}
	if r.URL.Query().Get("mode") == "async" {
		handle, err := a.Synth.SynthesizeDuoAsync(r.Context(), in, userID)
		if err != nil {
			a.synthesisError(w, r, err)
			return
		}
		a.json(w, http.StatusAccepted, map[string]any{
			"prediction_id": handle.PredictionID,
			"status":        handle.Status,
		})
		return
	}
	url, err := a.Synth.SynthesizeDuo(r.Context(), in)
	if err != nil {
		a.synthesisError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"image_url": url})
}

func (a *App) synthesisError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	var predErr *replicate.PredictionError
	var apiErr *replicate.APIError
	switch {
	case errors.As(err, &predErr):
		a.error(w, http.StatusBadGateway, "generation_failed", failureMessage(locale, predErr.Message))
	case errors.As(err, &apiErr):
		a.error(w, http.StatusBadGateway, "provider_error", apiErr.Detail)
	case errors.Is(err, synthesis.ErrNoOutput), errors.Is(err, synthesis.ErrInvalidOutput), errors.Is(err, synthesis.ErrNoPredictionID):
		a.error(w, http.StatusBadGateway, "generation_failed", failureMessage(locale, ""))
	default:
		a.Logger.Error().Err(err).Msg("synthesis: request failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to run synthesis")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumiself/ai-influencer-studio/internal/choreography"
	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
)

type posesRequest struct {
	BackgroundURL string `json:"background_url"`
	OutfitURL     string `json:"outfit_url"`
	Gender        string `json:"gender"`
	Style         string `json:"style"`
}

type duoPosesRequest struct {
	BackgroundURL string `json:"background_url"`
	OutfitAURL    string `json:"outfit_a_url"`
	OutfitBURL    string `json:"outfit_b_url"`
	GenderA       string `json:"gender_a"`
	GenderB       string `json:"gender_b"`
	Style         string `json:"style"`
}

func (a *App) PosesPropose(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req posesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.BackgroundURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "background_url required")
		return
	}
	poses, err := a.Choreo.ProposePoses(r.Context(), choreography.Request{
		BackgroundURL: req.BackgroundURL,
		OutfitURL:     req.OutfitURL,
		Gender:        req.Gender,
		Style:         choreography.Style(req.Style),
	})
	if err != nil {
		a.poseError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"poses": poses})
}

func (a *App) PosesProposeDuo(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req duoPosesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.BackgroundURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "background_url required")
		return
	}
	poses, err := a.Choreo.ProposeDuoPoses(r.Context(), choreography.DuoRequest{
		BackgroundURL: req.BackgroundURL,
		OutfitAURL:    req.OutfitAURL,
		OutfitBURL:    req.OutfitBURL,
		GenderA:       req.GenderA,
		GenderB:       req.GenderB,
		Style:         choreography.Style(req.Style),
	})
	if err != nil {
		a.poseError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"poses": poses})
}

// poseError maps choreography failures onto HTTP statuses. Anything the
// upstream model or API caused is a gateway error; the message is passed
// through so the client can surface it.
func (a *App) poseError(w http.ResponseWriter, err error) {
	var noOutput *choreography.NoOutputError
	var parseErr *choreography.ParseError
	var apiErr *replicate.APIError
	var predErr *replicate.PredictionError
	switch {
	case errors.As(err, &noOutput), errors.As(err, &parseErr), errors.As(err, &apiErr), errors.As(err, &predErr):
		a.error(w, http.StatusBadGateway, "provider_error", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("poses: proposal failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to propose poses")
	}
}

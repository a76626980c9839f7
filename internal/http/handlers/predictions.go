package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/middleware"
	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
)

// PredictionStatus polls the state of an asynchronous job. Terminal outcomes
// are served from the local record when a webhook already landed; otherwise
// the provider is asked directly.
func (a *App) PredictionStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	predictionID := chi.URLParam(r, "id")
	if predictionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prediction id required")
		return
	}
	view, err := a.Reconciler.Status(r.Context(), predictionID, userID)
	if err != nil {
		var apiErr *replicate.APIError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "prediction not found")
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
			a.error(w, http.StatusNotFound, "not_found", "prediction not found")
		case errors.As(err, &apiErr):
			a.error(w, http.StatusBadGateway, "provider_error", apiErr.Detail)
		default:
			a.Logger.Error().Err(err).Str("prediction_id", predictionID).Msg("predictions: status check failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to check prediction status")
		}
		return
	}

	resp := map[string]any{"status": view.Status}
	switch view.Status {
	case domain.PredictionSucceeded:
		resp["image_url"] = view.ImageURL
	case domain.PredictionFailed, domain.PredictionCanceled:
		locale := middleware.LocaleFromContext(r.Context())
		resp["message"] = failureMessage(locale, view.Message)
	}
	a.json(w, http.StatusOK, resp)
}

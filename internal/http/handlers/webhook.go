package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/reconcile"
)

// WebhookReplicate receives completion pushes from the provider. The endpoint
// always acknowledges valid payloads, including repeats, so the provider stops
// redelivering.
func (a *App) WebhookReplicate(w http.ResponseWriter, r *http.Request) {
	var n reconcile.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}
	if err := a.Reconciler.Apply(r.Context(), n); err != nil {
		if errors.Is(err, domain.ErrInvalidPayload) {
			a.json(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
			return
		}
		a.Logger.Error().Err(err).Str("prediction_id", n.ID).Msg("webhook: apply failed")
		a.json(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

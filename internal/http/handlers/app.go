package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lumiself/ai-influencer-studio/internal/choreography"
	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/infra"
	"github.com/lumiself/ai-influencer-studio/internal/middleware"
	"github.com/lumiself/ai-influencer-studio/internal/reconcile"
	"github.com/lumiself/ai-influencer-studio/internal/synthesis"
)

// App carries the handler dependencies. One instance serves all routes.
type App struct {
	Config     *infra.Config
	Logger     zerolog.Logger
	Choreo     *choreography.Service
	Synth      *synthesis.Service
	Reconciler *reconcile.Service
	Media      domain.MediaLibrary
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, choreo *choreography.Service, synth *synthesis.Service, reconciler *reconcile.Service, media domain.MediaLibrary) *App {
	return &App{
		Config:     cfg,
		Logger:     logger,
		Choreo:     choreo,
		Synth:      synth,
		Reconciler: reconciler,
		Media:      media,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": message,
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

var genericFailureMessages = map[string]string{
	"en": "Image generation failed. Please try again with different images.",
	"id": "Pembuatan gambar gagal. Silakan coba lagi dengan gambar yang berbeda.",
}

// failureMessage substitutes a localized generic message when the provider
// gave no detail a user could act on.
func failureMessage(locale, providerMessage string) string {
	if providerMessage != "" {
		return providerMessage
	}
	if msg, ok := genericFailureMessages[locale]; ok {
		return msg
	}
	return genericFailureMessages["en"]
}

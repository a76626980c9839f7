package handlers

import (
	"net/http"
	"time"

	"github.com/lumiself/ai-influencer-studio/internal/middleware"
)

// Nonce issues the caller's current anti-forgery token. Clients send it back
// in the X-AIS-Nonce header on mutating requests.
func (a *App) Nonce(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.json(w, http.StatusOK, map[string]string{
		"nonce": middleware.SignNonce(a.Config.JWTSecret, userID, time.Now()),
	})
}

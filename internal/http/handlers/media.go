package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/media"
	"github.com/lumiself/ai-influencer-studio/internal/middleware"
)

// MediaUpload accepts a multipart image upload under the "file" field. Upload
// capability is a token claim, not a role lookup, so the check is local.
func (a *App) MediaUpload(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if !middleware.CanUploadFromContext(r.Context()) {
		a.error(w, http.StatusForbidden, "permission_denied", "uploads are not enabled for this account")
		return
	}
	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, media.MaxUploadSize+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable file")
		return
	}

	asset, err := a.Media.SaveUpload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		a.mediaError(w, err)
		return
	}
	a.json(w, http.StatusCreated, assetResponse(asset))
}

type saveResultRequest struct {
	URL string `json:"url"`
}

// MediaSaveResult copies a rendered result into the caller's library before
// the provider's delivery URL expires.
func (a *App) MediaSaveResult(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req saveResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "url required")
		return
	}
	asset, err := a.Media.SaveRemote(r.Context(), req.URL)
	if err != nil {
		a.mediaError(w, err)
		return
	}
	a.json(w, http.StatusCreated, assetResponse(asset))
}

func (a *App) mediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the 10MB limit")
	case errors.Is(err, media.ErrUnsupportedType):
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_type", "only JPEG, PNG, GIF and WebP images are accepted")
	case errors.Is(err, domain.ErrInvalidPayload):
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusBadGateway, "provider_error", "could not fetch the result image")
	default:
		a.Logger.Error().Err(err).Msg("media: store failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store media")
	}
}

func assetResponse(asset *domain.MediaAsset) map[string]any {
	return map[string]any{
		"key":  asset.Key,
		"url":  asset.URL,
		"mime": asset.MIME,
		"size": asset.Size,
	}
}

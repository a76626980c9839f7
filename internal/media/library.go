package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/storage"
)

// MaxUploadSize caps both direct uploads and downloaded provider results.
const MaxUploadSize = 10 << 20

var (
	// ErrUnsupportedType indicates a file outside the accepted image formats.
	ErrUnsupportedType = errors.New("media: unsupported file type")
	// ErrTooLarge indicates a file over the upload size limit.
	ErrTooLarge = errors.New("media: file exceeds size limit")
)

var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Library stores reference images and rendered results on a FileStore and
// addresses them by public URL.
type Library struct {
	store   *storage.FileStore
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewLibrary constructs a media library serving assets under baseURL.
// httpClient may be nil, in which case a default with a download timeout is used.
func NewLibrary(store *storage.FileStore, baseURL string, httpClient *http.Client, logger zerolog.Logger) *Library {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Library{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

// SaveUpload validates and stores user-provided image bytes. The declared
// content type is checked against the sniffed one so a mislabeled file cannot
// smuggle another format in.
func (l *Library) SaveUpload(ctx context.Context, filename, declaredMIME string, data []byte) (*domain.MediaAsset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("media: empty upload: %w", domain.ErrInvalidPayload)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	detected := sniffMIME(declaredMIME, data)
	ext, ok := extByMIME[detected]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, detected)
	}
	key := fmt.Sprintf("uploads/%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.NewString(), ext)
	return l.persist(ctx, key, detected, data, filename)
}

// SaveRemote downloads a rendered result and stores a local copy, so the
// asset outlives the provider's short-lived delivery URL.
func (l *Library) SaveRemote(ctx context.Context, url string) (*domain.MediaAsset, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("media: empty url: %w", domain.ErrInvalidPayload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("media: build download request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media: download result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media: download result: status %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("media: read result body: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("media: empty result body: %w", domain.ErrProviderFailure)
	}
	detected := sniffMIME(resp.Header.Get("Content-Type"), data)
	ext, ok := extByMIME[detected]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, detected)
	}
	key := fmt.Sprintf("results/%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.NewString(), ext)
	return l.persist(ctx, key, detected, data, url)
}

// URLFor maps a storage key to its public URL.
func (l *Library) URLFor(key string) string {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return ""
	}
	return l.baseURL + "/" + key
}

func (l *Library) persist(ctx context.Context, key, mimeType string, data []byte, source string) (*domain.MediaAsset, error) {
	stored, err := l.store.Write(ctx, key, data)
	if err != nil {
		return nil, err
	}
	l.logger.Debug().
		Str("key", stored).
		Str("mime", mimeType).
		Int("size", len(data)).
		Str("source", source).
		Msg("media: asset stored")
	return &domain.MediaAsset{
		Key:  stored,
		URL:  l.URLFor(stored),
		MIME: mimeType,
		Size: int64(len(data)),
	}, nil
}

// sniffMIME trusts the sniffed content over the declared header. The declared
// value only disambiguates where sniffing is inconclusive.
func sniffMIME(declared string, data []byte) string {
	detected := http.DetectContentType(data)
	if _, ok := extByMIME[detected]; ok {
		return detected
	}
	if declared != "" {
		if parsed, _, err := mime.ParseMediaType(declared); err == nil {
			return parsed
		}
	}
	return detected
}

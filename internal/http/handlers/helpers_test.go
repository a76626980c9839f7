package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumiself/ai-influencer-studio/internal/choreography"
	"github.com/lumiself/ai-influencer-studio/internal/domain"
	"github.com/lumiself/ai-influencer-studio/internal/infra"
	"github.com/lumiself/ai-influencer-studio/internal/media"
	"github.com/lumiself/ai-influencer-studio/internal/middleware"
	"github.com/lumiself/ai-influencer-studio/internal/providers/replicate"
	"github.com/lumiself/ai-influencer-studio/internal/reconcile"
	"github.com/lumiself/ai-influencer-studio/internal/storage"
	"github.com/lumiself/ai-influencer-studio/internal/synthesis"
)

const testJWTSecret = "handler-test-secret"

// fakeProvider stands in for the Replicate client across all three services.
type fakeProvider struct {
	mu        sync.Mutex
	syncPred  *replicate.Prediction
	asyncPred *replicate.Prediction
	getPred   *replicate.Prediction
	syncErr   error
	asyncErr  error
	getErr    error
	getCalls  int
}

func (f *fakeProvider) CreateSync(ctx context.Context, model string, input map[string]any, timeout time.Duration) (*replicate.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncPred, f.syncErr
}

func (f *fakeProvider) CreateAsync(ctx context.Context, model string, input map[string]any, webhookURL string) (*replicate.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.asyncPred, f.asyncErr
}

func (f *fakeProvider) GetPrediction(ctx context.Context, predictionID string) (*replicate.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.getPred, f.getErr
}

func (f *fakeProvider) callsToProvider() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

type memoryRepo struct {
	mu      sync.Mutex
	records map[string]*domain.PredictionRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*domain.PredictionRecord)}
}

func (m *memoryRepo) Insert(ctx context.Context, rec *domain.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.PredictionID]; ok {
		return nil
	}
	clone := *rec
	m.records[rec.PredictionID] = &clone
	return nil
}

func (m *memoryRepo) UpsertResult(ctx context.Context, predictionID string, result domain.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[predictionID]
	if !ok {
		return nil
	}
	if rec.Status.IsTerminal() {
		return nil
	}
	rec.Status = result.Status
	if len(result.OutputJSON) > 0 {
		rec.OutputJSON = result.OutputJSON
	}
	if result.ErrorMessage != "" {
		rec.ErrorMessage = result.ErrorMessage
	}
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, predictionID string) (*domain.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[predictionID]; ok {
		clone := *rec
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memoryRepo) GetForOwner(ctx context.Context, predictionID, ownerID string) (*domain.PredictionRecord, error) {
	rec, err := m.GetByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *memoryRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

type testEnv struct {
	app      *App
	provider *fakeProvider
	repo     *memoryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	provider := &fakeProvider{}
	repo := newMemoryRepo()
	cfg := &infra.Config{
		JWTSecret:     testJWTSecret,
		DefaultLocale: "en",
	}
	logger := zerolog.Nop()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	lib := media.NewLibrary(store, "https://studio.example/static", nil, logger)

	app := NewApp(
		cfg,
		logger,
		choreography.NewService(provider, "", logger),
		synthesis.NewService(provider, repo, "", "https://studio.example/webhooks/replicate", logger),
		reconcile.NewService(repo, provider, logger),
		lib,
	)
	return &testEnv{app: app, provider: provider, repo: repo}
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewBuffer(data)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

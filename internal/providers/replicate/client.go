package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("replicate: api key is required")

// ErrInvalidResponse indicates the provider returned a body that is not valid JSON.
var ErrInvalidResponse = errors.New("replicate: invalid json response")

// APIError carries the provider's detail message for a non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("replicate: api error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("replicate: api error (%d)", e.StatusCode)
}

// PredictionError reports a prediction that the provider itself marked
// failed or canceled inside a successful HTTP response.
type PredictionError struct {
	Status  string
	Message string
}

func (e *PredictionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("replicate: prediction %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("replicate: prediction %s", e.Status)
}

// Options configures the Replicate API client.
type Options struct {
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
	Logger      *zerolog.Logger
	SyncTimeout time.Duration
	FastTimeout time.Duration
}

// Client performs HTTP calls against the Replicate predictions API. It
// supports blocking creation (Prefer: wait), fire-and-forget creation with a
// completion webhook, and direct status reads.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	logger      zerolog.Logger
	syncTimeout time.Duration
	fastTimeout time.Duration
}

type createRequest struct {
	Input               map[string]any `json:"input"`
	Webhook             string         `json:"webhook,omitempty"`
	WebhookEventsFilter []string       `json:"webhook_events_filter,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	syncTimeout := opts.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = 120 * time.Second
	}
	fastTimeout := opts.FastTimeout
	if fastTimeout <= 0 {
		fastTimeout = 30 * time.Second
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      logger,
		syncTimeout: syncTimeout,
		fastTimeout: fastTimeout,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// CreateSync submits a prediction and instructs the provider to hold the
// response until the prediction completes, bounded by timeout (the
// configured sync timeout when zero). A failed or canceled terminal status
// in the body is returned as a *PredictionError.
func (c *Client) CreateSync(ctx context.Context, model string, input map[string]any, timeout time.Duration) (*Prediction, error) {
	if timeout <= 0 {
		timeout = c.syncTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pred, err := c.create(ctx, model, createRequest{Input: input}, true)
	if err != nil {
		return nil, err
	}
	switch pred.Status {
	case StatusFailed:
		return nil, &PredictionError{Status: pred.Status, Message: pred.Error}
	case StatusCanceled:
		return nil, &PredictionError{Status: pred.Status, Message: pred.Error}
	}
	return pred, nil
}

// CreateAsync submits a prediction without waiting for completion. When
// webhookURL is non-empty the provider is asked to push a notification for
// the completed event only.
func (c *Client) CreateAsync(ctx context.Context, model string, input map[string]any, webhookURL string) (*Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fastTimeout)
	defer cancel()

	body := createRequest{Input: input}
	if webhookURL != "" {
		body.Webhook = webhookURL
		body.WebhookEventsFilter = []string{"completed"}
	}
	return c.create(ctx, model, body, false)
}

// GetPrediction reads the current state of a prediction directly from the
// provider. It is the cheap fallback when no webhook has arrived yet.
func (c *Client) GetPrediction(ctx context.Context, predictionID string) (*Prediction, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, c.fastTimeout)
	defer cancel()

	endpoint := c.baseURL + "/predictions/" + predictionID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req)
}

func (c *Client) create(ctx context.Context, model string, body createRequest, wait bool) (*Prediction, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("replicate: encode request: %w", err)
	}
	endpoint := c.baseURL + "/models/" + model + "/predictions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if wait {
		req.Header.Set("Prefer", "wait")
	}
	pred, err := c.do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("model", model).
		Str("prediction_id", pred.ID).
		Str("status", pred.Status).
		Bool("wait", wait).
		Msg("replicate: prediction created")
	return pred, nil
}

func (c *Client) do(req *http.Request) (*Prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Detail: detail.Detail}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(raw))}
	}
	var pred Prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, ErrInvalidResponse
	}
	pred.Raw = raw
	return &pred, nil
}

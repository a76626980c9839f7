package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(rt roundTripFunc) *Client {
	return NewClient(Options{
		APIKey:     "token",
		HTTPClient: &http.Client{Transport: rt},
	})
}

func TestCreateSyncSendsWaitHeader(t *testing.T) {
	var captured *http.Request
	var body []byte
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		captured = r
		body, _ = io.ReadAll(r.Body)
		return jsonResponse(http.StatusCreated, `{"id":"p1","status":"succeeded","output":"https://cdn.example/img.png"}`), nil
	})

	pred, err := client.CreateSync(context.Background(), "bytedance/seedream-4", map[string]any{"prompt": "test"}, 0)
	if err != nil {
		t.Fatalf("CreateSync returned error: %v", err)
	}
	if captured.Header.Get("Prefer") != "wait" {
		t.Fatalf("Prefer header = %q, want %q", captured.Header.Get("Prefer"), "wait")
	}
	if captured.Header.Get("Authorization") != "Bearer token" {
		t.Fatalf("Authorization header = %q", captured.Header.Get("Authorization"))
	}
	if got := captured.URL.Path; got != "/v1/models/bytedance/seedream-4/predictions" {
		t.Fatalf("path = %q", got)
	}
	var decoded createRequest
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if decoded.Webhook != "" || decoded.WebhookEventsFilter != nil {
		t.Fatalf("sync request must not carry webhook fields: %+v", decoded)
	}
	if pred.FirstOutputURL() != "https://cdn.example/img.png" {
		t.Fatalf("FirstOutputURL = %q", pred.FirstOutputURL())
	}
}

func TestCreateAsyncIncludesWebhookFilter(t *testing.T) {
	var body []byte
	var captured *http.Request
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		captured = r
		body, _ = io.ReadAll(r.Body)
		return jsonResponse(http.StatusCreated, `{"id":"p2","status":"starting"}`), nil
	})

	pred, err := client.CreateAsync(context.Background(), "bytedance/seedream-4", map[string]any{"prompt": "x"}, "https://example.com/webhooks/replicate")
	if err != nil {
		t.Fatalf("CreateAsync returned error: %v", err)
	}
	if captured.Header.Get("Prefer") != "" {
		t.Fatal("async request must not ask the provider to wait")
	}
	var decoded createRequest
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if decoded.Webhook != "https://example.com/webhooks/replicate" {
		t.Fatalf("webhook = %q", decoded.Webhook)
	}
	if len(decoded.WebhookEventsFilter) != 1 || decoded.WebhookEventsFilter[0] != "completed" {
		t.Fatalf("webhook_events_filter = %v, want [completed]", decoded.WebhookEventsFilter)
	}
	if pred.ID != "p2" || pred.Status != StatusStarting {
		t.Fatalf("prediction = %+v", pred)
	}
}

func TestCreateSyncMapsTerminalFailure(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"id":"p3","status":"failed","error":"NSFW content detected"}`), nil
	})

	_, err := client.CreateSync(context.Background(), "bytedance/seedream-4", nil, 0)
	var predErr *PredictionError
	if !errors.As(err, &predErr) {
		t.Fatalf("error = %v, want *PredictionError", err)
	}
	if predErr.Status != StatusFailed || predErr.Message != "NSFW content detected" {
		t.Fatalf("prediction error = %+v", predErr)
	}
}

func TestClientSurfacesAPIErrorDetail(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusPaymentRequired, `{"detail":"Insufficient credit"}`), nil
	})

	_, err := client.GetPrediction(context.Background(), "p4")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired || apiErr.Detail != "Insufficient credit" {
		t.Fatalf("api error = %+v", apiErr)
	}
}

func TestClientRejectsMalformedBody(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `<html>gateway timeout</html>`), nil
	})

	_, err := client.GetPrediction(context.Background(), "p5")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.GetPrediction(context.Background(), "p6"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
	if _, err := client.CreateAsync(context.Background(), "m", nil, ""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestFirstURLFromOutputShapes(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"bare string", `"https://cdn.example/a.png"`, "https://cdn.example/a.png"},
		{"array", `["https://cdn.example/a.png","https://cdn.example/b.png"]`, "https://cdn.example/a.png"},
		{"empty array", `[]`, ""},
		{"object", `{"nested":true}`, ""},
		{"absent", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstURLFromOutput(json.RawMessage(tt.output)); got != tt.want {
				t.Fatalf("FirstURLFromOutput = %q, want %q", got, tt.want)
			}
		})
	}
}

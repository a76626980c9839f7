package replicate

import (
	"encoding/json"
	"strings"
)

// Prediction statuses reported by the provider.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Prediction is the provider's prediction resource as returned by both the
// create and status endpoints. Output is kept raw because models disagree on
// its shape (bare string, array of strings, nested objects); Raw preserves
// the entire response body for shape-tolerant consumers.
type Prediction struct {
	ID        string            `json:"id"`
	Model     string            `json:"model"`
	Status    string            `json:"status"`
	Input     map[string]any    `json:"input,omitempty"`
	Output    json.RawMessage   `json:"output,omitempty"`
	Error     string            `json:"error,omitempty"`
	Logs      string            `json:"logs,omitempty"`
	URLs      map[string]string `json:"urls,omitempty"`
	CreatedAt string            `json:"created_at,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// IsTerminal reports whether the prediction reached a final status.
func (p *Prediction) IsTerminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// FirstOutputURL extracts an image URL from the output field, accepting
// either a bare string or a non-empty array of strings.
func (p *Prediction) FirstOutputURL() string {
	return FirstURLFromOutput(p.Output)
}

// FirstURLFromOutput decodes a raw output value into its first URL string.
func FirstURLFromOutput(output json.RawMessage) string {
	if len(output) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(output, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(output, &many); err == nil && len(many) > 0 {
		return strings.TrimSpace(many[0])
	}
	return ""
}

package choreography

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const maxSnippetLen = 500

// NoOutputError indicates the choreographer response carried none of the
// recognized output fields. The field list points at provider schema drift.
type NoOutputError struct {
	Fields []string
}

func (e *NoOutputError) Error() string {
	return fmt.Sprintf("choreography: no output from choreographer; available fields: %s", strings.Join(e.Fields, ", "))
}

// ParseError indicates a recognized output field was found but no JSON pose
// array could be decoded from it. Snippet holds up to 500 chars of the raw
// text for diagnosis.
type ParseError struct {
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("choreography: could not parse pose suggestions; raw output: %s", e.Snippet)
}

// Recognized response shapes, in priority order. Providers route the same
// model through different envelopes, so each shape is tried explicitly
// before declaring the payload unrecognized.
type chatShape struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type nestedOutputShape struct {
	Output chatShape `json:"output"`
}

type textShape struct {
	Text     string `json:"text"`
	Response string `json:"response"`
}

// ExtractPoses pulls the pose list out of a raw choreographer response body.
// It locates the model text across the known response shapes, extracts the
// first bracketed JSON array and decodes it into an ordered list of pose
// strings.
func ExtractPoses(raw json.RawMessage) ([]string, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &ParseError{Snippet: snippet(string(raw))}
	}

	text, ok := outputText(raw, envelope)
	if !ok {
		return nil, &NoOutputError{Fields: fieldNames(envelope)}
	}

	poses, err := decodePoseArray(text)
	if err != nil {
		return nil, err
	}
	return poses, nil
}

// outputText resolves the model's textual answer with a prioritized probe:
// direct output field, chat-style choices, choices nested under output, then
// generic text/response fields.
func outputText(raw json.RawMessage, envelope map[string]json.RawMessage) (string, bool) {
	if out, ok := envelope["output"]; ok {
		if text, ok := flattenOutput(out); ok {
			return text, true
		}
	}
	var chat chatShape
	if err := json.Unmarshal(raw, &chat); err == nil && len(chat.Choices) > 0 {
		if content := chat.Choices[0].Message.Content; content != "" {
			return content, true
		}
	}
	var nested nestedOutputShape
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested.Output.Choices) > 0 {
		if content := nested.Output.Choices[0].Message.Content; content != "" {
			return content, true
		}
	}
	var generic textShape
	if err := json.Unmarshal(raw, &generic); err == nil {
		if generic.Text != "" {
			return generic.Text, true
		}
		if generic.Response != "" {
			return generic.Response, true
		}
	}
	return "", false
}

// flattenOutput accepts the output field either as a plain string or as an
// array of streamed string chunks, which are concatenated in order.
func flattenOutput(out json.RawMessage) (string, bool) {
	var text string
	if err := json.Unmarshal(out, &text); err == nil {
		return text, text != ""
	}
	var chunks []string
	if err := json.Unmarshal(out, &chunks); err == nil && len(chunks) > 0 {
		return strings.Join(chunks, ""), true
	}
	return "", false
}

func decodePoseArray(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, &ParseError{Snippet: snippet(text)}
	}
	var poses []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &poses); err != nil || len(poses) == 0 {
		return nil, &ParseError{Snippet: snippet(text)}
	}
	return poses, nil
}

func fieldNames(envelope map[string]json.RawMessage) []string {
	names := make([]string, 0, len(envelope))
	for name := range envelope {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxSnippetLen {
		return text[:maxSnippetLen]
	}
	return text
}

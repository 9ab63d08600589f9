package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func feedbackTestSchema() *Schema {
	return &Schema{
		Name:        "test-feedback",
		Description: "A test feedback object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"isCorrect":     map[string]any{"type": "boolean"},
				"explanation":   map[string]any{"type": "string"},
				"difficulty":    map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
				"relatedTopics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"isCorrect", "explanation"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"all fields", `{"isCorrect":true,"explanation":"ok","difficulty":"easy","relatedTopics":["loops"]}`, false},
		{"required only", `{"isCorrect":false,"explanation":"no"}`, false},
		{"missing required", `{"isCorrect":true}`, true},
		{"wrong type", `{"isCorrect":"yes","explanation":"ok"}`, true},
		{"bad enum", `{"isCorrect":true,"explanation":"ok","difficulty":"extreme"}`, true},
		{"bad array item", `{"isCorrect":true,"explanation":"ok","relatedTopics":[1,2]}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(feedbackTestSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T", err)
			}
			if string(inv.Content) != tt.raw {
				t.Fatalf("error content = %q, want %q", inv.Content, tt.raw)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`anything at all`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

package providers

import (
	"encoding/json"
	"testing"
)

func TestParseStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"title": "NDA"}`,
			want:  `{"title":"NDA"}`,
		},
		{
			name:  "code fenced",
			input: "```json\n{\"title\": \"NDA\"}\n```",
			want:  `{"title":"NDA"}`,
		},
		{
			name:  "surrounded by prose",
			input: "Here is the result:\n{\"title\": \"NDA\"}\nLet me know if you need anything else.",
			want:  `{"title":"NDA"}`,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "not json",
			input:   "I could not find any structured data.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStructuredJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateAgainstSchema(t *testing.T) {
	schemaDoc := json.RawMessage(`{
		"name": "thing",
		"strict": true,
		"schema": {
			"type": "object",
			"properties": {"title": {"type": "string"}},
			"required": ["title"],
			"additionalProperties": false
		}
	}`)

	if err := validateAgainstSchema(schemaDoc, json.RawMessage(`{"title":"ok"}`)); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	if err := validateAgainstSchema(schemaDoc, json.RawMessage(`{"title":1}`)); err == nil {
		t.Error("type mismatch accepted")
	}
	if err := validateAgainstSchema(schemaDoc, json.RawMessage(`{"title":"ok","extra":true}`)); err == nil {
		t.Error("extra property accepted")
	}
}

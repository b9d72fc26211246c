package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/projection"
	"github.com/docentlabs/docent/internal/schema"
)

func testCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	catalog, err := schema.NewCatalog([]*schema.Descriptor{
		{
			Key: "receipt", Name: "Receipt", Description: "A purchase receipt.",
			Fields: []schema.Field{
				{Name: "vendor", Type: schema.FieldType{Kind: schema.KindString}, Required: true},
				{Name: "total", Type: schema.FieldType{Kind: schema.KindFloat}, Required: true},
				{Name: "purchased_on", Type: schema.FieldType{Kind: schema.KindDate}, Required: true},
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to build test catalog: %v", err)
	}
	return catalog
}

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) (*AnthropicClient, *schema.Descriptor) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	catalog := testCatalog(t)
	client := NewAnthropicClient(AnthropicConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, projection.New(catalog))
	desc, _ := catalog.Get("receipt")
	return client, desc
}

func TestAnthropicInvoke_StructuredToolUse(t *testing.T) {
	var captured anthropicRequest
	client, desc := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"model": "claude-3-7-sonnet-20250219",
			"content": [{"type": "tool_use", "input": {"vendor": "Acme", "total": 12.5, "purchased_on": "2024-03-01"}}],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 100, "output_tokens": 25}
		}`))
	})

	resp, err := client.Invoke(context.Background(), &Request{
		System:    "Extract the receipt.",
		Content:   []document.Part{document.Text("Acme, $12.50, March 1 2024")},
		MaxTokens: 1024,
		Schema:    desc,
	})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}

	if resp.Kind != ResponseStructured {
		t.Errorf("kind = %q, want structured", resp.Kind)
	}
	var instance map[string]any
	if err := json.Unmarshal(resp.Value, &instance); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if instance["vendor"] != "Acme" {
		t.Errorf("vendor = %v", instance["vendor"])
	}
	if resp.InputTokens != 100 || resp.OutputTokens != 25 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}

	if len(captured.Tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(captured.Tools))
	}
	if captured.Tools[0].Name != "record_receipt" {
		t.Errorf("tool name = %q", captured.Tools[0].Name)
	}
	if captured.ToolChoice == nil || captured.ToolChoice.Type != "tool" || captured.ToolChoice.Name != "record_receipt" {
		t.Errorf("tool_choice = %+v", captured.ToolChoice)
	}
}

func TestAnthropicInvoke_TextResponse(t *testing.T) {
	client, _ := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 0 {
			t.Errorf("text request carried %d tools", len(req.Tools))
		}
		w.Write([]byte(`{
			"id": "msg_2",
			"model": "claude-3-7-sonnet-20250219",
			"content": [{"type": "text", "text": "license_agreement"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 40, "output_tokens": 4}
		}`))
	})

	resp, err := client.Invoke(context.Background(), &Request{
		System:    "Pick a schema.",
		Content:   []document.Part{document.Text("some document")},
		MaxTokens: 50,
	})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if resp.Kind != ResponseText {
		t.Errorf("kind = %q, want text", resp.Kind)
	}
	if resp.Text != "license_agreement" {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestAnthropicInvoke_ProviderError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad auth", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error": {"message": "nope"}}`, tt.status)
			})

			_, err := client.Invoke(context.Background(), &Request{
				Content:   []document.Part{document.Text("doc")},
				MaxTokens: 100,
			})
			var provErr *ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("error = %v, want ProviderError", err)
			}
			if provErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", provErr.StatusCode, tt.status)
			}
			if provErr.Retryable != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", provErr.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestAnthropicInvoke_SchemaViolation(t *testing.T) {
	client, desc := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "msg_3",
			"model": "claude-3-7-sonnet-20250219",
			"content": [{"type": "tool_use", "input": {"vendor": "Acme"}}],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	})

	_, err := client.Invoke(context.Background(), &Request{
		Content:   []document.Part{document.Text("doc")},
		MaxTokens: 1024,
		Schema:    desc,
	})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if valErr.Reason != ReasonSchemaViolation {
		t.Errorf("reason = %q, want %q", valErr.Reason, ReasonSchemaViolation)
	}
}

func TestAnthropicInvoke_ProseFallbackParsesJSON(t *testing.T) {
	client, desc := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "msg_4",
			"model": "claude-3-7-sonnet-20250219",
			"content": [{"type": "text", "text": "Here you go:\n{\"vendor\": \"Acme\", \"total\": 9.99, \"purchased_on\": \"2024-01-15\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 30}
		}`))
	})

	resp, err := client.Invoke(context.Background(), &Request{
		Content:   []document.Part{document.Text("doc")},
		MaxTokens: 1024,
		Schema:    desc,
	})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if resp.Kind != ResponseStructured {
		t.Errorf("kind = %q, want structured", resp.Kind)
	}
}

func TestRegistry(t *testing.T) {
	catalog := testCatalog(t)
	reg := NewRegistry(projection.New(catalog), nil)

	reg.ApplyConfig(RegistryConfig{
		Default: "anthropic",
		Adapters: map[string]AdapterConfig{
			"anthropic": {Type: "anthropic", Enabled: true, APIKey: "k"},
			"openai":    {Type: "openai", Enabled: true}, // no key, skipped
			"mock":      {Type: "mock", Enabled: true},
			"disabled":  {Type: "anthropic", Enabled: false, APIKey: "k"},
		},
	})

	if got := reg.List(); len(got) != 2 {
		t.Errorf("registered = %v, want anthropic and mock", got)
	}
	if reg.Has("openai") {
		t.Error("keyless adapter registered")
	}
	if reg.Has("disabled") {
		t.Error("disabled adapter registered")
	}

	// Empty name resolves the default.
	adapter, err := reg.Get("")
	if err != nil {
		t.Fatalf("default lookup failed: %v", err)
	}
	if adapter.Name() != AnthropicName {
		t.Errorf("default = %q", adapter.Name())
	}
	if _, err := reg.Get("missing"); err == nil {
		t.Error("missing adapter lookup succeeded")
	}
}

// Package providers integrates LLM backends behind a single Adapter
// interface. Each adapter performs exactly one network call per Invoke;
// retry policy belongs to callers.
package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/schema"
)

// Adapter is the integration point for one LLM backend.
type Adapter interface {
	// Invoke performs a single extraction call. If req.Schema is nil the
	// response carries the provider's raw text; otherwise it carries a
	// validated instance of the target schema.
	Invoke(ctx context.Context, req *Request) (*Response, error)

	// Name returns the adapter identifier (e.g. "anthropic").
	Name() string
}

// Request is one extraction request. Value type; never mutated after
// construction.
type Request struct {
	// Provider names the adapter that should serve the request.
	Provider string

	// Model selection (adapter default if empty).
	Model string

	// System instructions.
	System string

	// Content parts, in order.
	Content []document.Part

	// Generation parameters.
	MaxTokens   int
	Temperature float64

	// Schema is the target schema, or nil for a raw text response.
	Schema *schema.Descriptor
}

// ResponseKind distinguishes raw text from structured responses.
type ResponseKind string

const (
	ResponseText       ResponseKind = "text"
	ResponseStructured ResponseKind = "structured"
)

// Response is the result of one provider call.
type Response struct {
	Kind ResponseKind

	// Text is the raw output (ResponseText only).
	Text string

	// Value is the JSON encoding of the validated instance
	// (ResponseStructured only).
	Value json.RawMessage

	// Provider info.
	Provider  string
	ModelUsed string

	// Token usage.
	InputTokens  int
	OutputTokens int

	// Latency of the provider call. Zero for cache hits.
	Latency time.Duration

	// Cached is set by the invoker when the response was served from cache.
	Cached bool
}

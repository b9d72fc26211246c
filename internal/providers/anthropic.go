package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/projection"
)

const (
	AnthropicName         = "anthropic"
	AnthropicBaseURL      = "https://api.anthropic.com/v1"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-3-7-sonnet-20250219"
)

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	HTTPClient   *http.Client // Optional (tests)
	Logger       *slog.Logger
}

// AnthropicClient implements Adapter against the Anthropic Messages API.
// Anthropic's tool-use mode accepts arbitrary nested typed schemas, so
// structured requests carry the original descriptor's full JSON schema as a
// forced tool call; no simplification pass is needed.
type AnthropicClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	projector    *projection.Projector
	logger       *slog.Logger
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg AnthropicConfig, projector *projection.Projector) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = AnthropicBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = anthropicDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AnthropicClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       client,
		projector:    projector,
		logger:       logger,
	}
}

// Name returns the adapter identifier.
func (c *AnthropicClient) Name() string {
	return AnthropicName
}

// Invoke performs a single Messages API call. No internal retries.
func (c *AnthropicClient) Invoke(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	content, err := c.contentBlocks(req.Content)
	if err != nil {
		return nil, err
	}

	apiReq := anthropicRequest{
		Model:       model,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: content},
		},
	}

	var schemaRaw json.RawMessage
	if req.Schema != nil {
		schemaRaw, err = c.projector.DescriptorSchema(req.Schema)
		if err != nil {
			return nil, err
		}
		inner, err := unwrapSchema(schemaRaw)
		if err != nil {
			return nil, err
		}
		toolName := "record_" + req.Schema.Key
		apiReq.Tools = []anthropicTool{
			{
				Name:        toolName,
				Description: "Record the extracted " + req.Schema.Name + " fields.",
				InputSchema: inner,
			},
		}
		apiReq.ToolChoice = &anthropicToolChoice{Type: "tool", Name: toolName}
	}

	schemaKey := ""
	if req.Schema != nil {
		schemaKey = req.Schema.Key
	}
	c.logger.Debug("provider call",
		"provider", AnthropicName,
		"model", model,
		"schema", schemaKey,
		"max_tokens", req.MaxTokens)

	apiResp, err := c.doRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Provider:     AnthropicName,
		ModelUsed:    apiResp.Model,
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
		Latency:      time.Since(start),
	}

	if req.Schema == nil {
		resp.Kind = ResponseText
		resp.Text = apiResp.textContent()
		return resp, nil
	}

	value := apiResp.toolInput()
	if len(value) == 0 {
		// Fall back to parsing text content as JSON; some models answer
		// in prose despite a forced tool choice.
		value, err = parseStructuredJSON(apiResp.textContent())
		if err != nil {
			return nil, &ValidationError{
				Provider: AnthropicName,
				Reason:   ReasonInvalidJSON,
				Detail:   err.Error(),
				Err:      err,
			}
		}
	}

	if err := validateAgainstSchema(schemaRaw, value); err != nil {
		return nil, &ValidationError{
			Provider: AnthropicName,
			Reason:   ReasonSchemaViolation,
			Detail:   err.Error(),
			Err:      err,
		}
	}

	instance, err := c.projector.Reconstruct(req.Schema, value)
	if err != nil {
		return nil, &ValidationError{
			Provider: AnthropicName,
			Reason:   ReasonSchemaViolation,
			Detail:   err.Error(),
			Err:      err,
		}
	}

	encoded, err := json.Marshal(instance)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize instance: %w", err)
	}

	resp.Kind = ResponseStructured
	resp.Value = encoded
	return resp, nil
}

// contentBlocks converts request parts to Messages API content blocks.
// PDFs become base64 document blocks; other files are inlined as text.
func (c *AnthropicClient) contentBlocks(parts []document.Part) ([]anthropicContent, error) {
	blocks := make([]anthropicContent, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case document.TextPart:
			blocks = append(blocks, anthropicContent{Type: "text", Text: p.Text})
		case document.FilePart:
			data, err := os.ReadFile(p.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
			}
			if document.IsPDF(p.Path) {
				blocks = append(blocks, anthropicContent{
					Type: "document",
					Source: &anthropicSource{
						Type:      "base64",
						MediaType: "application/pdf",
						Data:      base64.StdEncoding.EncodeToString(data),
					},
				})
			} else {
				blocks = append(blocks, anthropicContent{Type: "text", Text: string(data)})
			}
		default:
			return nil, fmt.Errorf("unsupported content part %T", part)
		}
	}
	return blocks, nil
}

func (c *AnthropicClient) doRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{
			Provider:  AnthropicName,
			Retryable: true,
			Message:   "request failed",
			Err:       err,
		}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &ProviderError{
			Provider:  AnthropicName,
			Retryable: true,
			Message:   "failed to read response",
			Err:       err,
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   AnthropicName,
			StatusCode: httpResp.StatusCode,
			Retryable:  retryableStatus(httpResp.StatusCode),
			Message:    string(respBody),
		}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &ValidationError{
			Provider: AnthropicName,
			Reason:   ReasonInvalidJSON,
			Detail:   fmt.Sprintf("failed to unmarshal response: %v", err),
			Err:      err,
		}
	}
	return &apiResp, nil
}

// Anthropic API types

type anthropicRequest struct {
	Model       string               `json:"model"`
	System      string               `json:"system,omitempty"`
	Messages    []anthropicMessage   `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
	Tools       []anthropicTool      `json:"tools,omitempty"`
	ToolChoice  *anthropicToolChoice `json:"tool_choice,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text,omitempty"`
		Input json.RawMessage `json:"input,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (r *anthropicResponse) textContent() string {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

func (r *anthropicResponse) toolInput() json.RawMessage {
	for _, block := range r.Content {
		if block.Type == "tool_use" {
			return block.Input
		}
	}
	return nil
}

// Verify interface
var _ Adapter = (*AnthropicClient)(nil)

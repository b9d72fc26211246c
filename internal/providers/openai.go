package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/projection"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4.1"
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
	BaseURL      string       // Optional (tests)
	HTTPClient   *http.Client // Optional (tests)
	Logger       *slog.Logger
}

// OpenAIClient implements Adapter using the official OpenAI SDK.
// OpenAI's structured-output grammar is restricted, so structured requests
// go through the projector: the request carries the simplified schema and
// the answer is reconstructed under the original descriptor.
type OpenAIClient struct {
	defaultModel string
	client       openai.Client
	projector    *projection.Projector
	logger       *slog.Logger

	// File uploads memoized by content digest so identical files are not
	// re-uploaded within a process.
	uploadMu sync.Mutex
	uploads  map[string]string
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig, projector *projection.Projector) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = openAIDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Retries are a caller concern; the SDK must not retry on its own.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		defaultModel: cfg.DefaultModel,
		client:       openai.NewClient(opts...),
		projector:    projector,
		logger:       logger,
		uploads:      make(map[string]string),
	}
}

// Name returns the adapter identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Invoke performs a single chat completion call. No internal retries.
func (c *OpenAIClient) Invoke(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	userParts, err := c.userParts(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(userParts),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	}

	var simplifiedSchema json.RawMessage
	if req.Schema != nil {
		simplified := c.projector.Simplify(req.Schema)
		simplifiedSchema, err = projection.JSONSchema(simplified)
		if err != nil {
			return nil, err
		}
		inner, err := unwrapSchema(simplifiedSchema)
		if err != nil {
			return nil, err
		}
		var schemaDoc map[string]any
		if err := json.Unmarshal(inner, &schemaDoc); err != nil {
			return nil, fmt.Errorf("failed to decode simplified schema: %w", err)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Schema.Key,
					Strict: openai.Bool(true),
					Schema: schemaDoc,
				},
			},
		}
	}

	schemaKey := ""
	if req.Schema != nil {
		schemaKey = req.Schema.Key
	}
	c.logger.Debug("provider call",
		"provider", OpenAIName,
		"model", model,
		"schema", schemaKey,
		"max_tokens", req.MaxTokens)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.wrapSDKError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, &ProviderError{
			Provider:  OpenAIName,
			Retryable: true,
			Message:   "no choices in response",
		}
	}

	resp := &Response{
		Provider:     OpenAIName,
		ModelUsed:    completion.Model,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
		Latency:      time.Since(start),
	}
	content := completion.Choices[0].Message.Content

	if req.Schema == nil {
		resp.Kind = ResponseText
		resp.Text = content
		return resp, nil
	}

	value, err := parseStructuredJSON(content)
	if err != nil {
		return nil, &ValidationError{
			Provider: OpenAIName,
			Reason:   ReasonInvalidJSON,
			Detail:   err.Error(),
			Err:      err,
		}
	}

	if err := validateAgainstSchema(simplifiedSchema, value); err != nil {
		return nil, &ValidationError{
			Provider: OpenAIName,
			Reason:   ReasonSchemaViolation,
			Detail:   err.Error(),
			Err:      err,
		}
	}

	instance, err := c.projector.Reconstruct(req.Schema, value)
	if err != nil {
		return nil, &ValidationError{
			Provider: OpenAIName,
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

// userParts converts request parts to chat content parts, uploading files
// to the Files API keyed by content digest.
func (c *OpenAIClient) userParts(ctx context.Context, parts []document.Part) ([]openai.ChatCompletionContentPartUnionParam, error) {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case document.TextPart:
			out = append(out, openai.TextContentPart(p.Text))
		case document.FilePart:
			if document.IsPDF(p.Path) {
				fileID, err := c.uploadFile(ctx, p)
				if err != nil {
					return nil, err
				}
				out = append(out, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
					FileID: openai.String(fileID),
				}))
			} else {
				data, err := os.ReadFile(p.Path)
				if err != nil {
					return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
				}
				out = append(out, openai.TextContentPart(string(data)))
			}
		default:
			return nil, fmt.Errorf("unsupported content part %T", part)
		}
	}
	return out, nil
}

func (c *OpenAIClient) uploadFile(ctx context.Context, p document.FilePart) (string, error) {
	c.uploadMu.Lock()
	if id, ok := c.uploads[p.Digest]; ok {
		c.uploadMu.Unlock()
		return id, nil
	}
	c.uploadMu.Unlock()

	f, err := os.Open(p.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", p.Path, err)
	}
	defer f.Close()

	uploaded, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    f,
		Purpose: openai.FilePurposeUserData,
	})
	if err != nil {
		return "", c.wrapSDKError(err)
	}

	c.logger.Debug("file uploaded", "name", p.Name, "file_id", uploaded.ID)

	c.uploadMu.Lock()
	c.uploads[p.Digest] = uploaded.ID
	c.uploadMu.Unlock()
	return uploaded.ID, nil
}

func (c *OpenAIClient) wrapSDKError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   OpenAIName,
			StatusCode: apiErr.StatusCode,
			Retryable:  retryableStatus(apiErr.StatusCode),
			Message:    strings.TrimSpace(apiErr.Error()),
			Err:        err,
		}
	}
	return &ProviderError{
		Provider:  OpenAIName,
		Retryable: true,
		Message:   err.Error(),
		Err:       err,
	}
}

// Verify interface
var _ Adapter = (*OpenAIClient)(nil)

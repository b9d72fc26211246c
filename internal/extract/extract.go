// Package extract is the top-level extraction service: it resolves the
// target schema (named or classified), runs the cached invocation, and
// returns the validated instance.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/docentlabs/docent/internal/classify"
	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/invoke"
	"github.com/docentlabs/docent/internal/providers"
	"github.com/docentlabs/docent/internal/schema"
)

const defaultMaxTokens = 4096

// Options tune one extraction run.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Result is one completed extraction.
type Result struct {
	Schema         string            `json:"schema" yaml:"schema"`
	Classification *classify.Outcome `json:"classification,omitempty" yaml:"classification,omitempty"`
	Value          json.RawMessage   `json:"value" yaml:"value"`
	Cached         bool              `json:"cached" yaml:"cached"`
}

// Service coordinates classification and extraction.
type Service struct {
	catalog    *schema.Catalog
	invoker    *invoke.Invoker
	classifier *classify.Classifier
	logger     *slog.Logger
}

// New creates a Service.
func New(catalog *schema.Catalog, invoker *invoke.Invoker, classifier *classify.Classifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:    catalog,
		invoker:    invoker,
		classifier: classifier,
		logger:     logger,
	}
}

// Extract runs extraction against the named schema.
func (s *Service) Extract(ctx context.Context, content []document.Part, schemaKey string, opts Options) (*Result, error) {
	desc, ok := s.catalog.Get(schemaKey)
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", schemaKey)
	}
	return s.extract(ctx, content, desc, nil, opts)
}

// Auto classifies the document first, then extracts with the selected
// schema. The classification outcome rides along in the result.
func (s *Service) Auto(ctx context.Context, content []document.Part, opts Options) (*Result, error) {
	outcome, err := s.classifier.Classify(ctx, content, classify.Options{
		Provider: opts.Provider,
		Model:    opts.Model,
	})
	if err != nil {
		return nil, err
	}
	return s.extract(ctx, content, outcome.Final, outcome, opts)
}

// ClassifyOnly runs classification without extraction.
func (s *Service) ClassifyOnly(ctx context.Context, content []document.Part, opts Options) (*classify.Outcome, error) {
	return s.classifier.Classify(ctx, content, classify.Options{
		Provider: opts.Provider,
		Model:    opts.Model,
	})
}

func (s *Service) extract(ctx context.Context, content []document.Part, desc *schema.Descriptor, outcome *classify.Outcome, opts Options) (*Result, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := s.invoker.Do(ctx, &providers.Request{
		Provider:    opts.Provider,
		Model:       opts.Model,
		System:      extractionSystem(desc),
		Content:     content,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		Schema:      desc,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("extraction complete",
		"schema", desc.Key,
		"cached", resp.Cached)

	return &Result{
		Schema:         desc.Key,
		Classification: outcome,
		Value:          resp.Value,
		Cached:         resp.Cached,
	}, nil
}

func extractionSystem(desc *schema.Descriptor) string {
	return fmt.Sprintf(
		"You extract structured data from documents. Read the document and record every %s field you can find. Use null only for optional fields that are genuinely absent.",
		desc.Name)
}

// Package classify selects the extraction schema for a document by walking
// the catalog tree: at each level the model picks one candidate, and its
// children become the next level's candidates. The walk makes at most one
// model call per tree level.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/invoke"
	"github.com/docentlabs/docent/internal/providers"
	"github.com/docentlabs/docent/internal/schema"
)

// MetaKey marks the catalog entry that names the classifier itself. It is
// never a candidate.
const MetaKey = "auto"

const selectionMaxTokens = 50

// SelectionError reports a root-level selection the catalog cannot resolve.
// Deeper levels degrade to the last good pick instead of failing.
type SelectionError struct {
	Given string
	Valid []string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("no schema matches %q; valid options: %s", e.Given, strings.Join(e.Valid, ", "))
}

// Outcome is the result of one classification walk.
type Outcome struct {
	RunID string `json:"run_id" yaml:"run_id"`

	// Path holds the selected keys from root to final, in order.
	Path []string `json:"path" yaml:"path"`

	// Final is the descriptor extraction should use.
	Final *schema.Descriptor `json:"-" yaml:"-"`

	// FinalKey mirrors Final.Key for serialized output.
	FinalKey string `json:"schema" yaml:"schema"`

	// Warning is set when a deep selection could not be resolved and the
	// walk stopped early.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Options tune the selection calls.
type Options struct {
	Provider string
	Model    string
}

// Classifier walks the catalog tree using an Invoker for selection calls,
// so repeated classifications of the same document are cache hits.
type Classifier struct {
	catalog *schema.Catalog
	invoker *invoke.Invoker
	logger  *slog.Logger
}

// New creates a Classifier.
func New(catalog *schema.Catalog, invoker *invoke.Invoker, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{catalog: catalog, invoker: invoker, logger: logger}
}

// Classify selects a schema for the document content. A root-level
// resolution failure is fatal; deeper failures truncate the walk with a
// warning.
func (c *Classifier) Classify(ctx context.Context, content []document.Part, opts Options) (*Outcome, error) {
	outcome := &Outcome{RunID: uuid.New().String()}

	candidates := c.rootCandidates()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("catalog has no root schemas")
	}

	var current *schema.Descriptor
	for len(candidates) > 0 {
		pick, err := c.selectOne(ctx, content, candidates, opts)
		if err != nil {
			return nil, err
		}

		chosen, ok := resolve(candidates, pick)
		if !ok {
			if current == nil {
				return nil, &SelectionError{Given: pick, Valid: keysOf(candidates)}
			}
			outcome.Warning = fmt.Sprintf("selection %q matches no child of %s; stopping at %s", pick, current.Key, current.Key)
			c.logger.Warn("classification truncated",
				"run_id", outcome.RunID,
				"selection", pick,
				"stopped_at", current.Key)
			break
		}

		current = chosen
		outcome.Path = append(outcome.Path, chosen.Key)
		c.logger.Debug("classified level",
			"run_id", outcome.RunID,
			"depth", len(outcome.Path),
			"selected", chosen.Key)

		candidates = c.childCandidates(chosen.Key)
	}

	outcome.Final = current
	outcome.FinalKey = current.Key
	c.logger.Info("classification complete",
		"run_id", outcome.RunID,
		"schema", current.Key,
		"path", strings.Join(outcome.Path, "/"))
	return outcome, nil
}

// selectOne asks the model to pick one candidate. A single candidate is
// selected directly without a call.
func (c *Classifier) selectOne(ctx context.Context, content []document.Part, candidates []*schema.Descriptor, opts Options) (string, error) {
	if len(candidates) == 1 {
		return candidates[0].Key, nil
	}

	prompt, err := selectionPrompt(candidates)
	if err != nil {
		return "", err
	}

	parts := make([]document.Part, 0, len(content)+1)
	parts = append(parts, content...)
	parts = append(parts, document.Text(prompt))

	text, err := c.invoker.DoText(ctx, &providers.Request{
		Provider:  opts.Provider,
		Model:     opts.Model,
		System:    "You classify documents. Answer with a single schema name and nothing else.",
		Content:   parts,
		MaxTokens: selectionMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// selectionPrompt lists the candidates as JSON so field inventories are
// unambiguous.
func selectionPrompt(candidates []*schema.Descriptor) (string, error) {
	type entry struct {
		Description string   `json:"description"`
		Fields      []string `json:"fields"`
	}
	listing := make(map[string]entry, len(candidates))
	for _, d := range candidates {
		fields := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, f.Name)
		}
		listing[d.Key] = entry{Description: d.Description, Fields: fields}
	}
	encoded, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}

	var b strings.Builder
	b.WriteString("Select the schema that best describes the document above.\n\n")
	b.WriteString("Available schemas:\n")
	b.Write(encoded)
	b.WriteString("\n\nRespond with only the exact schema name.")
	return b.String(), nil
}

// rootCandidates returns the parentless descriptors. A catalog whose only
// root is the meta entry falls back to every non-meta descriptor, so
// hierarchies hung off the meta entry still classify.
func (c *Classifier) rootCandidates() []*schema.Descriptor {
	roots := excludeMeta(c.catalog.Roots())
	if len(roots) == 0 {
		return excludeMeta(c.catalog.List())
	}
	return roots
}

func (c *Classifier) childCandidates(key string) []*schema.Descriptor {
	return excludeMeta(c.catalog.Children(key))
}

func excludeMeta(descs []*schema.Descriptor) []*schema.Descriptor {
	out := descs[:0:0]
	for _, d := range descs {
		if d.Key != MetaKey {
			out = append(out, d)
		}
	}
	return out
}

// resolve matches a model answer to a candidate: exact key first, then
// case-insensitive key, then case-insensitive display name.
func resolve(candidates []*schema.Descriptor, pick string) (*schema.Descriptor, bool) {
	for _, d := range candidates {
		if d.Key == pick {
			return d, true
		}
	}
	for _, d := range candidates {
		if strings.EqualFold(d.Key, pick) {
			return d, true
		}
	}
	for _, d := range candidates {
		if strings.EqualFold(d.Name, pick) {
			return d, true
		}
	}
	return nil, false
}

func keysOf(descs []*schema.Descriptor) []string {
	keys := make([]string, 0, len(descs))
	for _, d := range descs {
		keys = append(keys, d.Key)
	}
	sort.Strings(keys)
	return keys
}

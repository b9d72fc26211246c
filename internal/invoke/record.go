package invoke

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docentlabs/docent/internal/fingerprint"
	"github.com/docentlabs/docent/internal/providers"
)

// Record captures one served invocation for traceability.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	Fingerprint string `json:"fingerprint"`
	CacheHit    bool   `json:"cache_hit"`

	Provider string `json:"provider"`
	Model    string `json:"model"`
	Schema   string `json:"schema,omitempty"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func newRecord(req *providers.Request, resp *providers.Response, fp fingerprint.Fingerprint, cacheHit bool) *Record {
	schemaKey := ""
	if req.Schema != nil {
		schemaKey = req.Schema.Key
	}
	return &Record{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(resp.Latency.Milliseconds()),
		Fingerprint:  fp.String(),
		CacheHit:     cacheHit,
		Provider:     resp.Provider,
		Model:        resp.ModelUsed,
		Schema:       schemaKey,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}
}

func (r *Record) log(logger *slog.Logger) {
	logger.Info("invocation",
		"id", r.ID,
		"provider", r.Provider,
		"model", r.Model,
		"schema", r.Schema,
		"cache_hit", r.CacheHit,
		"latency_ms", r.LatencyMs,
		"input_tokens", r.InputTokens,
		"output_tokens", r.OutputTokens)
}

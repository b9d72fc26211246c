// Package batch crawls a directory tree and runs extraction over every
// supported document, writing one JSON result per input. Failures are
// isolated per file; the crawl always finishes.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/extract"
	"github.com/docentlabs/docent/internal/providers"
)

// supportedExts are the file types a crawl picks up.
var supportedExts = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// Config tunes one crawl.
type Config struct {
	InputDir  string
	OutputDir string

	// Schema is the extraction target; empty means classify per document.
	Schema string

	Workers           int
	RequestsPerMinute int
	MaxAttempts       int

	Extract extract.Options
}

// FileResult records the outcome for one input file.
type FileResult struct {
	Path    string        `json:"path"`
	Output  string        `json:"output,omitempty"`
	Schema  string        `json:"schema,omitempty"`
	Cached  bool          `json:"cached"`
	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
}

// Summary aggregates a finished crawl.
type Summary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	CacheHits int           `json:"cache_hits" yaml:"cache_hits"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`

	Results []FileResult `json:"-" yaml:"-"`
}

// Runner executes crawls against an extraction service.
type Runner struct {
	service *extract.Service
	logger  *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(service *extract.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{service: service, logger: logger}
}

// Run crawls cfg.InputDir and processes every supported file with a fixed
// worker pool. Per-file provider errors are retried with backoff when the
// provider says they are retryable; everything else fails the file once.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Summary, error) {
	start := time.Now()
	runID := uuid.New().String()

	files, err := discover(cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		r.logger.Warn("no supported files found", "run_id", runID, "dir", cfg.InputDir)
		return &Summary{RunID: runID, Elapsed: time.Since(start)}, nil
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	limiter := NewRateLimiter(cfg.RequestsPerMinute)

	r.logger.Info("starting crawl",
		"dir", cfg.InputDir,
		"files", len(files),
		"workers", cfg.Workers)

	jobs := make(chan string)
	results := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- r.processFile(ctx, cfg, limiter, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &Summary{RunID: runID, Total: len(files)}
	for res := range results {
		summary.Results = append(summary.Results, res)
		if res.Err != nil {
			summary.Failed++
			r.logger.Error("file failed", "path", res.Path, "error", res.Err)
			continue
		}
		summary.Succeeded++
		if res.Cached {
			summary.CacheHits++
		}
	}
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Path < summary.Results[j].Path
	})

	summary.Elapsed = time.Since(start)
	r.logger.Info("crawl finished",
		"run_id", runID,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"cache_hits", summary.CacheHits,
		"elapsed", summary.Elapsed)
	return summary, ctx.Err()
}

func (r *Runner) processFile(ctx context.Context, cfg Config, limiter *RateLimiter, path string) FileResult {
	start := time.Now()
	result := FileResult{Path: path}

	part, err := document.File(path)
	if err != nil {
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}
	content := []document.Part{part}

	var extracted *extract.Result
	err = retry.Do(
		func() error {
			if err := limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			var runErr error
			if cfg.Schema != "" {
				extracted, runErr = r.service.Extract(ctx, content, cfg.Schema, cfg.Extract)
			} else {
				extracted, runErr = r.service.Auto(ctx, content, cfg.Extract)
			}
			if runErr != nil && !isRetryable(runErr) {
				return retry.Unrecoverable(runErr)
			}
			return runErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(cfg.MaxAttempts)),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}

	result.Schema = extracted.Schema
	result.Cached = extracted.Cached

	outPath, err := writeResult(cfg, path, extracted)
	if err != nil {
		result.Err = err
	} else {
		result.Output = outPath
	}
	result.Elapsed = time.Since(start)
	return result
}

// writeResult mirrors the input directory structure under OutputDir and
// writes <stem>_<schema>.json.
func writeResult(cfg Config, inputPath string, res *extract.Result) (string, error) {
	rel, err := filepath.Rel(cfg.InputDir, inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s: %w", inputPath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	outDir := filepath.Join(cfg.OutputDir, filepath.Dir(rel))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("%s_%s.json", stem, res.Schema))
	encoded, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	return outPath, nil
}

// discover lists supported files under dir, sorted for deterministic
// scheduling.
func discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if supportedExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func isRetryable(err error) bool {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}

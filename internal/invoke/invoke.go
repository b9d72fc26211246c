// Package invoke is the cached invocation layer: every extraction call goes
// through an Invoker, which consults the cache before the provider and
// writes successful responses back through. Errors are never cached.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/docentlabs/docent/internal/cache"
	"github.com/docentlabs/docent/internal/fingerprint"
	"github.com/docentlabs/docent/internal/providers"
)

// Invoker routes requests through the fingerprint cache to a provider
// registry. Safe for concurrent use; concurrent misses on the same
// fingerprint may each reach the provider, with last write winning.
type Invoker struct {
	registry *providers.Registry
	store    cache.Store
	logger   *slog.Logger
}

// New creates an Invoker. A nil store disables caching entirely.
func New(registry *providers.Registry, store cache.Store, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{registry: registry, store: store, logger: logger}
}

// Do serves one request, preferring the cache. The returned response has
// Cached set when no provider call was made.
func (inv *Invoker) Do(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	fp, err := fingerprint.Compute(req)
	if err != nil {
		return nil, err
	}

	if resp, ok := inv.fromCache(ctx, fp, req); ok {
		return resp, nil
	}

	adapter, err := inv.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	resp, err := adapter.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	inv.writeBack(ctx, fp, req, resp)
	rec := newRecord(req, resp, fp, false)
	rec.log(inv.logger)
	return resp, nil
}

// fromCache attempts to serve req from the store. Backend failures degrade
// to a miss with a warning; a broken cache must not break extraction.
func (inv *Invoker) fromCache(ctx context.Context, fp fingerprint.Fingerprint, req *providers.Request) (*providers.Response, bool) {
	if inv.store == nil {
		return nil, false
	}

	val, ok, err := inv.store.Get(ctx, fp)
	if err != nil {
		inv.logger.Warn("cache read failed", "fingerprint", fp, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	resp := &providers.Response{
		Provider:  req.Provider,
		ModelUsed: req.Model,
		Cached:    true,
	}
	if req.Schema == nil {
		resp.Kind = providers.ResponseText
		resp.Text = string(val)
	} else {
		resp.Kind = providers.ResponseStructured
		resp.Value = json.RawMessage(val)
	}

	rec := newRecord(req, resp, fp, true)
	rec.log(inv.logger)
	return resp, true
}

// writeBack persists a successful response. Write failures are logged and
// swallowed; the caller already has the answer.
func (inv *Invoker) writeBack(ctx context.Context, fp fingerprint.Fingerprint, req *providers.Request, resp *providers.Response) {
	if inv.store == nil {
		return
	}

	var val []byte
	if req.Schema == nil {
		val = []byte(resp.Text)
	} else {
		val = resp.Value
	}
	if err := inv.store.Set(ctx, fp, val); err != nil {
		inv.logger.Warn("cache write failed", "fingerprint", fp, "error", err)
	}
}

// DoText is a convenience wrapper for schemaless requests.
func (inv *Invoker) DoText(ctx context.Context, req *providers.Request) (string, error) {
	if req.Schema != nil {
		return "", fmt.Errorf("DoText called with a schema")
	}
	resp, err := inv.Do(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

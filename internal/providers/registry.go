package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/docentlabs/docent/internal/projection"
)

// AdapterConfig holds configuration for one provider adapter.
type AdapterConfig struct {
	Type    string // "anthropic", "openai", "mock"
	Enabled bool
	APIKey  string
	Model   string
	BaseURL string
}

// RegistryConfig holds configuration for the full registry.
type RegistryConfig struct {
	Default  string
	Adapters map[string]AdapterConfig
}

// Registry holds provider adapters keyed by name. It supports config-driven
// instantiation and provides thread-safe access.
type Registry struct {
	mu        sync.RWMutex
	adapters  map[string]Adapter
	defName   string
	projector *projection.Projector
	logger    *slog.Logger
}

// NewRegistry creates a new empty registry. The projector is shared by all
// structured-output adapters the registry constructs.
func NewRegistry(projector *projection.Projector, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		adapters:  make(map[string]Adapter),
		projector: projector,
		logger:    logger,
	}
}

// Register registers an adapter by name.
func (r *Registry) Register(name string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = adapter
	r.logger.Info("registered provider", "name", name)
}

// Unregister removes an adapter by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, name)
	r.logger.Info("unregistered provider", "name", name)
}

// Get returns an adapter by name. An empty name returns the default adapter.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defName
	}
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return adapter, nil
}

// List returns all registered adapter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if an adapter is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[name]
	return ok
}

// ApplyConfig instantiates adapters from configuration. Disabled entries and
// entries without an API key are skipped.
func (r *Registry) ApplyConfig(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defName = cfg.Default
	for name, ac := range cfg.Adapters {
		if !ac.Enabled {
			continue
		}
		if ac.APIKey == "" && ac.Type != "mock" {
			continue
		}
		adapter := r.createAdapter(ac)
		if adapter == nil {
			r.logger.Warn("unknown provider type", "name", name, "type", ac.Type)
			continue
		}
		r.adapters[name] = adapter
		r.logger.Info("registered provider", "name", name, "type", ac.Type)
	}
}

func (r *Registry) createAdapter(cfg AdapterConfig) Adapter {
	switch cfg.Type {
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			BaseURL:      cfg.BaseURL,
			Logger:       r.logger,
		}, r.projector)
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			BaseURL:      cfg.BaseURL,
			Logger:       r.logger,
		}, r.projector)
	case "mock":
		return NewMockAdapter()
	default:
		return nil
	}
}

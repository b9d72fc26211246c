package config

// Config holds docent configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Cache     CacheCfg               `mapstructure:"cache" yaml:"cache"`
	Redis     RedisCfg               `mapstructure:"redis" yaml:"redis"`
	Batch     BatchCfg               `mapstructure:"batch" yaml:"batch"`
}

// ProviderCfg configures one LLM provider.
type ProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"`       // "anthropic", "openai", "mock"
	Model   string `mapstructure:"model" yaml:"model"`     // Default model name
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections for extraction runs.
type DefaultsCfg struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`     // Default provider name
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"` // Extraction token budget
}

// CacheCfg selects and configures the response cache backend.
type CacheCfg struct {
	// Backend is "filesystem", "memory", "redis", or "none".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Dir overrides the filesystem cache location (default: {home}/cache).
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
}

// RedisCfg holds Redis connection and container settings.
type RedisCfg struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"` // Supports ${ENV_VAR}
	DB       int    `mapstructure:"db" yaml:"db"`

	// Managed container settings, used by `docent redis`.
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Image         string `mapstructure:"image" yaml:"image"`
	Port          string `mapstructure:"port" yaml:"port"`
}

// BatchCfg tunes directory crawls.
type BatchCfg struct {
	Workers           int `mapstructure:"workers" yaml:"workers"`
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MaxAttempts       int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"anthropic": {
				Type:    "anthropic",
				Model:   "claude-3-7-sonnet-20250219",
				APIKey:  "${ANTHROPIC_API_KEY}",
				Enabled: true,
			},
			"openai": {
				Type:    "openai",
				Model:   "gpt-4.1",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
		},
		Defaults: DefaultsCfg{
			Provider:  "anthropic",
			MaxTokens: 4096,
		},
		Cache: CacheCfg{
			Backend: "filesystem",
		},
		Redis: RedisCfg{
			Addr:          "localhost:6379",
			ContainerName: "docent-redis",
			Image:         "redis:7-alpine",
			Port:          "6379",
		},
		Batch: BatchCfg{
			Workers:           4,
			RequestsPerMinute: 60,
			MaxAttempts:       3,
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

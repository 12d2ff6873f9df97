// Package config loads a RouterConfig from an optional YAML file plus
// process environment overrides, following the same setDefaults ->
// loadFromFile -> loadFromEnv -> validate pipeline the router has always
// used, generalized to the full provider/strategy/retry/cost-tracking
// surface the routing and health packages consume.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tributary-ai/llm-router/internal/catalog"
	"github.com/tributary-ai/llm-router/internal/retry"
	"github.com/tributary-ai/llm-router/internal/types"
)

// Config is the top-level application configuration. Provider API keys are
// read only from the environment (never from a file), so secrets never live
// on disk alongside the rest of the configuration.
type Config struct {
	Router    types.RouterConfig          `yaml:"router"`
	Providers map[string]ProviderFileConfig `yaml:"providers"`
}

// ProviderFileConfig is the on-disk shape of a single provider entry; the
// API key field is intentionally absent; see loadProviderEnv.
type ProviderFileConfig struct {
	Enabled   bool                    `yaml:"enabled"`
	BaseURL   string                  `yaml:"base_url"`
	Priority  int                     `yaml:"priority"`
	TimeoutMs int                     `yaml:"timeout_ms"`
	Models    []types.ModelDescriptor `yaml:"models"`
}

// envKeyFor maps a provider name to the environment variable carrying its
// API key, and a bootstrap priority used when nothing else is configured.
// Lower priority numbers are preferred (matches the router's ascending
// priority-strategy convention).
var envKeyFor = map[string]struct {
	EnvVar          string
	DefaultPriority int
}{
	"anthropic": {"ANTHROPIC_API_KEY", 1},
	"openai":    {"OPENAI_API_KEY", 2},
	"groq":      {"GROQ_API_KEY", 5},
	"ollama":    {"OLLAMA_BASE_URL", 10},
}

// Load builds a Config by layering setDefaults, an optional YAML file, and
// environment overrides, then validates the result. path may be empty, in
// which case only defaults and environment apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.setDefaults()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}
	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	c.Router = types.RouterConfig{
		RoutingStrategy: types.StrategyPriority,
		RetryConfig:     retry.DefaultConfig(),
		CostTracking:    types.CostTrackingConfig{Enabled: true},
		Logging:         types.LoggingConfig{Level: "info", Format: "text"},
	}
	c.Providers = map[string]ProviderFileConfig{
		"anthropic": {Enabled: true, Priority: 1, TimeoutMs: 120000},
		"openai":    {Enabled: true, Priority: 2, TimeoutMs: 120000},
		"groq":      {Enabled: false, Priority: 5, TimeoutMs: 60000},
		"ollama":    {Enabled: true, Priority: 10, TimeoutMs: 60000, BaseURL: "http://localhost:11434"},
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if strategy := os.Getenv("LLM_ROUTER_DEFAULT_STRATEGY"); strategy != "" {
		c.Router.RoutingStrategy = types.RoutingStrategyType(strategy)
	}
	if level := os.Getenv("LLM_ROUTER_LOG_LEVEL"); level != "" {
		c.Router.Logging.Level = level
	}
	if format := os.Getenv("LLM_ROUTER_LOG_FORMAT"); format != "" {
		c.Router.Logging.Format = format
	}
	if provider := os.Getenv("LLM_ROUTER_DEFAULT_PROVIDER"); provider != "" {
		c.Router.DefaultProvider = provider
	}
	if n := os.Getenv("LLM_ROUTER_MAX_RETRIES"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			c.Router.RetryConfig.MaxRetries = v
		}
	}

	for name, info := range envKeyFor {
		pc, ok := c.Providers[name]
		if !ok {
			pc = ProviderFileConfig{Priority: info.DefaultPriority}
		}
		if v := os.Getenv(info.EnvVar); v != "" {
			if name == "ollama" {
				pc.BaseURL = v
			}
			pc.Enabled = true
		}
		c.Providers[name] = pc
	}
}

func (c *Config) validate() error {
	switch c.Router.RoutingStrategy {
	case types.StrategyPriority, types.StrategyCost, types.StrategyLatency,
		types.StrategyComplexity, types.StrategyRoundRobin, types.StrategyAdaptive:
	default:
		return fmt.Errorf("invalid routing strategy: %s", c.Router.RoutingStrategy)
	}
	if c.Router.RetryConfig.MaxRetries < 0 {
		return fmt.Errorf("retry max_retries must be >= 0")
	}

	enabledCount := 0
	for name, pc := range c.Providers {
		if !pc.Enabled {
			continue
		}
		if name != "ollama" && os.Getenv(envKeyFor[name].EnvVar) == "" {
			continue // enabled in file but no key in environment: silently skip, don't fail startup
		}
		enabledCount++
	}
	if enabledCount == 0 {
		return fmt.Errorf("at least one provider must be enabled with credentials present")
	}
	return nil
}

// ProviderConfigs materializes the enabled providers (those with credentials
// present in the environment, or Ollama's reachable-by-convention base URL)
// into the ProviderConfig list the router's initialization step consumes, in
// ascending-priority order.
func (c *Config) ProviderConfigs() []types.ProviderConfig {
	type named struct {
		name string
		cfg  types.ProviderConfig
	}
	var out []named
	for name, pc := range c.Providers {
		if !pc.Enabled {
			continue
		}
		apiKey := ""
		if info, ok := envKeyFor[name]; ok && name != "ollama" {
			apiKey = os.Getenv(info.EnvVar)
			if apiKey == "" {
				continue
			}
		}
		timeout := pc.TimeoutMs
		if timeout == 0 {
			timeout = int(120 * time.Second / time.Millisecond)
		}
		models := pc.Models
		if len(models) == 0 {
			models = catalog.DefaultModels(name)
		}
		out = append(out, named{name, types.ProviderConfig{
			Name:      name,
			APIKey:    apiKey,
			BaseURL:   pc.BaseURL,
			Enabled:   true,
			Priority:  pc.Priority,
			Models:    models,
			TimeoutMs: timeout,
		}})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].cfg.Priority < out[i].cfg.Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	result := make([]types.ProviderConfig, len(out))
	for i, n := range out {
		result[i] = n.cfg
	}
	return result
}

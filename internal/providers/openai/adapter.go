// Package openai wires the shared OpenAI-compatible adapter to OpenAI's own
// API (the default go-openai base URL, API key required).
package openai

import (
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/providers/openaicompat"
	"github.com/tributary-ai/llm-router/internal/types"
)

// New constructs an OpenAI adapter.
func New(cfg types.ProviderConfig, logger *logrus.Logger) (providers.Adapter, error) {
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	return openaicompat.New(name, "", true, cfg, logger)
}

// Factory adapts New to the providers.Factory shape.
func Factory(logger *logrus.Logger) providers.Factory {
	return func(cfg types.ProviderConfig) (providers.Adapter, error) {
		return New(cfg, logger)
	}
}

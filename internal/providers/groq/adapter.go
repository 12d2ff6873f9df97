// Package groq wires the shared OpenAI-compatible adapter to Groq's hosted
// inference API. Groq speaks the OpenAI chat-completions wire format at its
// own base URL, so this package only supplies that default and a name —
// it reuses go-openai (the teacher's own dependency) via openaicompat rather
// than a bespoke HTTP client.
package groq

import (
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/providers/openaicompat"
	"github.com/tributary-ai/llm-router/internal/types"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// New constructs a Groq adapter.
func New(cfg types.ProviderConfig, logger *logrus.Logger) (providers.Adapter, error) {
	name := cfg.Name
	if name == "" {
		name = "groq"
	}
	return openaicompat.New(name, defaultBaseURL, true, cfg, logger)
}

// Factory adapts New to the providers.Factory shape.
func Factory(logger *logrus.Logger) providers.Factory {
	return func(cfg types.ProviderConfig) (providers.Adapter, error) {
		return New(cfg, logger)
	}
}

package catalog

import "github.com/tributary-ai/llm-router/internal/types"

// DefaultModels returns the built-in model table for a provider, used when a
// configuration file or environment setup supplies no explicit model list.
// Pricing mirrors each vendor's published per-1K-token rates at time of
// writing.
func DefaultModels(provider string) []types.ModelDescriptor {
	switch provider {
	case "anthropic":
		return []types.ModelDescriptor{
			{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextWindow: 200000, MaxOutputTokens: 8192, InputCostPer1K: 0.003, OutputCostPer1K: 0.015, SupportsVision: true, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexityComplex, IsDefault: true},
			{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ContextWindow: 200000, MaxOutputTokens: 8192, InputCostPer1K: 0.0008, OutputCostPer1K: 0.004, SupportsVision: false, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexityModerate},
			{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextWindow: 200000, MaxOutputTokens: 4096, InputCostPer1K: 0.00025, OutputCostPer1K: 0.00125, SupportsVision: true, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexitySimple},
		}
	case "openai":
		return []types.ModelDescriptor{
			{ID: "gpt-4o", Name: "GPT-4o", ContextWindow: 128000, MaxOutputTokens: 4096, InputCostPer1K: 0.005, OutputCostPer1K: 0.015, SupportsVision: true, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexityComplex, IsDefault: true},
			{ID: "gpt-4o-mini", Name: "GPT-4o mini", ContextWindow: 128000, MaxOutputTokens: 16384, InputCostPer1K: 0.00015, OutputCostPer1K: 0.0006, SupportsVision: true, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexityModerate},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextWindow: 16385, MaxOutputTokens: 4096, InputCostPer1K: 0.0015, OutputCostPer1K: 0.002, SupportsVision: false, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexitySimple},
		}
	case "groq":
		return []types.ModelDescriptor{
			{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B Versatile", ContextWindow: 128000, MaxOutputTokens: 32768, InputCostPer1K: 0.00059, OutputCostPer1K: 0.00079, SupportsVision: false, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexityModerate, IsDefault: true},
			{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant", ContextWindow: 128000, MaxOutputTokens: 8192, InputCostPer1K: 0.00005, OutputCostPer1K: 0.00008, SupportsVision: false, SupportsStream: true, SupportsFunction: true, Complexity: types.ComplexitySimple},
		}
	case "ollama":
		return []types.ModelDescriptor{
			{ID: "llama3.1", Name: "Llama 3.1 (local)", ContextWindow: 128000, MaxOutputTokens: 4096, InputCostPer1K: 0, OutputCostPer1K: 0, SupportsVision: false, SupportsStream: true, SupportsFunction: false, Complexity: types.ComplexitySimple, IsDefault: true},
		}
	default:
		return nil
	}
}

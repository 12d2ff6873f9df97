// Package accounting implements the Cost & Token Accountant: a deterministic,
// provider-agnostic token estimate and the USD cost arithmetic derived from
// it. It is shared by every adapter so routing decisions stay stable
// regardless of which backend ends up serving a request.
package accounting

import (
	"math"

	"github.com/tributary-ai/llm-router/internal/types"
)

// EstimateTokens sums the character length of every text part across every
// message and divides by 4, rounding up. Image parts contribute zero tokens;
// a server-reported usage count always overrides this estimate on response.
func EstimateTokens(messages []types.Message) int {
	totalChars := 0
	for _, m := range messages {
		if m.HasParts() {
			for _, p := range m.Parts {
				if p.Kind == types.PartText {
					totalChars += len(p.Text)
				}
			}
			continue
		}
		totalChars += len(m.Text)
	}
	if totalChars == 0 {
		return 0
	}
	return int(math.Ceil(float64(totalChars) / 4.0))
}

// CalculateCost multiplies usage fields by the model's per-1k USD rates.
func CalculateCost(model types.ModelDescriptor, usage types.Usage) types.Cost {
	in := float64(usage.InputTokens) / 1000.0 * model.InputCostPer1K
	out := float64(usage.OutputTokens) / 1000.0 * model.OutputCostPer1K
	return types.Cost{
		InputCost:  in,
		OutputCost: out,
		TotalCost:  in + out,
	}
}

// EstimatedCostFor computes the pre-call cost estimate used by budget
// filtering (§4.8): the estimated input tokens charged at the model's input
// rate, plus maxOutputTokens charged at the output rate. When maxOutputTokens
// is 0, the model's MaxOutputTokens is charged instead as a worst-case ceiling.
func EstimatedCostFor(model types.ModelDescriptor, messages []types.Message, maxOutputTokens int) float64 {
	inTokens := EstimateTokens(messages)
	outTokens := maxOutputTokens
	if outTokens == 0 {
		outTokens = model.MaxOutputTokens
	}
	return float64(inTokens)/1000.0*model.InputCostPer1K + float64(outTokens)/1000.0*model.OutputCostPer1K
}

package routing

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tributary-ai/llm-router/internal/accounting"
	"github.com/tributary-ai/llm-router/internal/catalog"
	"github.com/tributary-ai/llm-router/internal/health"
	"github.com/tributary-ai/llm-router/internal/types"
)

var codeFence = regexp.MustCompile("```")

var analysisPhrases = []string{"analyze", "compare", "explain in detail", "comprehensive"}
var codeTokens = []string{"function", "class ", "import "}

// ClassifyComplexity infers a task complexity tier from request metadata or,
// failing that, from a length/keyword heuristic over the message text.
func ClassifyComplexity(req *types.Request) types.ComplexityTier {
	if req.Metadata.TaskComplexity != "" {
		return req.Metadata.TaskComplexity
	}

	var text strings.Builder
	for _, m := range req.Messages {
		if m.HasParts() {
			for _, p := range m.Parts {
				if p.Kind == types.PartText {
					text.WriteString(p.Text)
					text.WriteByte('\n')
				}
			}
			continue
		}
		text.WriteString(m.Text)
		text.WriteByte('\n')
	}
	content := text.String()
	lower := strings.ToLower(content)

	if len(content) > 10000 || codeFence.MatchString(content) || containsAny(lower, codeTokens) || containsAny(lower, analysisPhrases) {
		return types.ComplexityComplex
	}
	if len(content) > 2000 {
		return types.ComplexityModerate
	}
	return types.ComplexitySimple
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// selectionContext bundles the dependencies strategy functions need to order
// a set of healthy candidates.
type selectionContext struct {
	configs map[string]types.ProviderConfig
	cat     *catalog.Catalog
	health  *health.Tracker
}

func (c *selectionContext) estimatedCost(provider string, req *types.Request) float64 {
	model, ok := c.cat.DefaultOf(provider)
	if !ok {
		return 0
	}
	tokens := accounting.EstimateTokens(req.Messages)
	return float64(tokens) / 1000.0 * (model.InputCostPer1K + model.OutputCostPer1K)
}

func byPriorityAsc(c *selectionContext, providers []string) []string {
	out := append([]string(nil), providers...)
	sort.SliceStable(out, func(i, j int) bool {
		return c.configs[out[i]].Priority < c.configs[out[j]].Priority
	})
	return out
}

func byCostAsc(c *selectionContext, providers []string, req *types.Request) []string {
	out := append([]string(nil), providers...)
	sort.SliceStable(out, func(i, j int) bool {
		return c.estimatedCost(out[i], req) < c.estimatedCost(out[j], req)
	})
	return out
}

func byLatencyAsc(c *selectionContext, providers []string) []string {
	out := append([]string(nil), providers...)
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := c.health.LatencyMs(out[i]), c.health.LatencyMs(out[j])
		if li < 0 {
			li = int64(^uint64(0) >> 1)
		}
		if lj < 0 {
			lj = int64(^uint64(0) >> 1)
		}
		return li < lj
	})
	return out
}

// selectByStrategy computes the strategy head (before the fallback chain is
// appended) over the already-healthy candidate set.
func selectByStrategy(strategy types.RoutingStrategyType, c *selectionContext, healthy []string, req *types.Request, roundRobinIndex *int) []string {
	switch strategy {
	case types.StrategyPriority:
		return byPriorityAsc(c, healthy)
	case types.StrategyCost:
		return byCostAsc(c, healthy, req)
	case types.StrategyLatency:
		return byLatencyAsc(c, healthy)
	case types.StrategyComplexity:
		return byComplexity(c, healthy, req)
	case types.StrategyRoundRobin:
		return byRoundRobin(healthy, roundRobinIndex)
	case types.StrategyAdaptive:
		return byAdaptive(c, healthy, req)
	default:
		return byPriorityAsc(c, healthy)
	}
}

// byComplexity maps the inferred tier to a recommended ordering per the
// fixed table in §4.6: simple/moderate favor cheap and fast providers;
// complex/expert favor the top-quality (lowest configured priority) providers.
func byComplexity(c *selectionContext, healthy []string, req *types.Request) []string {
	tier := ClassifyComplexity(req)
	switch tier {
	case types.ComplexitySimple:
		return byCostAsc(c, healthy, req)
	case types.ComplexityModerate:
		return byLatencyAsc(c, healthy)
	default: // complex, expert
		return byPriorityAsc(c, healthy)
	}
}

func byRoundRobin(healthy []string, roundRobinIndex *int) []string {
	if len(healthy) == 0 {
		return nil
	}
	idx := *roundRobinIndex % len(healthy)
	*roundRobinIndex++
	out := make([]string, 0, len(healthy))
	out = append(out, healthy[idx])
	for i, p := range healthy {
		if i != idx {
			out = append(out, p)
		}
	}
	return out
}

// byAdaptive scores each candidate on error rate, last observed latency, and
// per-1k price, highest first. When the request carries LatencyTargetMs, a
// candidate whose last observed latency exceeds it gets no latency credit; it
// is never removed from the ordering.
func byAdaptive(c *selectionContext, healthy []string, req *types.Request) []string {
	type scored struct {
		name  string
		score float64
	}
	scores := make([]scored, 0, len(healthy))
	for _, p := range healthy {
		errorRate := c.health.ErrorRate(p)
		latency := c.health.LatencyMs(p)
		if latency < 0 {
			latency = 0
		}
		var pricePer1k float64
		if model, ok := c.cat.DefaultOf(p); ok {
			pricePer1k = model.InputCostPer1K + model.OutputCostPer1K
		}
		latencyScore := max0(50 - float64(latency)/100)
		if target := req.Metadata.LatencyTargetMs; target != nil && latency > int64(*target) {
			latencyScore = 0
		}
		score := 50*(1-errorRate) + latencyScore + max0(50-pricePer1k*100)
		scores = append(scores, scored{p, score})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return c.configs[scores[i].name].Priority < c.configs[scores[j].name].Priority
	})
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.name
	}
	return out
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

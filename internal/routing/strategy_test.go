package routing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tributary-ai/llm-router/internal/catalog"
	"github.com/tributary-ai/llm-router/internal/health"
	"github.com/tributary-ai/llm-router/internal/types"
)

func req(text string) *types.Request {
	return &types.Request{Messages: []types.Message{{Role: types.RoleUser, Text: text}}}
}

func TestClassifyComplexityRespectsExplicitMetadata(t *testing.T) {
	r := req("tiny")
	r.Metadata.TaskComplexity = types.ComplexityExpert
	assert.Equal(t, types.ComplexityExpert, ClassifyComplexity(r))
}

func TestClassifyComplexityByLength(t *testing.T) {
	assert.Equal(t, types.ComplexitySimple, ClassifyComplexity(req("short message")))
	assert.Equal(t, types.ComplexityModerate, ClassifyComplexity(req(strings.Repeat("a", 2500))))
	assert.Equal(t, types.ComplexityComplex, ClassifyComplexity(req(strings.Repeat("a", 10500))))
}

func TestClassifyComplexityByCodeFence(t *testing.T) {
	r := req("please review this:\n```go\nfunc main() {}\n```")
	assert.Equal(t, types.ComplexityComplex, ClassifyComplexity(r))
}

func TestClassifyComplexityByAnalysisPhrase(t *testing.T) {
	r := req("please analyze this dataset for trends")
	assert.Equal(t, types.ComplexityComplex, ClassifyComplexity(r))
}

func newSelectionContext() (*selectionContext, *health.Tracker) {
	cat := catalog.New(map[string][]types.ModelDescriptor{
		"a": {{ID: "a-model", InputCostPer1K: 0.001, OutputCostPer1K: 0.002, IsDefault: true}},
		"b": {{ID: "b-model", InputCostPer1K: 0.01, OutputCostPer1K: 0.02, IsDefault: true}},
	})
	configs := map[string]types.ProviderConfig{
		"a": {Name: "a", Priority: 2},
		"b": {Name: "b", Priority: 1},
	}
	ht := health.New([]string{"a", "b"})
	return &selectionContext{configs: configs, cat: cat, health: ht}, ht
}

func TestByPriorityAsc(t *testing.T) {
	sc, _ := newSelectionContext()
	out := byPriorityAsc(sc, []string{"a", "b"})
	assert.Equal(t, []string{"b", "a"}, out) // b has lower priority number
}

func TestByCostAsc(t *testing.T) {
	sc, _ := newSelectionContext()
	out := byCostAsc(sc, []string{"a", "b"}, req("hello"))
	assert.Equal(t, []string{"a", "b"}, out) // a is cheaper
}

func TestByLatencyAscTreatsUnknownAsWorst(t *testing.T) {
	sc, ht := newSelectionContext()
	ht.RecordSuccess("a", 500)
	// "b" never recorded -> latency -1 -> treated as +inf
	out := byLatencyAsc(sc, []string{"b", "a"})
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestByRoundRobinRotatesAndWrapsHeadOnly(t *testing.T) {
	idx := 0
	first := byRoundRobin([]string{"a", "b", "c"}, &idx)
	assert.Equal(t, []string{"a", "b", "c"}, first)
	assert.Equal(t, 1, idx)

	second := byRoundRobin([]string{"a", "b", "c"}, &idx)
	assert.Equal(t, []string{"b", "a", "c"}, second)
	assert.Equal(t, 2, idx)
}

func TestByAdaptivePrefersHealthyFastCheapProvider(t *testing.T) {
	sc, ht := newSelectionContext()
	ht.RecordSuccess("a", 50)
	ht.RecordFailure("b")
	out := byAdaptive(sc, []string{"b", "a"}, req("hi"))
	assert.Equal(t, "a", out[0])
}

func TestByAdaptiveCostTermUsesPer1KPriceNotTokenScaledEstimate(t *testing.T) {
	sc, ht := newSelectionContext()
	// Equal health and latency so only the cost term can break the tie.
	ht.RecordSuccess("a", 100)
	ht.RecordSuccess("b", 100)
	out := byAdaptive(sc, []string{"b", "a"}, req("hi"))
	assert.Equal(t, []string{"a", "b"}, out) // a's per-1k price (0.003) beats b's (0.03)
}

func TestByComplexityMapsTierToStrategy(t *testing.T) {
	sc, _ := newSelectionContext()
	simple := byComplexity(sc, []string{"a", "b"}, req("short"))
	assert.Equal(t, []string{"a", "b"}, simple) // cost-asc: a cheaper

	complex := byComplexity(sc, []string{"a", "b"}, req(strings.Repeat("x", 10500)))
	assert.Equal(t, []string{"b", "a"}, complex) // priority-asc: b has lower priority number
}

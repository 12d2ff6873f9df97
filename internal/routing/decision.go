package routing

import (
	"time"

	"github.com/tributary-ai/llm-router/internal/types"
)

// Decision records why an ordering was produced, for logging/diagnostics.
// It is not part of the public response but is attached to log fields.
type Decision struct {
	Strategy      types.RoutingStrategyType
	Ordered       []string
	Reasoning     []string
	ConsideredAt  time.Time
}

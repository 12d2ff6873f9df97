package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsHealthy(t *testing.T) {
	tr := New([]string{"openai", "anthropic"})
	assert.True(t, tr.IsHealthy("openai"))
	assert.True(t, tr.IsHealthy("unregistered-provider")) // optimistic default
}

func TestRecordFailureFlipsUnhealthyAtThreshold(t *testing.T) {
	tr := New([]string{"openai"})
	for i := 0; i < consecutiveFailureThreshold-1; i++ {
		tr.RecordFailure("openai")
		assert.True(t, tr.IsHealthy("openai"), "should stay healthy before threshold")
	}
	tr.RecordFailure("openai")
	assert.False(t, tr.IsHealthy("openai"))
}

func TestRecordSuccessResetsConsecutiveFailures(t *testing.T) {
	tr := New([]string{"openai"})
	for i := 0; i < consecutiveFailureThreshold; i++ {
		tr.RecordFailure("openai")
	}
	assert.False(t, tr.IsHealthy("openai"))

	tr.RecordSuccess("openai", 120)
	assert.True(t, tr.IsHealthy("openai"))
}

func TestErrorRateEWMA(t *testing.T) {
	tr := New([]string{"openai"})
	assert.Equal(t, 0.0, tr.ErrorRate("openai"))

	tr.RecordFailure("openai")
	assert.InDelta(t, 0.1, tr.ErrorRate("openai"), 1e-9)

	tr.RecordSuccess("openai", 50)
	assert.InDelta(t, 0.09, tr.ErrorRate("openai"), 1e-9)
}

func TestLatencyMsUnsetIsNegativeOne(t *testing.T) {
	tr := New([]string{"openai"})
	assert.Equal(t, int64(-1), tr.LatencyMs("openai"))

	tr.RecordSuccess("openai", 250)
	assert.Equal(t, int64(250), tr.LatencyMs("openai"))
}

func TestSnapshot(t *testing.T) {
	tr := New([]string{"openai"})
	tr.RecordFailure("openai")
	snap := tr.Snapshot("openai")
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.True(t, snap.Healthy)
}

func TestSetHealthy(t *testing.T) {
	tr := New([]string{"openai"})
	tr.SetHealthy("openai", false)
	assert.False(t, tr.IsHealthy("openai"))
	tr.SetHealthy("openai", true)
	assert.True(t, tr.IsHealthy("openai"))
}

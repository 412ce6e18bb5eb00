package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatorCounts(t *testing.T) {
	a := New(true)
	a.RecordAnalysis([]string{"USH0001", "USH0043"}, false)
	a.RecordAnalysis(nil, true)
	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, uint64(1), a.analyses)
	assert.Equal(t, uint64(1), a.cancelled)
	assert.Equal(t, uint64(2), a.diagnostics)
	assert.Equal(t, uint64(1), a.perRule["USH0001"])
}

func TestEnvKillSwitch(t *testing.T) {
	t.Setenv(EnvDisable, "0")
	a := New(true)
	a.RecordAnalysis([]string{"USH0001"}, false)
	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, uint64(0), a.analyses)
}

func TestSessionIsStable(t *testing.T) {
	a := New(false)
	assert.NotEmpty(t, a.Session())
	assert.Equal(t, a.Session(), a.Session())
}

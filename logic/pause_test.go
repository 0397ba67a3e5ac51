package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPauseGate(t *testing.T) {
	sw := NewMockSwitchInterface()
	sw.Initialize()
	gate := NewPauseGate(sw)

	assert.False(t, gate.IsPaused())

	sw.Set(true)
	assert.True(t, gate.IsPaused(), "hardware line should pause")

	sw.Set(false)
	assert.False(t, gate.IsPaused())

	gate.SetOverride(true)
	assert.True(t, gate.IsPaused(), "software override should pause")
	assert.True(t, gate.Overridden())

	// both asserted: releasing only one keeps the rig paused
	sw.Set(true)
	gate.SetOverride(false)
	assert.True(t, gate.IsPaused())
	assert.False(t, gate.Overridden())

	sw.Set(false)
	assert.False(t, gate.IsPaused())
}

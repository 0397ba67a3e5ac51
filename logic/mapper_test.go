package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotPosition_Endpoints(t *testing.T) {
	assert.Equal(t, uint16(500), SlotPosition(0, 30, 500, 1167))
	assert.Equal(t, uint16(1167), SlotPosition(29, 30, 500, 1167))
	assert.Equal(t, uint16(845), SlotPosition(15, 30, 500, 1167))
}

func TestSlotPosition_Clamping(t *testing.T) {
	assert.Equal(t, uint16(500), SlotPosition(-5, 30, 500, 1167))
	assert.Equal(t, uint16(1167), SlotPosition(30, 30, 500, 1167))
	assert.Equal(t, uint16(1167), SlotPosition(1000, 30, 500, 1167))
}

func TestSlotPosition_Monotonic(t *testing.T) {
	prev := uint16(0)
	for slot := 0; slot < 30; slot++ {
		us := SlotPosition(slot, 30, 500, 1167)
		assert.GreaterOrEqual(t, us, prev, "slot %d mapped below slot %d", slot, slot-1)
		assert.GreaterOrEqual(t, us, uint16(500))
		assert.LessOrEqual(t, us, uint16(1167))
		prev = us
	}
}

func TestSlotPosition_DegenerateCounts(t *testing.T) {
	assert.Equal(t, uint16(500), SlotPosition(0, 1, 500, 1167))
	assert.Equal(t, uint16(500), SlotPosition(5, 0, 500, 1167))
}

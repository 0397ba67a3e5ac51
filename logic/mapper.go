package logic

import "math"

// SlotPosition maps a logical destination slot onto a pulse width within
// [minUs, maxUs]. The slot is clamped into [0, nSlots) before mapping, so
// invalid input is corrected rather than rejected. The mapping is linear and
// monotonic non-decreasing: slot 0 lands on minUs and slot nSlots-1 on maxUs.
func SlotPosition(slot, nSlots int, minUs, maxUs uint16) uint16 {
	if nSlots < 2 {
		return minUs
	}
	if slot < 0 {
		slot = 0
	}
	if slot >= nSlots {
		slot = nSlots - 1
	}
	span := float64(maxUs) - float64(minUs)
	us := float64(minUs) + float64(slot)*span/float64(nSlots-1)
	return uint16(math.Round(us))
}

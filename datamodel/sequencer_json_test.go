package datamodel

import (
	"encoding/json"
	"testing"

	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/stretchr/testify/assert"
)

func TestSeqStatusToJSON(t *testing.T) {
	status := &logic.SeqStatus{
		State:    logic.StateCamera,
		Paused:   true,
		LastSlot: 12,
		HopperUs: 1493,
		ChutesUs: 845,
	}
	j := SeqStatusToJSON(status)
	assert.Equal(t, SeqStatusJSON{
		State: "camera", Paused: true, LastSlot: 12, HopperUs: 1493, ChutesUs: 845,
	}, j)

	bytes, err := json.Marshal(&j)
	assert.NoError(t, err)
	assert.JSONEq(t,
		`{"state":"camera","paused":true,"lastSlot":12,"hopperUs":1493,"chutesUs":845}`,
		string(bytes))
}

func TestParseSeqState(t *testing.T) {
	for _, st := range []logic.SeqState{
		logic.StateIdle, logic.StatePickup, logic.StateCamera, logic.StateDrop,
	} {
		parsed, err := ParseSeqState(st.String())
		assert.NoError(t, err)
		assert.Equal(t, st, parsed)
	}

	_, err := ParseSeqState("spinning")
	assert.Error(t, err, "unknown state names should not parse")
}

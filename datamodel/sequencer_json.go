// Package datamodel holds the JSON representations of runtime state published
// over MQTT.
package datamodel

import (
	"fmt"

	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/util"
)

// SeqStatusJSON is the JSON representation of a logic.SeqStatus
type SeqStatusJSON struct {
	State    string `json:"state"`
	Paused   bool   `json:"paused"`
	LastSlot int    `json:"lastSlot"`
	HopperUs uint16 `json:"hopperUs"`
	ChutesUs uint16 `json:"chutesUs"`
}

// SeqStatusToJSON snapshots a SeqStatus. It takes the status lock itself;
// callers must not hold it.
func SeqStatusToJSON(s *logic.SeqStatus) SeqStatusJSON {
	s.Lock()
	defer s.Unlock()
	return SeqStatusJSON{
		State:    s.State.String(),
		Paused:   s.Paused,
		LastSlot: s.LastSlot,
		HopperUs: s.HopperUs,
		ChutesUs: s.ChutesUs,
	}
}

// ParseSeqState maps a state name back to a logic.SeqState
func ParseSeqState(name string) (logic.SeqState, error) {
	states := []logic.SeqState{
		logic.StateIdle, logic.StatePickup, logic.StateCamera, logic.StateDrop,
	}
	for _, st := range states {
		if st.String() == name {
			return st, nil
		}
	}
	return logic.StateIdle, util.NewParseError("sequence state",
		fmt.Errorf("unknown state %q", name))
}

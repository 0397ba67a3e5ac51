package logic

import (
	"github.com/ggriffiniii/bead-sorter/util"
)

// PauseGate yields the run/halt condition for the sequencer. The hardware
// line is read through a SwitchInterface (active-low at the electrical level,
// which the interface implementation hides); a software override lets remote
// commands and tests force a pause without touching the line.
type PauseGate struct {
	iface    SwitchInterface
	override util.AtomicBool
}

func NewPauseGate(iface SwitchInterface) *PauseGate {
	return &PauseGate{iface, util.NewAtomicBool(false)}
}

// IsPaused reads the instantaneous pause condition. No side effects.
func (g *PauseGate) IsPaused() bool {
	return g.override.Load() || g.iface.Read()
}

// SetOverride forces (or releases) a software pause independent of the line
func (g *PauseGate) SetOverride(paused bool) {
	g.override.Store(paused)
}

// Overridden reports whether the software pause is asserted
func (g *PauseGate) Overridden() bool {
	return g.override.Load()
}

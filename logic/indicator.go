package logic

import (
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/sirupsen/logrus"
)

// ColorScheme maps sequencer status onto indicator colors. Paused wins over
// every sequence state.
type ColorScheme struct {
	Paused Color `json:"paused"`
	Idle   Color `json:"idle"`
	Pickup Color `json:"pickup"`
	Camera Color `json:"camera"`
	Drop   Color `json:"drop"`
}

// DefaultColorScheme returns the scheme used when the config file does not
// provide one
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		Paused: Color{64, 0, 0},
		Idle:   Color{8, 8, 8},
		Pickup: Color{0, 48, 0},
		Camera: Color{0, 0, 48},
		Drop:   Color{48, 32, 0},
	}
}

// StatusIndicator renders (sequence state, pause state) as a color. Writes
// are idempotent; the indicator only touches hardware when the color changes.
type StatusIndicator struct {
	iface  IndicatorInterface
	scheme ColorScheme
	last   *Color
	log    *logrus.Entry
}

func NewStatusIndicator(iface IndicatorInterface, scheme ColorScheme) *StatusIndicator {
	return &StatusIndicator{
		iface, scheme, nil,
		util.Logger.WithField("module", "StatusIndicator"),
	}
}

// ColorFor returns the color a status renders as. Paused wins over the state.
func (s *ColorScheme) ColorFor(state SeqState, paused bool) Color {
	if paused {
		return s.Paused
	}
	switch state {
	case StatePickup:
		return s.Pickup
	case StateCamera:
		return s.Camera
	case StateDrop:
		return s.Drop
	default:
		return s.Idle
	}
}

// Refresh updates the output for the given status
func (i *StatusIndicator) Refresh(state SeqState, paused bool) {
	c := i.scheme.ColorFor(state, paused)
	if i.last != nil && *i.last == c {
		return
	}
	i.log.WithFields(logrus.Fields{
		"state": state, "paused": paused, "color": c,
	}).Debug("updating status color")
	i.iface.SetColor(c)
	i.last = &c
}

package logic

import (
	"fmt"
	"math"
	"time"

	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/sirupsen/logrus"
)

// ActuatorConfig describes one physical actuation channel and its mechanically
// safe pulse width range
type ActuatorConfig struct {
	// Name is the human readable name of the actuator
	Name string `json:"name"`
	// Channel is the channel used on the ActuatorInterface
	Channel ChannelID `json:"channel"`
	// MinUs and MaxUs bound the safe pulse width range. Commands outside the
	// range are clamped, never rejected
	MinUs uint16 `json:"minUs"`
	MaxUs uint16 `json:"maxUs"`
	// SpeedUs is the commanded average motion speed in us per second, used to
	// derive motion durations
	SpeedUs uint32 `json:"speedUs"`
}

// motion is an in-flight eased interpolation. elapsed only advances when Tick
// is called, so a paused motion holds its position and resumes continuously.
type motion struct {
	start    uint16
	target   uint16
	duration time.Duration
	elapsed  time.Duration
}

// Actuator owns one pulse width channel exclusively and guarantees it is never
// commanded outside its safe range
type Actuator struct {
	iface     ActuatorInterface
	cfg       ActuatorConfig
	currentUs uint16
	motion    *motion
	log       *logrus.Entry
}

// NewActuator creates an Actuator over the given channel. The initial position
// is assumed to be the low end of the safe range; nothing is written until the
// first command.
func NewActuator(cfg ActuatorConfig, iface ActuatorInterface) *Actuator {
	return &Actuator{
		iface, cfg, cfg.MinUs, nil,
		util.Logger.WithField("actuator", cfg.Name),
	}
}

func (a *Actuator) String() string {
	return fmt.Sprintf("{'%s' at %dus}", a.cfg.Name, a.currentUs)
}

func (a *Actuator) Name() string {
	return a.cfg.Name
}

func (a *Actuator) MinUs() uint16 {
	return a.cfg.MinUs
}

func (a *Actuator) MaxUs() uint16 {
	return a.cfg.MaxUs
}

// CurrentUs returns the last commanded (clamped) pulse width
func (a *Actuator) CurrentUs() uint16 {
	return a.currentUs
}

// Moving reports whether a motion is in flight
func (a *Actuator) Moving() bool {
	return a.motion != nil
}

func (a *Actuator) clamp(us uint16) uint16 {
	if us < a.cfg.MinUs {
		return a.cfg.MinUs
	}
	if us > a.cfg.MaxUs {
		return a.cfg.MaxUs
	}
	return us
}

// SetPulseWidth clamps us into the safe range and writes it. Out of range
// input is a normal, silently corrected case.
func (a *Actuator) SetPulseWidth(us uint16) {
	us = a.clamp(us)
	a.currentUs = us
	a.iface.SetPulseWidth(a.cfg.Channel, us)
}

// StartMove begins an eased motion from the current position to the clamped
// target. A duration <= 0 commands the target immediately. Any previous motion
// is replaced.
func (a *Actuator) StartMove(targetUs uint16, duration time.Duration) {
	targetUs = a.clamp(targetUs)
	if duration <= 0 || targetUs == a.currentUs {
		a.SetPulseWidth(targetUs)
		a.motion = nil
		return
	}
	a.log.WithFields(logrus.Fields{
		"from": a.currentUs, "to": targetUs, "duration": duration,
	}).Debug("starting move")
	a.motion = &motion{a.currentUs, targetUs, duration, 0}
}

// MoveDuration derives the duration of a move to targetUs from the configured
// speed
func (a *Actuator) MoveDuration(targetUs uint16) time.Duration {
	targetUs = a.clamp(targetUs)
	dist := int64(targetUs) - int64(a.currentUs)
	if dist < 0 {
		dist = -dist
	}
	if a.cfg.SpeedUs == 0 {
		return 0
	}
	d := time.Duration(dist) * time.Second / time.Duration(a.cfg.SpeedUs)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}

// Tick advances the active motion by one tick interval and issues at most one
// hardware write. It returns true when no motion remains. Skipping ticks
// (pause) freezes the interpolation clock without discarding the target.
func (a *Actuator) Tick(interval time.Duration) (done bool) {
	m := a.motion
	if m == nil {
		return true
	}
	m.elapsed += interval
	if m.elapsed >= m.duration {
		a.SetPulseWidth(m.target)
		a.motion = nil
		return true
	}
	t := float64(m.elapsed) / float64(m.duration)
	f := easeInOutCubic(t)
	us := float64(m.start) + (float64(m.target)-float64(m.start))*f
	a.SetPulseWidth(uint16(math.Round(us)))
	return false
}

// easeInOutCubic avoids abrupt velocity changes at motion start and end
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

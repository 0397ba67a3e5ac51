package logic

// ChannelID identifies one pulse width channel on an ActuatorInterface
type ChannelID = uint8

// Color is an RGB triple written to an IndicatorInterface
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ActuatorInterface is an interface implemented by structs which are able to
// interface with hardware for driving pulse width channels. It is not
// necessarily backed by hardware (as in MockActuatorInterface). Implementations
// are expected to be electrically safe on their own; Actuator applies its
// logical safe-range clamp independently.
type ActuatorInterface interface {
	Name() string

	Initialize() error
	Deinitialize() error

	Count() ChannelID
	SetPulseWidth(ch ChannelID, us uint16)
	GetPulseWidth(ch ChannelID) (us uint16)
}

// SwitchInterface reads the pause line. Read returns true when the line is
// asserted, which for this rig means electrically low. Debouncing, if any, is
// the implementation's concern; Read itself has no side effects.
type SwitchInterface interface {
	Name() string

	Initialize() error
	Deinitialize() error

	Read() (active bool)
}

// IndicatorInterface writes a color to the status output
type IndicatorInterface interface {
	Name() string

	Initialize() error
	Deinitialize() error

	SetColor(c Color)
}

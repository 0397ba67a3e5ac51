package logic

import (
	"fmt"
	"sync"

	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/sirupsen/logrus"
	rpio "github.com/stianeikeland/go-rpio/v4"
)

// servo signal: 20ms period with 1us resolution
const (
	pwmCycleUs   = 20000
	pwmClockFreq = 1000000
)

// rpio.Open and rpio.Close map and unmap the gpio/pwm/spi register pages
// globally, so the interface implementations share one refcounted open: the
// mapping goes away only after the last Deinitialize has written its
// registers.
var (
	rpioMu      sync.Mutex
	rpioRefs    int
	rpioOpenFn  = rpio.Open
	rpioCloseFn = rpio.Close
)

func rpioOpen() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	if rpioRefs == 0 {
		if err := rpioOpenFn(); err != nil {
			return err
		}
	}
	rpioRefs++
	return nil
}

func rpioClose() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	if rpioRefs == 0 {
		return nil
	}
	rpioRefs--
	if rpioRefs > 0 {
		return nil
	}
	return rpioCloseFn()
}

type RpioPins []rpio.Pin

// RpioActuatorInterface drives pulse width channels on raspberry pi hardware
// PWM pins. Each channel index maps to one pin; the pins must be PWM-capable
// (12, 13, 18 or 19).
type RpioActuatorInterface struct {
	pins RpioPins
	last []uint16
	log  *logrus.Entry
}

var _ ActuatorInterface = (*RpioActuatorInterface)(nil)

func NewRpioActuatorInterface(pins RpioPins) *RpioActuatorInterface {
	return &RpioActuatorInterface{
		pins,
		make([]uint16, len(pins)),
		util.Logger.WithField("actuator_interface", "rpio"),
	}
}

func (i *RpioActuatorInterface) Name() string {
	return "rpio"
}

func (i *RpioActuatorInterface) Initialize() (err error) {
	i.log.Info("opening rpio")
	err = rpioOpen()
	if err != nil {
		return fmt.Errorf("error opening rpio: %v", err)
	}
	for _, pin := range i.pins {
		pin.Mode(rpio.Pwm)
		pin.Freq(pwmClockFreq)
		pin.DutyCycle(0, pwmCycleUs)
	}
	return
}

func (i *RpioActuatorInterface) Deinitialize() (err error) {
	for _, pin := range i.pins {
		pin.DutyCycle(0, pwmCycleUs)
	}
	return rpioClose()
}

func (i *RpioActuatorInterface) Count() ChannelID {
	return (ChannelID)(len(i.pins))
}

func (i *RpioActuatorInterface) SetPulseWidth(ch ChannelID, us uint16) {
	i.log.WithFields(logrus.Fields{
		"ch": ch, "us": us,
	}).Debug("setting pulse width")
	i.pins[ch].DutyCycle(uint32(us), pwmCycleUs)
	i.last[ch] = us
}

func (i *RpioActuatorInterface) GetPulseWidth(ch ChannelID) uint16 {
	return i.last[ch]
}

// RpioSwitchInterface reads the pause line from a gpio pin with the internal
// pull-up enabled. The line is active-low: a closed switch pulls it to ground.
type RpioSwitchInterface struct {
	pin rpio.Pin
	log *logrus.Entry
}

var _ SwitchInterface = (*RpioSwitchInterface)(nil)

func NewRpioSwitchInterface(pin rpio.Pin) *RpioSwitchInterface {
	return &RpioSwitchInterface{
		pin,
		util.Logger.WithField("switch_interface", "rpio"),
	}
}

func (i *RpioSwitchInterface) Name() string {
	return "rpio"
}

func (i *RpioSwitchInterface) Initialize() (err error) {
	i.log.Info("opening rpio")
	err = rpioOpen()
	if err != nil {
		return fmt.Errorf("error opening rpio: %v", err)
	}
	i.pin.Input()
	i.pin.PullUp()
	return
}

func (i *RpioSwitchInterface) Deinitialize() (err error) {
	i.pin.PullOff()
	return rpioClose()
}

func (i *RpioSwitchInterface) Read() bool {
	return i.pin.Read() == rpio.Low
}

// ws2812 over SPI: each data bit becomes 3 SPI bits at 2.4MHz so a bit time is
// 1.25us. 0 -> 100, 1 -> 110.
const ws2812SpiSpeed = 2400000

// RpioIndicatorInterface drives a single ws2812 status led from the SPI0 MOSI
// pin.
type RpioIndicatorInterface struct {
	log *logrus.Entry
}

var _ IndicatorInterface = (*RpioIndicatorInterface)(nil)

func NewRpioIndicatorInterface() *RpioIndicatorInterface {
	return &RpioIndicatorInterface{
		util.Logger.WithField("indicator_interface", "rpio"),
	}
}

func (i *RpioIndicatorInterface) Name() string {
	return "rpio"
}

func (i *RpioIndicatorInterface) Initialize() (err error) {
	i.log.Info("opening rpio spi")
	err = rpioOpen()
	if err != nil {
		return fmt.Errorf("error opening rpio: %v", err)
	}
	err = rpio.SpiBegin(rpio.Spi0)
	if err != nil {
		return fmt.Errorf("error opening spi: %v", err)
	}
	rpio.SpiSpeed(ws2812SpiSpeed)
	return
}

func (i *RpioIndicatorInterface) Deinitialize() (err error) {
	rpio.SpiEnd(rpio.Spi0)
	return rpioClose()
}

func (i *RpioIndicatorInterface) SetColor(c Color) {
	i.log.WithField("color", c).Debug("setting indicator color")
	rpio.SpiTransmit(encodeWs2812(c)...)
}

// encodeWs2812 expands a color to GRB bit order with 3 SPI bits per data bit,
// followed by enough zero bytes to hold the latch low past the reset time.
func encodeWs2812(c Color) []byte {
	grb := []uint8{c.G, c.R, c.B}
	// 24 data bits * 3 = 72 SPI bits = 9 bytes, plus latch
	out := make([]byte, 0, 9+15)
	var acc uint32
	var nbits uint
	for _, b := range grb {
		for bit := 7; bit >= 0; bit-- {
			acc <<= 3
			if b&(1<<uint(bit)) != 0 {
				acc |= 0b110
			} else {
				acc |= 0b100
			}
			nbits += 3
			for nbits >= 8 {
				nbits -= 8
				out = append(out, byte(acc>>nbits))
				acc &= (1 << nbits) - 1
			}
		}
	}
	for i := 0; i < 15; i++ {
		out = append(out, 0)
	}
	return out
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/ggriffiniii/bead-sorter/classify"
	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/util"
	rpio "github.com/stianeikeland/go-rpio/v4"
)

// HardwareJSON assigns the raspberry pi pins. The PWM pins must be
// PWM-capable (12, 13, 18 or 19); the ws281x indicator is fixed on SPI0 MOSI.
type HardwareJSON struct {
	HopperPin uint8 `json:"hopperPin"`
	ChutesPin uint8 `json:"chutesPin"`
	PausePin  uint8 `json:"pausePin"`
}

// CameraJSON describes the frame source the classifier reads from
type CameraJSON struct {
	// Path is a file, FIFO or device node producing raw RGB565 frames
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ConfigData is the app state after being read from config
type ConfigData struct {
	Hardware HardwareJSON
	Camera   CameraJSON

	ActuatorInterface  logic.ActuatorInterface
	SwitchInterface    logic.SwitchInterface
	IndicatorInterface logic.IndicatorInterface

	Hopper    logic.ActuatorConfig
	Chutes    logic.ActuatorConfig
	Sequencer logic.SequencerConfig
	Colors    logic.ColorScheme
	Sorter    classify.SorterConfig
	// Remote, when present, replaces the local sorter with the remote
	// inspection service
	Remote *classify.RemoteConfig
}

// ToJSON converts a ConfigData to a ConfigDataJSON
func (c *ConfigData) ToJSON() (j ConfigDataJSON) {
	j = ConfigDataJSON{}
	j.Hardware = c.Hardware
	j.Camera = c.Camera
	j.Hopper = c.Hopper
	j.Chutes = c.Chutes
	j.Sequencer = &c.Sequencer
	j.Colors = &c.Colors
	j.Sorter = &c.Sorter
	j.Remote = c.Remote
	return
}

// ConfigDataJSON is the JSON form of config data. Sections left out of the
// file fall back to the stock rig settings.
type ConfigDataJSON struct {
	Hardware  HardwareJSON           `json:"hardware"`
	Camera    CameraJSON             `json:"camera"`
	Hopper    logic.ActuatorConfig   `json:"hopper"`
	Chutes    logic.ActuatorConfig   `json:"chutes"`
	Sequencer *logic.SequencerConfig `json:"sequencer,omitempty"`
	Colors    *logic.ColorScheme     `json:"colors,omitempty"`
	Sorter    *classify.SorterConfig `json:"sorter,omitempty"`
	Remote    *classify.RemoteConfig `json:"remote,omitempty"`
}

// DefaultHopper is the stock hopper actuator
func DefaultHopper() logic.ActuatorConfig {
	return logic.ActuatorConfig{
		Name: "hopper", Channel: 0, MinUs: 567, MaxUs: 2266, SpeedUs: 2000,
	}
}

// DefaultChutes is the stock chutes actuator
func DefaultChutes() logic.ActuatorConfig {
	return logic.ActuatorConfig{
		Name: "chutes", Channel: 1, MinUs: 500, MaxUs: 1167, SpeedUs: 2000,
	}
}

func (j *ConfigDataJSON) hardwareInterfaces() (logic.ActuatorInterface, logic.SwitchInterface, logic.IndicatorInterface) {
	rpi := os.Getenv("RPI") == "true"
	if rpi {
		pins := logic.RpioPins{
			rpio.Pin(j.Hardware.HopperPin),
			rpio.Pin(j.Hardware.ChutesPin),
		}
		return logic.NewRpioActuatorInterface(pins),
			logic.NewRpioSwitchInterface(rpio.Pin(j.Hardware.PausePin)),
			logic.NewRpioIndicatorInterface()
	}
	return logic.NewMockActuatorInterface(2),
		logic.NewMockSwitchInterface(),
		logic.NewMockIndicatorInterface()
}

// ToConfigData converts a ConfigDataJSON to a ConfigData, filling defaults
func (j *ConfigDataJSON) ToConfigData() (c ConfigData, err error) {
	c = ConfigData{}
	c.Hardware = j.Hardware
	c.Camera = j.Camera
	c.ActuatorInterface, c.SwitchInterface, c.IndicatorInterface = j.hardwareInterfaces()

	c.Hopper = j.Hopper
	if c.Hopper == (logic.ActuatorConfig{}) {
		c.Hopper = DefaultHopper()
	}
	c.Chutes = j.Chutes
	if c.Chutes == (logic.ActuatorConfig{}) {
		c.Chutes = DefaultChutes()
	}
	if c.Hopper.MinUs > c.Hopper.MaxUs || c.Chutes.MinUs > c.Chutes.MaxUs {
		err = util.NewInvalidDataError("actuator config",
			fmt.Errorf("minUs must not exceed maxUs"))
		return
	}

	if j.Sequencer != nil {
		c.Sequencer = *j.Sequencer
	} else {
		c.Sequencer = logic.DefaultSequencerConfig()
	}
	if c.Sequencer.SlotCount < 2 {
		err = util.NewInvalidDataError("sequencer config",
			fmt.Errorf("slotCount must be at least 2, got %d", c.Sequencer.SlotCount))
		return
	}
	if j.Colors != nil {
		c.Colors = *j.Colors
	} else {
		c.Colors = logic.DefaultColorScheme()
	}
	if j.Sorter != nil {
		c.Sorter = *j.Sorter
	} else {
		c.Sorter = classify.DefaultSorterConfig()
	}
	c.Remote = j.Remote
	return
}

func findConfigFile() (configFile string) {
	configFile = os.Getenv("CONFIG")
	if configFile == "" {
		dir, _ := os.Getwd()
		configFile = dir + "/config.json"
	}
	return
}

var log = util.Logger.WithField("module", "config")
var configFile = findConfigFile()
var configMutex = &sync.Mutex{}

// LoadConfig loads a ConfigData from the config file
func LoadConfig() (config ConfigData, err error) {
	configMutex.Lock()
	defer configMutex.Unlock()

	var j ConfigDataJSON

	log.Debugf("loading config from %v", configFile)
	file, err := os.ReadFile(configFile)
	if err != nil {
		err = fmt.Errorf("could not read config file: %v", err)
		return
	}
	err = json.Unmarshal(file, &j)
	if err != nil {
		err = fmt.Errorf("could not parse config file: %v", err)
		return
	}

	config, err = j.ToConfigData()
	return
}

// WriteConfig writes a ConfigData to the config file
func WriteConfig(configData *ConfigData) (err error) {
	configMutex.Lock()
	defer configMutex.Unlock()

	log.Debugf("writing config to %v", configFile)
	data := configData.ToJSON()

	bytes, err := json.MarshalIndent(&data, "", "  ")
	if err != nil {
		err = fmt.Errorf("could not marshal config: %v", err)
		return
	}

	err = os.WriteFile(configFile, bytes, 0644)
	if err != nil {
		err = fmt.Errorf("could not write config file: %v", err)
		return
	}
	return
}

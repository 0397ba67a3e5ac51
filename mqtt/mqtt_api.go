package mqtt

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ggriffiniii/bead-sorter/classify"
	"github.com/ggriffiniii/bead-sorter/config"
	"github.com/ggriffiniii/bead-sorter/datamodel"
	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/sirupsen/logrus"
)

const CONNECT_RETRY_TIMEOUT = 10 * time.Second
const MQTT_TIMEOUT = 10 * time.Second

type responseData map[string]interface{}
type requestHandler func(message mqtt.Message, rData responseData) (err error)

// MQTTApi encapsulates all functionality exposed over MQTT
type MQTTApi struct {
	config    *config.ConfigData
	sequencer *logic.Sequencer
	sorter    *classify.Sorter
	client    mqtt.Client
	prefix    string
	logger    *logrus.Entry
}

// NewMQTTApi creates a new MQTTApi that uses the specified data. sorter may be
// nil when classification is remote.
func NewMQTTApi(config *config.ConfigData, sequencer *logic.Sequencer, sorter *classify.Sorter) *MQTTApi {
	return &MQTTApi{
		config, sequencer, sorter,
		nil, "",
		util.Logger.WithField("module", "MQTTApi"),
	}
}

func (a *MQTTApi) createMQTTOpts() (opts *mqtt.ClientOptions) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}
	brokerURI, err := url.Parse(broker)
	if err != nil {
		a.logger.WithError(err).Error("error parsing MQTT_BROKER; using default")
		brokerURI = &url.URL{Scheme: "tcp", Host: "localhost:1883"}
	}
	if brokerURI.Scheme == "mqtt" { // translate scheme to compatible
		brokerURI.Scheme = "tcp"
	} else if brokerURI.Scheme == "mqtts" {
		brokerURI.Scheme = "ssl"
	} else if brokerURI.Scheme == "" {
		brokerURI.Scheme = "tcp"
	}
	if brokerURI.Path != "" {
		a.prefix = brokerURI.Path
	} else {
		a.prefix = "beadsort"
	}
	if a.prefix[0] == '/' {
		a.prefix = a.prefix[1:]
	}
	a.logger.Debugf("broker prefix: '%s'", a.prefix)

	cid := os.Getenv("MQTT_CID")
	if cid == "" {
		cid = "beadsort-1"
	}

	opts = mqtt.NewClientOptions()
	opts.AddBroker(brokerURI.String())
	if brokerURI.User != nil {
		username := brokerURI.User.Username()
		opts.SetUsername(username)
		password, _ := brokerURI.User.Password()
		opts.SetPassword(password)
		a.logger.WithFields(logrus.Fields{
			"username": username,
		}).Debug("authenticating to mqtt server")
	}
	opts.SetClientID(cid)
	opts.SetCleanSession(false)
	return
}

// Start connects to the MQTT broker and listens to the API topics
func (a *MQTTApi) Start() (err error) {
	opts := a.createMQTTOpts()
	opts.SetWill(a.prefix+"/connected", "false", 1, true)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		a.logger.Info("connected to mqtt broker")
		a.updateConnected(true)
		a.UpdateAll()
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		a.logger.WithError(err).Warn("lost connection to mqtt broker")
	})
	a.client = mqtt.NewClient(opts)

	go func() {
		for {
			if token := a.client.Connect(); token.WaitTimeout(MQTT_TIMEOUT) && token.Error() != nil {
				a.logger.WithError(token.Error()).
					Errorf("error connecting to mqtt broker. will retry in %v", CONNECT_RETRY_TIMEOUT)
				time.Sleep(CONNECT_RETRY_TIMEOUT)
			} else {
				break
			}
		}

		a.subscribe()
	}()

	return
}

// Stop disconnects from the broker
func (a *MQTTApi) Stop() {
	if a.client.IsConnected() {
		a.logger.Info("disconnecting from mqtt broker")
		a.updateConnected(false)
		a.client.Disconnect(250)
	} else {
		a.logger.Warn("was never connected to broker")
	}
}

// Client gets the MQTT client used by the MQTTApi
func (a *MQTTApi) Client() mqtt.Client {
	return a.client
}

// Prefix gets the topic prefix of this MQTTApi
func (a *MQTTApi) Prefix() string {
	return a.prefix
}

func (a *MQTTApi) updateConnected(connected bool) (err error) {
	str := strconv.FormatBool(connected)
	token := a.client.Publish(a.prefix+"/connected", 1, true, str)
	if token.WaitTimeout(MQTT_TIMEOUT); token.Error() != nil {
		return token.Error()
	}
	return
}

// UpdateAll updates all mqtt data
func (a *MQTTApi) UpdateAll() (err error) {
	err = a.UpdateStatus(&a.sequencer.Status)
	if err != nil {
		return
	}
	err = a.UpdateSorterStats()
	return
}

// UpdateStatus updates the topics for the sequencer status
func (a *MQTTApi) UpdateStatus(status *logic.SeqStatus) (err error) {
	data := datamodel.SeqStatusToJSON(status)
	bytes, err := json.Marshal(&data)
	if err != nil {
		err = fmt.Errorf("error marshalling status: %v", err)
		return
	}
	a.client.Publish(a.prefix+"/status", 1, true, bytes)
	a.client.Publish(a.prefix+"/status/paused", 1, true, []byte(strconv.FormatBool(data.Paused)))
	a.client.Publish(a.prefix+"/status/state", 1, true, []byte(data.State))
	return
}

// UpdateSorterStats updates the topic for the local classifier stats, if a
// local classifier is in use
func (a *MQTTApi) UpdateSorterStats() (err error) {
	if a.sorter == nil {
		return
	}
	stats := a.sorter.Stats()
	bytes, err := json.Marshal(&stats)
	if err != nil {
		return
	}
	a.client.Publish(a.prefix+"/sorter", 1, true, bytes)
	return
}

func (a *MQTTApi) subscribe() {
	reqPath := a.prefix + "/requests"
	resPath := a.prefix + "/responses"
	a.logger.WithField("path", reqPath).Debug("registering request handler")
	a.client.Subscribe(reqPath, 2, func(client mqtt.Client, message mqtt.Message) {
		var (
			data struct {
				Rid  int    `json:"rid"`
				Type string `json:"type"`
			}
			rData = make(responseData)
			err   error
		)

		defer func() {
			var (
				merr *util.Error
				ok   bool
			)
			if err != nil {
				if merr, ok = err.(*util.Error); !ok {
					merr = util.NewInternalError(err)
				}
			}
			if merr != nil {
				a.logger.WithError(merr).Info("error processing request")
				rData["result"] = "error"
				rData["code"] = merr.Code
				rData["message"] = merr.Error()
				if merr.Name != "" {
					rData["name"] = merr.Name
				}
				if merr.Cause != nil {
					rData["cause"] = merr.Cause.Error()
				}
			} else {
				rData["result"] = "success"
			}
			resBytes, err := json.Marshal(&rData)
			if err != nil {
				a.logger.WithError(err).Error("error marshaling response")
				return
			}
			client.Publish(resPath, 2, false, resBytes)
		}()

		err = json.Unmarshal(message.Payload(), &data)
		if err != nil {
			err = fmt.Errorf("could not parse api request: %v", err)
			return
		}

		rData["rid"] = data.Rid
		rData["type"] = data.Type

		var handler requestHandler
		switch data.Type {
		case "pause":
			handler = a.pauseSequencer
		case "previewSlot":
			handler = a.previewSlot
		case "previewState":
			handler = a.previewState
		case "getSorterStats":
			handler = a.getSorterStats
		}

		if handler != nil {
			err = handler(message, rData)
		} else {
			err = util.NewError(util.EC_BadRequest, fmt.Sprintf("invalid api request type: %s", data.Type))
		}
	})
}

// pauseSequencer forces or releases the software pause override. The hardware
// pause line is unaffected and can still hold the rig paused.
func (a *MQTTApi) pauseSequencer(message mqtt.Message, rData responseData) (err error) {
	var data struct {
		Paused *bool
	}
	err = json.Unmarshal(message.Payload(), &data)
	if err != nil {
		err = util.NewParseError("pause request", err)
		return
	}
	if err = util.CheckNotNil(data.Paused, "paused"); err != nil {
		return
	}
	if *data.Paused {
		a.sequencer.Pause()
		rData["message"] = "pausing sequencer"
	} else {
		a.sequencer.Unpause()
		rData["message"] = "unpausing sequencer"
	}
	return
}

// previewSlot reports the chutes pulse width a slot maps to, without moving
// anything
func (a *MQTTApi) previewSlot(message mqtt.Message, rData responseData) (err error) {
	var data struct {
		Slot *int
	}
	err = json.Unmarshal(message.Payload(), &data)
	if err != nil {
		err = util.NewParseError("previewSlot request", err)
		return
	}
	if err = util.CheckRange(data.Slot, "slot", a.config.Sequencer.SlotCount); err != nil {
		return
	}
	us := logic.SlotPosition(*data.Slot, a.config.Sequencer.SlotCount,
		a.config.Chutes.MinUs, a.config.Chutes.MaxUs)
	rData["slot"] = *data.Slot
	rData["pulseWidthUs"] = us
	return
}

// previewState reports the indicator color a sequencer state renders as,
// addressed by its published name
func (a *MQTTApi) previewState(message mqtt.Message, rData responseData) (err error) {
	var data struct {
		State  *string
		Paused bool
	}
	err = json.Unmarshal(message.Payload(), &data)
	if err != nil {
		err = util.NewParseError("previewState request", err)
		return
	}
	if err = util.CheckNotNil(data.State, "state"); err != nil {
		return
	}
	state, err := datamodel.ParseSeqState(*data.State)
	if err != nil {
		return
	}
	rData["state"] = state.String()
	rData["color"] = a.config.Colors.ColorFor(state, data.Paused)
	return
}

func (a *MQTTApi) getSorterStats(message mqtt.Message, rData responseData) (err error) {
	if a.sorter == nil {
		err = util.NewError(util.EC_BadRequest, "no local sorter in use")
		return
	}
	stats := a.sorter.Stats()
	rData["paletteLen"] = stats.PaletteLen
	rData["tubesUsed"] = stats.TubesUsed
	return
}

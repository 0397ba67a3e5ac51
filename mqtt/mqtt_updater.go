package mqtt

import (
	"time"

	"github.com/bep/debounce"
	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/sirupsen/logrus"
)

// how long to sit on a status update before publishing, so tick-rate updates
// collapse into a few publishes per second
const statusDebounce = 100 * time.Millisecond

// how often the sorter stats topic is refreshed
const statsInterval = 10 * time.Second

// MQTTUpdater updates MQTT topics with the current state of the application
type MQTTUpdater struct {
	onStatusUpdate chan *logic.SeqStatus
	stop           chan int
	api            *MQTTApi
	debounced      func(func())
	logger         *logrus.Entry
}

// NewMQTTUpdater creates a new MQTTUpdater which listens to the specified
// sequencer
func NewMQTTUpdater(sequencer *logic.Sequencer) *MQTTUpdater {
	onStatusUpdate := make(chan *logic.SeqStatus, 10)
	sequencer.OnUpdateState = onStatusUpdate
	return &MQTTUpdater{
		onStatusUpdate,
		make(chan int),
		nil,
		debounce.New(statusDebounce),
		util.Logger.WithField("module", "MQTTUpdater"),
	}
}

func (u *MQTTUpdater) run() {
	u.logger.Debug("starting updater")
	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()
	for {
		select {
		case <-u.stop:
			return
		case status := <-u.onStatusUpdate:
			util.ExhaustChan(u.onStatusUpdate)
			u.debounced(func() {
				err := u.api.UpdateStatus(status)
				if err != nil {
					u.logger.WithError(err).Error("error updating sequencer status")
				}
			})
		case <-statsTicker.C:
			err := u.api.UpdateSorterStats()
			if err != nil {
				u.logger.WithError(err).Error("error updating sorter stats")
			}
		}
	}
}

// Start starts the MQTTUpdater to listen and update topics
func (u *MQTTUpdater) Start(api *MQTTApi) {
	u.api = api
	go u.run()
}

// Stop stops the updater from updating topics
func (u *MQTTUpdater) Stop() {
	u.stop <- 0
}

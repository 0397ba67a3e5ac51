package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/ggriffiniii/bead-sorter/classify"
	"github.com/ggriffiniii/bead-sorter/config"
	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/mqtt"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// buildClassifier returns the inspection collaborator: the remote service when
// one is configured, the local palette sorter otherwise. The sorter is also
// returned separately for stats publishing.
func buildClassifier(cfg *config.ConfigData) (logic.Classifier, *classify.Sorter, error) {
	frames, err := classify.OpenFileFrameSource(cfg.Camera.Path, cfg.Camera.Width, cfg.Camera.Height)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Remote != nil {
		log.WithField("url", cfg.Remote.URL).Info("using remote inspection service")
		return classify.NewRemote(*cfg.Remote, frames), nil, nil
	}
	sorter := classify.NewSorter(cfg.Sorter, frames)
	return sorter, sorter, nil
}

func main() {
	// channel which is notified on an interrupt signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	godotenv.Load()
	util.InitLogLevel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	for _, iface := range []interface {
		Name() string
		Initialize() error
		Deinitialize() error
	}{cfg.ActuatorInterface, cfg.SwitchInterface, cfg.IndicatorInterface} {
		if err := iface.Initialize(); err != nil {
			// no safe fallback motion exists if the hardware cannot be driven
			log.Fatalf("error initializing %s hardware: %v", iface.Name(), err)
		}
		defer iface.Deinitialize()
	}

	hopper := logic.NewActuator(cfg.Hopper, cfg.ActuatorInterface)
	chutes := logic.NewActuator(cfg.Chutes, cfg.ActuatorInterface)
	gate := logic.NewPauseGate(cfg.SwitchInterface)
	indicator := logic.NewStatusIndicator(cfg.IndicatorInterface, cfg.Colors)

	classifier, sorter, err := buildClassifier(&cfg)
	if err != nil {
		log.Fatalf("error setting up classifier: %v", err)
	}

	sequencer := logic.NewSequencer(cfg.Sequencer, hopper, chutes, gate,
		indicator, classifier, clock.New())

	updater := mqtt.NewMQTTUpdater(sequencer)
	api := mqtt.NewMQTTApi(&cfg, sequencer, sorter)
	api.Start()
	defer api.Stop()

	updater.Start(api)
	defer updater.Stop()

	var wait sync.WaitGroup
	sequencer.Start(&wait)
	log.WithFields(log.Fields{
		"hopper": hopper.Name(), "chutes": chutes.Name(),
	}).Info("initialized sorter")

	<-sigc

	log.Info("cleaning up...")
	sequencer.Quit()
	wait.Wait()
}

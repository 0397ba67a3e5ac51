package logic

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/sirupsen/logrus"
)

// SeqState is the current phase of the pickup/inspect/drop cycle
type SeqState int

const (
	// StateIdle is the rest phase between cycles
	StateIdle SeqState = iota
	// StatePickup agitates the hopper to capture a bead and presents it to the camera
	StatePickup
	// StateCamera waits for the inspection collaborator to classify the bead
	StateCamera
	// StateDrop routes the bead: chutes to the slot position, hopper to the drop position
	StateDrop
)

func (s SeqState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePickup:
		return "pickup"
	case StateCamera:
		return "camera"
	case StateDrop:
		return "drop"
	default:
		return fmt.Sprintf("SeqState(%d)", int(s))
	}
}

// SequencerConfig holds the motion targets and timing of the sorting cycle.
// The pulse width constants and tick interval are deliberately configuration,
// not inferred.
type SequencerConfig struct {
	// PickupUs is the hopper position where a bead is captured
	PickupUs uint16 `json:"pickupUs"`
	// CameraUs is the hopper position presenting the bead for inspection
	CameraUs uint16 `json:"cameraUs"`
	// DropUs is the hopper position releasing the bead into the chute
	DropUs uint16 `json:"dropUs"`
	// SlotCount is the number of logical destination slots
	SlotCount int `json:"slotCount"`
	// TickIntervalMs is the interpolation tick period
	TickIntervalMs int `json:"tickIntervalMs"`
	// CameraSettleMs is how long the hopper rests at the camera position before
	// a classification is requested, for a stable image
	CameraSettleMs int `json:"cameraSettleMs"`
	// Agitation is a series of offsets from PickupUs the hopper wiggles
	// through to capture a bead
	Agitation []int `json:"agitation"`
}

// DefaultSequencerConfig returns the stock rig settings
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{
		PickupUs:       760,
		CameraUs:       1493,
		DropUs:         1613,
		SlotCount:      30,
		TickIntervalMs: 20,
		CameraSettleMs: 200,
		Agitation:      []int{-250, 250, -150, 150, -75, 75, 0},
	}
}

// TickInterval returns the tick period, defaulting to 20ms (50Hz)
func (c *SequencerConfig) TickInterval() time.Duration {
	if c.TickIntervalMs <= 0 {
		return 20 * time.Millisecond
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// CameraSettle returns the settle delay before classification
func (c *SequencerConfig) CameraSettle() time.Duration {
	if c.CameraSettleMs < 0 {
		return 0
	}
	return time.Duration(c.CameraSettleMs) * time.Millisecond
}

// SeqStatus is the published state of the Sequencer. All accesses synchronized
// over Mutex
type SeqStatus struct {
	State    SeqState
	Paused   bool
	LastSlot int
	HopperUs uint16
	ChutesUs uint16
	sync.Mutex
}

func (s *SeqStatus) String() string {
	return fmt.Sprintf("{State: %v, Paused: %t, LastSlot: %d}", s.State, s.Paused, s.LastSlot)
}

// Sequencer owns the sequence state exclusively and drives the cyclic
// Pickup -> Camera -> Drop state machine from a single goroutine, one
// interpolation tick at a time. The pause gate is checked at the start of
// every tick, strictly before any transition or motion command, so a pause is
// honored no later than the next tick and freezes both actuators exactly
// where they are.
type Sequencer struct {
	cfg        SequencerConfig
	hopper     *Actuator
	chutes     *Actuator
	gate       *PauseGate
	indicator  *StatusIndicator
	classifier Classifier
	clk        clock.Clock

	// remaining hopper targets for the current pickup plan
	plan        []uint16
	settle      time.Duration
	pendingSlot *int

	slotCh chan int
	quit   chan struct{}

	Status        SeqStatus
	OnUpdateState chan<- *SeqStatus
	log           *logrus.Entry
}

// NewSequencer creates a new Sequencer without starting it. The hopper and
// chutes actuators are moved into the sequencer and must not be commanded by
// anyone else afterwards.
func NewSequencer(cfg SequencerConfig, hopper, chutes *Actuator, gate *PauseGate,
	indicator *StatusIndicator, classifier Classifier, clk clock.Clock) *Sequencer {
	return &Sequencer{
		cfg:        cfg,
		hopper:     hopper,
		chutes:     chutes,
		gate:       gate,
		indicator:  indicator,
		classifier: classifier,
		clk:        clk,
		slotCh:     make(chan int, 1),
		quit:       make(chan struct{}),
		Status:     SeqStatus{State: StateIdle, LastSlot: -1},
		log:        util.Logger.WithField("module", "Sequencer"),
	}
}

func (s *Sequencer) start(wait *sync.WaitGroup) {
	if wait != nil {
		defer wait.Done()
	}
	interval := s.cfg.TickInterval()
	ticker := s.clk.Ticker(interval)
	defer ticker.Stop()
	s.log.WithField("interval", interval).Info("starting sequencer")
	s.stateUpdate()
	for {
		select {
		case <-s.quit:
			s.log.Debug("quiting sequencer")
			return
		case <-ticker.C:
			s.tick(interval)
		}
	}
}

// tick advances the controller by one interpolation step. Pause is checked
// first; while paused nothing below the gate runs, so no actuator write and no
// transition can happen.
func (s *Sequencer) tick(interval time.Duration) {
	paused := s.gate.IsPaused()

	s.Status.Lock()
	state := s.Status.State
	pauseChanged := s.Status.Paused != paused
	s.Status.Paused = paused
	s.Status.Unlock()

	s.indicator.Refresh(state, paused)
	if pauseChanged {
		if paused {
			s.log.WithField("state", state).Info("paused sequencer")
		} else {
			s.log.WithField("state", state).Info("resumed sequencer")
		}
		s.stateUpdate()
	}
	if paused {
		return
	}

	switch state {
	case StateIdle:
		s.plan = s.pickupPlan()
		s.settle = s.cfg.CameraSettle()
		s.startNextPlanMove()
		s.setState(StatePickup)

	case StatePickup:
		if !s.hopper.Tick(interval) {
			break
		}
		if len(s.plan) > 0 {
			s.startNextPlanMove()
			break
		}
		if s.settle > 0 {
			s.settle -= interval
			break
		}
		s.requestClassification()
		s.setState(StateCamera)

	case StateCamera:
		if s.pendingSlot == nil {
			select {
			case slot := <-s.slotCh:
				s.pendingSlot = &slot
			default:
			}
		}
		if s.pendingSlot == nil {
			break
		}
		slot := *s.pendingSlot
		s.pendingSlot = nil
		target := SlotPosition(slot, s.cfg.SlotCount, s.chutes.MinUs(), s.chutes.MaxUs())
		s.chutes.StartMove(target, s.chutes.MoveDuration(target))
		s.hopper.StartMove(s.cfg.DropUs, s.hopper.MoveDuration(s.cfg.DropUs))
		s.Status.Lock()
		s.Status.LastSlot = slot
		s.Status.Unlock()
		s.log.WithFields(logrus.Fields{
			"slot": slot, "target": target,
		}).Info("routing bead")
		s.setState(StateDrop)

	case StateDrop:
		hopperDone := s.hopper.Tick(interval)
		chutesDone := s.chutes.Tick(interval)
		if hopperDone && chutesDone {
			s.setState(StateIdle)
		}
	}

	s.Status.Lock()
	s.Status.HopperUs = s.hopper.CurrentUs()
	s.Status.ChutesUs = s.chutes.CurrentUs()
	s.Status.Unlock()
}

// pickupPlan returns the hopper targets for one pickup: the agitation offsets
// around the pickup position, then the camera position
func (s *Sequencer) pickupPlan() []uint16 {
	plan := make([]uint16, 0, len(s.cfg.Agitation)+1)
	for _, off := range s.cfg.Agitation {
		p := int(s.cfg.PickupUs) + off
		if p < 0 {
			p = 0
		}
		plan = append(plan, uint16(p))
	}
	return append(plan, s.cfg.CameraUs)
}

func (s *Sequencer) startNextPlanMove() {
	target := s.plan[0]
	s.plan = s.plan[1:]
	s.hopper.StartMove(target, s.hopper.MoveDuration(target))
}

func (s *Sequencer) requestClassification() {
	s.log.Debug("requesting classification")
	go func() {
		slot, err := s.classifier.Classify()
		if err != nil {
			s.log.WithError(err).Warn("classification failed; routing to waste slot")
			slot = 0
		}
		s.slotCh <- slot
	}()
}

func (s *Sequencer) setState(st SeqState) {
	s.Status.Lock()
	s.Status.State = st
	paused := s.Status.Paused
	s.Status.Unlock()
	s.indicator.Refresh(st, paused)
	s.log.WithField("state", st).Debug("sequence state changed")
	s.stateUpdate()
}

func (s *Sequencer) stateUpdate() {
	if s.OnUpdateState != nil {
		s.OnUpdateState <- &s.Status
	}
}

// Start starts the background goroutine of a Sequencer
func (s *Sequencer) Start(wait *sync.WaitGroup) {
	if wait != nil {
		wait.Add(1)
	}
	go s.start(wait)
}

// Quit tells the background goroutine to stop
func (s *Sequencer) Quit() {
	s.quit <- struct{}{}
}

// Pause asserts the software pause override
func (s *Sequencer) Pause() {
	s.gate.SetOverride(true)
}

// Unpause releases the software pause override. The hardware line can still
// hold the rig paused.
func (s *Sequencer) Unpause() {
	s.gate.SetOverride(false)
}

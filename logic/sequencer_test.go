package logic

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestSeqState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pickup", StatePickup.String())
	assert.Equal(t, "camera", StateCamera.String())
	assert.Equal(t, "drop", StateDrop.String())
}

func TestSequencerConfig_Defaults(t *testing.T) {
	cfg := SequencerConfig{}
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, time.Duration(0), cfg.CameraSettle())

	cfg = DefaultSequencerConfig()
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 200*time.Millisecond, cfg.CameraSettle())
	assert.Equal(t, 30, cfg.SlotCount)
}

type SequencerSuite struct {
	suite.Suite
	ass        *assert.Assertions
	cfg        SequencerConfig
	actIface   *MockActuatorInterface
	swIface    *MockSwitchInterface
	indIface   *MockIndicatorInterface
	classifier *MockClassifier
	hopper     *Actuator
	chutes     *Actuator
	gate       *PauseGate
	seq        *Sequencer
}

func (s *SequencerSuite) SetupSuite() {
	s.ass = assert.New(s.T())
}

func (s *SequencerSuite) SetupTest() {
	util.Logger.Out = io.Discard
	s.cfg = DefaultSequencerConfig()
	s.actIface = NewMockActuatorInterface(2)
	s.actIface.Initialize()
	s.swIface = NewMockSwitchInterface()
	s.swIface.Initialize()
	s.indIface = NewMockIndicatorInterface()
	s.indIface.Initialize()
	s.classifier = NewMockClassifier()
	s.hopper = NewActuator(ActuatorConfig{
		Name: "hopper", Channel: 0, MinUs: 567, MaxUs: 2266, SpeedUs: 2000,
	}, s.actIface)
	s.chutes = NewActuator(ActuatorConfig{
		Name: "chutes", Channel: 1, MinUs: 500, MaxUs: 1167, SpeedUs: 2000,
	}, s.actIface)
	s.gate = NewPauseGate(s.swIface)
	indicator := NewStatusIndicator(s.indIface, DefaultColorScheme())
	s.seq = NewSequencer(s.cfg, s.hopper, s.chutes, s.gate, indicator,
		s.classifier, clock.New())
}

func (s *SequencerSuite) state() SeqState {
	s.seq.Status.Lock()
	defer s.seq.Status.Unlock()
	return s.seq.Status.State
}

// tickUntil drives the sequencer tick by tick until it reaches the wanted
// state. Classification runs on a goroutine, so camera ticks yield briefly.
func (s *SequencerSuite) tickUntil(want SeqState, maxTicks int) {
	interval := s.cfg.TickInterval()
	for i := 0; i < maxTicks; i++ {
		s.seq.tick(interval)
		cur := s.state()
		if cur == want {
			return
		}
		if cur == StateCamera {
			time.Sleep(time.Millisecond)
		}
	}
	s.FailNow(fmt.Sprintf("did not reach state %v within %d ticks", want, maxTicks))
}

func (s *SequencerSuite) TestFullCycle() {
	ass := s.ass
	s.classifier.SetupSlot(15)

	s.seq.tick(s.cfg.TickInterval())
	ass.Equal(StatePickup, s.state(), "first tick should start a pickup")

	s.tickUntil(StateCamera, 500)
	ass.Equal(uint16(s.cfg.CameraUs), s.hopper.CurrentUs(),
		"hopper should rest at the camera position during inspection")

	s.tickUntil(StateDrop, 500)
	s.seq.Status.Lock()
	ass.Equal(15, s.seq.Status.LastSlot)
	s.seq.Status.Unlock()

	s.tickUntil(StateIdle, 500)
	ass.Equal(uint16(s.cfg.DropUs), s.hopper.CurrentUs())
	// slot 15 of 30 on the 500-1167us chute range
	s.actIface.AssertPulseWidth(s.T(), 1, 845)
	s.classifier.AssertExpectations(s.T())
}

func (s *SequencerSuite) TestPauseFreezes() {
	ass := s.ass
	interval := s.cfg.TickInterval()
	s.classifier.SetupSlot(3)

	s.seq.tick(interval)
	s.seq.tick(interval)
	ass.Equal(StatePickup, s.state())

	s.swIface.Set(true)
	s.seq.tick(interval)
	frozenUs := s.hopper.CurrentUs()
	frozenState := s.state()
	for i := 0; i < 10; i++ {
		s.seq.tick(interval)
	}
	ass.Equal(frozenUs, s.hopper.CurrentUs(), "paused hopper must not move")
	ass.Equal(frozenState, s.state(), "paused sequencer must not transition")
	s.seq.Status.Lock()
	ass.True(s.seq.Status.Paused)
	s.seq.Status.Unlock()
	s.indIface.AssertColor(s.T(), DefaultColorScheme().Paused)

	s.swIface.Set(false)
	s.tickUntil(StateIdle, 2000)
	s.seq.Status.Lock()
	ass.False(s.seq.Status.Paused)
	s.seq.Status.Unlock()
	ass.Equal(uint16(s.cfg.DropUs), s.hopper.CurrentUs(),
		"cycle should complete normally after resume")
}

func (s *SequencerSuite) TestPauseOverride() {
	ass := s.ass
	interval := s.cfg.TickInterval()

	s.seq.Pause()
	s.seq.tick(interval)
	ass.Equal(StateIdle, s.state(), "software pause should hold the sequencer idle")
	s.seq.Status.Lock()
	ass.True(s.seq.Status.Paused)
	s.seq.Status.Unlock()

	s.seq.Unpause()
	s.seq.tick(interval)
	ass.Equal(StatePickup, s.state())
}

func (s *SequencerSuite) TestClassifierErrorRoutesToWaste() {
	ass := s.ass
	s.classifier.On("Classify").Return(0, fmt.Errorf("camera offline"))

	s.tickUntil(StateDrop, 1000)
	s.seq.Status.Lock()
	ass.Equal(0, s.seq.Status.LastSlot, "failed classification should route to the waste slot")
	s.seq.Status.Unlock()

	s.tickUntil(StateIdle, 500)
	// slot 0 is the low end of the chute range
	ass.Equal(uint16(500), s.chutes.CurrentUs())
}

func (s *SequencerSuite) TestStatusUpdates() {
	ass := s.ass
	updates := make(chan *SeqStatus, 100)
	s.seq.OnUpdateState = updates
	s.classifier.SetupSlot(1)

	s.tickUntil(StateCamera, 500)
	ass.NotZero(len(updates), "state transitions should notify the update channel")
}

func (s *SequencerSuite) TestStartQuit() {
	s.classifier.SetupSlot(0)

	var wait sync.WaitGroup
	s.seq.Start(&wait)
	time.Sleep(50 * time.Millisecond)
	s.seq.Quit()
	wait.Wait()
}

func TestSequencer(t *testing.T) {
	suite.Run(t, new(SequencerSuite))
}

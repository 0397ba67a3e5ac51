package logic

import (
	"testing"

	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockActuatorInterface records pulse widths in memory. It is used by tests
// and when running off-hardware.
type MockActuatorInterface struct {
	widths []uint16
	mock.Mock
}

var _ ActuatorInterface = (*MockActuatorInterface)(nil)

func NewMockActuatorInterface(len int) *MockActuatorInterface {
	widths := make([]uint16, len)
	return &MockActuatorInterface{widths, mock.Mock{}}
}

func (m *MockActuatorInterface) Name() string {
	return "mock"
}

func (m *MockActuatorInterface) Initialize() error {
	for i := range m.widths {
		m.widths[i] = 0
	}
	m.ExpectedCalls = nil
	m.Calls = nil
	m.SetupAllReturns()
	return nil
}

func (m *MockActuatorInterface) Deinitialize() error {
	return m.Initialize()
}

func (m *MockActuatorInterface) Count() ChannelID {
	return (ChannelID)(len(m.widths))
}

func (m *MockActuatorInterface) SetPulseWidth(ch ChannelID, us uint16) {
	m.Called(ch, us)
	m.widths[ch] = us
}

func (m *MockActuatorInterface) GetPulseWidth(ch ChannelID) uint16 {
	return m.widths[ch]
}

// SetupAllReturns allows SetPulseWidth with any arguments
func (m *MockActuatorInterface) SetupAllReturns() {
	m.On("SetPulseWidth", mock.AnythingOfType("uint8"), mock.AnythingOfType("uint16")).Return()
}

func (m *MockActuatorInterface) AssertPulseWidth(t *testing.T, ch ChannelID, us uint16) {
	assert.Equal(t, us, m.widths[ch], "channel %d pulse width should be %dus", ch, us)
}

// MockSwitchInterface is a pause line settable from tests
type MockSwitchInterface struct {
	active util.AtomicBool
}

var _ SwitchInterface = (*MockSwitchInterface)(nil)

func NewMockSwitchInterface() *MockSwitchInterface {
	return &MockSwitchInterface{util.NewAtomicBool(false)}
}

func (m *MockSwitchInterface) Name() string {
	return "mock"
}

func (m *MockSwitchInterface) Initialize() error {
	m.active.Store(false)
	return nil
}

func (m *MockSwitchInterface) Deinitialize() error {
	return nil
}

func (m *MockSwitchInterface) Read() bool {
	return m.active.Load()
}

// Set asserts or releases the mock pause line
func (m *MockSwitchInterface) Set(active bool) {
	m.active.Store(active)
}

// MockIndicatorInterface records the last written color
type MockIndicatorInterface struct {
	writes int
	last   Color
	mock.Mock
}

var _ IndicatorInterface = (*MockIndicatorInterface)(nil)

func NewMockIndicatorInterface() *MockIndicatorInterface {
	return &MockIndicatorInterface{0, Color{}, mock.Mock{}}
}

func (m *MockIndicatorInterface) Name() string {
	return "mock"
}

func (m *MockIndicatorInterface) Initialize() error {
	m.writes = 0
	m.last = Color{}
	m.ExpectedCalls = nil
	m.Calls = nil
	m.SetupAllReturns()
	return nil
}

func (m *MockIndicatorInterface) Deinitialize() error {
	return m.Initialize()
}

func (m *MockIndicatorInterface) SetColor(c Color) {
	m.Called(c)
	m.writes++
	m.last = c
}

func (m *MockIndicatorInterface) SetupAllReturns() {
	m.On("SetColor", mock.AnythingOfType("logic.Color")).Return()
}

func (m *MockIndicatorInterface) Writes() int {
	return m.writes
}

func (m *MockIndicatorInterface) AssertColor(t *testing.T, c Color) {
	assert.Equal(t, c, m.last, "indicator color should be %v", c)
}

package logic

import (
	"github.com/stretchr/testify/mock"
)

type MockClassifier struct {
	mock.Mock
}

var _ Classifier = (*MockClassifier)(nil)

func NewMockClassifier() *MockClassifier {
	return &MockClassifier{mock.Mock{}}
}

func (m *MockClassifier) Classify() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

// SetupSlot makes every classification return the given slot
func (m *MockClassifier) SetupSlot(slot int) {
	m.On("Classify").Return(slot, nil)
}

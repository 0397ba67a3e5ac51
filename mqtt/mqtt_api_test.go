package mqtt

import (
	"io"
	"testing"

	"github.com/ggriffiniii/bead-sorter/config"
	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/stretchr/testify/assert"
)

type fakeMessage struct {
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 2 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return "beadsort/requests" }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func newTestApi(t *testing.T) *MQTTApi {
	util.Logger.Out = io.Discard
	j := config.ConfigDataJSON{}
	c, err := j.ToConfigData()
	assert.NoError(t, err)
	return NewMQTTApi(&c, nil, nil)
}

func TestPreviewSlot(t *testing.T) {
	api := newTestApi(t)

	rData := make(responseData)
	err := api.previewSlot(&fakeMessage{[]byte(`{"slot": 15}`)}, rData)
	assert.NoError(t, err)
	assert.Equal(t, 15, rData["slot"])
	assert.Equal(t, uint16(845), rData["pulseWidthUs"])

	err = api.previewSlot(&fakeMessage{[]byte(`{"slot": 30}`)}, rData)
	assert.Error(t, err, "slots outside the configured count should not preview")

	err = api.previewSlot(&fakeMessage{[]byte(`{}`)}, rData)
	assert.Error(t, err)
}

func TestPreviewState(t *testing.T) {
	api := newTestApi(t)
	scheme := logic.DefaultColorScheme()

	rData := make(responseData)
	err := api.previewState(&fakeMessage{[]byte(`{"state": "camera"}`)}, rData)
	assert.NoError(t, err)
	assert.Equal(t, "camera", rData["state"])
	assert.Equal(t, scheme.Camera, rData["color"])

	err = api.previewState(&fakeMessage{[]byte(`{"state": "camera", "paused": true}`)}, rData)
	assert.NoError(t, err)
	assert.Equal(t, scheme.Paused, rData["color"], "paused should win over the state color")

	err = api.previewState(&fakeMessage{[]byte(`{"state": "spinning"}`)}, rData)
	assert.Error(t, err, "unknown state names should not preview")

	err = api.previewState(&fakeMessage{[]byte(`{}`)}, rData)
	assert.Error(t, err)
}

package classify

import (
	"fmt"
	"io"
	"testing"

	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/stretchr/testify/assert"
)

const (
	frameWidth  = 40
	frameHeight = 30
)

type fakeFrameSource struct {
	frame []byte
	err   error
}

func (f *fakeFrameSource) Capture() ([]byte, int, int, error) {
	if f.err != nil {
		return nil, 0, 0, f.err
	}
	return f.frame, frameWidth, frameHeight, nil
}

// beadFrame builds a big-endian RGB565 frame of a gray tray with a bead of the
// given color at the stock camera center
func beadFrame(bead uint16) []byte {
	const cx, cy, radius = 20, 17, 7
	data := make([]byte, frameWidth*frameHeight*2)
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			p := uint16(0x8410)
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				p = bead
			}
			idx := (y*frameWidth + x) * 2
			data[idx] = byte(p >> 8)
			data[idx+1] = byte(p)
		}
	}
	return data
}

func TestSorter_AssignsTubes(t *testing.T) {
	util.Logger.Out = io.Discard
	cfg := DefaultSorterConfig()
	cfg.TubeCount = 2
	frames := &fakeFrameSource{frame: beadFrame(0xF800)} // red
	sorter := NewSorter(cfg, frames)

	slot, err := sorter.Classify()
	assert.NoError(t, err)
	assert.Equal(t, 0, slot, "first color should go to the first tube")

	slot, err = sorter.Classify()
	assert.NoError(t, err)
	assert.Equal(t, 0, slot, "same color should stay in the same tube")

	frames.frame = beadFrame(0x001F) // blue
	slot, err = sorter.Classify()
	assert.NoError(t, err)
	assert.Equal(t, 1, slot, "new color should take the next empty tube")

	// all tubes taken: green lands in the tube with the nearest color (red)
	frames.frame = beadFrame(0x07E0)
	slot, err = sorter.Classify()
	assert.NoError(t, err)
	assert.Equal(t, 0, slot)

	stats := sorter.Stats()
	assert.Equal(t, 3, stats.PaletteLen)
	assert.Equal(t, 2, stats.TubesUsed)
}

func TestSorter_PaletteFull(t *testing.T) {
	util.Logger.Out = io.Discard
	cfg := DefaultSorterConfig()
	cfg.PaletteCapacity = 1
	frames := &fakeFrameSource{frame: beadFrame(0xF800)}
	sorter := NewSorter(cfg, frames)

	slot, err := sorter.Classify()
	assert.NoError(t, err)
	assert.Equal(t, 0, slot)

	// the palette cannot learn blue anymore; the bead goes to waste, not error
	frames.frame = beadFrame(0x001F)
	slot, err = sorter.Classify()
	assert.NoError(t, err)
	assert.Equal(t, 0, slot)

	assert.Equal(t, 1, sorter.Stats().PaletteLen)
}

func TestSorter_CaptureError(t *testing.T) {
	util.Logger.Out = io.Discard
	frames := &fakeFrameSource{err: fmt.Errorf("device gone")}
	sorter := NewSorter(DefaultSorterConfig(), frames)

	_, err := sorter.Classify()
	assert.Error(t, err)
}

func TestSorter_NoBead(t *testing.T) {
	util.Logger.Out = io.Discard
	frames := &fakeFrameSource{frame: []byte{}}
	sorter := NewSorter(DefaultSorterConfig(), frames)

	_, err := sorter.Classify()
	assert.Error(t, err, "an unanalyzable frame should error, not classify")
}

// Package classify implements the inspection collaborator: turning a camera
// frame of the presented bead into a destination slot index.
package classify

import (
	"fmt"
	"io"
	"os"
)

// FrameSource supplies big-endian RGB565 frames of the camera tray. How the
// frames are produced (sensor bring-up, DMA, bus timing) is outside this
// module; a source only has to block until a frame is available.
type FrameSource interface {
	Capture() (data []byte, width, height int, err error)
}

// FileFrameSource reads fixed-size frames from a file, FIFO or device node
// that an external camera service writes to. Each Capture blocks until one
// full frame has been read.
type FileFrameSource struct {
	f      *os.File
	width  int
	height int
}

var _ FrameSource = (*FileFrameSource)(nil)

func OpenFileFrameSource(path string, width, height int) (*FileFrameSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open frame source: %v", err)
	}
	return &FileFrameSource{f, width, height}, nil
}

func (s *FileFrameSource) Capture() ([]byte, int, int, error) {
	buf := make([]byte, s.width*s.height*2)
	if _, err := io.ReadFull(s.f, buf); err != nil {
		return nil, 0, 0, fmt.Errorf("could not read frame: %v", err)
	}
	return buf, s.width, s.height, nil
}

func (s *FileFrameSource) Close() error {
	return s.f.Close()
}

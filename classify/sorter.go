package classify

import (
	"fmt"
	"math"
	"sync"

	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/palette"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/sirupsen/logrus"
)

// SorterConfig tunes the on-device classifier
type SorterConfig struct {
	// TubeCount is the number of destination tubes (slots)
	TubeCount int `json:"tubeCount"`
	// PaletteCapacity bounds how many distinct colors can be learned
	PaletteCapacity int `json:"paletteCapacity"`
	// MatchThreshold is the squared CIELAB distance under which a bead matches
	// an existing palette entry
	MatchThreshold uint32 `json:"matchThreshold"`

	Analysis palette.AnalysisConfig `json:"analysis"`
}

// DefaultSorterConfig returns the stock rig tuning
func DefaultSorterConfig() SorterConfig {
	return SorterConfig{
		TubeCount:       30,
		PaletteCapacity: 128,
		MatchThreshold:  15,
		Analysis:        palette.DefaultAnalysisConfig(),
	}
}

// SorterStats is a snapshot of what the sorter has learned so far
type SorterStats struct {
	PaletteLen int `json:"paletteLen"`
	TubesUsed  int `json:"tubesUsed"`
}

// Sorter classifies beads locally: it captures a frame, finds the bead color,
// matches it against an adaptively learned palette and assigns palette entries
// to tubes. Tube 0 doubles as the waste tube for anything unclassifiable.
type Sorter struct {
	cfg           SorterConfig
	frames        FrameSource
	palette       *palette.Palette
	tubes         []palette.Entry
	paletteToTube []int
	mu            sync.Mutex
	log           *logrus.Entry
}

var _ logic.Classifier = (*Sorter)(nil)

func NewSorter(cfg SorterConfig, frames FrameSource) *Sorter {
	paletteToTube := make([]int, cfg.PaletteCapacity)
	for i := range paletteToTube {
		paletteToTube[i] = -1
	}
	return &Sorter{
		cfg:           cfg,
		frames:        frames,
		palette:       palette.NewPalette(cfg.PaletteCapacity),
		tubes:         make([]palette.Entry, 0, cfg.TubeCount),
		paletteToTube: paletteToTube,
		log:           util.Logger.WithField("module", "Sorter"),
	}
}

// Classify captures one frame and returns the tube for the bead in it
func (s *Sorter) Classify() (int, error) {
	data, width, height, err := s.frames.Capture()
	if err != nil {
		return 0, fmt.Errorf("could not capture frame: %v", err)
	}
	ana := palette.Analyze(data, width, height, s.cfg.Analysis)
	if ana == nil {
		return 0, fmt.Errorf("no bead found in frame")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kind, pIdx := s.palette.Match(ana.AverageColor, ana.Variance, s.cfg.MatchThreshold)
	if kind == palette.MatchFull {
		// palette full and nothing close enough: waste tube
		s.log.WithField("color", ana.AverageColor).Warn("palette full, bead unclassified")
		return 0, nil
	}
	s.palette.AddSample(pIdx, ana.AverageColor, ana.Variance)

	tube := s.tubeFor(pIdx, ana)
	if tube < len(s.tubes) {
		s.tubes[tube].Add(ana.AverageColor, ana.Variance)
	}
	s.log.WithFields(logrus.Fields{
		"palette": pIdx, "tube": tube, "color": ana.AverageColor,
	}).Info("classified bead")
	return tube, nil
}

// tubeFor returns the tube assigned to palette entry pIdx, assigning the next
// empty tube for new entries, or the nearest existing tube once all tubes are
// taken. Callers hold mu.
func (s *Sorter) tubeFor(pIdx int, ana *palette.Analysis) int {
	if tid := s.paletteToTube[pIdx]; tid >= 0 {
		return tid
	}

	var tid int
	if len(s.tubes) < s.cfg.TubeCount {
		s.tubes = append(s.tubes, palette.NewEntry(ana.AverageColor, ana.Variance))
		tid = len(s.tubes) - 1
		s.log.WithFields(logrus.Fields{
			"palette": pIdx, "tube": tid,
		}).Info("new palette entry, assigning empty tube")
	} else {
		minDist := uint32(math.MaxUint32)
		for i := range s.tubes {
			avg, _ := s.tubes[i].Avg()
			if d := ana.AverageColor.DistLab(avg); d < minDist {
				minDist = d
				tid = i
			}
		}
		s.log.WithFields(logrus.Fields{
			"palette": pIdx, "tube": tid,
		}).Info("no empty tubes, using nearest tube")
	}
	s.paletteToTube[pIdx] = tid
	return tid
}

// Stats returns a snapshot of the learned palette and tube usage
func (s *Sorter) Stats() SorterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SorterStats{
		PaletteLen: s.palette.Len(),
		TubesUsed:  len(s.tubes),
	}
}

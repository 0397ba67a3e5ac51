// Package palette holds the pure color logic of the sorter: RGB565 decoding,
// CIELAB color distance, and the adaptive palette the rig learns bead colors
// into.
package palette

import "math"

// Rgb is an 8-bit-per-channel color sample
type Rgb struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// FromRgb565 decodes a big-endian RGB565 pixel to 8-bit channels
func FromRgb565(p uint16) Rgb {
	r := uint8((p >> 11) & 0x1F)
	g := uint8((p >> 5) & 0x3F)
	b := uint8(p & 0x1F)
	return Rgb{
		R: uint8(uint16(r) * 255 / 31),
		G: uint8(uint16(g) * 255 / 63),
		B: uint8(uint16(b) * 255 / 31),
	}
}

// Dist is the squared euclidean RGB distance
func (c Rgb) Dist(other Rgb) uint32 {
	rd := int32(c.R) - int32(other.R)
	gd := int32(c.G) - int32(other.G)
	bd := int32(c.B) - int32(other.B)
	return uint32(rd*rd + gd*gd + bd*bd)
}

// ToLab converts to CIELAB (D65), truncated to integer components
func (c Rgb) ToLab() (l, a, b int32) {
	lin := func(v float64) float64 {
		if v > 0.04045 {
			return math.Pow((v+0.055)/1.055, 2.4)
		}
		return v / 12.92
	}
	rf := lin(float64(c.R) / 255.0)
	gf := lin(float64(c.G) / 255.0)
	bf := lin(float64(c.B) / 255.0)

	x := (rf*0.4124 + gf*0.3576 + bf*0.1805) * 100.0 / 95.047
	y := (rf*0.2126 + gf*0.7152 + bf*0.0722) * 100.0 / 100.000
	z := (rf*0.0193 + gf*0.1192 + bf*0.9505) * 100.0 / 108.883

	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116.0
	}
	fx, fy, fz := f(x), f(y), f(z)

	l = int32(116.0*fy - 16.0)
	a = int32(500.0 * (fx - fy))
	b = int32(200.0 * (fy - fz))
	return
}

// DistLab is the squared CIELAB distance, the metric used for palette matching
func (c Rgb) DistLab(other Rgb) uint32 {
	l1, a1, b1 := c.ToLab()
	l2, a2, b2 := other.ToLab()
	dl := l1 - l2
	da := a1 - a2
	db := b1 - b2
	return uint32(dl*dl + da*da + db*db)
}

// Entry accumulates the samples assigned to one palette color
type Entry struct {
	SumR   uint32 `json:"sumR"`
	SumG   uint32 `json:"sumG"`
	SumB   uint32 `json:"sumB"`
	SumVar uint64 `json:"sumVar"`
	Count  uint32 `json:"count"`
}

// NewEntry starts an entry from a first sample
func NewEntry(c Rgb, variance uint32) Entry {
	return Entry{
		SumR:   uint32(c.R),
		SumG:   uint32(c.G),
		SumB:   uint32(c.B),
		SumVar: uint64(variance),
		Count:  1,
	}
}

// Add folds another sample into the entry
func (e *Entry) Add(c Rgb, variance uint32) {
	e.SumR += uint32(c.R)
	e.SumG += uint32(c.G)
	e.SumB += uint32(c.B)
	e.SumVar += uint64(variance)
	e.Count++
}

// Avg returns the mean color and variance of the entry
func (e *Entry) Avg() (Rgb, uint32) {
	if e.Count == 0 {
		return Rgb{}, 0
	}
	return Rgb{
		R: uint8(e.SumR / e.Count),
		G: uint8(e.SumG / e.Count),
		B: uint8(e.SumB / e.Count),
	}, uint32(e.SumVar / uint64(e.Count))
}

// MatchKind describes the outcome of a palette match
type MatchKind int

const (
	// MatchExisting means the color matched an existing entry
	MatchExisting MatchKind = iota
	// MatchNew means a new entry was added for the color
	MatchNew
	// MatchFull means the palette is full and no entry matched
	MatchFull
)

// Palette is a bounded, adaptively learned set of bead colors
type Palette struct {
	entries  []Entry
	capacity int
}

// NewPalette creates an empty palette bounded to capacity entries
func NewPalette(capacity int) *Palette {
	return &Palette{make([]Entry, 0, capacity), capacity}
}

// Match finds the closest entry to c by CIELAB distance. If the closest is
// within threshold the entry index is returned with MatchExisting; otherwise a
// new entry is created (MatchNew) unless the palette is full (MatchFull, index
// -1). The caller is expected to AddSample afterwards to keep learning.
func (p *Palette) Match(c Rgb, variance uint32, threshold uint32) (MatchKind, int) {
	bestIdx := -1
	minDist := uint32(math.MaxUint32)
	for i := range p.entries {
		center, _ := p.entries[i].Avg()
		d := c.DistLab(center)
		if d < minDist {
			minDist = d
			bestIdx = i
		}
	}
	if bestIdx >= 0 && minDist < threshold {
		return MatchExisting, bestIdx
	}
	if len(p.entries) < p.capacity {
		p.entries = append(p.entries, NewEntry(c, variance))
		return MatchNew, len(p.entries) - 1
	}
	return MatchFull, -1
}

// AddSample folds a sample into the entry at index, ignoring invalid indices
func (p *Palette) AddSample(index int, c Rgb, variance uint32) {
	if index < 0 || index >= len(p.entries) {
		return
	}
	p.entries[index].Add(c, variance)
}

// Get returns the mean color of the entry at index
func (p *Palette) Get(index int) (Rgb, bool) {
	if index < 0 || index >= len(p.entries) {
		return Rgb{}, false
	}
	c, _ := p.entries[index].Avg()
	return c, true
}

// Entry returns a copy of the entry at index
func (p *Palette) Entry(index int) (Entry, bool) {
	if index < 0 || index >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[index], true
}

// Len is the number of learned entries
func (p *Palette) Len() int {
	return len(p.entries)
}

// Cap is the maximum number of entries
func (p *Palette) Cap() int {
	return p.capacity
}

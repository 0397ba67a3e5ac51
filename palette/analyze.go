package palette

import (
	"math"
	"sort"
)

// AnalysisConfig tunes frame analysis. The geometry constants (background
// sample rectangle, ring radii, search window) are fixed properties of the
// rig's camera mount and live as constants below.
type AnalysisConfig struct {
	// FilterPercent is the share of ring pixels kept after discarding the
	// outliers furthest from the mean color
	FilterPercent int `json:"filterPercent"`
}

// DefaultAnalysisConfig returns the stock tuning
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{FilterPercent: 60}
}

// Analysis is the result of finding a bead in a frame
type Analysis struct {
	AverageColor Rgb
	PixelCount   uint32
	Variance     uint32
}

// Camera geometry: the bead sits inside a ring between these radii, centered
// somewhere in the search window. The background rectangle is a flat region
// away from the raised edges of the tray.
const (
	ringInnerRadius = 3
	ringOuterRadius = 7

	searchMinX = 16
	searchMaxX = 24
	searchMinY = 16
	searchMaxY = 18

	bgMinX = 10
	bgMaxX = 15
	bgMinY = 3
	bgMaxY = 6

	// rings scoring below this are treated as an empty tray
	emptyScoreThreshold = -200000
)

func pixelAt(data []byte, width, x, y int) Rgb {
	idx := (y*width + x) * 2
	p := uint16(data[idx])<<8 | uint16(data[idx+1])
	return FromRgb565(p)
}

// Analyze locates the bead in a big-endian RGB565 frame and returns its
// outlier-filtered mean color and variance, or nil when the frame shows an
// empty tray (or is malformed).
func Analyze(data []byte, width, height int, cfg AnalysisConfig) *Analysis {
	if width == 0 || height == 0 || len(data) < width*height*2 {
		return nil
	}

	// estimate the background color from the flat sample rectangle
	var cr, cg, cb, ccnt uint32
	for y := bgMinY; y <= bgMaxY; y++ {
		for x := bgMinX; x <= bgMaxX; x++ {
			if x >= width || y >= height {
				continue
			}
			rgb := pixelAt(data, width, x, y)
			cr += uint32(rgb.R)
			cg += uint32(rgb.G)
			cb += uint32(rgb.B)
			ccnt++
		}
	}
	var bg Rgb
	if ccnt > 0 {
		bg = Rgb{uint8(cr / ccnt), uint8(cg / ccnt), uint8(cb / ccnt)}
	}

	// scan the search window for the ring center that contrasts most with the
	// background while staying uniform
	const rInnerSq = ringInnerRadius * ringInnerRadius
	const rOuterSq = ringOuterRadius * ringOuterRadius

	bestScore := int64(math.MinInt64)
	bestCx, bestCy := -1, -1
	for cy := searchMinY; cy <= searchMaxY; cy++ {
		for cx := searchMinX; cx <= searchMaxX; cx++ {
			var sumR, sumG, sumB uint32
			var sumSqR, sumSqG, sumSqB uint32
			var count uint32

			minY := max(cy-ringOuterRadius, 0)
			maxY := min(cy+ringOuterRadius, height-1)
			minX := max(cx-ringOuterRadius, 0)
			maxX := min(cx+ringOuterRadius, width-1)
			for y := minY; y <= maxY; y++ {
				for x := minX; x <= maxX; x++ {
					dx, dy := x-cx, y-cy
					distSq := dx*dx + dy*dy
					if distSq < rInnerSq || distSq > rOuterSq {
						continue
					}
					rgb := pixelAt(data, width, x, y)
					r, g, b := uint32(rgb.R), uint32(rgb.G), uint32(rgb.B)
					sumR += r
					sumG += g
					sumB += b
					sumSqR += r * r
					sumSqG += g * g
					sumSqB += b * b
					count++
				}
			}
			if count == 0 {
				continue
			}

			meanR, meanG, meanB := sumR/count, sumG/count, sumB/count
			avg := Rgb{uint8(meanR), uint8(meanG), uint8(meanB)}
			variance := satSub(sumSqR/count, meanR*meanR) +
				satSub(sumSqG/count, meanG*meanG) +
				satSub(sumSqB/count, meanB*meanB)

			// contrast against the background, penalized by variance
			score := int64(avg.Dist(bg)) - int64(variance)/8
			if score > bestScore {
				bestScore = score
				bestCx, bestCy = cx, cy
			}
		}
	}
	if bestCx < 0 || bestScore < emptyScoreThreshold {
		return nil
	}

	// refine: collect the ring pixels around the best center, drop the
	// outliers furthest from the mean, and recompute color and variance from
	// what remains
	type ringPixel struct {
		color  Rgb
		distSq uint32
	}
	var pixels []ringPixel
	var sumR, sumG, sumB uint32

	minY := max(bestCy-ringOuterRadius, 0)
	maxY := min(bestCy+ringOuterRadius, height-1)
	minX := max(bestCx-ringOuterRadius, 0)
	maxX := min(bestCx+ringOuterRadius, width-1)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx, dy := x-bestCx, y-bestCy
			distSq := dx*dx + dy*dy
			if distSq < rInnerSq || distSq > rOuterSq {
				continue
			}
			rgb := pixelAt(data, width, x, y)
			pixels = append(pixels, ringPixel{color: rgb})
			sumR += uint32(rgb.R)
			sumG += uint32(rgb.G)
			sumB += uint32(rgb.B)
		}
	}
	if len(pixels) == 0 {
		return nil
	}

	n := uint32(len(pixels))
	mean := Rgb{uint8(sumR / n), uint8(sumG / n), uint8(sumB / n)}
	for i := range pixels {
		pixels[i].distSq = pixels[i].color.Dist(mean)
	}
	sort.Slice(pixels, func(i, j int) bool {
		return pixels[i].distSq < pixels[j].distSq
	})

	filterPercent := cfg.FilterPercent
	if filterPercent <= 0 || filterPercent > 100 {
		filterPercent = DefaultAnalysisConfig().FilterPercent
	}
	keep := len(pixels) * filterPercent / 100
	if keep < 1 {
		keep = 1
	}

	var fSumR, fSumG, fSumB uint32
	var fSumSqR, fSumSqG, fSumSqB uint32
	for _, p := range pixels[:keep] {
		r, g, b := uint32(p.color.R), uint32(p.color.G), uint32(p.color.B)
		fSumR += r
		fSumG += g
		fSumB += b
		fSumSqR += r * r
		fSumSqG += g * g
		fSumSqB += b * b
	}
	k := uint32(keep)
	meanR, meanG, meanB := fSumR/k, fSumG/k, fSumB/k
	return &Analysis{
		AverageColor: Rgb{uint8(meanR), uint8(meanG), uint8(meanB)},
		PixelCount:   k,
		Variance: satSub(fSumSqR/k, meanR*meanR) +
			satSub(fSumSqG/k, meanG*meanG) +
			satSub(fSumSqB/k, meanB*meanB),
	}
}

func satSub(a, b uint32) uint32 {
	if a < b {
		return 0
	}
	return a - b
}

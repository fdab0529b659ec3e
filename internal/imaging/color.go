package imaging

import (
	"fmt"
	"sort"

	"github.com/ironsheep/image-views/internal/raster"
)

// RGBColor is an 8-bit RGB color.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a pixel value in several representations.
type ColorResult struct {
	Hex   string     `json:"hex"`   // "#RRGGBB"
	RGB   RGBColor   `json:"rgb"`   // rounded 8-bit components
	HSL   HSLColor   `json:"hsl"`   // derived from RGB
	Value raster.RGB `json:"value"` // stored components in [0, 1]
}

// SampleColor reads the pixel at (x, y) of img.
//
// Coordinates use the raster convention: (0, 0) is the bottom-left pixel and
// y grows upward.
func SampleColor(img *raster.Image, x, y int) (*ColorResult, error) {
	if x < 0 || x >= img.Width() || y < 0 || y >= img.Height() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d",
			x, y, img.Width(), img.Height())
	}
	c := img.At(x, y)
	res := colorResult(c)
	return &res, nil
}

func colorResult(c raster.RGB) ColorResult {
	r8, g8, b8 := to8(c.R), to8(c.G), to8(c.B)
	return ColorResult{
		Hex:   fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB:   RGBColor{R: r8, G: g8, B: b8},
		HSL:   rgbToHSL(r8, g8, b8),
		Value: c,
	}
}

func to8(v float64) uint8 {
	return uint8(raster.Clamp(v)*255 + 0.5)
}

// LabeledPoint is a coordinate to sample, with an optional label.
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledColorResult is a sample together with where it was taken.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// MultiColorResult lists samples in input order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti samples every point. If any point is out of bounds no
// partial result is returned.
func SampleColorsMulti(img *raster.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		color, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *color,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// ColorFrequency is one entry of DominantColors.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // quantized "#RRGGBB"
	Percentage float64  `json:"percentage"` // share of pixels, 0-100
	RGB        RGBColor `json:"rgb"`
}

// DominantColorsResult lists colors by descending frequency.
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"`
}

// DominantColors returns up to count of the most common colors of img.
//
// Components are quantized to multiples of 16 before counting, so colors
// within 16 levels of each other per channel are grouped. Ties are broken by
// hex value so the order is stable.
func DominantColors(img *raster.Image, count int) (*DominantColorsResult, error) {
	if count < 1 {
		return nil, fmt.Errorf("count must be >= 1, got %d", count)
	}
	if img.Empty() {
		return &DominantColorsResult{Colors: []ColorFrequency{}}, nil
	}

	counts := make(map[RGBColor]int)
	for _, c := range img.Pix {
		q := RGBColor{R: to8(c.R) / 16 * 16, G: to8(c.G) / 16 * 16, B: to8(c.B) / 16 * 16}
		counts[q]++
	}

	total := float64(len(img.Pix))
	colors := make([]ColorFrequency, 0, len(counts))
	for rgb, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B),
			Percentage: float64(n) / total * 100,
			RGB:        rgb,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}

	return &DominantColorsResult{Colors: colors}, nil
}

// rgbToHSL converts 8-bit RGB values to HSL color space.
//
// The conversion follows the standard algorithm:
//  1. Normalize RGB to 0-1 range
//  2. Find min and max components
//  3. Calculate Lightness as (max + min) / 2
//  4. Calculate Saturation based on lightness
//  5. Calculate Hue based on which component is max
//
// Parameters:
//   - r, g, b: 8-bit color components (0-255)
//
// Returns HSLColor with:
//   - H: 0-360 (degrees on color wheel)
//   - S: 0-100 (percentage)
//   - L: 0-100 (percentage)
func rgbToHSL(r, g, b uint8) HSLColor {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	max := rf
	if gf > max {
		max = gf
	}
	if bf > max {
		max = bf
	}

	min := rf
	if gf < min {
		min = gf
	}
	if bf < min {
		min = bf
	}

	l := (max + min) / 2.0

	if max == min {
		return HSLColor{H: 0, S: 0, L: int(l * 100)}
	}

	var s float64
	if l < 0.5 {
		s = (max - min) / (max + min)
	} else {
		s = (max - min) / (2.0 - max - min)
	}

	var h float64
	switch max {
	case rf:
		h = (gf - bf) / (max - min)
		if gf < bf {
			h += 6
		}
	case gf:
		h = 2.0 + (bf-rf)/(max-min)
	case bf:
		h = 4.0 + (rf-gf)/(max-min)
	}
	h *= 60

	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}

// Package kernel holds the two pixel transforms whose algorithms live in this
// repository: the edge-attenuated highlight composite and the 3x3 block
// pixelation. Both are pure: inputs are read-only and every call returns a
// freshly allocated image.
package kernel

import (
	"fmt"
	"strings"

	"github.com/ironsheep/image-views/internal/raster"
)

// DefaultThreshold is the edge attenuation used when none is configured.
const DefaultThreshold = 0.1

// ClampMode selects how Highlight constrains its output channels.
type ClampMode int

const (
	// ClampIndependent clamps each channel to [0, 1] on its own.
	ClampIndependent ClampMode = iota

	// ClampLegacy reproduces the historical output bit for bit: red is
	// clamped to [0, 1], green and blue are only clamped below at 0, and an
	// overflow in green or blue forces red to 1 instead of clamping itself.
	ClampLegacy
)

// String returns the config spelling of the mode.
func (m ClampMode) String() string {
	switch m {
	case ClampIndependent:
		return "independent"
	case ClampLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("ClampMode(%d)", int(m))
	}
}

// ParseClampMode parses "independent" or "legacy" (case-insensitive).
func ParseClampMode(s string) (ClampMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "independent":
		return ClampIndependent, nil
	case "legacy":
		return ClampLegacy, nil
	default:
		return ClampIndependent, fmt.Errorf("unknown clamp mode %q", s)
	}
}

// Highlight computes src - threshold*edges per pixel and per channel, clamped
// according to mode. The threshold is not range checked.
//
// Returns an error wrapping raster.ErrDimensionMismatch if src and edges
// differ in width or height.
func Highlight(src, edges *raster.Image, threshold float64, mode ClampMode) (*raster.Image, error) {
	if err := src.SameSize(edges); err != nil {
		return nil, fmt.Errorf("highlight: %w", err)
	}

	dst := raster.New(src.Width(), src.Height())
	for i, s := range src.Pix {
		e := edges.Pix[i]
		r := s.R - threshold*e.R
		g := s.G - threshold*e.G
		b := s.B - threshold*e.B

		if mode == ClampLegacy {
			dst.Pix[i] = legacyClamp(r, g, b)
			continue
		}
		dst.Pix[i] = raster.RGB{
			R: raster.Clamp(r),
			G: raster.Clamp(g),
			B: raster.Clamp(b),
		}
	}
	return dst, nil
}

// legacyClamp mirrors the historical clipping sequence, including the green
// and blue upper bounds that write into red.
func legacyClamp(r, g, b float64) raster.RGB {
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	if g < 0 {
		g = 0
	}
	if g > 1 {
		r = 1
	}
	if b < 0 {
		b = 0
	}
	if b > 1 {
		r = 1
	}
	return raster.RGB{R: r, G: g, B: b}
}

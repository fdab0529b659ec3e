// Package filter provides the image filters the view set derives its
// library-backed views from.
//
// Every filter reads its input without modifying it and returns a newly
// allocated raster.Image of the same width and height. Inputs a filter
// cannot handle fail with an error wrapping ErrUnsupportedInput; callers are
// expected to propagate it without interpretation.
package filter

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/image-views/internal/raster"
)

// ErrUnsupportedInput is returned when a filter cannot process its input.
var ErrUnsupportedInput = errors.New("unsupported input")

// Library is the set of filters the view set depends on.
type Library interface {
	Edges(img *raster.Image) (*raster.Image, error)
	Grey(img *raster.Image) (*raster.Image, error)
	Gauss(img *raster.Image) (*raster.Image, error)
	Median(img *raster.Image) (*raster.Image, error)
	ReduceColors(img *raster.Image, colors int) (*raster.Image, error)
	Otsu(img *raster.Image) (*raster.Image, error)
	Ohbuchi(img *raster.Image) (*raster.Image, error)
}

// EdgeDetector selects the algorithm behind Standard.Edges.
type EdgeDetector int

const (
	// Sobel produces the gradient magnitude of the luminance.
	Sobel EdgeDetector = iota

	// Canny produces a binary edge map: 1 on edges, 0 elsewhere.
	Canny
)

func (d EdgeDetector) String() string {
	if d == Canny {
		return "canny"
	}
	return "sobel"
}

// ParseEdgeDetector parses "sobel" or "canny" (case-insensitive).
func ParseEdgeDetector(s string) (EdgeDetector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sobel":
		return Sobel, nil
	case "canny":
		return Canny, nil
	default:
		return Sobel, fmt.Errorf("unknown edge detector %q", s)
	}
}

const (
	gaussRadius  = 1.0
	medianRadius = 1.0
)

// Standard is the default Library, built on bild and go-colorful.
// The zero value uses Sobel edges.
type Standard struct {
	Detector EdgeDetector
}

// NewStandard returns a Standard library using the given edge detector.
func NewStandard(detector EdgeDetector) *Standard {
	return &Standard{Detector: detector}
}

// Edges returns the edge map of img.
func (s *Standard) Edges(img *raster.Image) (*raster.Image, error) {
	if err := checkInput("edges", img); err != nil {
		return nil, err
	}
	if s.Detector == Canny {
		return CannyEdges(img, DefaultCannyLow, DefaultCannyHigh), nil
	}
	return apply(img, func(src image.Image) image.Image {
		return effect.Sobel(src)
	}), nil
}

// Grey returns the luminance of img replicated across all three channels.
func (s *Standard) Grey(img *raster.Image) (*raster.Image, error) {
	if err := checkInput("grey", img); err != nil {
		return nil, err
	}
	return apply(img, func(src image.Image) image.Image {
		return effect.Grayscale(src)
	}), nil
}

// Gauss returns img smoothed with a small Gaussian kernel.
func (s *Standard) Gauss(img *raster.Image) (*raster.Image, error) {
	if err := checkInput("gauss", img); err != nil {
		return nil, err
	}
	return apply(img, func(src image.Image) image.Image {
		return blur.Gaussian(src, gaussRadius)
	}), nil
}

// Median returns img with each pixel replaced by the median of its neighborhood.
func (s *Standard) Median(img *raster.Image) (*raster.Image, error) {
	if err := checkInput("median", img); err != nil {
		return nil, err
	}
	return apply(img, func(src image.Image) image.Image {
		return effect.Median(src, medianRadius)
	}), nil
}

// checkInput rejects images no filter can process.
func checkInput(op string, img *raster.Image) error {
	if img == nil || img.Empty() {
		return fmt.Errorf("%s: %w: empty image", op, ErrUnsupportedInput)
	}
	return nil
}

// apply runs an image.Image filter over img, converting at the boundary.
func apply(img *raster.Image, fn func(image.Image) image.Image) *raster.Image {
	return raster.FromImage(fn(img.ToNRGBA()))
}

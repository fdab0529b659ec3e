package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// ErrDimensionMismatch is returned when two images that must share a size do not.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// RGB is a single pixel with float channels.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Image is a width x height buffer of RGB pixels, row-major, bottom-left origin.
type Image struct {
	width  int
	height int
	Pix    []RGB
}

// New allocates a black image of the given size. Negative sizes are treated as zero.
func New(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		width:  width,
		height: height,
		Pix:    make([]RGB, width*height),
	}
}

// Filled allocates an image with every pixel set to c.
func Filled(width, height int, c RGB) *Image {
	img := New(width, height)
	for i := range img.Pix {
		img.Pix[i] = c
	}
	return img
}

// Width returns the width of the image in pixels.
func (img *Image) Width() int {
	return img.width
}

// Height returns the height of the image in pixels.
func (img *Image) Height() int {
	return img.height
}

// Empty reports whether the image has no pixels.
func (img *Image) Empty() bool {
	return img.width == 0 || img.height == 0
}

// At returns the pixel at (x, y). Out of range coordinates return black.
func (img *Image) At(x, y int) RGB {
	if x < 0 || x >= img.width || y < 0 || y >= img.height {
		return RGB{}
	}
	return img.Pix[y*img.width+x]
}

// Set writes the pixel at (x, y). Out of range coordinates are ignored.
func (img *Image) Set(x, y int, c RGB) {
	if x < 0 || x >= img.width || y < 0 || y >= img.height {
		return
	}
	img.Pix[y*img.width+x] = c
}

// Copy returns a deep copy that shares no memory with img.
func (img *Image) Copy() *Image {
	dst := &Image{
		width:  img.width,
		height: img.height,
		Pix:    make([]RGB, len(img.Pix)),
	}
	copy(dst.Pix, img.Pix)
	return dst
}

// SameSize returns ErrDimensionMismatch, wrapped with both sizes, if other
// differs from img in width or height.
func (img *Image) SameSize(other *Image) error {
	if img.width != other.width || img.height != other.height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
			img.width, img.height, other.width, other.height)
	}
	return nil
}

// Equal reports whether both images have the same size and identical pixels.
func (img *Image) Equal(other *Image) bool {
	if img.SameSize(other) != nil {
		return false
	}
	for i := range img.Pix {
		if img.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// FromImage converts a decoded image into a raster Image, flipping rows so
// that the bottom row of src becomes row 0.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	img := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < img.height; y++ {
		sy := bounds.Max.Y - 1 - y
		for x := 0; x < img.width; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, sy).RGBA()
			img.Pix[y*img.width+x] = RGB{
				R: float64(r) / 0xffff,
				G: float64(g) / 0xffff,
				B: float64(b) / 0xffff,
			}
		}
	}
	return img
}

// ToNRGBA converts the image to an opaque *image.NRGBA with a top-left origin.
// Channels outside [0, 1] are clamped during conversion.
func (img *Image) ToNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	for y := 0; y < img.height; y++ {
		dy := img.height - 1 - y
		for x := 0; x < img.width; x++ {
			p := img.Pix[y*img.width+x]
			dst.SetNRGBA(x, dy, color.NRGBA{
				R: toByte(p.R),
				G: toByte(p.G),
				B: toByte(p.B),
				A: 255,
			})
		}
	}
	return dst
}

// Clamp constrains v to [0, 1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float64) uint8 {
	return uint8(math.Round(Clamp(v) * 255))
}

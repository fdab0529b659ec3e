package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultThumbSize is the longest side of a gallery thumbnail.
	DefaultThumbSize = 160

	galleryPadding = 6
	labelHeight    = 16
)

// GalleryOptions controls the contact sheet layout.
type GalleryOptions struct {
	// ThumbSize is the longest side of each thumbnail. Zero means
	// DefaultThumbSize.
	ThumbSize int

	// Columns is the number of thumbnails per row. Zero picks a near square
	// layout.
	Columns int

	// Background is a "#RRGGBB" or "#RRGGBBAA" color. Empty means dark gray.
	Background string
}

// Gallery lays out every entry as a labeled thumbnail, in order, left to
// right and top to bottom. Thumbnails keep the aspect ratio of their view.
func Gallery(entries []Entry, opts GalleryOptions) (*image.NRGBA, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("gallery: no views")
	}
	thumb := opts.ThumbSize
	if thumb == 0 {
		thumb = DefaultThumbSize
	}
	if thumb < 8 {
		return nil, fmt.Errorf("gallery: thumbnail size %d too small", thumb)
	}
	cols := opts.Columns
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(entries)))))
	}
	if cols > len(entries) {
		cols = len(entries)
	}
	rows := (len(entries) + cols - 1) / cols

	bg := color.RGBA{R: 32, G: 32, B: 32, A: 255}
	if opts.Background != "" {
		c, err := parseHexColor(opts.Background)
		if err != nil {
			return nil, fmt.Errorf("gallery: background %q: %w", opts.Background, err)
		}
		bg = c
	}

	cellW := thumb + galleryPadding
	cellH := thumb + labelHeight + galleryPadding
	sheet := imaging.New(cols*cellW+galleryPadding, rows*cellH+galleryPadding, bg)

	for i, e := range entries {
		if e.Image == nil || e.Image.Empty() {
			return nil, fmt.Errorf("gallery: view %s is empty", e.Name)
		}
		small := resize.Thumbnail(uint(thumb), uint(thumb), e.Image.ToNRGBA(), resize.Bilinear)
		sb := small.Bounds()

		x0 := galleryPadding + (i%cols)*cellW
		y0 := galleryPadding + (i/cols)*cellH
		pos := image.Pt(x0+(thumb-sb.Dx())/2, y0+(thumb-sb.Dy())/2)
		sheet = imaging.Paste(sheet, small, pos)

		drawLabel(sheet, x0, y0+thumb, thumb, e.Name)
	}
	return sheet, nil
}

// RenderGallery builds the gallery and encodes it like Render.
func RenderGallery(entries []Entry, opts GalleryOptions) (*RenderResult, error) {
	sheet, err := Gallery(entries, opts)
	if err != nil {
		return nil, err
	}
	return encodePNG(sheet)
}

// drawLabel centers text in the label strip below a thumbnail.
func drawLabel(dst *image.NRGBA, x, y, width int, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	adv := d.MeasureString(text).Ceil()
	left := x + (width-adv)/2
	if left < x {
		left = x
	}
	d.Dot = fixed.P(left, y+face.Ascent+(labelHeight-face.Height)/2)
	d.DrawString(text)
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-views/internal/raster"
)

// MaxRenderSize bounds each side of a rendered image, in pixels.
const MaxRenderSize = 8192

// RenderResult is an encoded image ready to be shown by a client.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Render encodes img as a base64 PNG, top row first. A scale other than 1
// resizes the output with a Lanczos filter; scale must be positive and a
// resized output may not exceed MaxRenderSize on either side.
func Render(img *raster.Image, scale float64) (*RenderResult, error) {
	if img == nil || img.Empty() {
		return nil, fmt.Errorf("nothing to render")
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("invalid scale %v: must be > 0", scale)
	}

	var out image.Image = img.ToNRGBA()
	if scale != 1.0 {
		fw := float64(img.Width())*scale + 0.5
		fh := float64(img.Height())*scale + 0.5
		if fw >= MaxRenderSize+1 || fh >= MaxRenderSize+1 {
			return nil, fmt.Errorf("invalid scale %v: %dx%d view would exceed %d pixels per side",
				scale, img.Width(), img.Height(), MaxRenderSize)
		}
		w := int(fw)
		h := int(fh)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}
	return encodePNG(out)
}

func encodePNG(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

package kernel

import "github.com/ironsheep/image-views/internal/raster"

// blockOffsets lists the 3x3 neighborhood around a lattice center.
var blockOffsets = [9][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Pixelate returns a mosaic of src. Starting from a copy of src, every 3x3
// block centered on the lattice x = 1, 4, 7, ... and y = 1, 4, 7, ... that
// fits inside the image is replaced by the per-channel mean of its nine source
// pixels.
//
// Pixels outside every lattice block keep their source value. A width or
// height that is not a multiple of 3 leaves a one or two pixel margin on the
// right or top untouched. A block whose nine pixels are all equal keeps that
// value exactly.
func Pixelate(src *raster.Image) *raster.Image {
	dst := src.Copy()
	w, h := src.Width(), src.Height()

	for y := 1; y < h-1; y += 3 {
		for x := 1; x < w-1; x += 3 {
			var sum raster.RGB
			first := src.Pix[y*w+x]
			uniform := true
			for _, off := range blockOffsets {
				p := src.Pix[(y+off[1])*w+x+off[0]]
				sum.R += p.R
				sum.G += p.G
				sum.B += p.B
				uniform = uniform && p == first
			}
			avg := first
			if !uniform {
				n := float64(len(blockOffsets))
				avg = raster.RGB{R: sum.R / n, G: sum.G / n, B: sum.B / n}
			}

			for _, off := range blockOffsets {
				dst.Pix[(y+off[1])*w+x+off[0]] = avg
			}
		}
	}
	return dst
}

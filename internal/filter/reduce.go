package filter

import (
	"fmt"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-views/internal/raster"
)

// ReduceColors returns img restricted to a palette of at most colors entries.
//
// The palette is chosen by median cut: starting from one box holding every
// pixel, the box with the widest channel range is split at the median of that
// channel until there are colors boxes or no box can be split further. Each
// palette entry is the mean of its box. Pixels are then mapped to the palette
// entry nearest in CIE L*a*b*.
func (s *Standard) ReduceColors(img *raster.Image, colors int) (*raster.Image, error) {
	if err := checkInput("reduce", img); err != nil {
		return nil, err
	}
	if colors < 1 {
		return nil, fmt.Errorf("reduce: %w: color count %d", ErrUnsupportedInput, colors)
	}

	palette := medianCut(img.Pix, colors)
	mapper := newLabMapper(palette)

	dst := raster.New(img.Width(), img.Height())
	for i, p := range img.Pix {
		dst.Pix[i] = mapper.nearest(p)
	}
	return dst, nil
}

// colorBox is a set of pixels sharing one palette entry.
type colorBox struct {
	pix []raster.RGB
}

// widest returns the channel (0=R, 1=G, 2=B) with the largest range and that range.
func (b colorBox) widest() (int, float64) {
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range b.pix {
		for c, v := range channels(p) {
			lo[c] = math.Min(lo[c], v)
			hi[c] = math.Max(hi[c], v)
		}
	}
	best, span := 0, -1.0
	for c := 0; c < 3; c++ {
		if hi[c]-lo[c] > span {
			best, span = c, hi[c]-lo[c]
		}
	}
	return best, span
}

func (b colorBox) mean() raster.RGB {
	var sum raster.RGB
	for _, p := range b.pix {
		sum.R += p.R
		sum.G += p.G
		sum.B += p.B
	}
	n := float64(len(b.pix))
	return raster.RGB{R: sum.R / n, G: sum.G / n, B: sum.B / n}
}

func channels(p raster.RGB) [3]float64 {
	return [3]float64{p.R, p.G, p.B}
}

// medianCut partitions pix into at most n boxes and returns their means.
func medianCut(pix []raster.RGB, n int) []raster.RGB {
	work := make([]raster.RGB, len(pix))
	copy(work, pix)
	boxes := []colorBox{{pix: work}}

	for len(boxes) < n {
		idx, channel, span := -1, 0, 0.0
		for i, b := range boxes {
			if len(b.pix) < 2 {
				continue
			}
			c, sp := b.widest()
			if sp > span {
				idx, channel, span = i, c, sp
			}
		}
		if idx < 0 {
			break
		}

		box := boxes[idx].pix
		sort.SliceStable(box, func(i, j int) bool {
			return channels(box[i])[channel] < channels(box[j])[channel]
		})
		mid := len(box) / 2
		boxes[idx] = colorBox{pix: box[:mid]}
		boxes = append(boxes, colorBox{pix: box[mid:]})
	}

	palette := make([]raster.RGB, len(boxes))
	for i, b := range boxes {
		palette[i] = b.mean()
	}
	return palette
}

// labMapper finds the nearest palette entry in L*a*b* space. Lab coordinates
// are computed once per palette entry and once per distinct source color.
type labMapper struct {
	palette []raster.RGB
	lab     [][3]float64
	memo    map[raster.RGB]raster.RGB
}

func newLabMapper(palette []raster.RGB) *labMapper {
	m := &labMapper{
		palette: palette,
		lab:     make([][3]float64, len(palette)),
		memo:    make(map[raster.RGB]raster.RGB),
	}
	for i, p := range palette {
		m.lab[i] = toLab(p)
	}
	return m
}

func (m *labMapper) nearest(p raster.RGB) raster.RGB {
	if c, ok := m.memo[p]; ok {
		return c
	}
	l := toLab(p)
	best, bestDist := 0, math.Inf(1)
	for i, q := range m.lab {
		dl, da, db := l[0]-q[0], l[1]-q[1], l[2]-q[2]
		if d := dl*dl + da*da + db*db; d < bestDist {
			best, bestDist = i, d
		}
	}
	m.memo[p] = m.palette[best]
	return m.palette[best]
}

func toLab(p raster.RGB) [3]float64 {
	l, a, b := colorful.Color{R: p.R, G: p.G, B: p.B}.Lab()
	return [3]float64{l, a, b}
}

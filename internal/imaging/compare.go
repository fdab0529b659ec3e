package imaging

import (
	"math"

	"github.com/ironsheep/image-views/internal/raster"
)

// diffThreshold is the mean 8-bit channel difference above which a pixel
// counts as changed.
const diffThreshold = 10

// CompareResult summarizes how two same-sized views differ.
type CompareResult struct {
	SimilarityScore  float64 `json:"similarity_score"`
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	AverageColorDiff float64 `json:"average_color_diff"`
}

// CompareViews compares a and b pixel by pixel. It returns an error wrapping
// raster.ErrDimensionMismatch if their sizes differ.
func CompareViews(a, b *raster.Image) (*CompareResult, error) {
	if err := a.SameSize(b); err != nil {
		return nil, err
	}

	total := len(a.Pix)
	if total == 0 {
		return &CompareResult{SimilarityScore: 1}, nil
	}

	different := 0
	var sum float64
	for i, pa := range a.Pix {
		pb := b.Pix[i]
		diff := float64(absDiff(to8(pa.R), to8(pb.R))+
			absDiff(to8(pa.G), to8(pb.G))+
			absDiff(to8(pa.B), to8(pb.B))) / 3.0
		sum += diff
		if diff > diffThreshold {
			different++
		}
	}

	similarity := 1.0 - float64(different)/float64(total)
	return &CompareResult{
		SimilarityScore:  math.Round(similarity*1000) / 1000,
		PixelsDifferent:  different,
		TotalPixels:      total,
		AverageColorDiff: math.Round(sum/float64(total)*100) / 100,
	}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

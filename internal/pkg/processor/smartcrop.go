package processor

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
)

// resizer implements the smartcrop.Resizer interface on top of imaging.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// smartcropOffset lets smartcrop pick a region on the analysis image and
// centres the exact-size window on it.
func smartcropOffset(a analysis, frame coverFrame) (image.Point, error) {
	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: imaging.Linear})

	crop, err := analyzer.FindBestCrop(a.img, a.window.X, a.window.Y)
	if err != nil {
		return image.Point{}, fmt.Errorf("finding best crop: %w", err)
	}

	cx := float64(crop.Min.X+crop.Max.X) / 2 / a.factor
	cy := float64(crop.Min.Y+crop.Max.Y) / 2 / a.factor
	offset := image.Pt(
		int(math.Round(cx-float64(frame.Target.X)/2)),
		int(math.Round(cy-float64(frame.Target.Y)/2)),
	)
	return clampOffset(offset, frame.Slack()), nil
}

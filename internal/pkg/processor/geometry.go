package processor

import (
	"fmt"
	"image"
	"math"

	"github.com/ds124wfegd/WB_L3/position/internal/entity"
)

// coverFrame is a cover-fit plan: the source scaled to Scaled fully covers
// Target, and the crop window of Target's size slides within Slack.
type coverFrame struct {
	Scale  float64
	Scaled image.Point
	Target image.Point
}

func (f coverFrame) Slack() image.Point {
	return f.Scaled.Sub(f.Target)
}

// Window is the crop rectangle, in scaled coordinates, for the given offset.
func (f coverFrame) Window(offset image.Point) image.Rectangle {
	return image.Rectangle{Min: offset, Max: offset.Add(f.Target)}
}

// boundedFitSize shrinks to maxHeight, never enlarges and keeps the aspect ratio.
func boundedFitSize(srcW, srcH, maxHeight int) (int, int, error) {
	if srcW <= 0 || srcH <= 0 || maxHeight <= 0 {
		return 0, 0, fmt.Errorf("%w: bounded fit of %dx%d into height %d", entity.ErrInvalidGeometry, srcW, srcH, maxHeight)
	}

	scale := math.Min(1, float64(maxHeight)/float64(srcH))
	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))

	// a 1px-wide strip stays 1px wide instead of vanishing
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h, nil
}

func newCoverFrame(srcW, srcH, targetW, targetH int) (coverFrame, error) {
	if srcW <= 0 || srcH <= 0 || targetW <= 0 || targetH <= 0 {
		return coverFrame{}, fmt.Errorf("%w: cover fit of %dx%d into %dx%d", entity.ErrInvalidGeometry, srcW, srcH, targetW, targetH)
	}

	scale := math.Max(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return coverFrame{}, fmt.Errorf("%w: scale %v", entity.ErrInvalidGeometry, scale)
	}

	sw := int(math.Round(float64(srcW) * scale))
	sh := int(math.Round(float64(srcH) * scale))
	// rounding may land one pixel short of the target
	if sw < targetW {
		sw = targetW
	}
	if sh < targetH {
		sh = targetH
	}

	return coverFrame{
		Scale:  scale,
		Scaled: image.Pt(sw, sh),
		Target: image.Pt(targetW, targetH),
	}, nil
}

// gravityOffset places the window at a fixed corner, edge midpoint or the centre.
func gravityOffset(g entity.Gravity, slack image.Point) image.Point {
	midX, midY := slack.X/2, slack.Y/2
	switch g {
	case entity.GravityNorth:
		return image.Pt(midX, 0)
	case entity.GravityNorthEast:
		return image.Pt(slack.X, 0)
	case entity.GravityEast:
		return image.Pt(slack.X, midY)
	case entity.GravitySouthEast:
		return image.Pt(slack.X, slack.Y)
	case entity.GravitySouth:
		return image.Pt(midX, slack.Y)
	case entity.GravitySouthWest:
		return image.Pt(0, slack.Y)
	case entity.GravityWest:
		return image.Pt(0, midY)
	case entity.GravityNorthWest:
		return image.Pt(0, 0)
	default:
		return image.Pt(midX, midY)
	}
}

func clampOffset(p, slack image.Point) image.Point {
	return image.Pt(clampInt(p.X, 0, slack.X), clampInt(p.Y, 0, slack.Y))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package processor

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/WB_L3/position/internal/entity"
)

// Transform resizes buf according to mode: bounded fit for Origin, cover fit
// plus an anchored crop for everything else.
func (p *imageProcessor) Transform(ctx context.Context, buf *ImageBuffer, mode entity.AnchorMode) (*ImageBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidGeometry, err)
	}

	target, err := p.TargetFor(mode)
	if err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if target.Bounded() {
		w, h, err := boundedFitSize(buf.Width(), buf.Height(), target.MaxHeight)
		if err != nil {
			return nil, err
		}
		return &ImageBuffer{img: imaging.Resize(buf.img, w, h, p.resampler), Format: buf.Format}, nil
	}

	frame, window, err := p.cropWindow(ctx, buf, mode, target)
	if err != nil {
		return nil, err
	}

	out := p.renderCover(buf.img, frame, window)
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if out.Rect.Dx() != target.Width || out.Rect.Dy() != target.Height {
		return nil, fmt.Errorf("%w: produced %dx%d, want %dx%d", entity.ErrInvalidGeometry, out.Rect.Dx(), out.Rect.Dy(), target.Width, target.Height)
	}
	return &ImageBuffer{img: out, Format: buf.Format}, nil
}

// cropWindow plans a cover fit and picks the crop rectangle in scaled coordinates.
func (p *imageProcessor) cropWindow(ctx context.Context, buf *ImageBuffer, mode entity.AnchorMode, target entity.TargetSize) (coverFrame, image.Rectangle, error) {
	frame, err := newCoverFrame(buf.Width(), buf.Height(), target.Width, target.Height)
	if err != nil {
		return coverFrame{}, image.Rectangle{}, err
	}

	offset, err := p.anchorOffset(ctx, buf.img, frame, mode)
	if err != nil {
		return coverFrame{}, image.Rectangle{}, err
	}

	if clamped := clampOffset(offset, frame.Slack()); clamped != offset {
		return coverFrame{}, image.Rectangle{}, fmt.Errorf("%w: offset %v outside slack %v", entity.ErrInvalidGeometry, offset, frame.Slack())
	}
	return frame, frame.Window(offset), nil
}

func (p *imageProcessor) anchorOffset(ctx context.Context, src *image.NRGBA, frame coverFrame, mode entity.AnchorMode) (image.Point, error) {
	switch mode.Kind {
	case entity.AnchorGravity:
		return gravityOffset(mode.Gravity, frame.Slack()), nil
	case entity.AnchorEntropy:
		if frame.Slack() == (image.Point{}) {
			return image.Point{}, nil
		}
		a := newAnalysis(src, frame)
		return searchWindow(ctx, a, frame, newEntropyMap(a.img))
	case entity.AnchorAttention:
		if frame.Slack() == (image.Point{}) {
			return image.Point{}, nil
		}
		a := newAnalysis(src, frame)
		if p.cfg.AttentionEngine == AttentionSmartcrop {
			return smartcropOffset(a, frame)
		}
		return searchWindow(ctx, a, frame, newSaliencyMap(a.img, p.detectFaces(src, a)))
	default:
		return image.Point{}, fmt.Errorf("%w: %s", entity.ErrUnsupportedAnchor, mode)
	}
}

// renderCover resamples the source and cuts out window. When the fully scaled
// image would be too big to hold, only the part under the window is resampled.
func (p *imageProcessor) renderCover(src *image.NRGBA, frame coverFrame, window image.Rectangle) *image.NRGBA {
	limit := p.cfg.MaxPixels
	if limit <= 0 {
		limit = DefaultConfig().MaxPixels
	}

	if int64(frame.Scaled.X)*int64(frame.Scaled.Y) <= limit {
		scaled := imaging.Resize(src, frame.Scaled.X, frame.Scaled.Y, p.resampler)
		return imaging.Crop(scaled, window)
	}

	srcRect := image.Rect(
		int(math.Floor(float64(window.Min.X)/frame.Scale)),
		int(math.Floor(float64(window.Min.Y)/frame.Scale)),
		int(math.Ceil(float64(window.Max.X)/frame.Scale)),
		int(math.Ceil(float64(window.Max.Y)/frame.Scale)),
	).Intersect(src.Rect)
	return imaging.Resize(imaging.Crop(src, srcRect), frame.Target.X, frame.Target.Y, p.resampler)
}

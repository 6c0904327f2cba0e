package processor

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/faces"
	"github.com/sirupsen/logrus"
)

const (
	AttentionSaliency  = "saliency"
	AttentionSmartcrop = "smartcrop"
)

type Config struct {
	MaxUploadBytes  int64
	MaxPixels       int64
	OriginMaxHeight int
	CoverWidth      int
	CoverHeight     int
	JPEGQuality     int
	AutoOrient      bool
	AttentionEngine string
	Faces           faces.Detector // optional
}

func DefaultConfig() Config {
	return Config{
		MaxUploadBytes:  8 << 20,
		MaxPixels:       40_000_000,
		OriginMaxHeight: 260,
		CoverWidth:      1080,
		CoverHeight:     1080,
		JPEGQuality:     90,
		AutoOrient:      true,
		AttentionEngine: AttentionSaliency,
	}
}

// ImageProcessor is the decode → transform → encode pipeline. It holds no
// per-request state and is safe for concurrent use.
type ImageProcessor interface {
	Decode(ctx context.Context, raw []byte) (*ImageBuffer, error)
	Transform(ctx context.Context, buf *ImageBuffer, mode entity.AnchorMode) (*ImageBuffer, error)
	Encode(ctx context.Context, buf *ImageBuffer) (*entity.EncodedResult, error)
	Process(ctx context.Context, raw []byte, mode entity.AnchorMode) (*entity.EncodedResult, error)
}

type imageProcessor struct {
	cfg       Config
	resampler imaging.ResampleFilter
}

func NewImageProcessor(cfg Config) ImageProcessor {
	if cfg.AttentionEngine == "" {
		cfg.AttentionEngine = AttentionSaliency
	}
	return &imageProcessor{cfg: cfg, resampler: imaging.Lanczos}
}

// Process runs the whole chain and stops at the first failing stage.
func (p *imageProcessor) Process(ctx context.Context, raw []byte, mode entity.AnchorMode) (*entity.EncodedResult, error) {
	src, err := p.Decode(ctx, raw)
	if err != nil {
		return nil, err
	}

	out, err := p.Transform(ctx, src, mode)
	if err != nil {
		return nil, err
	}

	result, err := p.Encode(ctx, out)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"position": mode.String(),
		"width":    result.Width,
		"height":   result.Height,
		"bytes":    len(result.Bytes),
	}).Debug("image processed")
	return result, nil
}

// TargetFor derives the output geometry from the anchor mode alone.
func (p *imageProcessor) TargetFor(mode entity.AnchorMode) (entity.TargetSize, error) {
	switch mode.Kind {
	case entity.AnchorOrigin:
		return entity.TargetSize{MaxHeight: p.cfg.OriginMaxHeight}, nil
	case entity.AnchorGravity:
		if !mode.Gravity.Valid() {
			return entity.TargetSize{}, fmt.Errorf("%w: %s", entity.ErrUnsupportedAnchor, mode)
		}
		return entity.TargetSize{Width: p.cfg.CoverWidth, Height: p.cfg.CoverHeight}, nil
	case entity.AnchorEntropy, entity.AnchorAttention:
		return entity.TargetSize{Width: p.cfg.CoverWidth, Height: p.cfg.CoverHeight}, nil
	default:
		return entity.TargetSize{}, fmt.Errorf("%w: %s", entity.ErrUnsupportedAnchor, mode)
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

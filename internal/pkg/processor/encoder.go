package processor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/WB_L3/position/internal/entity"
)

// Encode always writes JPEG at the configured quality.
func (p *imageProcessor) Encode(ctx context.Context, buf *ImageBuffer) (*entity.EncodedResult, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncodeFailure, err)
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, buf.img, imaging.JPEG, imaging.JPEGQuality(p.cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncodeFailure, err)
	}

	return &entity.EncodedResult{
		Bytes:     out.Bytes(),
		MediaType: entity.MediaTypeJPEG,
		Quality:   p.cfg.JPEGQuality,
		Width:     buf.Width(),
		Height:    buf.Height(),
	}, nil
}

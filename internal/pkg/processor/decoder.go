package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// supportedTypes maps sniffed media types to the format tag kept on the buffer.
// Animated GIFs decode to their first frame.
var supportedTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/bmp":  "bmp",
	"image/tiff": "tiff",
}

// Decode validates raw and turns it into a pixel buffer. The size ceiling is
// checked before anything looks at the bytes and the declared dimensions are
// checked before pixels are allocated.
func (p *imageProcessor) Decode(ctx context.Context, raw []byte) (buf *ImageBuffer, err error) {
	if p.cfg.MaxUploadBytes > 0 && int64(len(raw)) > p.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", entity.ErrPayloadTooLarge, len(raw), p.cfg.MaxUploadBytes)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty image", entity.ErrMissingInput)
	}

	mt := mimetype.Detect(raw)
	format, ok := supportedTypes[mt.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, mt.String())
	}

	// stdlib decoders are not supposed to panic, but a crafted file must not take the process down
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: decoder panic: %v", entity.ErrCorruptImage, r)
		}
	}()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s header: %v", entity.ErrCorruptImage, format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: declared size %dx%d", entity.ErrCorruptImage, cfg.Width, cfg.Height)
	}
	if p.cfg.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > p.cfg.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", entity.ErrPayloadTooLarge, cfg.Width, cfg.Height, p.cfg.MaxPixels)
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(p.cfg.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", entity.ErrCorruptImage, format, err)
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return NewImageBuffer(img, format), nil
}

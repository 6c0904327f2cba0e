package processor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageBuffer owns a tightly packed NRGBA pixel array. Transforms never write
// into an existing buffer; they return a new one.
type ImageBuffer struct {
	img    *image.NRGBA
	Format string
}

// NewImageBuffer copies img into a packed NRGBA buffer anchored at (0, 0).
func NewImageBuffer(img image.Image, format string) *ImageBuffer {
	return &ImageBuffer{img: imaging.Clone(img), Format: format}
}

func (b *ImageBuffer) Width() int    { return b.img.Rect.Dx() }
func (b *ImageBuffer) Height() int   { return b.img.Rect.Dy() }
func (b *ImageBuffer) Channels() int { return 4 }

// Pix exposes the raw pixels, row-major RGBA, non-premultiplied.
func (b *ImageBuffer) Pix() []uint8 { return b.img.Pix }

func (b *ImageBuffer) Image() image.Image { return b.img }

// Validate checks width*height*channels == len(pix).
func (b *ImageBuffer) Validate() error {
	if b == nil || b.img == nil {
		return fmt.Errorf("empty buffer")
	}
	w, h, c := b.Width(), b.Height(), b.Channels()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("non-positive dimensions %dx%d", w, h)
	}
	if b.img.Stride != w*c || len(b.img.Pix) != w*h*c {
		return fmt.Errorf("buffer length %d does not match %dx%dx%d", len(b.img.Pix), w, h, c)
	}
	return nil
}

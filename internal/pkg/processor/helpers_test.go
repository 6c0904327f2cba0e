package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// fillImageWithColor заполняет изображение одним цветом
func fillImageWithColor(img *image.RGBA, c color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillImageWithColor(img, c)
	return img
}

// blockNoise paints random coloured blocks over region; the seed keeps it reproducible.
func blockNoise(img *image.RGBA, region image.Rectangle, block int, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	for by := region.Min.Y; by < region.Max.Y; by += block {
		for bx := region.Min.X; bx < region.Max.X; bx += block {
			c := color.RGBA{R: uint8(rnd.Intn(256)), G: uint8(rnd.Intn(256)), B: uint8(rnd.Intn(256)), A: 255}
			fillImageWithColor(img.SubImage(image.Rect(bx, by, bx+block, by+block).Intersect(region)).(*image.RGBA), c)
		}
	}
}

// gradientImage has content everywhere so every heuristic has something to score.
func gradientImage(w, h int, seed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 90, A: 255})
		}
	}
	blockNoise(img, image.Rect(w/3, h/3, w/2, h/2), 4, seed)
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeResult(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return img
}

func testProcessor(cfg Config) *imageProcessor {
	return NewImageProcessor(cfg).(*imageProcessor)
}

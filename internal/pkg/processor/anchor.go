package processor

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/WB_L3/position/internal/pkg/faces"
)

const (
	analysisMaxSide = 256
	faceMaxSide     = 640
	entropyBins     = 32

	edgeWeight       = 1.0
	saturationWeight = 0.4
	skinWeight       = 0.6
	faceWeight       = 2.0
)

var skinColor = normalize3(0.78, 0.57, 0.44)

// analysis is a small copy of the image at the cover-fit aspect ratio. Content
// heuristics run on it; offsets are mapped back to scaled coordinates.
type analysis struct {
	img    *image.NRGBA
	factor float64     // analysis pixels per scaled pixel
	window image.Point // crop window size in analysis pixels
}

func newAnalysis(src image.Image, frame coverFrame) analysis {
	factor := math.Min(1, analysisMaxSide/float64(max(frame.Scaled.X, frame.Scaled.Y)))
	aw := max(1, int(math.Round(float64(frame.Scaled.X)*factor)))
	ah := max(1, int(math.Round(float64(frame.Scaled.Y)*factor)))

	return analysis{
		img:    imaging.Resize(src, aw, ah, imaging.Linear),
		factor: factor,
		window: image.Pt(
			clampInt(int(math.Round(float64(frame.Target.X)*factor)), 1, aw),
			clampInt(int(math.Round(float64(frame.Target.Y)*factor)), 1, ah),
		),
	}
}

type windowScorer interface {
	Score(r image.Rectangle) float64
}

// searchWindow scores every window position of the analysis image and returns
// the best one as an offset in scaled coordinates. Equal scores go to the
// candidate closest to the centre, so flat images crop like "center".
func searchWindow(ctx context.Context, a analysis, frame coverFrame, scorer windowScorer) (image.Point, error) {
	slack := frame.Slack()
	cx, cy := float64(slack.X)/2, float64(slack.Y)/2
	bounds := a.img.Rect

	var (
		best      image.Point
		bestScore float64
		bestDist  float64
		found     bool
	)
	for ay := 0; ay+a.window.Y <= bounds.Dy(); ay++ {
		if err := checkContext(ctx); err != nil {
			return image.Point{}, err
		}
		for ax := 0; ax+a.window.X <= bounds.Dx(); ax++ {
			score := scorer.Score(image.Rect(ax, ay, ax+a.window.X, ay+a.window.Y))
			offset := clampOffset(image.Pt(
				int(math.Round(float64(ax)/a.factor)),
				int(math.Round(float64(ay)/a.factor)),
			), slack)
			dist := math.Hypot(float64(offset.X)-cx, float64(offset.Y)-cy)

			if !found {
				best, bestScore, bestDist, found = offset, score, dist, true
				continue
			}
			eps := 1e-9 * math.Max(1, math.Abs(bestScore))
			switch {
			case score > bestScore+eps:
				best, bestScore, bestDist = offset, score, dist
			case math.Abs(score-bestScore) <= eps && dist < bestDist:
				best, bestScore, bestDist = offset, score, dist
			}
		}
	}
	return best, nil
}

// entropyMap answers "Shannon entropy of the luminance histogram inside r" in
// O(bins) using one summed-area table per histogram bin.
type entropyMap struct {
	w, h int
	hist []int32
}

func newEntropyMap(img *image.NRGBA) *entropyMap {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	stride := w + 1
	m := &entropyMap{w: w, h: h, hist: make([]int32, stride*(h+1)*entropyBins)}

	var row [entropyBins]int32
	for y := 0; y < h; y++ {
		row = [entropyBins]int32{}
		for x := 0; x < w; x++ {
			r, g, b := pixelRGB(img, x, y)
			row[int(luma(r, g, b)*(entropyBins-1)+0.5)]++

			cur := ((y+1)*stride + x + 1) * entropyBins
			up := (y*stride + x + 1) * entropyBins
			for k := 0; k < entropyBins; k++ {
				m.hist[cur+k] = m.hist[up+k] + row[k]
			}
		}
	}
	return m
}

func (m *entropyMap) Score(r image.Rectangle) float64 {
	stride := m.w + 1
	n := float64(r.Dx() * r.Dy())
	if n == 0 {
		return 0
	}

	a := (r.Min.Y*stride + r.Min.X) * entropyBins
	b := (r.Min.Y*stride + r.Max.X) * entropyBins
	c := (r.Max.Y*stride + r.Min.X) * entropyBins
	d := (r.Max.Y*stride + r.Max.X) * entropyBins

	var e float64
	for k := 0; k < entropyBins; k++ {
		count := m.hist[d+k] - m.hist[b+k] - m.hist[c+k] + m.hist[a+k]
		if count == 0 {
			continue
		}
		p := float64(count) / n
		e -= p * math.Log2(p)
	}
	return e
}

// saliencyMap is a summed-area table of per-pixel saliency: luminance
// gradients, saturation, skin tones and, when available, detected faces.
type saliencyMap struct {
	w, h int
	sum  []float64
}

func newSaliencyMap(img *image.NRGBA, found []faces.Face) *saliencyMap {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := pixelRGB(img, x, y)
			lum[y*w+x] = luma(r, g, b)
		}
	}

	sal := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := lum[y*w+x]
			gx := lum[y*w+min(x+1, w-1)] - lum[y*w+max(x-1, 0)]
			gy := lum[min(y+1, h-1)*w+x] - lum[max(y-1, 0)*w+x]
			s := edgeWeight * (math.Abs(gx) + math.Abs(gy)) / 2

			r, g, b := pixelRGB(img, x, y)
			s += saturationWeight * saturation(r, g, b, l)
			s += skinWeight * skinness(r, g, b, l)
			sal[y*w+x] = s
		}
	}

	for _, f := range found {
		boost := faceWeight * math.Min(1, float64(f.Q)/20)
		rect := f.Rect.Intersect(image.Rect(0, 0, w, h))
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				sal[y*w+x] += boost
			}
		}
	}

	stride := w + 1
	m := &saliencyMap{w: w, h: h, sum: make([]float64, stride*(h+1))}
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += sal[y*w+x]
			m.sum[(y+1)*stride+x+1] = m.sum[y*stride+x+1] + row
		}
	}
	return m
}

func (m *saliencyMap) Score(r image.Rectangle) float64 {
	stride := m.w + 1
	n := float64(r.Dx() * r.Dy())
	if n == 0 {
		return 0
	}
	total := m.sum[r.Max.Y*stride+r.Max.X] - m.sum[r.Min.Y*stride+r.Max.X] -
		m.sum[r.Max.Y*stride+r.Min.X] + m.sum[r.Min.Y*stride+r.Min.X]
	return total / n
}

// detectFaces runs the optional face detector on a mid-sized copy of src and
// returns the faces in analysis coordinates.
func (p *imageProcessor) detectFaces(src image.Image, a analysis) []faces.Face {
	if p.cfg.Faces == nil {
		return nil
	}

	probe := imaging.Fit(src, faceMaxSide, faceMaxSide, imaging.Linear)
	fx := float64(a.img.Rect.Dx()) / float64(probe.Rect.Dx())
	fy := float64(a.img.Rect.Dy()) / float64(probe.Rect.Dy())

	var mapped []faces.Face
	for _, f := range p.cfg.Faces.Detect(probe) {
		mapped = append(mapped, faces.Face{
			Rect: image.Rect(
				int(math.Floor(float64(f.Rect.Min.X)*fx)),
				int(math.Floor(float64(f.Rect.Min.Y)*fy)),
				int(math.Ceil(float64(f.Rect.Max.X)*fx)),
				int(math.Ceil(float64(f.Rect.Max.Y)*fy)),
			),
			Q: f.Q,
		})
	}
	return mapped
}

// pixelRGB returns the pixel composited over black, in [0, 1].
func pixelRGB(img *image.NRGBA, x, y int) (float64, float64, float64) {
	i := img.PixOffset(x+img.Rect.Min.X, y+img.Rect.Min.Y)
	a := float64(img.Pix[i+3]) / 255
	return float64(img.Pix[i]) / 255 * a, float64(img.Pix[i+1]) / 255 * a, float64(img.Pix[i+2]) / 255 * a
}

func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// saturation counts only for mid-tones; near-black and near-white pixels carry no colour.
func saturation(r, g, b, l float64) float64 {
	if l < 0.05 || l > 0.9 {
		return 0
	}
	hi := math.Max(r, math.Max(g, b))
	if hi == 0 {
		return 0
	}
	lo := math.Min(r, math.Min(g, b))
	return (hi - lo) / hi
}

func skinness(r, g, b, l float64) float64 {
	if l < 0.2 || l > 0.95 {
		return 0
	}
	n := normalize3(r, g, b)
	var d float64
	for i := range n {
		d += (n[i] - skinColor[i]) * (n[i] - skinColor[i])
	}
	d = math.Sqrt(d)
	const threshold = 0.2
	if d >= threshold {
		return 0
	}
	return 1 - d/threshold
}

func normalize3(r, g, b float64) [3]float64 {
	mag := math.Sqrt(r*r + g*g + b*b)
	if mag == 0 {
		return [3]float64{}
	}
	return [3]float64{r / mag, g / mag, b / mag}
}

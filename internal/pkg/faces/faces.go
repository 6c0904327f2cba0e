// Package faces finds frontal faces with a pigo cascade. Detections are used
// to bias the attention crop towards people.
package faces

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// Face is a detected face in the coordinates of the analysed image.
type Face struct {
	Rect image.Rectangle
	Q    float32
}

type Detector interface {
	Detect(img image.Image) []Face
}

type Params struct {
	MinSizePct  int     // smallest face, percent of the shorter side
	ShiftFactor float64 // sliding window stride
	ScaleFactor float64
	IoU         float64 // clustering threshold
	MinQ        float32 // detections below are dropped
}

func DefaultParams() Params {
	return Params{
		MinSizePct:  5,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.2,
		MinQ:        5.0,
	}
}

type pigoDetector struct {
	classifier *pigo.Pigo
	params     Params
}

// cascade header: 8 reserved bytes, tree depth and tree count as little-endian uint32
const (
	cascadeHeaderLen = 16
	maxTreeDepth     = 16
)

var ErrInvalidCascade = errors.New("invalid face cascade")

// NewPigoDetector unpacks a cascade file (the "facefinder" model shipped with pigo).
func NewPigoDetector(cascade []byte, params Params) (det Detector, err error) {
	if len(cascade) < cascadeHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidCascade, len(cascade))
	}
	depth := binary.LittleEndian.Uint32(cascade[8:])
	trees := binary.LittleEndian.Uint32(cascade[12:])
	if depth == 0 || depth > maxTreeDepth || trees == 0 {
		return nil, fmt.Errorf("%w: depth %d, %d trees", ErrInvalidCascade, depth, trees)
	}

	// Unpack indexes the packet without bounds checks
	defer func() {
		if r := recover(); r != nil {
			det = nil
			err = fmt.Errorf("unpacking face cascade: %w: %v", ErrInvalidCascade, r)
		}
	}()

	p := pigo.NewPigo()
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpacking face cascade: %w", err)
	}
	return &pigoDetector{classifier: classifier, params: params}, nil
}

func LoadPigoDetector(path string, params Params) (Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading face cascade: %w", err)
	}
	return NewPigoDetector(data, params)
}

func (d *pigoDetector) Detect(img image.Image) []Face {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	if cols == 0 || rows == 0 {
		return nil
	}

	minSide := cols
	if rows < minSide {
		minSide = rows
	}
	minSize := minSide * d.params.MinSizePct / 100
	if minSize < 20 {
		minSize = 20
	}

	cParams := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     minSide,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.params.IoU)

	var found []Face
	for _, det := range dets {
		if det.Q < d.params.MinQ {
			continue
		}
		half := det.Scale / 2
		rect := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Intersect(image.Rect(0, 0, cols, rows))
		if rect.Empty() {
			continue
		}
		found = append(found, Face{Rect: rect, Q: det.Q})
	}
	return found
}

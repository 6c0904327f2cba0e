package entity

import (
	"fmt"
	"strings"
	"time"
)

const MediaTypeJPEG = "image/jpeg"

// AnchorKind is the closed set of crop strategies.
type AnchorKind int

const (
	AnchorOrigin AnchorKind = iota + 1
	AnchorGravity
	AnchorEntropy
	AnchorAttention
)

// Gravity names a fixed crop anchor.
type Gravity int

const (
	GravityCenter Gravity = iota + 1
	GravityNorth
	GravityNorthEast
	GravityEast
	GravitySouthEast
	GravitySouth
	GravitySouthWest
	GravityWest
	GravityNorthWest
)

var gravityNames = map[Gravity]string{
	GravityCenter:    "center",
	GravityNorth:     "north",
	GravityNorthEast: "northeast",
	GravityEast:      "east",
	GravitySouthEast: "southeast",
	GravitySouth:     "south",
	GravitySouthWest: "southwest",
	GravityWest:      "west",
	GravityNorthWest: "northwest",
}

// gravityAliases accepts the gravity and position spellings sharp users are used to.
var gravityAliases = map[string]Gravity{
	"center": GravityCenter,
	"centre": GravityCenter,

	"north": GravityNorth,
	"top":   GravityNorth,

	"northeast": GravityNorthEast,
	"right top": GravityNorthEast,
	"top right": GravityNorthEast,

	"east":  GravityEast,
	"right": GravityEast,

	"southeast":    GravitySouthEast,
	"right bottom": GravitySouthEast,
	"bottom right": GravitySouthEast,

	"south":  GravitySouth,
	"bottom": GravitySouth,

	"southwest":   GravitySouthWest,
	"left bottom": GravitySouthWest,
	"bottom left": GravitySouthWest,

	"west": GravityWest,
	"left": GravityWest,

	"northwest": GravityNorthWest,
	"left top":  GravityNorthWest,
	"top left":  GravityNorthWest,
}

func (g Gravity) String() string {
	if name, ok := gravityNames[g]; ok {
		return name
	}
	return fmt.Sprintf("gravity(%d)", int(g))
}

func (g Gravity) Valid() bool {
	_, ok := gravityNames[g]
	return ok
}

// AnchorMode is an immutable, already validated crop request.
type AnchorMode struct {
	Kind    AnchorKind
	Gravity Gravity
}

var (
	ModeOrigin    = AnchorMode{Kind: AnchorOrigin}
	ModeCenter    = AnchorMode{Kind: AnchorGravity, Gravity: GravityCenter}
	ModeEntropy   = AnchorMode{Kind: AnchorEntropy}
	ModeAttention = AnchorMode{Kind: AnchorAttention}
)

func GravityMode(g Gravity) AnchorMode {
	return AnchorMode{Kind: AnchorGravity, Gravity: g}
}

func (m AnchorMode) String() string {
	switch m.Kind {
	case AnchorOrigin:
		return "origin"
	case AnchorGravity:
		return m.Gravity.String()
	case AnchorEntropy:
		return "entropy"
	case AnchorAttention:
		return "attention"
	default:
		return fmt.Sprintf("anchor(%d)", int(m.Kind))
	}
}

// ParseAnchorMode validates a position string at the request boundary.
// Nothing is defaulted: an empty or unknown value is a MissingInput error.
func ParseAnchorMode(raw string) (AnchorMode, error) {
	name := normalizePosition(raw)
	switch name {
	case "":
		return AnchorMode{}, fmt.Errorf("%w: position is required", ErrMissingInput)
	case "origin":
		return ModeOrigin, nil
	case "entropy":
		return ModeEntropy, nil
	case "attention":
		return ModeAttention, nil
	}
	if g, ok := gravityAliases[name]; ok {
		return GravityMode(g), nil
	}
	return AnchorMode{}, fmt.Errorf("%w: unknown position %q", ErrMissingInput, raw)
}

// PositionNames lists the canonical names accepted by ParseAnchorMode.
func PositionNames() []string {
	names := []string{"origin", "entropy", "attention"}
	for g := GravityCenter; g <= GravityNorthWest; g++ {
		names = append(names, g.String())
	}
	return names
}

func normalizePosition(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// TargetSize is the output geometry derived from an AnchorMode.
// MaxHeight > 0 means bounded fit, otherwise Width x Height cover fit.
type TargetSize struct {
	MaxHeight int
	Width     int
	Height    int
}

func (t TargetSize) Bounded() bool {
	return t.MaxHeight > 0
}

// EncodedResult is handed to the caller; the service keeps no copy.
type EncodedResult struct {
	Bytes     []byte
	MediaType string
	Quality   int
	Width     int
	Height    int
}

type TransformRequest struct {
	RequestID string
	Image     []byte
	Mode      AnchorMode
}

type TransformResponse struct {
	Image     string `json:"image"`
	MediaType string `json:"mediaType"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Position  string `json:"position"`
}

type ErrorResponse struct {
	ErrorKind string `json:"errorKind"`
	Error     string `json:"error"`
	Status    int    `json:"status"`
}

// TransformEvent describes one finished request. It never carries pixel data.
type TransformEvent struct {
	RequestID    string    `json:"request_id"`
	Position     string    `json:"position"`
	SourceBytes  int       `json:"source_bytes"`
	OutputBytes  int       `json:"output_bytes,omitempty"`
	OutputWidth  int       `json:"output_width,omitempty"`
	OutputHeight int       `json:"output_height,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Time         time.Time `json:"time"`
}

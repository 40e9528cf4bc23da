// Processing modes and the transform variants that implement them
package algorithms

import (
	"fmt"
	"strings"

	"realtime-vision-pipeline/internal/core"
)

// ModeKind selects the CPU transform applied to each frame.
type ModeKind int

const (
	ModeRaw ModeKind = iota
	ModeGrayscale
	ModeEdgeDetection
	ModeSobel
	ModeThreshold
)

var modeNames = map[ModeKind]string{
	ModeRaw:           "raw",
	ModeGrayscale:     "grayscale",
	ModeEdgeDetection: "edge",
	ModeSobel:         "sobel",
	ModeThreshold:     "threshold",
}

func (m ModeKind) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode resolves a mode name ("raw", "grayscale", "edge", "sobel",
// "threshold"), case-insensitively.
func ParseMode(name string) (ModeKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range modeNames {
		if n == name {
			return kind, nil
		}
	}
	return ModeRaw, fmt.Errorf("unknown processing mode: %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m ModeKind) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("unknown processing mode: %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ModeKind) UnmarshalText(text []byte) error {
	kind, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = kind
	return nil
}

// Transform is one processing mode together with the parameters it needs.
// Apply consumes buf and returns the frame to hand downstream.
type Transform interface {
	Mode() ModeKind
	Apply(buf core.PixelBuffer) (core.PixelBuffer, error)
}

// RawTransform passes frames through untouched.
type RawTransform struct{}

// GrayscaleTransform converts frames to luma in place.
type GrayscaleTransform struct{}

// EdgeTransform runs Canny edge detection.
type EdgeTransform struct {
	Low  uint8
	High uint8
}

// SobelTransform outputs the Sobel gradient magnitude.
type SobelTransform struct{}

// ThresholdTransform binarizes luma at Value.
type ThresholdTransform struct {
	Value uint8
}

func (RawTransform) Mode() ModeKind       { return ModeRaw }
func (GrayscaleTransform) Mode() ModeKind { return ModeGrayscale }
func (EdgeTransform) Mode() ModeKind      { return ModeEdgeDetection }
func (SobelTransform) Mode() ModeKind     { return ModeSobel }
func (ThresholdTransform) Mode() ModeKind { return ModeThreshold }

func (RawTransform) Apply(buf core.PixelBuffer) (core.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return core.PixelBuffer{}, err
	}
	return buf, nil
}

func (GrayscaleTransform) Apply(buf core.PixelBuffer) (core.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return core.PixelBuffer{}, err
	}
	return Grayscale(buf), nil
}

func (t EdgeTransform) Apply(buf core.PixelBuffer) (core.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return core.PixelBuffer{}, err
	}
	return CannyEdgeDetection(buf, t.Low, t.High), nil
}

func (SobelTransform) Apply(buf core.PixelBuffer) (core.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return core.PixelBuffer{}, err
	}
	return Sobel(buf).Magnitude, nil
}

func (t ThresholdTransform) Apply(buf core.PixelBuffer) (core.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return core.PixelBuffer{}, err
	}
	return Threshold(buf, t.Value), nil
}

// NewTransform builds the variant for kind, picking the fields it needs
// from params.
func NewTransform(kind ModeKind, params core.ProcessingParams) (Transform, error) {
	switch kind {
	case ModeRaw:
		return RawTransform{}, nil
	case ModeGrayscale:
		return GrayscaleTransform{}, nil
	case ModeEdgeDetection:
		return EdgeTransform{Low: params.CannyLow, High: params.CannyHigh}, nil
	case ModeSobel:
		return SobelTransform{}, nil
	case ModeThreshold:
		return ThresholdTransform{Value: params.SobelThreshold}, nil
	}
	return nil, fmt.Errorf("unknown processing mode: %d", int(kind))
}

// ParameterInfo describes a parameter a mode reads from ProcessingParams.
type ParameterInfo struct {
	Name        string `json:"name"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Default     int    `json:"default"`
	Description string `json:"description"`
}

// ModeInfo describes a processing mode for listings.
type ModeInfo struct {
	Kind        ModeKind        `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters,omitempty"`
}

// Modes returns every processing mode in selector order.
func Modes() []ModeInfo {
	return []ModeInfo{
		{
			Kind:        ModeRaw,
			Name:        ModeRaw.String(),
			Description: "Camera frame without CPU processing",
		},
		{
			Kind:        ModeGrayscale,
			Name:        ModeGrayscale.String(),
			Description: "Luma (0.299R + 0.587G + 0.114B)",
		},
		{
			Kind:        ModeEdgeDetection,
			Name:        ModeEdgeDetection.String(),
			Description: "Canny edge detection: Gaussian blur, Sobel, non-maximum suppression, hysteresis",
			Parameters: []ParameterInfo{
				{Name: "canny_low", Min: 0, Max: 255, Default: int(core.DefaultCannyLow), Description: "Weak edge threshold"},
				{Name: "canny_high", Min: 0, Max: 255, Default: int(core.DefaultCannyHigh), Description: "Strong edge threshold"},
			},
		},
		{
			Kind:        ModeSobel,
			Name:        ModeSobel.String(),
			Description: "Sobel gradient magnitude",
		},
		{
			Kind:        ModeThreshold,
			Name:        ModeThreshold.String(),
			Description: "Binary threshold on luma (strictly greater maps to white)",
			Parameters: []ParameterInfo{
				{Name: "sobel_threshold", Min: 0, Max: 255, Default: int(core.DefaultSobelThreshold), Description: "Luma cut-off"},
			},
		},
	}
}

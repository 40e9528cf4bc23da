package shader

import (
	"fmt"
	"strings"

	"realtime-vision-pipeline/internal/core"
)

// EffectKind selects the colour effect evaluated by the fragment program.
// The numeric value is the uEffect uniform.
type EffectKind int32

const (
	EffectNone EffectKind = iota
	EffectInvert
	EffectSepia
	EffectBrightness
	EffectContrast
)

var effectNames = map[EffectKind]string{
	EffectNone:       "none",
	EffectInvert:     "invert",
	EffectSepia:      "sepia",
	EffectBrightness: "brightness",
	EffectContrast:   "contrast",
}

func (k EffectKind) String() string {
	if name, ok := effectNames[k]; ok {
		return name
	}
	return fmt.Sprintf("effect(%d)", int32(k))
}

// ParseEffect resolves an effect name, case-insensitively.
func ParseEffect(name string) (EffectKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range effectNames {
		if n == name {
			return kind, nil
		}
	}
	return EffectNone, fmt.Errorf("unknown shader effect: %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k EffectKind) MarshalText() ([]byte, error) {
	if _, ok := effectNames[k]; !ok {
		return nil, fmt.Errorf("unknown shader effect: %d", int32(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EffectKind) UnmarshalText(text []byte) error {
	kind, err := ParseEffect(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Effect is a shader effect with the parameter it carries. The set of
// variants is closed.
type Effect interface {
	Kind() EffectKind
	uniforms() (brightness, contrast float32)
}

type NoEffect struct{}

type InvertEffect struct{}

type SepiaEffect struct{}

// BrightnessEffect adds Amount/100 to every colour channel.
type BrightnessEffect struct {
	Amount int8
}

// ContrastEffect scales channels around 0.5 by 1 + Amount/100.
type ContrastEffect struct {
	Amount int8
}

func (NoEffect) Kind() EffectKind         { return EffectNone }
func (InvertEffect) Kind() EffectKind     { return EffectInvert }
func (SepiaEffect) Kind() EffectKind      { return EffectSepia }
func (BrightnessEffect) Kind() EffectKind { return EffectBrightness }
func (ContrastEffect) Kind() EffectKind   { return EffectContrast }

func (NoEffect) uniforms() (float32, float32)     { return 0, 0 }
func (InvertEffect) uniforms() (float32, float32) { return 0, 0 }
func (SepiaEffect) uniforms() (float32, float32)  { return 0, 0 }

func (e BrightnessEffect) uniforms() (float32, float32) {
	return float32(e.Amount) / 100, 0
}

func (e ContrastEffect) uniforms() (float32, float32) {
	return 0, float32(e.Amount) / 100
}

// EffectFor builds the variant for kind, taking the brightness or contrast
// amount from params.
func EffectFor(kind EffectKind, params core.ProcessingParams) (Effect, error) {
	switch kind {
	case EffectNone:
		return NoEffect{}, nil
	case EffectInvert:
		return InvertEffect{}, nil
	case EffectSepia:
		return SepiaEffect{}, nil
	case EffectBrightness:
		return BrightnessEffect{Amount: params.Brightness}, nil
	case EffectContrast:
		return ContrastEffect{Amount: params.Contrast}, nil
	}
	return nil, fmt.Errorf("unknown shader effect: %d", int32(kind))
}

package core

import "fmt"

// Default parameter values used when the control surface supplies none.
const (
	DefaultCannyLow       uint8 = 50
	DefaultCannyHigh      uint8 = 150
	DefaultSobelThreshold uint8 = 128
)

// ProcessingParams is the per-tick parameter set supplied by the control
// surface. It is copied by value and never mutated while a tick runs.
//
// No relation between fields is enforced: CannyLow may exceed CannyHigh.
type ProcessingParams struct {
	CannyLow       uint8 `yaml:"canny_low"`
	CannyHigh      uint8 `yaml:"canny_high"`
	SobelThreshold uint8 `yaml:"sobel_threshold"`
	Brightness     int8  `yaml:"brightness"`
	Contrast       int8  `yaml:"contrast"`
}

// DefaultProcessingParams returns the stock parameter set.
func DefaultProcessingParams() ProcessingParams {
	return ProcessingParams{
		CannyLow:       DefaultCannyLow,
		CannyHigh:      DefaultCannyHigh,
		SobelThreshold: DefaultSobelThreshold,
	}
}

// Validate checks the brightness and contrast ranges ([-100, 100]).
// The uint8 fields cannot leave [0, 255] by construction.
func (p ProcessingParams) Validate() error {
	if p.Brightness < -100 || p.Brightness > 100 {
		return fmt.Errorf("brightness must be between -100 and 100, got %d", p.Brightness)
	}
	if p.Contrast < -100 || p.Contrast > 100 {
		return fmt.Errorf("contrast must be between -100 and 100, got %d", p.Contrast)
	}
	return nil
}

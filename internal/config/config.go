package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"realtime-vision-pipeline/internal/algorithms"
	"realtime-vision-pipeline/internal/core"
	"realtime-vision-pipeline/internal/shader"
)

// Rendering backends.
const (
	BackendGL       = "gl"
	BackendSoftware = "software"
)

// Frame source kinds.
const (
	SourceCamera = "camera"
	SourceImage  = "image"
)

// Config is the complete application configuration.
type Config struct {
	Backend    string           `yaml:"backend"` // gl, software
	Source     SourceConfig     `yaml:"source"`
	Processing ProcessingConfig `yaml:"processing"`
	Display    DisplayConfig    `yaml:"display"`
}

// SourceConfig selects where frames come from.
type SourceConfig struct {
	Kind      string `yaml:"kind"` // camera, image
	Device    int    `yaml:"device"`
	ImagePath string `yaml:"image_path"`
	Width     int    `yaml:"width"`  // requested capture width, also the image fit box
	Height    int    `yaml:"height"` // requested capture height
}

// ProcessingConfig holds the initial control-surface selections.
type ProcessingConfig struct {
	Mode   algorithms.ModeKind   `yaml:"mode"`
	Effect shader.EffectKind     `yaml:"effect"`
	Params core.ProcessingParams `yaml:"params"`
}

// DisplayConfig configures the output surface and frame cadence.
type DisplayConfig struct {
	Title         string `yaml:"title"`
	FPS           int    `yaml:"fps"` // tick rate
	VSync         bool   `yaml:"vsync"`
	StatsWindowMs int    `yaml:"stats_window_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend: BackendGL,
		Source: SourceConfig{
			Kind:   SourceCamera,
			Device: 0,
			Width:  1280,
			Height: 720,
		},
		Processing: ProcessingConfig{
			Mode:   algorithms.ModeRaw,
			Effect: shader.EffectNone,
			Params: core.DefaultProcessingParams(),
		},
		Display: DisplayConfig{
			Title:         "Realtime Vision Pipeline",
			FPS:           60,
			VSync:         true,
			StatsWindowMs: 1000,
		},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every field range.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}

	switch cfg.Backend {
	case BackendGL, BackendSoftware:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", cfg.Backend, BackendGL, BackendSoftware)
	}

	switch cfg.Source.Kind {
	case SourceCamera:
		if cfg.Source.Device < 0 {
			return fmt.Errorf("camera device must be >= 0, got %d", cfg.Source.Device)
		}
	case SourceImage:
		if cfg.Source.ImagePath == "" {
			return errors.New("image source requires source.image_path")
		}
	default:
		return fmt.Errorf("unknown source kind %q (want %s or %s)", cfg.Source.Kind, SourceCamera, SourceImage)
	}

	if cfg.Source.Width <= 0 || cfg.Source.Height <= 0 {
		return fmt.Errorf("source resolution must be positive, got %dx%d", cfg.Source.Width, cfg.Source.Height)
	}

	if _, err := algorithms.NewTransform(cfg.Processing.Mode, cfg.Processing.Params); err != nil {
		return err
	}
	if _, err := shader.EffectFor(cfg.Processing.Effect, cfg.Processing.Params); err != nil {
		return err
	}
	if err := cfg.Processing.Params.Validate(); err != nil {
		return err
	}

	if cfg.Display.FPS < 1 || cfg.Display.FPS > 240 {
		return fmt.Errorf("display fps must be between 1 and 240, got %d", cfg.Display.FPS)
	}
	if cfg.Display.StatsWindowMs < 100 {
		return fmt.Errorf("stats window must be at least 100ms, got %d", cfg.Display.StatsWindowMs)
	}

	return nil
}

// Set overrides one field by its command-line flag name.
func (c *Config) Set(name, value string) error {
	value = strings.TrimSpace(value)

	switch name {
	case "backend":
		c.Backend = strings.ToLower(value)
	case "source":
		c.Source.Kind = strings.ToLower(value)
	case "device":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("device: %w", err)
		}
		c.Source.Device = n
	case "image":
		c.Source.ImagePath = value
		if value != "" {
			c.Source.Kind = SourceImage
		}
	case "mode":
		return c.Processing.Mode.UnmarshalText([]byte(value))
	case "effect":
		return c.Processing.Effect.UnmarshalText([]byte(value))
	case "fps":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("fps: %w", err)
		}
		c.Display.FPS = n
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	return nil
}

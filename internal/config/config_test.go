package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-vision-pipeline/internal/algorithms"
	"realtime-vision-pipeline/internal/core"
	"realtime-vision-pipeline/internal/shader"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, core.DefaultProcessingParams(), cfg.Processing.Params)
	assert.Equal(t, 1280, cfg.Source.Width)
	assert.Equal(t, 720, cfg.Source.Height)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
backend: software
processing:
  mode: edge
  effect: contrast
  params:
    canny_low: 20
    canny_high: 90
    contrast: -40
display:
  fps: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSoftware, cfg.Backend)
	assert.Equal(t, SourceCamera, cfg.Source.Kind)
	assert.Equal(t, algorithms.ModeEdgeDetection, cfg.Processing.Mode)
	assert.Equal(t, shader.EffectContrast, cfg.Processing.Effect)
	assert.Equal(t, uint8(20), cfg.Processing.Params.CannyLow)
	assert.Equal(t, uint8(90), cfg.Processing.Params.CannyHigh)
	assert.Equal(t, core.DefaultSobelThreshold, cfg.Processing.Params.SobelThreshold)
	assert.Equal(t, int8(-40), cfg.Processing.Params.Contrast)
	assert.Equal(t, 30, cfg.Display.FPS)
	assert.Equal(t, 1000, cfg.Display.StatsWindowMs)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown mode", "processing:\n  mode: cartoon\n"},
		{"unknown effect", "processing:\n  effect: blur\n"},
		{"brightness range", "processing:\n  params:\n    brightness: 120\n"},
		{"uint8 overflow", "processing:\n  params:\n    canny_high: 300\n"},
		{"backend", "backend: vulkan\n"},
		{"image without path", "source:\n  kind: image\n"},
		{"fps", "display:\n  fps: 0\n"},
		{"syntax", "backend: [gl\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSetOverrides(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("backend", "SOFTWARE"))
	require.NoError(t, cfg.Set("mode", "threshold"))
	require.NoError(t, cfg.Set("effect", "sepia"))
	require.NoError(t, cfg.Set("device", "2"))
	require.NoError(t, cfg.Set("fps", "24"))
	require.NoError(t, cfg.Set("image", "/tmp/frame.png"))

	assert.Equal(t, BackendSoftware, cfg.Backend)
	assert.Equal(t, algorithms.ModeThreshold, cfg.Processing.Mode)
	assert.Equal(t, shader.EffectSepia, cfg.Processing.Effect)
	assert.Equal(t, 2, cfg.Source.Device)
	assert.Equal(t, 24, cfg.Display.FPS)
	assert.Equal(t, SourceImage, cfg.Source.Kind)
	assert.Equal(t, "/tmp/frame.png", cfg.Source.ImagePath)
	require.NoError(t, Validate(cfg))

	assert.Error(t, cfg.Set("mode", "nope"))
	assert.Error(t, cfg.Set("fps", "fast"))
	assert.Error(t, cfg.Set("colour", "red"))
}

func TestValidateRejectsNil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

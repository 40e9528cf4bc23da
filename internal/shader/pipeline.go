// Package shader composites processed frames through a fragment program that
// applies the selected colour effect.
package shader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"realtime-vision-pipeline/internal/core"
)

var (
	// ErrInitialization is wrapped by every error returned from New.
	ErrInitialization = errors.New("shader: initialization failed")
	// ErrDestroyed is returned when rendering after Destroy.
	ErrDestroyed = errors.New("shader: pipeline destroyed")
)

// Pipeline owns one shader program, its uniform locations, a full-screen
// quad and the frame texture on a Device.
type Pipeline struct {
	device Device
	logger logrus.FieldLogger

	program uint32
	quad    uint32
	texture uint32

	locSampler    int32
	locEffect     int32
	locBrightness int32
	locContrast   int32

	width, height int
	effect        Effect

	destroyOnce sync.Once
	destroyed   bool
}

// New compiles the programs and allocates the quad and texture. On failure
// everything created so far is released and no Pipeline is returned.
func New(device Device, logger logrus.FieldLogger) (_ *Pipeline, err error) {
	if device == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInitialization)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &Pipeline{device: device, logger: logger, effect: NoEffect{}}

	defer func() {
		if err != nil {
			p.release()
			logger.WithError(err).Error("SHADER: Pipeline initialization failed")
		}
	}()

	p.program, err = device.CompileProgram(VertexSource, FragmentSource)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	locations := []struct {
		name string
		dst  *int32
	}{
		{UniformSampler, &p.locSampler},
		{UniformEffect, &p.locEffect},
		{UniformBrightness, &p.locBrightness},
		{UniformContrast, &p.locContrast},
	}
	for _, l := range locations {
		loc := device.UniformLocation(p.program, l.name)
		if loc < 0 {
			return nil, fmt.Errorf("%w: uniform %s not found", ErrInitialization, l.name)
		}
		*l.dst = loc
	}

	p.quad, err = device.CreateQuad(p.program, QuadPositions, QuadTexCoords)
	if err != nil {
		return nil, fmt.Errorf("%w: quad: %v", ErrInitialization, err)
	}

	p.texture, err = device.CreateTexture()
	if err != nil {
		return nil, fmt.Errorf("%w: texture: %v", ErrInitialization, err)
	}

	p.applyUniforms()

	logger.WithFields(logrus.Fields{
		"program": p.program,
		"quad":    p.quad,
		"texture": p.texture,
	}).Debug("SHADER: Pipeline initialized")

	return p, nil
}

// Configure selects the effect used by subsequent renders. A nil effect is
// treated as NoEffect.
func (p *Pipeline) Configure(effect Effect) {
	if effect == nil {
		effect = NoEffect{}
	}
	if p.destroyed {
		return
	}
	if effect != p.effect {
		p.logger.WithFields(logrus.Fields{
			"effect":   effect.Kind().String(),
			"previous": p.effect.Kind().String(),
		}).Debug("SHADER: Effect changed")
	}
	p.effect = effect
	p.applyUniforms()
}

// Effect returns the currently configured effect.
func (p *Pipeline) Effect() Effect {
	return p.effect
}

func (p *Pipeline) applyUniforms() {
	brightness, contrast := p.effect.uniforms()

	p.device.UseProgram(p.program)
	p.device.Uniform1i(p.locEffect, int32(p.effect.Kind()))
	p.device.Uniform1f(p.locBrightness, brightness)
	p.device.Uniform1f(p.locContrast, contrast)
}

// RenderFrame uploads buf as the frame texture and draws it with the
// configured effect. The viewport follows the frame dimensions.
func (p *Pipeline) RenderFrame(buf core.PixelBuffer) error {
	if p.destroyed {
		return ErrDestroyed
	}
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}

	if buf.Width != p.width || buf.Height != p.height {
		p.device.Viewport(buf.Width, buf.Height)
		p.logger.WithFields(logrus.Fields{
			"width":  buf.Width,
			"height": buf.Height,
		}).Debug("SHADER: Viewport resized")
		p.width, p.height = buf.Width, buf.Height
	}

	p.device.UploadTexture(p.texture, buf)
	p.device.Clear(0, 0, 0, 1)
	p.device.UseProgram(p.program)
	p.device.Uniform1i(p.locSampler, 0)
	p.device.DrawQuad(p.quad, p.texture)

	if err := p.device.Present(); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return nil
}

// Destroy releases the texture, quad and program. Later calls do nothing.
func (p *Pipeline) Destroy() {
	p.destroyOnce.Do(func() {
		p.release()
		p.destroyed = true
		p.logger.Debug("SHADER: Pipeline destroyed")
	})
}

func (p *Pipeline) release() {
	if p.texture != 0 {
		p.device.DeleteTexture(p.texture)
		p.texture = 0
	}
	if p.quad != 0 {
		p.device.DeleteQuad(p.quad)
		p.quad = 0
	}
	if p.program != 0 {
		p.device.DeleteProgram(p.program)
		p.program = 0
	}
}

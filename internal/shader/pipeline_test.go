package shader

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-vision-pipeline/internal/core"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testFrame(width, height int) core.PixelBuffer {
	buf := core.NewPixelBuffer(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			buf.Set(x, y, uint8(x*40), uint8(y*60), uint8((x+y)*25), uint8(200+x))
		}
	}
	return buf
}

func newTestPipeline(t *testing.T) (*Pipeline, *SoftwareDevice) {
	t.Helper()
	dev := NewSoftwareDevice()
	p, err := New(dev, quietLogger())
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return p, dev
}

func TestRenderWithoutEffectReproducesFrame(t *testing.T) {
	p, dev := newTestPipeline(t)
	frame := testFrame(5, 3)

	require.NoError(t, p.RenderFrame(frame))

	assert.Equal(t, frame.Pix, dev.Framebuffer().Pix)
	assert.Equal(t, 1, dev.Presents())
}

func TestInvertThenNoneRestoresOutput(t *testing.T) {
	p, dev := newTestPipeline(t)
	frame := testFrame(6, 4)

	p.Configure(NoEffect{})
	require.NoError(t, p.RenderFrame(frame))
	before := dev.Framebuffer()

	p.Configure(InvertEffect{})
	require.NoError(t, p.RenderFrame(frame))
	inverted := dev.Framebuffer()
	assert.NotEqual(t, before.Pix, inverted.Pix)

	p.Configure(NoEffect{})
	require.NoError(t, p.RenderFrame(frame))
	assert.Equal(t, before.Pix, dev.Framebuffer().Pix)
}

func TestEffectsOnSingleTexel(t *testing.T) {
	tests := []struct {
		name   string
		effect Effect
		texel  [4]uint8
		want   [4]uint8
	}{
		{"none", NoEffect{}, [4]uint8{10, 128, 250, 77}, [4]uint8{10, 128, 250, 77}},
		{"invert", InvertEffect{}, [4]uint8{0, 100, 255, 77}, [4]uint8{255, 155, 0, 77}},
		{"sepia", SepiaEffect{}, [4]uint8{100, 150, 210, 255}, [4]uint8{194, 173, 135, 255}},
		{"brightness up", BrightnessEffect{Amount: 20}, [4]uint8{100, 250, 0, 255}, [4]uint8{151, 255, 51, 255}},
		{"brightness down", BrightnessEffect{Amount: -100}, [4]uint8{30, 255, 0, 9}, [4]uint8{0, 0, 0, 9}},
		{"contrast", ContrastEffect{Amount: 50}, [4]uint8{64, 255, 0, 255}, [4]uint8{32, 255, 0, 255}},
		{"contrast zero", ContrastEffect{}, [4]uint8{64, 1, 254, 255}, [4]uint8{64, 1, 254, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, dev := newTestPipeline(t)
			frame := core.NewPixelBuffer(1, 1)
			frame.Set(0, 0, tt.texel[0], tt.texel[1], tt.texel[2], tt.texel[3])

			p.Configure(tt.effect)
			require.NoError(t, p.RenderFrame(frame))

			assert.Equal(t, tt.want, dev.Framebuffer().At(0, 0))
		})
	}
}

func TestConfigureIsIdempotent(t *testing.T) {
	p, dev := newTestPipeline(t)
	frame := testFrame(4, 4)

	p.Configure(SepiaEffect{})
	require.NoError(t, p.RenderFrame(frame))
	once := dev.Framebuffer()

	p.Configure(SepiaEffect{})
	p.Configure(SepiaEffect{})
	require.NoError(t, p.RenderFrame(frame))

	assert.Equal(t, once.Pix, dev.Framebuffer().Pix)
	assert.Equal(t, SepiaEffect{}, p.Effect())
}

func TestConfigureNilMeansNoEffect(t *testing.T) {
	p, _ := newTestPipeline(t)
	p.Configure(InvertEffect{})
	p.Configure(nil)
	assert.Equal(t, NoEffect{}, p.Effect())
}

func TestRenderFollowsFrameSize(t *testing.T) {
	p, dev := newTestPipeline(t)

	require.NoError(t, p.RenderFrame(testFrame(4, 2)))
	fb := dev.Framebuffer()
	assert.Equal(t, 4, fb.Width)
	assert.Equal(t, 2, fb.Height)

	next := testFrame(3, 5)
	require.NoError(t, p.RenderFrame(next))
	fb = dev.Framebuffer()
	assert.Equal(t, 3, fb.Width)
	assert.Equal(t, 5, fb.Height)
	assert.Equal(t, next.Pix, fb.Pix)
}

func TestRenderRejectsInvalidFrame(t *testing.T) {
	p, dev := newTestPipeline(t)

	err := p.RenderFrame(core.PixelBuffer{Width: 2, Height: 2, Pix: make([]uint8, 3)})

	assert.ErrorIs(t, err, core.ErrInvalidBuffer)
	assert.Zero(t, dev.Presents())
}

func TestRenderReportsPresentFailure(t *testing.T) {
	p, dev := newTestPipeline(t)
	boom := errors.New("surface lost")
	dev.Faults.Present = boom

	assert.ErrorIs(t, p.RenderFrame(testFrame(2, 2)), boom)
}

func TestOnPresentReceivesCopy(t *testing.T) {
	p, dev := newTestPipeline(t)
	var got []core.PixelBuffer
	dev.OnPresent = func(frame core.PixelBuffer) { got = append(got, frame) }

	frame := testFrame(3, 3)
	require.NoError(t, p.RenderFrame(frame))
	require.Len(t, got, 1)
	got[0].Pix[0] = ^got[0].Pix[0]

	assert.Equal(t, frame.Pix, dev.Framebuffer().Pix)
}

func TestNewFailureReleasesResources(t *testing.T) {
	boom := errors.New("out of memory")

	tests := []struct {
		name   string
		faults SoftwareFaults
	}{
		{"compile", SoftwareFaults{Compile: boom}},
		{"quad", SoftwareFaults{Quad: boom}},
		{"texture", SoftwareFaults{Texture: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := NewSoftwareDevice()
			dev.Faults = tt.faults

			p, err := New(dev, quietLogger())

			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrInitialization)
			assert.Contains(t, err.Error(), "out of memory")
			assert.Zero(t, dev.Live())
		})
	}
}

type missingUniformDevice struct {
	*SoftwareDevice
	missing string
}

func (d missingUniformDevice) UniformLocation(program uint32, name string) int32 {
	if name == d.missing {
		return -1
	}
	return d.SoftwareDevice.UniformLocation(program, name)
}

func TestNewFailsOnMissingUniform(t *testing.T) {
	dev := missingUniformDevice{SoftwareDevice: NewSoftwareDevice(), missing: UniformContrast}

	p, err := New(dev, quietLogger())

	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInitialization)
	assert.Contains(t, err.Error(), UniformContrast)
	assert.Zero(t, dev.Live())
}

func TestNewRejectsNilDevice(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestDestroyReleasesOnce(t *testing.T) {
	dev := NewSoftwareDevice()
	p, err := New(dev, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, dev.Live())

	p.Destroy()
	p.Destroy()

	assert.Zero(t, dev.Live())
	assert.ErrorIs(t, p.RenderFrame(testFrame(2, 2)), ErrDestroyed)
}

func TestSamplerOutsideUnitZeroReadsBlack(t *testing.T) {
	dev := NewSoftwareDevice()
	prog, err := dev.CompileProgram(VertexSource, FragmentSource)
	require.NoError(t, err)
	quad, err := dev.CreateQuad(prog, QuadPositions, QuadTexCoords)
	require.NoError(t, err)
	tex, err := dev.CreateTexture()
	require.NoError(t, err)

	dev.Viewport(1, 1)
	frame := core.NewPixelBuffer(1, 1)
	frame.Fill(9, 9, 9, 9)
	dev.UploadTexture(tex, frame)
	dev.UseProgram(prog)
	dev.Uniform1i(dev.UniformLocation(prog, UniformSampler), 1)
	dev.DrawQuad(quad, tex)

	assert.Equal(t, [4]uint8{0, 0, 0, 255}, dev.Framebuffer().At(0, 0))
}

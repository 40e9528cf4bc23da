package shader

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"realtime-vision-pipeline/internal/core"
)

var uniformDecl = regexp.MustCompile(`uniform\s+\w+\s+(\w+)\s*;`)

// SoftwareFaults makes a SoftwareDevice fail individual operations.
type SoftwareFaults struct {
	Compile error
	Quad    error
	Texture error
	Present error
}

type softProgram struct {
	locations map[string]int32
	values    map[int32]float32
}

// SoftwareDevice is a CPU Device. Drawing evaluates the fragment program of
// FragmentSource for every viewport pixel into an RGBA framebuffer.
type SoftwareDevice struct {
	// OnPresent receives a copy of the framebuffer on every Present.
	OnPresent func(core.PixelBuffer)
	Faults    SoftwareFaults

	mu          sync.Mutex
	next        uint32
	programs    map[uint32]*softProgram
	quads       map[uint32]struct{}
	textures    map[uint32]core.PixelBuffer
	current     *softProgram
	framebuffer core.PixelBuffer
	presents    int
}

var _ Device = (*SoftwareDevice)(nil)

func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{
		programs: make(map[uint32]*softProgram),
		quads:    make(map[uint32]struct{}),
		textures: make(map[uint32]core.PixelBuffer),
	}
}

func (d *SoftwareDevice) handle() uint32 {
	d.next++
	return d.next
}

func (d *SoftwareDevice) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Faults.Compile != nil {
		return 0, d.Faults.Compile
	}
	for stage, src := range map[string]string{"vertex": vertexSrc, "fragment": fragmentSrc} {
		if !strings.Contains(src, "void main()") {
			return 0, fmt.Errorf("%s shader compile: missing main", stage)
		}
	}

	prog := &softProgram{
		locations: make(map[string]int32),
		values:    make(map[int32]float32),
	}
	for _, m := range uniformDecl.FindAllStringSubmatch(vertexSrc+fragmentSrc, -1) {
		if _, ok := prog.locations[m[1]]; !ok {
			prog.locations[m[1]] = int32(len(prog.locations))
		}
	}

	h := d.handle()
	d.programs[h] = prog
	return h, nil
}

func (d *SoftwareDevice) UniformLocation(program uint32, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	prog, ok := d.programs[program]
	if !ok {
		return -1
	}
	if loc, ok := prog.locations[name]; ok {
		return loc
	}
	return -1
}

func (d *SoftwareDevice) UseProgram(program uint32) {
	d.mu.Lock()
	d.current = d.programs[program]
	d.mu.Unlock()
}

func (d *SoftwareDevice) Uniform1i(location int32, v int32) {
	d.Uniform1f(location, float32(v))
}

func (d *SoftwareDevice) Uniform1f(location int32, v float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil || location < 0 {
		return
	}
	d.current.values[location] = v
}

func (d *SoftwareDevice) uniform(name string) float32 {
	if d.current == nil {
		return 0
	}
	loc, ok := d.current.locations[name]
	if !ok {
		return 0
	}
	return d.current.values[loc]
}

func (d *SoftwareDevice) CreateQuad(program uint32, positions, texCoords []float32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Faults.Quad != nil {
		return 0, d.Faults.Quad
	}
	if _, ok := d.programs[program]; !ok {
		return 0, fmt.Errorf("unknown program %d", program)
	}
	if len(positions) != 8 || len(texCoords) != 8 {
		return 0, errors.New("quad needs four 2D vertices")
	}

	h := d.handle()
	d.quads[h] = struct{}{}
	return h, nil
}

func (d *SoftwareDevice) CreateTexture() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Faults.Texture != nil {
		return 0, d.Faults.Texture
	}
	h := d.handle()
	d.textures[h] = core.PixelBuffer{}
	return h, nil
}

func (d *SoftwareDevice) UploadTexture(texture uint32, buf core.PixelBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.textures[texture]; ok {
		d.textures[texture] = buf.Clone()
	}
}

func (d *SoftwareDevice) Viewport(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if width != d.framebuffer.Width || height != d.framebuffer.Height {
		d.framebuffer = core.NewPixelBuffer(width, height)
	}
}

func (d *SoftwareDevice) Clear(r, g, b, a float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.framebuffer.Fill(
		core.ClampByte(float64(r)*255),
		core.ClampByte(float64(g)*255),
		core.ClampByte(float64(b)*255),
		core.ClampByte(float64(a)*255),
	)
}

func (d *SoftwareDevice) DrawQuad(quad, texture uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.quads[quad]; !ok || d.current == nil {
		return
	}
	tex := d.textures[texture]
	fb := d.framebuffer
	if tex.Empty() || fb.Empty() {
		return
	}

	effect := EffectKind(d.uniform(UniformEffect))
	brightness := d.uniform(UniformBrightness)
	contrast := d.uniform(UniformContrast)
	unit := int(d.uniform(UniformSampler))

	for y := 0; y < fb.Height; y++ {
		ty := y * tex.Height / fb.Height
		for x := 0; x < fb.Width; x++ {
			tx := x * tex.Width / fb.Width

			// Only unit 0 has the frame bound; others sample black.
			texel := [4]uint8{0, 0, 0, 255}
			if unit == 0 {
				texel = tex.At(tx, ty)
			}
			out := Shade(effect, brightness, contrast, texel)
			copy(fb.Pix[fb.Offset(x, y):], out[:])
		}
	}
}

func (d *SoftwareDevice) Present() error {
	d.mu.Lock()
	if d.Faults.Present != nil {
		d.mu.Unlock()
		return d.Faults.Present
	}
	d.presents++
	frame := d.framebuffer.Clone()
	hook := d.OnPresent
	d.mu.Unlock()

	if hook != nil {
		hook(frame)
	}
	return nil
}

func (d *SoftwareDevice) DeleteTexture(texture uint32) {
	d.mu.Lock()
	delete(d.textures, texture)
	d.mu.Unlock()
}

func (d *SoftwareDevice) DeleteQuad(quad uint32) {
	d.mu.Lock()
	delete(d.quads, quad)
	d.mu.Unlock()
}

func (d *SoftwareDevice) DeleteProgram(program uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prog, ok := d.programs[program]; ok {
		if d.current == prog {
			d.current = nil
		}
		delete(d.programs, program)
	}
}

// Framebuffer returns a copy of the last drawn frame.
func (d *SoftwareDevice) Framebuffer() core.PixelBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framebuffer.Clone()
}

// Live reports how many programs, quads and textures are allocated.
func (d *SoftwareDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs) + len(d.quads) + len(d.textures)
}

// Presents reports how many frames were presented.
func (d *SoftwareDevice) Presents() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presents
}

// Shade evaluates the fragment program for one texel: normalize to [0,1],
// apply the effect to RGB, clamp and convert back to 8 bits. Alpha is
// copied from the texel.
func Shade(effect EffectKind, brightness, contrast float32, texel [4]uint8) [4]uint8 {
	r := float32(texel[0]) / 255
	g := float32(texel[1]) / 255
	b := float32(texel[2]) / 255

	switch effect {
	case EffectInvert:
		r, g, b = 1-r, 1-g, 1-b
	case EffectSepia:
		r, g, b = r*0.393+g*0.769+b*0.189,
			r*0.349+g*0.686+b*0.168,
			r*0.272+g*0.534+b*0.131
	case EffectBrightness:
		r, g, b = r+brightness, g+brightness, b+brightness
	case EffectContrast:
		k := 1 + contrast
		r = (r-0.5)*k + 0.5
		g = (g-0.5)*k + 0.5
		b = (b-0.5)*k + 0.5
	}

	return [4]uint8{
		core.ClampByte(float64(r) * 255),
		core.ClampByte(float64(g) * 255),
		core.ClampByte(float64(b) * 255),
		texel[3],
	}
}

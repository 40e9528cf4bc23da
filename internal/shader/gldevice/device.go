// Package gldevice implements shader.Device on an OpenGL 3.3 core context
// owned by a GLFW window. All methods must be called from the OS thread that
// created the Device (lock it with runtime.LockOSThread before New).
package gldevice

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/sirupsen/logrus"

	"realtime-vision-pipeline/internal/core"
	"realtime-vision-pipeline/internal/shader"
)

// ErrInit wraps GLFW, window and GL loader failures.
var ErrInit = errors.New("gldevice: init failed")

// Config describes the output window.
type Config struct {
	Title  string
	Width  int
	Height int
	VSync  bool
}

type quadBuffers struct {
	vao  uint32
	vbos [2]uint32
}

// Device renders into the default framebuffer of a GLFW window.
type Device struct {
	window *glfw.Window
	logger logrus.FieldLogger
	quads  map[uint32]quadBuffers

	width, height int
}

var _ shader.Device = (*Device)(nil)

// New initializes GLFW, opens the window and loads GL function pointers.
func New(cfg Config, logger logrus.FieldLogger) (*Device, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: glfw: %v", ErrInit, err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if runtime.GOOS == "darwin" {
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: window: %v", ErrInit, err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("%w: gl: %v", ErrInit, err)
	}

	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	logger.WithFields(logrus.Fields{
		"gl_version": gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer":   gl.GoStr(gl.GetString(gl.RENDERER)),
		"width":      cfg.Width,
		"height":     cfg.Height,
	}).Info("SHADER: OpenGL context created")

	return &Device{
		window: window,
		logger: logger,
		quads:  make(map[uint32]quadBuffers),
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}

// ShouldClose reports whether the user asked to close the window.
func (d *Device) ShouldClose() bool {
	return d.window.ShouldClose()
}

// Close destroys the window and terminates GLFW.
func (d *Device) Close() {
	d.window.Destroy()
	glfw.Terminate()
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(src + "\x00")
	defer free()
	gl.ShaderSource(sh, 1, csources, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("shader compile: %s", strings.TrimRight(log, "\x00"))
	}
	return sh, nil
}

func (d *Device) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("program link: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *Device) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (d *Device) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (d *Device) CreateQuad(program uint32, positions, texCoords []float32) (uint32, error) {
	var q quadBuffers
	gl.GenVertexArrays(1, &q.vao)
	gl.BindVertexArray(q.vao)
	gl.GenBuffers(2, &q.vbos[0])

	attribs := []struct {
		name string
		data []float32
	}{
		{shader.AttribPosition, positions},
		{shader.AttribTexCoord, texCoords},
	}
	for i, a := range attribs {
		loc := gl.GetAttribLocation(program, gl.Str(a.name+"\x00"))
		if loc < 0 || len(a.data) == 0 {
			gl.BindVertexArray(0)
			gl.DeleteBuffers(2, &q.vbos[0])
			gl.DeleteVertexArrays(1, &q.vao)
			return 0, fmt.Errorf("attribute %s not available", a.name)
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, q.vbos[i])
		gl.BufferData(gl.ARRAY_BUFFER, len(a.data)*4, gl.Ptr(a.data), gl.STATIC_DRAW)
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointer(uint32(loc), 2, gl.FLOAT, false, 0, gl.PtrOffset(0))
	}

	gl.BindVertexArray(0)
	d.quads[q.vao] = q
	return q.vao, nil
}

func (d *Device) CreateTexture() (uint32, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return 0, errors.New("glGenTextures returned no name")
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	return tex, nil
}

func (d *Device) UploadTexture(texture uint32, buf core.PixelBuffer) {
	if len(buf.Pix) == 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(buf.Width), int32(buf.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf.Pix))
}

func (d *Device) Viewport(width, height int) {
	if width != d.width || height != d.height {
		d.window.SetSize(width, height)
		d.width, d.height = width, height
	}
	fbw, fbh := d.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbw), int32(fbh))
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) DrawQuad(quad, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.BindVertexArray(quad)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
}

// Present swaps buffers, pumps window events and reports any pending GL
// error.
func (d *Device) Present() error {
	d.window.SwapBuffers()
	glfw.PollEvents()

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return nil
}

func (d *Device) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (d *Device) DeleteQuad(quad uint32) {
	q, ok := d.quads[quad]
	if !ok {
		return
	}
	gl.DeleteBuffers(2, &q.vbos[0])
	gl.DeleteVertexArrays(1, &q.vao)
	delete(d.quads, quad)
}

func (d *Device) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

package shader

import "realtime-vision-pipeline/internal/core"

// Device is the GPU surface a Pipeline drives. Handles are opaque, non-zero
// on success. Implementations are not safe for concurrent use; OpenGL ones
// must be called from the thread that owns the context.
type Device interface {
	// CompileProgram compiles and links a vertex and fragment program.
	CompileProgram(vertexSrc, fragmentSrc string) (uint32, error)
	// UniformLocation returns -1 when the program has no such uniform.
	UniformLocation(program uint32, name string) int32
	UseProgram(program uint32)
	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)

	// CreateQuad uploads a static triangle strip bound to the program's
	// aPosition and aTexCoord attributes.
	CreateQuad(program uint32, positions, texCoords []float32) (uint32, error)
	// CreateTexture allocates a 2D texture with clamp-to-edge wrapping and
	// linear filtering.
	CreateTexture() (uint32, error)
	// UploadTexture replaces the whole texture image with buf.
	UploadTexture(texture uint32, buf core.PixelBuffer)

	Viewport(width, height int)
	Clear(r, g, b, a float32)
	// DrawQuad draws the quad with texture bound on unit 0.
	DrawQuad(quad, texture uint32)
	// Present makes the drawn frame visible.
	Present() error

	DeleteTexture(texture uint32)
	DeleteQuad(quad uint32)
	DeleteProgram(program uint32)
}

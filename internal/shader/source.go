package shader

// Uniform and attribute names shared by the programs below and the devices.
const (
	UniformSampler    = "uSampler"
	UniformEffect     = "uEffect"
	UniformBrightness = "uBrightness"
	UniformContrast   = "uContrast"

	AttribPosition = "aPosition"
	AttribTexCoord = "aTexCoord"
)

// VertexSource passes clip-space positions and texture coordinates through.
const VertexSource = `#version 330 core
in vec2 aPosition;
in vec2 aTexCoord;
out vec2 vTexCoord;

void main() {
	gl_Position = vec4(aPosition, 0.0, 1.0);
	vTexCoord = aTexCoord;
}
`

// FragmentSource samples the frame texture and applies the selected effect.
// Colour is clamped to [0,1] on write; alpha is passed through.
const FragmentSource = `#version 330 core
in vec2 vTexCoord;
out vec4 fragColor;

uniform sampler2D uSampler;
uniform int uEffect;
uniform float uBrightness;
uniform float uContrast;

vec3 applyBrightness(vec3 color, float brightness) {
	return color + brightness;
}

vec3 applyContrast(vec3 color, float contrast) {
	return (color - 0.5) * (1.0 + contrast) + 0.5;
}

void main() {
	vec4 texColor = texture(uSampler, vTexCoord);
	vec3 color = texColor.rgb;

	if (uEffect == 1) {
		color = 1.0 - color;
	} else if (uEffect == 2) {
		float r = color.r * 0.393 + color.g * 0.769 + color.b * 0.189;
		float g = color.r * 0.349 + color.g * 0.686 + color.b * 0.168;
		float b = color.r * 0.272 + color.g * 0.534 + color.b * 0.131;
		color = vec3(r, g, b);
	} else if (uEffect == 3) {
		color = applyBrightness(color, uBrightness);
	} else if (uEffect == 4) {
		color = applyContrast(color, uContrast);
	}

	fragColor = vec4(clamp(color, 0.0, 1.0), texColor.a);
}
`

// Full-screen quad drawn as a 4-vertex triangle strip. Texture row 0 is the
// top of the frame, so the top vertices sample t=0.
var (
	QuadPositions = []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}
	QuadTexCoords = []float32{
		0, 1,
		1, 1,
		0, 0,
		1, 0,
	}
)

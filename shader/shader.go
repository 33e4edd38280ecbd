package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/noisefield/field"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceFlipGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, vec2(frag_uv.x, 1.0 - frag_uv.y)); }
`

const blitFragmentShaderSourceGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceFlipGLES = `#version 300 es
precision mediump float;
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, vec2(frag_uv.x, 1.0 - frag_uv.y)); }
`

const blitFragmentShaderSourceGLES = `#version 300 es
precision mediump float;
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

// ─────────────────────────────── Background program ─────────────────────────────

// Uniform names declared by the background program, before translation.
const (
	UniformTime       = "u_time"
	UniformMouse      = "u_mouse"
	UniformResolution = "u_resolution"
)

const backgroundPreamble = `#version 300 es
precision highp float;

uniform float u_time;
uniform vec2  u_mouse;
uniform vec2  u_resolution;

out vec4 fragColor;
`

// Simplex 3D noise by Stefan Gustavson (webgl-noise), followed by the fbm and
// the shading pass. UV comes from gl_FragCoord so the program needs no varyings.
const backgroundBody = `
vec4 permute(vec4 x) {
    return mod(((x * 34.0) + 1.0) * x, 289.0);
}
vec4 taylorInvSqrt(vec4 r) {
    return 1.79284291400159 - 0.85373472095314 * r;
}

float snoise(vec3 v) {
    const vec2 C = vec2(1.0 / 6.0, 1.0 / 3.0);
    const vec4 D = vec4(0.0, 0.5, 1.0, 2.0);

    vec3 i  = floor(v + dot(v, C.yyy));
    vec3 x0 = v - i + dot(i, C.xxx);

    vec3 g = step(x0.yzx, x0.xyz);
    vec3 l = 1.0 - g;
    vec3 i1 = min(g.xyz, l.zxy);
    vec3 i2 = max(g.xyz, l.zxy);

    vec3 x1 = x0 - i1 + C.xxx;
    vec3 x2 = x0 - i2 + C.yyy;
    vec3 x3 = x0 - D.yyy;

    i = mod(i, 289.0);
    vec4 p = permute(permute(permute(
              i.z + vec4(0.0, i1.z, i2.z, 1.0))
            + i.y + vec4(0.0, i1.y, i2.y, 1.0))
            + i.x + vec4(0.0, i1.x, i2.x, 1.0));

    float n_ = 1.0 / 7.0;
    vec3 ns = n_ * D.wyz - D.xzx;

    vec4 j = p - 49.0 * floor(p * ns.z * ns.z);

    vec4 x_ = floor(j * ns.z);
    vec4 y_ = floor(j - 7.0 * x_);

    vec4 x = x_ * ns.x + ns.yyyy;
    vec4 y = y_ * ns.x + ns.yyyy;
    vec4 h = 1.0 - abs(x) - abs(y);

    vec4 b0 = vec4(x.xy, y.xy);
    vec4 b1 = vec4(x.zw, y.zw);

    vec4 s0 = floor(b0) * 2.0 + 1.0;
    vec4 s1 = floor(b1) * 2.0 + 1.0;
    vec4 sh = -step(h, vec4(0.0));

    vec4 a0 = b0.xzyw + s0.xzyw * sh.xxyy;
    vec4 a1 = b1.xzyw + s1.xzyw * sh.zzww;

    vec3 p0 = vec3(a0.xy, h.x);
    vec3 p1 = vec3(a0.zw, h.y);
    vec3 p2 = vec3(a1.xy, h.z);
    vec3 p3 = vec3(a1.zw, h.w);

    vec4 norm = taylorInvSqrt(vec4(dot(p0, p0), dot(p1, p1), dot(p2, p2), dot(p3, p3)));
    p0 *= norm.x; p1 *= norm.y;
    p2 *= norm.z; p3 *= norm.w;

    vec4 m = max(0.6 - vec4(dot(x0, x0), dot(x1, x1), dot(x2, x2), dot(x3, x3)), 0.0);
    m = m * m;
    return 42.0 * dot(m * m, vec4(dot(p0, x0), dot(p1, x1), dot(p2, x2), dot(p3, x3)));
}

float fbm(vec3 p) {
    float value = 0.0;
    float amplitude = 0.5;
    float frequency = 1.0;
    for (int i = 0; i < OCTAVES; i++) {
        value += amplitude * snoise(p * frequency);
        frequency *= 2.0;
        amplitude *= 0.5;
    }
    return value;
}

void main() {
    vec2 res = max(u_resolution, vec2(1.0));
    vec2 uv = gl_FragCoord.xy / res;
    float aspect = res.x / res.y;
    vec2 uvAspect = vec2(uv.x * aspect, uv.y);

    float t = u_time * FLOW_SPEED;

    vec2 mouseAspect = vec2(u_mouse.x * aspect, u_mouse.y);
    float mouseInfluence = smoothstep(MOUSE_RADIUS, 0.0, distance(uvAspect, mouseAspect)) * MOUSE_STRENGTH;

    vec2 mouseDir = normalize(uvAspect - mouseAspect + 0.001);
    vec2 distortion = mouseDir * mouseInfluence * 0.3;

    vec3 noiseCoord = vec3(uvAspect * NOISE_SCALE + distortion, t);

    float k = RGB_OFFSET * (1.0 + mouseInfluence * 2.0);
    float r = fbm(noiseCoord + vec3( k,  0.0, 0.0));
    float g = fbm(noiseCoord + vec3( 0.0, k,  0.0));
    float b = fbm(noiseCoord + vec3(-k, -k,   0.0));

    vec3 noiseRGB = vec3(r, g, b) * 0.5 + 0.5;

    float highlight = smoothstep(0.55, 0.85, noiseRGB.g) * GLOW_INTENSITY;
    float redGlow = mouseInfluence * 0.4 * smoothstep(0.4, 0.7, noiseRGB.r);

    vec3 color = vec3(BASE_BRIGHTNESS);
    color += noiseRGB * 0.06;
    color += ACCENT_GREEN * highlight * 0.15;
    color += ACCENT_RED * redGlow * 0.3;
    color += vec3(noiseRGB.r - noiseRGB.b) * 0.03;

    color *= 1.0 - smoothstep(0.4, 1.4, length(uv - 0.5) * 1.5);

    fragColor = vec4(clamp(color, 0.0, 1.0), 1.0);
}
`

// glslFloat formats v as a GLSL float literal; GLSL ES rejects "3" where a
// float is expected.
func glslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func glslVec3(v mgl32.Vec3) string {
	return fmt.Sprintf("vec3(%s, %s, %s)", glslFloat(v[0]), glslFloat(v[1]), glslFloat(v[2]))
}

// Defines returns the #define block binding p into the background program.
func Defines(p field.Params) string {
	var sb strings.Builder
	def := func(name, value string) {
		fmt.Fprintf(&sb, "#define %-16s %s\n", name, value)
	}
	def("OCTAVES", strconv.Itoa(field.Octaves))
	def("NOISE_SCALE", glslFloat(p.NoiseScale))
	def("FLOW_SPEED", glslFloat(p.FlowSpeed))
	def("RGB_OFFSET", glslFloat(p.RGBOffset))
	def("MOUSE_RADIUS", glslFloat(p.MouseRadius))
	def("MOUSE_STRENGTH", glslFloat(p.MouseStrength))
	def("GLOW_INTENSITY", glslFloat(p.GlowIntensity))
	def("BASE_BRIGHTNESS", glslFloat(p.BaseBrightness))
	def("ACCENT_GREEN", glslVec3(field.AccentGreen))
	def("ACCENT_RED", glslVec3(field.AccentRed))
	return sb.String()
}

// GetBackgroundFragmentShader returns the WebGL2 (ESSL 3.00) source of the
// background program. It is fed to the translator, which emits the dialect of
// the current context.
func GetBackgroundFragmentShader(p field.Params) string {
	return backgroundPreamble + "\n" + Defines(p) + backgroundBody
}

// ────────────────────────────────── Public API ─────────────────────────────────

func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

func GetBlitFragmentShader(flip, isGLES bool) string {
	if isGLES {
		if flip {
			return blitFragmentShaderSourceFlipGLES
		}
		return blitFragmentShaderSourceGLES
	}
	if flip {
		return blitFragmentShaderSourceFlipGL
	}
	return blitFragmentShaderSourceGL
}

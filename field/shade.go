package field

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Smoothstep is GLSL smoothstep. It is also used with edge0 > edge1, which
// yields the reversed falloff.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Aspect returns width/height with the height guarded against zero.
func Aspect(resolution mgl32.Vec2) float32 {
	h := resolution[1]
	if h < 1 {
		h = 1
	}
	w := resolution[0]
	if w < 1 {
		w = 1
	}
	return w / h
}

// Influence is the pointer falloff at uv, in [0, MouseStrength].
func (p Params) Influence(uv, mouse mgl32.Vec2, aspect float32) float32 {
	d := mgl32.Vec2{uv[0] * aspect, uv[1]}.Sub(mgl32.Vec2{mouse[0] * aspect, mouse[1]})
	return Smoothstep(p.MouseRadius, 0, d.Len()) * p.MouseStrength
}

// Vignette is the radial brightness multiplier; exactly 1 at the center.
func Vignette(uv mgl32.Vec2) float32 {
	d := uv.Sub(mgl32.Vec2{0.5, 0.5})
	return 1 - Smoothstep(0.4, 1.4, d.Len()*1.5)
}

func normalize2(v mgl32.Vec2) mgl32.Vec2 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec2{}
	}
	return v.Mul(1 / l)
}

// Shade evaluates the background color at uv in [0,1]², origin bottom-left.
// The result is clamped to [0,1] per channel.
func (p Params) Shade(u Uniforms, uv mgl32.Vec2) mgl32.Vec3 {
	aspect := Aspect(u.Resolution)
	uvAspect := mgl32.Vec2{uv[0] * aspect, uv[1]}
	mouseAspect := mgl32.Vec2{u.Mouse[0] * aspect, u.Mouse[1]}
	t := u.Time * p.FlowSpeed

	influence := p.Influence(uv, u.Mouse, aspect)

	// push the field away from the pointer
	dir := normalize2(uvAspect.Sub(mouseAspect).Add(mgl32.Vec2{0.001, 0.001}))
	distortion := dir.Mul(influence * 0.3)

	base := uvAspect.Mul(p.NoiseScale).Add(distortion).Vec3(t)

	// channel split widens near the pointer
	k := p.RGBOffset * (1 + influence*2)
	r := FBM(base.Add(mgl32.Vec3{k, 0, 0}))
	g := FBM(base.Add(mgl32.Vec3{0, k, 0}))
	b := FBM(base.Add(mgl32.Vec3{-k, -k, 0}))

	noise := mgl32.Vec3{r*0.5 + 0.5, g*0.5 + 0.5, b*0.5 + 0.5}

	highlight := Smoothstep(0.55, 0.85, noise[1]) * p.GlowIntensity
	redGlow := influence * 0.4 * Smoothstep(0.4, 0.7, noise[0])

	color := mgl32.Vec3{p.BaseBrightness, p.BaseBrightness, p.BaseBrightness}
	color = color.Add(noise.Mul(0.06))
	color = color.Add(AccentGreen.Mul(highlight * 0.15))
	color = color.Add(AccentRed.Mul(redGlow * 0.3))
	diff := (noise[0] - noise[2]) * 0.03
	color = color.Add(mgl32.Vec3{diff, diff, diff})

	color = color.Mul(Vignette(uv))

	return mgl32.Vec3{
		mgl32.Clamp(color[0], 0, 1),
		mgl32.Clamp(color[1], 0, 1),
		mgl32.Clamp(color[2], 0, 1),
	}
}

// ShadePixel shades the center of pixel (x, y) of a surface whose row 0 is the
// top, as image.Image rows are.
func (p Params) ShadePixel(u Uniforms, x, y int) mgl32.Vec3 {
	w, h := u.Resolution[0], u.Resolution[1]
	uv := mgl32.Vec2{
		(float32(x) + 0.5) / max(w, 1),
		1 - (float32(y)+0.5)/max(h, 1),
	}
	return p.Shade(u, uv)
}

package field

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothstep(t *testing.T) {
	assert.Equal(t, float32(0), Smoothstep(0.4, 1.4, 0))
	assert.Equal(t, float32(1), Smoothstep(0.4, 1.4, 2))
	assert.InDelta(t, 0.5, Smoothstep(0, 1, 0.5), 1e-6)

	// reversed edges give a falloff
	assert.Equal(t, float32(1), Smoothstep(0.35, 0, 0))
	assert.Equal(t, float32(0), Smoothstep(0.35, 0, 0.5))
}

func TestVignetteCenterIsUnattenuated(t *testing.T) {
	assert.Equal(t, float32(1), Vignette(mgl32.Vec2{0.5, 0.5}))
	assert.Less(t, Vignette(mgl32.Vec2{0, 0}), float32(0.5))
	assert.Less(t, Vignette(mgl32.Vec2{1, 1}), Vignette(mgl32.Vec2{0.75, 0.75}))
}

func TestAspectGuardsZero(t *testing.T) {
	assert.Equal(t, float32(1), Aspect(mgl32.Vec2{0, 0}))
	assert.Equal(t, float32(1920), Aspect(mgl32.Vec2{1920, 0}))
	assert.InDelta(t, 16.0/9.0, Aspect(mgl32.Vec2{1920, 1080}), 1e-6)
}

func TestInfluence(t *testing.T) {
	p := DefaultParams()
	mouse := mgl32.Vec2{0.5, 0.5}

	assert.InDelta(t, p.MouseStrength, p.Influence(mouse, mouse, 1), 1e-6)
	assert.Equal(t, float32(0), p.Influence(mgl32.Vec2{0.9, 0.5}, mouse, 1))

	near := p.Influence(mgl32.Vec2{0.55, 0.5}, mouse, 1)
	far := p.Influence(mgl32.Vec2{0.7, 0.5}, mouse, 1)
	assert.Greater(t, near, far)
	assert.Greater(t, far, float32(0))
}

func TestSnoiseRange(t *testing.T) {
	var lo, hi float32 = 1, -1
	for x := float32(-4); x < 4; x += 0.37 {
		for y := float32(-4); y < 4; y += 0.41 {
			for z := float32(0); z < 2; z += 0.29 {
				v := mgl32.Vec3{x, y, z}
				n := Snoise(v)
				require.GreaterOrEqual(t, n, float32(-1))
				require.LessOrEqual(t, n, float32(1))
				lo, hi = min(lo, n), max(hi, n)
			}
		}
	}
	// the field actually varies
	assert.Less(t, lo, float32(-0.3))
	assert.Greater(t, hi, float32(0.3))
}

// Reference values computed from the GLSL program with every operation
// rounded to float32.
func TestSnoiseMatchesGLSL(t *testing.T) {
	cases := []struct {
		v    mgl32.Vec3
		want float32
	}{
		{mgl32.Vec3{-4, -4, 0}, 0.7159027},
		// the 0.6 kernel radius makes the field steep across simplex borders
		{mgl32.Vec3{-3.999, -4, 0}, 0.6349895},
		{mgl32.Vec3{1.25, -3.5, 0.75}, 0.5406817},
		{mgl32.Vec3{0.3, 0.7, 2.1}, -0.1723240},
		{mgl32.Vec3{10.5, 3.25, -1.5}, -0.5550526},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, Snoise(c.v), 1e-5, "snoise(%v)", c.v)
	}
}

func TestFBMMatchesGLSL(t *testing.T) {
	cases := []struct {
		v    mgl32.Vec3
		want float32
	}{
		{mgl32.Vec3{0.5, 0.5, 0}, 0.2512185},
		{mgl32.Vec3{1.7, 2.3, 0.45}, -0.2293468},
		{mgl32.Vec3{-2.2, 5.1, 3.3}, -0.2034537},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, FBM(c.v), 1e-5, "fbm(%v)", c.v)
	}
}

func TestShadeMatchesGLSL(t *testing.T) {
	p := DefaultParams()
	u := Uniforms{Time: 2.5, Mouse: mgl32.Vec2{0.4, 0.6}, Resolution: mgl32.Vec2{1280, 720}}
	cases := []struct {
		uv   mgl32.Vec2
		want mgl32.Vec3
	}{
		{mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{0.0927625, 0.0973116, 0.0994720}},
		// under the pointer: red glow and widest split
		{mgl32.Vec2{0.4, 0.6}, mgl32.Vec3{0.2007807, 0.1674591, 0.1366284}},
		{mgl32.Vec2{0.1, 0.9}, mgl32.Vec3{0.0646777, 0.0635021, 0.0626750}},
		{mgl32.Vec2{0.8, 0.25}, mgl32.Vec3{0.0997285, 0.0978845, 0.1011444}},
	}
	for _, c := range cases {
		got := p.Shade(u, c.uv)
		for ch := 0; ch < 3; ch++ {
			assert.InDelta(t, c.want[ch], got[ch], 2e-5, "shade(%v) channel %d", c.uv, ch)
		}
	}
}

func TestSnoiseDeterministic(t *testing.T) {
	v := mgl32.Vec3{1.25, -3.5, 0.75}
	assert.Equal(t, Snoise(v), Snoise(v))
	assert.NotEqual(t, Snoise(v), Snoise(v.Add(mgl32.Vec3{0.5, 0, 0})))
}

func TestFBMBounded(t *testing.T) {
	for x := float32(0); x < 6; x += 0.53 {
		for y := float32(0); y < 6; y += 0.47 {
			n := FBM(mgl32.Vec3{x, y, 0.3})
			require.GreaterOrEqual(t, n, float32(-1))
			require.LessOrEqual(t, n, float32(1))
		}
	}
}

func TestShadeClampedToUnitRange(t *testing.T) {
	p := DefaultParams()
	u := Uniforms{Time: 12.5, Mouse: mgl32.Vec2{0.3, 0.6}, Resolution: mgl32.Vec2{640, 480}}
	for x := 0; x < 640; x += 37 {
		for y := 0; y < 480; y += 29 {
			c := p.ShadePixel(u, x, y)
			for ch := 0; ch < 3; ch++ {
				require.GreaterOrEqual(t, c[ch], float32(0))
				require.LessOrEqual(t, c[ch], float32(1))
			}
		}
	}
}

func TestShadeCornerDarkerThanCenter(t *testing.T) {
	p := DefaultParams()
	u := Uniforms{Time: 0, Mouse: mgl32.Vec2{0.5, 0.5}, Resolution: mgl32.Vec2{1920, 1080}}

	corner := p.Shade(u, mgl32.Vec2{0, 0})
	center := p.Shade(u, mgl32.Vec2{0.5, 0.5})

	sum := func(c mgl32.Vec3) float32 { return c[0] + c[1] + c[2] }
	assert.Less(t, sum(corner), sum(center))
}

func TestShadeZeroResolution(t *testing.T) {
	p := DefaultParams()
	u := Uniforms{Time: 1, Mouse: mgl32.Vec2{0.5, 0.5}}
	c := p.Shade(u, mgl32.Vec2{0.5, 0.5})
	for ch := 0; ch < 3; ch++ {
		assert.False(t, c[ch] != c[ch], "NaN in channel %d", ch)
	}
}

func TestShadeAtPointerIsFinite(t *testing.T) {
	p := DefaultParams()
	// the pointer direction degenerates next to the pointer
	u := Uniforms{Mouse: mgl32.Vec2{0.501, 0.501}, Resolution: mgl32.Vec2{100, 100}}
	c := p.Shade(u, mgl32.Vec2{0.5, 0.5})
	for ch := 0; ch < 3; ch++ {
		assert.False(t, c[ch] != c[ch], "NaN in channel %d", ch)
	}
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.NoiseScale = 0
	assert.ErrorContains(t, p.Validate(), "noise_scale")

	p = DefaultParams()
	p.GlowIntensity = -1
	assert.ErrorContains(t, p.Validate(), "glow_intensity")
}

func TestSpeckleReproducible(t *testing.T) {
	render := func(seed int64) *image.RGBA {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for i := range img.Pix {
			img.Pix[i] = 200
		}
		Speckle(img, rand.New(rand.NewSource(seed)), 100)
		return img
	}

	a, b := render(7), render(7)
	assert.Equal(t, a.Pix, b.Pix)
	assert.NotEqual(t, a.Pix, render(8).Pix)

	darkened := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := a.RGBAAt(x, y)
			if c != (color.RGBA{200, 200, 200, 200}) {
				darkened++
				assert.Less(t, c.R, uint8(200))
			}
		}
	}
	assert.Greater(t, darkened, 0)
	assert.LessOrEqual(t, darkened, 100)
}

func TestSpeckleDotAlpha(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	Speckle(img, rand.New(rand.NewSource(1)), 1)
	assert.Equal(t, color.RGBA{0, 0, 0, 8}, img.RGBAAt(0, 0))
}

func TestSpeckleNoop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	Speckle(img, rand.New(rand.NewSource(1)), 0)
	assert.Equal(t, make([]uint8, len(img.Pix)), img.Pix)
}

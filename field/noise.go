package field

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Octaves is the number of simplex layers summed by FBM.
const Octaves = 5

// The helpers below follow GLSL semantics so that the CPU path and the GPU
// program agree to float32 precision.

func floor(x float32) float32 { return float32(math.Floor(float64(x))) }

// mod is GLSL mod: x - y*floor(x/y).
func mod(x, y float32) float32 { return x - y*floor(x/y) }

// step is GLSL step: 0 when x < edge, else 1.
func step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

func permute(x float32) float32 { return mod((x*34.0+1.0)*x, 289.0) }

func taylorInvSqrt(r float32) float32 { return 1.79284291400159 - 0.85373472095314*r }

// Snoise evaluates 3D simplex noise in [-1,1] using the permutation polynomial
// of the webgl-noise package (Stefan Gustavson), so it needs no lookup tables
// and matches the GLSL program.
func Snoise(v mgl32.Vec3) float32 {
	const (
		cx = 1.0 / 6.0
		cy = 1.0 / 3.0
	)

	// first corner
	s := (v[0] + v[1] + v[2]) * cy
	i := mgl32.Vec3{floor(v[0] + s), floor(v[1] + s), floor(v[2] + s)}
	t := (i[0] + i[1] + i[2]) * cx
	x0 := mgl32.Vec3{v[0] - i[0] + t, v[1] - i[1] + t, v[2] - i[2] + t}

	// other corners
	g := mgl32.Vec3{step(x0[1], x0[0]), step(x0[2], x0[1]), step(x0[0], x0[2])}
	l := mgl32.Vec3{1 - g[0], 1 - g[1], 1 - g[2]}
	i1 := mgl32.Vec3{min(g[0], l[2]), min(g[1], l[0]), min(g[2], l[1])}
	i2 := mgl32.Vec3{max(g[0], l[2]), max(g[1], l[0]), max(g[2], l[1])}

	corners := [4]mgl32.Vec3{
		x0,
		{x0[0] - i1[0] + cx, x0[1] - i1[1] + cx, x0[2] - i1[2] + cx},
		{x0[0] - i2[0] + cy, x0[1] - i2[1] + cy, x0[2] - i2[2] + cy},
		{x0[0] - 0.5, x0[1] - 0.5, x0[2] - 0.5},
	}
	offsets := [4]mgl32.Vec3{{0, 0, 0}, i1, i2, {1, 1, 1}}

	i = mgl32.Vec3{mod(i[0], 289), mod(i[1], 289), mod(i[2], 289)}

	// ns = (2/7, 0.5/7 - 1, 1/7)
	const (
		nsx = 2.0 / 7.0
		nsy = 0.5/7.0 - 1.0
		nsz = 1.0 / 7.0
	)

	var sum float32
	for k := 0; k < 4; k++ {
		o := offsets[k]
		p := permute(permute(permute(i[2]+o[2])+i[1]+o[1]) + i[0] + o[0])

		j := p - 49.0*floor(p*nsz*nsz)
		xi := floor(j * nsz)
		yi := floor(j - 7.0*xi)
		x := xi*nsx + nsy
		y := yi*nsx + nsy
		h := 1.0 - mgl32.Abs(x) - mgl32.Abs(y)

		// sh is -1 where h <= 0
		sh := -step(h, 0)
		grad := mgl32.Vec3{
			x + (floor(x)*2+1)*sh,
			y + (floor(y)*2+1)*sh,
			h,
		}
		grad = grad.Mul(taylorInvSqrt(grad.Dot(grad)))

		c := corners[k]
		m := max(0.6-c.Dot(c), 0)
		m *= m
		sum += m * m * grad.Dot(c)
	}
	return 42.0 * sum
}

// FBM sums Octaves layers of Snoise, amplitude starting at 0.5 and halving,
// frequency starting at 1 and doubling.
func FBM(p mgl32.Vec3) float32 {
	var value float32
	amplitude := float32(0.5)
	frequency := float32(1.0)
	for o := 0; o < Octaves; o++ {
		value += amplitude * Snoise(p.Mul(frequency))
		frequency *= 2.0
		amplitude *= 0.5
	}
	return value
}

package field

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
)

// SpeckleAlpha is the opacity of one paper speckle dot.
const SpeckleAlpha = 0.03

// Speckle scatters count 1x1 dark dots over img, like the grain printed on the
// paper cards. Positions come from rng so output is reproducible per seed.
func Speckle(img draw.Image, rng *rand.Rand, count int) {
	b := img.Bounds()
	if b.Empty() || count <= 0 {
		return
	}
	dot := image.NewUniform(color.NRGBA{A: uint8(math.Round(SpeckleAlpha * 255))})
	for i := 0; i < count; i++ {
		x := b.Min.X + rng.Intn(b.Dx())
		y := b.Min.Y + rng.Intn(b.Dy())
		draw.Draw(img, image.Rect(x, y, x+1, y+1), dot, image.Point{}, draw.Over)
	}
}

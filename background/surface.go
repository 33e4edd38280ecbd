package background

import "math"

// DefaultMaxPixelRatio bounds the render resolution on high density displays.
const DefaultMaxPixelRatio = 2.0

// SurfaceSize returns the pixel size to render at for a window of logical size
// winW x winH whose framebuffer is fbW x fbH, with the device pixel ratio capped
// at maxRatio. Degenerate inputs clamp to 1x1.
func SurfaceSize(winW, winH, fbW, fbH int, maxRatio float64) (int, int) {
	if winW <= 0 || winH <= 0 {
		return clampSize(fbW), clampSize(fbH)
	}
	if maxRatio < 1 {
		maxRatio = 1
	}
	ratio := math.Min(float64(fbW)/float64(winW), float64(fbH)/float64(winH))
	if ratio <= 0 {
		ratio = 1
	}
	ratio = math.Min(ratio, maxRatio)
	return clampSize(int(math.Round(float64(winW) * ratio))), clampSize(int(math.Round(float64(winH) * ratio)))
}

func clampSize(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

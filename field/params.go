package field

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Params are the tunable constants of the background program. The zero value is
// not useful; start from DefaultParams.
type Params struct {
	NoiseScale     float32 `yaml:"noise_scale"`
	FlowSpeed      float32 `yaml:"flow_speed"`
	RGBOffset      float32 `yaml:"rgb_offset"`
	MouseRadius    float32 `yaml:"mouse_radius"`
	MouseStrength  float32 `yaml:"mouse_strength"`
	GlowIntensity  float32 `yaml:"glow_intensity"`
	BaseBrightness float32 `yaml:"base_brightness"`
}

// DefaultParams returns the constants the site shipped with.
func DefaultParams() Params {
	return Params{
		NoiseScale:     3.0,
		FlowSpeed:      0.15,
		RGBOffset:      0.025,
		MouseRadius:    0.35,
		MouseStrength:  0.6,
		GlowIntensity:  0.7,
		BaseBrightness: 0.08,
	}
}

func (p Params) Validate() error {
	if p.NoiseScale <= 0 {
		return fmt.Errorf("noise_scale must be positive, got %v", p.NoiseScale)
	}
	if p.MouseRadius <= 0 {
		return fmt.Errorf("mouse_radius must be positive, got %v", p.MouseRadius)
	}
	nonNegative := []struct {
		name  string
		value float32
	}{
		{"flow_speed", p.FlowSpeed},
		{"rgb_offset", p.RGBOffset},
		{"mouse_strength", p.MouseStrength},
		{"glow_intensity", p.GlowIntensity},
		{"base_brightness", p.BaseBrightness},
	}
	for _, c := range nonNegative {
		if c.value < 0 {
			return fmt.Errorf("%s must not be negative, got %v", c.name, c.value)
		}
	}
	return nil
}

// Uniforms are the per-frame inputs of the program.
type Uniforms struct {
	Time       float32
	Mouse      mgl32.Vec2 // normalized, origin bottom-left
	Resolution mgl32.Vec2 // surface size in pixels
}

// Fixed colors of the palette: charcoal base, acid green highlight, error red.
var (
	AccentGreen = mgl32.Vec3{0.224, 1.0, 0.078}
	AccentRed   = mgl32.Vec3{1.0, 0.2, 0.2}
)

package options

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/richinsley/noisefield/field"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of the background host. Values come from
// Default, then a YAML file, then NOISEFIELD_* environment variables, then
// command line flags.
type Config struct {
	Width         int          `yaml:"width"`
	Height        int          `yaml:"height"`
	MaxPixelRatio float64      `yaml:"max_pixel_ratio"`
	Title         string       `yaml:"title"`
	Glitch        bool         `yaml:"glitch"`
	Seed          int64        `yaml:"seed"`
	VSync         bool         `yaml:"vsync"`
	Params        field.Params `yaml:"params"`
	Record        Record       `yaml:"record"`
}

// Record holds the settings of offline rendering.
type Record struct {
	FPS        int     `yaml:"fps"`
	Duration   float64 `yaml:"duration"`
	Codec      string  `yaml:"codec"` // h264 or hevc
	OutputFile string  `yaml:"output"`
	FFMPEGPath string  `yaml:"ffmpeg"`
	PointerX   float32 `yaml:"pointer_x"`
	PointerY   float32 `yaml:"pointer_y"`
	CPU        bool    `yaml:"cpu"`
}

func Default() *Config {
	return &Config{
		Width:         1280,
		Height:        720,
		MaxPixelRatio: 2.0,
		Title:         "DIGITAL SCRAPBOOK",
		Glitch:        true,
		Seed:          1,
		VSync:         true,
		Params:        field.DefaultParams(),
		Record: Record{
			FPS:        60,
			Duration:   10.0,
			Codec:      "h264",
			OutputFile: "output.mp4",
			PointerX:   0.5,
			PointerY:   0.5,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NOISEFIELD_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"NOISEFIELD_WIDTH", &c.Width},
		{"NOISEFIELD_HEIGHT", &c.Height},
	}
	for _, e := range ints {
		if v, ok := lookup(e.name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", e.name, err)
			}
			*e.dst = n
		}
	}
	if v, ok := lookup("NOISEFIELD_MAX_PIXEL_RATIO"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid NOISEFIELD_MAX_PIXEL_RATIO: %w", err)
		}
		c.MaxPixelRatio = f
	}
	if v, ok := lookup("NOISEFIELD_FFMPEG"); ok && v != "" {
		c.Record.FFMPEGPath = v
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.MaxPixelRatio < 1 {
		errs = append(errs, fmt.Errorf("max_pixel_ratio must be at least 1, got %v", c.MaxPixelRatio))
	}
	if err := c.Params.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("params: %w", err))
	}
	if c.Record.FPS <= 0 {
		errs = append(errs, fmt.Errorf("record.fps must be positive, got %d", c.Record.FPS))
	}
	if c.Record.Duration <= 0 {
		errs = append(errs, fmt.Errorf("record.duration must be positive, got %v", c.Record.Duration))
	}
	switch c.Record.Codec {
	case "h264", "hevc":
	default:
		errs = append(errs, fmt.Errorf("record.codec must be h264 or hevc, got %q", c.Record.Codec))
	}
	if c.Record.PointerX < 0 || c.Record.PointerX > 1 || c.Record.PointerY < 0 || c.Record.PointerY > 1 {
		errs = append(errs, fmt.Errorf("record pointer must be within [0,1], got (%v, %v)", c.Record.PointerX, c.Record.PointerY))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// TotalFrames is the number of frames a recording renders.
func (r Record) TotalFrames() int {
	return int(r.Duration * float64(r.FPS))
}

package background

import (
	"fmt"
	"image"
	"runtime"

	"github.com/richinsley/noisefield/field"
	"golang.org/x/sync/errgroup"
)

// CPUBackend shades every pixel on the CPU, splitting rows across workers.
// It produces the same picture as the GPU program and is used for snapshots
// and for recording on machines without a usable GL driver.
type CPUBackend struct {
	img     *image.RGBA
	params  field.Params
	workers int
}

// NewCPUBackend returns a backend using up to workers goroutines per frame;
// workers <= 0 means GOMAXPROCS.
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPUBackend{workers: workers, params: field.DefaultParams()}
}

func (b *CPUBackend) Init(width, height int) error {
	b.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

func (b *CPUBackend) Resize(width, height int) {
	if b.img != nil && b.img.Rect.Dx() == width && b.img.Rect.Dy() == height {
		return
	}
	b.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (b *CPUBackend) SetParams(p field.Params) error {
	b.params = p
	return nil
}

// Draw shades the whole image. The resolution uniform must match the image.
func (b *CPUBackend) Draw(u Uniforms) error {
	if b.img == nil {
		return fmt.Errorf("cpu backend not initialized")
	}
	w, h := b.img.Rect.Dx(), b.img.Rect.Dy()
	if int(u.Resolution[0]) != w || int(u.Resolution[1]) != h {
		return fmt.Errorf("resolution %vx%v does not match surface %dx%d", u.Resolution[0], u.Resolution[1], w, h)
	}

	var g errgroup.Group
	g.SetLimit(b.workers)
	p := b.params
	for y := 0; y < h; y++ {
		g.Go(func() error {
			row := b.img.Pix[y*b.img.Stride : y*b.img.Stride+w*4]
			for x := 0; x < w; x++ {
				c := p.ShadePixel(u, x, y)
				row[x*4+0] = toByte(c[0])
				row[x*4+1] = toByte(c[1])
				row[x*4+2] = toByte(c[2])
				row[x*4+3] = 0xff
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *CPUBackend) Destroy() {
	b.img = nil
}

// Image returns the last drawn frame. It is reused by the next Draw.
func (b *CPUBackend) Image() *image.RGBA {
	return b.img
}

func (b *CPUBackend) ReadFrame(dst []byte) error {
	if b.img == nil {
		return fmt.Errorf("cpu backend not initialized")
	}
	if len(dst) < len(b.img.Pix) {
		return fmt.Errorf("frame buffer too small: %d < %d", len(dst), len(b.img.Pix))
	}
	copy(dst, b.img.Pix)
	return nil
}

// BottomUp is false; rows are stored top first.
func (b *CPUBackend) BottomUp() bool { return false }

func toByte(v float32) uint8 {
	return uint8(v*255 + 0.5)
}

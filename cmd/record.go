package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/richinsley/noisefield/background"
	"github.com/richinsley/noisefield/encoder"
	"github.com/richinsley/noisefield/glfwcontext"
	"github.com/richinsley/noisefield/graphics"
	"github.com/richinsley/noisefield/headless"
	"github.com/richinsley/noisefield/options"
	"github.com/richinsley/noisefield/renderer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var recordFlags struct {
	fps      int
	duration float64
	codec    string
	output   string
	ffmpeg   string
	pointerX float32
	pointerY float32
	cpu      bool
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Render the background to a video file",
	Long: `Renders duration*fps frames at fixed time steps with the pointer held still
and pipes them to ffmpeg.

The GPU is used when available (headless EGL on linux, a hidden window
elsewhere). Pass --cpu, or run on a machine without a GPU, to shade frames on
the CPU instead.`,
	RunE: runRecord,
}

func init() {
	f := recordCmd.Flags()
	f.IntVar(&recordFlags.fps, "fps", 60, "Frames per second")
	f.Float64Var(&recordFlags.duration, "duration", 10.0, "Duration to record in seconds")
	f.StringVar(&recordFlags.codec, "codec", "h264", "Video codec (h264 or hevc)")
	f.StringVarP(&recordFlags.output, "output", "o", "output.mp4", "Output file name")
	f.StringVar(&recordFlags.ffmpeg, "ffmpeg", "", "Path to ffmpeg executable")
	f.Float32Var(&recordFlags.pointerX, "pointer-x", 0.5, "Pointer x in [0,1]")
	f.Float32Var(&recordFlags.pointerY, "pointer-y", 0.5, "Pointer y in [0,1], 0 at the bottom")
	f.BoolVar(&recordFlags.cpu, "cpu", false, "Shade frames on the CPU")
}

func applyRecordFlags(cmd *cobra.Command, cfg *options.Config) error {
	flags := cmd.Flags()
	rec := &cfg.Record
	if flags.Changed("fps") {
		rec.FPS = recordFlags.fps
	}
	if flags.Changed("duration") {
		rec.Duration = recordFlags.duration
	}
	if flags.Changed("codec") {
		rec.Codec = recordFlags.codec
	}
	if flags.Changed("output") {
		rec.OutputFile = recordFlags.output
	}
	if flags.Changed("ffmpeg") {
		rec.FFMPEGPath = recordFlags.ffmpeg
	}
	if flags.Changed("pointer-x") {
		rec.PointerX = recordFlags.pointerX
	}
	if flags.Changed("pointer-y") {
		rec.PointerY = recordFlags.pointerY
	}
	if flags.Changed("cpu") {
		rec.CPU = recordFlags.cpu
	}
	return cfg.Validate()
}

// recordBackend is a backend whose frames can be read back.
type recordBackend interface {
	background.Backend
	background.FrameReader
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRecordFlags(cmd, cfg); err != nil {
		return err
	}
	rec := cfg.Record

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, release := openRecordBackend(cfg)
	bg, backend, release, err := initRecording(cfg, backend, release)
	if err != nil {
		return err
	}
	defer release()
	defer bg.Close()

	settings := encoder.Settings{
		Width:      cfg.Width,
		Height:     cfg.Height,
		FPS:        rec.FPS,
		Codec:      rec.Codec,
		OutputFile: rec.OutputFile,
		FFMPEGPath: rec.FFMPEGPath,
		BottomUp:   backend.BottomUp(),
	}
	enc := encoder.New(settings, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan *encoder.Frame, 4)
	g.Go(func() error {
		return enc.Consume(gctx, frames)
	})

	// GL calls stay on this goroutine.
	produceErr := produceFrames(gctx, bg, backend, rec.TotalFrames(), rec.FPS, frames)
	close(frames)
	if produceErr != nil {
		cancel()
		// a failed encoder cancels gctx, so its error is the cause
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("recording failed: %w", err)
		}
		return fmt.Errorf("recording failed: %w", produceErr)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}
	logger.Info("recording finished", zap.String("output", rec.OutputFile), zap.Int("frames", rec.TotalFrames()))
	return nil
}

// openRecordBackend picks the GPU when it can be brought up and the CPU
// otherwise. release tears down whatever context was created.
func openRecordBackend(cfg *options.Config) (recordBackend, func()) {
	if cfg.Record.CPU {
		logger.Info("using CPU backend")
		return background.NewCPUBackend(0), func() {}
	}

	gpuCtx, release, err := openRecordContext(cfg)
	if err != nil {
		logger.Warn("GPU unavailable, falling back to CPU backend", zap.Error(err))
		return background.NewCPUBackend(0), func() {}
	}
	logger.Info("using GPU backend", zap.Bool("gles", gpuCtx.IsGLES()))
	return renderer.NewRenderer(gpuCtx, false, logger), release
}

// initRecording binds backend to the output size. A GPU backend that comes up
// but cannot run the program is released and replaced by the CPU backend. The
// returned release belongs to the backend actually in use.
func initRecording(cfg *options.Config, backend recordBackend, release func()) (*background.Renderer, recordBackend, func(), error) {
	opts := []background.Option{
		background.WithLogger(logger),
		background.WithParams(cfg.Params),
		background.WithPointer(cfg.Record.PointerX, cfg.Record.PointerY),
	}
	bg, err := background.Initialize(backend, cfg.Width, cfg.Height, opts...)
	if err == nil {
		return bg, backend, release, nil
	}
	release()
	if _, cpu := backend.(*background.CPUBackend); cpu || !errors.Is(err, background.ErrCapabilityUnavailable) {
		return nil, nil, nil, err
	}

	logger.Warn("GPU backend unusable, falling back to CPU backend", zap.Error(err))
	cpuBackend := background.NewCPUBackend(0)
	bg, err = background.Initialize(cpuBackend, cfg.Width, cfg.Height, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return bg, cpuBackend, func() {}, nil
}

func openRecordContext(cfg *options.Config) (graphics.Context, func(), error) {
	h, err := headless.NewHeadless(cfg.Width, cfg.Height, logger)
	if err == nil {
		return h, h.Shutdown, nil
	}
	logger.Debug("headless context unavailable", zap.Error(err))

	if err := glfwcontext.InitGraphics(logger); err != nil {
		return nil, nil, err
	}
	win, err := glfwcontext.New(cfg, false)
	if err != nil {
		glfwcontext.TerminateGraphics(logger)
		return nil, nil, err
	}
	return win, func() {
		win.Shutdown()
		glfwcontext.TerminateGraphics(logger)
	}, nil
}

// produceFrames renders total frames at fixed steps of 1/fps seconds, reads
// each one back and sends it to frames.
func produceFrames(ctx context.Context, bg *background.Renderer, reader background.FrameReader, total, fps int, frames chan<- *encoder.Frame) error {
	w, h := bg.Size()
	for i := 0; i < total; i++ {
		if err := bg.RenderFrame(float64(i) / float64(fps)); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		pixels := make([]byte, w*h*4)
		if err := reader.ReadFrame(pixels); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		select {
		case frames <- &encoder.Frame{Pixels: pixels, PTS: int64(i)}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

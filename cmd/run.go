package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/noisefield/background"
	"github.com/richinsley/noisefield/glfwcontext"
	"github.com/richinsley/noisefield/loop"
	"github.com/richinsley/noisefield/options"
	"github.com/richinsley/noisefield/renderer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the interactive window",
	Long: `Opens a window and animates the background until it is closed or
interrupted. Move the pointer to split the color channels, press G to replay
the title glitch and Escape to quit.

When the machine has no usable GPU the fallback notice is printed instead and
the command fails.`,
	RunE: runBackground,
}

func runBackground(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := glfwcontext.InitGraphics(logger); err != nil {
		return fallback(err)
	}
	defer glfwcontext.TerminateGraphics(logger)

	win, err := glfwcontext.New(cfg, true)
	if err != nil {
		return fallback(err)
	}
	defer win.Shutdown()

	winWidth, winHeight := win.GetWindowSize()
	fbWidth, fbHeight := win.GetFramebufferSize()
	surfaceWidth, surfaceHeight := background.SurfaceSize(winWidth, winHeight, fbWidth, fbHeight, cfg.MaxPixelRatio)

	bg, err := background.Initialize(renderer.NewRenderer(win, true, logger), surfaceWidth, surfaceHeight,
		background.WithLogger(logger),
		background.WithParams(cfg.Params))
	if err != nil {
		return fallback(err)
	}
	defer bg.Close()

	hostOpts := []loop.Option{loop.WithLogger(logger)}
	if configPath != "" {
		watcher, err := options.Watch(ctx, configPath, logger)
		if err != nil {
			logger.Warn("config reload disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
			hostOpts = append(hostOpts, loop.WithConfigUpdates(watcher.C()))
		}
	}

	host := loop.NewHost(win, bg, cfg, hostOpts...)
	win.RegisterKeyCallback(glfw.KeyG, host.RestartGlitch)

	if err := host.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// fallback prints the static notice when err means the GPU path cannot run.
func fallback(err error) error {
	if errors.Is(err, background.ErrCapabilityUnavailable) {
		fmt.Fprintln(os.Stderr, background.FallbackNotice)
	}
	return err
}

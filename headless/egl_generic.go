//go:build !linux

package headless

import (
	"fmt"

	"github.com/richinsley/noisefield/background"
	"github.com/richinsley/noisefield/graphics"
	"go.uber.org/zap"
)

func NewHeadless(width, height int, log *zap.Logger) (graphics.Context, error) {
	return nil, fmt.Errorf("egl headless rendering is not supported on this platform: %w", background.ErrCapabilityUnavailable)
}

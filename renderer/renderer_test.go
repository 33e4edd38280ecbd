package renderer

import (
	"errors"
	"testing"

	"github.com/richinsley/noisefield/background"
	"github.com/stretchr/testify/assert"
)

var (
	_ background.Backend     = (*Renderer)(nil)
	_ background.FrameReader = (*Renderer)(nil)
)

func TestNewRendererDefersGL(t *testing.T) {
	r := NewRenderer(nil, false, nil)
	assert.True(t, r.BottomUp())
	assert.Equal(t, int32(-1), r.timeLoc)
	assert.Equal(t, int32(-1), r.mouseLoc)
	assert.Equal(t, int32(-1), r.resolutionLoc)
	assert.Error(t, r.Draw(background.Uniforms{}))
	assert.Error(t, r.ReadFrame(make([]byte, 4)))
}

func TestProgramErrorOnlyFirstCompileIsCapability(t *testing.T) {
	compileErr := errors.New("failed to compile shader: syntax error")

	err := programError(true, compileErr)
	assert.ErrorIs(t, err, background.ErrCapabilityUnavailable)
	assert.ErrorIs(t, err, compileErr)

	err = programError(false, compileErr)
	assert.NotErrorIs(t, err, background.ErrCapabilityUnavailable)
	assert.Equal(t, compileErr, err)
}

func TestLoadGLRemembersFailure(t *testing.T) {
	loadErr := errors.New("no GL driver")
	calls := 0

	assert.Equal(t, loadErr, loadGL(func() error { calls++; return loadErr }))
	// a later Init must not run on unloaded function pointers
	assert.Equal(t, loadErr, loadGL(func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)
}

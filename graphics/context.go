package graphics

// Context defines the interface for an OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	IsGLES() bool
}

// Window is a Context backed by an on-screen window that reports pointer
// movement and resizes.
type Window interface {
	Context
	// GetWindowSize returns the logical size, which differs from the
	// framebuffer size on high density displays.
	GetWindowSize() (int, int)
	SetTitle(title string)
	// SetPointerCallback registers f to receive the pointer in normalized
	// coordinates, origin bottom-left.
	SetPointerCallback(f func(x, y float32))
	SetResizeCallback(f func(width, height int))
}

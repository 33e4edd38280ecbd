package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/noisefield/background"
	"github.com/richinsley/noisefield/field"
	"github.com/richinsley/noisefield/graphics"
	"github.com/richinsley/noisefield/shader"
	xlate "github.com/richinsley/noisefield/translator"
	"go.uber.org/zap"
)

// The OpenGL function pointers are loaded once per process; a failed load is
// reported to every later Init.
var (
	glInitOnce sync.Once
	glInitErr  error
)

// Renderer is the GPU implementation of background.Backend. It draws the
// background program into an offscreen framebuffer and, when presenting,
// scales it onto the context's default framebuffer.
type Renderer struct {
	context       graphics.Context
	quadVAO       uint32
	quadVBO       uint32
	program       uint32
	blitProgram   uint32
	blitTexLoc    int32
	timeLoc       int32
	mouseLoc      int32
	resolutionLoc int32
	offscreen     *OffscreenRenderer
	width         int
	height        int
	present       bool
	log           *zap.Logger
}

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

// NewRenderer returns a backend drawing with ctx. With present set every
// frame is also blitted to the window; recorders leave it unset and read
// frames back instead.
func NewRenderer(ctx graphics.Context, present bool, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		context:       ctx,
		present:       present,
		log:           log,
		timeLoc:       -1,
		mouseLoc:      -1,
		resolutionLoc: -1,
		blitTexLoc:    -1,
	}
}

func (r *Renderer) isGLES() bool {
	return r.context.IsGLES()
}

func (r *Renderer) Init(width, height int) error {
	r.context.MakeCurrent()

	if err := loadGL(gl.Init); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w: %w", background.ErrCapabilityUnavailable, err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Bool("gles", r.isGLES()))

	gl.GenVertexArrays(1, &r.quadVAO)
	gl.GenBuffers(1, &r.quadVBO)
	gl.BindVertexArray(r.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	var err error
	r.blitProgram, err = newProgram(shader.GenerateVertexShader(r.isGLES()), shader.GetBlitFragmentShader(false, r.isGLES()))
	if err != nil {
		r.Destroy()
		return fmt.Errorf("failed to create blit program: %w: %w", background.ErrCapabilityUnavailable, err)
	}
	r.blitTexLoc = gl.GetUniformLocation(r.blitProgram, gl.Str("u_texture\x00"))

	r.offscreen, err = NewOffscreenRenderer(width, height)
	if err != nil {
		r.Destroy()
		return fmt.Errorf("failed to create offscreen renderer: %w: %w", background.ErrCapabilityUnavailable, err)
	}
	r.width, r.height = width, height
	return nil
}

// loadGL runs load on the first call only and returns its error on every call.
func loadGL(load func() error) error {
	glInitOnce.Do(func() {
		glInitErr = load()
	})
	return glInitErr
}

// SetParams compiles the background program for p and swaps it in. The
// previous program survives a failed compile. Only the first compile can
// report ErrCapabilityUnavailable; later failures come from the params.
func (r *Renderer) SetParams(p field.Params) error {
	fs, program, err := r.compileBackground(p)
	if err != nil {
		return programError(r.program == 0, err)
	}

	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	r.program = program
	gl.UseProgram(r.program)
	r.timeLoc = getUniformLocation(fs.Uniforms, r.program, shader.UniformTime)
	r.mouseLoc = getUniformLocation(fs.Uniforms, r.program, shader.UniformMouse)
	r.resolutionLoc = getUniformLocation(fs.Uniforms, r.program, shader.UniformResolution)
	gl.UseProgram(0)
	r.log.Debug("background program compiled", zap.Uint32("program", r.program))
	return nil
}

func (r *Renderer) compileBackground(p field.Params) (*xlate.Program, uint32, error) {
	fs, err := xlate.TranslateFragment(shader.GetBackgroundFragmentShader(p), r.isGLES())
	if err != nil {
		return nil, 0, err
	}
	program, err := newProgram(shader.GenerateVertexShader(r.isGLES()), fs.Code)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create background program: %w", err)
	}
	return fs, program, nil
}

// programError marks err as a missing capability when no program could ever
// be built, so callers can fall back.
func programError(initial bool, err error) error {
	if initial {
		return fmt.Errorf("%w: %w", background.ErrCapabilityUnavailable, err)
	}
	return err
}

// getUniformLocation resolves name through the translator's renaming; -1
// means the uniform was optimized out.
func getUniformLocation(mapped map[string]string, program uint32, name string) int32 {
	if m, ok := mapped[name]; ok {
		name = m
	}
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	if r.offscreen != nil {
		r.offscreen.Resize(width, height)
	}
}

func (r *Renderer) Draw(u background.Uniforms) error {
	if r.program == 0 || r.offscreen == nil {
		return fmt.Errorf("renderer not initialized")
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, r.offscreen.fbo)
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.UseProgram(r.program)
	if r.timeLoc != -1 {
		gl.Uniform1f(r.timeLoc, u.Time)
	}
	if r.mouseLoc != -1 {
		gl.Uniform2f(r.mouseLoc, u.Mouse[0], u.Mouse[1])
	}
	if r.resolutionLoc != -1 {
		gl.Uniform2f(r.resolutionLoc, u.Resolution[0], u.Resolution[1])
	}
	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if r.present {
		fbWidth, fbHeight := r.context.GetFramebufferSize()
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		gl.UseProgram(r.blitProgram)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.offscreen.textureID)
		if r.blitTexLoc != -1 {
			gl.Uniform1i(r.blitTexLoc, 0)
		}
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.BindVertexArray(0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("draw failed: gl error 0x%x", e)
	}
	return nil
}

// ReadFrame copies the last drawn frame into dst. Rows come bottom first.
func (r *Renderer) ReadFrame(dst []byte) error {
	if r.offscreen == nil {
		return fmt.Errorf("renderer not initialized")
	}
	return r.offscreen.ReadPixels(dst)
}

func (r *Renderer) BottomUp() bool { return true }

// Destroy releases GL objects. The context is owned by the caller.
func (r *Renderer) Destroy() {
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
	if r.blitProgram != 0 {
		gl.DeleteProgram(r.blitProgram)
		r.blitProgram = 0
	}
	if r.offscreen != nil {
		r.offscreen.Destroy()
		r.offscreen = nil
	}
	if r.quadVBO != 0 {
		gl.DeleteBuffers(1, &r.quadVBO)
		r.quadVBO = 0
	}
	if r.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &r.quadVAO)
		r.quadVAO = 0
	}
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}

package driver

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/importglsl/glslpp"
)

// BuiltinUniformNames are the five names the GLSL spec's Driver
// Contract says must never be namespaced by Compilable. UploadBuiltins
// pushes each of them every frame that the linked program exposes and
// skips the rest.
var BuiltinUniformNames = [...]string{"u_resolution", "u_time", "u_delta", "u_mouse", "u_frame"}

// UploadBuiltins pushes the five built-in uniform values current state
// describes into p's located uniforms. Missing uniforms (the shader
// never referenced one) are silently skipped, matching GLSL's own
// dead-code elimination of unused uniforms.
func UploadBuiltins(p *Program, state glsl.ClockState, resolution [2]float32, mouse [2]float32) {
	if u, ok := p.uniforms["u_resolution"]; ok {
		gl.Uniform2f(u.Location, resolution[0], resolution[1])
	}
	if u, ok := p.uniforms["u_time"]; ok {
		gl.Uniform1f(u.Location, float32(state.Time))
	}
	if u, ok := p.uniforms["u_delta"]; ok {
		gl.Uniform1f(u.Location, float32(state.Delta))
	}
	if u, ok := p.uniforms["u_mouse"]; ok {
		gl.Uniform2f(u.Location, mouse[0], mouse[1])
	}
	if u, ok := p.uniforms["u_frame"]; ok {
		gl.Uniform1i(u.Location, int32(state.Frame))
	}
}

// UploadOptions pushes every entry in sources (uniform name -> source)
// to p's located uniforms, skipping names the compiled shader
// eliminated as unused.
func UploadOptions(p *Program, sources map[string]OptionSource) {
	for name, src := range sources {
		if u, ok := p.uniforms[name]; ok {
			UploadValue(u.Location, src.Value())
		}
	}
}

// RenderLoop drives a glsl.Clock-scheduled render of one Program into a
// pixel-buffer render target, running the before/after-render glsl.Hooks
// sets on every tick. It is the driver's adaptation of the teacher's
// animate loop: single-threaded, one GL context, one clock.
type RenderLoop struct {
	Clock   *glsl.Clock
	Before  *glsl.Hooks
	After   *glsl.Hooks
	Program *Program
	Target  *PixelTarget

	Resolution [2]float32
	Mouse      [2]float32
	Options    map[string]OptionSource

	OnFrame func(frame []byte, width, height int)
	OnError func(error)
}

// Start arms the render loop's clock against the wall clock. Each
// scheduled tick renders one frame and hands the pixel buffer to
// OnFrame.
func (r *RenderLoop) Start() {
	r.Clock.Start(r.renderOne)
}

// Stop cancels the clock's pending tick.
func (r *RenderLoop) Stop() {
	r.Clock.Stop()
}

// RenderTick renders exactly one frame by stepping the clock by dt
// manually, independent of wall-clock scheduling. Used for a single
// deterministic still-image render or a fixed-framerate animation
// export where each frame must advance by an exact interval rather than
// whatever wall-clock gap happened to elapse.
func (r *RenderLoop) RenderTick(dt float64) {
	r.Clock.SetCallback(r.renderOne)
	r.Clock.Tick(dt)
}

func (r *RenderLoop) renderOne(state glsl.ClockState) {
	if err := r.Before.Run(state); err != nil {
		r.reportError(err)
		return
	}

	r.Target.Bind()
	UploadBuiltins(r.Program, state, r.Resolution, r.Mouse)
	UploadOptions(r.Program, r.Options)
	r.Program.Draw()
	pixels := r.Target.ReadPixels()
	r.Target.Unbind()

	if r.OnFrame != nil {
		r.OnFrame(pixels, r.Target.Width, r.Target.Height)
	}

	if err := r.After.Run(state); err != nil {
		r.reportError(err)
	}
}

func (r *RenderLoop) reportError(err error) {
	if r.OnError != nil {
		r.OnError(err)
	}
}

// PixelTarget is an off-screen framebuffer the render loop draws into
// and reads back every frame, adapted from the teacher's pbo-backed
// render target (renderer.pboRenderer) down to a single, synchronous
// glReadPixels (no double-buffered PBO readback pipeline: the spec's
// Non-goals exclude the multi-pass/texture-I/O machinery that justified
// it).
type PixelTarget struct {
	Width, Height int

	fbo, tex uint32
}

// NewPixelTarget allocates an RGB framebuffer of the given size.
func NewPixelTarget(width, height int) *PixelTarget {
	t := &PixelTarget{Width: width, Height: height}
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.GenTextures(1, &t.tex)
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB, int32(width), int32(height), 0, gl.RGB, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.tex, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return t
}

func (t *PixelTarget) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))
}

func (t *PixelTarget) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadPixels blocks on glReadPixels, returning tightly packed RGB rows
// bottom-to-top as OpenGL reports them.
func (t *PixelTarget) ReadPixels() []byte {
	buf := make([]byte, t.Width*t.Height*3)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(t.Width), int32(t.Height), gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(&buf[0]))
	return buf
}

// Close releases the framebuffer's GL objects.
func (t *PixelTarget) Close() {
	gl.DeleteFramebuffers(1, &t.fbo)
	gl.DeleteTextures(1, &t.tex)
}

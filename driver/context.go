// Package driver realises the GLSL-spec's Driver Contract: it turns a
// compiled glsl.Shader into pixels. It owns the GL context, uploads the
// five built-in uniforms and every resolved option value every frame,
// and drives the render loop off a glsl.Clock.
package driver

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/importglsl/glslpp"
)

// Context owns a hidden GL context sized to a render target. Rendering
// happens off-screen into a pixel buffer; nothing is ever shown in the
// hidden window itself.
type Context struct {
	window *glfw.Window
	width  uint
	height uint
	dpr    float64
}

// NewContext creates a hidden GLFW window, making its GL context
// current on the calling goroutine. Callers must keep all subsequent GL
// calls on that same goroutine: go-gl's bindings are not safe to call
// from multiple threads at once.
func NewContext(width, height uint) (*Context, error) {
	if err := glfw.Init(); err != nil {
		return nil, glsl.Fault{Code: glsl.CodeContext, Reason: fmt.Sprintf("glfw init: %v", err)}
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(int(width), int(height), "glslpp", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, glsl.Fault{Code: glsl.CodeContext, Reason: fmt.Sprintf("window creation: %v", err)}
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, glsl.Fault{Code: glsl.CodeContext, Reason: fmt.Sprintf("gl init: %v", err)}
	}

	cx := &Context{window: win, width: width, height: height, dpr: 1}
	gl.Viewport(0, 0, int32(width), int32(height))
	return cx, nil
}

// Resize recomputes the GL viewport in device pixels, the arithmetic a
// browser canvas would do on a devicePixelRatio change.
func (cx *Context) Resize(width, height uint, devicePixelRatio float64) {
	cx.width, cx.height, cx.dpr = width, height, devicePixelRatio
	pw := int32(float64(width) * devicePixelRatio)
	ph := int32(float64(height) * devicePixelRatio)
	gl.Viewport(0, 0, pw, ph)
}

// Size returns the logical (non-device-scaled) render target size.
func (cx *Context) Size() (width, height uint) {
	return cx.width, cx.height
}

// Close destroys the window and terminates GLFW.
func (cx *Context) Close() error {
	cx.window.Destroy()
	glfw.Terminate()
	return nil
}

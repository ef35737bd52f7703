package driver

import (
	"testing"

	"github.com/importglsl/glslpp"
)

// initTestContext creates a 4x4 hidden GL context for a test, skipping the
// test outright when no GPU/display is available to create one against,
// matching how a headless CI runner is expected to behave.
func initTestContext(t *testing.T) *Context {
	t.Helper()
	cx, err := NewContext(4, 4)
	if err != nil {
		t.Skipf("no GL context available: %v", err)
	}
	return cx
}

func TestNewProgramLinksAndLocatesBuiltinUniforms(t *testing.T) {
	cx := initTestContext(t)
	defer cx.Close()

	sh := glsl.NewShader(`
void main() {
	gl_FragColor = vec4(u_resolution, u_time, 1.0);
}
`)
	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}

	prog, err := NewProgram(compiled)
	if err != nil {
		t.Fatal(err)
	}
	defer prog.Close()

	if _, ok := prog.Uniforms()["u_resolution"]; !ok {
		t.Fatalf("expected u_resolution to be located, got %+v", prog.Uniforms())
	}
	if _, ok := prog.Uniforms()["u_time"]; !ok {
		t.Fatalf("expected u_time to be located, got %+v", prog.Uniforms())
	}
}

func TestNewProgramRejectsInvalidSource(t *testing.T) {
	cx := initTestContext(t)
	defer cx.Close()

	_, err := NewProgram("this is not valid glsl {{{")
	fault, ok := err.(glsl.Fault)
	if !ok {
		t.Fatalf("expected a glsl.Fault, got %T: %v", err, err)
	}
	if fault.Code != glsl.CodeProgram {
		t.Fatalf("unexpected fault code: %v", fault.Code)
	}
}

func TestPixelTargetReadPixelsSize(t *testing.T) {
	cx := initTestContext(t)
	defer cx.Close()

	target := NewPixelTarget(4, 4)
	defer target.Close()

	target.Bind()
	pixels := target.ReadPixels()
	target.Unbind()

	if len(pixels) != 4*4*3 {
		t.Fatalf("unexpected pixel buffer size: exp %v, got %v", 4*4*3, len(pixels))
	}
}

func TestRenderLoopRenderTickRendersOneFrame(t *testing.T) {
	cx := initTestContext(t)
	defer cx.Close()

	sh := glsl.NewShader(`
void main() {
	gl_FragColor = vec4(1.0, 0.0, 0.0, 1.0);
}
`)
	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	prog, err := NewProgram(compiled)
	if err != nil {
		t.Fatal(err)
	}
	defer prog.Close()

	target := NewPixelTarget(4, 4)
	defer target.Close()

	var frames int
	loop := &RenderLoop{
		Clock:      glsl.NewClock(),
		Before:     glsl.NewHooks(),
		After:      glsl.NewHooks(),
		Program:    prog,
		Target:     target,
		Resolution: [2]float32{4, 4},
		OnFrame: func(pixels []byte, w, h int) {
			frames++
			if len(pixels) != w*h*3 {
				t.Fatalf("unexpected frame buffer size: exp %v, got %v", w*h*3, len(pixels))
			}
		},
	}

	loop.RenderTick(1.0 / 60.0)
	loop.RenderTick(1.0 / 60.0)

	if frames != 2 {
		t.Fatalf("expected two rendered frames, got %v", frames)
	}
	if loop.Clock.State().Frame != 2 {
		t.Fatalf("expected the clock to have advanced two frames, got %v", loop.Clock.State().Frame)
	}
}

func TestRenderLoopRunsBeforeAndAfterHooks(t *testing.T) {
	cx := initTestContext(t)
	defer cx.Close()

	sh := glsl.NewShader(`void main() { gl_FragColor = vec4(0.0); }`)
	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	prog, err := NewProgram(compiled)
	if err != nil {
		t.Fatal(err)
	}
	defer prog.Close()

	target := NewPixelTarget(2, 2)
	defer target.Close()

	var order []string
	before := glsl.NewHooks()
	before.Add(func(glsl.ClockState) bool { order = append(order, "before"); return true })
	after := glsl.NewHooks()
	after.Add(func(glsl.ClockState) bool { order = append(order, "after"); return true })

	loop := &RenderLoop{
		Clock:      glsl.NewClock(),
		Before:     before,
		After:      after,
		Program:    prog,
		Target:     target,
		Resolution: [2]float32{2, 2},
		OnFrame:    func([]byte, int, int) { order = append(order, "frame") },
	}
	loop.RenderTick(0)

	if len(order) != 3 || order[0] != "before" || order[1] != "frame" || order[2] != "after" {
		t.Fatalf("unexpected hook/frame order: %v", order)
	}
}

func TestStaticOptionSourceValue(t *testing.T) {
	s := StaticOptionSource{V: 0.5}
	if s.Value() != 0.5 {
		t.Fatalf("unexpected value: %v", s.Value())
	}
}

func TestUploadBuiltinsSkipsUnreferencedUniforms(t *testing.T) {
	cx := initTestContext(t)
	defer cx.Close()

	sh := glsl.NewShader(`void main() { gl_FragColor = vec4(u_resolution, 0.0, 1.0); }`)
	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	prog, err := NewProgram(compiled)
	if err != nil {
		t.Fatal(err)
	}
	defer prog.Close()

	// Should not panic even though the shader never references u_mouse or
	// u_frame: UploadBuiltins must skip uniforms the linker eliminated.
	UploadBuiltins(prog, glsl.ClockState{Time: 1, Delta: 0.1, Frame: 3}, [2]float32{4, 4}, [2]float32{0, 0})
}

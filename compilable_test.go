package glsl

import (
	"strings"
	"testing"
)

func TestShaderCompileInjectsBuiltinUniforms(t *testing.T) {
	sh := NewShader(`
void main() {
	gl_FragColor = vec4(u_resolution, 0.0, 1.0);
}
`)
	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"u_resolution", "u_time", "u_delta", "u_mouse", "u_frame"} {
		if !strings.Contains(compiled, "uniform") || !strings.Contains(compiled, name) {
			t.Fatalf("expected compiled output to declare %q, got:\n%s", name, compiled)
		}
	}
}

func TestShaderCompileKeepsAuthorsOwnUniformDeclaration(t *testing.T) {
	sh := NewShader(`
uniform vec2 u_resolution;

void main() {}
`)
	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(compiled, "u_resolution") != 1 {
		t.Fatalf("expected the author's own u_resolution declaration to be kept as-is, got:\n%s", compiled)
	}
}

func TestShaderCompileUniformTypeConflict(t *testing.T) {
	sh := NewShader(`
uniform float u_resolution;

void main() {}
`)
	_, err := sh.Compile()
	fault, ok := err.(Fault)
	if !ok {
		t.Fatalf("expected a Fault, got %T: %v", err, err)
	}
	if fault.Code != CodeShader || fault.Expected != "float" || fault.Actual != "vec2" {
		t.Fatalf("unexpected fault: %+v", fault)
	}
}

func TestShaderCompileWithImportRenamesAndSplices(t *testing.T) {
	if _, err := DefineModule("test/compile_import", `
float scale(float x) {
	return x * 2.0;
}
`, nil); err != nil {
		t.Fatal(err)
	}

	sh := NewShader(`
#import scale as doubled from 'test/compile_import'

void main() {
	float y = doubled(1.0);
}
`)
	suffix := "abcdef"
	sh.RandSuffix = func() string { return suffix }

	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(compiled, "#import") {
		t.Fatalf("expected import directives to be stripped, got:\n%s", compiled)
	}
	if !strings.Contains(compiled, "doubled(1.0)") {
		t.Fatalf("expected the shader's own call site to remain under the alias name, got:\n%s", compiled)
	}
	if !strings.Contains(compiled, "float doubled(float x)") {
		t.Fatalf("expected the spliced definition to be declared under the alias name, got:\n%s", compiled)
	}
	if strings.Contains(compiled, "float scale(float x)") {
		t.Fatalf("expected the original function name not to appear as a definition, got:\n%s", compiled)
	}
}

func TestShaderCompileImportNamespacesUniforms(t *testing.T) {
	sh := NewShader(`
#import palette from 'sandbox/colors'

void main() {
	vec3 c = palette(0.5);
}
`)
	suffix := "uvwxyz"
	sh.RandSuffix = func() string { return suffix }

	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	expectUniform := "palette_" + suffix + "_u_colors"
	if !strings.Contains(compiled, expectUniform) {
		t.Fatalf("expected namespaced uniform %q in output, got:\n%s", expectUniform, compiled)
	}
	if strings.Contains(compiled, " u_colors[") || strings.Contains(compiled, "uniform vec3 u_colors") {
		t.Fatalf("expected the original unqualified uniform name to be gone, got:\n%s", compiled)
	}
	expectHelperCall := "palette_" + suffix + "_gradient("
	if !strings.Contains(compiled, expectHelperCall) {
		t.Fatalf("expected palette's call to gradient to be namespaced, got:\n%s", compiled)
	}
}

func TestShaderCompileImportUnknownModule(t *testing.T) {
	sh := NewShader(`
#import fn from 'test/does_not_exist'

void main() {}
`)
	_, err := sh.Compile()
	fault, ok := err.(Fault)
	if !ok {
		t.Fatalf("expected a Fault, got %T: %v", err, err)
	}
	if fault.Code != CodeModule || fault.Module != "test/does_not_exist" {
		t.Fatalf("unexpected fault: %+v", fault)
	}
}

func TestShaderCompileNoFunctionsFault(t *testing.T) {
	if _, err := DefineModule("test/compile_nofunc", "float noop(float x) { return x; }\n", nil); err != nil {
		t.Fatal(err)
	}
	sh := NewShader(`#import noop from 'test/compile_nofunc'
`)
	_, err := sh.Compile()
	fault, ok := err.(Fault)
	if !ok {
		t.Fatalf("expected a Fault, got %T: %v", err, err)
	}
	if fault.Code != CodeShader {
		t.Fatalf("unexpected fault: %+v", fault)
	}
}

func TestShaderCompileIsCachedUntilSetSource(t *testing.T) {
	sh := NewShader("void main() {}\n")
	first, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if !sh.Compiled() {
		t.Fatalf("expected Compiled() to report true after a successful compile")
	}
	second, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("expected Compile to return the cached result on a second call")
	}

	sh.SetSource("void main() {}\n")
	if sh.Compiled() {
		t.Fatalf("expected SetSource to invalidate the compiled cache")
	}
}

func TestShaderCompileDoubleAliasSharesRuntimeCopyWithIndependentUniforms(t *testing.T) {
	if _, err := DefineModule("test/double_alias", `
uniform float u_intensity;

float effect(float x) {
	return x * u_intensity;
}
`, ModuleOptionsByFunction{
		optionsDefaultKey: {"intensity": {Uniform: "u_intensity", Default: 1.0, HasDefault: true}},
	}); err != nil {
		t.Fatal(err)
	}

	sh := NewShader(`
#import effect as soft from 'test/double_alias'
#import effect as hard from 'test/double_alias'

void main() {
	float a = soft(0.0);
	float b = hard(1.0);
}
`)
	var calls int
	sh.RandSuffix = func() string {
		calls++
		if calls == 1 {
			return "soft01"
		}
		return "hard02"
	}

	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(compiled, "float soft(float x)") || !strings.Contains(compiled, "float hard(float x)") {
		t.Fatalf("expected both soft and hard to appear as function definitions, got:\n%s", compiled)
	}
	softUniform := "soft_soft01_u_intensity"
	hardUniform := "hard_hard02_u_intensity"
	if !strings.Contains(compiled, softUniform) {
		t.Fatalf("expected %q in compiled output, got:\n%s", softUniform, compiled)
	}
	if !strings.Contains(compiled, hardUniform) {
		t.Fatalf("expected %q in compiled output, got:\n%s", hardUniform, compiled)
	}

	softOpts, ok := ResolveOptions(Runtime, "soft")
	if !ok {
		t.Fatalf("expected resolveOptions(\"soft\") to return a non-nil set")
	}
	hardOpts, ok := ResolveOptions(Runtime, "hard")
	if !ok {
		t.Fatalf("expected resolveOptions(\"hard\") to return a non-nil set")
	}
	if softOpts["intensity"].Uniform == hardOpts["intensity"].Uniform {
		t.Fatalf("expected soft and hard to carry different namespaced uniform names, both got %q", softOpts["intensity"].Uniform)
	}
	if softOpts["intensity"].Uniform != softUniform || hardOpts["intensity"].Uniform != hardUniform {
		t.Fatalf("unexpected resolved uniforms: soft=%+v hard=%+v", softOpts["intensity"], hardOpts["intensity"])
	}
}

func TestShaderCompileCascadingModuleImport(t *testing.T) {
	if _, err := DefineModule("test/cascade_base", `
float base(float x) {
	return x + 1.0;
}
`, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := DefineModule("test/cascade_mid", `
#import base from 'test/cascade_base'

float mid(float x) {
	return base(x) * 2.0;
}
`, nil); err != nil {
		t.Fatal(err)
	}

	sh := NewShader(`
#import mid from 'test/cascade_mid'

void main() {
	float y = mid(1.0);
}
`)
	suffix := "casc01"
	sh.RandSuffix = func() string { return suffix }

	compiled, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(compiled, "#import") {
		t.Fatalf("expected all #import directives, including the module's own, to be resolved away, got:\n%s", compiled)
	}
	if !strings.Contains(compiled, "float mid(float x)") {
		t.Fatalf("expected mid's definition in the compiled output, got:\n%s", compiled)
	}
	if !strings.Contains(compiled, "_base(") {
		t.Fatalf("expected base, pulled in via mid's own import, to appear as a namespaced helper, got:\n%s", compiled)
	}
}

func TestShaderRecompileProducesFreshSuffix(t *testing.T) {
	if _, err := DefineModule("test/recompile", "uniform float u_gain;\nfloat noop(float x) { return x * u_gain; }\n", nil); err != nil {
		t.Fatal(err)
	}
	sh := NewShader(`
#import noop from 'test/recompile'

void main() {
	float y = noop(1.0);
}
`)
	var calls int
	sh.RandSuffix = func() string {
		calls++
		if calls == 1 {
			return "first1"
		}
		return "second2"
	}

	first, err := sh.Compile()
	if err != nil {
		t.Fatal(err)
	}
	second, err := sh.Recompile()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("expected Recompile to produce a different namespace suffix")
	}
	if !strings.Contains(second, "second2") {
		t.Fatalf("expected the second compile's suffix to appear in its output:\n%s", second)
	}
}

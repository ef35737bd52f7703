package glsl

import "testing"

func TestNewShaderPresetsBuiltinUniformsInStableOrder(t *testing.T) {
	sh := NewShader("void main() {}\n")
	want := []string{"u_resolution", "u_time", "u_delta", "u_mouse", "u_frame"}
	if len(sh.presetUniforms) != len(want) {
		t.Fatalf("unexpected number of preset uniforms: exp %v, got %v", len(want), len(sh.presetUniforms))
	}
	for i, name := range want {
		if sh.presetUniforms[i].Name != name {
			t.Fatalf("unexpected preset uniform at %d: exp %v, got %v", i, name, sh.presetUniforms[i].Name)
		}
	}
}

func TestBuiltinUniformListMatchesBuiltinUniformsTable(t *testing.T) {
	for _, u := range builtinUniformList() {
		typ, ok := builtinUniforms[u.Name]
		if !ok {
			t.Fatalf("preset uniform %q not in builtinUniforms", u.Name)
		}
		if u.Type != typ {
			t.Fatalf("preset uniform %q has type %v, want %v", u.Name, u.Type, typ)
		}
	}
}

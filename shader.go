package glsl

// Shader is the top-level compilable: the user's fragment source, with
// the five built-in uniforms pre-seeded into its requirements bag so
// they are declared in the compiled output even when the source never
// imports anything.
type Shader struct {
	*Compilable
}

// NewShader wraps source in a Shader, ready to compile.
func NewShader(source string) *Shader {
	c := newCompilable(source)
	c.presetUniforms = builtinUniformList()
	return &Shader{Compilable: c}
}

func builtinUniformList() []ShaderUniform {
	// Stable order, independent of map iteration.
	names := []string{"u_resolution", "u_time", "u_delta", "u_mouse", "u_frame"}
	out := make([]ShaderUniform, len(names))
	for i, name := range names {
		out[i] = ShaderUniform{GLSLVariable: GLSLVariable{Name: name, Type: builtinUniforms[name]}}
	}
	return out
}

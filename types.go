// Package glsl implements a GLSL source-to-source preprocessor.
//
// A fragment shader enriched with `#import <fn> [as <alias>] from
// '<module>'` directives is resolved into plain GLSL a driver can hand
// straight to the GPU compiler. See Compilable for the entry point.
package glsl

// VarType is one of the GLSL variable types the parser recognises. Any
// type outside this closed set is simply never matched by the parser.
type VarType string

const (
	TypeVoid   VarType = "void"
	TypeFloat  VarType = "float"
	TypeInt    VarType = "int"
	TypeUint   VarType = "uint"
	TypeBool   VarType = "bool"
	TypeVec2   VarType = "vec2"
	TypeVec3   VarType = "vec3"
	TypeVec4   VarType = "vec4"
	TypeIVec2  VarType = "ivec2"
	TypeIVec3  VarType = "ivec3"
	TypeIVec4  VarType = "ivec4"
	TypeUVec2  VarType = "uvec2"
	TypeUVec3  VarType = "uvec3"
	TypeUVec4  VarType = "uvec4"
	TypeBVec2  VarType = "bvec2"
	TypeBVec3  VarType = "bvec3"
	TypeBVec4  VarType = "bvec4"
	TypeMat2   VarType = "mat2"
	TypeMat3   VarType = "mat3"
	TypeMat4   VarType = "mat4"
	TypeSampler2D      VarType = "sampler2D"
	TypeSamplerCube    VarType = "samplerCube"
	TypeSampler3D      VarType = "sampler3D"
	TypeSampler2DArray VarType = "sampler2DArray"
)

// varTypes is the closed set of GLSL types the parser is allowed to match,
// used both by the return-type and uniform-type recognisers.
var varTypes = []VarType{
	TypeVoid, TypeFloat, TypeInt, TypeUint, TypeBool,
	TypeVec2, TypeVec3, TypeVec4,
	TypeIVec2, TypeIVec3, TypeIVec4,
	TypeUVec2, TypeUVec3, TypeUVec4,
	TypeBVec2, TypeBVec3, TypeBVec4,
	TypeMat2, TypeMat3, TypeMat4,
	TypeSampler2D, TypeSamplerCube, TypeSampler3D, TypeSampler2DArray,
}

func isVarType(s string) bool {
	for _, t := range varTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// GLSLVariable is a name/type pair, the shape shared by function
// parameters, uniforms before their array/line metadata is added.
type GLSLVariable struct {
	Name string
	Type VarType
}

// ShaderUniform is a GLSLVariable declared with `uniform`, optionally
// sized as an array, at a 1-based source line.
type ShaderUniform struct {
	GLSLVariable
	// ArrayNum is the array size for `T name[N]` declarations. Zero means
	// the uniform is not an array.
	ArrayNum int
	// Line is the 1-based line the uniform was declared on.
	Line int
}

// ShaderImport is a single `#import` directive.
type ShaderImport struct {
	// Name is the function being imported.
	Name string
	// Alias is the local name the function is called under. Defaults to
	// Name when no `as` clause is present.
	Alias string
	// Module is the module path the function is imported from.
	Module string
	// Line is the 1-based line the directive appeared on.
	Line int
}

// DepKind distinguishes the two kinds of symbol a function body can
// reference.
type DepKind int

const (
	DepFunction DepKind = iota
	DepUniform
)

// Dep is a single occurrence of a function or uniform reference inside a
// ShaderFunction's body.
type Dep struct {
	Kind DepKind
	Name string
	// Index is the character offset of the reference within the owning
	// function's Body. Rewrites are applied back-to-front by Index so
	// that earlier offsets stay valid while later ones are rewritten.
	Index int
}

// ShaderFunction is a parsed GLSL function definition.
type ShaderFunction struct {
	Name       string
	ReturnType VarType
	Params     []GLSLVariable
	// Body is the exact substring of the source, including the opening
	// and closing braces.
	Body         string
	Dependencies []Dep
	// Line is the 1-based line the function signature starts on.
	Line int
}

// ShaderParseResult is everything Parser.parse extracts from one GLSL
// source.
type ShaderParseResult struct {
	// Version is 2 for `#version 300 es`, 1 otherwise.
	Version   int
	Imports   []ShaderImport
	Uniforms  []ShaderUniform
	Functions []ShaderFunction
}

func (r *ShaderParseResult) uniform(name string) (ShaderUniform, bool) {
	for _, u := range r.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return ShaderUniform{}, false
}

func (r *ShaderParseResult) function(name string) (ShaderFunction, bool) {
	for _, f := range r.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return ShaderFunction{}, false
}

// UniformValue is the dynamic value of a ModuleOption's default, or of a
// value pushed through a runtime registry's option mapping. It holds
// whatever shape the consuming uniform's GLSL type needs: float64,
// []float64, bool or int64.
type UniformValue any

// ModuleOption maps a user-facing option name to the uniform that
// carries its value, with an optional default.
type ModuleOption struct {
	Uniform string
	Default UniformValue
	HasDefault bool
}

// ModuleOptionsByFunction maps a function name to its option set. The
// reserved key "default" holds options inherited by every function that
// does not declare its own entry of the same option name.
type ModuleOptionsByFunction map[string]map[string]ModuleOption

const optionsDefaultKey = "default"

// clone deep-copies the option map so Module.Copy can hand out an
// independent set to the runtime registry.
func (opts ModuleOptionsByFunction) clone() ModuleOptionsByFunction {
	if opts == nil {
		return nil
	}
	out := make(ModuleOptionsByFunction, len(opts))
	for fn, set := range opts {
		inner := make(map[string]ModuleOption, len(set))
		for name, opt := range set {
			inner[name] = opt
		}
		out[fn] = inner
	}
	return out
}

// ModuleFunctionExtraction is the result of Module.Extract: the requested
// function plus the transitive closure of helpers and uniforms it needs.
type ModuleFunctionExtraction struct {
	Function     ShaderFunction
	Dependencies struct {
		Functions []ShaderFunction
		Uniforms  []ShaderUniform
	}
}

// builtinUniforms is the fixed set of uniforms the driver supplies every
// frame. Their names are never namespaced by Compilable.
var builtinUniforms = map[string]VarType{
	"u_resolution": TypeVec2,
	"u_time":       TypeFloat,
	"u_delta":      TypeFloat,
	"u_mouse":      TypeVec2,
	"u_frame":      TypeInt,
}

func isBuiltinUniform(name string) bool {
	_, ok := builtinUniforms[name]
	return ok
}

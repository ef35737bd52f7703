package glsl

// Bundled modules registered into DesignTime at package init, matching
// the reserved `sandbox`/`sandbox/*` names. Their GLSL bodies exist to
// exercise every shape the Module/Compilable machinery supports: plain
// functions with no uniforms at all (sandbox), a function calling
// another function in the same module (colors.palette -> colors.gradient,
// tree-shaking fodder), an inherited `default` option group that one
// function extends with its own option (filters), and functions
// with their own independent option groups (effects).

const sandboxSource = `
float luminance(vec3 color) {
	return dot(color, vec3(0.2126, 0.7152, 0.0722));
}

float checker(vec2 uv, float scale) {
	vec2 c = floor(uv * scale);
	return mod(c.x + c.y, 2.0);
}
`

const sandboxColorsSource = `
uniform vec3 u_colors[2];

vec3 gradient(float t, vec3 a, vec3 b) {
	return mix(a, b, clamp(t, 0.0, 1.0));
}

vec3 palette(float t) {
	return gradient(fract(t), u_colors[0], u_colors[1]);
}
`

const sandboxEffectsSource = `
uniform float u_radius;
uniform float u_strength;
uniform vec2 u_offset;

vec3 vignette(vec3 color, vec2 uv) {
	float d = distance(uv, vec2(0.5));
	float falloff = smoothstep(u_radius, u_radius - 0.25, d);
	return color * falloff;
}

vec3 chromaticAberration(vec3 color, vec2 uv) {
	vec2 dir = normalize(uv - vec2(0.5) + 1e-6) * u_strength + u_offset;
	return vec3(color.r, color.g, color.b) + vec3(dir.x, 0.0, dir.y);
}
`

const sandboxFiltersSource = `
uniform float u_intensity;
uniform float u_levels;

vec3 blur(vec3 color, vec2 uv) {
	return color * u_intensity;
}

vec3 posterize(vec3 color) {
	float levels = max(u_levels, 2.0);
	return floor(color * levels) / levels * u_intensity;
}
`

func sandboxModuleOptions() ModuleOptionsByFunction {
	return ModuleOptionsByFunction{
		optionsDefaultKey: {
			"colors": {Uniform: "u_colors", HasDefault: false},
		},
	}
}

func effectsModuleOptions() ModuleOptionsByFunction {
	return ModuleOptionsByFunction{
		"vignette": {
			"radius": {Uniform: "u_radius", Default: 0.75, HasDefault: true},
		},
		"chromaticAberration": {
			"strength": {Uniform: "u_strength", Default: 0.01, HasDefault: true},
			"offset":   {Uniform: "u_offset", Default: []float64{0, 0}, HasDefault: true},
		},
	}
}

func filtersModuleOptions() ModuleOptionsByFunction {
	return ModuleOptionsByFunction{
		optionsDefaultKey: {
			"intensity": {Uniform: "u_intensity", Default: 1.0, HasDefault: true},
		},
		"posterize": {
			"levels": {Uniform: "u_levels", Default: 8.0, HasDefault: true},
		},
	}
}

func registerSandboxModules() {
	must := func(m *Module, err error) {
		if err != nil {
			panic(err)
		}
	}
	must(defineBuiltinModule("sandbox", sandboxSource, nil))
	must(defineBuiltinModule("sandbox/colors", sandboxColorsSource, sandboxModuleOptions()))
	must(defineBuiltinModule("sandbox/effects", sandboxEffectsSource, effectsModuleOptions()))
	must(defineBuiltinModule("sandbox/filters", sandboxFiltersSource, filtersModuleOptions()))
}

// defineBuiltinModule bypasses DefineModule's reserved-name rejection:
// it is how the reserved sandbox/* names come to exist in the first
// place.
func defineBuiltinModule(name, source string, options ModuleOptionsByFunction) (*Module, error) {
	m := newModule(name, source, options)
	if err := DesignTime.Register(name, m); err != nil {
		return nil, err
	}
	return m, nil
}

func init() {
	registerSandboxModules()
}

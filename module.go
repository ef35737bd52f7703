package glsl

import (
	"strings"
	"sync"
)

// Module is a library of GLSL functions that can be imported by name
// into a Shader (or into another Module). It wraps a Compilable so it
// resolves its own nested #imports before anything can be extracted
// from it: importing a function from a module that itself imports from
// another module sees the fully flattened result.
type Module struct {
	*Compilable

	mu      sync.RWMutex
	name    string
	options ModuleOptionsByFunction
}

// ModuleDefinition is the read-only summary GetDefinition and the
// registries' Available() hand back: everything a caller needs to know
// about a module without being able to mutate it.
type ModuleDefinition struct {
	Name     string
	Methods  []string
	Uniforms []ShaderUniform
	Options  ModuleOptionsByFunction
}

func newModule(name, source string, options ModuleOptionsByFunction) *Module {
	return &Module{
		Compilable: newCompilable(source),
		name:       name,
		options:    options,
	}
}

// DefineModule is the `define` factory: it rejects reserved or duplicate
// names and registers the result into the design-time registry.
func DefineModule(name, source string, options ModuleOptionsByFunction) (*Module, error) {
	if isReservedModuleName(name) {
		return nil, newReservedModuleNameFault(name)
	}
	m := newModule(name, source, options.clone())
	if err := DesignTime.Register(name, m); err != nil {
		return nil, err
	}
	return m, nil
}

// effectiveOptions merges the reserved "default" option group with
// funcName's own entries, the latter overriding the former by option
// name. Returns nil if neither contributes anything.
func effectiveOptions(options ModuleOptionsByFunction, funcName string) map[string]ModuleOption {
	var merged map[string]ModuleOption
	if def, ok := options[optionsDefaultKey]; ok {
		merged = make(map[string]ModuleOption, len(def))
		for k, v := range def {
			merged[k] = v
		}
	}
	if own, ok := options[funcName]; ok {
		if merged == nil {
			merged = make(map[string]ModuleOption, len(own))
		}
		for k, v := range own {
			merged[k] = v
		}
	}
	return merged
}

func isReservedModuleName(name string) bool {
	return name == "sandbox" || strings.HasPrefix(name, "sandbox/")
}

// Copy deep-clones the module's options into a fresh Module sharing the
// same source, so the runtime registry can hold an independent options
// map per compile session without touching the design-time original.
func (m *Module) Copy() *Module {
	m.mu.RLock()
	opts := m.options.clone()
	m.mu.RUnlock()
	return &Module{
		Compilable: newCompilable(m.Source()),
		name:       m.name,
		options:    opts,
	}
}

// GetDefinition compiles the module (resolving its own imports) and
// returns its public shape. Methods excludes "main" and "default".
func (m *Module) GetDefinition() (ModuleDefinition, error) {
	if _, err := m.Compile(); err != nil {
		return ModuleDefinition{}, err
	}
	parsed, err := m.compiled.parse()
	if err != nil {
		return ModuleDefinition{}, err
	}

	var methods []string
	for _, f := range parsed.Functions {
		if f.Name == "main" || f.Name == "default" {
			continue
		}
		methods = append(methods, f.Name)
	}

	m.mu.RLock()
	opts := m.options.clone()
	m.mu.RUnlock()

	return ModuleDefinition{
		Name:     m.name,
		Methods:  methods,
		Uniforms: parsed.Uniforms,
		Options:  opts,
	}, nil
}

// Extract compiles the module, locates funcName in the compiled parse,
// and walks its call graph to collect the transitive closure of helper
// functions and uniforms it needs. A visited set guards against cycles
// in the call graph; a helper reachable through more than one path is
// only emitted once.
func (m *Module) Extract(funcName string) (ModuleFunctionExtraction, error) {
	if funcName == "main" || funcName == "default" {
		return ModuleFunctionExtraction{}, newReservedImportFault(funcName)
	}

	if _, err := m.Compile(); err != nil {
		return ModuleFunctionExtraction{}, err
	}
	parsed, err := m.compiled.parse()
	if err != nil {
		return ModuleFunctionExtraction{}, err
	}

	target, ok := parsed.function(funcName)
	if !ok {
		return ModuleFunctionExtraction{}, newUnknownFunctionFault(m.name, funcName)
	}

	visited := map[string]bool{funcName: true}
	uniformSet := map[string]ShaderUniform{}
	var uniformOrder []string
	var helpers []ShaderFunction

	var visit func(fn ShaderFunction)
	visit = func(fn ShaderFunction) {
		for _, d := range fn.Dependencies {
			switch d.Kind {
			case DepUniform:
				if _, seen := uniformSet[d.Name]; seen {
					continue
				}
				if u, ok := parsed.uniform(d.Name); ok {
					uniformSet[d.Name] = u
					uniformOrder = append(uniformOrder, d.Name)
				} else if isBuiltinUniform(d.Name) {
					uniformSet[d.Name] = ShaderUniform{
						GLSLVariable: GLSLVariable{Name: d.Name, Type: builtinUniforms[d.Name]},
					}
					uniformOrder = append(uniformOrder, d.Name)
				}
			case DepFunction:
				if visited[d.Name] {
					continue
				}
				callee, ok := parsed.function(d.Name)
				if !ok {
					// Not one of the module's own functions: assumed built-in.
					continue
				}
				visited[d.Name] = true
				helpers = append(helpers, callee)
				visit(callee)
			}
		}
	}
	visit(target)

	var extraction ModuleFunctionExtraction
	extraction.Function = target
	extraction.Dependencies.Functions = helpers
	for _, name := range uniformOrder {
		if !isBuiltinUniform(name) {
			extraction.Dependencies.Uniforms = append(extraction.Dependencies.Uniforms, uniformSet[name])
		}
	}
	return extraction, nil
}

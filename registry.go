package glsl

import "sync"

// ModuleRegistry is a keyed store of Modules. Two instances exist: the
// design-time registry (seeded once with the bundled modules and
// augmented by DefineModule, never mutated by compilation) and the
// runtime registry (populated by a Compilable as imports are resolved;
// it is emptied only by an explicit Clear).
//
// The zero-value model described by spec.md is single-threaded, but an
// implementation embedded in a threaded Go program must still serialise
// define/register/clear against resolve, so moduleRegistry carries a
// mutex rather than assuming external locking.
type ModuleRegistry interface {
	Has(name string) bool
	Register(name string, m *Module) error
	Resolve(name string) (*Module, error)
	Remove(name string)
	Load(modules map[string]*Module) error
	Clear()
	Available() []ModuleDefinition
}

type moduleRegistry struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

func newModuleRegistry() *moduleRegistry {
	return &moduleRegistry{modules: map[string]*Module{}}
}

func (r *moduleRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

func (r *moduleRegistry) Register(name string, m *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[name]; ok {
		return newDuplicateModuleFault(name)
	}
	r.modules[name] = m
	return nil
}

func (r *moduleRegistry) Resolve(name string) (*Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	if !ok {
		return nil, newUnknownModuleFault(name)
	}
	return m, nil
}

func (r *moduleRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, name)
}

// Load registers a batch of modules, keyed by name, overwriting any
// prior entry under the same key without a duplicate-name fault.
func (r *moduleRegistry) Load(modules map[string]*Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, m := range modules {
		r.modules[name] = m
	}
	return nil
}

func (r *moduleRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = map[string]*Module{}
}

// Available lists the definitions of every registered module.
func (r *moduleRegistry) Available() []ModuleDefinition {
	r.mu.RLock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	mods := make([]*Module, 0, len(names))
	for _, name := range names {
		mods = append(mods, r.modules[name])
	}
	r.mu.RUnlock()

	defs := make([]ModuleDefinition, 0, len(mods))
	for _, m := range mods {
		def, err := m.GetDefinition()
		if err != nil {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// resolveOptions is the extra lookup the runtime registry exposes so a
// driver can map a user-level option key to its namespaced uniform.
// funcOrAlias is looked up directly as a module-scoped options key
// (i.e. the alias or function name an import was registered under).
func resolveOptions(r ModuleRegistry, moduleName, funcOrAlias string) (map[string]ModuleOption, bool) {
	impl, ok := r.(*moduleRegistry)
	if !ok {
		return nil, false
	}
	impl.mu.RLock()
	m, ok := impl.modules[moduleName]
	impl.mu.RUnlock()
	if !ok {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.options[funcOrAlias]
	return set, ok
}

// ResolveOptions searches every module currently registered in r for an
// options entry keyed by funcOrAlias and returns one match; when several
// modules carry that key, which one is returned is not defined. This
// mirrors the driver-facing API of spec.md §4.3: the caller usually
// knows only the user-level alias, not which module it came from.
func ResolveOptions(r ModuleRegistry, funcOrAlias string) (map[string]ModuleOption, bool) {
	impl, ok := r.(*moduleRegistry)
	if !ok {
		return nil, false
	}
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	for _, m := range impl.modules {
		m.mu.RLock()
		set, ok := m.options[funcOrAlias]
		m.mu.RUnlock()
		if ok {
			return set, true
		}
	}
	return nil, false
}

// DesignTime is the immutable (outside of DefineModule) process-wide
// registry of all known modules, seeded with the bundled sandbox
// modules at package init.
var DesignTime = newModuleRegistry()

// Runtime is the registry a Compilable populates as it resolves
// imports. Neither this package nor the driver clears it between
// shaders: entries from earlier compiles stay until Runtime.Clear is
// called.
var Runtime = newModuleRegistry()

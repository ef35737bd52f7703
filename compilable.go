package glsl

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

const randSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
const randSuffixLen = 6

var globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
var globalRandMu sync.Mutex

func defaultRandSuffix() string {
	globalRandMu.Lock()
	defer globalRandMu.Unlock()
	b := make([]byte, randSuffixLen)
	for i := range b {
		b[i] = randSuffixAlphabet[globalRand.Intn(len(randSuffixAlphabet))]
	}
	return string(b)
}

var precisionLineRe = regexp.MustCompile(`^\s*precision\s+(lowp|mediump|highp)\s+\w+\s*;\s*$`)

// Compilable resolves every #import in a GLSL source, rewrites the names
// it pulls in to avoid collisions, and splices the rewritten functions
// and uniforms back into the original text. Shader and Module are both
// built on top of it; Shader additionally pre-seeds the five built-in
// uniforms (see NewShader), Module additionally carries options and the
// extract() tree-shaking operation.
type Compilable struct {
	mu sync.Mutex

	original *Parser
	compiled *Parser

	isCompiled     bool
	compiledSource string

	presetUniforms []ShaderUniform

	reqUniformOrder  []string
	reqUniforms      map[string]ShaderUniform
	reqFunctionOrder []string
	reqFunctions     map[string]ShaderFunction

	// RandSuffix generates the six-character base-36 namespace suffix.
	// Exposed so tests can inject a deterministic source; defaults to a
	// process-wide math/rand source.
	RandSuffix func() string
}

func newCompilable(source string) *Compilable {
	return &Compilable{
		original:   NewParser(source),
		compiled:   NewParser(""),
		RandSuffix: defaultRandSuffix,
	}
}

// SetSource replaces the original source, invalidating any compiled
// output.
func (c *Compilable) SetSource(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.original.SetSource(source)
	c.isCompiled = false
	c.compiledSource = ""
}

// Source returns the original, uncompiled text.
func (c *Compilable) Source() string {
	return c.original.Source()
}

// Compiled reports whether a cached compiled source is available.
func (c *Compilable) Compiled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCompiled
}

// Compile resolves every #import in the original source and returns the
// resulting GLSL. Repeated calls return the cached string until
// Recompile forces a redo.
func (c *Compilable) Compile() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compileLocked()
}

// Recompile clears the compiled cache and runs Compile again, producing
// fresh namespace suffixes for every import.
func (c *Compilable) Recompile() (string, error) {
	c.mu.Lock()
	c.isCompiled = false
	c.compiledSource = ""
	c.mu.Unlock()
	return c.Compile()
}

func (c *Compilable) compileLocked() (string, error) {
	if c.isCompiled {
		return c.compiledSource, nil
	}

	origParsed, err := c.original.parse()
	if err != nil {
		return "", err
	}

	c.reqUniformOrder = nil
	c.reqUniforms = map[string]ShaderUniform{}
	c.reqFunctionOrder = nil
	c.reqFunctions = map[string]ShaderFunction{}
	for _, u := range c.presetUniforms {
		c.addRequiredUniform(u)
	}

	if len(origParsed.Imports) == 0 {
		out, err := c.spliceUniformsOnly(c.original.Source(), origParsed)
		if err != nil {
			return "", err
		}
		return c.finishCompile(out)
	}

	for _, imp := range origParsed.Imports {
		if err := c.resolveImport(imp); err != nil {
			return "", err
		}
	}

	out, err := c.spliceWithImports(c.original.Source(), origParsed)
	if err != nil {
		return "", err
	}
	return c.finishCompile(out)
}

func (c *Compilable) finishCompile(text string) (string, error) {
	text = collapseBlankLines(text)
	c.compiledSource = text
	c.compiled.SetSource(text)
	if _, err := c.compiled.parse(); err != nil {
		return "", err
	}
	c.isCompiled = true
	return c.compiledSource, nil
}

func (c *Compilable) addRequiredUniform(u ShaderUniform) {
	if _, ok := c.reqUniforms[u.Name]; !ok {
		c.reqUniformOrder = append(c.reqUniformOrder, u.Name)
	}
	c.reqUniforms[u.Name] = u
}

func (c *Compilable) addRequiredFunction(f ShaderFunction) {
	if _, ok := c.reqFunctions[f.Name]; !ok {
		c.reqFunctionOrder = append(c.reqFunctionOrder, f.Name)
	}
	c.reqFunctions[f.Name] = f
}

func (c *Compilable) resolveImport(imp ShaderImport) error {
	mod, err := DesignTime.Resolve(imp.Module)
	if err != nil {
		return err
	}
	extraction, err := mod.Extract(imp.Name)
	if err != nil {
		return err
	}

	var runtimeCopy *Module
	if existing, err := Runtime.Resolve(imp.Module); err == nil {
		runtimeCopy = existing
	} else {
		runtimeCopy = mod.Copy()
		if err := Runtime.Register(imp.Module, runtimeCopy); err != nil {
			return err
		}
	}

	unique := imp.Alias + "_" + c.RandSuffix()

	localFuncNames := map[string]bool{extraction.Function.Name: true}
	for _, h := range extraction.Dependencies.Functions {
		localFuncNames[h.Name] = true
	}

	uniformRenames := map[string]string{}
	for _, u := range extraction.Dependencies.Uniforms {
		if isBuiltinUniform(u.Name) {
			continue
		}
		uniformRenames[u.Name] = unique + "_" + u.Name
		renamed := u
		renamed.Name = uniformRenames[u.Name]
		c.addRequiredUniform(renamed)
	}

	for _, h := range extraction.Dependencies.Functions {
		rewritten := h
		rewritten.Name = unique + "_" + h.Name
		rewritten.Body = rewriteBody(h.Body, h.Dependencies, localFuncNames, uniformRenames, unique)
		c.addRequiredFunction(rewritten)
	}

	main := extraction.Function
	main.Name = imp.Alias
	main.Body = rewriteBody(extraction.Function.Body, extraction.Function.Dependencies, localFuncNames, uniformRenames, unique)
	c.addRequiredFunction(main)

	rewriteModuleOptions(runtimeCopy, extraction.Function.Name, imp.Alias, uniformRenames)

	return nil
}

// rewriteBody applies every recorded Dep replacement to body, walking
// from the highest Index down so earlier offsets stay valid.
func rewriteBody(body string, deps []Dep, localFuncNames map[string]bool, uniformRenames map[string]string, unique string) string {
	type edit struct {
		start, end int
		text       string
	}
	var edits []edit
	for _, d := range deps {
		switch d.Kind {
		case DepFunction:
			if !localFuncNames[d.Name] {
				continue
			}
			edits = append(edits, edit{d.Index, d.Index + len(d.Name), unique + "_" + d.Name})
		case DepUniform:
			newName, ok := uniformRenames[d.Name]
			if !ok {
				continue
			}
			edits = append(edits, edit{d.Index, d.Index + len(d.Name), newName})
		}
	}

	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		body = body[:e.start] + e.text + body[e.end:]
	}
	return body
}

func rewriteModuleOptions(m *Module, originalFunc, alias string, uniformRenames map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := effectiveOptions(m.options, originalFunc)
	if set == nil {
		return
	}
	rewritten := make(map[string]ModuleOption, len(set))
	for optName, opt := range set {
		if newName, ok := uniformRenames[opt.Uniform]; ok {
			opt.Uniform = newName
		}
		rewritten[optName] = opt
	}
	if m.options == nil {
		m.options = ModuleOptionsByFunction{}
	}
	m.options[alias] = rewritten
}

// spliceUniformsOnly handles the no-import path: only the preset
// (Shader built-in) uniforms need inserting, if they aren't already
// declared by the author.
func (c *Compilable) spliceUniformsOnly(source string, parsed *ShaderParseResult) (string, error) {
	lines := strings.Split(source, "\n")
	block, err := c.renderUniformBlock(parsed)
	if err != nil {
		return "", err
	}
	if len(block) == 0 {
		return source, nil
	}
	idx := findUniformInsertionIndex(lines)
	lines = insertAt(lines, idx, block)
	return strings.Join(lines, "\n"), nil
}

// spliceWithImports implements compile() step 4 in full: strip imports,
// patch in required uniforms, patch in required functions.
func (c *Compilable) spliceWithImports(source string, parsed *ShaderParseResult) (string, error) {
	lines := stripImportLines(source)

	uniformBlock, err := c.renderUniformBlock(parsed)
	if err != nil {
		return "", err
	}
	uniformIdx := findUniformInsertionIndex(lines)
	lines = insertAt(lines, uniformIdx, uniformBlock)

	funcIdx, ok := findFunctionInsertionIndex(lines)
	if !ok {
		return "", newNoFunctionsFault()
	}
	functionBlock := c.renderFunctionBlock()
	lines = insertAt(lines, funcIdx, functionBlock)

	return strings.Join(lines, "\n"), nil
}

func (c *Compilable) renderUniformBlock(parsed *ShaderParseResult) ([]string, error) {
	var block []string
	for _, name := range c.reqUniformOrder {
		req := c.reqUniforms[name]
		if existing, ok := parsed.uniform(name); ok {
			if existing.Type != req.Type {
				return nil, newUniformTypeConflictFault(name, string(existing.Type), string(req.Type), existing.Line)
			}
			continue
		}
		block = append(block, renderUniformDecl(req))
	}
	return block, nil
}

func (c *Compilable) renderFunctionBlock() []string {
	var block []string
	for _, name := range c.reqFunctionOrder {
		f := c.reqFunctions[name]
		block = append(block, renderFunctionDef(f))
	}
	return block
}

func renderUniformDecl(u ShaderUniform) string {
	if u.ArrayNum > 0 {
		return fmt.Sprintf("uniform %s %s[%d];", u.Type, u.Name, u.ArrayNum)
	}
	return fmt.Sprintf("uniform %s %s;", u.Type, u.Name)
}

func renderFunctionDef(f ShaderFunction) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %s", p.Type, p.Name)
	}
	return fmt.Sprintf("%s %s(%s) %s", f.ReturnType, f.Name, strings.Join(params, ", "), f.Body)
}

// stripImportLines removes every #import line and any blank line that
// immediately followed one.
func stripImportLines(source string) []string {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	prevWasImport := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if importStrictLineRe.MatchString(trimmed) {
			prevWasImport = true
			continue
		}
		if prevWasImport && trimmed == "" {
			prevWasImport = false
			continue
		}
		prevWasImport = false
		out = append(out, line)
	}
	return out
}

func findUniformInsertionIndex(lines []string) int {
	last := -1
	for i, line := range lines {
		if uniformRe.MatchString(line) {
			last = i
		}
	}
	if last >= 0 {
		return last + 1
	}

	i := 0
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		if t == "" || strings.HasPrefix(t, "//") || strings.HasPrefix(t, "#version") || precisionLineRe.MatchString(lines[i]) {
			i++
			continue
		}
		break
	}
	return i
}

func findFunctionInsertionIndex(lines []string) (int, bool) {
	for i, line := range lines {
		if functionSigRe.MatchString(line) {
			return i, true
		}
	}
	return 0, false
}

func insertAt(lines []string, idx int, block []string) []string {
	if len(block) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines)+len(block))
	out = append(out, lines[:idx]...)
	out = append(out, block...)
	out = append(out, lines[idx:]...)
	return out
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

func collapseBlankLines(text string) string {
	return blankRunRe.ReplaceAllString(text, "\n\n")
}

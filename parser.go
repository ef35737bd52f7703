package glsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var controlFlowKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "return": true, "break": true,
	"continue": true, "discard": true,
}

var paramQualifierRe = regexp.MustCompile(`\b(in|out|inout|const|highp|mediump|lowp)\b`)

var versionRe = regexp.MustCompile(`(?m)^\s*#version\s+300\s+es\b`)

var (
	importHashPrefixRe  = regexp.MustCompile(`(?m)^\s*#import\b`)
	importBadPrefixRe   = regexp.MustCompile(`(?m)^\s*([^\w\s])import\b`)
	importBarePrefixRe  = regexp.MustCompile(`(?m)^\s*import\b`)
	importIdentRe       = regexp.MustCompile(`^([A-Za-z_]\w*)`)
	importAsRe          = regexp.MustCompile(`^as\b\s*`)
	importFromRe        = regexp.MustCompile(`^from\b\s*`)
	importQuotedPathRe  = regexp.MustCompile(`^(['"])([^'"]*)['"]\s*$`)
	importStrictLineRe  = regexp.MustCompile(`^#import\s+([A-Za-z_]\w*)(?:\s+as\s+([A-Za-z_]\w*))?\s+from\s+(['"])([^'"]+)['"]\s*$`)
)

func typeAlternation() string {
	parts := make([]string, len(varTypes))
	for i, t := range varTypes {
		parts[i] = regexp.QuoteMeta(string(t))
	}
	return strings.Join(parts, "|")
}

var uniformRe = regexp.MustCompile(
	`(?m)^\s*uniform\s+(?:(?:highp|mediump|lowp)\s+)?(` + typeAlternation() + `)\s+([A-Za-z_]\w*)(?:\s*\[\s*(\d+)\s*\])?\s*;`,
)

var functionSigRe = regexp.MustCompile(
	`(?m)^\s*(` + typeAlternation() + `)\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*\{`,
)

var identRe = regexp.MustCompile(`[A-Za-z_]\w*`)

// Parser extracts a ShaderParseResult from GLSL text. Parsing is pure (no
// mutation of the source) and memoised: parse() returns the same result
// reference until setSource replaces the underlying text.
type Parser struct {
	source string
	memo   *ShaderParseResult
}

// NewParser creates a Parser over the given GLSL source.
func NewParser(source string) *Parser {
	return &Parser{source: source}
}

// Source returns the text the parser currently operates on.
func (p *Parser) Source() string {
	return p.source
}

// SetSource replaces the source text and drops any memoised parse.
func (p *Parser) SetSource(text string) {
	p.source = text
	p.memo = nil
}

// version implements the cheap `#version 300 es` check.
func (p *Parser) version() int {
	stripped := stripComments(p.source)
	if versionRe.MatchString(stripped) {
		return 2
	}
	return 1
}

// parse runs version, imports, uniforms and functions (in that order,
// since the function dependency scan needs the uniform list) and
// memoises the result.
func (p *Parser) parse() (*ShaderParseResult, error) {
	if p.memo != nil {
		return p.memo, nil
	}

	result := &ShaderParseResult{Version: p.version()}

	imports, err := p.parseImports()
	if err != nil {
		return nil, err
	}
	result.Imports = imports
	result.Uniforms = p.parseUniforms()
	result.Functions = p.parseFunctions(result.Uniforms)

	p.memo = result
	return result, nil
}

func lineOf(source string, offset int) int {
	return strings.Count(source[:offset], "\n") + 1
}

func (p *Parser) parseImports() ([]ShaderImport, error) {
	var imports []ShaderImport
	seenAlias := map[string]bool{}

	lines := strings.Split(p.source, "\n")
	for i, rawLine := range lines {
		lineNo := i + 1
		line := strings.TrimRight(rawLine, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case importStrictLineRe.MatchString(trimmed):
			m := importStrictLineRe.FindStringSubmatch(trimmed)
			name := m[1]
			alias := m[2]
			if alias == "" {
				alias = name
			}
			module := m[4]
			if seenAlias[alias] {
				return nil, newDuplicateAliasFault(alias, lineNo)
			}
			seenAlias[alias] = true
			imports = append(imports, ShaderImport{
				Name:   name,
				Alias:  alias,
				Module: module,
				Line:   lineNo,
			})

		case importHashPrefixRe.MatchString(trimmed):
			return nil, diagnoseImportBody(trimmed, lineNo)

		case importBadPrefixRe.MatchString(trimmed):
			m := importBadPrefixRe.FindStringSubmatch(trimmed)
			return nil, newImportSyntaxFault(fmt.Sprintf("Invalid prefix '%s'", m[1]), lineNo)

		case importBarePrefixRe.MatchString(trimmed):
			return nil, newImportSyntaxFault("Missing '#' prefix", lineNo)
		}
	}
	return imports, nil
}

// diagnoseImportBody is reached once a line is known to start with
// `#import` but failed the strict form. It walks the remainder of the
// line token by token to produce a specific diagnosis.
func diagnoseImportBody(trimmedLine string, lineNo int) Fault {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmedLine, "#import"))

	m := importIdentRe.FindStringSubmatch(rest)
	if m == nil {
		return newImportSyntaxFault("Missing function name", lineNo)
	}
	rest = strings.TrimSpace(rest[len(m[0]):])

	if strings.HasPrefix(rest, "as") && importAsRe.MatchString(rest) {
		rest = importAsRe.ReplaceAllString(rest, "")
		aliasM := importIdentRe.FindStringSubmatch(rest)
		if aliasM == nil {
			return newImportSyntaxFault("Missing alias after 'as'", lineNo)
		}
		rest = strings.TrimSpace(rest[len(aliasM[0]):])
	}

	if !importFromRe.MatchString(rest) {
		return newImportSyntaxFault("Missing 'from'", lineNo)
	}
	rest = strings.TrimSpace(importFromRe.ReplaceAllString(rest, ""))

	if !importQuotedPathRe.MatchString(rest) {
		return newImportSyntaxFault("Module path must be quoted", lineNo)
	}

	return newImportSyntaxFault("Malformed import directive", lineNo)
}

func (p *Parser) parseUniforms() []ShaderUniform {
	var uniforms []ShaderUniform
	matches := uniformRe.FindAllStringSubmatchIndex(p.source, -1)
	for _, m := range matches {
		typ := VarType(p.source[m[2]:m[3]])
		name := p.source[m[4]:m[5]]
		arrayNum := 0
		if m[6] != -1 {
			arrayNum, _ = strconv.Atoi(p.source[m[6]:m[7]])
		}
		uniforms = append(uniforms, ShaderUniform{
			GLSLVariable: GLSLVariable{Name: name, Type: typ},
			ArrayNum:     arrayNum,
			Line:         lineOf(p.source, m[0]),
		})
	}
	return uniforms
}

func (p *Parser) parseFunctions(uniforms []ShaderUniform) []ShaderFunction {
	var functions []ShaderFunction
	matches := functionSigRe.FindAllStringSubmatchIndex(p.source, -1)
	for _, m := range matches {
		returnType := VarType(p.source[m[2]:m[3]])
		name := p.source[m[4]:m[5]]
		paramsRaw := p.source[m[6]:m[7]]
		braceOpen := m[1] - 1 // index of the '{' that ends the signature match

		bodyEnd := findMatchingBrace(p.source, braceOpen)
		if bodyEnd == -1 {
			// The opening brace never closes: silently drop the function.
			continue
		}
		body := p.source[braceOpen : bodyEnd+1]

		functions = append(functions, ShaderFunction{
			Name:         name,
			ReturnType:   returnType,
			Params:       parseParams(paramsRaw),
			Body:         body,
			Dependencies: scanDependencies(body, uniforms),
			Line:         lineOf(p.source, m[0]),
		})
	}
	return functions
}

func parseParams(raw string) []GLSLVariable {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []GLSLVariable
	for _, part := range strings.Split(raw, ",") {
		part = paramQualifierRe.ReplaceAllString(part, "")
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		typ := fields[len(fields)-2]
		name := fields[len(fields)-1]
		if !isVarType(typ) {
			continue
		}
		params = append(params, GLSLVariable{Name: name, Type: VarType(typ)})
	}
	return params
}

// findMatchingBrace returns the index of the brace matching the one at
// openIdx (which must point at a '{'), skipping over line comments,
// block comments, and double-quoted runs. -1 is returned if the source
// ends before the braces balance.
func findMatchingBrace(src string, openIdx int) int {
	depth := 0
	i := openIdx
	for i < len(src) {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			j := strings.IndexByte(src[i:], '\n')
			if j == -1 {
				return -1
			}
			i += j
			continue
		case strings.HasPrefix(src[i:], "/*"):
			j := strings.Index(src[i:], "*/")
			if j == -1 {
				return -1
			}
			i += j + 2
			continue
		case src[i] == '"':
			j := strings.IndexByte(src[i+1:], '"')
			if j == -1 {
				return -1
			}
			i += j + 2
			continue
		case src[i] == '{':
			depth++
		case src[i] == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// scanDependencies records one Dep for every function-call-shaped
// identifier and every identifier matching a declared uniform inside
// body. Comments are blanked before scanning so references inside them
// are never recorded, while offsets stay aligned with the original body.
func scanDependencies(body string, uniforms []ShaderUniform) []Dep {
	uniformNames := make(map[string]bool, len(uniforms))
	for _, u := range uniforms {
		uniformNames[u.Name] = true
	}

	stripped := stripComments(body)
	var deps []Dep
	for _, loc := range identRe.FindAllStringIndex(stripped, -1) {
		name := stripped[loc[0]:loc[1]]
		if controlFlowKeywords[name] {
			continue
		}
		rest := stripped[loc[1]:]
		trimmedRest := strings.TrimLeft(rest, " \t\r\n")
		if strings.HasPrefix(trimmedRest, "(") {
			deps = append(deps, Dep{Kind: DepFunction, Name: name, Index: loc[0]})
			continue
		}
		if uniformNames[name] {
			deps = append(deps, Dep{Kind: DepUniform, Name: name, Index: loc[0]})
		}
	}
	return deps
}

// stripComments returns a copy of src with // line comments and /* */
// block comments blanked out (replaced with spaces, newlines preserved)
// so that downstream regexes never match text inside a comment while
// every byte offset stays identical to the original.
func stripComments(src string) string {
	out := []byte(src)
	i := 0
	for i < len(out) {
		switch {
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '/':
			j := i
			for j < len(out) && out[j] != '\n' {
				out[j] = ' '
				j++
			}
			i = j
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '*':
			j := i
			for j < len(out) {
				if out[j] == '*' && j+1 < len(out) && out[j+1] == '/' {
					out[j] = ' '
					out[j+1] = ' '
					j += 2
					break
				}
				if out[j] != '\n' {
					out[j] = ' '
				}
				j++
			}
			i = j
		default:
			i++
		}
	}
	return string(out)
}

package glsl

import "fmt"

// Code identifies one of the error kinds a driver routes to its error
// callback. The taxonomy itself is data: besides Error(), a Fault carries
// no behaviour.
type Code string

const (
	CodeContext    Code = "CONTEXT_ERROR"
	CodeShader     Code = "SHADER_ERROR"
	CodeModule     Code = "MODULE_ERROR"
	CodeValidation Code = "VALIDATION_ERROR"
	CodeProgram    Code = "PROGRAM_ERROR"
	CodeUnknown    Code = "UNKNOWN_ERROR"
)

// Fault is the tagged error type raised by every fallible operation in
// this package. The zero-value fields not relevant to a particular
// fault are simply left unset.
type Fault struct {
	Code   Code
	Reason string

	Module   string
	Function string
	Line     int

	Expected string
	Actual   string
}

func (err Fault) Error() string {
	msg := fmt.Sprintf("[%s] %s", err.Code, err.Reason)
	if err.Module != "" {
		msg += fmt.Sprintf(" (module %q)", err.Module)
	}
	if err.Function != "" {
		msg += fmt.Sprintf(" (function %q)", err.Function)
	}
	if err.Line != 0 {
		msg += fmt.Sprintf(" at line %d", err.Line)
	}
	return msg
}

func newImportSyntaxFault(reason string, line int) Fault {
	return Fault{Code: CodeShader, Reason: reason, Line: line}
}

func newDuplicateAliasFault(alias string, line int) Fault {
	return Fault{Code: CodeShader, Reason: fmt.Sprintf("duplicate import alias %q", alias), Line: line}
}

func newUnknownModuleFault(module string) Fault {
	return Fault{Code: CodeModule, Reason: "module not found", Module: module}
}

func newUnknownFunctionFault(module, function string) Fault {
	return Fault{Code: CodeModule, Reason: "function not found in module", Module: module, Function: function}
}

func newReservedImportFault(function string) Fault {
	return Fault{Code: CodeShader, Reason: fmt.Sprintf("cannot import %q", function), Function: function}
}

func newReservedModuleNameFault(name string) Fault {
	return Fault{Code: CodeModule, Reason: "reserved module name", Module: name}
}

func newDuplicateModuleFault(name string) Fault {
	return Fault{Code: CodeModule, Reason: "module already defined", Module: name}
}

func newNoFunctionsFault() Fault {
	return Fault{Code: CodeShader, Reason: "shader declares no functions"}
}

func newUniformTypeConflictFault(name, expected, actual string, line int) Fault {
	return Fault{
		Code:     CodeShader,
		Reason:   fmt.Sprintf("uniform %q redeclared with a conflicting type", name),
		Line:     line,
		Expected: expected,
		Actual:   actual,
	}
}

// HookError wraps a panic recovered from a Hooks callback, identifying
// the callback that raised it by its stable id.
type HookError struct {
	HookID int
	Cause  error
}

func (err HookError) Error() string {
	return fmt.Sprintf("hook %d: %v", err.HookID, err.Cause)
}

func (err HookError) Unwrap() error {
	return err.Cause
}

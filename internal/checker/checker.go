// Package checker resolves names and types over an untyped program and
// returns a new, fully annotated tree. It stops at the first violation.
package checker

import (
	"fmt"
	"strings"

	"pywat/internal/ast"
	"pywat/internal/diag"
	"pywat/internal/typesys"
)

// TypeError reports the first rule a program breaks.
type TypeError struct {
	Message string
	Context string
	Line    int
	Column  int
}

func (e *TypeError) Error() string {
	return "TYPE ERROR: " + e.Message
}

// CodeError converts e for diag rendering.
func (e *TypeError) CodeError() diag.CodeError {
	return diag.CodeError{Message: e.Message, Context: e.Context, Line: e.Line, Column: e.Column}
}

func errorAt(node ast.Node, format string, args ...interface{}) *TypeError {
	err := &TypeError{Message: fmt.Sprintf(format, args...)}
	if node == nil {
		return err
	}
	if tok, ok := ast.TokenOf(node); ok {
		err.Line = tok.Line
		err.Column = tok.Column
	}
	err.Context = strings.TrimSpace(firstLine(node.String()))
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// signature is a function or method type. Method signatures include the
// receiver as their first parameter.
type signature struct {
	params []typesys.Type
	ret    typesys.Type // zero when nothing meaningful is returned
}

// result is the type a call produces.
func (s signature) result() typesys.Type {
	if s.ret.IsValid() {
		return s.ret
	}
	return typesys.None
}

type classInfo struct {
	name    string
	fields  map[string]typesys.Type
	methods map[string]signature
}

// env is one lexical scope. Entering a function takes a snapshot with
// clone, so nothing declared inside leaks back out.
type env struct {
	vars    map[string]typesys.Type
	funs    map[string]signature
	classes map[string]*classInfo

	ret        typesys.Type    // expected return type, zero for none
	inFunction bool            // false at top level
	declared   map[string]bool // names assignable from this scope
}

func newEnv() *env {
	return &env{
		vars:     map[string]typesys.Type{},
		funs:     map[string]signature{},
		classes:  map[string]*classInfo{},
		declared: map[string]bool{},
	}
}

func (e *env) clone() *env {
	return &env{
		vars:       cloneMap(e.vars),
		funs:       cloneMap(e.funs),
		classes:    cloneMap(e.classes),
		ret:        e.ret,
		inFunction: e.inFunction,
		declared:   cloneMap(e.declared),
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k := range in {
		out[k] = in[k]
	}
	return out
}

// Check type checks program and returns an annotated copy. The input is
// never modified.
func Check(program *ast.Program) (*ast.Program, error) {
	if program == nil {
		return nil, &TypeError{Message: "no program"}
	}
	top := newEnv()

	classes, err := declareClasses(program.ClassDefs, top)
	if err != nil {
		return nil, err
	}
	globals, err := declareGlobals(program.VarDefs, top)
	if err != nil {
		return nil, err
	}
	if err := declareFunctions(program.FunDefs, top); err != nil {
		return nil, err
	}

	out := &ast.Program{VarDefs: globals}
	for _, fd := range program.FunDefs {
		typed, err := checkFunDef(fd, top)
		if err != nil {
			return nil, err
		}
		out.FunDefs = append(out.FunDefs, typed)
	}
	for _, cd := range classes {
		typed, err := checkClassDef(cd, top)
		if err != nil {
			return nil, err
		}
		out.ClassDefs = append(out.ClassDefs, typed)
	}

	out.Statements, err = checkStatements(program.Statements, top)
	if err != nil {
		return nil, err
	}

	out.Type = typesys.None
	if n := len(out.Statements); n > 0 {
		if es, ok := out.Statements[n-1].(*ast.ExpressionStatement); ok {
			out.Type = es.Expression.StaticType()
		}
	}
	return out, nil
}

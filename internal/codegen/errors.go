package codegen

import (
	"fmt"
	"strings"

	"pywat/internal/ast"
	"pywat/internal/diag"
)

// InternalError is a typed program the generator cannot lower. It means
// the checker let something through, so it is never a user diagnostic.
type InternalError struct {
	Message string
	Context string
	Line    int
	Column  int
}

func (e *InternalError) Error() string {
	if e.Context == "" {
		return "internal codegen error: " + e.Message
	}
	return fmt.Sprintf("internal codegen error: %s (at `%s`)", e.Message, e.Context)
}

// CodeError converts e for diag rendering.
func (e *InternalError) CodeError() diag.CodeError {
	return diag.CodeError{Message: e.Message, Context: e.Context, Line: e.Line, Column: e.Column}
}

func (cg *CodeGen) addError(msg string) {
	cg.errors = append(cg.errors, InternalError{Message: msg})
}

func (cg *CodeGen) addNodeError(msg string, node ast.Node) {
	err := InternalError{Message: msg}
	if node != nil {
		err.Context = strings.TrimSpace(node.String())
		if i := strings.IndexByte(err.Context, '\n'); i >= 0 {
			err.Context = err.Context[:i]
		}
		if tok, ok := ast.TokenOf(node); ok {
			err.Line = tok.Line
			err.Column = tok.Column
		}
	}
	cg.errors = append(cg.errors, err)
}

func (cg *CodeGen) addNodeErrorf(node ast.Node, format string, args ...interface{}) {
	cg.addNodeError(fmt.Sprintf(format, args...), node)
}

func (cg *CodeGen) firstError() error {
	if len(cg.errors) == 0 {
		return nil
	}
	err := cg.errors[0]
	return &err
}

func (cg *CodeGen) Errors() []string {
	formatted := make([]string, 0, len(cg.errors))
	for _, err := range cg.errors {
		formatted = append(formatted, err.Error())
	}
	return formatted
}

func (cg *CodeGen) DetailedErrors() []InternalError {
	out := make([]InternalError, len(cg.errors))
	copy(out, cg.errors)
	return out
}

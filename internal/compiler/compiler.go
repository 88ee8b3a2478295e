// Package compiler runs the front end, the checker and the generator over
// one source file.
package compiler

import (
	"errors"

	"github.com/tliron/commonlog"

	"pywat/internal/ast"
	"pywat/internal/checker"
	"pywat/internal/codegen"
	"pywat/internal/diag"
	"pywat/internal/lexer"
	"pywat/internal/parser"
	"pywat/internal/wat"
)

var log = commonlog.GetLogger("pywat.compiler")

// Stage names the pass that rejected a program, as printed before
// "error:".
type Stage string

const (
	StageParse   Stage = "Parse"
	StageType    Stage = "Type"
	StageCodegen Stage = "Codegen"
)

// Error is a failed compilation. Diagnostic is the reported error; All
// holds every parse error when the parser found several.
type Error struct {
	Stage      Stage
	Diagnostic diag.CodeError
	All        []diag.CodeError
	Err        error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Result is a successful compilation.
type Result struct {
	Program *ast.Program // typed
	Module  *wat.Module
	Text    string
}

// Parse builds the untyped program.
func Parse(source string) (*ast.Program, error) {
	p := parser.New(lexer.New(source))
	program := p.ParseProgram()
	if errs := p.DetailedErrors(); len(errs) > 0 {
		return nil, &Error{Stage: StageParse, Diagnostic: errs[0], All: errs, Err: errs[0]}
	}
	log.Debugf("parsed: %d globals, %d functions, %d classes, %d statements",
		len(program.VarDefs), len(program.FunDefs), len(program.ClassDefs), len(program.Statements))
	return program, nil
}

// Check parses and type checks source.
func Check(source string) (*ast.Program, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}
	typed, err := checker.Check(program)
	if err != nil {
		cerr := &Error{Stage: StageType, Err: err}
		var te *checker.TypeError
		if errors.As(err, &te) {
			cerr.Diagnostic = te.CodeError()
		} else {
			cerr.Diagnostic = diag.CodeError{Message: err.Error()}
		}
		return nil, cerr
	}
	log.Debugf("type checked: result type %s", typed.Type)
	return typed, nil
}

// Compile runs every pass and renders the module text.
func Compile(source string) (*Result, error) {
	typed, err := Check(source)
	if err != nil {
		return nil, err
	}
	module, err := codegen.Generate(typed)
	if err != nil {
		cerr := &Error{Stage: StageCodegen, Err: err}
		var ie *codegen.InternalError
		if errors.As(err, &ie) {
			cerr.Diagnostic = ie.CodeError()
		} else {
			cerr.Diagnostic = diag.CodeError{Message: err.Error()}
		}
		return nil, cerr
	}
	log.Debugf("generated: %d functions, %d globals", len(module.Funcs), len(module.Globals))
	return &Result{Program: typed, Module: module, Text: module.String()}, nil
}

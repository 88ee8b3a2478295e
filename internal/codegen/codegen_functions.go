package codegen

import (
	"strconv"

	"pywat/internal/ast"
	"pywat/internal/wat"
)

// funcState tracks the function being lowered.
type funcState struct {
	locals  map[string]bool // params and locals; everything else is a global
	scratch string
	self    string // receiver parameter of a constructor
	loops   int
}

// scratchName picks the scratch local, avoiding user names.
func scratchName(taken map[string]bool) string {
	name := "scratch"
	for i := 1; taken[name]; i++ {
		name = "scratch" + strconv.Itoa(i)
	}
	return name
}

func (cg *CodeGen) function(name string, fd *ast.FunDef) wat.Func {
	st := &funcState{locals: map[string]bool{}}
	f := wat.Func{Name: name, Result: true}
	for _, p := range fd.Params {
		st.locals[p.Name] = true
		f.Params = append(f.Params, p.Name)
	}
	for _, l := range fd.Locals {
		st.locals[l.Var.Name] = true
		f.Locals = append(f.Locals, l.Var.Name)
	}
	st.scratch = scratchName(st.locals)
	f.Locals = append(f.Locals, st.scratch)
	if fd.IsConstructor() {
		if len(fd.Params) == 0 {
			cg.addNodeError("constructor without a receiver", fd)
			return f
		}
		st.self = fd.Params[0].Name
	}

	cg.fn = st
	defer func() { cg.fn = nil }()

	for _, l := range fd.Locals {
		f.Body = append(f.Body, wat.Const(literalValue(l.Value)), wat.LocalSet(l.Var.Name))
	}
	if fd.Body != nil {
		f.Body = append(f.Body, cg.block(fd.Body.Statements)...)
	}
	f.Body = append(f.Body, cg.fallthroughValue())
	return f
}

// fallthroughValue is what a function returns when it runs off its end.
func (cg *CodeGen) fallthroughValue() wat.Instr {
	if cg.fn.self != "" {
		return wat.LocalGet(cg.fn.self)
	}
	return wat.Const(0)
}

// entry builds the exported function running the top-level statements. It
// returns the scratch value when the last statement is an expression.
func (cg *CodeGen) entry(stmts []ast.Statement) wat.Func {
	st := &funcState{locals: map[string]bool{}}
	st.scratch = scratchName(st.locals)
	f := wat.Func{Export: entryName, Locals: []string{st.scratch}}

	cg.fn = st
	defer func() { cg.fn = nil }()

	f.Body = cg.block(stmts)
	if n := len(stmts); n > 0 {
		if _, ok := stmts[n-1].(*ast.ExpressionStatement); ok {
			f.Result = true
			f.Body = append(f.Body, wat.LocalGet(st.scratch))
		}
	}
	return f
}

func (cg *CodeGen) isLocal(name string) bool {
	return cg.fn != nil && cg.fn.locals[name]
}

func (cg *CodeGen) nextLoopLabel() string {
	label := "while"
	if cg.fn.loops > 0 {
		label += strconv.Itoa(cg.fn.loops)
	}
	cg.fn.loops++
	return label
}

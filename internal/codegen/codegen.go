// Package codegen lowers a type-checked program into a wat.Module.
package codegen

import (
	"pywat/internal/ast"
	"pywat/internal/imports"
	"pywat/internal/wat"
)

const (
	heapGlobal = "heap"
	heapStart  = 4
	slotSize   = 4
	entryName  = "_start"
)

// CodeGen holds the state for one compilation. Layouts and errors are
// rebuilt on every Generate call.
type CodeGen struct {
	classes map[string]*classLayout
	fn      *funcState
	errors  []InternalError
}

// classLayout places field i at byte offset 4*i.
type classLayout struct {
	name    string
	fields  []*ast.VarDef
	offsets map[string]int32
}

func (cl *classLayout) size() int32 { return int32(len(cl.fields)) * slotSize }

// New creates a new code generator
func New() *CodeGen {
	return &CodeGen{}
}

func (cg *CodeGen) reset() {
	cg.classes = map[string]*classLayout{}
	cg.fn = nil
	cg.errors = []InternalError{}
}

// Generate lowers a checked program with a fresh generator.
func Generate(program *ast.Program) (*wat.Module, error) {
	return New().Generate(program)
}

// Generate produces the module for program. The program must come from
// checker.Check; anything the checker should have rejected is reported as
// an InternalError and no module is returned.
func (cg *CodeGen) Generate(program *ast.Program) (*wat.Module, error) {
	cg.reset()
	if program == nil {
		cg.addError("no program")
		return nil, cg.firstError()
	}

	for _, cd := range program.ClassDefs {
		cg.layoutClass(cd)
	}

	module := &wat.Module{
		Memory: &wat.MemoryImport{
			Module: imports.MemoryModule,
			Field:  imports.MemoryField,
			Pages:  imports.MemoryPages,
		},
		Globals: []wat.Global{{Name: heapGlobal, Init: heapStart}},
	}
	for _, prim := range imports.Primitives {
		module.Imports = append(module.Imports, wat.Import{
			Name:   prim.Name,
			Module: imports.Module,
			Field:  prim.Name,
			Params: prim.Arity,
		})
	}
	for _, vd := range program.VarDefs {
		module.Globals = append(module.Globals, wat.Global{Name: vd.Var.Name, Init: literalValue(vd.Value)})
	}
	for _, cd := range program.ClassDefs {
		for _, m := range cd.Methods {
			module.Funcs = append(module.Funcs, cg.function(MethodName(cd.Name, m.Name), m))
		}
	}
	for _, fd := range program.FunDefs {
		module.Funcs = append(module.Funcs, cg.function(fd.Name, fd))
	}
	module.Funcs = append(module.Funcs, cg.entry(program.Statements))

	if len(cg.errors) > 0 {
		return nil, cg.firstError()
	}
	if err := module.Validate(); err != nil {
		cg.addError(err.Error())
		return nil, cg.firstError()
	}
	return module, nil
}

// MethodName is the module-level name of a class method.
func MethodName(class, method string) string {
	return class + "$" + method
}

func (cg *CodeGen) layoutClass(cd *ast.ClassDef) {
	layout := &classLayout{name: cd.Name, fields: cd.Fields, offsets: map[string]int32{}}
	for i, f := range cd.Fields {
		layout.offsets[f.Var.Name] = int32(i) * slotSize
	}
	cg.classes[cd.Name] = layout
}

// classOf finds the layout for the static class type of a receiver.
func (cg *CodeGen) classOf(node ast.Node, receiver ast.Expression) (*classLayout, bool) {
	t := receiver.StaticType()
	if !t.IsClass() {
		cg.addNodeError("receiver of type "+t.String()+" is not a class instance", node)
		return nil, false
	}
	layout, ok := cg.classes[t.Class]
	if !ok {
		cg.addNodeError("no layout for class "+t.Class, node)
		return nil, false
	}
	return layout, true
}

func (cg *CodeGen) fieldOffset(node ast.Node, layout *classLayout, field string) (int32, bool) {
	off, ok := layout.offsets[field]
	if !ok {
		cg.addNodeError("class "+layout.name+" has no field "+field, node)
	}
	return off, ok
}

// literalValue is the 4-byte encoding of a literal: numbers verbatim,
// booleans as 0 and 1, None as 0.
func literalValue(l *ast.Literal) int32 {
	if l == nil {
		return 0
	}
	switch l.Kind {
	case ast.NumberLiteral:
		return l.Number
	case ast.BoolLiteral:
		if l.Bool {
			return 1
		}
	}
	return 0
}

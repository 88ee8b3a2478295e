package codegen

import (
	"pywat/internal/ast"
	"pywat/internal/imports"
	"pywat/internal/typesys"
	"pywat/internal/wat"
)

var binaryOps = map[ast.BinaryOperator]wat.Op{
	ast.Add:      wat.OpI32Add,
	ast.Sub:      wat.OpI32Sub,
	ast.Mul:      wat.OpI32Mul,
	ast.FloorDiv: wat.OpI32DivS,
	ast.Mod:      wat.OpI32RemS,
	ast.Eq:       wat.OpI32Eq,
	ast.NotEq:    wat.OpI32Ne,
	ast.Lt:       wat.OpI32LtS,
	ast.LtEq:     wat.OpI32LeS,
	ast.Gt:       wat.OpI32GtS,
	ast.GtEq:     wat.OpI32GeS,
	ast.Is:       wat.OpI32Eq,
}

// expression leaves exactly one value on the stack.
func (cg *CodeGen) expression(expr ast.Expression) []wat.Instr {
	switch e := expr.(type) {
	case *ast.Literal:
		return []wat.Instr{wat.Const(literalValue(e))}

	case *ast.Identifier:
		if cg.isLocal(e.Value) {
			return []wat.Instr{wat.LocalGet(e.Value)}
		}
		return []wat.Instr{wat.GlobalGet(e.Value)}

	case *ast.GroupedExpression:
		return cg.expression(e.Inner)

	case *ast.PrefixExpression:
		// not x is 1 - x and -x is 0 - x; booleans are exactly 0 or 1.
		var lhs int32
		if e.Operator == ast.Not {
			lhs = 1
		}
		out := []wat.Instr{wat.Const(lhs)}
		out = append(out, cg.expression(e.Right)...)
		return append(out, wat.Plain(wat.OpI32Sub))

	case *ast.InfixExpression:
		op, ok := binaryOps[e.Operator]
		if !ok {
			cg.addNodeErrorf(e, "unsupported operator %s", e.Operator)
			return []wat.Instr{wat.Const(0)}
		}
		out := cg.expression(e.Left)
		out = append(out, cg.expression(e.Right)...)
		return append(out, wat.Plain(op))

	case *ast.CallExpression:
		return cg.call(e)

	case *ast.ConstructExpression:
		return cg.construct(e)

	case *ast.MemberExpression:
		layout, ok := cg.classOf(e, e.Object)
		if !ok {
			return []wat.Instr{wat.Const(0)}
		}
		off, ok := cg.fieldOffset(e, layout, e.Field.Value)
		if !ok {
			return []wat.Instr{wat.Const(0)}
		}
		return append(cg.fieldAddress(e.Object, off), wat.Plain(wat.OpI32Load))

	case *ast.MethodCallExpression:
		layout, ok := cg.classOf(e, e.Object)
		if !ok {
			return []wat.Instr{wat.Const(0)}
		}
		out := cg.expression(e.Object)
		for _, arg := range e.Arguments {
			out = append(out, cg.expression(arg)...)
		}
		return append(out, wat.Call(MethodName(layout.name, e.Method.Value)))
	}
	cg.addNodeErrorf(expr, "unsupported expression %T", expr)
	return []wat.Instr{wat.Const(0)}
}

// fieldAddress evaluates the receiver, traps on None, and adds the offset.
func (cg *CodeGen) fieldAddress(object ast.Expression, offset int32) []wat.Instr {
	out := cg.expression(object)
	return append(out,
		wat.Call(imports.RuntimeCheck),
		wat.Const(offset),
		wat.Plain(wat.OpI32Add),
	)
}

func (cg *CodeGen) call(e *ast.CallExpression) []wat.Instr {
	var out []wat.Instr
	for _, arg := range e.Arguments {
		out = append(out, cg.expression(arg)...)
	}
	name := e.Function.Value
	if name == "print" {
		if len(e.Arguments) != 1 {
			cg.addNodeErrorf(e, "print called with %d arguments", len(e.Arguments))
			return []wat.Instr{wat.Const(0)}
		}
		name = printPrimitive(e.Arguments[0].StaticType())
	}
	return append(out, wat.Call(name))
}

// printPrimitive routes print by the argument's static type. An argument
// with no type goes to print_none.
func printPrimitive(t typesys.Type) string {
	switch {
	case !t.IsValid(), t.Kind == typesys.NoneKind:
		return imports.PrintNone
	case t.Kind == typesys.BoolKind:
		return imports.PrintBool
	}
	return imports.PrintNum
}

// construct writes the field defaults at the heap pointer, keeps the old
// pointer as the receiver, bumps the heap and calls the constructor.
func (cg *CodeGen) construct(e *ast.ConstructExpression) []wat.Instr {
	layout, ok := cg.classes[e.Class]
	if !ok {
		cg.addNodeErrorf(e, "no layout for class %s", e.Class)
		return []wat.Instr{wat.Const(0)}
	}
	var out []wat.Instr
	for _, f := range layout.fields {
		out = append(out,
			wat.GlobalGet(heapGlobal),
			wat.Const(layout.offsets[f.Var.Name]),
			wat.Plain(wat.OpI32Add),
			wat.Const(literalValue(f.Value)),
			wat.Plain(wat.OpI32Store),
		)
	}
	out = append(out,
		wat.GlobalGet(heapGlobal),
		wat.GlobalGet(heapGlobal),
		wat.Const(layout.size()),
		wat.Plain(wat.OpI32Add),
		wat.GlobalSet(heapGlobal),
	)
	for _, arg := range e.Arguments {
		out = append(out, cg.expression(arg)...)
	}
	return append(out, wat.Call(MethodName(layout.name, ast.ConstructorName)))
}

package codegen

import (
	"pywat/internal/ast"
	"pywat/internal/wat"
)

func (cg *CodeGen) block(stmts []ast.Statement) []wat.Instr {
	var out []wat.Instr
	for _, s := range stmts {
		out = append(out, cg.statement(s)...)
	}
	return out
}

func (cg *CodeGen) statement(stmt ast.Statement) []wat.Instr {
	switch s := stmt.(type) {
	case *ast.PassStatement:
		return nil

	case *ast.ExpressionStatement:
		return append(cg.expression(s.Expression), wat.LocalSet(cg.fn.scratch))

	case *ast.AssignStatement:
		out := cg.expression(s.Value)
		if cg.isLocal(s.Name.Value) {
			return append(out, wat.LocalSet(s.Name.Value))
		}
		return append(out, wat.GlobalSet(s.Name.Value))

	case *ast.FieldAssignStatement:
		layout, ok := cg.classOf(s, s.Object)
		if !ok {
			return nil
		}
		off, ok := cg.fieldOffset(s, layout, s.Field.Value)
		if !ok {
			return nil
		}
		out := cg.fieldAddress(s.Object, off)
		out = append(out, cg.expression(s.Value)...)
		return append(out, wat.Plain(wat.OpI32Store))

	case *ast.ReturnStatement:
		if s.ReturnValue == nil {
			return []wat.Instr{cg.fallthroughValue(), wat.Return()}
		}
		return append(cg.expression(s.ReturnValue), wat.Return())

	case *ast.IfStatement:
		return cg.ifChain(s.Condition, s.Consequence, s.Elifs, s.Alternative)

	case *ast.WhileStatement:
		label := cg.nextLoopLabel()
		body := append(cg.block(s.Body.Statements), wat.Br(label))
		loop := append(cg.expression(s.Condition), wat.If(body, nil))
		return []wat.Instr{wat.Loop(label, loop)}

	case *ast.BlockStatement:
		return cg.block(s.Statements)
	}
	cg.addNodeErrorf(stmt, "unsupported statement %T", stmt)
	return nil
}

// ifChain nests each elif inside the else arm of the branch before it.
func (cg *CodeGen) ifChain(cond ast.Expression, then *ast.BlockStatement, elifs []*ast.ElifClause, alt *ast.BlockStatement) []wat.Instr {
	var els []wat.Instr
	switch {
	case len(elifs) > 0:
		els = cg.ifChain(elifs[0].Condition, elifs[0].Consequence, elifs[1:], alt)
	case alt != nil:
		els = cg.block(alt.Statements)
	}
	out := cg.expression(cond)
	return append(out, wat.If(cg.block(then.Statements), els))
}

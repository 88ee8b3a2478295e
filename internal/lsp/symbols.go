package lsp

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"pywat/internal/ast"
	"pywat/internal/typesys"
)

// Symbol is one typed name occurrence in a checked program. Line and
// Column are 1-based, as the lexer reports them.
type Symbol struct {
	Name   string
	Line   int
	Column int
	Type   typesys.Type
}

// covers reports whether the 0-based editor position falls on the name.
func (s Symbol) covers(pos protocol.Position) bool {
	if int(pos.Line) != s.Line-1 {
		return false
	}
	col := int(pos.Character)
	return col >= s.Column-1 && col < s.Column-1+len(s.Name)
}

// Symbols indexes every identifier, parameter and variable definition of
// a typed program, ordered by position.
func Symbols(program *ast.Program) []Symbol {
	if program == nil {
		return nil
	}
	var c collector
	for _, vd := range program.VarDefs {
		c.varDef(vd)
	}
	for _, cd := range program.ClassDefs {
		for _, f := range cd.Fields {
			c.varDef(f)
		}
		for _, m := range cd.Methods {
			c.funDef(m)
		}
	}
	for _, fd := range program.FunDefs {
		c.funDef(fd)
	}
	for _, s := range program.Statements {
		c.statement(s)
	}
	sort.SliceStable(c.out, func(i, j int) bool {
		if c.out[i].Line != c.out[j].Line {
			return c.out[i].Line < c.out[j].Line
		}
		return c.out[i].Column < c.out[j].Column
	})
	return c.out
}

// SymbolAt finds the symbol under an editor position.
func SymbolAt(symbols []Symbol, pos protocol.Position) (Symbol, bool) {
	for _, s := range symbols {
		if s.covers(pos) {
			return s, true
		}
	}
	return Symbol{}, false
}

type collector struct {
	out []Symbol
}

func (c *collector) add(name string, line, column int, t typesys.Type) {
	if name == "" || line <= 0 || column <= 0 || !t.IsValid() {
		return
	}
	c.out = append(c.out, Symbol{Name: name, Line: line, Column: column, Type: t})
}

// typedVar skips synthesized parameters, whose token is not the name.
func (c *collector) typedVar(tv *ast.TypedVar) {
	if tv == nil || tv.Token.Literal != tv.Name {
		return
	}
	c.add(tv.Name, tv.Token.Line, tv.Token.Column, tv.Type)
}

func (c *collector) ident(id *ast.Identifier) {
	if id == nil {
		return
	}
	c.add(id.Value, id.Token.Line, id.Token.Column, id.Type)
}

func (c *collector) varDef(vd *ast.VarDef) {
	if vd != nil {
		c.typedVar(vd.Var)
	}
}

func (c *collector) funDef(fd *ast.FunDef) {
	for _, p := range fd.Params {
		c.typedVar(p)
	}
	for _, l := range fd.Locals {
		c.varDef(l)
	}
	c.block(fd.Body)
}

func (c *collector) block(b *ast.BlockStatement) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		c.statement(s)
	}
}

func (c *collector) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		c.expression(s.Expression)
	case *ast.AssignStatement:
		c.ident(s.Name)
		c.expression(s.Value)
	case *ast.FieldAssignStatement:
		c.expression(s.Object)
		c.ident(s.Field)
		c.expression(s.Value)
	case *ast.ReturnStatement:
		c.expression(s.ReturnValue)
	case *ast.IfStatement:
		c.expression(s.Condition)
		c.block(s.Consequence)
		for _, e := range s.Elifs {
			c.expression(e.Condition)
			c.block(e.Consequence)
		}
		c.block(s.Alternative)
	case *ast.WhileStatement:
		c.expression(s.Condition)
		c.block(s.Body)
	case *ast.BlockStatement:
		c.block(s)
	}
}

func (c *collector) expression(expr ast.Expression) {
	switch x := expr.(type) {
	case *ast.Identifier:
		c.ident(x)
	case *ast.PrefixExpression:
		c.expression(x.Right)
	case *ast.InfixExpression:
		c.expression(x.Left)
		c.expression(x.Right)
	case *ast.GroupedExpression:
		c.expression(x.Inner)
	case *ast.CallExpression:
		for _, a := range x.Arguments {
			c.expression(a)
		}
	case *ast.ConstructExpression:
		for _, a := range x.Arguments {
			c.expression(a)
		}
	case *ast.MemberExpression:
		c.expression(x.Object)
		c.ident(x.Field)
	case *ast.MethodCallExpression:
		c.expression(x.Object)
		for _, a := range x.Arguments {
			c.expression(a)
		}
	}
}

package ast

import (
	"bytes"
	"strconv"
	"strings"

	"pywat/internal/token"
	"pywat/internal/typesys"
)

// ConstructorName is the method name that designates a class constructor.
const ConstructorName = "__init__"

// Node is the base interface for all AST nodes
// Every node must provide a TokenLiteral (for debugging) and String (for printing)
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement nodes don't produce values
type Statement interface {
	Node
	statementNode()
}

// Expression nodes produce values. The parser leaves StaticType unset;
// the checker returns a fresh tree where every expression carries one.
type Expression interface {
	Node
	expressionNode()
	StaticType() typesys.Type
}

// Program is the root node of every AST. Definitions always precede the
// top-level statements.
type Program struct {
	VarDefs    []*VarDef
	FunDefs    []*FunDef
	ClassDefs  []*ClassDef
	Statements []Statement

	// Type is the program's result type once checked: the type of the
	// final expression statement, otherwise None.
	Type typesys.Type
}

func (p *Program) TokenLiteral() string {
	switch {
	case len(p.VarDefs) > 0:
		return p.VarDefs[0].TokenLiteral()
	case len(p.FunDefs) > 0:
		return p.FunDefs[0].TokenLiteral()
	case len(p.ClassDefs) > 0:
		return p.ClassDefs[0].TokenLiteral()
	case len(p.Statements) > 0:
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// String builds the program back into source code (useful for debugging)
func (p *Program) String() string {
	var out bytes.Buffer
	for _, v := range p.VarDefs {
		out.WriteString(v.String())
		out.WriteString("\n")
	}
	for _, f := range p.FunDefs {
		out.WriteString(f.String())
		out.WriteString("\n")
	}
	for _, c := range p.ClassDefs {
		out.WriteString(c.String())
		out.WriteString("\n")
	}
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// TypedVar is a name with a declared type: a parameter, or the left side
// of a variable or field definition.
type TypedVar struct {
	Token token.Token
	Name  string
	Type  typesys.Type
}

func (tv *TypedVar) TokenLiteral() string { return tv.Token.Literal }
func (tv *TypedVar) String() string       { return tv.Name + " : " + tv.Type.String() }

// VarDef declares a global, a local or a field with a literal initializer
type VarDef struct {
	Token token.Token
	Var   *TypedVar
	Value *Literal
}

func (vd *VarDef) TokenLiteral() string { return vd.Token.Literal }
func (vd *VarDef) String() string {
	return vd.Var.String() + " = " + vd.Value.String()
}

// FunDef is a function or, inside a class, a method. ReturnType is the
// zero Type when the function returns nothing meaningful.
type FunDef struct {
	Token      token.Token
	Name       string
	Params     []*TypedVar
	ReturnType typesys.Type
	Locals     []*VarDef
	Body       *BlockStatement
}

func (fd *FunDef) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunDef) String() string {
	var out bytes.Buffer
	params := make([]string, 0, len(fd.Params))
	for _, p := range fd.Params {
		params = append(params, p.String())
	}
	out.WriteString("def " + fd.Name + "(" + strings.Join(params, ", ") + ")")
	if fd.ReturnType.IsValid() {
		out.WriteString(" -> " + fd.ReturnType.String())
	}
	out.WriteString(":")
	var body bytes.Buffer
	for _, l := range fd.Locals {
		body.WriteString(l.String())
		body.WriteString("\n")
	}
	if fd.Body != nil {
		body.WriteString(fd.Body.String())
	}
	out.WriteString("\n")
	out.WriteString(indent(body.String()))
	return strings.TrimRight(out.String(), "\n")
}

// IsConstructor reports whether fd is a class constructor.
func (fd *FunDef) IsConstructor() bool { return fd.Name == ConstructorName }

// ClassDef is a flat record type: fields with defaults and methods.
type ClassDef struct {
	Token   token.Token
	Name    string
	Fields  []*VarDef
	Methods []*FunDef
}

func (cd *ClassDef) TokenLiteral() string { return cd.Token.Literal }
func (cd *ClassDef) String() string {
	var body bytes.Buffer
	for _, f := range cd.Fields {
		body.WriteString(f.String())
		body.WriteString("\n")
	}
	for _, m := range cd.Methods {
		body.WriteString(m.String())
		body.WriteString("\n")
	}
	if body.Len() == 0 {
		body.WriteString("pass\n")
	}
	return strings.TrimRight("class "+cd.Name+"(object):\n"+indent(body.String()), "\n")
}

// Method looks a method up by name.
func (cd *ClassDef) Method(name string) (*FunDef, bool) {
	for _, m := range cd.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// BlockStatement is an indented sequence of statements
type BlockStatement struct {
	Token      token.Token // the ':' that opened the block
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// AssignStatement represents name = value
type AssignStatement struct {
	Token token.Token
	Name  *Identifier
	Value Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	return as.Name.String() + " = " + as.Value.String()
}

// FieldAssignStatement represents obj.field = value
type FieldAssignStatement struct {
	Token  token.Token
	Object Expression
	Field  *Identifier
	Value  Expression
}

func (fa *FieldAssignStatement) statementNode()       {}
func (fa *FieldAssignStatement) TokenLiteral() string { return fa.Token.Literal }
func (fa *FieldAssignStatement) String() string {
	return fa.Object.String() + "." + fa.Field.String() + " = " + fa.Value.String()
}

// ReturnStatement represents return [value]
type ReturnStatement struct {
	Token       token.Token
	ReturnValue Expression // nil for a bare return
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return"
	}
	return "return " + rs.ReturnValue.String()
}

type PassStatement struct {
	Token token.Token
}

func (ps *PassStatement) statementNode()       {}
func (ps *PassStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PassStatement) String() string       { return "pass" }

// ExpressionStatement wraps an expression evaluated for its effect
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// IfStatement carries any number of elif clauses. Alternative is nil when
// the source has no else, which the checker rejects.
type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
	Elifs       []*ElifClause
	Alternative *BlockStatement
}

type ElifClause struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
}

func (ec *ElifClause) TokenLiteral() string { return ec.Token.Literal }
func (ec *ElifClause) String() string {
	return strings.TrimRight("elif "+ec.Condition.String()+":\n"+indent(ec.Consequence.String()), "\n")
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if " + is.Condition.String() + ":\n")
	out.WriteString(indent(is.Consequence.String()))
	for _, e := range is.Elifs {
		out.WriteString(e.String() + "\n")
	}
	if is.Alternative != nil {
		out.WriteString("else:\n")
		out.WriteString(indent(is.Alternative.String()))
	}
	return strings.TrimRight(out.String(), "\n")
}

// WhileStatement represents while cond: body
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return strings.TrimRight("while "+ws.Condition.String()+":\n"+indent(ws.Body.String()), "\n")
}

// Identifier represents a variable name
type Identifier struct {
	Token token.Token // The IDENT token
	Value string      // The actual name: "x", "self"
	Type  typesys.Type
}

func (i *Identifier) expressionNode()          {}
func (i *Identifier) TokenLiteral() string     { return i.Token.Literal }
func (i *Identifier) String() string           { return i.Value }
func (i *Identifier) StaticType() typesys.Type { return i.Type }

type LiteralKind int

const (
	NumberLiteral LiteralKind = iota
	BoolLiteral
	NoneLiteral
)

// Literal is a number, True/False, or None.
type Literal struct {
	Token  token.Token
	Kind   LiteralKind
	Number int32
	Bool   bool
	Type   typesys.Type
}

func (l *Literal) expressionNode()          {}
func (l *Literal) TokenLiteral() string     { return l.Token.Literal }
func (l *Literal) StaticType() typesys.Type { return l.Type }
func (l *Literal) String() string {
	switch l.Kind {
	case BoolLiteral:
		if l.Bool {
			return "True"
		}
		return "False"
	case NoneLiteral:
		return "None"
	default:
		return strconv.FormatInt(int64(l.Number), 10)
	}
}

// LiteralType is the type a literal has on its own.
func (l *Literal) LiteralType() typesys.Type {
	switch l.Kind {
	case BoolLiteral:
		return typesys.Bool
	case NoneLiteral:
		return typesys.None
	default:
		return typesys.Number
	}
}

type UnaryOperator string

const (
	Not UnaryOperator = "not"
	Neg UnaryOperator = "-"
)

type BinaryOperator string

const (
	Add      BinaryOperator = "+"
	Sub      BinaryOperator = "-"
	Mul      BinaryOperator = "*"
	FloorDiv BinaryOperator = "//"
	Mod      BinaryOperator = "%"
	Eq       BinaryOperator = "=="
	NotEq    BinaryOperator = "!="
	LtEq     BinaryOperator = "<="
	GtEq     BinaryOperator = ">="
	Lt       BinaryOperator = "<"
	Gt       BinaryOperator = ">"
	Is       BinaryOperator = "is"
)

// PrefixExpression represents not x or -x
type PrefixExpression struct {
	Token    token.Token
	Operator UnaryOperator
	Right    Expression
	Type     typesys.Type
}

func (pe *PrefixExpression) expressionNode()          {}
func (pe *PrefixExpression) TokenLiteral() string     { return pe.Token.Literal }
func (pe *PrefixExpression) StaticType() typesys.Type { return pe.Type }
func (pe *PrefixExpression) String() string {
	if pe.Operator == Not {
		return "(not " + pe.Right.String() + ")"
	}
	return "(" + string(pe.Operator) + pe.Right.String() + ")"
}

// InfixExpression represents left op right
type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator BinaryOperator
	Right    Expression
	Type     typesys.Type
}

func (ie *InfixExpression) expressionNode()          {}
func (ie *InfixExpression) TokenLiteral() string     { return ie.Token.Literal }
func (ie *InfixExpression) StaticType() typesys.Type { return ie.Type }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + string(ie.Operator) + " " + ie.Right.String() + ")"
}

// GroupedExpression keeps explicit parentheses from the source
type GroupedExpression struct {
	Token token.Token
	Inner Expression
	Type  typesys.Type
}

func (ge *GroupedExpression) expressionNode()          {}
func (ge *GroupedExpression) TokenLiteral() string     { return ge.Token.Literal }
func (ge *GroupedExpression) StaticType() typesys.Type { return ge.Type }
func (ge *GroupedExpression) String() string           { return "(" + ge.Inner.String() + ")" }

// CallExpression calls a function or built-in by name. Calls whose name
// is a class come back from the checker as ConstructExpression.
type CallExpression struct {
	Token     token.Token
	Function  *Identifier
	Arguments []Expression
	Type      typesys.Type
}

func (ce *CallExpression) expressionNode()          {}
func (ce *CallExpression) TokenLiteral() string     { return ce.Token.Literal }
func (ce *CallExpression) StaticType() typesys.Type { return ce.Type }
func (ce *CallExpression) String() string {
	return ce.Function.String() + "(" + joinExpressions(ce.Arguments) + ")"
}

// ConstructExpression allocates an instance of Class and runs its constructor
type ConstructExpression struct {
	Token     token.Token
	Class     string
	Arguments []Expression
	Type      typesys.Type
}

func (ce *ConstructExpression) expressionNode()          {}
func (ce *ConstructExpression) TokenLiteral() string     { return ce.Token.Literal }
func (ce *ConstructExpression) StaticType() typesys.Type { return ce.Type }
func (ce *ConstructExpression) String() string {
	return ce.Class + "(" + joinExpressions(ce.Arguments) + ")"
}

// MemberExpression reads obj.field
type MemberExpression struct {
	Token  token.Token
	Object Expression
	Field  *Identifier
	Type   typesys.Type
}

func (me *MemberExpression) expressionNode()          {}
func (me *MemberExpression) TokenLiteral() string     { return me.Token.Literal }
func (me *MemberExpression) StaticType() typesys.Type { return me.Type }
func (me *MemberExpression) String() string           { return me.Object.String() + "." + me.Field.String() }

// MethodCallExpression represents obj.method(args)
type MethodCallExpression struct {
	Token     token.Token
	Object    Expression
	Method    *Identifier
	Arguments []Expression
	Type      typesys.Type
}

func (mc *MethodCallExpression) expressionNode()          {}
func (mc *MethodCallExpression) TokenLiteral() string     { return mc.Token.Literal }
func (mc *MethodCallExpression) StaticType() typesys.Type { return mc.Type }
func (mc *MethodCallExpression) String() string {
	return mc.Object.String() + "." + mc.Method.String() + "(" + joinExpressions(mc.Arguments) + ")"
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func indent(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, ln := range lines {
		lines[i] = "    " + ln
	}
	return strings.Join(lines, "\n") + "\n"
}

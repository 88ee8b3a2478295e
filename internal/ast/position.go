package ast

import "pywat/internal/token"

// TokenOf returns the token that anchors node in the source, and whether it
// carries a usable position.
func TokenOf(node Node) (token.Token, bool) {
	var tok token.Token
	switch n := node.(type) {
	case *TypedVar:
		tok = n.Token
	case *VarDef:
		tok = n.Token
	case *FunDef:
		tok = n.Token
	case *ClassDef:
		tok = n.Token
	case *BlockStatement:
		tok = n.Token
	case *AssignStatement:
		tok = n.Token
	case *FieldAssignStatement:
		tok = n.Token
	case *ReturnStatement:
		tok = n.Token
	case *PassStatement:
		tok = n.Token
	case *ExpressionStatement:
		tok = n.Token
	case *IfStatement:
		tok = n.Token
	case *ElifClause:
		tok = n.Token
	case *WhileStatement:
		tok = n.Token
	case *Identifier:
		tok = n.Token
	case *Literal:
		tok = n.Token
	case *PrefixExpression:
		tok = n.Token
	case *InfixExpression:
		tok = n.Token
	case *GroupedExpression:
		tok = n.Token
	case *CallExpression:
		tok = n.Token
	case *ConstructExpression:
		tok = n.Token
	case *MemberExpression:
		tok = n.Token
	case *MethodCallExpression:
		tok = n.Token
	default:
		return token.Token{}, false
	}
	return tok, tok.Line > 0 && tok.Column > 0
}

package parser

import (
	"fmt"

	"pywat/internal/ast"
	"pywat/internal/token"
)

// parseStatement dispatches to specific statement parsers based on token type.
// Simple statements leave curToken on their NEWLINE, compound statements on
// the DEDENT that closes their last block.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.PASS:
		stmt := &ast.PassStatement{Token: p.curToken}
		if !p.expectPeek(token.NEWLINE) {
			return nil
		}
		return stmt
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DEF, token.CLASS:
		p.addErrorCurrent(fmt.Sprintf("%s definitions are only allowed at the top level", p.curToken.Literal))
		return nil
	case token.INDENT:
		p.addErrorCurrent("unexpected indent")
		return nil
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
		return stmt
	}
	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if stmt.ReturnValue == nil {
		return nil
	}
	if !p.expectPeek(token.NEWLINE) {
		return nil
	}
	return stmt
}

// parseSimpleStatement parses an expression statement or an assignment to a
// name or field.
func (p *Parser) parseSimpleStatement() ast.Statement {
	start := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	if !p.peekTokenIs(token.ASSIGN) {
		if !p.expectPeek(token.NEWLINE) {
			return nil
		}
		return &ast.ExpressionStatement{Token: start, Expression: expr}
	}

	p.nextToken()
	assign := p.curToken
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	if !p.expectPeek(token.NEWLINE) {
		return nil
	}

	switch target := expr.(type) {
	case *ast.Identifier:
		return &ast.AssignStatement{Token: target.Token, Name: target, Value: value}
	case *ast.MemberExpression:
		return &ast.FieldAssignStatement{Token: assign, Object: target.Object, Field: target.Field, Value: value}
	default:
		p.addErrorAt(assign, fmt.Sprintf("cannot assign to %s", expr.String()))
		return nil
	}
}

// parseIfStatement parses if/elif/else chains. A missing else is left as a
// nil Alternative; rejecting it is a typing rule, not a syntax rule.
func (p *Parser) parseIfStatement() *ast.IfStatement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(token.COLON) {
		return nil
	}
	stmt.Consequence = p.parseBlock()
	if stmt.Consequence == nil {
		return nil
	}

	for p.peekTokenIs(token.ELIF) {
		p.nextToken()
		clause := &ast.ElifClause{Token: p.curToken}
		p.nextToken()
		clause.Condition = p.parseExpression(LOWEST)
		if clause.Condition == nil || !p.expectPeek(token.COLON) {
			return nil
		}
		clause.Consequence = p.parseBlock()
		if clause.Consequence == nil {
			return nil
		}
		stmt.Elifs = append(stmt.Elifs, clause)
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.COLON) {
			return nil
		}
		stmt.Alternative = p.parseBlock()
		if stmt.Alternative == nil {
			return nil
		}
	}

	return stmt
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(token.COLON) {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

// openBlock consumes ': NEWLINE INDENT' with cur on the colon and leaves
// cur on the first token of the block.
func (p *Parser) openBlock() bool {
	if !p.expectPeek(token.NEWLINE) {
		return false
	}
	if !p.peekTokenIs(token.INDENT) {
		p.addErrorAt(p.peekToken, "expected an indented block")
		return false
	}
	p.nextToken()
	p.nextToken()
	return true
}

// parseBlock parses an indented statement block with cur on its colon
func (p *Parser) parseBlock() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	if !p.openBlock() {
		return nil
	}

	for !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		if p.isVarDefStart() {
			p.addErrorCurrent("variable definitions are only allowed at the start of a function or at the top level")
			p.synchronize()
		} else if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else {
			p.synchronize()
		}
		p.nextToken()
	}

	if len(block.Statements) == 0 {
		p.addErrorAt(block.Token, "empty block")
		return nil
	}
	return block
}

package parser

import (
	"fmt"
	"strconv"

	"pywat/internal/ast"
	"pywat/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(token.NEWLINE) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.addErrorAt(tok, fmt.Sprintf("expected an expression, got %s", describe(tok)))
}

// parseIdentifier parses a variable name
func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

// parseIntegerLiteral parses a number; values must fit a 32-bit slot
func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 32)
	if err != nil {
		p.addErrorCurrent(fmt.Sprintf("could not parse %q as a 32-bit integer", p.curToken.Literal))
		return nil
	}
	return &ast.Literal{Token: p.curToken, Kind: ast.NumberLiteral, Number: int32(value)}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.Literal{Token: p.curToken, Kind: ast.BoolLiteral, Bool: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNoneLiteral() ast.Expression {
	return &ast.Literal{Token: p.curToken, Kind: ast.NoneLiteral}
}

// parseLiteral parses the initializer of a variable or field definition.
// A leading minus folds into the number.
func (p *Parser) parseLiteral() *ast.Literal {
	switch p.curToken.Type {
	case token.INT:
		lit, _ := p.parseIntegerLiteral().(*ast.Literal)
		return lit
	case token.TRUE, token.FALSE:
		return p.parseBoolean().(*ast.Literal)
	case token.NONE:
		return p.parseNoneLiteral().(*ast.Literal)
	case token.MINUS:
		minus := p.curToken
		if !p.expectPeek(token.INT) {
			return nil
		}
		value, err := strconv.ParseInt("-"+p.curToken.Literal, 10, 32)
		if err != nil {
			p.addErrorCurrent(fmt.Sprintf("could not parse %q as a 32-bit integer", "-"+p.curToken.Literal))
			return nil
		}
		minus.Literal = "-" + p.curToken.Literal
		return &ast.Literal{Token: minus, Kind: ast.NumberLiteral, Number: int32(value)}
	}
	p.addErrorCurrent(fmt.Sprintf("expected a literal initializer, got %s", describe(p.curToken)))
	return nil
}

// parsePrefixExpression parses not X and -X. -2147483648 has no positive
// counterpart, so it folds into a single literal.
func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{Token: p.curToken}
	precedence := PREFIX
	if p.curTokenIs(token.NOT) {
		expression.Operator = ast.Not
		precedence = NOT
	} else {
		expression.Operator = ast.Neg
		if lit := p.foldMinInt(); lit != nil {
			return lit
		}
	}

	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) foldMinInt() *ast.Literal {
	if !p.peekTokenIs(token.INT) {
		return nil
	}
	if _, err := strconv.ParseInt(p.peekToken.Literal, 10, 32); err == nil {
		return nil
	}
	value, err := strconv.ParseInt("-"+p.peekToken.Literal, 10, 32)
	if err != nil {
		return nil
	}
	minus := p.curToken
	p.nextToken()
	minus.Literal = "-" + p.curToken.Literal
	return &ast.Literal{Token: minus, Kind: ast.NumberLiteral, Number: int32(value)}
}

var binaryOperators = map[token.TokenType]ast.BinaryOperator{
	token.PLUS:        ast.Add,
	token.MINUS:       ast.Sub,
	token.ASTERISK:    ast.Mul,
	token.FLOOR_SLASH: ast.FloorDiv,
	token.PERCENT:     ast.Mod,
	token.EQ:          ast.Eq,
	token.NOT_EQ:      ast.NotEq,
	token.LT:          ast.Lt,
	token.GT:          ast.Gt,
	token.LT_EQ:       ast.LtEq,
	token.GT_EQ:       ast.GtEq,
	token.IS:          ast.Is,
}

// parseInfixExpression parses left op right; all binary operators are
// left associative
func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: binaryOperators[p.curToken.Type],
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseUnsupportedLogical(left ast.Expression) ast.Expression {
	p.addErrorCurrent(fmt.Sprintf("operator %s is not supported", p.curToken.Literal))
	return nil
}

// parseGroupedExpression parses (expr)
func (p *Parser) parseGroupedExpression() ast.Expression {
	tok := p.curToken
	p.nextToken()
	inner := p.parseExpression(LOWEST)
	if inner == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.GroupedExpression{Token: tok, Inner: inner}
}

// parseCallExpression parses name(args). Only plain names are callable;
// methods go through parseMemberExpression.
func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	ident, ok := function.(*ast.Identifier)
	if !ok {
		p.addErrorCurrent(fmt.Sprintf("cannot call %s", function.String()))
		return nil
	}
	args, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	return &ast.CallExpression{Token: ident.Token, Function: ident, Arguments: args}
}

// parseMemberExpression parses obj.field and obj.method(args)
func (p *Parser) parseMemberExpression(object ast.Expression) ast.Expression {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.peekTokenIs(token.LPAREN) {
		return &ast.MemberExpression{Token: name.Token, Object: object, Field: name}
	}
	p.nextToken()
	args, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	return &ast.MethodCallExpression{Token: name.Token, Object: object, Method: name, Arguments: args}
}

// parseCallArguments parses a comma-separated list with cur on '('
func (p *Parser) parseCallArguments() ([]ast.Expression, bool) {
	args := []ast.Expression{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args, true
	}

	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil, false
	}
	args = append(args, arg)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return args, true
}

package parser

import (
	"fmt"

	"pywat/internal/ast"
	"pywat/internal/token"
	"pywat/internal/typesys"
)

// parseTypeAnnotation expects the next token to name a type
func (p *Parser) parseTypeAnnotation() (typesys.Type, bool) {
	if !p.expectPeek(token.IDENT) {
		return typesys.Type{}, false
	}
	return typesys.FromName(p.curToken.Literal), true
}

// parseTypedVar parses name : type with cur on the name
func (p *Parser) parseTypedVar() *ast.TypedVar {
	tv := &ast.TypedVar{Token: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(token.COLON) {
		return nil
	}
	t, ok := p.parseTypeAnnotation()
	if !ok {
		return nil
	}
	tv.Type = t
	return tv
}

// parseVarDef parses name : type = literal
func (p *Parser) parseVarDef() *ast.VarDef {
	vd := &ast.VarDef{Token: p.curToken}
	vd.Var = p.parseTypedVar()
	if vd.Var == nil {
		return nil
	}
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	vd.Value = p.parseLiteral()
	if vd.Value == nil {
		return nil
	}
	if !p.expectPeek(token.NEWLINE) {
		return nil
	}
	return vd
}

// parseFunDef parses a def with cur on the keyword. The body's local
// variable definitions must precede its statements.
func (p *Parser) parseFunDef() *ast.FunDef {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fd := &ast.FunDef{Token: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
	} else {
		for {
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			param := p.parseTypedVar()
			if param == nil {
				return nil
			}
			fd.Params = append(fd.Params, param)
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
			break
		}
	}

	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		t, ok := p.parseTypeAnnotation()
		if !ok {
			return nil
		}
		fd.ReturnType = t
	}

	if !p.expectPeek(token.COLON) {
		return nil
	}
	fd.Body = &ast.BlockStatement{Token: p.curToken}
	if !p.openBlock() {
		return nil
	}

	for !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		switch {
		case p.curTokenIs(token.NEWLINE):
		case p.isVarDefStart():
			if len(fd.Body.Statements) > 0 {
				p.addErrorCurrent("variable definitions must come before statements")
			}
			if vd := p.parseVarDef(); vd != nil {
				fd.Locals = append(fd.Locals, vd)
			} else {
				p.synchronize()
			}
		default:
			if stmt := p.parseStatement(); stmt != nil {
				fd.Body.Statements = append(fd.Body.Statements, stmt)
			} else {
				p.synchronize()
			}
		}
		p.nextToken()
	}

	if len(fd.Locals) == 0 && len(fd.Body.Statements) == 0 {
		p.addErrorAt(fd.Token, fmt.Sprintf("function %s has an empty body", fd.Name))
		return nil
	}
	return fd
}

// parseClassDef parses class Name(object): followed by fields and methods
func (p *Parser) parseClassDef() *ast.ClassDef {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	cd := &ast.ClassDef{Token: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(token.LPAREN) || !p.expectPeek(token.IDENT) {
		return nil
	}
	if p.curToken.Literal != "object" {
		p.addErrorCurrent(fmt.Sprintf("class %s must derive from object, got %s", cd.Name, p.curToken.Literal))
		return nil
	}
	if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.COLON) {
		return nil
	}
	if !p.openBlock() {
		return nil
	}

	members := 0
	for !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		switch {
		case p.curTokenIs(token.NEWLINE):
		case p.curTokenIs(token.PASS):
			members++
			if !p.expectPeek(token.NEWLINE) {
				p.synchronize()
			}
		case p.isVarDefStart():
			members++
			if vd := p.parseVarDef(); vd != nil {
				cd.Fields = append(cd.Fields, vd)
			} else {
				p.synchronize()
			}
		case p.curTokenIs(token.DEF):
			members++
			if fd := p.parseFunDef(); fd != nil {
				cd.Methods = append(cd.Methods, fd)
			} else {
				p.synchronize()
			}
		default:
			p.addErrorCurrent(fmt.Sprintf("unexpected %s in body of class %s", describe(p.curToken), cd.Name))
			p.synchronize()
		}
		p.nextToken()
	}

	if members == 0 {
		p.addErrorAt(cd.Token, fmt.Sprintf("class %s has an empty body", cd.Name))
		return nil
	}
	return cd
}

package parser

import (
	"fmt"

	"pywat/internal/ast"
	"pywat/internal/diag"
	"pywat/internal/lexer"
	"pywat/internal/token"
)

// precedence levels (lowest to highest)
// not binds looser than comparisons, so `not a == b` is `not (a == b)`
const (
	_ int = iota
	LOWEST
	LOGICAL // and, or (rejected, but parsed so the error is clear)
	NOT     // not X
	COMPARE // == != < > <= >= is
	SUM     // + -
	PRODUCT // * // %
	PREFIX  // -X
	CALL    // f(X)
	MEMBER  // obj.field, obj.method(...)
)

// precedence table maps token types to their precedence level
var precedences = map[token.TokenType]int{
	token.AND:         LOGICAL,
	token.OR:          LOGICAL,
	token.EQ:          COMPARE,
	token.NOT_EQ:      COMPARE,
	token.LT:          COMPARE,
	token.GT:          COMPARE,
	token.LT_EQ:       COMPARE,
	token.GT_EQ:       COMPARE,
	token.IS:          COMPARE,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.ASTERISK:    PRODUCT,
	token.FLOOR_SLASH: PRODUCT,
	token.PERCENT:     PRODUCT,
	token.LPAREN:      CALL,
	token.DOT:         MEMBER,
}

// ParseError is a syntax error with its position.
type ParseError = diag.CodeError

type Parser struct {
	l *lexer.Lexer // The lexer feeding us tokens

	curToken  token.Token // Current token under examination
	peekToken token.Token // Next Token (for look-ahead)

	errors []ParseError // Accumulated parse errors

	// Pratt parser tables
	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// prefixParseFn parses expressions that start with a specific token
// Example: -5, not b, 42, x
type prefixParseFn func() ast.Expression

// infixParseFn parses expressions where the operator is between operands
// Example: 5 + 3, add(2, 3), r.n
// The ast.Expression is the left side already parsed
type infixParseFn func(ast.Expression) ast.Expression

// New creates a new parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []ParseError{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.infixParseFns = make(map[token.TokenType]infixParseFn)

	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NONE, p.parseNoneLiteral)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)

	for _, tt := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.FLOOR_SLASH, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.GT, token.LT_EQ, token.GT_EQ, token.IS,
	} {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(token.AND, p.parseUnsupportedLogical)
	p.registerInfix(token.OR, p.parseUnsupportedLogical)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)

	// Read two tokens to set curToken and peekToken
	p.nextToken()
	p.nextToken()

	return p
}

// registerPrefix adds a prefix parser for a token type
func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix adds an infix parser for a token type
func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// nextToken advances to the next token
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns accumulated parse errors, formatted with their position
func (p *Parser) Errors() []string {
	out := make([]string, 0, len(p.errors))
	for _, err := range p.errors {
		out = append(out, err.Error())
	}
	return out
}

// DetailedErrors returns a copy of the accumulated parse errors
func (p *Parser) DetailedErrors() []ParseError {
	out := make([]ParseError, len(p.errors))
	copy(out, p.errors)
	return out
}

func (p *Parser) addErrorAt(tok token.Token, msg string) {
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Context: tok.Literal,
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

func (p *Parser) addErrorCurrent(msg string) {
	p.addErrorAt(p.curToken, msg)
}

// peekError adds an error when we expected a different token
func (p *Parser) peekError(t token.TokenType) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", t, describe(p.peekToken))
	p.addErrorAt(p.peekToken, msg)
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.NEWLINE, token.INDENT, token.DEDENT, token.EOF:
		return string(tok.Type)
	case token.ILLEGAL:
		return fmt.Sprintf("illegal %q", tok.Literal)
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
}

// curTokenIs checks if current token matches
func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if next token matches
func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// expectPeek checks next token and advances if correct, else errors
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// peekPrecedence returns precedence of next token
func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

// curPrecedence returns precedence of current token
func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

// ParseProgram parses a whole source file. Definitions must all come
// before the first top-level statement.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	started := false

	for !p.curTokenIs(token.EOF) {
		switch {
		case p.curTokenIs(token.NEWLINE):
		case p.curTokenIs(token.DEF):
			if started {
				p.addErrorCurrent("function definitions must come before statements")
			}
			if fd := p.parseFunDef(); fd != nil {
				program.FunDefs = append(program.FunDefs, fd)
			} else {
				p.synchronize()
			}
		case p.curTokenIs(token.CLASS):
			if started {
				p.addErrorCurrent("class definitions must come before statements")
			}
			if cd := p.parseClassDef(); cd != nil {
				program.ClassDefs = append(program.ClassDefs, cd)
			} else {
				p.synchronize()
			}
		case p.isVarDefStart():
			if started {
				p.addErrorCurrent("variable definitions must come before statements")
			}
			if vd := p.parseVarDef(); vd != nil {
				program.VarDefs = append(program.VarDefs, vd)
			} else {
				p.synchronize()
			}
		default:
			started = true
			if stmt := p.parseStatement(); stmt != nil {
				program.Statements = append(program.Statements, stmt)
			} else {
				p.synchronize()
			}
		}
		p.nextToken()
	}

	return program
}

// synchronize skips to the end of the current logical line
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) && !p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

func (p *Parser) isVarDefStart() bool {
	return p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON)
}

package lexer

import "pywat/internal/token"

// Lexer holds the state while tokenizing input
// It reads character by character and tracks indentation so the parser
// sees INDENT/DEDENT tokens instead of raw leading whitespace.
type Lexer struct {
	input        string // The source code
	position     int    // Current position in input (points to current char)
	readPosition int    // Current reading position (after current char)
	ch           byte   // Current character under examination

	line   int // line of ch, 1-based
	column int // column of ch, 1-based

	indents     []int         // open indentation widths, always starts with 0
	pending     []token.Token // tokens queued by layout handling
	atLineStart bool
	parenDepth  int // newlines inside ( ) are not significant
	lastType    token.TokenType
	done        bool
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, indents: []int{0}, atLineStart: true}
	l.readChar() // Initialize with first character
	return l
}

// readChar advances to the next character and keeps line/column current
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
}

// peekChar looks at the next character without consuming it
// Used for two-character tokens like == and //
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token from input
func (l *Lexer) NextToken() token.Token {
	tok := l.nextToken()
	l.lastType = tok.Type
	return tok
}

func (l *Lexer) nextToken() token.Token {
	if len(l.pending) > 0 {
		return l.popPending()
	}
	if l.done {
		return token.Token{Type: token.EOF, Line: l.line, Column: l.column}
	}

	if l.atLineStart && l.parenDepth == 0 {
		l.atLineStart = false
		l.readIndentation()
		if len(l.pending) > 0 {
			return l.popPending()
		}
	}

	l.skipIgnored()

	line, col := l.line, l.column
	var tok token.Token

	switch l.ch {
	case '\n':
		l.readChar()
		if l.parenDepth > 0 {
			return l.nextToken()
		}
		l.atLineStart = true
		return token.Token{Type: token.NEWLINE, Literal: "\n", Line: line, Column: col}
	case 0:
		return l.finish()
	case '=':
		tok = l.oneOrTwo(token.ASSIGN, '=', token.EQ)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NOT_EQ, Literal: "!="}
		} else {
			tok = newToken(token.ILLEGAL, l.ch)
		}
	case '<':
		tok = l.oneOrTwo(token.LT, '=', token.LT_EQ)
	case '>':
		tok = l.oneOrTwo(token.GT, '=', token.GT_EQ)
	case '-':
		tok = l.oneOrTwo(token.MINUS, '>', token.ARROW)
	case '/':
		if l.peekChar() == '/' {
			l.readChar()
			tok = token.Token{Type: token.FLOOR_SLASH, Literal: "//"}
		} else {
			tok = newToken(token.ILLEGAL, l.ch)
		}
	case '+':
		tok = newToken(token.PLUS, l.ch)
	case '*':
		tok = newToken(token.ASTERISK, l.ch)
	case '%':
		tok = newToken(token.PERCENT, l.ch)
	case ',':
		tok = newToken(token.COMMA, l.ch)
	case ':':
		tok = newToken(token.COLON, l.ch)
	case '.':
		tok = newToken(token.DOT, l.ch)
	case '(':
		l.parenDepth++
		tok = newToken(token.LPAREN, l.ch)
	case ')':
		if l.parenDepth > 0 {
			l.parenDepth--
		}
		tok = newToken(token.RPAREN, l.ch)
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Line, tok.Column = line, col
			return tok
		} else if isDigit(l.ch) {
			tok.Type = token.INT
			tok.Literal = l.readNumber()
			tok.Line, tok.Column = line, col
			return tok
		}
		tok = newToken(token.ILLEGAL, l.ch)
	}

	l.readChar()
	tok.Line, tok.Column = line, col
	return tok
}

// oneOrTwo builds either the single-character token or, when the next
// character is second, the two-character one.
func (l *Lexer) oneOrTwo(single token.TokenType, second byte, double token.TokenType) token.Token {
	if l.peekChar() == second {
		first := l.ch
		l.readChar()
		return token.Token{Type: double, Literal: string(first) + string(l.ch)}
	}
	return newToken(single, l.ch)
}

// finish flushes the trailing NEWLINE and closing DEDENTs before EOF.
func (l *Lexer) finish() token.Token {
	l.done = true
	line, col := l.line, l.column
	switch l.lastType {
	case "", token.NEWLINE, token.INDENT, token.DEDENT:
	default:
		l.pending = append(l.pending, token.Token{Type: token.NEWLINE, Line: line, Column: col})
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, token.Token{Type: token.DEDENT, Line: line, Column: col})
	}
	l.pending = append(l.pending, token.Token{Type: token.EOF, Line: line, Column: col})
	return l.popPending()
}

func (l *Lexer) popPending() token.Token {
	tok := l.pending[0]
	l.pending = l.pending[1:]
	return tok
}

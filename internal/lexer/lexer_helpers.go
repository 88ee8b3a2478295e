package lexer

import "pywat/internal/token"

// readIndentation measures the leading whitespace of the next logical
// line and queues INDENT or DEDENT tokens. Blank and comment-only lines
// are consumed without affecting the indentation stack.
func (l *Lexer) readIndentation() {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			switch l.ch {
			case ' ':
				width++
			case '\t':
				width += 8 - width%8
			}
			l.readChar()
		}
		if l.ch == '#' {
			l.skipLineComment()
		}
		if l.ch == '\n' {
			l.readChar()
			continue
		}
		if l.ch == 0 {
			return
		}

		line, col := l.line, l.column
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			l.pending = append(l.pending, token.Token{Type: token.INDENT, Line: line, Column: col})
		case width < top:
			for width < l.indents[len(l.indents)-1] {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, token.Token{Type: token.DEDENT, Line: line, Column: col})
			}
			if width != l.indents[len(l.indents)-1] {
				l.pending = append(l.pending, token.Token{Type: token.ILLEGAL, Literal: "inconsistent dedent", Line: line, Column: col})
			}
		}
		return
	}
}

// skipIgnored skips spaces, tabs, carriage returns and comments, but never newlines
func (l *Lexer) skipIgnored() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || (l.ch == '\n' && l.parenDepth > 0) {
			l.readChar()
		}
		if l.ch == '#' {
			l.skipLineComment()
			continue
		}
		return
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readIdentifier reads an identifier.
// First char is guaranteed to be a letter/underscore by caller.
// Subsequent chars may include digits.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a sequence of digits
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// isLetter checks if ch is a letter or underscore
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit checks if ch is 0-9
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// newToken is a helper to create single-character tokens
func newToken(tokenType token.TokenType, ch byte) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch)}
}

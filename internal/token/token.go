package token

// TokenType is a string alias for token types
// Using string makes debugging easier (we can print "PLUS" instead of a number)
type TokenType string

// Token holds the type, the literal text and the 1-based source position
// For example: Token{Type: INT, Literal: "5", Line: 3, Column: 9}
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

const (
	// Special
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Layout. The lexer turns leading whitespace into these.
	NEWLINE TokenType = "NEWLINE"
	INDENT  TokenType = "INDENT"
	DEDENT  TokenType = "DEDENT"

	// Identifiers and literals
	IDENT TokenType = "IDENT" // x, Rat, __init__
	INT   TokenType = "INT"   // 1, 42

	// Operators
	ASSIGN      TokenType = "="
	PLUS        TokenType = "+"
	MINUS       TokenType = "-"
	ASTERISK    TokenType = "*"
	FLOOR_SLASH TokenType = "//"
	PERCENT     TokenType = "%"
	LT          TokenType = "<"
	GT          TokenType = ">"
	LT_EQ       TokenType = "<="
	GT_EQ       TokenType = ">="
	EQ          TokenType = "=="
	NOT_EQ      TokenType = "!="
	ARROW       TokenType = "->"

	// Delimiters
	COMMA  TokenType = ","
	COLON  TokenType = ":"
	DOT    TokenType = "."
	LPAREN TokenType = "("
	RPAREN TokenType = ")"

	// Keywords
	DEF    TokenType = "DEF"
	CLASS  TokenType = "CLASS"
	IF     TokenType = "IF"
	ELIF   TokenType = "ELIF"
	ELSE   TokenType = "ELSE"
	WHILE  TokenType = "WHILE"
	RETURN TokenType = "RETURN"
	PASS   TokenType = "PASS"
	NOT    TokenType = "NOT"
	IS     TokenType = "IS"
	AND    TokenType = "AND"
	OR     TokenType = "OR"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"
	NONE   TokenType = "NONE"
)

// keywords maps reserved words to their token type
var keywords = map[string]TokenType{
	"def":    DEF,
	"class":  CLASS,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"while":  WHILE,
	"return": RETURN,
	"pass":   PASS,
	"not":    NOT,
	"is":     IS,
	"and":    AND,
	"or":     OR,
	"True":   TRUE,
	"False":  FALSE,
	"None":   NONE,
}

// LookupIdent checks if an identifier is a keyword
// Returns the keyword token type, or IDENT if it's a user-defined name
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether ident is reserved.
func IsKeyword(ident string) bool {
	_, ok := keywords[ident]
	return ok
}

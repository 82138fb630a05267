package smali

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the smali instruction lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenNewline

	// Operands
	TokenRegister // v0, p1
	TokenInteger  // 42, -0x10, 0x7fL
	TokenString   // "hello\n"
	TokenLabel    // :cond_0
	TokenWord     // mnemonics, descriptors and member references

	// Delimiters
	TokenComma  // ,
	TokenLBrace // {
	TokenRBrace // }
	TokenRange  // ..
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "EOF",
	TokenError:    "ERROR",
	TokenNewline:  "NEWLINE",
	TokenRegister: "REGISTER",
	TokenInteger:  "INTEGER",
	TokenString:   "STRING",
	TokenLabel:    "LABEL",
	TokenWord:     "WORD",
	TokenComma:    ",",
	TokenLBrace:   "{",
	TokenRBrace:   "}",
	TokenRange:    "..",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Position is a location in assembly source.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string // raw text; the decoded value for strings, the name for labels
	Pos     Position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "NEWLINE"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// isWordChar reports whether r may appear inside a word token. Words cover
// mnemonics ("invoke-static/range"), type descriptors, and member references
// such as "Lcom/Foo;-><init>(I)V" or "Lcom/Foo;->bar:I".
func isWordChar(r rune) bool {
	switch r {
	case 0, ' ', '\t', '\r', '\n', ',', '{', '}', '#', '"', '.':
		return false
	}
	return true
}

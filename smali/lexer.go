package smali

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for smali instruction text
// ---------------------------------------------------------------------------

// Lexer tokenizes smali instruction blocks. Newlines are significant: each
// instruction occupies one line.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipSpaceAndComments()

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: pos}

	case l.ch == '\n':
		l.readChar()
		return Token{Type: TokenNewline, Literal: "\n", Pos: pos}

	case l.ch == ',':
		l.readChar()
		return Token{Type: TokenComma, Literal: ",", Pos: pos}

	case l.ch == '{':
		l.readChar()
		return Token{Type: TokenLBrace, Literal: "{", Pos: pos}

	case l.ch == '}':
		l.readChar()
		return Token{Type: TokenRBrace, Literal: "}", Pos: pos}

	case l.ch == '.':
		if l.peekChar() == '.' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenRange, Literal: "..", Pos: pos}
		}
		l.readChar()
		return Token{Type: TokenError, Literal: "directives are not supported", Pos: pos}

	case l.ch == '"':
		return l.readString(pos)

	case l.ch == ':':
		l.readChar()
		name := l.readWord()
		if name == "" {
			return Token{Type: TokenError, Literal: "empty label name", Pos: pos}
		}
		return Token{Type: TokenLabel, Literal: name, Pos: pos}

	default:
		word := l.readWord()
		if word == "" {
			ch := l.ch
			l.readChar()
			return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character %q", ch), Pos: pos}
		}
		return Token{Type: classifyWord(word), Literal: word, Pos: pos}
	}
}

// Tokenize returns every token up to and including EOF.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func (l *Lexer) skipSpaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readWord() string {
	start := l.pos
	for isWordChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readString reads a double-quoted string literal and decodes its escapes.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // opening quote
	var sb strings.Builder
	for {
		switch l.ch {
		case 0, '\n':
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
		case '"':
			l.readChar()
			return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
		case '\\':
			l.readChar()
			r, ok := l.readEscape()
			if !ok {
				return Token{Type: TokenError, Literal: "invalid escape sequence", Pos: pos}
			}
			if utf16.IsSurrogate(r) && l.ch == '\\' && l.peekChar() == 'u' {
				l.readChar()
				low, ok := l.readEscape()
				if !ok {
					return Token{Type: TokenError, Literal: "invalid escape sequence", Pos: pos}
				}
				r = utf16.DecodeRune(r, low)
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readEscape decodes the escape whose backslash was just consumed.
func (l *Lexer) readEscape() (rune, bool) {
	var r rune
	switch l.ch {
	case 'n':
		r = '\n'
	case 't':
		r = '\t'
	case 'r':
		r = '\r'
	case 'b':
		r = '\b'
	case 'f':
		r = '\f'
	case '"', '\'', '\\':
		r = l.ch
	case 'u':
		if l.readPos+4 > len(l.input) {
			return 0, false
		}
		v, err := strconv.ParseUint(l.input[l.readPos:l.readPos+4], 16, 16)
		if err != nil {
			return 0, false
		}
		for range 4 {
			l.readChar()
		}
		r = rune(v)
	default:
		return 0, false
	}
	l.readChar()
	return r, true
}

// classifyWord decides whether a word is a register, an integer or a
// generic word.
func classifyWord(word string) TokenType {
	if isRegister(word) {
		return TokenRegister
	}
	digits := strings.TrimPrefix(word, "-")
	if digits != "" && digits[0] >= '0' && digits[0] <= '9' {
		return TokenInteger
	}
	return TokenWord
}

func isRegister(word string) bool {
	if len(word) < 2 || (word[0] != 'v' && word[0] != 'p') {
		return false
	}
	for i := 1; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}

// ParseInteger parses a smali integer literal: decimal, 0x hex or leading-0
// octal, optionally negative, with an optional width suffix (t, s or L).
// Hex literals may use the full unsigned 64-bit range.
func ParseInteger(lit string) (int64, error) {
	s := lit
	if n := len(s); n > 1 {
		switch s[n-1] {
		case 't', 'T', 's', 'S', 'l', 'L':
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err == nil {
		return v, nil
	}
	if u, uerr := strconv.ParseUint(s, 0, 64); uerr == nil {
		return int64(u), nil
	}
	return 0, fmt.Errorf("invalid integer literal %q", lit)
}

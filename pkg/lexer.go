package vl

import (
	"fmt"
	"strings"
)

// Lexer converts VL source text into a token stream. It runs once, eagerly,
// over the whole input; the parser never re-invokes it.
type Lexer struct {
	source []rune
	raw    string
	pos    int
	line   int
	column int
	tokens []Token
}

// NewLexer creates a lexer over source.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: []rune(source),
		raw:    source,
		line:   1,
		column: 1,
	}
}

// Tokenize lexes the whole source. The returned stream always ends with
// exactly one EOF token. Fails only on an unrecognized character or an
// unterminated string; unknown identifiers are never a lexer error.
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}

func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.source) {
		l.skipWhitespace()

		ch, ok := l.current()
		if !ok {
			break
		}

		switch {
		case ch == '#':
			l.skipComment()

		case ch == '\n':
			l.emit(TokenNewline, "\\n")
			l.advance()

		case isDigit(ch):
			l.readNumber()

		case ch == '.':
			if next, _ := l.peekChar(1); next == '.' {
				l.emit(TokenDotDot, "..")
				l.advance()
				l.advance()
			} else if next, ok := l.peekChar(1); ok && isDigit(next) {
				l.readNumber()
			} else {
				l.emit(TokenDot, ".")
				l.advance()
			}

		case ch == '"' || ch == '\'':
			if err := l.readString(); err != nil {
				return nil, err
			}

		case isLetter(ch) || ch == '_':
			l.readWord()

		default:
			if err := l.readOperator(); err != nil {
				return nil, err
			}
		}
	}

	l.emit(TokenEOF, "")
	return l.tokens, nil
}

func (l *Lexer) current() (rune, bool) {
	if l.pos >= len(l.source) {
		return 0, false
	}
	return l.source[l.pos], true
}

func (l *Lexer) peekChar(offset int) (rune, bool) {
	pos := l.pos + offset
	if pos >= len(l.source) {
		return 0, false
	}
	return l.source[pos], true
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

// emit appends a token positioned at the lexer's current line/column.
func (l *Lexer) emit(t TokenType, literal string) {
	l.tokens = append(l.tokens, Token{Type: t, Literal: literal, Line: l.line, Column: l.column})
}

func (l *Lexer) skipWhitespace() {
	for {
		ch, ok := l.current()
		if !ok || (ch != ' ' && ch != '\t' && ch != '\r') {
			return
		}
		l.advance()
	}
}

func (l *Lexer) skipComment() {
	for {
		ch, ok := l.current()
		if !ok || ch == '\n' {
			return
		}
		l.advance()
	}
}

// readNumber consumes digits and at most one decimal point. A '.' is left
// unconsumed when the next two characters form the range operator, so 0..10
// lexes as NUMBER DOTDOT NUMBER rather than NUMBER(0.) and a trailing mess.
func (l *Lexer) readNumber() {
	startLine, startCol := l.line, l.column
	var sb strings.Builder
	hasDecimal := false

	for {
		ch, ok := l.current()
		if !ok || (!isDigit(ch) && ch != '.') {
			break
		}
		if ch == '.' {
			if next, _ := l.peekChar(1); next == '.' {
				break
			}
			if hasDecimal {
				break
			}
			hasDecimal = true
		}
		sb.WriteRune(ch)
		l.advance()
	}

	l.tokens = append(l.tokens, Token{Type: TokenNumber, Literal: sb.String(), Line: startLine, Column: startCol})
}

// readString consumes a quoted literal. While inside a ${...} interpolation
// the closing quote does not terminate the string and nested braces are
// counted; escapes apply only outside interpolation.
func (l *Lexer) readString() error {
	startLine, startCol := l.line, l.column

	quote := l.advance()
	var sb strings.Builder
	depth := 0

	for {
		ch, ok := l.current()
		if !ok {
			break
		}

		if ch == '$' {
			if next, _ := l.peekChar(1); next == '{' {
				sb.WriteRune(l.advance())
				sb.WriteRune(l.advance())
				depth++
				continue
			}
		}

		if depth > 0 {
			if ch == '{' {
				depth++
			} else if ch == '}' {
				depth--
			}
			sb.WriteRune(l.advance())
			continue
		}

		if ch == quote {
			break
		}

		if ch == '\\' {
			l.advance()
			esc, ok := l.current()
			if !ok {
				break
			}
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\':
				sb.WriteRune('\\')
			case quote:
				sb.WriteRune(quote)
			default:
				sb.WriteRune(esc)
			}
			l.advance()
			continue
		}

		sb.WriteRune(l.advance())
	}

	ch, ok := l.current()
	if !ok || ch != quote {
		return &LexerError{Diagnostic{
			Message:    "Unterminated string literal",
			Location:   &SourceLocation{Line: startLine, Column: startCol, Length: 1},
			SourceLine: sourceLine(l.raw, startLine),
			Hints: []string{
				"String must be closed with matching quote",
				fmt.Sprintf("String started with %c", quote),
			},
		}}
	}
	l.advance()

	l.tokens = append(l.tokens, Token{Type: TokenString, Literal: sb.String(), Line: startLine, Column: startCol})
	return nil
}

// readWord consumes an identifier-shaped lexeme and classifies it as a
// keyword, a type keyword, or an identifier.
func (l *Lexer) readWord() {
	startLine, startCol := l.line, l.column
	var sb strings.Builder

	for {
		ch, ok := l.current()
		if !ok || (!isLetter(ch) && !isDigit(ch) && ch != '_' && ch != '-') {
			break
		}
		sb.WriteRune(ch)
		l.advance()
	}

	word := sb.String()
	l.tokens = append(l.tokens, Token{Type: lookupWord(word), Literal: word, Line: startLine, Column: startCol})
}

// readOperator matches the longest operator at the cursor: two-character
// forms first, then single-character operators, then delimiters.
func (l *Lexer) readOperator() error {
	ch, _ := l.current()

	if next, ok := l.peekChar(1); ok {
		two := string(ch) + string(next)
		if t, found := twoCharOperatorTable[two]; found {
			l.emit(t, two)
			l.advance()
			l.advance()
			return nil
		}
	}

	if t, found := oneCharOperatorTable[ch]; found {
		l.emit(t, string(ch))
		l.advance()
		return nil
	}

	if t, found := delimiterTable[ch]; found {
		l.emit(t, string(ch))
		l.advance()
		return nil
	}

	return &LexerError{Diagnostic{
		Message:    fmt.Sprintf("Unexpected character %q", ch),
		Location:   &SourceLocation{Line: l.line, Column: l.column, Length: 1},
		SourceLine: sourceLine(l.raw, l.line),
		Hints:      []string{"Check for typos or unsupported characters"},
	}}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

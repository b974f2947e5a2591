package vl

import (
	"fmt"
	"strconv"
	"strings"
)

// SourceLocation is a 1-based position in the source text.
type SourceLocation struct {
	Line   int
	Column int
	Length int
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Diagnostic is the shape shared by every error this package produces. It
// carries enough context to render a caret-pointer block without re-scanning
// the source.
type Diagnostic struct {
	Message    string
	Location   *SourceLocation
	SourceLine string
	Hints      []string
}

// format renders the diagnostic as a multi-line block:
//
//	ParseError at line 3, column 5:
//	  Expected PIPE, got COLON
//
//	  3 | fn:add:int
//	          ^
//	  Hint: VL uses | to separate statements and clauses
func (d *Diagnostic) format(kind string) string {
	var sb strings.Builder

	if d.Location != nil {
		fmt.Fprintf(&sb, "%s at line %d, column %d:\n", kind, d.Location.Line, d.Location.Column)
	} else {
		fmt.Fprintf(&sb, "%s:\n", kind)
	}
	fmt.Fprintf(&sb, "  %s", d.Message)

	if d.SourceLine != "" && d.Location != nil {
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "  %d | %s\n", d.Location.Line, d.SourceLine)
		length := d.Location.Length
		if length < 1 {
			length = 1
		}
		// The caret sits under the offending column, past the "  N | "
		// prefix.
		offset := len(strconv.Itoa(d.Location.Line)) + 5 + d.Location.Column - 1
		sb.WriteString(strings.Repeat(" ", offset))
		sb.WriteString(strings.Repeat("^", length))
	}

	for i, hint := range d.Hints {
		if i == 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("\n  Hint: ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// LexerError reports an unrecognized character or an unterminated string.
// Always fatal: no partial token stream is usable.
type LexerError struct {
	Diagnostic
}

func (e *LexerError) Error() string {
	return e.Diagnostic.format("LexerError")
}

// ParseError reports a grammar violation. Always fatal: no partial AST is
// returned.
type ParseError struct {
	Diagnostic
}

func (e *ParseError) Error() string {
	return e.Diagnostic.format("ParseError")
}

// TypeError reports a semantic mismatch. Collectible; callers choose whether
// the first one is fatal.
type TypeError struct {
	Diagnostic
}

func (e *TypeError) Error() string {
	return e.Diagnostic.format("TypeError")
}

// sourceLine extracts a 1-based line from source for diagnostic context.
func sourceLine(source string, line int) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

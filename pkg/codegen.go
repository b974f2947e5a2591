package vl

import (
	"fmt"
	"strings"
)

// TargetLanguage names a code generation target.
type TargetLanguage string

const (
	TargetPython     TargetLanguage = "python"
	TargetJavaScript TargetLanguage = "javascript"
	TargetTypeScript TargetLanguage = "typescript"
	TargetC          TargetLanguage = "c"
	TargetRust       TargetLanguage = "rust"
)

// Generator turns a validated AST into target-language source. Generators
// are total over the AST by contract: an unsupported node becomes a
// placeholder comment, never a failure, so a front-end bug cannot be masked
// by a generator crash.
type Generator interface {
	Generate(program *Program) string
}

// generatorFor returns the generator registered for target, or nil when the
// target has none yet.
func generatorFor(target TargetLanguage, cfg Config) Generator {
	switch target {
	case TargetPython:
		return NewPythonGenerator(cfg)
	case TargetJavaScript:
		return NewJSGenerator(cfg)
	default:
		return nil
	}
}

// emitter accumulates indented lines of generated source.
type emitter struct {
	sb     strings.Builder
	indent string
	level  int
}

func newEmitter(indent string) *emitter {
	if indent == "" {
		indent = "    "
	}
	return &emitter{indent: indent}
}

func (e *emitter) line(code string) {
	if code != "" {
		e.sb.WriteString(strings.Repeat(e.indent, e.level))
		e.sb.WriteString(code)
	}
	e.sb.WriteString("\n")
}

func (e *emitter) linef(format string, args ...any) {
	e.line(fmt.Sprintf(format, args...))
}

func (e *emitter) push() { e.level++ }
func (e *emitter) pop()  { e.level-- }

func (e *emitter) String() string {
	return e.sb.String()
}

// flattenBoolChain collects the operands of a left-associated chain of the
// same logical operator, so a && b && c yields [a b c].
func flattenBoolChain(op *Operation, operator string) []Expression {
	if op.Operator != operator || len(op.Operands) != 2 {
		return []Expression{op}
	}
	var operands []Expression
	if left, ok := op.Operands[0].(*Operation); ok {
		operands = append(operands, flattenBoolChain(left, operator)...)
	} else {
		operands = append(operands, op.Operands[0])
	}
	operands = append(operands, op.Operands[1])
	return operands
}

// parseInterpolation parses the VL expression inside a ${...} template
// block. Returns nil when the block does not parse; callers fall back to
// emitting it verbatim.
func parseInterpolation(src string) Expression {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil
	}
	p := NewParser(tokens, src)
	expr, err := p.parseExpression()
	if err != nil {
		return nil
	}
	return expr
}

// splitTemplate cuts a template string into literal segments and ${...}
// interpolation bodies. Interpolations appear at odd indexes.
func splitTemplate(template string) []string {
	var parts []string
	var literal strings.Builder

	runes := []rune(template)
	for i := 0; i < len(runes); {
		if runes[i] == '$' && i+1 < len(runes) && runes[i+1] == '{' {
			depth := 1
			j := i + 2
			for j < len(runes) && depth > 0 {
				switch runes[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				j++
			}
			if depth == 0 {
				parts = append(parts, literal.String())
				literal.Reset()
				parts = append(parts, string(runes[i+2:j-1]))
				i = j
				continue
			}
		}
		literal.WriteRune(runes[i])
		i++
	}
	parts = append(parts, literal.String())
	return parts
}

package vl

import (
	"fmt"
	"strconv"
	"strings"
)

// JSGenerator emits JavaScript source from a VL program. CommonJS style:
// require() for dependencies, module.exports for the export trailer.
type JSGenerator struct {
	cfg Config
}

func NewJSGenerator(cfg Config) *JSGenerator {
	return &JSGenerator{cfg: cfg}
}

func (g *JSGenerator) Generate(program *Program) string {
	e := newEmitter(g.cfg.Indent)

	if program.Metadata != nil {
		e.linef("// VL Program: %s", program.Metadata.Name)
		e.linef("// Type: %s", program.Metadata.ProgramType)
		e.linef("// Target: %s", program.Metadata.TargetLanguage)
		e.line("")
	}

	if program.Dependencies != nil {
		for _, dep := range program.Dependencies.Names {
			e.linef("const %s = require('%s');", dep, dep)
		}
		e.line("")
	}

	for _, stmt := range program.Statements {
		g.statement(e, stmt)
	}

	if program.Export != nil {
		e.line("")
		e.linef("module.exports = { %s };", program.Export.Name)
	}

	return e.String()
}

func (g *JSGenerator) statement(e *emitter, stmt Statement) {
	switch s := stmt.(type) {
	case *FunctionDef:
		g.functionDef(e, s)
	case *VariableDef:
		e.linef("let %s = %s;", s.Name, g.expr(s.Value))
	case *CompoundAssignment:
		e.linef("%s %s= %s;", s.Name, s.Operator, g.expr(s.Value))
	case *ReturnStmt:
		e.linef("return %s;", g.expr(s.Value))
	case *DirectCall:
		e.linef("%s;", g.expr(s.Function))
	case *IfStmt:
		g.ifStmt(e, s)
	case *IfElseBlock:
		g.ifElseBlock(e, s)
	case *ForLoop:
		e.linef("for (const %s of %s) {", s.Variable, g.expr(s.Iterable))
		g.block(e, s.Body)
		e.line("}")
	case *WhileLoop:
		e.linef("while (%s) {", g.expr(s.Condition))
		g.block(e, s.Body)
		e.line("}")
	case *APICall:
		e.linef("// API Call: %s", s.Method)
		e.linef("%s;", g.apiCall(s))
	case *DataPipeline:
		e.linef("let data = %s;", g.pipeline(s))
	case *FileOperation:
		g.fileOperation(e, s)
	case *UIComponent:
		g.uiComponent(e, s)
	case *ClassDef:
		g.classDef(e, s)
	default:
		e.linef("// TODO: Unsupported statement type: %T", stmt)
	}
}

func (g *JSGenerator) block(e *emitter, body []Statement) {
	e.push()
	for _, stmt := range body {
		g.statement(e, stmt)
	}
	e.pop()
}

func (g *JSGenerator) functionDef(e *emitter, fn *FunctionDef) {
	params := make([]string, len(fn.InputTypes))
	for idx := range fn.InputTypes {
		params[idx] = fmt.Sprintf("i%d", idx)
	}
	e.linef("function %s(%s) {", fn.Name, strings.Join(params, ", "))
	g.block(e, fn.Body)
	e.line("}")
	e.line("")
}

func (g *JSGenerator) classDef(e *emitter, class *ClassDef) {
	extends := ""
	if len(class.BaseClasses) > 0 {
		extends = " extends " + class.BaseClasses[0]
	}
	e.linef("class %s%s {", class.Name, extends)
	e.push()
	for _, method := range class.Methods {
		params := make([]string, len(method.InputTypes))
		for idx := range method.InputTypes {
			params[idx] = fmt.Sprintf("i%d", idx)
		}
		e.linef("%s(%s) {", method.Name, strings.Join(params, ", "))
		g.block(e, method.Body)
		e.line("}")
	}
	e.pop()
	e.line("}")
}

func (g *JSGenerator) ifStmt(e *emitter, s *IfStmt) {
	e.linef("if (%s) {", g.expr(s.Condition))
	e.push()
	g.branch(e, s.TrueBranch)
	e.pop()
	e.line("} else {")
	e.push()
	g.branch(e, s.FalseBranch)
	e.pop()
	e.line("}")
}

func (g *JSGenerator) branch(e *emitter, branch Node) {
	if ret, ok := branch.(*ReturnStmt); ok {
		e.linef("return %s;", g.expr(ret.Value))
		return
	}
	if expr, ok := branch.(Expression); ok {
		e.linef("%s;", g.expr(expr))
	}
}

func (g *JSGenerator) ifElseBlock(e *emitter, s *IfElseBlock) {
	e.linef("if (%s) {", g.expr(s.Condition))
	g.block(e, s.IfBody)
	if len(s.ElseBody) > 0 {
		e.line("} else {")
		g.block(e, s.ElseBody)
	}
	e.line("}")
}

func (g *JSGenerator) apiCall(s *APICall) string {
	call := fmt.Sprintf("fetch(%s, { method: '%s' })", g.expr(s.Endpoint), strings.ToUpper(s.Method))
	return g.applyOperations(call, s.Operations)
}

func (g *JSGenerator) pipeline(s *DataPipeline) string {
	return g.applyOperations(g.expr(s.Source), s.Operations)
}

func (g *JSGenerator) applyOperations(source string, operations []DataOperation) string {
	result := source
	for _, op := range operations {
		switch o := op.(type) {
		case *FilterOp:
			result = fmt.Sprintf("%s.filter(x => %s)", result, g.expr(o.Condition))
		case *MapOp:
			if o.Expression != nil {
				result = fmt.Sprintf("%s.map(x => %s)", result, g.expr(o.Expression))
			}
		case *ParseOp:
			if o.Format == "json" {
				result = fmt.Sprintf("JSON.parse(%s)", result)
			}
		case *SortOp:
			result = fmt.Sprintf("%s.sort((a, b) => a['%s'] - b['%s'])", result, o.Field, o.Field)
		case *AggregateOp:
			result = fmt.Sprintf("%s.reduce((a, b) => a + b, 0) /* %s */", result, o.Function)
		case *GroupByOp:
			result = fmt.Sprintf("Object.groupBy(%s, x => x['%s'])", result, o.Field)
		}
	}
	return result
}

func (g *JSGenerator) fileOperation(e *emitter, s *FileOperation) {
	path := g.expr(s.Path)
	switch s.Operation {
	case "read":
		e.linef("const content = fs.readFileSync(%s, 'utf8');", path)
	case "write":
		if len(s.Arguments) > 0 {
			e.linef("fs.writeFileSync(%s, %s);", path, g.expr(s.Arguments[0]))
		}
	default:
		e.linef("// TODO: Unsupported file operation: %s", s.Operation)
	}
}

func (g *JSGenerator) uiComponent(e *emitter, s *UIComponent) {
	e.linef("// UI Component: %s", s.Name)
	e.linef("function %s(props) {", s.Name)
	e.push()
	for _, state := range s.StateVars {
		value := "null"
		if state.Value != nil {
			value = g.expr(state.Value)
		}
		e.linef("const [%s, set%s] = React.useState(%s);", state.Name, titleCase(state.Name), value)
	}
	e.line("return null; // JSX would go here")
	e.pop()
	e.line("}")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (g *JSGenerator) expr(expr Expression) string {
	switch e := expr.(type) {
	case *NumberLiteral:
		if e.IsFloat {
			return strconv.FormatFloat(e.Value, 'g', -1, 64)
		}
		return strconv.FormatInt(int64(e.Value), 10)
	case *StringLiteral:
		if e.IsTemplate {
			return "`" + g.templateString(e.Value) + "`"
		}
		return "'" + e.Value + "'"
	case *BooleanLiteral:
		if e.Value {
			return "true"
		}
		return "false"
	case *ArrayLiteral:
		elements := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			elements[i] = g.expr(el)
		}
		return "[" + strings.Join(elements, ", ") + "]"
	case *ObjectLiteral:
		fields := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = fmt.Sprintf("%s: %s", f.Key, g.expr(f.Value))
		}
		return "{ " + strings.Join(fields, ", ") + " }"
	case *Identifier:
		return e.Name
	case *VariableRef:
		return e.Name
	case *MemberAccess:
		return g.expr(e.Object) + "." + e.Property
	case *IndexAccess:
		return g.expr(e.Object) + "[" + g.expr(e.Index) + "]"
	case *Operation:
		return g.operation(e)
	case *FunctionCall:
		args := make([]string, len(e.Arguments))
		for i, arg := range e.Arguments {
			args[i] = g.expr(arg)
		}
		return g.expr(e.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *RangeExpr:
		return fmt.Sprintf("Array.from({length: %s - %s}, (_, k) => k + %s)",
			g.expr(e.End), g.expr(e.Start), g.expr(e.Start))
	case *FunctionExpr:
		return g.functionExpr(e)
	case *InOp:
		return fmt.Sprintf("%s.includes(%s)", g.expr(e.Container), g.expr(e.Element))
	case *OpaqueExpr:
		return "/* opaque */ " + e.Code
	case *IfStmt:
		return g.ternary(e)
	case *DataPipeline:
		return g.pipeline(e)
	case *APICall:
		return g.apiCall(e)
	default:
		return fmt.Sprintf("/* Unknown Expr: %T */", expr)
	}
}

var jsOperators = map[string]string{
	"and": "&&", "or": "||", "not": "!",
	"==": "===", "!=": "!==",
}

func (g *JSGenerator) operation(op *Operation) string {
	mapped, ok := jsOperators[op.Operator]
	if !ok {
		mapped = op.Operator
	}

	switch len(op.Operands) {
	case 1:
		return fmt.Sprintf("%s(%s)", mapped, g.expr(op.Operands[0]))
	default:
		operands := make([]string, len(op.Operands))
		for i, operand := range op.Operands {
			operands[i] = g.expr(operand)
		}
		return "(" + strings.Join(operands, " "+mapped+" ") + ")"
	}
}

func (g *JSGenerator) functionExpr(fn *FunctionExpr) string {
	params := make([]string, len(fn.InputTypes))
	for idx := range fn.InputTypes {
		params[idx] = fmt.Sprintf("i%d", idx)
	}
	for _, stmt := range fn.Body {
		if ret, ok := stmt.(*ReturnStmt); ok {
			return fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), g.expr(ret.Value))
		}
	}
	return fmt.Sprintf("(%s) => null", strings.Join(params, ", "))
}

func (g *JSGenerator) ternary(s *IfStmt) string {
	trueExpr, tok := s.TrueBranch.(Expression)
	falseExpr, fok := s.FalseBranch.(Expression)
	if !tok || !fok {
		return "null /* if with return branches is not an expression */"
	}
	return fmt.Sprintf("(%s ? %s : %s)", g.expr(s.Condition), g.expr(trueExpr), g.expr(falseExpr))
}

// templateString converts ${...} blocks into JS template interpolations.
func (g *JSGenerator) templateString(template string) string {
	parts := splitTemplate(template)

	var sb strings.Builder
	for i, part := range parts {
		if i%2 == 0 {
			sb.WriteString(part)
			continue
		}
		if expr := parseInterpolation(part); expr != nil {
			sb.WriteString("${" + g.expr(expr) + "}")
		} else {
			sb.WriteString("${" + part + "}")
		}
	}
	return sb.String()
}

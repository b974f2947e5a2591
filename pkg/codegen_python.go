package vl

import (
	"fmt"
	"strconv"
	"strings"
)

// PythonGenerator emits Python source from a VL program.
type PythonGenerator struct {
	cfg Config
}

func NewPythonGenerator(cfg Config) *PythonGenerator {
	return &PythonGenerator{cfg: cfg}
}

func (g *PythonGenerator) Generate(program *Program) string {
	e := newEmitter(g.cfg.Indent)

	if program.Metadata != nil {
		e.linef("# VL Program: %s", program.Metadata.Name)
		e.linef("# Type: %s", program.Metadata.ProgramType)
		e.linef("# Target: %s", program.Metadata.TargetLanguage)
		e.line("")
	}

	if program.Dependencies != nil {
		for _, dep := range program.Dependencies.Names {
			e.linef("import %s", dep)
		}
		e.line("")
	}

	for _, stmt := range program.Statements {
		g.statement(e, stmt)
		e.line("")
	}

	if program.Export != nil {
		e.linef("# Exported: %s", program.Export.Name)
	}

	return e.String()
}

func (g *PythonGenerator) statement(e *emitter, stmt Statement) {
	switch s := stmt.(type) {
	case *FunctionDef:
		g.functionDef(e, s)
	case *VariableDef:
		hint := ""
		if s.TypeAnnotation != nil {
			hint = ": " + s.TypeAnnotation.Name
		}
		e.linef("%s%s = %s", s.Name, hint, g.expr(s.Value))
	case *CompoundAssignment:
		e.linef("%s %s= %s", s.Name, s.Operator, g.expr(s.Value))
	case *ReturnStmt:
		e.linef("return %s", g.expr(s.Value))
	case *DirectCall:
		e.line(g.expr(s.Function))
	case *IfStmt:
		g.ifStmt(e, s)
	case *IfElseBlock:
		g.ifElseBlock(e, s)
	case *ForLoop:
		e.linef("for %s in %s:", s.Variable, g.expr(s.Iterable))
		g.block(e, s.Body)
	case *WhileLoop:
		e.linef("while %s:", g.expr(s.Condition))
		g.block(e, s.Body)
	case *APICall:
		e.linef("# API Call: %s", s.Method)
		e.line(g.apiCall(s))
	case *DataPipeline:
		e.linef("data = %s", g.pipeline(s))
	case *FileOperation:
		g.fileOperation(e, s)
	case *UIComponent:
		g.uiComponent(e, s)
	case *ClassDef:
		g.classDef(e, s)
	case *PythonStmt:
		for _, line := range strings.Split(s.Code, "@@@") {
			e.line(line)
		}
	default:
		e.linef("# TODO: Unsupported statement type: %T", stmt)
	}
}

func (g *PythonGenerator) block(e *emitter, body []Statement) {
	e.push()
	if len(body) == 0 {
		e.line("pass")
	}
	for _, stmt := range body {
		g.statement(e, stmt)
	}
	e.pop()
}

func (g *PythonGenerator) functionDef(e *emitter, fn *FunctionDef) {
	for _, dec := range fn.Decorators {
		g.decorator(e, dec)
	}

	params := make([]string, len(fn.InputTypes))
	for idx, t := range fn.InputTypes {
		params[idx] = fmt.Sprintf("i%d: %s", idx, t.Name)
	}
	e.linef("def %s(%s) -> %s:", fn.Name, strings.Join(params, ", "), fn.OutputType.Name)
	g.block(e, fn.Body)
}

func (g *PythonGenerator) decorator(e *emitter, dec *Decorator) {
	if dec.Args == nil {
		e.linef("@%s", dec.Name)
		return
	}
	args := make([]string, len(dec.Args))
	for i, arg := range dec.Args {
		args[i] = g.expr(arg)
	}
	e.linef("@%s(%s)", dec.Name, strings.Join(args, ", "))
}

func (g *PythonGenerator) classDef(e *emitter, class *ClassDef) {
	for _, dec := range class.Decorators {
		g.decorator(e, dec)
	}

	bases := ""
	if len(class.BaseClasses) > 0 {
		bases = "(" + strings.Join(class.BaseClasses, ", ") + ")"
	}
	e.linef("class %s%s:", class.Name, bases)

	e.push()
	if len(class.Attributes) == 0 && len(class.Methods) == 0 {
		e.line("pass")
	}
	for _, attr := range class.Attributes {
		g.statement(e, attr)
	}
	for _, method := range class.Methods {
		g.functionDef(e, method)
	}
	e.pop()
}

func (g *PythonGenerator) ifStmt(e *emitter, s *IfStmt) {
	e.linef("if %s:", g.expr(s.Condition))
	e.push()
	g.branch(e, s.TrueBranch)
	e.pop()
	e.line("else:")
	e.push()
	g.branch(e, s.FalseBranch)
	e.pop()
}

func (g *PythonGenerator) branch(e *emitter, branch Node) {
	if ret, ok := branch.(*ReturnStmt); ok {
		e.linef("return %s", g.expr(ret.Value))
		return
	}
	if expr, ok := branch.(Expression); ok {
		e.line(g.expr(expr))
		return
	}
	e.line("pass")
}

func (g *PythonGenerator) ifElseBlock(e *emitter, s *IfElseBlock) {
	e.linef("if %s:", g.expr(s.Condition))
	g.block(e, s.IfBody)
	if len(s.ElseBody) > 0 {
		e.line("else:")
		g.block(e, s.ElseBody)
	}
}

func (g *PythonGenerator) apiCall(s *APICall) string {
	call := fmt.Sprintf("requests.%s(%s)", strings.ToLower(s.Method), g.expr(s.Endpoint))
	if len(s.Operations) == 0 {
		return call
	}
	return g.applyOperations(call, s.Operations)
}

func (g *PythonGenerator) pipeline(s *DataPipeline) string {
	return g.applyOperations(g.expr(s.Source), s.Operations)
}

// applyOperations chains pipeline stages as nested comprehensions over the
// accumulated source expression.
func (g *PythonGenerator) applyOperations(source string, operations []DataOperation) string {
	result := source
	for _, op := range operations {
		switch o := op.(type) {
		case *FilterOp:
			result = fmt.Sprintf("[x for x in %s if (%s)]", result, g.expr(o.Condition))
		case *MapOp:
			if o.Expression != nil {
				result = fmt.Sprintf("[(%s) for x in %s]", g.expr(o.Expression), result)
			} else if len(o.Fields) > 0 {
				fields := make([]string, len(o.Fields))
				for i, f := range o.Fields {
					fields[i] = fmt.Sprintf("'%s': x['%s']", f, f)
				}
				result = fmt.Sprintf("[{%s} for x in %s]", strings.Join(fields, ", "), result)
			}
		case *ParseOp:
			switch o.Format {
			case "json":
				result = fmt.Sprintf("json.loads(%s)", result)
			default:
				result = fmt.Sprintf("%s  # parse: %s", result, o.Format)
			}
		case *GroupByOp:
			result = fmt.Sprintf("itertools.groupby(%s, key=lambda x: x['%s'])", result, o.Field)
		case *AggregateOp:
			result = fmt.Sprintf("%s(%s)", o.Function, result)
		case *SortOp:
			result = fmt.Sprintf("sorted(%s, key=lambda x: x['%s'])", result, o.Field)
		}
	}
	return result
}

func (g *PythonGenerator) fileOperation(e *emitter, s *FileOperation) {
	path := g.expr(s.Path)
	switch s.Operation {
	case "read":
		e.linef("with open(%s, 'r') as f:", path)
		e.push()
		e.line("content = f.read()")
		e.pop()
	case "write":
		if len(s.Arguments) > 0 {
			e.linef("with open(%s, 'w') as f:", path)
			e.push()
			e.linef("f.write(%s)", g.expr(s.Arguments[0]))
			e.pop()
		}
	default:
		e.linef("# TODO: Unsupported file operation: %s", s.Operation)
	}
}

func (g *PythonGenerator) uiComponent(e *emitter, s *UIComponent) {
	e.linef("# UI Component: %s", s.Name)
	e.linef("def %s(props):", s.Name)
	e.push()
	for _, state := range s.StateVars {
		value := "None"
		if state.Value != nil {
			value = g.expr(state.Value)
		}
		e.linef("# State: %s = %s", state.Name, value)
	}
	e.line("return None  # React JSX would go here")
	e.pop()
}

func (g *PythonGenerator) expr(expr Expression) string {
	switch e := expr.(type) {
	case *NumberLiteral:
		if e.IsFloat {
			return strconv.FormatFloat(e.Value, 'g', -1, 64)
		}
		return strconv.FormatInt(int64(e.Value), 10)
	case *StringLiteral:
		if e.IsTemplate {
			return g.templateString(e.Value)
		}
		return "'" + e.Value + "'"
	case *BooleanLiteral:
		if e.Value {
			return "True"
		}
		return "False"
	case *ArrayLiteral:
		elements := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			elements[i] = g.expr(el)
		}
		return "[" + strings.Join(elements, ", ") + "]"
	case *ObjectLiteral:
		fields := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = fmt.Sprintf("'%s': %s", f.Key, g.expr(f.Value))
		}
		return "{" + strings.Join(fields, ", ") + "}"
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
		return fmt.Sprintf("range(%s, %s)", g.expr(e.Start), g.expr(e.End))
	case *FunctionExpr:
		return g.functionExpr(e)
	case *InOp:
		return fmt.Sprintf("(%s in %s)", g.expr(e.Element), g.expr(e.Container))
	case *OpaqueExpr:
		return e.Code
	case *IfStmt:
		return g.ternary(e)
	case *DataPipeline:
		return g.pipeline(e)
	case *APICall:
		return g.apiCall(e)
	default:
		return fmt.Sprintf("None  # TODO: %T", expr)
	}
}

var pythonOperators = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"**": "**", "==": "==", "!=": "!=",
	"<": "<", ">": ">", "<=": "<=", ">=": ">=",
	"&&": "and", "||": "or", "!": "not",
}

func (g *PythonGenerator) operation(op *Operation) string {
	// Long chains of one logical operator become all()/any() when the
	// optimization is on.
	if g.cfg.OptimizeBooleanChains && (op.Operator == "&&" || op.Operator == "||") {
		chain := flattenBoolChain(op, op.Operator)
		if len(chain) >= g.cfg.BooleanChainMinLength {
			parts := make([]string, len(chain))
			for i, operand := range chain {
				parts[i] = g.expr(operand)
			}
			builtin := "all"
			if op.Operator == "||" {
				builtin = "any"
			}
			return fmt.Sprintf("%s([%s])", builtin, strings.Join(parts, ", "))
		}
	}

	mapped, ok := pythonOperators[op.Operator]
	if !ok {
		mapped = op.Operator
	}

	switch len(op.Operands) {
	case 1:
		return fmt.Sprintf("%s %s", mapped, g.expr(op.Operands[0]))
	case 2:
		return fmt.Sprintf("(%s %s %s)", g.expr(op.Operands[0]), mapped, g.expr(op.Operands[1]))
	default:
		operands := make([]string, len(op.Operands))
		for i, operand := range op.Operands {
			operands[i] = g.expr(operand)
		}
		return fmt.Sprintf("%s(%s)", mapped, strings.Join(operands, ", "))
	}
}

func (g *PythonGenerator) functionExpr(fn *FunctionExpr) string {
	params := make([]string, len(fn.InputTypes))
	for idx := range fn.InputTypes {
		params[idx] = fmt.Sprintf("i%d", idx)
	}
	paramList := strings.Join(params, ", ")

	// Single-return bodies become lambdas; anything more keeps the last
	// return expression.
	var last string
	for _, stmt := range fn.Body {
		if ret, ok := stmt.(*ReturnStmt); ok {
			last = g.expr(ret.Value)
		}
	}
	if last != "" {
		return fmt.Sprintf("lambda %s: %s", paramList, last)
	}
	return fmt.Sprintf("lambda %s: None  # Complex function body", paramList)
}

func (g *PythonGenerator) ternary(s *IfStmt) string {
	trueExpr, tok := s.TrueBranch.(Expression)
	falseExpr, fok := s.FalseBranch.(Expression)
	if !tok || !fok {
		return "None  # if with return branches is not an expression"
	}
	return fmt.Sprintf("(%s if %s else %s)", g.expr(trueExpr), g.expr(s.Condition), g.expr(falseExpr))
}

// templateString converts a VL template literal into a Python f-string,
// re-parsing each ${...} block as a VL expression. Blocks that do not parse
// are kept verbatim.
func (g *PythonGenerator) templateString(template string) string {
	parts := splitTemplate(template)

	var sb strings.Builder
	sb.WriteString(`f"`)
	for i, part := range parts {
		if i%2 == 0 {
			sb.WriteString(part)
			continue
		}
		if expr := parseInterpolation(part); expr != nil {
			sb.WriteString("{" + g.expr(expr) + "}")
		} else {
			sb.WriteString("{" + part + "}")
		}
	}
	sb.WriteString(`"`)
	return sb.String()
}

package vl

import "fmt"

// TypeInfo describes a resolved VL type.
type TypeInfo struct {
	Name         string
	IsNumeric    bool
	IsCollection bool
}

var builtinTypes = map[string]TypeInfo{
	"int":     {Name: "int", IsNumeric: true},
	"float":   {Name: "float", IsNumeric: true},
	"str":     {Name: "str"},
	"bool":    {Name: "bool"},
	"arr":     {Name: "arr", IsCollection: true},
	"obj":     {Name: "obj"},
	"any":     {Name: "any"},
	"void":    {Name: "void"},
	"promise": {Name: "promise"},
	"func":    {Name: "func"},
	"map":     {Name: "map", IsCollection: true},
	"set":     {Name: "set", IsCollection: true},
}

// widening lists the allowed source types per target beyond exact equality.
// The only real widening is int into float.
var widening = map[string]map[string]bool{
	"float": {"int": true},
}

type signature struct {
	inputs []TypeInfo
	output TypeInfo
}

// Checker validates type annotations across a program. It never fails hard:
// Check always returns the complete error list, and running it twice on the
// same tree yields the same result. The strict-vs-collect policy lives in
// the compiler driver.
type Checker struct {
	source string

	errors    []*TypeError
	symbols   map[string]TypeInfo
	functions map[string]signature

	currentFunction   string
	currentReturnType *TypeInfo
}

// NewChecker creates a checker. source is kept only for diagnostic context
// lines.
func NewChecker(source string) *Checker {
	return &Checker{source: source}
}

// Check runs two passes over program: first collecting top-level function
// signatures (so forward references resolve), then walking every statement.
func Check(program *Program) []*TypeError {
	return NewChecker("").Check(program)
}

func (c *Checker) Check(program *Program) []*TypeError {
	c.errors = nil
	c.symbols = make(map[string]TypeInfo)
	c.functions = make(map[string]signature)

	for _, stmt := range program.Statements {
		if fn, ok := stmt.(*FunctionDef); ok {
			c.registerFunction(fn)
		}
	}

	for _, stmt := range program.Statements {
		c.checkStatement(stmt)
	}

	return c.errors
}

func (c *Checker) registerFunction(fn *FunctionDef) {
	sig := signature{output: resolveType(fn.OutputType)}
	for _, t := range fn.InputTypes {
		sig.inputs = append(sig.inputs, resolveType(t))
	}
	c.functions[fn.Name] = sig
}

func resolveType(t *Type) TypeInfo {
	if info, ok := builtinTypes[t.Name]; ok {
		return info
	}
	// Unknown type names behave like any.
	return TypeInfo{Name: t.Name}
}

func (c *Checker) checkStatement(stmt Statement) {
	switch s := stmt.(type) {
	case *FunctionDef:
		c.checkFunction(s)
	case *VariableDef:
		c.checkVariableDef(s)
	case *ReturnStmt:
		c.checkReturn(s)
	case *CompoundAssignment:
		c.checkCompoundAssignment(s)
	}
	// Other statement kinds carry no checkable annotations.
}

// checkFunction pushes a fresh scope with i0..i(N-1) bound to the declared
// input types, checks the body against the declared output type, then
// restores the outer scope.
func (c *Checker) checkFunction(fn *FunctionDef) {
	savedSymbols := c.symbols
	savedFunction := c.currentFunction
	savedReturn := c.currentReturnType

	c.symbols = make(map[string]TypeInfo, len(savedSymbols)+len(fn.InputTypes))
	for name, info := range savedSymbols {
		c.symbols[name] = info
	}

	c.currentFunction = fn.Name
	returnType := resolveType(fn.OutputType)
	c.currentReturnType = &returnType

	for idx, inputType := range fn.InputTypes {
		c.symbols[fmt.Sprintf("i%d", idx)] = resolveType(inputType)
	}

	for _, stmt := range fn.Body {
		c.checkStatement(stmt)
	}

	c.symbols = savedSymbols
	c.currentFunction = savedFunction
	c.currentReturnType = savedReturn
}

func (c *Checker) checkVariableDef(v *VariableDef) {
	valueType := c.infer(v.Value)

	if v.TypeAnnotation == nil {
		c.symbols[v.Name] = valueType
		return
	}

	declared := resolveType(v.TypeAnnotation)
	if !compatible(declared, valueType) {
		c.addError(v.Span,
			fmt.Sprintf("Type mismatch: variable '%s' declared as '%s' but assigned value of type '%s'",
				v.Name, declared.Name, valueType.Name),
			fmt.Sprintf("Change the type annotation to '%s'", valueType.Name),
			fmt.Sprintf("Or convert the value to type '%s'", declared.Name),
		)
	}

	// The declared type wins for subsequent lookups, even on mismatch.
	c.symbols[v.Name] = declared
}

func (c *Checker) checkReturn(ret *ReturnStmt) {
	if c.currentReturnType == nil {
		// Module-level return, nothing to check against.
		return
	}

	valueType := c.infer(ret.Value)
	if !compatible(*c.currentReturnType, valueType) {
		c.addError(ret.Span,
			fmt.Sprintf("Return type mismatch: function '%s' should return '%s' but returning '%s'",
				c.currentFunction, c.currentReturnType.Name, valueType.Name),
			fmt.Sprintf("Change the function's return type to '%s'", valueType.Name),
			fmt.Sprintf("Or convert the return value to '%s'", c.currentReturnType.Name),
		)
	}
}

func (c *Checker) checkCompoundAssignment(stmt *CompoundAssignment) {
	varType, known := c.symbols[stmt.Name]
	if !known {
		return
	}

	switch stmt.Operator {
	case "+", "-", "*", "/":
		if !varType.IsNumeric {
			// += on str is concatenation.
			if stmt.Operator == "+" && varType.Name == "str" {
				return
			}
			c.addError(stmt.Span,
				fmt.Sprintf("Cannot use '%s=' operator on non-numeric type '%s'", stmt.Operator, varType.Name),
				fmt.Sprintf("Variable '%s' must be int or float for arithmetic operations", stmt.Name),
			)
		}
	}
}

// infer derives an expression's type from its shape and the current scope.
// Pure: it never mutates the scope or reports errors itself.
func (c *Checker) infer(expr Expression) TypeInfo {
	switch e := expr.(type) {
	case *NumberLiteral:
		if e.IsFloat {
			return builtinTypes["float"]
		}
		return builtinTypes["int"]
	case *StringLiteral:
		return builtinTypes["str"]
	case *BooleanLiteral:
		return builtinTypes["bool"]
	case *Identifier:
		if info, ok := c.symbols[e.Name]; ok {
			return info
		}
		return builtinTypes["any"]
	case *Operation:
		return c.inferOperation(e)
	case *FunctionCall:
		return c.inferCall(e)
	case *ArrayLiteral:
		return builtinTypes["arr"]
	case *ObjectLiteral:
		return builtinTypes["obj"]
	case *MemberAccess:
		// Member types are not statically known.
		return builtinTypes["any"]
	case *DataPipeline:
		return builtinTypes["arr"]
	case *RangeExpr:
		return builtinTypes["arr"]
	case *FunctionExpr:
		return builtinTypes["func"]
	default:
		return builtinTypes["any"]
	}
}

func (c *Checker) inferOperation(op *Operation) TypeInfo {
	if len(op.Operands) == 0 {
		return builtinTypes["any"]
	}

	left := c.infer(op.Operands[0])
	right := left
	if len(op.Operands) > 1 {
		right = c.infer(op.Operands[1])
	}

	switch op.Operator {
	case "==", "!=", "<", ">", "<=", ">=":
		return builtinTypes["bool"]
	case "&&", "||", "and", "or":
		return builtinTypes["bool"]
	}

	if op.Operator == "+" && (left.Name == "str" || right.Name == "str") {
		return builtinTypes["str"]
	}

	// Division never yields int.
	if op.Operator == "/" {
		return builtinTypes["float"]
	}

	switch op.Operator {
	case "+", "-", "*", "%", "**":
		if left.Name == "float" || right.Name == "float" {
			return builtinTypes["float"]
		}
		if left.IsNumeric && right.IsNumeric {
			return builtinTypes["int"]
		}
	}

	return builtinTypes["any"]
}

func (c *Checker) inferCall(call *FunctionCall) TypeInfo {
	ident, ok := call.Callee.(*Identifier)
	if !ok {
		return builtinTypes["any"]
	}

	if sig, found := c.functions[ident.Name]; found {
		return sig.output
	}
	if returnType, found := builtinReturns[ident.Name]; found {
		return returnType
	}
	return builtinTypes["any"]
}

// compatible reports whether source may flow into a target-typed slot:
// any on either side, exact name match, or a widening entry.
func compatible(target, source TypeInfo) bool {
	if target.Name == "any" || source.Name == "any" {
		return true
	}
	if target.Name == source.Name {
		return true
	}
	return widening[target.Name][source.Name]
}

func (c *Checker) addError(span Span, message string, hints ...string) {
	c.errors = append(c.errors, &TypeError{Diagnostic{
		Message:    message,
		Location:   &SourceLocation{Line: span.Line, Column: span.Column, Length: 1},
		SourceLine: sourceLine(c.source, span.Line),
		Hints:      hints,
	}})
}

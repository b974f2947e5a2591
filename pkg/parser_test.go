package vl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) Statement {
	t.Helper()
	program, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)
	return program.Statements[0]
}

func TestParserStatementSeparator(t *testing.T) {
	program, err := Parse("x=5|y=10")
	require.NoError(t, err)
	require.Len(t, program.Statements, 2)

	x, ok := program.Statements[0].(*VariableDef)
	require.True(t, ok)
	assert.Equal(t, "x", x.Name)

	y, ok := program.Statements[1].(*VariableDef)
	require.True(t, ok)
	assert.Equal(t, "y", y.Name)
}

func TestParserPipelineChain(t *testing.T) {
	// The same | that separates statements chains operations when followed
	// by a pipeline keyword.
	stmt := parseOne(t, "data:[1,2,3]|filter:item>1|map:item*2")

	pipeline, ok := stmt.(*DataPipeline)
	require.True(t, ok)
	require.Len(t, pipeline.Operations, 2)

	filter, ok := pipeline.Operations[0].(*FilterOp)
	require.True(t, ok)
	assert.IsType(t, &Operation{}, filter.Condition)

	mapOp, ok := pipeline.Operations[1].(*MapOp)
	require.True(t, ok)
	assert.IsType(t, &Operation{}, mapOp.Expression)
}

func TestParserPostfixPipeline(t *testing.T) {
	stmt := parseOne(t, "result=items|filter:active")

	def, ok := stmt.(*VariableDef)
	require.True(t, ok)

	pipeline, ok := def.Value.(*DataPipeline)
	require.True(t, ok)
	assert.IsType(t, &Identifier{}, pipeline.Source)
	require.Len(t, pipeline.Operations, 1)
}

func TestParserFunctionDef(t *testing.T) {
	stmt := parseOne(t, "fn:add|i:int,int|o:int|ret:i0+i1")

	fn, ok := stmt.(*FunctionDef)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.InputTypes, 2)
	assert.Equal(t, "int", fn.InputTypes[0].Name)
	assert.Equal(t, "int", fn.InputTypes[1].Name)
	assert.Equal(t, "int", fn.OutputType.Name)

	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(*ReturnStmt)
	require.True(t, ok)

	op, ok := ret.Value.(*Operation)
	require.True(t, ok)
	assert.Equal(t, "+", op.Operator)
	require.Len(t, op.Operands, 2)
	assert.Equal(t, "i0", op.Operands[0].(*Identifier).Name)
	assert.Equal(t, "i1", op.Operands[1].(*Identifier).Name)
}

func TestParserZeroParamFunction(t *testing.T) {
	stmt := parseOne(t, "fn:main|i:|o:void|x=1")

	fn, ok := stmt.(*FunctionDef)
	require.True(t, ok)
	assert.NotNil(t, fn.InputTypes)
	assert.Len(t, fn.InputTypes, 0)
	assert.Equal(t, "void", fn.OutputType.Name)
	assert.Len(t, fn.Body, 1)
}

func TestParserEnvelope(t *testing.T) {
	program, err := Parse("meta:app,script,python\ndeps:[math,json]\nx=1\nexport:x")
	require.NoError(t, err)

	require.NotNil(t, program.Metadata)
	assert.Equal(t, "app", program.Metadata.Name)
	assert.Equal(t, "script", program.Metadata.ProgramType)
	assert.Equal(t, "python", program.Metadata.TargetLanguage)

	require.NotNil(t, program.Dependencies)
	assert.Equal(t, []string{"math", "json"}, program.Dependencies.Names)

	require.NotNil(t, program.Export)
	assert.Equal(t, "x", program.Export.Name)

	assert.Len(t, program.Statements, 1)
}

func TestParserTernary(t *testing.T) {
	stmt := parseOne(t, "if:x>0?1:-1")

	ifStmt, ok := stmt.(*IfStmt)
	require.True(t, ok)
	assert.IsType(t, &Operation{}, ifStmt.Condition)
	assert.IsType(t, &NumberLiteral{}, ifStmt.TrueBranch)

	neg, ok := ifStmt.FalseBranch.(*Operation)
	require.True(t, ok)
	assert.Equal(t, "-", neg.Operator)
	assert.Len(t, neg.Operands, 1)
}

func TestParserTernaryReturnSugar(t *testing.T) {
	stmt := parseOne(t, "if:x>0?ret:1:ret:0")

	ifStmt, ok := stmt.(*IfStmt)
	require.True(t, ok)
	assert.IsType(t, &ReturnStmt{}, ifStmt.TrueBranch)
	assert.IsType(t, &ReturnStmt{}, ifStmt.FalseBranch)
}

func TestParserBlockIf(t *testing.T) {
	src := "if:x>0\n  y=1\n  z=2\nelse:\n  y=3"
	stmt := parseOne(t, src)

	block, ok := stmt.(*IfElseBlock)
	require.True(t, ok)
	assert.Len(t, block.IfBody, 2)
	assert.Len(t, block.ElseBody, 1)
}

func TestParserBlockIfNoElse(t *testing.T) {
	src := "if:ready\n  y=1\nz=2"
	program, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, program.Statements, 2)

	block, ok := program.Statements[0].(*IfElseBlock)
	require.True(t, ok)
	assert.Len(t, block.IfBody, 1)
	assert.Empty(t, block.ElseBody)

	z, ok := program.Statements[1].(*VariableDef)
	require.True(t, ok)
	assert.Equal(t, "z", z.Name)
}

func TestParserPrecedence(t *testing.T) {
	stmt := parseOne(t, "r=1+2*3")

	def := stmt.(*VariableDef)
	add, ok := def.Value.(*Operation)
	require.True(t, ok)
	assert.Equal(t, "+", add.Operator)

	mul, ok := add.Operands[1].(*Operation)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Operator)
}

func TestParserBooleanLiterals(t *testing.T) {
	stmt := parseOne(t, "flag=true&&false")

	def := stmt.(*VariableDef)
	op, ok := def.Value.(*Operation)
	require.True(t, ok)
	assert.Equal(t, "&&", op.Operator)
	assert.Equal(t, true, op.Operands[0].(*BooleanLiteral).Value)
	assert.Equal(t, false, op.Operands[1].(*BooleanLiteral).Value)
}

func TestParserVariableForms(t *testing.T) {
	cases := []struct {
		src        string
		name       string
		annotation string
	}{
		{"v:count=0", "count", ""},
		{"v:count:int=0", "count", "int"},
		{"count=0", "count", ""},
	}

	for _, c := range cases {
		stmt := parseOne(t, c.src)
		def, ok := stmt.(*VariableDef)
		require.True(t, ok, c.src)
		assert.Equal(t, c.name, def.Name)
		if c.annotation == "" {
			assert.Nil(t, def.TypeAnnotation)
		} else {
			require.NotNil(t, def.TypeAnnotation)
			assert.Equal(t, c.annotation, def.TypeAnnotation.Name)
		}
	}
}

func TestParserCompoundAssignment(t *testing.T) {
	stmt := parseOne(t, "total+=5")

	compound, ok := stmt.(*CompoundAssignment)
	require.True(t, ok)
	assert.Equal(t, "total", compound.Name)
	assert.Equal(t, "+", compound.Operator)
}

func TestParserSubscriptAssignment(t *testing.T) {
	stmt := parseOne(t, "items[0]=5")

	def, ok := stmt.(*VariableDef)
	require.True(t, ok)
	assert.Equal(t, "items[0]", def.Name)
}

func TestParserMemberAssignment(t *testing.T) {
	stmt := parseOne(t, "self.count=0")

	def, ok := stmt.(*VariableDef)
	require.True(t, ok)
	assert.Equal(t, "self.count", def.Name)
}

func TestParserObjectLiteralKeywordKeys(t *testing.T) {
	stmt := parseOne(t, "cfg={if:1,ret:2,name:3}")

	def := stmt.(*VariableDef)
	obj, ok := def.Value.(*ObjectLiteral)
	require.True(t, ok)
	require.Len(t, obj.Fields, 3)
	assert.Equal(t, "if", obj.Fields[0].Key)
	assert.Equal(t, "ret", obj.Fields[1].Key)
	assert.Equal(t, "name", obj.Fields[2].Key)
}

func TestParserObjectLiteralFunctionValue(t *testing.T) {
	stmt := parseOne(t, "handlers={inc:fn:inc|i:int|o:int|ret:i0+1}")

	def := stmt.(*VariableDef)
	obj, ok := def.Value.(*ObjectLiteral)
	require.True(t, ok)
	require.Len(t, obj.Fields, 1)

	fn, ok := obj.Fields[0].Value.(*FunctionExpr)
	require.True(t, ok)
	assert.Equal(t, "inc", fn.Name)
	assert.Len(t, fn.Body, 1)
}

func TestParserComprehensionOpaque(t *testing.T) {
	stmt := parseOne(t, "xs=[y*2 for y in items]")

	def := stmt.(*VariableDef)
	opaque, ok := def.Value.(*OpaqueExpr)
	require.True(t, ok)
	assert.Contains(t, opaque.Code, "for")
	assert.Contains(t, opaque.Code, "y")
}

func TestParserDecorators(t *testing.T) {
	stmt := parseOne(t, "@app.route('/')\nfn:index|i:|o:str|ret:'hi'")

	fn, ok := stmt.(*FunctionDef)
	require.True(t, ok)
	require.Len(t, fn.Decorators, 1)
	assert.Equal(t, "app.route", fn.Decorators[0].Name)
	assert.Len(t, fn.Decorators[0].Args, 1)
}

func TestParserClassDef(t *testing.T) {
	src := "class:Point[Base]\n  origin=true\n  fn:mag|i:|o:float|ret:0"
	stmt := parseOne(t, src)

	class, ok := stmt.(*ClassDef)
	require.True(t, ok)
	assert.Equal(t, "Point", class.Name)
	assert.Equal(t, []string{"Base"}, class.BaseClasses)
	require.Len(t, class.Methods, 1)
	assert.Equal(t, "mag", class.Methods[0].Name)
	assert.Len(t, class.Attributes, 1)
}

func TestParserRange(t *testing.T) {
	stmt := parseOne(t, "r=0..10")

	def := stmt.(*VariableDef)
	rng, ok := def.Value.(*RangeExpr)
	require.True(t, ok)
	assert.Equal(t, "0", rng.Start.(*NumberLiteral).Raw)
	assert.Equal(t, "10", rng.End.(*NumberLiteral).Raw)
}

func TestParserInOp(t *testing.T) {
	stmt := parseOne(t, "ok=in:3,[1,2,3]")

	def := stmt.(*VariableDef)
	inOp, ok := def.Value.(*InOp)
	require.True(t, ok)
	assert.IsType(t, &NumberLiteral{}, inOp.Element)
	assert.IsType(t, &ArrayLiteral{}, inOp.Container)
}

func TestParserOperationExpr(t *testing.T) {
	stmt := parseOne(t, "z=op:+(1,2)")

	def := stmt.(*VariableDef)
	op, ok := def.Value.(*Operation)
	require.True(t, ok)
	assert.Equal(t, "+", op.Operator)
	assert.Len(t, op.Operands, 2)
}

func TestParserVariableRefAndCall(t *testing.T) {
	stmt := parseOne(t, "y=$x+@add(1,2)")

	def := stmt.(*VariableDef)
	op := def.Value.(*Operation)
	assert.IsType(t, &VariableRef{}, op.Operands[0])

	call, ok := op.Operands[1].(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "add", call.Callee.(*Identifier).Name)
	assert.Len(t, call.Arguments, 2)
}

func TestParserAPICall(t *testing.T) {
	stmt := parseOne(t, "async|api:get,'/users',{timeout:5}|parse:json")

	call, ok := stmt.(*APICall)
	require.True(t, ok)
	assert.True(t, call.IsAsync)
	assert.Equal(t, "get", call.Method)
	require.NotNil(t, call.Options)
	require.Len(t, call.Operations, 1)
	assert.Equal(t, "json", call.Operations[0].(*ParseOp).Format)
}

func TestParserForLoop(t *testing.T) {
	stmt := parseOne(t, "for:i,0..10|total+=i")

	loop, ok := stmt.(*ForLoop)
	require.True(t, ok)
	assert.Equal(t, "i", loop.Variable)
	assert.IsType(t, &RangeExpr{}, loop.Iterable)
	require.Len(t, loop.Body, 1)
}

func TestParserWhileLoop(t *testing.T) {
	stmt := parseOne(t, "while:n>0|n-=1")

	loop, ok := stmt.(*WhileLoop)
	require.True(t, ok)
	assert.IsType(t, &Operation{}, loop.Condition)
	require.Len(t, loop.Body, 1)
}

func TestParserDataPipelineFull(t *testing.T) {
	stmt := parseOne(t, "data:users|filter:age>18|groupBy:city|agg:count|sort:name")

	pipeline, ok := stmt.(*DataPipeline)
	require.True(t, ok)
	require.Len(t, pipeline.Operations, 4)
	assert.IsType(t, &FilterOp{}, pipeline.Operations[0])
	assert.IsType(t, &GroupByOp{}, pipeline.Operations[1])
	assert.IsType(t, &AggregateOp{}, pipeline.Operations[2])
	sortOp := pipeline.Operations[3].(*SortOp)
	assert.Equal(t, "name", sortOp.Field)
	assert.Equal(t, "asc", sortOp.Order)
}

func TestParserFileOperation(t *testing.T) {
	stmt := parseOne(t, "file:write,'out.txt',content")

	op, ok := stmt.(*FileOperation)
	require.True(t, ok)
	assert.Equal(t, "write", op.Operation)
	assert.Len(t, op.Arguments, 1)
}

func TestParserUIComponent(t *testing.T) {
	stmt := parseOne(t, "ui:Counter|state:count:int=0|props:label:str|on:click|render:button")

	component, ok := stmt.(*UIComponent)
	require.True(t, ok)
	assert.Equal(t, "Counter", component.Name)
	require.Len(t, component.StateVars, 1)
	assert.Equal(t, "count", component.StateVars[0].Name)
	require.Len(t, component.Props, 1)
	assert.Equal(t, "label", component.Props[0].Name)
	assert.Equal(t, []string{"click"}, component.Handlers)
	assert.Equal(t, "button", component.Render)
}

func TestParserPythonPassthrough(t *testing.T) {
	stmt := parseOne(t, "py:print(1, 2)")

	py, ok := stmt.(*PythonStmt)
	require.True(t, ok)
	assert.Contains(t, py.Code, "print")
}

func TestParserErrors(t *testing.T) {
	cases := []string{
		"fn:add|i:int",                // function clauses cut short
		"fn:add|i:int|o:notatype|x=1", // bad type name
		"api:get,'/u',5",              // options must be an object literal
		"v:x",                         // missing value
		"ret:",                        // missing expression
		"{",                           // dangling brace
	}

	for _, src := range cases {
		program, err := Parse(src)
		assert.Error(t, err, src)
		assert.IsType(t, &ParseError{}, err, src)
		assert.Nil(t, program, src)
	}
}

func TestParserErrorHints(t *testing.T) {
	_, err := Parse("fn:add i:int|o:int|ret:1")
	require.Error(t, err)

	parseErr, ok := err.(*ParseError)
	require.True(t, ok)
	assert.NotEmpty(t, parseErr.Hints)
	assert.NotNil(t, parseErr.Location)
}

func TestParserReservedKeywordHint(t *testing.T) {
	// The hint names the lexeme the user wrote, not the token kind.
	_, err := Parse("v:i:int=1")
	require.Error(t, err)

	parseErr, ok := err.(*ParseError)
	require.True(t, ok)
	require.NotEmpty(t, parseErr.Hints)
	assert.Contains(t, parseErr.Hints, "'i' is a reserved keyword, try a different name")
}

package vl

import (
	"fmt"
	"strings"
)

// Node is implemented by every AST node. Nodes are created once during
// parsing and never mutated afterwards.
type Node interface {
	Pos() SourceLocation
}

// Statement is the marker interface for statement nodes.
type Statement interface {
	Node
	stmtNode()
}

// Expression is the marker interface for expression nodes.
type Expression interface {
	Node
	exprNode()
}

// DataOperation is the marker interface for pipeline operations
// (filter, map, parse, groupBy, agg, sort).
type DataOperation interface {
	Node
	dataOpNode()
}

// Span is the source position every node carries for diagnostics.
type Span struct {
	Line   int
	Column int
}

func (s Span) Pos() SourceLocation {
	return SourceLocation{Line: s.Line, Column: s.Column, Length: 1}
}

// Program is the root of every parse.
type Program struct {
	Span
	Metadata     *Metadata
	Dependencies *Dependencies
	Statements   []Statement
	Export       *Export
}

// Metadata is the meta:name,type,target header.
type Metadata struct {
	Span
	Name           string
	ProgramType    string
	TargetLanguage string
}

// Dependencies is the deps:lib or deps:[lib1,lib2] header.
type Dependencies struct {
	Span
	Names []string
}

// Export is the export:name trailer.
type Export struct {
	Span
	Name string
}

// Type is a type annotation drawn from the closed type-keyword set.
type Type struct {
	Span
	Name string
}

// Decorator is an @name or @name(args) prefix on a function or class.
type Decorator struct {
	Span
	Name string
	Args []Expression
}

// FunctionDef is fn:name|i:type,type|o:type|body. Parameters are never
// named in source: a function with N input types binds i0..i(N-1) in its
// body.
type FunctionDef struct {
	Span
	Name       string
	InputTypes []*Type
	OutputType *Type
	Body       []Statement
	Decorators []*Decorator
}

// VariableDef is v:name=value, v:name:type=value, or the implicit
// name=value form. For subscript and member assignments Name holds the
// rendered target (e.g. "arr[0]" or "self.count").
type VariableDef struct {
	Span
	Name           string
	TypeAnnotation *Type
	Value          Expression
}

// CompoundAssignment is name+=value and friends; Operator is "+", "-",
// "*" or "/".
type CompoundAssignment struct {
	Span
	Name     string
	Operator string
	Value    Expression
}

type ReturnStmt struct {
	Span
	Value Expression
}

// DirectCall is an expression used in statement position.
type DirectCall struct {
	Span
	Function Expression
}

// IfStmt is the ternary form if:cond?a:b. Each branch is either an
// Expression or a *ReturnStmt wrapping one, never an arbitrary statement
// list. Usable in both statement and expression position.
type IfStmt struct {
	Span
	Condition   Expression
	TrueBranch  Node
	FalseBranch Node
}

// IfElseBlock is the block form: if:cond followed by an indented body and
// an optional else: clause.
type IfElseBlock struct {
	Span
	Condition Expression
	IfBody    []Statement
	ElseBody  []Statement
}

type ForLoop struct {
	Span
	Variable string
	Iterable Expression
	Body     []Statement
}

type WhileLoop struct {
	Span
	Condition Expression
	Body      []Statement
}

// APICall is api:METHOD,endpoint[,options], optionally async, optionally
// followed by chained pipeline operations. Valid in statement and
// expression position.
type APICall struct {
	Span
	Method     string
	Endpoint   Expression
	Options    *ObjectLiteral
	IsAsync    bool
	Operations []DataOperation
}

// DataPipeline is data:source|op|op|... or a postfix expr|filter:...
// chain. Operations is non-empty whenever the node exists.
type DataPipeline struct {
	Span
	Source     Expression
	Operations []DataOperation
}

// FileOperation is file:operation,path[,args].
type FileOperation struct {
	Span
	Operation string
	Path      Expression
	Arguments []Expression
}

// UIComponent is ui:name|props:...|state:...|on:...|render:....
type UIComponent struct {
	Span
	Name      string
	Props     []*PropDef
	StateVars []*StateDef
	Handlers  []string
	Render    string
	Body      []Statement
}

// PropDef is one props:name:type clause.
type PropDef struct {
	Span
	Name     string
	TypeName string
}

// StateDef is one state:name[:type]=value clause.
type StateDef struct {
	Span
	Name     string
	TypeName string
	Value    Expression
}

// ClassDef is class:name[Base] followed by an indented body of methods
// and attribute assignments.
type ClassDef struct {
	Span
	Name        string
	BaseClasses []string
	Methods     []*FunctionDef
	Attributes  []Statement
	Decorators  []*Decorator
}

// PythonStmt is a py: statement-level passthrough, captured verbatim.
type PythonStmt struct {
	Span
	Code string
}

// NumberLiteral keeps both the parsed value and the original lexeme;
// IsFloat is true when the lexeme contains a decimal point.
type NumberLiteral struct {
	Span
	Value   float64
	Raw     string
	IsFloat bool
}

type StringLiteral struct {
	Span
	Value      string
	IsTemplate bool
}

type BooleanLiteral struct {
	Span
	Value bool
}

type ArrayLiteral struct {
	Span
	Elements []Expression
}

// ObjectField is one key:value pair of an object literal. Keys may be
// reserved words.
type ObjectField struct {
	Key   string
	Value Expression
}

type ObjectLiteral struct {
	Span
	Fields []ObjectField
}

type Identifier struct {
	Span
	Name string
}

// VariableRef is a $name reference.
type VariableRef struct {
	Span
	Name string
}

type MemberAccess struct {
	Span
	Object   Expression
	Property string
}

type IndexAccess struct {
	Span
	Object Expression
	Index  Expression
}

// Operation is a unary (one operand) or binary (two operands) operator
// application; Operator is the operator token's lexeme.
type Operation struct {
	Span
	Operator string
	Operands []Expression
}

type FunctionCall struct {
	Span
	Callee    Expression
	Arguments []Expression
}

// RangeExpr is start..end.
type RangeExpr struct {
	Span
	Start Expression
	End   Expression
}

// FunctionExpr is an anonymous function literal: same shape as
// FunctionDef but usable as a value inside object literals.
type FunctionExpr struct {
	Span
	Name       string
	InputTypes []*Type
	OutputType *Type
	Body       []Statement
}

// InOp is in:element,container membership.
type InOp struct {
	Span
	Element   Expression
	Container Expression
}

// OpaqueExpr is source text captured verbatim and passed through to the
// generators untouched: list comprehensions and py: expressions.
type OpaqueExpr struct {
	Span
	Code string
}

type FilterOp struct {
	Span
	Condition Expression
}

// MapOp carries either extracted field names or a transformation
// expression, never both.
type MapOp struct {
	Span
	Fields     []string
	Expression Expression
}

type ParseOp struct {
	Span
	Format string
}

type GroupByOp struct {
	Span
	Field string
}

type AggregateOp struct {
	Span
	Function string
	Field    string
}

type SortOp struct {
	Span
	Field string
	Order string
}

func (*FunctionDef) stmtNode()        {}
func (*VariableDef) stmtNode()        {}
func (*CompoundAssignment) stmtNode() {}
func (*ReturnStmt) stmtNode()         {}
func (*DirectCall) stmtNode()         {}
func (*IfStmt) stmtNode()             {}
func (*IfElseBlock) stmtNode()        {}
func (*ForLoop) stmtNode()            {}
func (*WhileLoop) stmtNode()          {}
func (*APICall) stmtNode()            {}
func (*DataPipeline) stmtNode()       {}
func (*FileOperation) stmtNode()      {}
func (*UIComponent) stmtNode()        {}
func (*ClassDef) stmtNode()           {}
func (*PythonStmt) stmtNode()         {}

func (*NumberLiteral) exprNode()  {}
func (*StringLiteral) exprNode()  {}
func (*BooleanLiteral) exprNode() {}
func (*ArrayLiteral) exprNode()   {}
func (*ObjectLiteral) exprNode()  {}
func (*Identifier) exprNode()     {}
func (*VariableRef) exprNode()    {}
func (*MemberAccess) exprNode()   {}
func (*IndexAccess) exprNode()    {}
func (*Operation) exprNode()      {}
func (*FunctionCall) exprNode()   {}
func (*RangeExpr) exprNode()      {}
func (*FunctionExpr) exprNode()   {}
func (*InOp) exprNode()           {}
func (*OpaqueExpr) exprNode()     {}
func (*IfStmt) exprNode()         {}
func (*DataPipeline) exprNode()   {}
func (*APICall) exprNode()        {}

func (*FilterOp) dataOpNode()    {}
func (*MapOp) dataOpNode()       {}
func (*ParseOp) dataOpNode()     {}
func (*GroupByOp) dataOpNode()   {}
func (*AggregateOp) dataOpNode() {}
func (*SortOp) dataOpNode()      {}

// Dump renders a node tree as an indented outline. Used by the CLI's
// -emit ast mode and the REPL.
func Dump(node Node) string {
	var sb strings.Builder
	dump(&sb, node, 0)
	return sb.String()
}

func dump(sb *strings.Builder, node Node, depth int) {
	pad := strings.Repeat("  ", depth)

	switch n := node.(type) {
	case *Program:
		sb.WriteString(pad + "Program:\n")
		if n.Metadata != nil {
			dump(sb, n.Metadata, depth+1)
		}
		if n.Dependencies != nil {
			dump(sb, n.Dependencies, depth+1)
		}
		for _, stmt := range n.Statements {
			dump(sb, stmt, depth+1)
		}
		if n.Export != nil {
			dump(sb, n.Export, depth+1)
		}
	case *Metadata:
		fmt.Fprintf(sb, "%sMetadata(name=%s, type=%s, target=%s)\n", pad, n.Name, n.ProgramType, n.TargetLanguage)
	case *Dependencies:
		fmt.Fprintf(sb, "%sDependencies(%s)\n", pad, strings.Join(n.Names, ", "))
	case *Export:
		fmt.Fprintf(sb, "%sExport(%s)\n", pad, n.Name)
	case *FunctionDef:
		fmt.Fprintf(sb, "%sFunctionDef(name=%s, inputs=%s, output=%s):\n", pad, n.Name, typeNames(n.InputTypes), n.OutputType.Name)
		for _, stmt := range n.Body {
			dump(sb, stmt, depth+1)
		}
	case *FunctionExpr:
		fmt.Fprintf(sb, "%sFunctionExpr(inputs=%s, output=%s):\n", pad, typeNames(n.InputTypes), n.OutputType.Name)
		for _, stmt := range n.Body {
			dump(sb, stmt, depth+1)
		}
	case *VariableDef:
		annot := ""
		if n.TypeAnnotation != nil {
			annot = ":" + n.TypeAnnotation.Name
		}
		fmt.Fprintf(sb, "%sVariableDef(%s%s):\n", pad, n.Name, annot)
		dump(sb, n.Value, depth+1)
	case *CompoundAssignment:
		fmt.Fprintf(sb, "%sCompoundAssignment(%s %s=):\n", pad, n.Name, n.Operator)
		dump(sb, n.Value, depth+1)
	case *ReturnStmt:
		sb.WriteString(pad + "Return:\n")
		dump(sb, n.Value, depth+1)
	case *DirectCall:
		sb.WriteString(pad + "DirectCall:\n")
		dump(sb, n.Function, depth+1)
	case *IfStmt:
		sb.WriteString(pad + "IfStmt:\n")
		dump(sb, n.Condition, depth+1)
		dump(sb, n.TrueBranch, depth+1)
		dump(sb, n.FalseBranch, depth+1)
	case *IfElseBlock:
		sb.WriteString(pad + "IfElseBlock:\n")
		dump(sb, n.Condition, depth+1)
		for _, stmt := range n.IfBody {
			dump(sb, stmt, depth+1)
		}
		if len(n.ElseBody) > 0 {
			sb.WriteString(pad + "Else:\n")
			for _, stmt := range n.ElseBody {
				dump(sb, stmt, depth+1)
			}
		}
	case *ForLoop:
		fmt.Fprintf(sb, "%sForLoop(%s):\n", pad, n.Variable)
		dump(sb, n.Iterable, depth+1)
		for _, stmt := range n.Body {
			dump(sb, stmt, depth+1)
		}
	case *WhileLoop:
		sb.WriteString(pad + "WhileLoop:\n")
		dump(sb, n.Condition, depth+1)
		for _, stmt := range n.Body {
			dump(sb, stmt, depth+1)
		}
	case *APICall:
		async := ""
		if n.IsAsync {
			async = " async"
		}
		fmt.Fprintf(sb, "%sAPICall(%s%s):\n", pad, n.Method, async)
		dump(sb, n.Endpoint, depth+1)
		for _, op := range n.Operations {
			dump(sb, op, depth+1)
		}
	case *DataPipeline:
		sb.WriteString(pad + "DataPipeline:\n")
		dump(sb, n.Source, depth+1)
		for _, op := range n.Operations {
			dump(sb, op, depth+1)
		}
	case *FileOperation:
		fmt.Fprintf(sb, "%sFileOperation(%s):\n", pad, n.Operation)
		dump(sb, n.Path, depth+1)
		for _, arg := range n.Arguments {
			dump(sb, arg, depth+1)
		}
	case *UIComponent:
		fmt.Fprintf(sb, "%sUIComponent(%s)\n", pad, n.Name)
	case *ClassDef:
		fmt.Fprintf(sb, "%sClassDef(%s):\n", pad, n.Name)
		for _, m := range n.Methods {
			dump(sb, m, depth+1)
		}
	case *PythonStmt:
		fmt.Fprintf(sb, "%sPython(%s)\n", pad, n.Code)
	case *FilterOp:
		sb.WriteString(pad + "Filter:\n")
		dump(sb, n.Condition, depth+1)
	case *MapOp:
		if n.Expression != nil {
			sb.WriteString(pad + "Map:\n")
			dump(sb, n.Expression, depth+1)
		} else {
			fmt.Fprintf(sb, "%sMap(fields=%s)\n", pad, strings.Join(n.Fields, ", "))
		}
	case *ParseOp:
		fmt.Fprintf(sb, "%sParse(%s)\n", pad, n.Format)
	case *GroupByOp:
		fmt.Fprintf(sb, "%sGroupBy(%s)\n", pad, n.Field)
	case *AggregateOp:
		fmt.Fprintf(sb, "%sAggregate(%s, %s)\n", pad, n.Function, n.Field)
	case *SortOp:
		fmt.Fprintf(sb, "%sSort(%s, %s)\n", pad, n.Field, n.Order)
	case *Operation:
		fmt.Fprintf(sb, "%sOperation(%s):\n", pad, n.Operator)
		for _, operand := range n.Operands {
			dump(sb, operand, depth+1)
		}
	case *FunctionCall:
		sb.WriteString(pad + "Call:\n")
		dump(sb, n.Callee, depth+1)
		for _, arg := range n.Arguments {
			dump(sb, arg, depth+1)
		}
	case *NumberLiteral:
		fmt.Fprintf(sb, "%sNumber(%s)\n", pad, n.Raw)
	case *StringLiteral:
		fmt.Fprintf(sb, "%sString(%q)\n", pad, n.Value)
	case *BooleanLiteral:
		fmt.Fprintf(sb, "%sBoolean(%t)\n", pad, n.Value)
	case *ArrayLiteral:
		sb.WriteString(pad + "Array:\n")
		for _, el := range n.Elements {
			dump(sb, el, depth+1)
		}
	case *ObjectLiteral:
		sb.WriteString(pad + "Object:\n")
		for _, f := range n.Fields {
			fmt.Fprintf(sb, "%s  %s:\n", pad, f.Key)
			dump(sb, f.Value, depth+2)
		}
	case *Identifier:
		fmt.Fprintf(sb, "%sIdentifier(%s)\n", pad, n.Name)
	case *VariableRef:
		fmt.Fprintf(sb, "%sVarRef($%s)\n", pad, n.Name)
	case *MemberAccess:
		fmt.Fprintf(sb, "%sMember(.%s):\n", pad, n.Property)
		dump(sb, n.Object, depth+1)
	case *IndexAccess:
		sb.WriteString(pad + "Index:\n")
		dump(sb, n.Object, depth+1)
		dump(sb, n.Index, depth+1)
	case *RangeExpr:
		sb.WriteString(pad + "Range:\n")
		dump(sb, n.Start, depth+1)
		dump(sb, n.End, depth+1)
	case *InOp:
		sb.WriteString(pad + "In:\n")
		dump(sb, n.Element, depth+1)
		dump(sb, n.Container, depth+1)
	case *OpaqueExpr:
		fmt.Fprintf(sb, "%sOpaque(%s)\n", pad, n.Code)
	default:
		fmt.Fprintf(sb, "%s%T\n", pad, node)
	}
}

func typeNames(types []*Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

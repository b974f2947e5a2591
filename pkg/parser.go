package vl

import (
	"fmt"
	"strconv"
	"strings"
)

// pipelineOps are the token types that may follow a | in a pipeline chain.
var pipelineOps = map[TokenType]bool{
	TokenFilter: true,
	TokenMap:    true,
	TokenParse:  true,
}

// Parser converts a token stream into a Program. It is fail-fast: the first
// grammar violation aborts the whole parse with a *ParseError, no partial
// AST is returned.
//
// Two pieces of running state resolve grammar ambiguity: inPipeline guards
// against re-entrant pipeline-chain parsing on a nested |, and block-form if
// tracks indentation columns to find the end of its body.
type Parser struct {
	tokens     []Token
	source     string
	pos        int
	inPipeline bool
}

// NewParser creates a parser over tokens. source is kept only for diagnostic
// context lines.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// Parse tokenizes and parses source in one call.
func Parse(source string) (*Program, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, source).Parse()
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() Token {
	token := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return token
}

func (p *Parser) match(types ...TokenType) bool {
	cur := p.current().Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if p.match(t) {
		return p.advance(), nil
	}
	got := p.current()
	return Token{}, p.errorf(expectHints(t, got), "Expected %s, got %s", t, got.Type)
}

// errorf creates a ParseError at the current token with the literal source
// line attached.
func (p *Parser) errorf(hints []string, format string, args ...any) error {
	tok := p.current()
	line, column := tok.Line, tok.Column
	if line == 0 {
		line, column = 1, 1
	}
	return &ParseError{Diagnostic{
		Message:    fmt.Sprintf(format, args...),
		Location:   &SourceLocation{Line: line, Column: column, Length: 1},
		SourceLine: sourceLine(p.source, line),
		Hints:      hints,
	}}
}

// expectHints maps an expected token kind to canned guidance for the most
// common mistakes.
func expectHints(expected TokenType, got Token) []string {
	var hints []string
	switch expected {
	case TokenPipe:
		hints = []string{
			"VL uses | to separate statements and clauses",
			"Example: fn:name|i:int|o:int|ret:value",
		}
	case TokenColon:
		hints = []string{
			"VL uses : after keywords",
			"Example: fn:name, v:var, ret:value",
		}
	case TokenIdentifier:
		hints = []string{"Expected a variable or function name"}
	case TokenRParen:
		hints = []string{"Check for matching parentheses"}
	case TokenRBrace:
		hints = []string{"Check for matching braces"}
	case TokenRBracket:
		hints = []string{"Check for matching brackets"}
	}
	if expected == TokenIdentifier {
		switch got.Type {
		case TokenInput, TokenOutput, TokenData, TokenFilter, TokenMap:
			hints = append(hints, fmt.Sprintf("'%s' is a reserved keyword, try a different name", got.Literal))
		}
	}
	return hints
}

func (p *Parser) skipNewlines() {
	for p.match(TokenNewline) {
		p.advance()
	}
}

// isPipelineLookahead reports whether the current PIPE token is followed by
// a pipeline operation keyword.
func (p *Parser) isPipelineLookahead() bool {
	return p.match(TokenPipe) && pipelineOps[p.peek(1).Type]
}

func spanOf(t Token) Span {
	return Span{Line: t.Line, Column: t.Column}
}

func spanOfNode(n Node) Span {
	pos := n.Pos()
	return Span{Line: pos.Line, Column: pos.Column}
}

// Parse parses the whole program: optional meta/deps envelope, statements,
// optional export trailer. Termination is structural — every statement
// branch either consumes at least one token or fails.
func (p *Parser) Parse() (*Program, error) {
	p.skipNewlines()

	var metadata *Metadata
	if p.match(TokenMeta) {
		m, err := p.parseMetadata()
		if err != nil {
			return nil, err
		}
		metadata = m
		p.skipNewlines()
	}

	var dependencies *Dependencies
	if p.match(TokenDeps) {
		d, err := p.parseDependencies()
		if err != nil {
			return nil, err
		}
		dependencies = d
		p.skipNewlines()
	}

	var statements []Statement
	for !p.match(TokenExport, TokenEOF) {
		if p.match(TokenNewline) {
			p.skipNewlines()
			continue
		}
		// Pipe separator at top level: v:x=1|v:y=2
		if p.match(TokenPipe) {
			p.advance()
			continue
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
		p.skipNewlines()
	}

	var export *Export
	if p.match(TokenExport) {
		e, err := p.parseExport()
		if err != nil {
			return nil, err
		}
		export = e
	}

	return &Program{
		Span:         Span{Line: 1, Column: 1},
		Metadata:     metadata,
		Dependencies: dependencies,
		Statements:   statements,
		Export:       export,
	}, nil
}

func (p *Parser) parseMetadata() (*Metadata, error) {
	token, err := p.expect(TokenMeta)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}

	progType, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}

	target, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	return &Metadata{
		Span:           spanOf(token),
		Name:           name.Literal,
		ProgramType:    progType.Literal,
		TargetLanguage: target.Literal,
	}, nil
}

func (p *Parser) parseDependencies() (*Dependencies, error) {
	token, err := p.expect(TokenDeps)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	var names []string
	if p.match(TokenLBracket) {
		p.advance()
		for !p.match(TokenRBracket) {
			name, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			names = append(names, name.Literal)
			if p.match(TokenComma) {
				p.advance()
			}
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
	} else {
		name, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		names = append(names, name.Literal)
	}

	return &Dependencies{Span: spanOf(token), Names: names}, nil
}

func (p *Parser) parseExport() (*Export, error) {
	token, err := p.expect(TokenExport)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	return &Export{Span: spanOf(token), Name: name.Literal}, nil
}

// parseStatement dispatches on the current token. A nil, nil return means
// the token belongs to an enclosing construct (an else clause).
func (p *Parser) parseStatement() (Statement, error) {
	switch p.current().Type {
	case TokenElse:
		// Belongs to the parent if block.
		return nil, nil
	case TokenAt:
		return p.parseDecoratedStatement()
	case TokenClass:
		return p.parseClassDef()
	case TokenFn:
		return p.parseFunctionDef()
	case TokenVar:
		return p.parseVariableDef()
	case TokenIdentifier, TokenSelf:
		return p.parseIdentifierStatement()
	case TokenRet:
		return p.parseReturnStmt()
	case TokenIf:
		return p.parseIfStmt()
	case TokenFor:
		return p.parseForLoop()
	case TokenWhile:
		return p.parseWhileLoop()
	case TokenAPI, TokenAsync:
		return p.parseAPICall()
	case TokenUI:
		return p.parseUIComponent()
	case TokenData:
		return p.parseDataPipeline()
	case TokenFile:
		return p.parseFileOperation()
	case TokenPy:
		return p.parsePythonStmt()
	default:
		return nil, p.errorf(nil, "Unexpected token: %s", p.current().Type)
	}
}

// parseIdentifierStatement disambiguates the statement forms that begin with
// an identifier (or self): simple/compound assignment by one-token
// lookahead; subscript/member assignment by parsing the full left-hand side
// first and checking for an assignment operator after (falling back to an
// expression statement when none follows); and a bare call.
func (p *Parser) parseIdentifierStatement() (Statement, error) {
	switch p.peek(1).Type {
	case TokenEquals, TokenPlusEquals, TokenMinusEquals, TokenTimesEquals, TokenDivEquals:
		return p.parseImplicitAssignment()

	case TokenLBracket, TokenDot:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.match(TokenEquals, TokenPlusEquals, TokenMinusEquals, TokenTimesEquals, TokenDivEquals) {
			opToken := p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if opToken.Type == TokenEquals {
				return &VariableDef{
					Span:  spanOfNode(expr),
					Name:  renderExpr(expr),
					Value: value,
				}, nil
			}
			return &CompoundAssignment{
				Span:     spanOfNode(expr),
				Name:     renderExpr(expr),
				Operator: compoundOperator(opToken.Type),
				Value:    value,
			}, nil
		}
		// Not an assignment: an expression statement, typically a method
		// call.
		return &DirectCall{Span: spanOfNode(expr), Function: expr}, nil

	case TokenLParen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &DirectCall{Span: spanOfNode(expr), Function: expr}, nil

	default:
		return nil, p.errorf(nil, "Unexpected identifier pattern - identifier not followed by assignment, subscript, member access, or call")
	}
}

func compoundOperator(t TokenType) string {
	switch t {
	case TokenPlusEquals:
		return "+"
	case TokenMinusEquals:
		return "-"
	case TokenTimesEquals:
		return "*"
	case TokenDivEquals:
		return "/"
	}
	return ""
}

// renderExpr turns an assignment target back into its source form, used as
// the stored name for subscript and member assignments.
func renderExpr(expr Expression) string {
	switch e := expr.(type) {
	case *Identifier:
		return e.Name
	case *IndexAccess:
		return renderExpr(e.Object) + "[" + renderExpr(e.Index) + "]"
	case *MemberAccess:
		return renderExpr(e.Object) + "." + e.Property
	case *NumberLiteral:
		return e.Raw
	case *StringLiteral:
		return "'" + e.Value + "'"
	case *VariableRef:
		return "$" + e.Name
	default:
		return fmt.Sprintf("%T", expr)
	}
}

func (p *Parser) parseDecoratedStatement() (Statement, error) {
	var decorators []*Decorator

	for p.match(TokenAt) {
		token := p.advance()

		// Decorator name with possible member access: @app.route
		name, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		parts := []string{name.Literal}
		for p.match(TokenDot) {
			p.advance()
			part, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part.Literal)
		}

		var args []Expression
		if p.match(TokenLParen) {
			p.advance()
			for !p.match(TokenRParen) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.match(TokenComma) {
					p.advance()
				}
			}
			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}
		}

		decorators = append(decorators, &Decorator{
			Span: spanOf(token),
			Name: strings.Join(parts, "."),
			Args: args,
		})
		p.skipNewlines()
	}

	switch p.current().Type {
	case TokenFn:
		fn, err := p.parseFunctionDef()
		if err != nil {
			return nil, err
		}
		fn.Decorators = decorators
		return fn, nil
	case TokenClass:
		class, err := p.parseClassDef()
		if err != nil {
			return nil, err
		}
		class.Decorators = decorators
		return class, nil
	default:
		return nil, p.errorf(nil, "Expected function or class after decorator, got %s", p.current().Type)
	}
}

func (p *Parser) parseClassDef() (*ClassDef, error) {
	token, err := p.expect(TokenClass)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	var baseClasses []string
	if p.match(TokenLBracket) {
		p.advance()
		for !p.match(TokenRBracket) {
			base, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			baseClasses = append(baseClasses, base.Literal)
			if p.match(TokenComma) {
				p.advance()
			}
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenNewline); err != nil {
		return nil, err
	}

	// Class body: indented methods and attribute assignments.
	var methods []*FunctionDef
	var attributes []Statement

	for p.current().Column > 1 && !p.match(TokenEOF) {
		switch p.current().Type {
		case TokenAt:
			stmt, err := p.parseDecoratedStatement()
			if err != nil {
				return nil, err
			}
			if method, ok := stmt.(*FunctionDef); ok {
				methods = append(methods, method)
			}
		case TokenFn:
			method, err := p.parseFunctionDef()
			if err != nil {
				return nil, err
			}
			methods = append(methods, method)
		case TokenVar:
			attr, err := p.parseVariableDef()
			if err != nil {
				return nil, err
			}
			attributes = append(attributes, attr)
		case TokenIdentifier:
			attr, err := p.parseImplicitAssignment()
			if err != nil {
				return nil, err
			}
			attributes = append(attributes, attr)
		default:
			return &ClassDef{
				Span:        spanOf(token),
				Name:        name.Literal,
				BaseClasses: baseClasses,
				Methods:     methods,
				Attributes:  attributes,
			}, nil
		}
		p.skipNewlines()
	}

	return &ClassDef{
		Span:        spanOf(token),
		Name:        name.Literal,
		BaseClasses: baseClasses,
		Methods:     methods,
		Attributes:  attributes,
	}, nil
}

// Stop-token sets for function bodies: top-level definitions end at the next
// module construct, function expressions embedded in object literals end at
// the enclosing brace or comma.
var (
	functionDefStops = map[TokenType]bool{
		TokenEOF: true, TokenExport: true, TokenFn: true, TokenMeta: true, TokenDeps: true,
	}
	functionExprStops = map[TokenType]bool{
		TokenEOF: true, TokenRBrace: true, TokenComma: true,
	}
)

func (p *Parser) parseFunctionDef() (*FunctionDef, error) {
	token, name, inputTypes, outputType, body, err := p.parseFunctionCommon(functionDefStops)
	if err != nil {
		return nil, err
	}
	return &FunctionDef{
		Span:       spanOf(token),
		Name:       name,
		InputTypes: inputTypes,
		OutputType: outputType,
		Body:       body,
	}, nil
}

func (p *Parser) parseFunctionExpr() (*FunctionExpr, error) {
	token, name, inputTypes, outputType, body, err := p.parseFunctionCommon(functionExprStops)
	if err != nil {
		return nil, err
	}
	return &FunctionExpr{
		Span:       spanOf(token),
		Name:       name,
		InputTypes: inputTypes,
		OutputType: outputType,
		Body:       body,
	}, nil
}

// parseFunctionCommon parses the shared fn:name|i:types|o:type|body shape.
func (p *Parser) parseFunctionCommon(stops map[TokenType]bool) (Token, string, []*Type, *Type, []Statement, error) {
	fail := func(err error) (Token, string, []*Type, *Type, []Statement, error) {
		return Token{}, "", nil, nil, nil, err
	}

	token, err := p.expect(TokenFn)
	if err != nil {
		return fail(err)
	}
	if _, err := p.expect(TokenColon); err != nil {
		return fail(err)
	}
	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return fail(err)
	}
	if _, err := p.expect(TokenPipe); err != nil {
		return fail(err)
	}

	if _, err := p.expect(TokenInput); err != nil {
		return fail(err)
	}
	if _, err := p.expect(TokenColon); err != nil {
		return fail(err)
	}

	// i:| means a zero-parameter function; the type list is never nil.
	inputTypes := []*Type{}
	if !p.match(TokenPipe) {
		inputTypes, err = p.parseTypeList()
		if err != nil {
			return fail(err)
		}
	}
	if _, err := p.expect(TokenPipe); err != nil {
		return fail(err)
	}

	if _, err := p.expect(TokenOutput); err != nil {
		return fail(err)
	}
	if _, err := p.expect(TokenColon); err != nil {
		return fail(err)
	}
	outputType, err := p.parseType()
	if err != nil {
		return fail(err)
	}
	if _, err := p.expect(TokenPipe); err != nil {
		return fail(err)
	}

	body, err := p.parseFunctionBody(stops)
	if err != nil {
		return fail(err)
	}

	return token, name.Literal, inputTypes, outputType, body, nil
}

// parseFunctionBody consumes |-separated statements until a stop token. A
// statement at column 1 after a newline is module-level and closes the body.
func (p *Parser) parseFunctionBody(stops map[TokenType]bool) ([]Statement, error) {
	var body []Statement

	for !stops[p.current().Type] {
		if p.match(TokenNewline) {
			p.skipNewlines()
			if p.current().Column == 1 {
				break
			}
			continue
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			break
		}
		body = append(body, stmt)

		if p.match(TokenPipe) && !p.isPipelineLookahead() {
			p.advance()
		}
	}

	return body, nil
}

func (p *Parser) parseTypeList() ([]*Type, error) {
	first, err := p.parseType()
	if err != nil {
		return nil, err
	}
	types := []*Type{first}
	for p.match(TokenComma) {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func (p *Parser) parseType() (*Type, error) {
	if !isTypeToken(p.current().Type) {
		return nil, p.errorf(nil, "Expected type, got %s", p.current().Type)
	}
	token := p.advance()
	return &Type{Span: spanOf(token), Name: token.Literal}, nil
}

// parseImplicitAssignment parses name=value and name+=value forms without a
// v: prefix.
func (p *Parser) parseImplicitAssignment() (Statement, error) {
	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	if p.match(TokenPlusEquals, TokenMinusEquals, TokenTimesEquals, TokenDivEquals) {
		opToken := p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &CompoundAssignment{
			Span:     spanOf(name),
			Name:     name.Literal,
			Operator: compoundOperator(opToken.Type),
			Value:    value,
		}, nil
	}

	if _, err := p.expect(TokenEquals); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &VariableDef{Span: spanOf(name), Name: name.Literal, Value: value}, nil
}

func (p *Parser) parseVariableDef() (*VariableDef, error) {
	token, err := p.expect(TokenVar)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	var annotation *Type
	if p.match(TokenColon) {
		p.advance()
		annotation, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenEquals); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &VariableDef{
		Span:           spanOf(token),
		Name:           name.Literal,
		TypeAnnotation: annotation,
		Value:          value,
	}, nil
}

func (p *Parser) parseReturnStmt() (*ReturnStmt, error) {
	token, err := p.expect(TokenRet)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ReturnStmt{Span: spanOf(token), Value: value}, nil
}

// parseIfStmt parses both if forms. A ? after the condition selects the
// ternary IfStmt; otherwise the indented block form produces IfElseBlock.
func (p *Parser) parseIfStmt() (Statement, error) {
	token, err := p.expect(TokenIf)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.match(TokenQuestion) {
		p.advance()

		trueBranch, err := p.parseTernaryBranch(token)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		falseBranch, err := p.parseTernaryBranch(token)
		if err != nil {
			return nil, err
		}

		return &IfStmt{
			Span:        spanOf(token),
			Condition:   condition,
			TrueBranch:  trueBranch,
			FalseBranch: falseBranch,
		}, nil
	}

	return p.parseIfBlock(token, condition)
}

// parseTernaryBranch parses one arm of if:cond?a:b. A ret: prefix is sugar
// for early return inside the ternary.
func (p *Parser) parseTernaryBranch(ifToken Token) (Node, error) {
	if p.match(TokenRet) {
		p.advance()
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Span: spanOf(ifToken), Value: value}, nil
	}
	return p.parseExpression()
}

func (p *Parser) parseIfBlock(token Token, condition Expression) (*IfElseBlock, error) {
	if p.match(TokenPipe) {
		p.advance()
	}
	p.skipNewlines()

	ifBody, err := p.parseIndentedBlock(token.Column)
	if err != nil {
		return nil, err
	}

	var elseBody []Statement
	if p.match(TokenElse) {
		elseColumn := p.current().Column
		p.advance()
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		if p.match(TokenPipe) {
			p.advance()
		}
		p.skipNewlines()

		elseBody, err = p.parseIndentedBlock(elseColumn)
		if err != nil {
			return nil, err
		}
	}

	return &IfElseBlock{
		Span:      spanOf(token),
		Condition: condition,
		IfBody:    ifBody,
		ElseBody:  elseBody,
	}, nil
}

// parseIndentedBlock consumes statements strictly to the right of
// headerColumn. The first statement fixes the body column; any dedent below
// it ends the block.
func (p *Parser) parseIndentedBlock(headerColumn int) ([]Statement, error) {
	var body []Statement
	bodyColumn := 0

	for !p.match(TokenEOF) && p.current().Column > headerColumn {
		if bodyColumn == 0 {
			bodyColumn = p.current().Column
		}
		if p.current().Column < bodyColumn {
			break
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			body = append(body, stmt)
		}

		if p.match(TokenPipe) {
			p.advance()
			p.skipNewlines()
			if p.current().Column <= headerColumn {
				break
			}
			continue
		}

		if p.match(TokenNewline) {
			p.skipNewlines()
			if p.current().Column <= headerColumn {
				break
			}
			continue
		}

		if stmt == nil {
			break
		}
	}

	return body, nil
}

// Loop bodies end at tokens that belong to the enclosing function or module.
var loopBodyStops = map[TokenType]bool{
	TokenRet: true, TokenFn: true, TokenMeta: true, TokenDeps: true, TokenExport: true,
}

func (p *Parser) parseForLoop() (*ForLoop, error) {
	token, err := p.expect(TokenFor)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	// Keywords are accepted as loop variables (i, o, v are common).
	if p.match(TokenEOF) {
		return nil, p.errorf(nil, "Expected variable name in for loop")
	}
	variable := p.advance().Literal

	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenPipe); err != nil {
		return nil, err
	}

	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}

	return &ForLoop{
		Span:     spanOf(token),
		Variable: variable,
		Iterable: iterable,
		Body:     body,
	}, nil
}

func (p *Parser) parseWhileLoop() (*WhileLoop, error) {
	token, err := p.expect(TokenWhile)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenPipe); err != nil {
		return nil, err
	}

	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}

	return &WhileLoop{Span: spanOf(token), Condition: condition, Body: body}, nil
}

func (p *Parser) parseLoopBody() ([]Statement, error) {
	var body []Statement

	for !p.match(TokenEOF) && !loopBodyStops[p.current().Type] {
		if p.match(TokenNewline) {
			p.skipNewlines()
			continue
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			break
		}
		body = append(body, stmt)

		if p.match(TokenPipe) {
			if p.isPipelineLookahead() {
				break
			}
			p.advance()
		}
	}

	return body, nil
}

func (p *Parser) parseAPICall() (*APICall, error) {
	isAsync := false
	if p.match(TokenAsync) {
		isAsync = true
		p.advance()
		if _, err := p.expect(TokenPipe); err != nil {
			return nil, err
		}
	}

	token, err := p.expect(TokenAPI)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	method, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}

	// Guard the whole form so the endpoint and options expressions leave
	// the chained operations to the loop below.
	prev := p.inPipeline
	p.inPipeline = true
	defer func() { p.inPipeline = prev }()

	endpoint, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var options *ObjectLiteral
	if p.match(TokenComma) {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		obj, ok := expr.(*ObjectLiteral)
		if !ok {
			return nil, p.errorf(nil, "API options must be an object literal")
		}
		options = obj
	}

	var operations []DataOperation
	for p.isPipelineLookahead() {
		p.advance()
		op, err := p.parseChainOperation()
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
	}

	return &APICall{
		Span:       spanOf(token),
		Method:     method.Literal,
		Endpoint:   endpoint,
		Options:    options,
		IsAsync:    isAsync,
		Operations: operations,
	}, nil
}

// parseChainOperation parses the operation after a pipeline |; the current
// token is one of filter, map, parse.
func (p *Parser) parseChainOperation() (DataOperation, error) {
	switch p.current().Type {
	case TokenFilter:
		return p.parseFilterOp()
	case TokenMap:
		return p.parseMapOp()
	case TokenParse:
		return p.parseParseOp()
	default:
		return nil, p.errorf(nil, "Expected pipeline operation, got %s", p.current().Type)
	}
}

func (p *Parser) parseFilterOp() (*FilterOp, error) {
	token, err := p.expect(TokenFilter)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &FilterOp{Span: spanOf(token), Condition: condition}, nil
}

func (p *Parser) parseMapOp() (*MapOp, error) {
	token, err := p.expect(TokenMap)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &MapOp{Span: spanOf(token), Expression: expr}, nil
}

func (p *Parser) parseParseOp() (*ParseOp, error) {
	token, err := p.expect(TokenParse)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	format, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	return &ParseOp{Span: spanOf(token), Format: format.Literal}, nil
}

func (p *Parser) parseUIComponent() (*UIComponent, error) {
	token, err := p.expect(TokenUI)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	name, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	component := &UIComponent{Span: spanOf(token), Name: name.Literal}

	for p.match(TokenPipe) {
		p.advance()

		if p.match(TokenPipe, TokenNewline, TokenEOF) {
			continue
		}

		switch p.current().Type {
		case TokenState:
			stateToken := p.advance()
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			stateName, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			stateType := ""
			if p.match(TokenColon) {
				p.advance()
				stateType = p.advance().Literal
			}
			if p.match(TokenEquals) {
				p.advance()
				value, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				component.StateVars = append(component.StateVars, &StateDef{
					Span:     spanOf(stateToken),
					Name:     stateName.Literal,
					TypeName: stateType,
					Value:    value,
				})
			}

		case TokenProps:
			propsToken := p.advance()
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			propName, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			propType := ""
			if p.match(TokenColon) {
				p.advance()
				propType = p.advance().Literal
			}
			component.Props = append(component.Props, &PropDef{
				Span:     spanOf(propsToken),
				Name:     propName.Literal,
				TypeName: propType,
			})

		case TokenOn:
			p.advance()
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			handler, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			component.Handlers = append(component.Handlers, handler.Literal)

		case TokenRender:
			p.advance()
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			element, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			component.Render = element.Literal

		default:
			return component, nil
		}
	}

	return component, nil
}

// parseDataPipeline parses data:source followed by zero or more chained
// operations. A bare data:x yields a DataPipeline with empty Operations
// rather than an error; generators emit it as a plain assignment.
func (p *Parser) parseDataPipeline() (*DataPipeline, error) {
	token, err := p.expect(TokenData)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	// The guard covers the whole form: the operation loop below owns every
	// |, so neither the source nor an operation argument may chain on its
	// own.
	prev := p.inPipeline
	p.inPipeline = true
	defer func() { p.inPipeline = prev }()

	source, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var operations []DataOperation
	for p.match(TokenPipe) {
		p.advance()

		switch p.current().Type {
		case TokenFilter:
			op, err := p.parseFilterOp()
			if err != nil {
				return nil, err
			}
			operations = append(operations, op)
		case TokenMap:
			op, err := p.parseMapOp()
			if err != nil {
				return nil, err
			}
			operations = append(operations, op)
		case TokenGroupBy:
			groupToken := p.advance()
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			field, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			operations = append(operations, &GroupByOp{Span: spanOf(groupToken), Field: field.Literal})
		case TokenAgg:
			aggToken := p.advance()
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			function, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			operations = append(operations, &AggregateOp{Span: spanOf(aggToken), Function: function.Literal})
		case TokenSort:
			sortToken := p.advance()
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			field, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			operations = append(operations, &SortOp{Span: spanOf(sortToken), Field: field.Literal, Order: "asc"})
		default:
			return &DataPipeline{Span: spanOf(token), Source: source, Operations: operations}, nil
		}
	}

	return &DataPipeline{Span: spanOf(token), Source: source, Operations: operations}, nil
}

func (p *Parser) parseFileOperation() (*FileOperation, error) {
	token, err := p.expect(TokenFile)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	operation, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}

	path, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var arguments []Expression
	for p.match(TokenComma) {
		p.advance()
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, arg)
	}

	return &FileOperation{
		Span:      spanOf(token),
		Operation: operation.Literal,
		Path:      path,
		Arguments: arguments,
	}, nil
}

// Expression parsing: precedence climbing, each binary level
// left-associative. Levels only control when each operator is consumed; all
// of them build Operation nodes.

func (p *Parser) parseExpression() (Expression, error) {
	return p.parseLogical()
}

func (p *Parser) parseLogical() (Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.match(TokenAnd, TokenOr) {
		opToken := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &Operation{
			Span:     spanOf(opToken),
			Operator: opToken.Literal,
			Operands: []Expression{left, right},
		}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.match(TokenEqual, TokenNotEqual, TokenLessThan, TokenGreaterThan, TokenLessEqual, TokenGreaterEqual) {
		opToken := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Operation{
			Span:     spanOf(opToken),
			Operator: opToken.Literal,
			Operands: []Expression{left, right},
		}
	}
	return left, nil
}

func (p *Parser) parseTerm() (Expression, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.match(TokenPlus, TokenMinus) {
		opToken := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &Operation{
			Span:     spanOf(opToken),
			Operator: opToken.Literal,
			Operands: []Expression{left, right},
		}
	}
	return left, nil
}

func (p *Parser) parseFactor() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(TokenMultiply, TokenDivide, TokenModulo) {
		opToken := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Operation{
			Span:     spanOf(opToken),
			Operator: opToken.Literal,
			Operands: []Expression{left, right},
		}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expression, error) {
	if p.match(TokenMinus, TokenNot) {
		opToken := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Operation{
			Span:     spanOf(opToken),
			Operator: opToken.Literal,
			Operands: []Expression{operand},
		}, nil
	}
	return p.parsePostfix()
}

// parsePostfix wraps the primary seed with member access, indexing, calls,
// and pipeline chains. A | is consumed here only when the guard flag is
// clear and peek(1) is a pipeline keyword; otherwise it is left for the
// statement-level separator logic.
func (p *Parser) parsePostfix() (Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(TokenDot):
			p.advance()
			prop, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			expr = &MemberAccess{Span: spanOfNode(expr), Object: expr, Property: prop.Literal}

		case p.match(TokenLBracket):
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket); err != nil {
				return nil, err
			}
			expr = &IndexAccess{Span: spanOfNode(expr), Object: expr, Index: index}

		case p.match(TokenLParen):
			expr, err = p.parseCallArgs(expr)
			if err != nil {
				return nil, err
			}

		case p.match(TokenPipe) && !p.inPipeline && p.isPipelineLookahead():
			expr, err = p.parsePipelineChain(expr)
			if err != nil {
				return nil, err
			}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseCallArgs(callee Expression) (*FunctionCall, error) {
	p.advance() // consume (
	var args []Expression
	for !p.match(TokenRParen) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.match(TokenComma) {
			p.advance()
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &FunctionCall{Span: spanOfNode(callee), Callee: callee, Arguments: args}, nil
}

// parsePipelineChain consumes |filter:/|map:/|parse: operations following an
// expression. The guard flag is restored by defer, so an error mid-chain
// cannot leak it into later parses.
func (p *Parser) parsePipelineChain(source Expression) (*DataPipeline, error) {
	prev := p.inPipeline
	p.inPipeline = true
	defer func() { p.inPipeline = prev }()

	var operations []DataOperation
	for p.isPipelineLookahead() {
		p.advance() // consume |
		op, err := p.parseChainOperation()
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
	}

	return &DataPipeline{Span: spanOfNode(source), Source: source, Operations: operations}, nil
}

func (p *Parser) parsePrimary() (Expression, error) {
	token := p.current()

	switch token.Type {
	case TokenNumber:
		p.advance()
		value, err := strconv.ParseFloat(token.Literal, 64)
		if err != nil {
			return nil, p.errorf(nil, "Invalid number literal %q", token.Literal)
		}
		num := &NumberLiteral{
			Span:    spanOf(token),
			Value:   value,
			Raw:     token.Literal,
			IsFloat: strings.Contains(token.Literal, "."),
		}
		if p.match(TokenDotDot) {
			p.advance()
			end, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return &RangeExpr{Span: spanOf(token), Start: num, End: end}, nil
		}
		return num, nil

	case TokenString:
		p.advance()
		return &StringLiteral{
			Span:       spanOf(token),
			Value:      token.Literal,
			IsTemplate: strings.Contains(token.Literal, "${"),
		}, nil

	case TokenDollar:
		p.advance()
		name, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		return &VariableRef{Span: spanOf(token), Name: name.Literal}, nil

	case TokenAt:
		// Direct call: @func(args).
		p.advance()
		name, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenLParen); err != nil {
			return nil, err
		}
		var args []Expression
		for !p.match(TokenRParen) {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.match(TokenComma) {
				p.advance()
			}
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return &FunctionCall{
			Span:      spanOf(token),
			Callee:    &Identifier{Span: spanOf(token), Name: name.Literal},
			Arguments: args,
		}, nil

	case TokenPy:
		return p.parsePythonExpr()

	case TokenOp:
		return p.parseOperationExpr()

	case TokenIf:
		stmt, err := p.parseIfStmt()
		if err != nil {
			return nil, err
		}
		ifExpr, ok := stmt.(*IfStmt)
		if !ok {
			return nil, p.errorf(nil, "Block if cannot be used as an expression")
		}
		return ifExpr, nil

	case TokenIn:
		p.advance()
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		element, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		container, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &InOp{Span: spanOf(token), Element: element, Container: container}, nil

	case TokenData:
		return p.parseDataPipeline()

	case TokenAPI, TokenAsync:
		return p.parseAPICall()

	case TokenSelf:
		p.advance()
		return &Identifier{Span: spanOf(token), Name: "self"}, nil

	case TokenIdentifier:
		p.advance()
		switch token.Literal {
		case "true":
			return &BooleanLiteral{Span: spanOf(token), Value: true}, nil
		case "false":
			return &BooleanLiteral{Span: spanOf(token), Value: false}, nil
		}
		return &Identifier{Span: spanOf(token), Name: token.Literal}, nil

	case TokenInput, TokenOutput, TokenVar:
		// Short keywords double as identifiers in expression position, so
		// loop variables named i or v keep working.
		p.advance()
		return &Identifier{Span: spanOf(token), Name: token.Literal}, nil

	case TokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenLBracket:
		return p.parseArrayLiteral()

	case TokenLBrace:
		return p.parseObjectLiteral()

	default:
		return nil, p.errorf(nil, "Unexpected token in expression: %s", token.Type)
	}
}

// parseOperationExpr parses op:operator(arg1,arg2,...). The operator is
// taken from the next token's lexeme, whatever kind it is.
func (p *Parser) parseOperationExpr() (*Operation, error) {
	token, err := p.expect(TokenOp)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	operator := p.advance().Literal

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var operands []Expression
	for !p.match(TokenRParen) {
		operand, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
		if p.match(TokenComma) {
			p.advance()
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return &Operation{Span: spanOf(token), Operator: operator, Operands: operands}, nil
}

// parsePythonExpr captures a py: expression verbatim until an unbalanced
// closer or a VL delimiter at depth zero.
func (p *Parser) parsePythonExpr() (*OpaqueExpr, error) {
	token, err := p.expect(TokenPy)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	var parts []string
	parenDepth, bracketDepth, braceDepth := 0, 0, 0

loop:
	for !p.match(TokenEOF) {
		switch p.current().Type {
		case TokenString:
			parts = append(parts, "'"+p.advance().Literal+"'")
		case TokenLParen:
			parenDepth++
			parts = append(parts, "(")
			p.advance()
		case TokenRParen:
			if parenDepth == 0 {
				break loop
			}
			parenDepth--
			parts = append(parts, ")")
			p.advance()
		case TokenLBracket:
			bracketDepth++
			parts = append(parts, "[")
			p.advance()
		case TokenRBracket:
			if bracketDepth == 0 {
				break loop
			}
			bracketDepth--
			parts = append(parts, "]")
			p.advance()
		case TokenLBrace:
			braceDepth++
			parts = append(parts, "{")
			p.advance()
		case TokenRBrace:
			if braceDepth == 0 {
				break loop
			}
			braceDepth--
			parts = append(parts, "}")
			p.advance()
		case TokenPipe, TokenComma, TokenNewline:
			if parenDepth == 0 && bracketDepth == 0 && braceDepth == 0 {
				break loop
			}
			parts = append(parts, p.advance().Literal)
		default:
			parts = append(parts, p.advance().Literal)
		}
	}

	return &OpaqueExpr{Span: spanOf(token), Code: strings.Join(parts, "")}, nil
}

// parsePythonStmt captures a statement-level py: passthrough until a pipe,
// newline, or EOF. Runs of @ are kept intact; @@@ is the passthrough's line
// separator.
func (p *Parser) parsePythonStmt() (*PythonStmt, error) {
	token, err := p.expect(TokenPy)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	var parts []string
	for !p.match(TokenEOF, TokenPipe, TokenNewline) {
		switch p.current().Type {
		case TokenString:
			parts = append(parts, "'"+p.advance().Literal+"'")
		case TokenComma:
			parts = append(parts, ", ")
			p.advance()
		case TokenAt:
			count := 0
			for p.match(TokenAt) {
				count++
				p.advance()
			}
			parts = append(parts, strings.Repeat("@", count))
		default:
			parts = append(parts, p.advance().Literal)
		}
	}

	return &PythonStmt{Span: spanOf(token), Code: strings.Join(parts, "")}, nil
}

// parseArrayLiteral parses [1,2,3]. A Python-style comprehension (a for at
// bracket depth one) is captured verbatim as an OpaqueExpr instead of being
// parsed structurally; this is a deliberate escape hatch.
func (p *Parser) parseArrayLiteral() (Expression, error) {
	token, err := p.expect(TokenLBracket)
	if err != nil {
		return nil, err
	}

	if p.scanComprehension() {
		var parts []string
		depth := 1
		for !p.match(TokenEOF) {
			switch p.current().Type {
			case TokenLBracket:
				depth++
			case TokenRBracket:
				depth--
				if depth == 0 {
					p.advance()
					return &OpaqueExpr{
						Span: spanOf(token),
						Code: "[" + strings.Join(parts, " ") + "]",
					}, nil
				}
			}
			parts = append(parts, p.advance().Literal)
		}
		return nil, p.errorf([]string{"Check for matching brackets"}, "Unterminated list comprehension")
	}

	var elements []Expression
	for !p.match(TokenRBracket) {
		element, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
		if p.match(TokenComma) {
			p.advance()
		}
	}
	if _, err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}

	return &ArrayLiteral{Span: spanOf(token), Elements: elements}, nil
}

// scanComprehension looks ahead, without consuming, for a for keyword before
// the matching ] at the current bracket depth.
func (p *Parser) scanComprehension() bool {
	depth := 1
	for offset := 0; ; offset++ {
		tok := p.peek(offset)
		switch tok.Type {
		case TokenEOF:
			return false
		case TokenLBracket:
			depth++
		case TokenRBracket:
			depth--
			if depth == 0 {
				return false
			}
		case TokenFor:
			if depth == 1 {
				return true
			}
		}
	}
}

// Keyword lexemes accepted as object literal keys.
var objectKeyKeywords = map[TokenType]bool{
	TokenInput: true, TokenOutput: true, TokenFn: true, TokenMeta: true,
	TokenVar: true, TokenFor: true, TokenWhile: true, TokenIf: true,
	TokenElse: true, TokenRet: true, TokenExport: true, TokenOp: true,
	TokenPy: true,
}

// parseObjectLiteral parses {key:value,...}. Reserved words are valid keys,
// and an fn: value produces a FunctionExpr for method-style members.
func (p *Parser) parseObjectLiteral() (*ObjectLiteral, error) {
	token, err := p.expect(TokenLBrace)
	if err != nil {
		return nil, err
	}

	var fields []ObjectField
	for !p.match(TokenRBrace) {
		var key string
		switch {
		case p.match(TokenIdentifier):
			key = p.advance().Literal
		case objectKeyKeywords[p.current().Type]:
			key = p.advance().Literal
		default:
			return nil, p.errorf(nil, "Expected object key (identifier or keyword), got %s", p.current().Type)
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}

		var value Expression
		if p.match(TokenFn) {
			value, err = p.parseFunctionExpr()
		} else {
			value, err = p.parseExpression()
		}
		if err != nil {
			return nil, err
		}
		fields = append(fields, ObjectField{Key: key, Value: value})

		if p.match(TokenComma) {
			p.advance()
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}

	return &ObjectLiteral{Span: spanOf(token), Fields: fields}, nil
}

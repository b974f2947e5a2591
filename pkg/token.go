package vl

import "fmt"

// TokenType identifies the kind of a lexed token. The set is closed: the
// lexer never emits a type outside this enumeration.
type TokenType int

const (
	// Keywords
	TokenMeta TokenType = iota
	TokenDeps
	TokenExport
	TokenFn
	TokenInput  // i
	TokenOutput // o
	TokenRet
	TokenVar // v
	TokenOp
	TokenIf
	TokenElse
	TokenFor
	TokenWhile
	TokenAPI
	TokenAsync
	TokenFilter
	TokenMap
	TokenParse
	TokenUI
	TokenState
	TokenProps
	TokenOn
	TokenRender
	TokenData
	TokenGroupBy
	TokenAgg
	TokenSort
	TokenFile
	TokenFFI
	TokenClass
	TokenSelf
	TokenPy
	TokenIn

	// Type keywords
	TokenTypeInt
	TokenTypeFloat
	TokenTypeStr
	TokenTypeBool
	TokenTypeArr
	TokenTypeObj
	TokenTypeMap
	TokenTypeSet
	TokenTypeAny
	TokenTypeVoid
	TokenTypePromise
	TokenTypeFunc

	// Operators
	TokenPlus
	TokenMinus
	TokenMultiply
	TokenDivide
	TokenModulo
	TokenPower
	TokenEqual
	TokenNotEqual
	TokenLessThan
	TokenGreaterThan
	TokenLessEqual
	TokenGreaterEqual
	TokenAnd
	TokenOr
	TokenNot

	// Delimiters
	TokenColon
	TokenPipe
	TokenComma
	TokenEquals
	TokenPlusEquals
	TokenMinusEquals
	TokenTimesEquals
	TokenDivEquals
	TokenDotDot
	TokenQuestion
	TokenDollar
	TokenAt
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenDot

	// Literals
	TokenNumber
	TokenString
	TokenIdentifier

	// Structural
	TokenNewline
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenMeta:         "META",
	TokenDeps:         "DEPS",
	TokenExport:       "EXPORT",
	TokenFn:           "FN",
	TokenInput:        "INPUT",
	TokenOutput:       "OUTPUT",
	TokenRet:          "RET",
	TokenVar:          "VAR",
	TokenOp:           "OP",
	TokenIf:           "IF",
	TokenElse:         "ELSE",
	TokenFor:          "FOR",
	TokenWhile:        "WHILE",
	TokenAPI:          "API",
	TokenAsync:        "ASYNC",
	TokenFilter:       "FILTER",
	TokenMap:          "MAP",
	TokenParse:        "PARSE",
	TokenUI:           "UI",
	TokenState:        "STATE",
	TokenProps:        "PROPS",
	TokenOn:           "ON",
	TokenRender:       "RENDER",
	TokenData:         "DATA",
	TokenGroupBy:      "GROUPBY",
	TokenAgg:          "AGG",
	TokenSort:         "SORT",
	TokenFile:         "FILE",
	TokenFFI:          "FFI",
	TokenClass:        "CLASS",
	TokenSelf:         "SELF",
	TokenPy:           "PY",
	TokenIn:           "IN",
	TokenTypeInt:      "TYPE_INT",
	TokenTypeFloat:    "TYPE_FLOAT",
	TokenTypeStr:      "TYPE_STR",
	TokenTypeBool:     "TYPE_BOOL",
	TokenTypeArr:      "TYPE_ARR",
	TokenTypeObj:      "TYPE_OBJ",
	TokenTypeMap:      "TYPE_MAP",
	TokenTypeSet:      "TYPE_SET",
	TokenTypeAny:      "TYPE_ANY",
	TokenTypeVoid:     "TYPE_VOID",
	TokenTypePromise:  "TYPE_PROMISE",
	TokenTypeFunc:     "TYPE_FUNC",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenMultiply:     "MULTIPLY",
	TokenDivide:       "DIVIDE",
	TokenModulo:       "MODULO",
	TokenPower:        "POWER",
	TokenEqual:        "EQUAL",
	TokenNotEqual:     "NOT_EQUAL",
	TokenLessThan:     "LESS_THAN",
	TokenGreaterThan:  "GREATER_THAN",
	TokenLessEqual:    "LESS_EQUAL",
	TokenGreaterEqual: "GREATER_EQUAL",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
	TokenColon:        "COLON",
	TokenPipe:         "PIPE",
	TokenComma:        "COMMA",
	TokenEquals:       "EQUALS",
	TokenPlusEquals:   "PLUS_EQUALS",
	TokenMinusEquals:  "MINUS_EQUALS",
	TokenTimesEquals:  "TIMES_EQUALS",
	TokenDivEquals:    "DIV_EQUALS",
	TokenDotDot:       "DOTDOT",
	TokenQuestion:     "QUESTION",
	TokenDollar:       "DOLLAR",
	TokenAt:           "AT",
	TokenLParen:       "LPAREN",
	TokenRParen:       "RPAREN",
	TokenLBrace:       "LBRACE",
	TokenRBrace:       "RBRACE",
	TokenLBracket:     "LBRACKET",
	TokenRBracket:     "RBRACKET",
	TokenDot:          "DOT",
	TokenNumber:       "NUMBER",
	TokenString:       "STRING",
	TokenIdentifier:   "IDENTIFIER",
	TokenNewline:      "NEWLINE",
	TokenEOF:          "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a single lexed unit. Immutable once created.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, %d:%d)", t.Type, t.Literal, t.Line, t.Column)
}

var keywordTable = map[string]TokenType{
	"meta":    TokenMeta,
	"deps":    TokenDeps,
	"export":  TokenExport,
	"fn":      TokenFn,
	"i":       TokenInput,
	"o":       TokenOutput,
	"ret":     TokenRet,
	"v":       TokenVar,
	"op":      TokenOp,
	"if":      TokenIf,
	"else":    TokenElse,
	"for":     TokenFor,
	"while":   TokenWhile,
	"api":     TokenAPI,
	"async":   TokenAsync,
	"filter":  TokenFilter,
	"map":     TokenMap,
	"parse":   TokenParse,
	"ui":      TokenUI,
	"state":   TokenState,
	"props":   TokenProps,
	"on":      TokenOn,
	"render":  TokenRender,
	"data":    TokenData,
	"groupBy": TokenGroupBy,
	"agg":     TokenAgg,
	"sort":    TokenSort,
	"file":    TokenFile,
	"ffi":     TokenFFI,
	"class":   TokenClass,
	"self":    TokenSelf,
	"py":      TokenPy,
	"in":      TokenIn,
}

var typeTable = map[string]TokenType{
	"int":     TokenTypeInt,
	"float":   TokenTypeFloat,
	"str":     TokenTypeStr,
	"bool":    TokenTypeBool,
	"arr":     TokenTypeArr,
	"obj":     TokenTypeObj,
	"map":     TokenTypeMap,
	"set":     TokenTypeSet,
	"any":     TokenTypeAny,
	"void":    TokenTypeVoid,
	"promise": TokenTypePromise,
	"func":    TokenTypeFunc,
}

// Two-character operators are matched before single-character ones.
var twoCharOperatorTable = map[string]TokenType{
	"**": TokenPower,
	"==": TokenEqual,
	"!=": TokenNotEqual,
	"<=": TokenLessEqual,
	">=": TokenGreaterEqual,
	"&&": TokenAnd,
	"||": TokenOr,
	"+=": TokenPlusEquals,
	"-=": TokenMinusEquals,
	"*=": TokenTimesEquals,
	"/=": TokenDivEquals,
	"..": TokenDotDot,
}

var oneCharOperatorTable = map[rune]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMultiply,
	'/': TokenDivide,
	'%': TokenModulo,
	'<': TokenLessThan,
	'>': TokenGreaterThan,
	'!': TokenNot,
}

var delimiterTable = map[rune]TokenType{
	':': TokenColon,
	'|': TokenPipe,
	',': TokenComma,
	'=': TokenEquals,
	'?': TokenQuestion,
	'$': TokenDollar,
	'@': TokenAt,
	'(': TokenLParen,
	')': TokenRParen,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
	'.': TokenDot,
}

// lookupWord resolves an identifier-shaped lexeme against the keyword table,
// then the type table, and falls back to IDENTIFIER.
func lookupWord(word string) TokenType {
	if t, ok := keywordTable[word]; ok {
		return t
	}
	if t, ok := typeTable[word]; ok {
		return t
	}
	return TokenIdentifier
}

// isTypeToken reports whether t is one of the closed type-keyword tokens.
func isTypeToken(t TokenType) bool {
	switch t {
	case TokenTypeInt, TokenTypeFloat, TokenTypeStr, TokenTypeBool,
		TokenTypeArr, TokenTypeObj, TokenTypeMap, TokenTypeSet,
		TokenTypeAny, TokenTypeVoid, TokenTypePromise, TokenTypeFunc:
		return true
	}
	return false
}

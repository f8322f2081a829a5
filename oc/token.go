package oc

// TokenType classifies lexical tokens of the OC format.
type TokenType int

const (
	// Keywords
	KwNamespace TokenType = iota
	KwElement
	KwComponent
	KwController
	KwInput
	KwOutput
	KwState
	KwConfig
	KwMemory
	KwUpdate
	KwOperation
	KwFrequency

	// Types
	TyFloat
	TyInt
	TyAuto

	// Literals
	Identifier
	Number
	StringLiteral

	// Punctuation
	LBrace
	RBrace
	LParen
	RParen
	Semicolon
	Comma
	Colon

	// Operators
	OpAssign
	OpDot
	OpScope

	// Special
	Comment
	EOF
)

// Token is a single lexical token with its source position.
// Line and Column are 1-based.
type Token struct {
	Type   TokenType
	Text   string
	Line   int
	Column int
}

var keywords = map[string]TokenType{
	"namespace":  KwNamespace,
	"element":    KwElement,
	"component":  KwComponent,
	"controller": KwController,
	"input":      KwInput,
	"output":     KwOutput,
	"state":      KwState,
	"config":     KwConfig,
	"memory":     KwMemory,
	"update":     KwUpdate,
	"operation":  KwOperation,
	"frequency":  KwFrequency,
	"float":      TyFloat,
	"int":        TyInt,
	"auto":       TyAuto,
}

var tokenNames = map[TokenType]string{
	KwNamespace:   "namespace",
	KwElement:     "element",
	KwComponent:   "component",
	KwController:  "controller",
	KwInput:       "input",
	KwOutput:      "output",
	KwState:       "state",
	KwConfig:      "config",
	KwMemory:      "memory",
	KwUpdate:      "update",
	KwOperation:   "operation",
	KwFrequency:   "frequency",
	TyFloat:       "float",
	TyInt:         "int",
	TyAuto:        "auto",
	Identifier:    "identifier",
	Number:        "number",
	StringLiteral: "string",
	LBrace:        "{",
	RBrace:        "}",
	LParen:        "(",
	RParen:        ")",
	Semicolon:     ";",
	Comma:         ",",
	Colon:         ":",
	OpAssign:      "=",
	OpDot:         ".",
	OpScope:       "::",
	Comment:       "comment",
	EOF:           "EOF",
}

// String returns the display name used in parse error messages.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

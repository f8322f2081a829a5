package oc

// Lexer tokenizes OC source text. Comments are consumed and dropped;
// callers that need comment-carrying lines (the diagram rebuilder)
// scan the raw source instead.
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize scans the whole input and appends a trailing EOF token.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for l.pos < len(l.input) {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		tok := l.next()
		if tok.Type == Comment {
			continue
		}
		tokens = append(tokens, tok)
	}
	tokens = append(tokens, Token{Type: EOF, Line: l.line, Column: l.col})
	return tokens
}

func (l *Lexer) next() Token {
	startLine := l.line
	startCol := l.col
	c := l.input[l.pos]

	// Single-line comment
	if c == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/' {
		start := l.pos
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.advance()
		}
		return Token{Type: Comment, Text: l.input[start:l.pos], Line: startLine, Column: startCol}
	}

	if c == '"' {
		l.advance()
		start := l.pos
		for l.pos < len(l.input) && l.input[l.pos] != '"' {
			if l.input[l.pos] == '\\' && l.pos+1 < len(l.input) {
				l.advance()
			}
			l.advance()
		}
		text := l.input[start:l.pos]
		if l.pos < len(l.input) {
			l.advance() // closing quote
		}
		return Token{Type: StringLiteral, Text: text, Line: startLine, Column: startCol}
	}

	switch c {
	case '{':
		l.advance()
		return Token{Type: LBrace, Text: "{", Line: startLine, Column: startCol}
	case '}':
		l.advance()
		return Token{Type: RBrace, Text: "}", Line: startLine, Column: startCol}
	case '(':
		l.advance()
		return Token{Type: LParen, Text: "(", Line: startLine, Column: startCol}
	case ')':
		l.advance()
		return Token{Type: RParen, Text: ")", Line: startLine, Column: startCol}
	case ';':
		l.advance()
		return Token{Type: Semicolon, Text: ";", Line: startLine, Column: startCol}
	case ',':
		l.advance()
		return Token{Type: Comma, Text: ",", Line: startLine, Column: startCol}
	case '=':
		l.advance()
		return Token{Type: OpAssign, Text: "=", Line: startLine, Column: startCol}
	case '.':
		l.advance()
		return Token{Type: OpDot, Text: ".", Line: startLine, Column: startCol}
	case ':':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == ':' {
			l.advance()
			l.advance()
			return Token{Type: OpScope, Text: "::", Line: startLine, Column: startCol}
		}
		l.advance()
		return Token{Type: Colon, Text: ":", Line: startLine, Column: startCol}
	}

	if isDigit(c) || (c == '-' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])) {
		return l.lexNumber(startLine, startCol)
	}

	if isAlpha(c) || c == '_' {
		start := l.pos
		for l.pos < len(l.input) && (isAlnum(l.input[l.pos]) || l.input[l.pos] == '_') {
			l.advance()
		}
		text := l.input[start:l.pos]
		if ty, ok := keywords[text]; ok {
			return Token{Type: ty, Text: text, Line: startLine, Column: startCol}
		}
		return Token{Type: Identifier, Text: text, Line: startLine, Column: startCol}
	}

	// Unknown character: consume it and surface it as an identifier so
	// the parser reports it at the right position.
	l.advance()
	return Token{Type: Identifier, Text: string(c), Line: startLine, Column: startCol}
}

func (l *Lexer) lexNumber(startLine, startCol int) Token {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.advance()
	}
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.advance()
	}
	// Scientific notation
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.advance()
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.advance()
		}
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
		}
	}
	// Float suffix
	if l.pos < len(l.input) && (l.input[l.pos] == 'f' || l.input[l.pos] == 'F') {
		l.advance()
	}
	return Token{Type: Number, Text: l.input[start:l.pos], Line: startLine, Column: startCol}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }

package oc

import "strings"

// Parser is a recursive descent parser for the OC format. Errors are
// accumulated with source positions rather than aborting the parse, so
// a single run reports every problem in a file.
type Parser struct {
	tokens []Token
	pos    int
	errs   []ParseError
}

// Parse tokenizes and parses source into a File. The returned error
// slice is empty on a clean parse.
func Parse(source string) (File, []ParseError) {
	p := &Parser{}
	file := p.parse(source)
	return file, p.errs
}

func (p *Parser) parse(source string) File {
	p.tokens = NewLexer(source).Tokenize()
	p.pos = 0
	p.errs = nil

	var file File
	for !p.atEnd() {
		if p.check(KwNamespace) {
			file.Namespaces = append(file.Namespaces, p.parseNamespace())
		} else {
			p.error("Expected 'namespace' at top level")
			p.advance()
		}
	}
	return file
}

func (p *Parser) parseNamespace() Namespace {
	var ns Namespace
	p.expect(KwNamespace)
	ns.Name = p.expectIdentifier()
	p.expect(LBrace)

	for !p.check(RBrace) && !p.atEnd() {
		switch {
		case p.check(KwElement):
			ns.Elements = append(ns.Elements, p.parseElement())
		case p.check(KwComponent):
			ns.Components = append(ns.Components, p.parseComponent())
		case p.check(KwController):
			// Controller blocks are not handled yet; brace-match past them.
			p.advance()
			p.skipIdentifier()
			p.skipBraceBlock()
		default:
			p.error("Expected 'element', 'component', or 'controller' inside namespace")
			p.advance()
		}
	}
	p.expect(RBrace)
	return ns
}

func (p *Parser) parseElement() Element {
	var elem Element
	p.expect(KwElement)
	elem.Name = p.expectIdentifier()
	p.expect(LBrace)

	for !p.check(RBrace) && !p.atEnd() {
		switch {
		case p.check(KwFrequency):
			elem.Frequency = p.parseFrequency()
		case p.isSectionStart():
			elem.Sections = append(elem.Sections, p.parseSection())
		case p.check(KwUpdate) || p.check(KwOperation):
			elem.Update = p.parseUpdate()
		default:
			p.error("Unexpected token in element body")
			p.advance()
		}
	}
	p.expect(RBrace)
	return elem
}

func (p *Parser) parseComponent() Component {
	var comp Component
	p.expect(KwComponent)
	comp.Name = p.expectIdentifier()
	p.expect(LBrace)

	for !p.check(RBrace) && !p.atEnd() {
		switch {
		case p.isSectionStart():
			comp.Sections = append(comp.Sections, p.parseSection())
		case p.check(KwUpdate) || p.check(KwOperation):
			comp.Update = p.parseUpdate()
		default:
			p.error("Unexpected token in component body")
			p.advance()
		}
	}
	p.expect(RBrace)
	return comp
}

func (p *Parser) parseFrequency() string {
	p.expect(KwFrequency)
	if p.check(Colon) {
		p.advance()
	}

	// Everything up to the semicolon (or the next structural token when
	// the semicolon was forgotten) is the frequency expression.
	var parts []string
	for !p.check(Semicolon) && !p.check(RBrace) &&
		!p.isSectionKeyword() && !p.check(KwUpdate) && !p.check(KwOperation) &&
		!p.atEnd() {
		parts = append(parts, p.current().Text)
		p.advance()
	}
	if p.check(Semicolon) {
		p.advance()
	}
	return strings.Join(parts, " ")
}

func (p *Parser) parseSection() Section {
	sec := Section{Kind: p.current().Text}
	p.advance()

	switch {
	case p.check(LBrace):
		p.advance()
		for !p.check(RBrace) && !p.atEnd() {
			sec.Variables = append(sec.Variables, p.parseVarDecl())
		}
		p.expect(RBrace)
	case p.check(Colon):
		p.advance()
		// Colon style: declarations run until the next section keyword
		// or the closing brace of the enclosing entity.
		for !p.isSectionKeyword() && !p.check(RBrace) &&
			!p.check(KwUpdate) && !p.check(KwOperation) && !p.atEnd() {
			sec.Variables = append(sec.Variables, p.parseVarDecl())
		}
	default:
		p.expect(LBrace)
	}
	return sec
}

func (p *Parser) parseVarDecl() VarDecl {
	var v VarDecl

	if p.isTypeToken() || p.check(Identifier) {
		v.Type = p.current().Text
		p.advance()
	} else {
		p.error("Expected type in variable declaration")
		p.advance()
		return v
	}

	if p.check(Identifier) || p.isKeywordUsableAsName() {
		v.Name = p.current().Text
		p.advance()
	} else {
		p.error("Expected variable name after type")
		return v
	}

	if p.check(OpAssign) {
		p.advance()
		var parts []string
		parenDepth := 0
		for !p.atEnd() {
			if p.check(Semicolon) && parenDepth == 0 {
				break
			}
			if p.check(LParen) {
				parenDepth++
			}
			if p.check(RParen) {
				parenDepth--
			}
			parts = append(parts, p.current().Text)
			p.advance()
		}
		v.DefaultValue = strings.Join(parts, " ")
	}

	if p.check(Semicolon) {
		p.advance()
	}
	return v
}

func (p *Parser) parseUpdate() UpdateBody {
	var body UpdateBody
	p.advance() // update or operation
	p.expect(LBrace)

	depth := 1
	start := p.pos
	for !p.atEnd() && depth > 0 {
		if p.check(LBrace) {
			depth++
		}
		if p.check(RBrace) {
			depth--
			if depth == 0 {
				break
			}
		}
		p.advance()
	}

	body.RawCode = p.reconstructCode(start, p.pos)
	p.expect(RBrace)
	return body
}

// reconstructCode rebuilds source text from the token stream, using the
// recorded positions to restore line breaks and indentation. Comments
// were dropped by the lexer, so the result is comment-free.
func (p *Parser) reconstructCode(start, end int) string {
	var code strings.Builder
	for i := start; i < end; i++ {
		curr := &p.tokens[i]
		if i > start {
			prev := &p.tokens[i-1]
			switch {
			case curr.Line > prev.Line:
				for l := 0; l < curr.Line-prev.Line; l++ {
					code.WriteByte('\n')
				}
				for s := 1; s < curr.Column; s++ {
					code.WriteByte(' ')
				}
			case curr.Column > prev.Column+len(prev.Text):
				for s := 0; s < curr.Column-(prev.Column+len(prev.Text)); s++ {
					code.WriteByte(' ')
				}
			default:
				code.WriteByte(' ')
			}
		} else if start > 0 && curr.Line > p.tokens[start-1].Line {
			code.WriteByte('\n')
			for s := 1; s < curr.Column; s++ {
				code.WriteByte(' ')
			}
		}
		code.WriteString(curr.Text)
	}
	return code.String()
}

// ─── Parser primitives ───

func (p *Parser) current() *Token { return &p.tokens[p.pos] }

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == EOF
}

func (p *Parser) check(ty TokenType) bool {
	return !p.atEnd() && p.tokens[p.pos].Type == ty
}

func (p *Parser) advance() {
	if !p.atEnd() {
		p.pos++
	}
}

func (p *Parser) expect(ty TokenType) {
	if !p.check(ty) {
		got := "EOF"
		if !p.atEnd() {
			got = p.current().Text
		}
		p.error("Expected '" + ty.String() + "', got '" + got + "'")
		return
	}
	p.advance()
}

func (p *Parser) expectIdentifier() string {
	if p.check(Identifier) || p.isKeywordUsableAsName() {
		text := p.current().Text
		p.advance()
		return text
	}
	got := "EOF"
	if !p.atEnd() {
		got = p.current().Text
	}
	p.error("Expected identifier, got '" + got + "'")
	return "<error>"
}

func (p *Parser) skipIdentifier() {
	if p.check(Identifier) || p.isKeywordUsableAsName() {
		p.advance()
	}
}

func (p *Parser) skipBraceBlock() {
	if !p.check(LBrace) {
		return
	}
	p.advance()
	depth := 1
	for !p.atEnd() && depth > 0 {
		if p.check(LBrace) {
			depth++
		}
		if p.check(RBrace) {
			depth--
		}
		p.advance()
	}
}

func (p *Parser) isTypeToken() bool {
	return p.check(TyFloat) || p.check(TyInt) || p.check(TyAuto)
}

// Section keywords double as variable names: "input" is a fine name
// for a gain's input port.
func (p *Parser) isKeywordUsableAsName() bool {
	if p.atEnd() {
		return false
	}
	switch p.tokens[p.pos].Type {
	case KwInput, KwOutput, KwState, KwConfig, KwMemory:
		return true
	}
	return false
}

func (p *Parser) isSectionStart() bool {
	switch {
	case p.check(KwInput), p.check(KwOutput), p.check(KwState), p.check(KwConfig), p.check(KwMemory):
		return true
	}
	return false
}

func (p *Parser) isSectionKeyword() bool {
	return p.isSectionStart() || p.check(KwFrequency)
}

func (p *Parser) error(msg string) {
	var err ParseError
	if !p.atEnd() {
		err.Line = p.current().Line
		err.Column = p.current().Column
	}
	err.Message = msg
	p.errs = append(p.errs, err)
}

package parser

import (
	"fmt"
	"strconv"
	"strings"

	"go.creack.net/chip8/op"
)

// Node is an element of a program: label, instruction or directive.
type Node interface {
	Encode(p *Program) ([]byte, error)
	PrettyPrint(prev Node) string // prev is the node printed before, nil when first.
}

// Parser structure
type Parser struct {
	lexer     *lexer
	currToken item
	peekToken item

	Nodes []Node
}

// NewParser creates a new parser
func NewParser(name, input string) *Parser {
	p := &Parser{
		lexer: NewLexer(name, input),
	}
	// Preload the next token.
	p.nextToken()
	return p
}

// GetDirective returns the value of the first directive with the given name, with or without the leading dot.
func (p *Parser) GetDirective(name string) string {
	name = strings.TrimPrefix(name, string(op.DirectiveChar))
	for _, n := range p.Nodes {
		if d, ok := n.(*Directive); ok && d.Name == name {
			return d.Value
		}
	}
	return ""
}

func (p *Parser) parseDirective() error {
	d := &Directive{Name: strings.ToLower(strings.TrimPrefix(p.currToken.val, string(op.DirectiveChar)))}

	switch d.Name {
	case "name":
		p.nextToken()
		if p.currToken.typ != itemRawString {
			return fmt.Errorf("expected string, got %s for %q", p.currToken, d.Name)
		}
		v, err := strconv.Unquote(p.currToken.val)
		if err != nil {
			return fmt.Errorf("invalid string %s: %w", p.currToken.val, err)
		}
		if p.GetDirective(d.Name) != "" {
			return fmt.Errorf("duplicate directive %q", d.Name)
		}
		d.Value = v
		p.nextToken()
		if !p.currToken.typ.isEOL() {
			return fmt.Errorf("unexpected token %s after directive %q", p.currToken, d.Name)
		}
	case "byte", "word":
		params, err := p.parseParameters()
		if err != nil {
			return fmt.Errorf("directive %q: %w", d.Name, err)
		}
		if len(params) == 0 {
			return fmt.Errorf("directive %q: missing value", d.Name)
		}
		for _, elem := range params {
			if elem.Typ&op.TAddr == 0 {
				return fmt.Errorf("directive %q: invalid value %s", d.Name, elem)
			}
		}
		d.Params = params
	default:
		return fmt.Errorf("unknown directive %q", d.Name)
	}

	p.Nodes = append(p.Nodes, d)
	return nil
}

func (p *Parser) parseLabel() error {
	name := strings.ToLower(p.currToken.val)
	if _, ok := keywords[name]; ok || isRegister(name) {
		return fmt.Errorf("reserved label name %q", p.currToken.val)
	}
	if len(op.LookupName(name)) != 0 {
		return fmt.Errorf("reserved label name %q", p.currToken.val)
	}
	for _, n := range p.Nodes {
		if l, ok := n.(*Label); ok && l.Name == name {
			return fmt.Errorf("duplicate label %q", name)
		}
	}
	p.Nodes = append(p.Nodes, &Label{Name: name})
	return nil
}

func (p *Parser) parseInstruction() error {
	name := strings.ToLower(p.currToken.val)
	candidates := op.LookupName(name)
	if len(candidates) == 0 {
		return fmt.Errorf("unknown instruction %q", p.currToken.val)
	}

	params, err := p.parseParameters()
	if err != nil {
		return fmt.Errorf("instruction %q: %w", name, err)
	}

	ins := &Instruction{Params: params}
	var lastErr error
	for _, elem := range candidates {
		ins.OpCode = elem
		if lastErr = ins.ValidateParameters(); lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		if len(candidates) > 1 {
			return fmt.Errorf("invalid instruction %s: no %q variant takes %s", ins, name, paramsKinds(params))
		}
		return fmt.Errorf("invalid instruction %s: %w", ins, lastErr)
	}
	p.Nodes = append(p.Nodes, ins)
	return nil
}

func paramsKinds(params []*Parameter) string {
	kinds := make([]string, 0, len(params))
	for _, elem := range params {
		kinds = append(kinds, elem.Typ.String())
	}
	if len(kinds) == 0 {
		return "no parameters"
	}
	return "(" + strings.Join(kinds, string(op.SeparatorChar)+" ") + ")"
}

// parseParameters reads a comma separated list until the end of the line.
func (p *Parser) parseParameters() ([]*Parameter, error) {
	var params []*Parameter
	for {
		p.nextToken()
		if p.currToken.typ.isEOL() {
			if len(params) > 0 {
				return nil, fmt.Errorf("unexpected end of line after comma")
			}
			return nil, nil
		}

		param, err := newParameter(p.currToken)
		if err != nil {
			return nil, err
		}
		params = append(params, param)

		p.nextToken()
		if p.currToken.typ.isEOL() {
			return params, nil
		}
		if p.currToken.typ != itemComa {
			return nil, fmt.Errorf("unexpected token %s, expected comma", p.currToken)
		}
	}
}

// nextToken advances to the next token
func (p *Parser) nextToken() {
	p.currToken = p.peekToken
	p.peekToken = p.lexer.nextItem()
}

func (p *Parser) Parse() error {
	for {
		p.nextToken()
		item := p.currToken
		if item.typ == itemEOF {
			break
		}
		if item.typ == itemError {
			return fmt.Errorf("[%d:%d]: %s", item.line, item.pos, item.val)
		}

		var err error
		switch item.typ {
		case itemNewline, itemComment:
			continue
		case itemDirective:
			err = p.parseDirective()
		case itemLabel:
			err = p.parseLabel()
		case itemIdentifier:
			err = p.parseInstruction()
		default:
			err = fmt.Errorf("unexpected item %s", item)
		}
		if err != nil {
			// A lexer error hit while parsing the line is more telling.
			if p.currToken.typ == itemError {
				return fmt.Errorf("[%d:%d]: %s", p.currToken.line, p.currToken.pos, p.currToken.val)
			}
			return fmt.Errorf("[%d:%d]: %w", item.line, item.pos, err)
		}
		// Statements end with the line, a lingering error is still an error.
		if p.currToken.typ == itemEOF {
			break
		}
	}

	return nil
}

package parser

import (
	"fmt"
	"strings"

	"go.creack.net/chip8/op"
)

type Program struct {
	*Parser

	origin           uint16 // Load address of the first byte.
	buf              []byte
	idx              int
	labels           map[string]uint16
	hasLabelIndex    bool
	hasMissingLabels bool
}

func NewProgram(p *Parser, origin uint16) *Program {
	return &Program{
		Parser: p,

		origin:           origin,
		buf:              make([]byte, op.MemSize),
		idx:              0,
		labels:           nil, // Keeping as nil to indicate that we don't have any labels yet.
		hasLabelIndex:    false,
		hasMissingLabels: false,
	}
}

func (p Program) Size() int {
	return p.idx
}

// Addr returns the address of the next byte to be encoded.
func (p Program) Addr() uint16 {
	return p.origin + uint16(p.idx)
}

// Labels returns the address of each label.
func (p Program) Labels() map[string]uint16 {
	return p.labels
}

// write appends the encoded bytes.
func (p *Program) write(b []byte) ([]byte, error) {
	if int(p.origin)+p.idx+len(b) > op.MemSize {
		return nil, fmt.Errorf("program too large, exceeds memory at 0x%03X", p.Addr())
	}
	start := p.idx
	p.idx += copy(p.buf[p.idx:], b)
	return p.buf[start:p.idx], nil
}

// resolve returns the value of a parameter, looking up labels.
// Unknown labels resolve to 0 on the first pass.
func (p *Program) resolve(param *Parameter) (uint16, error) {
	if param.Label == "" {
		return param.Value, nil
	}
	if addr, ok := p.labels[param.Label]; ok {
		param.Value = addr
		return addr, nil
	}
	if p.hasLabelIndex {
		// If we don't know the label while having
		// the labels index, error out.
		return 0, fmt.Errorf("unknown label %q", param.Label)
	}
	p.hasMissingLabels = true
	return 0, nil
}

func (p *Program) encode() error {
	// If we have labels, it means we already encoded once and have the labels index.
	// Error out if we encounter a label that we don't know
	p.hasLabelIndex = p.labels != nil
	if !p.hasLabelIndex {
		p.labels = map[string]uint16{}
	}
	p.idx = 0
	for _, n := range p.Nodes {
		if _, err := n.Encode(p); err != nil {
			return fmt.Errorf("failed to encode %s: %w", n, err)
		}
	}

	return nil
}

func (p *Program) Encode() ([]byte, error) {
	if err := p.encode(); err != nil {
		return nil, fmt.Errorf("failed to first encode program: %w", err)
	}

	// If we don't have any missing labels, we don't need to re-encode.
	if !p.hasMissingLabels {
		return p.buf[:p.idx], nil
	}

	// If we have missing labels, we need to re-encode the program.
	if err := p.encode(); err != nil {
		return nil, fmt.Errorf("failed to re-encode program: %w", err)
	}

	return p.buf[:p.idx], nil
}

// PrettyPrint renders the program back to source.
func (p *Program) PrettyPrint() string {
	out := &strings.Builder{}
	var prev Node
	for _, n := range p.Nodes {
		out.WriteString(n.PrettyPrint(prev))
		out.WriteByte('\n')
		prev = n
	}
	return out.String()
}

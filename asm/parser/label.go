package parser

import "go.creack.net/chip8/op"

type Label struct {
	Name string
}

func (l *Label) PrettyPrint(prev Node) string {
	// Unless we are immediately after a label or first, prefix with a newline.
	if _, ok := prev.(*Label); ok || prev == nil {
		return l.Name + string(op.LabelChar)
	}
	return "\n" + l.Name + string(op.LabelChar)
}

func (l *Label) Encode(p *Program) ([]byte, error) {
	p.labels[l.Name] = p.Addr()
	return nil, nil
}

func (l Label) String() string { return l.Name + string(op.LabelChar) }

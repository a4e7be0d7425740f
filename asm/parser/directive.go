package parser

import (
	"fmt"
	"strconv"
	"strings"

	"go.creack.net/chip8/op"
)

// Directive is either metadata (.name) or raw data (.byte, .word).
type Directive struct {
	Name   string
	Value  string
	Params []*Parameter
	Addr   uint16 // Address of the data, set when encoding.
}

func (d Directive) String() string {
	return fmt.Sprintf("<%c%s %.5q...>", op.DirectiveChar, d.Name, d.Value)
}

func (d *Directive) PrettyPrint(_ Node) string {
	out := string(op.DirectiveChar) + d.Name
	if d.Name == "name" {
		return out + " " + strconv.Quote(d.Value)
	}
	vals := make([]string, 0, len(d.Params))
	for _, elem := range d.Params {
		vals = append(vals, elem.String())
	}
	return "\t" + out + " " + strings.Join(vals, string(op.SeparatorChar)+" ")
}

func (d *Directive) Encode(p *Program) ([]byte, error) {
	d.Addr = p.Addr()
	size, limit := 1, uint16(0xFF)
	switch d.Name {
	case "byte":
	case "word":
		size, limit = 2, 0xFFFF
	default:
		// Metadata, nothing to encode.
		return nil, nil
	}

	buf := make([]byte, 0, size*len(d.Params))
	for _, param := range d.Params {
		v, err := p.resolve(param)
		if err != nil {
			return nil, err
		}
		if v > limit {
			return nil, fmt.Errorf("value %s does not fit in a %s", param, d.Name)
		}
		if size == 1 {
			buf = append(buf, byte(v))
		} else {
			buf = op.Endian.AppendUint16(buf, v)
		}
	}
	return p.write(buf)
}

package parser

import (
	"fmt"
	"strconv"
	"strings"

	"go.creack.net/chip8/op"
)

// Parameter represents a parameter in an instruction or a data directive.
type Parameter struct {
	Typ      op.ParamType // Accepted types. Narrowed to a single one once matched with an opcode.
	Value    uint16       // Register number or numeric value, once resolved.
	RawValue string       // Source form.
	Label    string       // Label reference, resolved when encoding.
}

func (p Parameter) String() string {
	return p.RawValue
}

// Keywords of the implicit parameters.
var keywords = map[string]op.ParamType{
	"i":   op.TI,
	"[i]": op.TIndI,
	"dt":  op.TDT,
	"st":  op.TST,
	"k":   op.TK,
	"f":   op.TF,
	"b":   op.TB,
}

func isRegister(s string) bool {
	if len(s) != 2 || s[0] != op.RegisterChar {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 8)
	return err == nil
}

func parseNumber(in string) (uint64, error) {
	in = strings.ReplaceAll(in, "_", "")
	if strings.HasPrefix(in, "0x") || strings.HasPrefix(in, "0X") {
		return strconv.ParseUint(in[2:], 16, 16)
	} else if strings.HasPrefix(in, "0o") || strings.HasPrefix(in, "0O") {
		return strconv.ParseUint(in[2:], 8, 16)
	} else if strings.HasPrefix(in, "0b") || strings.HasPrefix(in, "0B") {
		return strconv.ParseUint(in[2:], 2, 16)
	}
	return strconv.ParseUint(in, 10, 16)
}

// immediate is the set of types a number or a label can fill.
const immediate = op.TByte | op.TAddr | op.TNibble

func newParameter(it item) (*Parameter, error) {
	param := &Parameter{RawValue: it.val}
	switch it.typ {
	case itemNumber:
		n, err := parseNumber(it.val)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", it.val, err)
		}
		param.Typ = immediate
		param.Value = uint16(n)
	case itemIdentifier:
		name := strings.ToLower(it.val)
		if typ, ok := keywords[name]; ok {
			param.Typ = typ
			param.RawValue = typ.Keyword()
			return param, nil
		}
		if isRegister(name) {
			n, _ := strconv.ParseUint(name[1:], 16, 8)
			param.Typ = op.TVx | op.TVy
			if n == 0 {
				param.Typ |= op.TV0
			}
			param.Value = uint16(n)
			param.RawValue = op.TVx.Format(param.Value)
			return param, nil
		}
		param.Typ = immediate
		param.Label = name
		param.RawValue = name
	case itemError:
		return nil, fmt.Errorf("%s", it.val)
	default:
		return nil, fmt.Errorf("unexpected parameter %s", it)
	}
	return param, nil
}

package parser

import (
	"fmt"
	"strings"

	"go.creack.net/chip8/op"
)

type Instruction struct {
	OpCode op.OpCode    // OpCode reference.
	Params []*Parameter // Parameters.
	Addr   uint16       // Address, set when encoding or decoding.
}

func (ins Instruction) PrettyPrint(_ Node) string {
	paramStrs := make([]string, 0, len(ins.Params))
	for _, param := range ins.Params {
		paramStrs = append(paramStrs, param.String())
	}
	if len(paramStrs) == 0 {
		return "\t" + ins.OpCode.Name
	}
	return fmt.Sprintf("\t%-5s %s", ins.OpCode.Name, strings.Join(paramStrs, string(op.SeparatorChar)+" "))
}

func (ins Instruction) String() string {
	out := "<" + ins.OpCode.Name
	paramStrs := make([]string, 0, len(ins.Params))
	for _, param := range ins.Params {
		paramStrs = append(paramStrs, param.String())
	}
	if len(paramStrs) == 0 {
		return out + ">"
	}
	out += " (" + strings.Join(paramStrs, string(op.SeparatorChar)+" ") + ")"
	return out + ">"
}

// ValidateParameters checks the parameters against the opcode definition.
func (ins Instruction) ValidateParameters() error {
	if len(ins.Params) != len(ins.OpCode.ParamTypes) {
		return fmt.Errorf("expected %d parameters, got %d", len(ins.OpCode.ParamTypes), len(ins.Params))
	}
	for i, param := range ins.Params {
		// Check that `param.Typ` bytes is within the ins.OpCode.ParamTypes[i] mask.
		if param.Typ&ins.OpCode.ParamTypes[i] == 0 {
			return fmt.Errorf("invalid parameter %d type %q for %q, expect %q", i+1, param.Typ, ins.OpCode.Name, ins.OpCode.ParamTypes[i])
		}
	}
	return nil
}

func (ins *Instruction) Encode(p *Program) ([]byte, error) {
	ins.Addr = p.Addr()

	values := make([]uint16, 0, len(ins.Params))
	for i, param := range ins.Params {
		typ := ins.OpCode.ParamTypes[i]
		if typ.Implicit() {
			continue
		}
		v, err := p.resolve(param)
		if err != nil {
			return nil, err
		}
		if v > typ.Max() {
			return nil, fmt.Errorf("parameter %s: value 0x%X does not fit in %s", param, v, typ)
		}
		values = append(values, v)
	}

	word, err := ins.OpCode.Encode(values...)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, op.InstructionSize)
	op.Endian.PutUint16(buf, word)
	return p.write(buf)
}

// DecodeInstruction reverses the encoding of a word.
func DecodeInstruction(word uint16, addr uint16) (*Instruction, error) {
	decoded, err := op.Decode(word)
	if err != nil {
		return nil, err
	}
	ins := &Instruction{OpCode: decoded.OpCode, Addr: addr}
	for _, typ := range decoded.OpCode.ParamTypes {
		v := typ.Decode(word)
		ins.Params = append(ins.Params, &Parameter{Typ: typ, Value: v, RawValue: typ.Format(v)})
	}
	return ins, nil
}

package parser

import (
	"fmt"
	"slices"

	"go.creack.net/chip8/op"
)

// labelName is the generated name of a decoded jump/call/load target.
func labelName(addr uint16) string { return fmt.Sprintf("l_%03x", addr) }

// branchTarget returns the address parameter index of instructions
// referencing code or data, -1 otherwise.
func branchTarget(ins *Instruction) int {
	switch ins.OpCode.Code {
	case op.CodeJP, op.CodeCALL, op.CodeJPV0, op.CodeLDI:
		return slices.Index(ins.OpCode.ParamTypes, op.TAddr)
	default:
		return -1
	}
}

// Decode builds a program from the binary loaded at origin.
// Every word becomes a node: an instruction when valid, a .word otherwise.
// A trailing odd byte becomes a .byte.
// Targets of jumps, calls and I loads landing on a node get a label.
func Decode(name string, data []byte, origin uint16) (*Program, error) {
	if int(origin)+len(data) > op.MemSize {
		return nil, fmt.Errorf("program too large: %d bytes at 0x%03X", len(data), origin)
	}

	type decoded struct {
		addr uint16
		node Node
	}
	var nodes []decoded
	for i := 0; i < len(data); i += op.InstructionSize {
		addr := origin + uint16(i)
		if i+1 >= len(data) {
			nodes = append(nodes, decoded{addr, &Directive{Name: "byte", Addr: addr, Params: []*Parameter{
				{Typ: op.TByte, Value: uint16(data[i]), RawValue: op.TByte.Format(uint16(data[i]))},
			}}})
			break
		}
		word := op.Endian.Uint16(data[i:])
		ins, err := DecodeInstruction(word, addr)
		if err != nil {
			nodes = append(nodes, decoded{addr, &Directive{Name: "word", Addr: addr, Params: []*Parameter{
				{Typ: op.TAddr, Value: word, RawValue: fmt.Sprintf("0x%04X", word)},
			}}})
			continue
		}
		nodes = append(nodes, decoded{addr, ins})
	}

	// Collect the targets landing on a node boundary.
	boundaries := map[uint16]bool{}
	for _, elem := range nodes {
		boundaries[elem.addr] = true
	}
	targets := map[uint16]bool{}
	for _, elem := range nodes {
		ins, ok := elem.node.(*Instruction)
		if !ok {
			continue
		}
		if idx := branchTarget(ins); idx >= 0 && boundaries[ins.Params[idx].Value] {
			param := ins.Params[idx]
			targets[param.Value] = true
			param.Label = labelName(param.Value)
			param.RawValue = param.Label
		}
	}

	p := &Parser{}
	if name != "" {
		p.Nodes = append(p.Nodes, &Directive{Name: "name", Value: name})
	}
	for _, elem := range nodes {
		if targets[elem.addr] {
			p.Nodes = append(p.Nodes, &Label{Name: labelName(elem.addr)})
		}
		p.Nodes = append(p.Nodes, elem.node)
	}
	return NewProgram(p, origin), nil
}

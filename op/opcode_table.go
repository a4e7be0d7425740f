package op

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOpcode is returned when a word doesn't match any known instruction.
var ErrInvalidOpcode = errors.New("invalid opcode")

// Code identifies an instruction independently of its encoding.
type Code int

// Code values.
const (
	CodeInvalid Code = iota
	CodeCLS
	CodeRET
	CodeJP
	CodeCALL
	CodeSEByte
	CodeSNEByte
	CodeSEReg
	CodeLDByte
	CodeADDByte
	CodeLDReg
	CodeOR
	CodeAND
	CodeXOR
	CodeADDReg
	CodeSUB
	CodeSHR
	CodeSUBN
	CodeSHL
	CodeSNEReg
	CodeLDI
	CodeJPV0
	CodeRND
	CodeDRW
	CodeSKP
	CodeSKNP
	CodeLDVxDT
	CodeLDK
	CodeLDDTVx
	CodeLDSTVx
	CodeADDI
	CodeLDF
	CodeLDB
	CodeLDStore
	CodeLDLoad
)

func (c Code) String() string {
	if o, ok := LookupCode(c); ok {
		return o.Name
	}
	return "invalid"
}

// OpCode is the definition of instructions.
type OpCode struct {
	Code       Code
	Name       string
	ParamTypes []ParamType
	Mask       uint16 // Bits fixed by the opcode.
	Pattern    uint16 // Value of the fixed bits.
	Comment    string
}

// OpCodeTable lists every instruction. Patterns are mutually exclusive under their masks.
var OpCodeTable = []OpCode{
	{CodeCLS, "cls", nil, 0xFFFF, 0x00E0, "clear the display"},
	{CodeRET, "ret", nil, 0xFFFF, 0x00EE, "return from subroutine"},
	{CodeJP, "jp", []ParamType{TAddr}, 0xF000, 0x1000, "jump to addr"},
	{CodeCALL, "call", []ParamType{TAddr}, 0xF000, 0x2000, "call subroutine at addr"},
	{CodeSEByte, "se", []ParamType{TVx, TByte}, 0xF000, 0x3000, "skip if Vx == byte"},
	{CodeSNEByte, "sne", []ParamType{TVx, TByte}, 0xF000, 0x4000, "skip if Vx != byte"},
	{CodeSEReg, "se", []ParamType{TVx, TVy}, 0xF00F, 0x5000, "skip if Vx == Vy"},
	{CodeLDByte, "ld", []ParamType{TVx, TByte}, 0xF000, 0x6000, "Vx = byte"},
	{CodeADDByte, "add", []ParamType{TVx, TByte}, 0xF000, 0x7000, "Vx += byte, no carry"},
	{CodeLDReg, "ld", []ParamType{TVx, TVy}, 0xF00F, 0x8000, "Vx = Vy"},
	{CodeOR, "or", []ParamType{TVx, TVy}, 0xF00F, 0x8001, "Vx |= Vy"},
	{CodeAND, "and", []ParamType{TVx, TVy}, 0xF00F, 0x8002, "Vx &= Vy"},
	{CodeXOR, "xor", []ParamType{TVx, TVy}, 0xF00F, 0x8003, "Vx ^= Vy"},
	{CodeADDReg, "add", []ParamType{TVx, TVy}, 0xF00F, 0x8004, "Vx += Vy, VF = carry"},
	{CodeSUB, "sub", []ParamType{TVx, TVy}, 0xF00F, 0x8005, "Vx -= Vy, VF = not borrow"},
	{CodeSHR, "shr", []ParamType{TVx, TVy}, 0xF00F, 0x8006, "Vx = Vy >> 1, VF = shifted out bit"},
	{CodeSUBN, "subn", []ParamType{TVx, TVy}, 0xF00F, 0x8007, "Vx = Vy - Vx, VF = not borrow"},
	{CodeSHL, "shl", []ParamType{TVx, TVy}, 0xF00F, 0x800E, "Vx = Vy << 1, VF = shifted out bit"},
	{CodeSNEReg, "sne", []ParamType{TVx, TVy}, 0xF00F, 0x9000, "skip if Vx != Vy"},
	{CodeLDI, "ld", []ParamType{TI, TAddr}, 0xF000, 0xA000, "I = addr"},
	{CodeJPV0, "jp", []ParamType{TV0, TAddr}, 0xF000, 0xB000, "jump to addr + V0"},
	{CodeRND, "rnd", []ParamType{TVx, TByte}, 0xF000, 0xC000, "Vx = random & byte"},
	{CodeDRW, "drw", []ParamType{TVx, TVy, TNibble}, 0xF000, 0xD000, "draw n rows sprite at I, VF = collision"},
	{CodeSKP, "skp", []ParamType{TVx}, 0xF0FF, 0xE09E, "skip if key Vx is down"},
	{CodeSKNP, "sknp", []ParamType{TVx}, 0xF0FF, 0xE0A1, "skip if key Vx is up"},
	{CodeLDVxDT, "ld", []ParamType{TVx, TDT}, 0xF0FF, 0xF007, "Vx = DT"},
	{CodeLDK, "ld", []ParamType{TVx, TK}, 0xF0FF, 0xF00A, "wait for a key release, Vx = key"},
	{CodeLDDTVx, "ld", []ParamType{TDT, TVx}, 0xF0FF, 0xF015, "DT = Vx"},
	{CodeLDSTVx, "ld", []ParamType{TST, TVx}, 0xF0FF, 0xF018, "ST = Vx"},
	{CodeADDI, "add", []ParamType{TI, TVx}, 0xF0FF, 0xF01E, "I += Vx"},
	{CodeLDF, "ld", []ParamType{TF, TVx}, 0xF0FF, 0xF029, "I = glyph address of digit Vx"},
	{CodeLDB, "ld", []ParamType{TB, TVx}, 0xF0FF, 0xF033, "store BCD of Vx at I, I+1, I+2"},
	{CodeLDStore, "ld", []ParamType{TIndI, TVx}, 0xF0FF, 0xF055, "store V0..Vx at I, I += x+1"},
	{CodeLDLoad, "ld", []ParamType{TVx, TIndI}, 0xF0FF, 0xF065, "load V0..Vx from I, I += x+1"},
}

var codeIndex = func() map[Code]int {
	idx := make(map[Code]int, len(OpCodeTable))
	for i, elem := range OpCodeTable {
		idx[elem.Code] = i
	}
	return idx
}()

// LookupCode returns the definition of the given code.
func LookupCode(c Code) (OpCode, bool) {
	i, ok := codeIndex[c]
	if !ok {
		return OpCode{}, false
	}
	return OpCodeTable[i], true
}

// LookupName returns every definition sharing the given mnemonic.
func LookupName(name string) []OpCode {
	name = strings.ToLower(name)
	var out []OpCode
	for _, elem := range OpCodeTable {
		if elem.Name == name {
			out = append(out, elem)
		}
	}
	return out
}

// Match reports whether the word is an encoding of the opcode.
func (o OpCode) Match(word uint16) bool { return word&o.Mask == o.Pattern }

// Encode builds the word from the explicit parameter values, in order.
// Implicit parameters take no value.
func (o OpCode) Encode(values ...uint16) (uint16, error) {
	word := o.Pattern
	i := 0
	for _, pt := range o.ParamTypes {
		if pt.Implicit() {
			continue
		}
		if i >= len(values) {
			return 0, fmt.Errorf("%s: missing %s parameter", o.Name, pt)
		}
		if values[i] > pt.Max() {
			return 0, fmt.Errorf("%s: %s parameter 0x%X out of range (max 0x%X)", o.Name, pt, values[i], pt.Max())
		}
		word |= pt.Encode(values[i])
		i++
	}
	if i != len(values) {
		return 0, fmt.Errorf("%s: too many parameters", o.Name)
	}
	return word, nil
}

// Instruction is a decoded word.
type Instruction struct {
	OpCode OpCode
	Word   uint16
}

// Decode finds the opcode matching the word.
func Decode(word uint16) (Instruction, error) {
	for _, elem := range OpCodeTable {
		if elem.Match(word) {
			return Instruction{OpCode: elem, Word: word}, nil
		}
	}
	return Instruction{Word: word}, fmt.Errorf("0x%04X: %w", word, ErrInvalidOpcode)
}

// Operand fields.
func (ins Instruction) X() int { return int(TVx.Decode(ins.Word)) }
func (ins Instruction) Y() int { return int(TVy.Decode(ins.Word)) }
func (ins Instruction) N() int { return int(TNibble.Decode(ins.Word)) }
func (ins Instruction) KK() byte { return byte(TByte.Decode(ins.Word)) }
func (ins Instruction) NNN() uint16 { return TAddr.Decode(ins.Word) }
func (ins Instruction) Code() Code { return ins.OpCode.Code }
func (ins Instruction) Valid() bool { return ins.OpCode.Code != CodeInvalid }

func (ins Instruction) String() string {
	if !ins.Valid() {
		return fmt.Sprintf("%s 0x%04X", WordCmdString, ins.Word)
	}
	if len(ins.OpCode.ParamTypes) == 0 {
		return ins.OpCode.Name
	}
	params := make([]string, 0, len(ins.OpCode.ParamTypes))
	for _, pt := range ins.OpCode.ParamTypes {
		params = append(params, pt.Format(pt.Decode(ins.Word)))
	}
	return ins.OpCode.Name + " " + strings.Join(params, ", ")
}

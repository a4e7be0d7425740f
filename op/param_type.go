package op

import (
	"fmt"
	"strings"
)

// ParamType enum type.
type ParamType int

// ParamType values.
const (
	TVx     ParamType = 1 << iota // Register, x nibble.
	TVy                           // Register, y nibble.
	TByte                         // 8 bits immediate, kk.
	TAddr                         // 12 bits address, nnn.
	TNibble                       // 4 bits immediate, n.
	TV0                           // V0, implicit.
	TI                            // I, implicit.
	TIndI                         // [I], memory pointed by I, implicit.
	TDT                           // Delay timer, implicit.
	TST                           // Sound timer, implicit.
	TK                            // Key, implicit.
	TF                            // Font glyph, implicit.
	TB                            // BCD, implicit.
)

var paramNames = []struct {
	typ  ParamType
	name string
}{
	{TVx, "vx"},
	{TVy, "vy"},
	{TByte, "byte"},
	{TAddr, "addr"},
	{TNibble, "nibble"},
	{TV0, "V0"},
	{TI, "I"},
	{TIndI, "[I]"},
	{TDT, "DT"},
	{TST, "ST"},
	{TK, "K"},
	{TF, "F"},
	{TB, "B"},
}

func (pt ParamType) String() string {
	var parts []string
	for _, elem := range paramNames {
		if pt&elem.typ != 0 {
			parts = append(parts, elem.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// Implicit reports whether the parameter is fixed by the opcode and not encoded in the word.
func (pt ParamType) Implicit() bool {
	return pt&(TV0|TI|TIndI|TDT|TST|TK|TF|TB) != 0
}

// Register reports whether the parameter is a Vx/Vy register.
func (pt ParamType) Register() bool { return pt&(TVx|TVy) != 0 }

// Keyword returns the source form of an implicit parameter.
func (pt ParamType) Keyword() string {
	if !pt.Implicit() {
		return ""
	}
	return pt.String()
}

// Max returns the largest value the parameter can hold.
func (pt ParamType) Max() uint16 {
	switch pt {
	case TVx, TVy, TNibble:
		return 0xF
	case TByte:
		return 0xFF
	case TAddr:
		return AddrMask
	default:
		return 0
	}
}

// Encode places the value in the parameter's field.
func (pt ParamType) Encode(v uint16) uint16 {
	switch pt {
	case TVx:
		return (v & 0xF) << 8
	case TVy:
		return (v & 0xF) << 4
	case TByte:
		return v & 0xFF
	case TAddr:
		return v & AddrMask
	case TNibble:
		return v & 0xF
	default:
		return 0
	}
}

// Decode extracts the parameter's field from the word.
func (pt ParamType) Decode(word uint16) uint16 {
	switch pt {
	case TVx:
		return word >> 8 & 0xF
	case TVy:
		return word >> 4 & 0xF
	case TByte:
		return word & 0xFF
	case TAddr:
		return word & AddrMask
	case TNibble:
		return word & 0xF
	default:
		return 0
	}
}

// Format renders the value the way the assembler reads it back.
func (pt ParamType) Format(v uint16) string {
	switch pt {
	case TVx, TVy:
		return fmt.Sprintf("V%X", v)
	case TByte:
		return fmt.Sprintf("0x%02X", v)
	case TAddr:
		return fmt.Sprintf("0x%03X", v)
	case TNibble:
		return fmt.Sprintf("%d", v)
	default:
		return pt.Keyword()
	}
}

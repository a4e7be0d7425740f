package op

import (
	"errors"
	"testing"
)

// Every word matches at most one opcode.
func TestOpCodeTableExclusive(t *testing.T) {
	t.Parallel()

	for word := range 0x10000 {
		var matches []string
		for _, elem := range OpCodeTable {
			if elem.Match(uint16(word)) {
				matches = append(matches, elem.Name)
			}
		}
		if len(matches) > 1 {
			t.Fatalf("0x%04X matches several opcodes: %v.", word, matches)
		}
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word uint16
		code Code
		str  string
	}{
		{0x00E0, CodeCLS, "cls"},
		{0x00EE, CodeRET, "ret"},
		{0x1234, CodeJP, "jp 0x234"},
		{0x2ABC, CodeCALL, "call 0xABC"},
		{0x3A42, CodeSEByte, "se VA, 0x42"},
		{0x4A42, CodeSNEByte, "sne VA, 0x42"},
		{0x5AB0, CodeSEReg, "se VA, VB"},
		{0x6A42, CodeLDByte, "ld VA, 0x42"},
		{0x7A42, CodeADDByte, "add VA, 0x42"},
		{0x8AB0, CodeLDReg, "ld VA, VB"},
		{0x8AB1, CodeOR, "or VA, VB"},
		{0x8AB2, CodeAND, "and VA, VB"},
		{0x8AB3, CodeXOR, "xor VA, VB"},
		{0x8AB4, CodeADDReg, "add VA, VB"},
		{0x8AB5, CodeSUB, "sub VA, VB"},
		{0x8AB6, CodeSHR, "shr VA, VB"},
		{0x8AB7, CodeSUBN, "subn VA, VB"},
		{0x8ABE, CodeSHL, "shl VA, VB"},
		{0x9AB0, CodeSNEReg, "sne VA, VB"},
		{0xA123, CodeLDI, "ld I, 0x123"},
		{0xB123, CodeJPV0, "jp V0, 0x123"},
		{0xCA0F, CodeRND, "rnd VA, 0x0F"},
		{0xDAB5, CodeDRW, "drw VA, VB, 5"},
		{0xEA9E, CodeSKP, "skp VA"},
		{0xEAA1, CodeSKNP, "sknp VA"},
		{0xFA07, CodeLDVxDT, "ld VA, DT"},
		{0xFA0A, CodeLDK, "ld VA, K"},
		{0xFA15, CodeLDDTVx, "ld DT, VA"},
		{0xFA18, CodeLDSTVx, "ld ST, VA"},
		{0xFA1E, CodeADDI, "add I, VA"},
		{0xFA29, CodeLDF, "ld F, VA"},
		{0xFA33, CodeLDB, "ld B, VA"},
		{0xFA55, CodeLDStore, "ld [I], VA"},
		{0xFA65, CodeLDLoad, "ld VA, [I]"},
	}
	for _, tt := range tests {
		ins, err := Decode(tt.word)
		if err != nil {
			t.Fatalf("0x%04X: %s.", tt.word, err)
		}
		if ins.Code() != tt.code {
			t.Errorf("0x%04X: unexpected code %s, want %s.", tt.word, ins.Code(), tt.code)
		}
		if got := ins.String(); got != tt.str {
			t.Errorf("0x%04X: unexpected string %q, want %q.", tt.word, got, tt.str)
		}
	}
	if len(tests) != len(OpCodeTable) {
		t.Errorf("Not every opcode is covered: %d/%d.", len(tests), len(OpCodeTable))
	}
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()

	for _, word := range []uint16{0x0000, 0x0123, 0x00E1, 0x5AB1, 0x8AB8, 0x9AB1, 0xE000, 0xF000, 0xFFFF} {
		ins, err := Decode(word)
		if !errors.Is(err, ErrInvalidOpcode) {
			t.Errorf("0x%04X: unexpected error %v.", word, err)
		}
		if ins.Valid() {
			t.Errorf("0x%04X: should not be valid.", word)
		}
		if got, want := ins.String(), ".word 0x"; got[:len(want)] != want {
			t.Errorf("0x%04X: unexpected string %q.", word, got)
		}
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	for _, elem := range OpCodeTable {
		var values []uint16
		for _, pt := range elem.ParamTypes {
			if !pt.Implicit() {
				values = append(values, pt.Max())
			}
		}
		word, err := elem.Encode(values...)
		if err != nil {
			t.Fatalf("%s: %s.", elem.Name, err)
		}
		ins, err := Decode(word)
		if err != nil {
			t.Fatalf("%s: 0x%04X does not decode: %s.", elem.Name, word, err)
		}
		if ins.Code() != elem.Code {
			t.Fatalf("%s: 0x%04X decodes as %s.", elem.Name, word, ins.Code())
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	t.Parallel()

	ld, _ := LookupCode(CodeLDByte)
	if _, err := ld.Encode(0x10, 0x00); err == nil {
		t.Error("Expected error for out of range register.")
	}
	if _, err := ld.Encode(0x1, 0x100); err == nil {
		t.Error("Expected error for out of range byte.")
	}
	if _, err := ld.Encode(0x1); err == nil {
		t.Error("Expected error for missing parameter.")
	}
	if _, err := ld.Encode(0x1, 0x2, 0x3); err == nil {
		t.Error("Expected error for extra parameter.")
	}
}

func TestFramebufferSpot(t *testing.T) {
	t.Parallel()

	var fb Framebuffer
	fb[0] = 0x80
	fb[DisplaySize-1] = 0x01
	if !fb.Spot(0, 0) || fb.Spot(1, 0) {
		t.Error("Unexpected first row.")
	}
	if !fb.Spot(DisplayWidth-1, DisplayHeight-1) {
		t.Error("Unexpected last pixel.")
	}
	if fb.Spot(DisplayWidth, 0) || fb.Spot(-1, 0) {
		t.Error("Out of range pixels should be unlit.")
	}
}

package disasm

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.creack.net/chip8/asm"
	"go.creack.net/chip8/assets"
	"go.creack.net/chip8/op"
)

func TestDisasmRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bin  []byte
	}{
		{"empty", nil},
		{"instructions", []byte{0x00, 0xE0, 0x61, 0x42, 0xD1, 0x25, 0xF3, 0x65}},
		{"invalid words", []byte{0x00, 0x00, 0xFF, 0xFF, 0x51, 0x23}},
		{"odd length", []byte{0x00, 0xE0, 0x42}},
		{"self jump", []byte{0x12, 0x00}},
		{"call and data", []byte{0x22, 0x06, 0xA2, 0x08, 0x12, 0x04, 0x00, 0xEE, 0xAA, 0x55}},
		{"odd target", []byte{0xA2, 0x03, 0x00, 0xE0}},
		{"outside target", []byte{0x13, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pr, err := Disasm(tt.name, tt.bin, op.ProgramStart)
			if err != nil {
				t.Fatalf("Disasm: %s.", err)
			}
			src := pr.PrettyPrint()
			got, _, err := asm.Compile(tt.name, src)
			if err != nil {
				t.Fatalf("Compile: %s.\n%s", err, src)
			}
			if string(got) != string(tt.bin) {
				t.Fatalf("Unexpected round trip:\n%s\nwant % X\ngot  % X", src, tt.bin, got)
			}
		})
	}
}

func TestDisasmLabels(t *testing.T) {
	t.Parallel()

	pr, err := Disasm("", []byte{0x22, 0x04, 0x12, 0x02, 0x00, 0xEE}, op.ProgramStart)
	if err != nil {
		t.Fatalf("Disasm: %s.", err)
	}
	want := strings.Join([]string{
		"\tcall  l_204",
		"\nl_202:",
		"\tjp    l_202",
		"\nl_204:",
		"\tret",
		"",
	}, "\n")
	if diff := cmp.Diff(want, pr.PrettyPrint()); diff != "" {
		t.Fatalf("Unexpected source (-want +got):\n%s", diff)
	}
}

func TestDisasmKnownSource(t *testing.T) {
	t.Parallel()

	for _, name := range assets.Names() {
		src, _ := assets.Source(name)
		bin, _, err := asm.Compile(name, src)
		if err != nil {
			t.Fatalf("%s: %s.", name, err)
		}
		pr, err := Disasm("unknown.ch8", bin, op.ProgramStart)
		if err != nil {
			t.Fatalf("%s: %s.", name, err)
		}
		// The known source carries its own name and labels.
		if got := pr.GetDirective(op.NameCmdString); got != name {
			t.Errorf("%s: unexpected name %q.", name, got)
		}
		if len(pr.Labels()) == 0 {
			t.Errorf("%s: expected labels from the source.", name)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	pr, err := Lookup([]byte{0x12, 0x00}, op.ProgramStart)
	if err != nil {
		t.Fatalf("Lookup: %s.", err)
	}
	if pr != nil {
		t.Fatalf("Unexpected match %q.", pr.GetDirective("name"))
	}

	src, err := assets.Source(assets.Default)
	if err != nil {
		t.Fatal(err)
	}
	bin, _, err := asm.Compile(assets.Default, src)
	if err != nil {
		t.Fatal(err)
	}
	pr, err = Lookup(bin, op.ProgramStart)
	if err != nil {
		t.Fatalf("Lookup: %s.", err)
	}
	if pr == nil {
		t.Fatal("Expected a match.")
	}
	if got := pr.GetDirective("name"); got != assets.Default {
		t.Fatalf("Unexpected match %q.", got)
	}
}

package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrettyPrintLabels(t *testing.T) {
	t.Parallel()

	p := NewParser("test", "start:\nloop: cls\n\tjp loop\nend:\n\tjp end\n")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %s.", err)
	}
	pr := NewProgram(p, 0x200)
	if _, err := pr.Encode(); err != nil {
		t.Fatalf("Encode: %s.", err)
	}

	// Blank line before a label, except first or right after another label.
	want := strings.Join([]string{
		"start:",
		"loop:",
		"\tcls",
		"\tjp    loop",
		"",
		"end:",
		"\tjp    end",
		"",
	}, "\n")
	if diff := cmp.Diff(want, pr.PrettyPrint()); diff != "" {
		t.Fatalf("Unexpected source (-want +got):\n%s", diff)
	}
}

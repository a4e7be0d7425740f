package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rivo/tview"

	"go.creack.net/chip8/asm"
	"go.creack.net/chip8/asm/parser"
	"go.creack.net/chip8/assets"
	"go.creack.net/chip8/op"
)

// bannedColors that are not legible.
var bannedColors = []int{
	0,
	16,
	17,
	18,
	19,
	20,
	21,
	52,
	53,
	54,
	55,
	232,
	233,
	234,
	235,
	236,
	237,
	238,
	239,
}

var curColor = 0

func nextColor() int {
	curColor++
	curColor %= 256
	for slices.Contains(bannedColors, curColor) {
		curColor++
		curColor %= 256
	}
	return curColor
}

func colorCodeModif(color int, mods ...int) string {
	modsStr := make([]string, 0, len(mods))
	for _, elem := range mods {
		modsStr = append(modsStr, fmt.Sprintf("%d", elem))
	}
	ansiMod := strings.Join(modsStr, ";")
	if ansiMod != "" {
		ansiMod += ";"
	}
	return fmt.Sprintf("\033[%s38;5;%dm", ansiMod, color)
}

// span is the bytes a node encoded to.
type span struct {
	start, end int // Offsets in the rom.
	color      string
}

// spans colors each node of the program. Labels and metadata encode nothing.
func spans(pr *parser.Program, origin uint16, size int) (src []string, out []span) {
	var starts []int
	var prev parser.Node
	for _, n := range pr.Nodes {
		line := n.PrettyPrint(prev)
		prev = n
		var addr int
		switch node := n.(type) {
		case *parser.Instruction:
			addr = int(node.Addr)
		case *parser.Directive:
			if node.Name == "name" {
				src = append(src, colorCodeModif(15, 1)+line+"\033[0m")
				continue
			}
			addr = int(node.Addr)
		default:
			src = append(src, line)
			continue
		}
		c := colorCodeModif(nextColor())
		src = append(src, c+line+"\033[0m")
		out = append(out, span{start: addr - int(origin), color: c})
		starts = append(starts, addr-int(origin))
	}
	for i := range out {
		out[i].end = size
		if i+1 < len(starts) {
			out[i].end = starts[i+1]
		}
	}
	return src, out
}

func dump(buf []byte, origin uint16, sp []span) string {
	out := &strings.Builder{}
	const width = 16

	colorAt := func(i int) string {
		for _, s := range sp {
			if i >= s.start && i < s.end {
				return s.color
			}
		}
		return ""
	}

	for i, b := range buf {
		if i%width == 0 {
			if i != 0 {
				fmt.Fprintf(out, "\n")
			}
			fmt.Fprintf(out, "0x%03X", int(origin)+i)
		}
		if i%(width/2) == 0 {
			fmt.Fprintf(out, " ")
		}
		fmt.Fprintf(out, " %s%02x\033[0m", colorAt(i), b)
	}
	fmt.Fprintf(out, "\n0x%03X\n", int(origin)+len(buf))
	return out.String()
}

func run(name, input string, origin uint16) error {
	buf, pr, err := asm.CompileAt(name, input, origin)
	if err != nil {
		return fmt.Errorf("failed to compile: %w", err)
	}

	src, sp := spans(pr, origin, len(buf))
	render(name, strings.Join(src, "\n"), dump(buf, origin, sp))
	return nil
}

func render(name, input, hex string) {
	newTextView := func(text string) *tview.TextView {
		return tview.NewTextView().
			SetDynamicColors(true).
			SetText(text)
	}

	rightContent := newTextView("")
	_, _ = tview.ANSIWriter(rightContent).Write([]byte(hex))

	leftContent := newTextView("")
	_, _ = tview.ANSIWriter(leftContent).Write([]byte(input))

	right := tview.NewFlex()
	right.SetBorder(true).SetTitle("Rom")
	right.AddItem(rightContent, 0, 1, false)

	left := tview.NewFlex()
	left.SetBorder(true)
	left.SetTitle(fmt.Sprintf("Source: %s", name))
	left.AddItem(leftContent, 0, 1, false)

	flex := tview.NewFlex().
		AddItem(left, 0, 1, false).
		AddItem(right, 0, 1, false)

	app := tview.NewApplication().SetRoot(flex, true).SetFocus(flex).EnableMouse(true)
	if err := app.Run(); err != nil {
		log.Fatalf("Failed to run the viewer: %s.", err)
	}
}

func main() {
	log.SetFlags(0)
	address := flag.Uint("address", op.ProgramStart, "load address the labels resolve against")
	demo := flag.String("demo", assets.Default, "embedded program to show when no file is given")
	flag.Parse()
	if *address >= op.MemSize {
		log.Fatalf("Invalid address 0x%X.", *address)
	}

	name, input := *demo, ""
	if f := flag.Arg(0); f != "" {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("Failed to read file: %s.", err)
		}
		name, input = filepath.Base(f), string(data)
	} else {
		src, err := assets.Source(*demo)
		if err != nil {
			log.Fatalf("fail: %s.", err)
		}
		input = src
	}

	if err := run(name, input, uint16(*address)); err != nil {
		log.Fatalf("fail: %s.", err)
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.creack.net/chip8/asm"
	"go.creack.net/chip8/op"
)

func run(input, output string, origin uint16, prettyPrint bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	buf, pr, err := asm.CompileAt(input, string(data), origin)
	if err != nil {
		return fmt.Errorf("failed to compile: %w", err)
	}
	if prettyPrint {
		fmt.Print(pr.PrettyPrint())
		return nil
	}

	if err := os.WriteFile(output, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	log.Printf("%s: %d bytes at 0x%03X.", output, len(buf), origin)

	return nil
}

func main() {
	log.SetFlags(0)
	output := flag.String("o", "", "output file, default to <input>.ch8")
	address := flag.String("address", "0x200", "load address the labels resolve against")
	prettyPrint := flag.Bool("pretty", false, "pretty print, do not output compiled file")
	flag.Parse()
	input := flag.Arg(0)
	if input == "" {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <.s path>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	origin, err := strconv.ParseUint(*address, 0, 16)
	if err != nil || origin >= op.MemSize {
		log.Fatalf("Invalid address %q.", *address)
	}
	if *output == "" {
		*output = strings.TrimSuffix(input, filepath.Ext(input)) + ".ch8"
	}

	if err := run(input, *output, uint16(origin), *prettyPrint); err != nil {
		log.Fatalf("fail: %s.", err)
	}
}

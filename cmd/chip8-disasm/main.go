package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.creack.net/chip8/disasm"
	"go.creack.net/chip8/op"
)

func main() {
	log.SetFlags(0)
	address := flag.String("address", "0x200", "load address of the rom")
	flag.Parse()
	f := flag.Arg(0)
	if f == "" {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <.ch8 path>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	origin, err := strconv.ParseUint(*address, 0, 16)
	if err != nil || origin >= op.MemSize {
		log.Fatalf("Invalid address %q.", *address)
	}
	binData, err := os.ReadFile(f)
	if err != nil {
		log.Fatalf("Failed to read file %q: %s.", f, err)
	}

	known, err := disasm.Lookup(binData, uint16(origin))
	if err != nil {
		log.Fatalf("Fail: %s.", err)
	}
	if known != nil {
		log.Printf("Found match in known sources.")
		fmt.Print(known.PrettyPrint())
		return
	}

	name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
	pr, err := disasm.Disasm(name, binData, uint16(origin))
	if err != nil {
		log.Fatalf("Fail: %s.", err)
	}
	fmt.Print(pr.PrettyPrint())
}

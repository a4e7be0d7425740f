package main

import (
	"crypto/md5"
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"go.creack.net/chip8/asm"
	"go.creack.net/chip8/asm/parser"
	"go.creack.net/chip8/assets"
)

func md5sum(data []byte) string {
	h := md5.New()
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type result struct {
	name string
	bin  []byte
	prog *parser.Program
}

// build compiles every embedded program.
func build() ([]result, error) {
	var out []result
	failed := 0
	for _, name := range assets.Names() {
		src, err := assets.Source(name)
		if err != nil {
			return nil, fmt.Errorf("read embedded program %q: %w", name, err)
		}
		buf, pr, err := asm.Compile(name, src)
		if err != nil {
			log.Printf("Error compiling %q: %s.", name, err)
			failed++
			continue
		}
		out = append(out, result{name: name, bin: buf, prog: pr})
	}
	if failed > 0 {
		return out, fmt.Errorf("%d programs failed to compile", failed)
	}
	return out, nil
}

// write stores the rom and the clean source of each program in dir.
func write(dir string, results []result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %q: %w", dir, err)
	}
	for _, r := range results {
		if err := os.WriteFile(filepath.Join(dir, r.name+".ch8"), r.bin, 0o644); err != nil {
			return fmt.Errorf("failed to write rom %q: %w", r.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, r.name+".s"), []byte(r.prog.PrettyPrint()), 0o644); err != nil {
			return fmt.Errorf("failed to write source %q: %w", r.name, err)
		}
	}
	return nil
}

func main() {
	log.SetFlags(0)
	output := flag.String("o", "", "directory to write the roms and clean sources to")
	flag.Parse()

	results, err := build()
	if err != nil {
		log.Fatalf("Fail: %s.", err)
	}

	// Two programs with the same binary make the known source lookup ambiguous.
	sumIdx := map[string][]string{} // md5sum -> names.
	for _, r := range results {
		sum := md5sum(r.bin)
		sumIdx[sum] = append(sumIdx[sum], r.name)
		fmt.Printf("%-10s %4d bytes  %s\n", r.name, len(r.bin), sum)
	}
	sums := slices.Collect(maps.Keys(sumIdx))
	sort.Strings(sums)
	dup := false
	for _, k := range sums {
		if v := sumIdx[k]; len(v) > 1 {
			log.Printf("Warning: duplicate binary %s -> %q.", k, v)
			dup = true
		}
	}

	if *output != "" {
		if err := write(*output, results); err != nil {
			log.Fatalf("Fail: %s.", err)
		}
	}
	if dup {
		os.Exit(1)
	}
}

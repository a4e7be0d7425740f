// Package asm compiles CHIP-8 assembly sources.
package asm

import (
	"fmt"

	"go.creack.net/chip8/asm/parser"
	"go.creack.net/chip8/op"
)

// Compile assembles the source for a rom loaded at the default program start.
func Compile(inputName, inputData string) ([]byte, *parser.Program, error) {
	return CompileAt(inputName, inputData, op.ProgramStart)
}

// CompileAt assembles the source with labels resolved against origin.
func CompileAt(inputName, inputData string, origin uint16) ([]byte, *parser.Program, error) {
	// Parse the input.
	p := parser.NewParser(inputName, inputData)
	if err := p.Parse(); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", inputName, err)
	}

	// Encode the program.
	pr := parser.NewProgram(p, origin)
	program, err := pr.Encode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode program %s: %w", inputName, err)
	}

	// Copy out of the program buffer.
	return append([]byte(nil), program...), pr, nil
}

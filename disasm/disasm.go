// Package disasm turns CHIP-8 binaries back into assembly.
package disasm

import (
	"crypto/md5"
	"fmt"

	"go.creack.net/chip8/asm"
	"go.creack.net/chip8/asm/parser"
	"go.creack.net/chip8/assets"
)

func md5sum(data []byte) string {
	h := md5.New()
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// searchExistingSrc looks for an embedded source compiling to a binary with the given md5.
func searchExistingSrc(search string, origin uint16) (*parser.Program, error) {
	for _, name := range assets.Names() {
		src, err := assets.Source(name)
		if err != nil {
			return nil, err
		}
		buf, pr, err := asm.CompileAt(name, src, origin)
		if err != nil {
			return nil, fmt.Errorf("failed to compile known source %q: %w", name, err)
		}
		if md5sum(buf) == search {
			return pr, nil
		}
	}
	return nil, nil
}

// Lookup returns the embedded source compiling to the binary, nil when none does.
func Lookup(binData []byte, origin uint16) (*parser.Program, error) {
	return searchExistingSrc(md5sum(binData), origin)
}

// Disasm decodes the binary loaded at origin.
// Known binaries get their embedded source back, without comments.
func Disasm(inputName string, binData []byte, origin uint16) (*parser.Program, error) {
	prog, err := parser.Decode(inputName, binData, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to decode program: %w", err)
	}

	existing, err := Lookup(binData, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to search known sources: %w", err)
	}
	if existing == nil {
		// If we didn't find a match, return what we have.
		return prog, nil
	}
	return existing, nil
}

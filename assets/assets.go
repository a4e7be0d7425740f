package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Demo programs, assembled at runtime.
//
//go:embed roms/*.s
var Sources embed.FS

// Default is the program run when none is given.
const Default = "demo"

// Names lists the available programs, without extension.
func Names() []string {
	entries, err := fs.ReadDir(Sources, "roms")
	if err != nil {
		// Should never happen, the directory is embedded.
		panic(fmt.Errorf("read embedded roms: %w", err))
	}
	out := make([]string, 0, len(entries))
	for _, elem := range entries {
		out = append(out, strings.TrimSuffix(elem.Name(), ".s"))
	}
	return out
}

// Source returns the assembly source of the named program.
func Source(name string) (string, error) {
	buf, err := Sources.ReadFile(path.Join("roms", name+".s"))
	if err != nil {
		return "", fmt.Errorf("unknown program %q: %w", name, err)
	}
	return string(buf), nil
}

// Package cli provides the flags shared by the commands and loads the program to run.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.creack.net/chip8/asm"
	"go.creack.net/chip8/asm/parser"
	"go.creack.net/chip8/assets"
	"go.creack.net/chip8/disasm"
	"go.creack.net/chip8/op"
	"go.creack.net/chip8/vm"
)

// Defaults.
const (
	DefaultFrequency = 540 // Instructions per second.
	DefaultWidth     = 800
	DefaultHeight    = 400
)

var ErrUsage = errors.New("usage")

// Program is the loaded program.
type Program struct {
	PathName  string
	ShortName string
	Data      []byte // Rom, or full memory image.
	Image     bool

	Prog *parser.Program // Source, or disassembly.
}

type Config struct {
	VM      vm.Config
	Program *Program

	Frequency int
	Width     int
	Height    int
	Realtime  bool
	StatsView bool
}

// addressValue is a flag.Value accepting decimal, 0x, 0o and 0b addresses.
type addressValue uint16

func (a *addressValue) String() string { return fmt.Sprintf("0x%03X", uint16(*a)) }

func (a *addressValue) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	if n >= op.MemSize {
		return fmt.Errorf("address %q out of memory", s)
	}
	*a = addressValue(n)
	return nil
}

// Flags holds the common flags. Commands can register their own on the FlagSet before parsing.
type Flags struct {
	*flag.FlagSet

	image     bool
	frequency int
	address   addressValue
	width     int
	height    int
	schip     bool
	realtime  bool
	debug     bool
	statsView bool
	demo      string
}

func NewFlags(name string) *Flags {
	f := &Flags{
		FlagSet: flag.NewFlagSet(name, flag.ContinueOnError),
		address: op.ProgramStart,
	}
	f.BoolVar(&f.image, "image", false, "the file is a full 4096 bytes memory image")
	f.IntVar(&f.frequency, "freq", DefaultFrequency, "instructions per second")
	f.Var(&f.address, "address", "load address of the rom, start address of an image")
	f.IntVar(&f.width, "width", DefaultWidth, "window width")
	f.IntVar(&f.height, "height", DefaultHeight, "window height")
	f.BoolVar(&f.schip, "s", false, "S-CHIP semantics (not supported, ignored)")
	f.BoolVar(&f.realtime, "realtime", false, "pace with the wall clock instead of a fixed frequency")
	f.BoolVar(&f.debug, "debug", false, "trace executed instructions")
	f.BoolVar(&f.statsView, "statsview", false, "serve runtime statistics")
	f.StringVar(&f.demo, "demo", assets.Default, "embedded program to run when no file is given ("+strings.Join(assets.Names(), ", ")+")")
	f.Usage = func() {
		fmt.Fprintf(f.Output(), "usage: %s [options] [file.ch8|file.s]\n", filepath.Base(name))
		f.PrintDefaults()
	}
	return f
}

// usageError reports the error and the usage on the flag set output.
func (f *Flags) usageError(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
	fmt.Fprintln(f.Output(), err)
	f.Usage()
	return err
}

// Parse parses the arguments and loads the program.
// Usage errors wrap ErrUsage and are already reported on the flag set output.
func (f *Flags) Parse(args []string) (Config, error) {
	if err := f.FlagSet.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if f.NArg() > 1 {
		return Config{}, f.usageError("too many arguments")
	}
	if f.frequency <= 0 {
		return Config{}, f.usageError("invalid frequency %d", f.frequency)
	}
	if f.width <= 0 || f.height <= 0 {
		return Config{}, f.usageError("invalid window size %dx%d", f.width, f.height)
	}
	if f.width != 2*f.height {
		log.Printf("Warning: window size %dx%d is not 2:1, the display will be stretched.", f.width, f.height)
	}
	if f.schip {
		log.Printf("Warning: S-CHIP semantics are not supported, running plain CHIP-8.")
	}

	prog, err := f.load(f.Arg(0))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		VM: vm.Config{
			Address: uint16(f.address),
			SChip:   f.schip,
		},
		Program:   prog,
		Frequency: f.frequency,
		Width:     f.width,
		Height:    f.height,
		Realtime:  f.realtime,
		StatsView: f.statsView,
	}
	if prog.Image {
		cfg.VM.Image = prog.Data
	} else {
		cfg.VM.ROM = prog.Data
	}
	if f.debug {
		cfg.VM.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return cfg, nil
}

// load reads the program. Assembly sources are compiled, embedded programs are used when no path is given.
func (f *Flags) load(pathName string) (*Program, error) {
	p := &Program{PathName: pathName, Image: f.image}

	var data []byte
	if pathName == "" {
		if f.image {
			return nil, f.usageError("-image requires a file")
		}
		src, err := assets.Source(f.demo)
		if err != nil {
			return nil, err
		}
		p.PathName = f.demo + ".s"
		data = []byte(src)
	} else {
		buf, err := os.ReadFile(pathName)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %q: %w", pathName, err)
		}
		data = buf
	}
	p.ShortName = strings.TrimSuffix(filepath.Base(p.PathName), filepath.Ext(p.PathName))

	if strings.HasSuffix(p.PathName, ".s") && !f.image {
		buf, pr, err := asm.CompileAt(p.PathName, string(data), uint16(f.address))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %q: %w", p.PathName, err)
		}
		p.Data = buf
		p.Prog = pr
		return p, nil
	}
	p.Data = data

	if f.image {
		if len(data) != op.MemSize {
			return nil, fmt.Errorf("invalid image %q: %d bytes, expected %d", p.PathName, len(data), op.MemSize)
		}
		return p, nil
	}

	prog, err := disasm.Disasm(p.ShortName, data, uint16(f.address))
	if err != nil {
		return nil, fmt.Errorf("failed to disassemble %q: %w", p.PathName, err)
	}
	p.Prog = prog
	return p, nil
}

// ParseArgs is Parse for main packages: usage errors exit the process.
func (f *Flags) ParseArgs(args []string) (Config, error) {
	cfg, err := f.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if errors.Is(err, ErrUsage) {
		os.Exit(2)
	}
	return cfg, err
}

// ParseConfig parses the command line of the running program.
func ParseConfig() (Config, error) {
	return NewFlags(os.Args[0]).ParseArgs(os.Args[1:])
}

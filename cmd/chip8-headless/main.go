package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.creack.net/chip8/buzzer"
	"go.creack.net/chip8/cli"
	"go.creack.net/chip8/driver"
	"go.creack.net/chip8/op"
	"go.creack.net/chip8/screen"
	"go.creack.net/chip8/vm"
)

// Exit code when the machine halted before the end of the run.
const exitHalted = 2

func dump(w io.Writer, mem []byte, pc uint16) {
	const width = 32
	ff := bytes.Repeat([]byte{op.Filler}, width)
	for i := 0; i < len(mem); {
		b := mem[i]
		if i%width == 0 {
			if i+width <= len(mem) && bytes.Equal(mem[i:i+width], ff) && (int(pc) < i || int(pc) >= i+width) {
				fmt.Fprintf(w, "\n*")
				for ; i+width <= len(mem) && bytes.Equal(mem[i:i+width], ff) && (int(pc) < i || int(pc) >= i+width); i += width {
				}
				continue
			}
			fmt.Fprintf(w, "\n0x%03X:", i)
		}
		if i == int(pc) {
			fmt.Fprintf(w, "\033[7m")
		}
		fmt.Fprintf(w, " %02x", b)
		if i == int(pc)+1 {
			fmt.Fprintf(w, "\033[27m")
		}
		i++
	}
	fmt.Fprintf(w, "\n")
}

// keyEvent presses a key at an emulated time.
type keyEvent struct {
	key  int
	at   time.Duration
	down bool
}

const keyHold = 100 * time.Millisecond

// parseKeys parses a comma separated list of KEY@TIME presses, ex: "5@1s,a@1.5s".
// Each press is released keyHold later.
func parseKeys(s string) ([]keyEvent, error) {
	var out []keyEvent
	if s == "" {
		return out, nil
	}
	for _, elem := range strings.Split(s, ",") {
		k, at, ok := strings.Cut(strings.TrimSpace(elem), "@")
		if !ok {
			return nil, fmt.Errorf("invalid key press %q, expect KEY@TIME", elem)
		}
		key, err := strconv.ParseUint(k, 16, 8)
		if err != nil || key >= op.KeyCount {
			return nil, fmt.Errorf("invalid key %q", k)
		}
		d, err := time.ParseDuration(at)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q: %w", at, err)
		}
		out = append(out, keyEvent{key: int(key), at: d, down: true}, keyEvent{key: int(key), at: d + keyHold})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out, nil
}

// runner feeds the scheduled keys and records the tone as the emulated time goes.
type runner struct {
	c        *vm.Chip8
	keys     []keyEvent
	recorder *buzzer.Recorder
	now      time.Duration
}

func (r *runner) Step(elapsed time.Duration) bool {
	r.now += elapsed
	for len(r.keys) > 0 && r.keys[0].at <= r.now {
		r.c.SetKeyDown(r.keys[0].key, r.keys[0].down)
		r.keys = r.keys[1:]
	}
	if r.recorder != nil {
		r.recorder.Record(elapsed, r.c.ToneOn())
	}
	return r.c.Step(elapsed)
}

func main() {
	log.SetFlags(0)

	flags := cli.NewFlags(os.Args[0])
	duration := flags.Duration("duration", 5*time.Second, "run time, emulated or wall clock with -realtime")
	pngFile := flags.String("png", "", "write a screenshot of the final display")
	scale := flags.Int("scale", 8, "screenshot scale")
	wavFile := flags.String("wav", "", "record the tone to a wav file")
	keys := flags.String("keys", "", "key presses, ex: 5@1s,a@1.5s")
	memDump := flags.Bool("dump", false, "dump the memory at the end of the run")

	cfg, err := flags.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}
	events, err := parseKeys(*keys)
	if err != nil {
		log.Fatalf("Failed to parse keys: %s.", err)
	}

	c, err := vm.New(cfg.VM)
	if err != nil {
		log.Fatalf("Failed to create vm: %s.", err)
	}

	r := &runner{c: c, keys: events}
	if *wavFile != "" {
		r.recorder = buzzer.NewRecorder(buzzer.SampleRate)
	}

	var cycles uint64
	if cfg.Realtime {
		ctx, cancel := context.WithTimeout(context.Background(), *duration)
		rt := &driver.RealTime{Machine: r, Frequency: cfg.Frequency}
		if err := rt.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Fatalf("Failed to run: %s.", err)
		}
		cancel()
		cycles = rt.Cycles()
	} else {
		fixed, err := driver.NewFixed(r, cfg.Frequency)
		if err != nil {
			log.Fatalf("Failed to create driver: %s.", err)
		}
		const frame = time.Second / op.TimerFrequency
		for elapsed := time.Duration(0); elapsed < *duration; elapsed += frame {
			if !fixed.Frame(min(frame, *duration-elapsed)) {
				break
			}
		}
		cycles = fixed.Cycles()
	}

	fb := c.Framebuffer()
	fmt.Print(screen.Text(&fb))
	fmt.Printf("%s: %d cycles, %s emulated.\n", cfg.Program.ShortName, cycles, r.now.Round(time.Millisecond))

	if *memDump {
		dump(os.Stdout, c.Memory(), c.PC())
	}
	if *pngFile != "" {
		f, err := os.Create(*pngFile)
		if err != nil {
			log.Fatalf("Failed to create screenshot: %s.", err)
		}
		if err := screen.WritePNG(f, &fb, *scale); err != nil {
			log.Fatalf("Failed to write screenshot: %s.", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to close screenshot: %s.", err)
		}
	}
	if r.recorder != nil {
		if err := r.recorder.WriteFile(*wavFile); err != nil {
			log.Fatalf("Failed to write tone recording: %s.", err)
		}
	}

	if err := c.Err(); err != nil {
		log.Printf("Halted: %s.", err)
		os.Exit(exitHalted)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"go.creack.net/chip8/cli"
	"go.creack.net/chip8/driver"
	"go.creack.net/chip8/op"
	"go.creack.net/chip8/screen"
	"go.creack.net/chip8/vm"
)

const (
	ramWidth = 32

	// Terminals don't report key releases, keys are released after this long
	// without a repeat.
	keyHold = 150 * time.Millisecond

	// The UI redraws every n frames.
	drawEvery = 6
)

var msgColors = map[vm.MessageType]tcell.Color{
	vm.MsgHalt:    tcell.ColorRed,
	vm.MsgWait:    tcell.ColorYellow,
	vm.MsgKey:     tcell.ColorGreen,
	vm.MsgToneOn:  tcell.ColorBlue,
	vm.MsgToneOff: tcell.ColorDarkCyan,
	vm.MsgDebug:   tcell.ColorDimGray,
}

func dumpROM(data []byte, origin uint16) string {
	out := &strings.Builder{}
	const width = 16
	ff := bytes.Repeat([]byte{op.Filler}, width)
	for i := 0; i < len(data); {
		b := data[i]
		if i%width == 0 {
			if i+width <= len(data) && bytes.Equal(data[i:i+width], ff) {
				fmt.Fprintf(out, "\n*")
				for ; i+width <= len(data) && bytes.Equal(data[i:i+width], ff); i += width {
				}
				continue
			}
			fmt.Fprintf(out, "\n0x%03X:", int(origin)+i)
		}
		if i%(width/2) == 0 {
			fmt.Fprintf(out, " ")
		}
		fmt.Fprintf(out, " %02x", b)
		i++
	}
	fmt.Fprintf(out, "\n")
	return out.String()
}

// escapeWriter keeps brackets in the trace from being read as color tags.
type escapeWriter struct{ w io.Writer }

func (e escapeWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(e.w, tview.Escape(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func NewGame(ctx context.Context, c *vm.Chip8, cfg cli.Config) *Game {
	app := tview.NewApplication().EnableMouse(true)

	newTextView := func(text string) *tview.TextView {
		return tview.NewTextView().
			SetDynamicColors(true).
			SetText(text)
	}

	ramView := tview.NewTable().SetBorders(false)

	displayView := newTextView("")
	displayView.SetTitle("Display").SetBorder(true)

	logsView := newTextView("")
	logsView.SetTitle("Logs").SetBorder(true)
	logsView.ScrollToEnd()
	logsView.SetMaxLines(1000)

	stateView := newTextView("")
	stateView.SetTitle("State").SetBorder(true)

	registersView := tview.NewTable().SetBorders(false)
	registersView.SetTitle("Registers").SetBorder(true)

	disasmView := newTextView("")
	disasmView.SetTitle("Disassembly").SetBorder(true)

	rightPane := tview.NewFlex().SetDirection(tview.FlexRow)
	rightPane.
		AddItem(stateView, 0, 2, false).
		AddItem(registersView, 0, 3, false).
		AddItem(disasmView, 0, 4, false).
		AddItem(logsView, 0, 3, false)

	ramPane := tview.NewFlex()
	ramPane.SetBorder(true)
	ramPane.SetTitle("RAM")
	ramPane.AddItem(ramView, 0, 1, false)

	leftPane := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(displayView, op.DisplayHeight/2+2, 0, false).
		AddItem(ramPane, 0, 1, true)

	flex := tview.NewFlex().
		AddItem(leftPane, op.DisplayWidth+2, 0, true).
		AddItem(rightPane, 0, 1, false)

	pages := tview.NewPages()
	pages.AddPage("main", flex, true, true)

	ctx, cancel := context.WithCancel(ctx)

	return &Game{
		app: app,

		root: pages,

		mainPage:      flex,
		ramView:       ramView,
		displayView:   displayView,
		stateView:     stateView,
		registersView: registersView,
		disasmView:    disasmView,
		logsView:      logsView,

		c:   c,
		cfg: cfg,

		ctx:    ctx,
		cancel: cancel,

		paused: true,
	}
}

type Game struct {
	app *tview.Application

	root *tview.Pages

	mainPage *tview.Flex

	ramView       *tview.Table
	displayView   *tview.TextView
	stateView     *tview.TextView
	registersView *tview.Table
	disasmView    *tview.TextView
	logsView      *tview.TextView

	c     *vm.Chip8
	cfg   cli.Config
	fixed *driver.Fixed // Nil in real time mode.

	// Guards the machine and the fields below.
	mu        sync.Mutex
	paused    bool
	nextStep  bool
	releaseAt [op.KeyCount]time.Time
	cycles    uint64

	ctx    context.Context
	cancel context.CancelFunc
}

func (g *Game) Stop() {
	g.app.Stop()
	g.cancel()
}

// Step implements driver.Machine. Nothing runs while paused.
func (g *Game) Step(elapsed time.Duration) bool {
	if g.paused {
		return true
	}
	g.cycles++
	return g.c.Step(elapsed)
}

// pressKey presses the key now and schedules its release.
func (g *Game) pressKey(key int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.c.SetKeyDown(key, true)
	g.releaseAt[key] = time.Now().Add(keyHold)
}

func (g *Game) releaseKeys(now time.Time) {
	for key, at := range g.releaseAt {
		if !at.IsZero() && now.After(at) {
			g.c.SetKeyDown(key, false)
			g.releaseAt[key] = time.Time{}
		}
	}
}

func (g *Game) Init() {
	f := func(event *tcell.EventKey) *tcell.EventKey {
		curPage, _ := g.root.GetFrontPage()
		switch event.Key() {
		case tcell.KeyCtrlC:
			g.Stop()
			return nil
		case tcell.KeyEscape, tcell.KeyEnter:
			if curPage != "main" {
				g.root.SwitchToPage("main")
				return nil
			}
			if event.Key() == tcell.KeyEscape {
				g.Stop()
				return nil
			}
			return event
		}
		if curPage != "main" {
			return event
		}
		switch r := unicode.ToLower(event.Rune()); r {
		case 'n':
			g.mu.Lock()
			g.nextStep = true
			g.mu.Unlock()
			return nil
		case ' ':
			g.mu.Lock()
			g.paused = !g.paused
			g.mu.Unlock()
			return nil
		case 'p':
			if g.root.HasPage("program") {
				g.root.SwitchToPage("program")
			}
			return nil
		default:
			if key := strings.IndexRune(op.KeyLayout, r); key >= 0 {
				g.pressKey(key)
				return nil
			}
		}
		return event
	}
	g.root.SetInputCapture(f)
	go func() {
	loop:
		select {
		case msg := <-g.c.Messages:
			g.app.QueueUpdateDraw(func() {
				if msg.Type == vm.MsgClear {
					g.logsView.Clear()
					return
				}
				if msg.Type == vm.MsgHalt {
					g.mu.Lock()
					g.paused = true
					g.mu.Unlock()
				}
				// NOTE: Seems like there is a bug with tview, we can't reset the color to default
				// with [:] or [:::], so we use tcell default.
				colorCode := "[" + tcell.ColorDefault.String() + ":::]"
				if c, ok := msgColors[msg.Type]; ok {
					colorCode = "[" + c.String() + ":::]"
				}
				text := msg.Type.String()
				if msg.Message != "" {
					text += ": " + msg.Message
				}
				fmt.Fprintf(g.logsView, "%s[0x%03X] %s[:::]\n", colorCode, msg.PC, strings.TrimSuffix(text, "\n"))
			})
		case <-g.ctx.Done():
			return
		}
		goto loop
	}()
}

// Update runs one host frame.
func (g *Game) Update(frame time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.releaseKeys(time.Now())

	if g.nextStep {
		g.nextStep = false
		if g.paused {
			g.cycles++
			g.c.Step(time.Second / time.Duration(g.cfg.Frequency))
			return
		}
	}
	if g.fixed != nil {
		g.fixed.Frame(frame)
	}
}

func (g *Game) drawState() {
	g.stateView.Clear()

	status := "running"
	switch {
	case g.c.Halted():
		status = "[red]" + g.c.Err().Error() + "[:::]"
	case g.paused:
		status = "paused"
	case g.c.Waiting():
		status = "waiting for key"
	}
	mode := "fixed"
	if g.cfg.Realtime {
		mode = "real time"
	}

	fmt.Fprintf(g.stateView, "Program: %s\n", tview.Escape(g.cfg.Program.ShortName))
	fmt.Fprintf(g.stateView, "Status: %s\n", status)
	fmt.Fprintf(g.stateView, "Cycles: %d\n", g.cycles)
	fmt.Fprintf(g.stateView, "Frequency: %d Hz (%s)\n", g.cfg.Frequency, mode)
	fmt.Fprintf(g.stateView, "Tone: %t\n", g.c.ToneOn())

	keys := make([]string, 0, op.KeyCount)
	for key := range op.KeyCount {
		if g.c.KeyDown(key) {
			keys = append(keys, fmt.Sprintf("%X", key))
		}
	}
	fmt.Fprintf(g.stateView, "Keys: %s\n", strings.Join(keys, " "))
}

func (g *Game) drawRegisters() {
	g.registersView.Clear()

	set := func(row, col int, name, value string) {
		g.registersView.SetCell(row, col*2, tview.NewTableCell(name).SetAttributes(tcell.AttrBold))
		g.registersView.SetCell(row, col*2+1, tview.NewTableCell(value).SetAlign(tview.AlignRight))
	}

	v := g.c.V()
	for i, elem := range v {
		set(i%8, i/8, fmt.Sprintf("V%X", i), fmt.Sprintf("%02X", elem))
	}
	set(0, 2, "PC", fmt.Sprintf("%03X", g.c.PC()))
	set(1, 2, "I", fmt.Sprintf("%03X", g.c.I()))
	set(2, 2, "DT", fmt.Sprintf("%02X", g.c.DT()))
	set(3, 2, "ST", fmt.Sprintf("%02X", g.c.ST()))
	set(4, 2, "SP", fmt.Sprintf("%d", g.c.StackDepth()))

	for i, addr := range g.c.Stack() {
		set(i, 3, fmt.Sprintf("#%d", i), fmt.Sprintf("%03X", addr))
	}
}

func (g *Game) drawDisasm() {
	g.disasmView.Clear()

	pc := g.c.PC()
	start := int(pc) - 8*op.InstructionSize
	if start < 0 {
		start = int(pc) % op.InstructionSize
	}
	for addr := start; addr < op.MemSize-1 && addr < int(pc)+16*op.InstructionSize; addr += op.InstructionSize {
		word := g.c.Ram.Word(uint16(addr))
		ins, _ := op.Decode(word)
		if addr == int(pc) {
			fmt.Fprintf(g.disasmView, "[::r]0x%03X  %04X  %s[::-]\n", addr, word, tview.Escape(ins.String()))
			continue
		}
		fmt.Fprintf(g.disasmView, "0x%03X  %04X  %s\n", addr, word, tview.Escape(ins.String()))
	}
}

func (g *Game) drawRAM() {
	g.ramView.SetSelectable(true, true)
	pc, idx := int(g.c.PC()), int(g.c.I())
	mem := g.c.Memory()
	for i, elem := range mem {
		cell := g.ramView.GetCell(i/ramWidth, i%ramWidth)
		if cell == nil || cell.Text == "" {
			cell = tview.NewTableCell("")
			g.ramView.SetCell(i/ramWidth, i%ramWidth, cell)
		}
		cell.SetText(fmt.Sprintf("%02x", elem))
		cell.SetTextColor(tcell.ColorDefault)
		cell.SetAttributes(tcell.AttrNone)

		switch {
		case i == pc || i == pc+1:
			cell.SetAttributes(tcell.AttrReverse).SetTextColor(tcell.ColorGreen)
		case i == idx:
			cell.SetAttributes(tcell.AttrUnderline).SetTextColor(tcell.ColorYellow)
		case i < op.FontAddr+len(op.Font):
			cell.SetTextColor(tcell.ColorDarkCyan)
		case elem == op.Filler:
			cell.SetTextColor(tcell.ColorDimGray)
			cell.SetAttributes(tcell.AttrDim)
		}
	}
}

func (g *Game) Draw() {
	g.mu.Lock()
	defer g.mu.Unlock()

	fb := g.c.Framebuffer()
	g.displayView.SetText(screen.Text(&fb))
	g.drawRAM()
	g.drawState()
	g.drawRegisters()
	g.drawDisasm()
}

func main() {
	log.SetFlags(0)

	cfg, err := cli.ParseConfig()
	if err != nil {
		log.Fatalf("Failed to parse CLI config: %s.", err)
	}

	// The terminal is ours, the trace goes to the logs view.
	traced := cfg.VM.Logger != nil
	cfg.VM.Logger = nil

	c, err := vm.New(cfg.VM)
	if err != nil {
		log.Fatalf("Failed to create vm: %s.", err)
	}
	c.Messages = make(chan vm.Message, 256)

	g := NewGame(context.Background(), c, cfg)
	if traced {
		c.SetLogger(slog.New(slog.NewTextHandler(escapeWriter{g.logsView}, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if p := cfg.Program; p.Prog != nil || len(p.Data) > 0 {
		src := tview.NewTextView()
		src.SetTitle(fmt.Sprintf("Program: %s", p.ShortName)).SetBorder(true)
		buf := &strings.Builder{}
		if p.Prog != nil {
			buf.WriteString(p.Prog.PrettyPrint())
		}
		src.SetText(buf.String())

		hex := tview.NewTextView().SetText(dumpROM(p.Data, cfg.VM.Address))
		if p.Image {
			hex.SetText(dumpROM(p.Data, 0))
		}
		hex.SetTitle("Hex").SetBorder(true)

		flex := tview.NewFlex().AddItem(src, 0, 1, false).
			AddItem(hex, 0, 1, false)
		g.root.AddPage("program", flex, true, false)
	}

	if cfg.Realtime {
		rt := &driver.RealTime{Machine: g, Frequency: cfg.Frequency, Locker: &g.mu}
		go func() {
			if err := rt.Run(g.ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(g.logsView, "[red]Real time driver stopped: %s[:::]\n", err)
			}
		}()
	} else {
		if g.fixed, err = driver.NewFixed(g, cfg.Frequency); err != nil {
			log.Fatalf("Failed to create driver: %s.", err)
		}
	}

	g.Init()
	go func() {
		const frame = time.Second / op.TimerFrequency
		ticker := time.NewTicker(frame)
		defer ticker.Stop()

		defer func() {
			if e := recover(); e != nil {
				g.app.Stop()
				log.Printf("Recovered from panic: %v", e)
				debug.PrintStack()
			}
		}()

		last := time.Now()
		for i := 0; ; i++ {
			now := time.Now()
			g.Update(now.Sub(last))
			last = now

			if i%drawEvery == 0 {
				g.app.QueueUpdateDraw(g.Draw)
			}

			select {
			case <-ticker.C:
			case <-g.ctx.Done():
				return
			}
		}
	}()

	if err := g.app.SetRoot(g.root, true).SetFocus(g.root).Run(); err != nil {
		log.Fatalf("Failed to run the viewer: %s.", err)
	}
	g.cancel()
	if err := c.Err(); err != nil {
		log.Printf("Machine stopped: %s.", err)
	}
}

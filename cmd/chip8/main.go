package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/hajimehoshi/bitmapfont/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"go.creack.net/chip8/buzzer"
	"go.creack.net/chip8/cli"
	"go.creack.net/chip8/driver"
	"go.creack.net/chip8/op"
	"go.creack.net/chip8/screen"
	"go.creack.net/chip8/statsview"
	"go.creack.net/chip8/vm"
)

var fontFace = text.NewGoXFace(bitmapfont.Face)

var (
	fgColor     = color.RGBA{R: 0x33, G: 0xFF, B: 0x66, A: 0xFF}
	bgColor     = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
	statusColor = color.RGBA{R: 0xFF, G: 0x40, B: 0x40, A: 0xFF}
)

// hostKeys maps the characters of op.KeyLayout to ebiten keys.
var hostKeys = map[byte]ebiten.Key{
	'1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

// Game implements ebiten.Game interface.
type Game struct {
	c     *vm.Chip8
	fixed *driver.Fixed // Nil in real time mode.

	// Held around every access to the machine,
	// the real time driver steps from its own goroutine.
	mu     sync.Mutex
	paused bool

	stream *buzzer.Stream

	pixels []byte
	img    *ebiten.Image

	width, height int
}

// Step implements driver.Machine. Nothing runs while paused.
func (g *Game) Step(elapsed time.Duration) bool {
	if g.paused {
		return true
	}
	return g.c.Step(elapsed)
}

// Update proceeds the game state.
// Update is called every tick (1/60 [s] by default).
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	for key := range op.KeyCount {
		g.c.SetKeyDown(key, ebiten.IsKeyPressed(hostKeys[op.KeyLayout[key]]))
	}
	if g.fixed != nil {
		g.fixed.Frame(time.Second / time.Duration(ebiten.TPS()))
	}
	g.stream.SetOn(g.c.ToneOn() && !g.paused && !g.c.Halted())
	return nil
}

func (g *Game) status() string {
	switch {
	case g.c.Halted():
		return g.c.Err().Error()
	case g.paused:
		return "paused"
	case g.c.Waiting():
		return "waiting for key"
	}
	return ""
}

// Draw draws the game screen.
// Draw is called every frame (typically 1/60[s] for 60Hz display).
func (g *Game) Draw(dst *ebiten.Image) {
	g.mu.Lock()
	fb := g.c.Framebuffer()
	status := g.status()
	g.mu.Unlock()

	screen.Pixels(g.pixels, &fb, fgColor, bgColor)
	g.img.WritePixels(g.pixels)

	imgOp := &ebiten.DrawImageOptions{}
	imgOp.GeoM.Scale(float64(g.width)/op.DisplayWidth, float64(g.height)/op.DisplayHeight)
	dst.DrawImage(g.img, imgOp)

	if status == "" {
		return
	}
	textOp := &text.DrawOptions{}
	textOp.LineSpacing = fontFace.Metrics().HLineGap + fontFace.Metrics().HAscent + fontFace.Metrics().HDescent
	textOp.ColorScale.ScaleWithColor(statusColor)
	text.Draw(dst, status, fontFace, textOp)
}

// Layout takes the outside size (e.g., the window size) and returns the (logical) screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.width, g.height
}

func main() {
	log.SetFlags(0)

	cfg, err := cli.ParseConfig()
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.StatsView {
		log.Printf("Stats server available at %s.", statsview.Serve(ctx, statsview.DefaultAddr))
	}

	c, err := vm.New(cfg.VM)
	if err != nil {
		log.Fatalf("Failed to create vm: %s.", err)
	}

	g := &Game{
		c:      c,
		stream: buzzer.NewStream(buzzer.SampleRate),
		pixels: make([]byte, op.DisplayWidth*op.DisplayHeight*4),
		img:    ebiten.NewImage(op.DisplayWidth, op.DisplayHeight),
		width:  cfg.Width,
		height: cfg.Height,
	}

	player, err := audio.NewContext(buzzer.SampleRate).NewPlayer(g.stream)
	if err != nil {
		log.Fatalf("Failed to create audio player: %s.", err)
	}
	player.SetBufferSize(50 * time.Millisecond)
	player.Play()

	if cfg.Realtime {
		rt := &driver.RealTime{Machine: g, Frequency: cfg.Frequency, Locker: &g.mu}
		go func() {
			if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Real time driver stopped: %s.", err)
			}
		}()
	} else {
		if g.fixed, err = driver.NewFixed(g, cfg.Frequency); err != nil {
			log.Fatalf("Failed to create driver: %s.", err)
		}
	}

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(fmt.Sprintf("CHIP-8 - %s", cfg.Program.ShortName))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// Call ebiten.RunGame to start your game loop.
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
	if err := c.Err(); err != nil {
		log.Printf("Machine stopped: %s.", err)
	}
}

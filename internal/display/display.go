// Package display renders a Bus's PPU state into an on-screen window
// and polls keyboard input into a joypad, using ebiten. It is a
// consumer of the core (internal/cpu, internal/ppu, internal/bus), not
// part of it: what's drawn here is a flat fill keyed off the current
// LCD mode rather than a pixel-accurate tile/sprite pipeline.
package display

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Osmose/gamegirl/internal/bus"
	"github.com/Osmose/gamegirl/internal/joypad"
)

const (
	screenWidth  = 160
	screenHeight = 144
)

var keyBindings = map[ebiten.Key]joypad.Button{
	ebiten.KeyArrowRight: joypad.ButtonRight,
	ebiten.KeyArrowLeft:  joypad.ButtonLeft,
	ebiten.KeyArrowUp:    joypad.ButtonUp,
	ebiten.KeyArrowDown:  joypad.ButtonDown,
	ebiten.KeyZ:          joypad.ButtonA,
	ebiten.KeyX:          joypad.ButtonB,
	ebiten.KeyShift:      joypad.ButtonSelect,
	ebiten.KeyEnter:      joypad.ButtonStart,
}

// Game adapts a Bus to ebiten.Game: each Update steps the core for
// StepsPerFrame instructions (1000 by default, far fewer than one full
// DMG frame), and Draw fills the screen from the current PPU mode.
type Game struct {
	Bus           *bus.Bus
	Joypad        *joypad.Joypad
	StepsPerFrame int
}

// NewGame constructs a Game around an already-powered-on Bus.
func NewGame(b *bus.Bus) *Game {
	return &Game{
		Bus:           b,
		Joypad:        joypad.New(b.Space.IORegs()),
		StepsPerFrame: 1000,
	}
}

// Update polls input and steps the core, stopping early on a core
// error so the caller can halt the loop.
func (g *Game) Update() error {
	for key, button := range keyBindings {
		g.Joypad.SetPressed(button, ebiten.IsKeyPressed(key))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for i := 0; i < g.StepsPerFrame; i++ {
		if _, err := g.Bus.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Draw fills the screen with a color derived from the PPU's current
// mode only (the scanline is not used), a stand-in for the real tile/sprite pipeline the
// spec excludes from scope.
func (g *Game) Draw(screen *ebiten.Image) {
	var c color.RGBA
	switch g.Bus.PPU.Mode() {
	case 2: // OAM
		c = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	case 3: // VRAM
		c = color.RGBA{R: 120, G: 120, B: 160, A: 255}
	case 0: // HBlank
		c = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	default: // VBlank
		c = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	}
	screen.Fill(c)
}

// Layout reports the fixed DMG screen resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

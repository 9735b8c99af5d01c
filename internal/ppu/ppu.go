// Package ppu implements the LCD mode timing state machine: an
// accumulator advanced by CPU cycles, transitioning OAM -> VRAM ->
// HBLANK -> (OAM | VBLANK) on cumulative thresholds and tracking the
// current scanline in LY.
package ppu

// Mode is one of the four LCD controller states, numerically equal to
// the value it occupies in STAT's low two bits.
type Mode byte

const (
	ModeHBlank Mode = 0
	ModeVBlank Mode = 1
	ModeOAM    Mode = 2
	ModeVRAM   Mode = 3
)

const (
	oamCycles   = 80
	vramCycles  = 172
	hblankCyles = 204
	vblankCyles = 4560

	lastVisibleLine = 143
)

// StatusWriter is the sub-field view of STAT that the PPU needs:
// getting/setting the mode bits. Satisfied by *ioregs.Bank via its
// named-register field accessors.
type StatusWriter interface {
	SetField(regName, fieldName string, value byte) error
	GetField(regName, fieldName string) (byte, error)
}

// PPU is the DMG LCD mode state machine.
type PPU struct {
	stat StatusWriter

	mode        Mode
	accumulator int
	ly          byte

	onVBlank func()
}

// New constructs a PPU bound to the STAT sub-field accessor, in the
// reset state: OAM mode, LY=0, accumulator=0.
func New(stat StatusWriter) *PPU {
	p := &PPU{stat: stat}
	p.Reset()
	return p
}

// Reset restores the mode machine to its power-on state.
func (p *PPU) Reset() {
	p.mode = ModeOAM
	p.accumulator = 0
	p.ly = 0
	p.writeMode()
}

// SetVBlankCallback registers a hook fired each time the machine enters
// VBlank. Optional; nil by default.
func (p *PPU) SetVBlankCallback(fn func()) {
	p.onVBlank = fn
}

// Mode returns the current LCD mode.
func (p *PPU) Mode() Mode {
	return p.mode
}

// LY returns the current scanline index.
func (p *PPU) LY() byte {
	return p.ly
}

// Tick advances the mode machine by cycles T-states, applying
// transitions in order (OAM, VRAM, HBLANK, VBLANK) within this one
// call; the accumulator may carry residuals between calls.
func (p *PPU) Tick(cycles int) {
	p.accumulator += cycles

	for {
		advanced := false
		switch p.mode {
		case ModeOAM:
			if p.accumulator >= oamCycles {
				p.accumulator -= oamCycles
				p.mode = ModeVRAM
				advanced = true
			}
		case ModeVRAM:
			if p.accumulator >= vramCycles {
				p.accumulator -= vramCycles
				p.mode = ModeHBlank
				advanced = true
			}
		case ModeHBlank:
			if p.accumulator >= hblankCyles {
				p.accumulator -= hblankCyles
				p.ly++
				if p.ly > lastVisibleLine {
					p.mode = ModeVBlank
					if p.onVBlank != nil {
						p.onVBlank()
					}
				} else {
					p.mode = ModeOAM
				}
				advanced = true
			}
		case ModeVBlank:
			if p.accumulator >= vblankCyles {
				p.accumulator -= vblankCyles
				p.ly = 0
				p.mode = ModeOAM
				advanced = true
			}
		}
		if !advanced {
			break
		}
	}

	p.writeMode()
}

func (p *PPU) writeMode() {
	_ = p.stat.SetField("stat", "mode", byte(p.mode))
}

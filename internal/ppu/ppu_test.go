package ppu

import "testing"

// fakeStat is a minimal StatusWriter backed by a single byte, standing
// in for ioregs.Bank's named-register field accessors in isolation.
type fakeStat struct {
	mode byte
}

func (f *fakeStat) SetField(regName, fieldName string, value byte) error {
	f.mode = value
	return nil
}

func (f *fakeStat) GetField(regName, fieldName string) (byte, error) {
	return f.mode, nil
}

// S6: PPU transition sequence from a fresh reset.
func TestScenarioS6(t *testing.T) {
	stat := &fakeStat{}
	p := New(stat)

	if p.Mode() != ModeOAM || p.LY() != 0 {
		t.Fatalf("initial state = mode=%v LY=%d, want OAM/0", p.Mode(), p.LY())
	}

	p.Tick(80)
	if p.Mode() != ModeVRAM {
		t.Fatalf("after tick(80): mode=%v, want VRAM", p.Mode())
	}

	p.Tick(172)
	if p.Mode() != ModeHBlank {
		t.Fatalf("after tick(172): mode=%v, want HBlank", p.Mode())
	}

	p.Tick(204)
	if p.Mode() != ModeOAM {
		t.Fatalf("after tick(204): mode=%v, want OAM", p.Mode())
	}
	if p.LY() != 1 {
		t.Fatalf("after tick(204): LY=%d, want 1", p.LY())
	}
}

func TestVBlankEntryAndCallback(t *testing.T) {
	stat := &fakeStat{}
	p := New(stat)
	fired := false
	p.SetVBlankCallback(func() { fired = true })

	// Drive through all 144 visible scanlines.
	for line := 0; line < 144; line++ {
		p.Tick(80)
		p.Tick(172)
		p.Tick(204)
	}
	if p.Mode() != ModeVBlank {
		t.Fatalf("mode after 144 lines = %v, want VBlank", p.Mode())
	}
	if !fired {
		t.Fatalf("VBlank callback did not fire")
	}
}

func TestVBlankReturnsToOAMAndResetsLY(t *testing.T) {
	stat := &fakeStat{}
	p := New(stat)
	for line := 0; line < 144; line++ {
		p.Tick(80)
		p.Tick(172)
		p.Tick(204)
	}
	p.Tick(4560)
	if p.Mode() != ModeOAM {
		t.Fatalf("mode after full vblank = %v, want OAM", p.Mode())
	}
	if p.LY() != 0 {
		t.Fatalf("LY after full vblank = %d, want 0", p.LY())
	}
}

func TestCascadingTransitionsInOneCall(t *testing.T) {
	stat := &fakeStat{}
	p := New(stat)

	// A single large tick should cascade through OAM->VRAM->HBlank
	// (80+172+204 = 456, one full scanline) within one call.
	p.Tick(456)
	if p.Mode() != ModeOAM {
		t.Fatalf("mode after one scanline's cycles in a single Tick = %v, want OAM", p.Mode())
	}
	if p.LY() != 1 {
		t.Fatalf("LY after one scanline's cycles in a single Tick = %d, want 1", p.LY())
	}
}

package joypad

import "testing"

type fakeRegs struct {
	p1 byte
}

func (f *fakeRegs) Write(addr uint16, v byte) error {
	if addr == addrP1 {
		f.p1 = v
	}
	return nil
}

func TestDirectionSelection(t *testing.T) {
	regs := &fakeRegs{}
	j := New(regs)

	j.SetPressed(ButtonRight, true)
	j.SelectLines(0xEF) // bit 4 clear: select direction keys

	if regs.p1&0x01 != 0 {
		t.Fatalf("P1 bit 0 (right) should read 0 (pressed) when selected, got $%02x", regs.p1)
	}
	if regs.p1&0x02 == 0 {
		t.Fatalf("P1 bit 1 (left) should read 1 (not pressed), got $%02x", regs.p1)
	}
}

func TestActionSelection(t *testing.T) {
	regs := &fakeRegs{}
	j := New(regs)

	j.SetPressed(ButtonA, true)
	j.SelectLines(0xDF) // bit 5 clear: select action keys

	if regs.p1&0x01 != 0 {
		t.Fatalf("P1 bit 0 (A) should read 0 (pressed) when selected, got $%02x", regs.p1)
	}
}

func TestNoSelectionLeavesNibbleHigh(t *testing.T) {
	regs := &fakeRegs{}
	j := New(regs)
	j.SetPressed(ButtonA, true)
	j.SelectLines(0xFF) // neither line selected

	if regs.p1&0x0F != 0x0F {
		t.Fatalf("P1 low nibble with no selection = $%x, want $F", regs.p1&0x0F)
	}
}

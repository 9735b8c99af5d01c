package bus

import "testing"

func testCart() []byte {
	return make([]byte, 0x8000)
}

func testBoot() []byte {
	return make([]byte, 0x100)
}

func TestPowerOnResetState(t *testing.T) {
	b := PowerOn(testCart(), testBoot())
	regs := b.Registers()
	if regs.PC != 0 || regs.SP != 0 {
		t.Fatalf("PowerOn: PC=%d SP=%d, want 0/0", regs.PC, regs.SP)
	}
	if b.PPU.Mode() != 2 { // ModeOAM
		t.Fatalf("PowerOn: PPU mode = %v, want OAM", b.PPU.Mode())
	}
	if b.PPU.LY() != 0 {
		t.Fatalf("PowerOn: LY = %d, want 0", b.PPU.LY())
	}
	if !b.Space.BootEnabled() {
		t.Fatalf("PowerOn: boot overlay should start enabled")
	}
}

func TestStepTicksPPUByConsumedCycles(t *testing.T) {
	cart := testCart()
	boot := testBoot()
	boot[0] = 0x00 // NOP, 4 cycles
	b := PowerOn(cart, boot)

	for i := 0; i < 20; i++ {
		if _, err := b.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if b.CPU.Cycles != 80 {
		t.Fatalf("cycles after 20 NOPs = %d, want 80", b.CPU.Cycles)
	}
	if b.PPU.Mode() != 3 { // ModeVRAM, since accumulator (80) just crossed OAM's threshold
		t.Fatalf("PPU mode after 80 cycles = %v, want VRAM", b.PPU.Mode())
	}
}

func TestReadWritePassthrough(t *testing.T) {
	b := PowerOn(testCart(), testBoot())
	b.Space.DisableBoot()
	if err := b.WriteByte(0xC000, 0x42); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	v, err := b.ReadByte(0xC000)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if v != 0x42 {
		t.Fatalf("ReadByte = $%02x, want $42", v)
	}
}

func TestDebugEffectGating(t *testing.T) {
	cart := testCart()
	boot := testBoot()
	boot[0] = 0x00
	b := PowerOn(cart, boot)

	effect, err := b.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if effect != nil {
		t.Fatalf("Step without Debug should return nil Effect")
	}

	b.SetDebug(true)
	effect, err = b.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if effect == nil {
		t.Fatalf("Step with Debug set should return a non-nil Effect")
	}
	if effect.Mnemonic != "NOP" {
		t.Fatalf("Mnemonic = %q, want %q", effect.Mnemonic, "NOP")
	}
}

// Package bus wires the CPU, address space, PPU mode machine, and timer
// into a single steppable system. Bus.Step executes one CPU
// instruction, then ticks the dependent components by the cycles that
// instruction consumed. Sound registers exist as storage only; the APU
// is not driven.
package bus

import (
	"github.com/Osmose/gamegirl/internal/addr"
	"github.com/Osmose/gamegirl/internal/cpu"
	"github.com/Osmose/gamegirl/internal/ppu"
	"github.com/Osmose/gamegirl/internal/timer"
)

// Registers is the external register snapshot returned by Registers().
type Registers struct {
	A, B, C, D, E, F, H, L byte
	SP, PC                 uint16
}

// Bus is the complete steppable DMG core.
type Bus struct {
	CPU   *cpu.CPU
	Space *addr.Space
	PPU   *ppu.PPU
	Timer *timer.Timer
}

// PowerOn constructs the core from a cartridge image and boot ROM
// image: PC=0, SP=0, registers=0, boot overlay enabled, STAT mode=OAM,
// LY=0, mapped registers at their reset values.
func PowerOn(cartBytes, bootBytes []byte) *Bus {
	space := addr.New(cartBytes, bootBytes)
	c := cpu.New(space)
	p := ppu.New(space.IORegs())
	t := timer.New(space.IORegs())
	return &Bus{CPU: c, Space: space, PPU: p, Timer: t}
}

// Step executes one CPU instruction and ticks the PPU and timer by its
// cycle cost. Memory effects of the instruction are visible before the
// tick, per the ordering rule in the core's concurrency model.
func (b *Bus) Step() (*cpu.Effect, error) {
	before := b.CPU.Cycles
	effect, err := b.CPU.Step()
	if err != nil {
		return effect, err
	}
	delta := int(b.CPU.Cycles - before)
	b.PPU.Tick(delta)
	b.Timer.Tick(delta)
	return effect, nil
}

// ReadByte is a passthrough to the address space, for a debugger's
// memory pane.
func (b *Bus) ReadByte(a uint16) (byte, error) { return b.Space.ReadByte(a) }

// WriteByte is a passthrough to the address space.
func (b *Bus) WriteByte(a uint16, v byte) error { return b.Space.WriteByte(a, v) }

// ReadShort is a passthrough to the address space.
func (b *Bus) ReadShort(a uint16) (uint16, error) { return b.Space.ReadShort(a) }

// WriteShort is a passthrough to the address space.
func (b *Bus) WriteShort(a uint16, v uint16) error { return b.Space.WriteShort(a, v) }

// Registers returns a snapshot of the CPU register file.
func (b *Bus) Registers() Registers {
	r := b.CPU.Regs
	return Registers{
		A: r.A, B: r.B, C: r.C, D: r.D, E: r.E, F: r.F, H: r.H, L: r.L,
		SP: r.SP, PC: r.PC,
	}
}

// TickPPU advances the PPU mode machine directly, for hosts (tests,
// debuggers) driving it independently of CPU steps.
func (b *Bus) TickPPU(cycles int) {
	b.PPU.Tick(cycles)
}

// SetDebug toggles whether Step populates a mnemonic Effect.
func (b *Bus) SetDebug(v bool) {
	b.CPU.Debug = v
}

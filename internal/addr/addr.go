// Package addr implements the address-space router: it maps a 16-bit
// Game Boy address to the owning memory region (or mapped I/O register)
// and enforces access legality, failing loudly on any access outside a
// mapped region rather than falling back to an open-bus value.
package addr

import (
	"errors"
	"fmt"

	"github.com/Osmose/gamegirl/internal/ioregs"
	"github.com/Osmose/gamegirl/internal/memregion"
)

// Region identifies which memory region an address resolved to.
type Region int

const (
	RegionBoot Region = iota
	RegionROM
	RegionVRAM
	RegionWRAM
	RegionWaveRAM
	RegionHRAM
	RegionIO
)

const (
	bootSize = 0x100
	romMax   = 0x8000
	vramBase = 0x8000
	vramSize = 0x2000
	wramBase = 0xC000
	wramSize = 0x2000
	echoBase = 0xE000
	echoEnd  = 0xFE00
	waveBase = 0xFF30
	waveSize = 0x10
	hramBase = 0xFF80
	hramSize = 0x7F
)

// InvalidRangeError reports an access that straddles region boundaries
// or falls in an unmapped hole.
type InvalidRangeError struct {
	Start, End uint16
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: $%04x-$%04x", e.Start, e.End)
}

// ReadOnlyError reports a write attempted against a read-only region.
type ReadOnlyError struct {
	Addr uint16
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("read-only: $%04x", e.Addr)
}

// Space is the full Game Boy address space: cartridge ROM, boot ROM
// overlay, VRAM, WRAM (with its echo), wave-pattern RAM, high RAM, and
// the mapped I/O register bank.
type Space struct {
	boot *memregion.ROM
	cart *memregion.ROM
	vram *memregion.RAM
	wram *memregion.RAM
	wave *memregion.RAM
	hram *memregion.RAM
	io   *ioregs.Bank

	bootEnabled bool
}

// New constructs an address space with the given cartridge and boot ROM
// images. The boot overlay starts enabled.
func New(cartBytes, bootBytes []byte) *Space {
	return &Space{
		boot:        memregion.NewROM(bootBytes),
		cart:        memregion.NewROM(cartBytes),
		vram:        memregion.NewRAM(vramSize),
		wram:        memregion.NewRAM(wramSize),
		wave:        memregion.NewRAM(waveSize),
		hram:        memregion.NewRAM(hramSize),
		io:          ioregs.NewBank(),
		bootEnabled: true,
	}
}

// IORegs exposes the mapped I/O register bank directly, for components
// (PPU, timer, joypad) that need sub-field access rather than raw bytes.
func (s *Space) IORegs() *ioregs.Bank {
	return s.io
}

// BootEnabled reports whether the boot ROM overlay is currently visible.
func (s *Space) BootEnabled() bool {
	return s.bootEnabled
}

// DisableBoot clears the boot ROM overlay, exposing cartridge ROM at
// addresses 0x0000-0x00FF from then on. This is the DMG's 0xFF50 latch
// (see addr.HandleBootDisable); exposed directly for tests and for
// power_on-time setup.
func (s *Space) DisableBoot() {
	s.bootEnabled = false
}

// HandleBootDisable implements the DMG 0xFF50 write-1 latch: writing a
// value with bit 0 set to 0xFF50 permanently disables the boot ROM
// overlay; values with bit 0 clear leave it unchanged.
// WriteByte calls this after every I/O-bank write to let the address
// space react to it.
func (s *Space) HandleBootDisable(addr uint16, value byte) {
	if addr == 0xFF50 && value&0x01 == 1 {
		s.bootEnabled = false
	}
}

// resolve determines the owning region and base address for an access
// covering [a, a+length). It does not itself perform bounds checking
// against the region's byte size beyond guaranteeing the whole access
// fits within a single region.
func (s *Space) resolve(a uint16, length uint16) (Region, uint16, error) {
	end := uint32(a) + uint32(length)

	if s.bootEnabled && end <= bootSize {
		return RegionBoot, 0, nil
	}
	if end <= romMax {
		return RegionROM, 0, nil
	}
	if a >= vramBase && end <= vramBase+vramSize {
		return RegionVRAM, vramBase, nil
	}
	if a >= wramBase && end <= wramBase+wramSize {
		return RegionWRAM, wramBase, nil
	}
	if a >= echoBase && end <= echoEnd {
		return RegionWRAM, echoBase, nil
	}
	if a >= waveBase && end <= waveBase+waveSize {
		return RegionWaveRAM, waveBase, nil
	}
	if a >= hramBase && end <= hramBase+hramSize {
		return RegionHRAM, hramBase, nil
	}
	if a >= 0xFF00 && end <= 0xFF80 {
		return RegionIO, 0, nil
	}
	if a == 0xFFFF && end == 0x10000 {
		return RegionIO, 0, nil
	}

	return 0, 0, &InvalidRangeError{Start: a, End: uint16(end)}
}

// ReadByte reads a single byte at addr.
func (s *Space) ReadByte(a uint16) (byte, error) {
	region, base, err := s.resolve(a, 1)
	if err != nil {
		return 0, err
	}
	switch region {
	case RegionBoot:
		return s.boot.Read8(a - base), nil
	case RegionROM:
		if int(a-base) >= s.cart.Size() {
			return 0, nil
		}
		return s.cart.Read8(a - base), nil
	case RegionVRAM:
		return s.vram.Read8(a - base), nil
	case RegionWRAM:
		return s.wram.Read8(a - base), nil
	case RegionWaveRAM:
		return s.wave.Read8(a - base), nil
	case RegionHRAM:
		return s.hram.Read8(a - base), nil
	case RegionIO:
		return s.io.Read(a)
	default:
		return 0, &InvalidRangeError{Start: a, End: a + 1}
	}
}

// WriteByte writes a single byte at addr.
func (s *Space) WriteByte(a uint16, v byte) error {
	region, base, err := s.resolve(a, 1)
	if err != nil {
		return err
	}
	switch region {
	case RegionBoot, RegionROM:
		return &ReadOnlyError{Addr: a}
	case RegionVRAM:
		s.vram.Write8(a-base, v)
	case RegionWRAM:
		s.wram.Write8(a-base, v)
	case RegionWaveRAM:
		s.wave.Write8(a-base, v)
	case RegionHRAM:
		s.hram.Write8(a-base, v)
	case RegionIO:
		if err := s.io.Write(a, v); err != nil {
			return err
		}
		s.HandleBootDisable(a, v)
	default:
		return &InvalidRangeError{Start: a, End: a + 1}
	}
	return nil
}

// ReadShort reads a little-endian 16-bit value at addr and addr+1.
func (s *Space) ReadShort(a uint16) (uint16, error) {
	region, base, err := s.resolve(a, 2)
	if err != nil {
		// Fall back to two single-byte reads so a short that straddles
		// WRAM/echo or IO-register boundaries (both legal in the DMG
		// map) still resolves correctly; resolve() only fast-paths the
		// common single-region case.
		lo, errLo := s.ReadByte(a)
		if errLo != nil {
			return 0, errLo
		}
		hi, errHi := s.ReadByte(a + 1)
		if errHi != nil {
			return 0, errHi
		}
		return uint16(lo) | uint16(hi)<<8, nil
	}
	switch region {
	case RegionBoot:
		return s.boot.Read16(a - base), nil
	case RegionROM:
		return s.cart.Read16(a - base), nil
	case RegionVRAM:
		return s.vram.Read16(a - base), nil
	case RegionWRAM:
		return s.wram.Read16(a - base), nil
	case RegionWaveRAM:
		return s.wave.Read16(a - base), nil
	case RegionHRAM:
		return s.hram.Read16(a - base), nil
	case RegionIO:
		return s.io.Read16(a)
	default:
		return 0, &InvalidRangeError{Start: a, End: a + 2}
	}
}

// WriteShort writes a little-endian 16-bit value at addr and addr+1.
func (s *Space) WriteShort(a uint16, v uint16) error {
	region, base, err := s.resolve(a, 2)
	if err != nil {
		// Check both bytes before writing either, so a failed short
		// write leaves memory unchanged.
		for _, x := range [2]uint16{a, a + 1} {
			r, _, errX := s.resolve(x, 1)
			switch {
			case errX != nil:
				return errX
			case r == RegionBoot || r == RegionROM:
				return &ReadOnlyError{Addr: x}
			case r == RegionIO && !s.io.Has(x):
				return &ioregs.MissingRegisterError{Addr: x}
			}
		}
		if errLo := s.WriteByte(a, byte(v)); errLo != nil {
			return errLo
		}
		return s.WriteByte(a+1, byte(v>>8))
	}
	switch region {
	case RegionBoot, RegionROM:
		return &ReadOnlyError{Addr: a}
	case RegionVRAM:
		s.vram.Write16(a-base, v)
	case RegionWRAM:
		s.wram.Write16(a-base, v)
	case RegionWaveRAM:
		s.wave.Write16(a-base, v)
	case RegionHRAM:
		s.hram.Write16(a-base, v)
	case RegionIO:
		if err := s.io.Write16(a, v); err != nil {
			return err
		}
	default:
		return &InvalidRangeError{Start: a, End: a + 2}
	}
	return nil
}

// IsMissingRegister reports whether err is a MissingRegisterError,
// convenience wrapper around errors.As for callers that don't want to
// import ioregs directly.
func IsMissingRegister(err error) bool {
	var target *ioregs.MissingRegisterError
	return errors.As(err, &target)
}

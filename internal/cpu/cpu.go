// Package cpu implements the Sharp LR35902 instruction interpreter: the
// register file, stack, and fetch-decode-execute loop. Opcodes dispatch
// through a direct switch on the opcode byte rather than a table of
// closures. The debug mnemonic string is formatted for every executed
// instruction whether or not Debug is set, so the hot path is not
// allocation-free.
package cpu

import "fmt"

// Memory is the capability the CPU needs from the address space: byte
// and short reads/writes that can fail with a typed error (InvalidRange,
// ReadOnly, MissingRegister from the addr package).
type Memory interface {
	ReadByte(addr uint16) (byte, error)
	WriteByte(addr uint16, v byte) error
	ReadShort(addr uint16) (uint16, error)
	WriteShort(addr uint16, v uint16) error
}

// UnknownOpcodeError reports a primary-table miss.
type UnknownOpcodeError struct {
	Opcode byte
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode: $%02x", e.Opcode)
}

// UnknownCBOpcodeError reports a CB-table miss.
type UnknownCBOpcodeError struct {
	Opcode byte
}

func (e *UnknownCBOpcodeError) Error() string {
	return fmt.Sprintf("unknown CB opcode: $%02x", e.Opcode)
}

// Effect describes one executed instruction for logging/debug, returned
// by Step only when Debug is set.
type Effect struct {
	PCBefore      uint16
	BytesConsumed int
	Mnemonic      string
	Cycles        int
}

// r8Names is the standard LR35902 8-bit operand encoding: register
// index (opcode>>3)&7 or opcode&7 selects into this table, where index
// 6 means "indirect via HL" rather than a register.
var r8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

var rr16Names = [4]string{"BC", "DE", "HL", "SP"}
var rrStackNames = [4]string{"BC", "DE", "HL", "AF"}

// CPU is the LR35902 core: register file, stack, and bound memory.
type CPU struct {
	Regs  Registers
	Mem   Memory
	stack *Stack

	Debug  bool
	Cycles uint64
}

// New constructs a CPU bound to mem. Registers start zeroed; callers
// that want power-on semantics (PC=0, SP=0, etc.) get that for free
// since the zero value already satisfies it — see bus.PowerOn.
func New(mem Memory) *CPU {
	c := &CPU{Mem: mem}
	c.stack = NewStack(&c.Regs, mem)
	return c
}

// Step executes one instruction: fetch, decode, execute, charge
// cycles. On success it returns a non-nil *Effect only if Debug is set;
// otherwise it returns (nil, nil). On failure the instruction has made
// no register or memory changes beyond PC bytes already consumed for
// decode, per the core's atomicity contract.
func (c *CPU) Step() (*Effect, error) {
	pcBefore := c.Regs.PC
	opcode, err := c.fetch8()
	if err != nil {
		return nil, err
	}

	mnemonic, cycles, err := c.execute(opcode)
	if err != nil {
		return nil, err
	}
	c.Cycles += uint64(cycles)

	if !c.Debug {
		return nil, nil
	}
	return &Effect{
		PCBefore:      pcBefore,
		BytesConsumed: int(c.Regs.PC - pcBefore),
		Mnemonic:      mnemonic,
		Cycles:        cycles,
	}, nil
}

func (c *CPU) fetch8() (byte, error) {
	v, err := c.Mem.ReadByte(c.Regs.PC)
	if err != nil {
		return 0, err
	}
	c.Regs.PC++
	return v, nil
}

func (c *CPU) fetch16() (uint16, error) {
	v, err := c.Mem.ReadShort(c.Regs.PC)
	if err != nil {
		return 0, err
	}
	c.Regs.PC += 2
	return v, nil
}

func (c *CPU) readR8(idx byte) (byte, error) {
	switch idx {
	case 0:
		return c.Regs.B, nil
	case 1:
		return c.Regs.C, nil
	case 2:
		return c.Regs.D, nil
	case 3:
		return c.Regs.E, nil
	case 4:
		return c.Regs.H, nil
	case 5:
		return c.Regs.L, nil
	case 6:
		return c.Mem.ReadByte(c.Regs.HL())
	default:
		return c.Regs.A, nil
	}
}

func (c *CPU) writeR8(idx byte, v byte) error {
	switch idx {
	case 0:
		c.Regs.B = v
	case 1:
		c.Regs.C = v
	case 2:
		c.Regs.D = v
	case 3:
		c.Regs.E = v
	case 4:
		c.Regs.H = v
	case 5:
		c.Regs.L = v
	case 6:
		return c.Mem.WriteByte(c.Regs.HL(), v)
	default:
		c.Regs.A = v
	}
	return nil
}

func (c *CPU) readRR(idx byte) uint16 {
	switch idx {
	case 0:
		return c.Regs.BC()
	case 1:
		return c.Regs.DE()
	case 2:
		return c.Regs.HL()
	default:
		return c.Regs.SP
	}
}

func (c *CPU) writeRR(idx byte, v uint16) {
	switch idx {
	case 0:
		c.Regs.SetBC(v)
	case 1:
		c.Regs.SetDE(v)
	case 2:
		c.Regs.SetHL(v)
	default:
		c.Regs.SP = v
	}
}

func (c *CPU) readRRStack(idx byte) uint16 {
	switch idx {
	case 0:
		return c.Regs.BC()
	case 1:
		return c.Regs.DE()
	case 2:
		return c.Regs.HL()
	default:
		return c.Regs.AF()
	}
}

func (c *CPU) writeRRStack(idx byte, v uint16) {
	switch idx {
	case 0:
		c.Regs.SetBC(v)
	case 1:
		c.Regs.SetDE(v)
	case 2:
		c.Regs.SetHL(v)
	default:
		c.Regs.SetAF(v)
	}
}

func regCost(idx byte, regCycles, indCycles int) int {
	if idx == 6 {
		return indCycles
	}
	return regCycles
}

// execute dispatches a single primary opcode. It returns the debug
// mnemonic (computed unconditionally; cheap string formatting is not
// worth gating behind Debug at this granularity) plus the instruction's
// cycle cost.
func (c *CPU) execute(opcode byte) (string, int, error) {
	switch {
	case opcode == 0x00:
		return "NOP", 4, nil

	case opcode == 0x01 || opcode == 0x11 || opcode == 0x21 || opcode == 0x31:
		idx := (opcode >> 4) & 0x3
		v, err := c.fetch16()
		if err != nil {
			return "", 0, err
		}
		c.writeRR(idx, v)
		return fmt.Sprintf("LD %s,$%04x", rr16Names[idx], v), 12, nil

	case opcode == 0x02:
		return c.ldIndirectFromA(c.Regs.BC(), "(BC)")
	case opcode == 0x12:
		return c.ldIndirectFromA(c.Regs.DE(), "(DE)")
	case opcode == 0x77:
		return c.ldIndirectFromA(c.Regs.HL(), "(HL)")
	case opcode == 0x22:
		addr := c.Regs.HL()
		if err := c.Mem.WriteByte(addr, c.Regs.A); err != nil {
			return "", 0, err
		}
		c.Regs.SetHL(addr + 1)
		return "LD (HL+),A", 8, nil
	case opcode == 0x32:
		addr := c.Regs.HL()
		if err := c.Mem.WriteByte(addr, c.Regs.A); err != nil {
			return "", 0, err
		}
		c.Regs.SetHL(addr - 1)
		return "LD (HL-),A", 8, nil

	case opcode&0xC7 == 0x06:
		r := (opcode >> 3) & 0x7
		imm, err := c.fetch8()
		if err != nil {
			return "", 0, err
		}
		if err := c.writeR8(r, imm); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("LD %s,$%02x", r8Names[r], imm), regCost(r, 8, 12), nil

	case opcode == 0x0A:
		return c.ldAFromIndirect(c.Regs.BC(), "(BC)")
	case opcode == 0x1A:
		return c.ldAFromIndirect(c.Regs.DE(), "(DE)")
	case opcode == 0xFA:
		addr, err := c.fetch16()
		if err != nil {
			return "", 0, err
		}
		v, err := c.Mem.ReadByte(addr)
		if err != nil {
			return "", 0, err
		}
		c.Regs.A = v
		return fmt.Sprintf("LD A,($%04x)", addr), 16, nil
	case opcode == 0xF0:
		imm, err := c.fetch8()
		if err != nil {
			return "", 0, err
		}
		v, err := c.Mem.ReadByte(0xFF00 + uint16(imm))
		if err != nil {
			return "", 0, err
		}
		c.Regs.A = v
		return fmt.Sprintf("LD A,($ff00+$%02x)", imm), 12, nil

	case opcode >= 0x40 && opcode <= 0x7F && opcode != 0x76:
		dst := (opcode >> 3) & 0x7
		src := opcode & 0x7
		v, err := c.readR8(src)
		if err != nil {
			return "", 0, err
		}
		if err := c.writeR8(dst, v); err != nil {
			return "", 0, err
		}
		cycles := 4
		if dst == 6 || src == 6 {
			cycles = 8
		}
		return fmt.Sprintf("LD %s,%s", r8Names[dst], r8Names[src]), cycles, nil

	case opcode == 0xEA:
		addr, err := c.fetch16()
		if err != nil {
			return "", 0, err
		}
		if err := c.Mem.WriteByte(addr, c.Regs.A); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("LD ($%04x),A", addr), 16, nil
	case opcode == 0xE0:
		imm, err := c.fetch8()
		if err != nil {
			return "", 0, err
		}
		if err := c.Mem.WriteByte(0xFF00+uint16(imm), c.Regs.A); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("LD ($ff00+$%02x),A", imm), 12, nil
	case opcode == 0xE2:
		if err := c.Mem.WriteByte(0xFF00+uint16(c.Regs.C), c.Regs.A); err != nil {
			return "", 0, err
		}
		return "LD ($ff00+C),A", 8, nil

	case opcode&0xF8 == 0xA0:
		r := opcode & 0x7
		v, err := c.readR8(r)
		if err != nil {
			return "", 0, err
		}
		c.and(v)
		return fmt.Sprintf("AND %s", r8Names[r]), regCost(r, 4, 8), nil
	case opcode == 0xE6:
		imm, err := c.fetch8()
		if err != nil {
			return "", 0, err
		}
		c.and(imm)
		return fmt.Sprintf("AND $%02x", imm), 8, nil

	case opcode&0xF8 == 0xA8:
		r := opcode & 0x7
		v, err := c.readR8(r)
		if err != nil {
			return "", 0, err
		}
		c.xor(v)
		return fmt.Sprintf("XOR %s", r8Names[r]), regCost(r, 4, 8), nil
	case opcode == 0xEE:
		imm, err := c.fetch8()
		if err != nil {
			return "", 0, err
		}
		c.xor(imm)
		return fmt.Sprintf("XOR $%02x", imm), 8, nil

	case opcode&0xF8 == 0xB8:
		r := opcode & 0x7
		v, err := c.readR8(r)
		if err != nil {
			return "", 0, err
		}
		c.compare(v)
		return fmt.Sprintf("CP %s", r8Names[r]), regCost(r, 4, 8), nil
	case opcode == 0xFE:
		imm, err := c.fetch8()
		if err != nil {
			return "", 0, err
		}
		c.compare(imm)
		return fmt.Sprintf("CP $%02x", imm), 8, nil

	case opcode == 0x04 || opcode == 0x0C || opcode == 0x14 || opcode == 0x1C ||
		opcode == 0x24 || opcode == 0x2C || opcode == 0x3C:
		r := (opcode >> 3) & 0x7
		return c.incR8(r, fmt.Sprintf("INC %s", r8Names[r]), 4)
	case opcode == 0x34:
		return c.incR8(6, "INC (HL)", 12)

	case opcode == 0x05 || opcode == 0x0D || opcode == 0x15 || opcode == 0x1D ||
		opcode == 0x25 || opcode == 0x2D || opcode == 0x3D:
		r := (opcode >> 3) & 0x7
		return c.decR8(r, fmt.Sprintf("DEC %s", r8Names[r]), 4)
	case opcode == 0x35:
		return c.decR8(6, "DEC (HL)", 12)

	case opcode == 0x03 || opcode == 0x13 || opcode == 0x23 || opcode == 0x33:
		idx := (opcode >> 4) & 0x3
		c.writeRR(idx, c.readRR(idx)+1)
		return fmt.Sprintf("INC %s", rr16Names[idx]), 8, nil

	case opcode == 0x17:
		c.rla()
		return "RLA", 4, nil

	case opcode == 0x20 || opcode == 0x28 || opcode == 0x30 || opcode == 0x38:
		return c.jrCond(opcode)

	case opcode == 0xCD:
		addr, err := c.fetch16()
		if err != nil {
			return "", 0, err
		}
		if err := c.stack.Push(c.Regs.PC); err != nil {
			return "", 0, err
		}
		c.Regs.PC = addr
		return fmt.Sprintf("CALL $%04x", addr), 12, nil
	case opcode == 0xC9:
		addr, err := c.stack.Pop()
		if err != nil {
			return "", 0, err
		}
		c.Regs.PC = addr
		return "RET", 8, nil
	case opcode == 0xC0 || opcode == 0xC8 || opcode == 0xD0 || opcode == 0xD8:
		return c.retCond(opcode)

	case opcode == 0xC1 || opcode == 0xD1 || opcode == 0xE1 || opcode == 0xF1:
		idx := (opcode >> 4) & 0x3
		v, err := c.stack.Pop()
		if err != nil {
			return "", 0, err
		}
		c.writeRRStack(idx, v)
		return fmt.Sprintf("POP %s", rrStackNames[idx]), 12, nil
	case opcode == 0xC5 || opcode == 0xD5 || opcode == 0xE5 || opcode == 0xF5:
		idx := (opcode >> 4) & 0x3
		if err := c.stack.Push(c.readRRStack(idx)); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("PUSH %s", rrStackNames[idx]), 16, nil

	case opcode == 0xCB:
		cb, err := c.fetch8()
		if err != nil {
			return "", 0, err
		}
		return c.executeCB(cb)

	default:
		return "", 0, &UnknownOpcodeError{Opcode: opcode}
	}
}

func (c *CPU) ldIndirectFromA(addr uint16, desc string) (string, int, error) {
	if err := c.Mem.WriteByte(addr, c.Regs.A); err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("LD %s,A", desc), 8, nil
}

func (c *CPU) ldAFromIndirect(addr uint16, desc string) (string, int, error) {
	v, err := c.Mem.ReadByte(addr)
	if err != nil {
		return "", 0, err
	}
	c.Regs.A = v
	return fmt.Sprintf("LD A,%s", desc), 8, nil
}

func (c *CPU) and(v byte) {
	c.Regs.A &= v
	c.Regs.SetFlagZ(c.Regs.A == 0)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(true)
	c.Regs.SetFlagCY(false)
}

func (c *CPU) xor(v byte) {
	c.Regs.A ^= v
	c.Regs.SetFlagZ(c.Regs.A == 0)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(false)
	c.Regs.SetFlagCY(false)
}

// compare implements CP: A - v, discarding the result but setting
// flags from it.
func (c *CPU) compare(v byte) {
	a := c.Regs.A
	c.Regs.SetFlagZ(a == v)
	c.Regs.SetFlagN(true)
	c.Regs.SetFlagH(a&0xF < v&0xF)
	c.Regs.SetFlagCY(a < v)
}

func (c *CPU) incR8(idx byte, mnemonic string, cycles int) (string, int, error) {
	old, err := c.readR8(idx)
	if err != nil {
		return "", 0, err
	}
	v := old + 1
	if err := c.writeR8(idx, v); err != nil {
		return "", 0, err
	}
	c.Regs.SetFlagZ(v == 0)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(old&0xF+1 == 0x10)
	return mnemonic, cycles, nil
}

func (c *CPU) decR8(idx byte, mnemonic string, cycles int) (string, int, error) {
	old, err := c.readR8(idx)
	if err != nil {
		return "", 0, err
	}
	v := old - 1
	if err := c.writeR8(idx, v); err != nil {
		return "", 0, err
	}
	c.Regs.SetFlagZ(v == 0)
	c.Regs.SetFlagN(true)
	c.Regs.SetFlagH(old&0xF == 0)
	return mnemonic, cycles, nil
}

// rla implements RLA: rotate A left through carry, clearing Z
// unconditionally (distinct from CB RL r, which sets Z from the
// result).
func (c *CPU) rla() {
	oldCarry := byte(0)
	if c.Regs.FlagCY() {
		oldCarry = 1
	}
	newCarry := c.Regs.A>>7&1 == 1
	c.Regs.A = (c.Regs.A << 1) | oldCarry
	c.Regs.SetFlagZ(false)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(false)
	c.Regs.SetFlagCY(newCarry)
}

var jrCondNames = [4]string{"NZ", "Z", "NC", "C"}

// jrCond implements JR cc,imm8: the displacement byte is a signed
// 8-bit offset added to PC when the condition holds.
func (c *CPU) jrCond(opcode byte) (string, int, error) {
	idx := (opcode >> 3) & 0x3
	imm, err := c.fetch8()
	if err != nil {
		return "", 0, err
	}
	offset := int8(imm)
	taken := c.condition(idx)
	if taken {
		c.Regs.PC = uint16(int32(c.Regs.PC) + int32(offset))
	}
	return fmt.Sprintf("JR %s,$%02x", jrCondNames[idx], imm), 8, nil
}

func (c *CPU) retCond(opcode byte) (string, int, error) {
	idx := (opcode >> 3) & 0x3
	if c.condition(idx) {
		addr, err := c.stack.Pop()
		if err != nil {
			return "", 0, err
		}
		c.Regs.PC = addr
	}
	return fmt.Sprintf("RET %s", jrCondNames[idx]), 8, nil
}

// condition evaluates NZ/Z/NC/C, encoded as the two bits (opcode>>3)&3
// share between JR and RET cc.
func (c *CPU) condition(idx byte) bool {
	switch idx {
	case 0:
		return !c.Regs.FlagZ()
	case 1:
		return c.Regs.FlagZ()
	case 2:
		return !c.Regs.FlagCY()
	default:
		return c.Regs.FlagCY()
	}
}

// executeCB dispatches a CB-prefixed opcode: SWAP, RL, SLA, BIT.
func (c *CPU) executeCB(opcode byte) (string, int, error) {
	r := opcode & 0x7
	// Flags are restored if the (HL) write-back fails, so a failed
	// instruction leaves F unchanged.
	f := c.Regs.F
	switch {
	case opcode >= 0x30 && opcode <= 0x37:
		v, err := c.readR8(r)
		if err != nil {
			return "", 0, err
		}
		out := c.swap(v)
		if err := c.writeR8(r, out); err != nil {
			c.Regs.F = f
			return "", 0, err
		}
		return fmt.Sprintf("SWAP %s", r8Names[r]), regCost(r, 8, 16), nil

	case opcode >= 0x10 && opcode <= 0x17:
		v, err := c.readR8(r)
		if err != nil {
			return "", 0, err
		}
		out := c.rl(v)
		if err := c.writeR8(r, out); err != nil {
			c.Regs.F = f
			return "", 0, err
		}
		return fmt.Sprintf("RL %s", r8Names[r]), regCost(r, 8, 16), nil

	case opcode >= 0x20 && opcode <= 0x27:
		v, err := c.readR8(r)
		if err != nil {
			return "", 0, err
		}
		out := c.sla(v)
		if err := c.writeR8(r, out); err != nil {
			c.Regs.F = f
			return "", 0, err
		}
		return fmt.Sprintf("SLA %s", r8Names[r]), regCost(r, 8, 16), nil

	case opcode >= 0x40 && opcode <= 0x7F:
		bit := (opcode >> 3) & 0x7
		v, err := c.readR8(r)
		if err != nil {
			return "", 0, err
		}
		c.bit(bit, v)
		return fmt.Sprintf("BIT %d,%s", bit, r8Names[r]), regCost(r, 8, 16), nil

	default:
		return "", 0, &UnknownCBOpcodeError{Opcode: opcode}
	}
}

// swap implements the nibble swap: the high and low nibbles of v trade
// places.
func (c *CPU) swap(v byte) byte {
	out := (v << 4) | (v >> 4)
	c.Regs.SetFlagZ(out == 0)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(false)
	c.Regs.SetFlagCY(false)
	return out
}

// rl implements CB RL r: rotate left through carry, Z set from the
// result (unlike RLA, which always clears Z).
func (c *CPU) rl(v byte) byte {
	oldCarry := byte(0)
	if c.Regs.FlagCY() {
		oldCarry = 1
	}
	newCarry := v>>7&1 == 1
	out := (v << 1) | oldCarry
	c.Regs.SetFlagZ(out == 0)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(false)
	c.Regs.SetFlagCY(newCarry)
	return out
}

func (c *CPU) sla(v byte) byte {
	newCarry := v>>7&1 == 1
	out := v << 1
	c.Regs.SetFlagZ(out == 0)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(false)
	c.Regs.SetFlagCY(newCarry)
	return out
}

func (c *CPU) bit(n byte, v byte) {
	zero := v&(1<<n) == 0
	c.Regs.SetFlagZ(zero)
	c.Regs.SetFlagN(false)
	c.Regs.SetFlagH(true)
}

package cpu

import "cp1610/inst"

// splitOpcode extracts the external bit and the three 3-bit fields that
// every CP-1610 instruction encodes: op (primary class), F1, F2.
func splitOpcode(opcode uint16) (ext bool, op, f1, f2 byte) {
	opcode &= 0x3FF
	ext = opcode&0x200 != 0
	op = byte((opcode >> 6) & 0x7)
	f1 = byte((opcode >> 3) & 0x7)
	f2 = byte(opcode & 0x7)
	return
}

// branch fields: low 4 bits select condition+invert, bit 5 selects direction.
func splitBranch(f1, f2 byte) (cond byte, invert bool, forward bool) {
	low4 := (f1&0x1)<<3 | f2
	cond = low4 & 0x7
	invert = low4&0x8 != 0
	forward = f1&0x4 == 0
	return
}

// resolveIndirectAddress implements §4.5's effective-address resolution for
// F1 in 1..7 (F1==0, immediate, is handled by the caller). It returns the
// address to use and mutates the selected register per the auto
// increment/decrement rule. isWrite distinguishes MVO's push-after-write
// R6 behavior from MVI's pop-before-read behavior.
func (c *CPU) resolveIndirectAddress(f1 byte, d bool, isWrite bool) uint16 {
	step := uint16(1)
	if d {
		step = 2
	}
	reg := int(f1)
	switch f1 {
	case 1, 2, 3:
		return c.R[reg]
	case 4, 5, 7:
		addr := c.R[reg]
		c.R[reg] += step
		return addr
	case 6:
		if isWrite {
			addr := c.R[reg]
			c.R[reg] += step
			return addr
		}
		c.R[reg] -= step
		return c.R[reg]
	}
	fault(c.step, c.phaseIndex, c.IR, "resolveIndirectAddress: F1 out of range")
	return 0
}

// decodeInstruction is a package-level indirection to inst.Decode so tests
// can force an undecodable opcode without needing a genuine gap in the
// static table.
var decodeInstruction = inst.Decode

// dispatch runs once, synchronously, at INSTRUCTION_FETCH completion. It
// decodes c.IR, resolves addressing, and enters the next step.
func (c *CPU) dispatch() {
	if c.IR == 0x0001 {
		c.F.D = true
		c.enterStep(StepInstructionFetch)
		return
	}

	entry, ok := decodeInstruction(c.IR)
	if !ok {
		// Unknown opcode: record a trace line, then resume fetch without
		// modifying registers.
		if c.TraceUnknownOpcode != nil {
			c.TraceUnknownOpcode(c.R[7]-1, c.IR)
		}
		c.enterStep(StepInstructionFetch)
		return
	}

	d := c.F.D
	c.F.D = false

	ext, op, f1, f2 := splitOpcode(c.IR)
	c.pending = pendingOp{entry: entry, ext: ext, op: op, f1: f1, f2: f2, d: d}

	switch {
	case ext && op == 0:
		c.dispatchBranch(f1, f2)
	case ext && op == 1:
		c.dispatchMVO(f1, f2, d)
	case ext:
		c.dispatchExternalALU(f1, f2, d, entry.Mnemonic)
	case !ext && op == 0 && f1 == 0 && f2 == 4:
		c.dispatchJump()
	case !ext && op == 0 && f1 == 0:
		c.dispatchControl(f2)
	case !ext && op == 0:
		c.dispatchSingleRegister(f1, f2)
	case !ext && op == 1:
		c.dispatchShift(f1, f2)
	default:
		c.dispatchRegisterRegister(op, f1, f2)
	}
}

func (c *CPU) dispatchControl(f2 byte) {
	switch f2 {
	case 0: // HLT
		c.Halted = true
		return
	case 2: // EIS
		c.F.I = true
	case 3: // DIS
		c.F.I = false
	case 5: // TCI: no-op per spec §9
	case 6: // CLRC
		c.F.C = false
	case 7: // SETC
		c.F.C = true
	}
	c.enterStep(StepExecPad2)
}

func (c *CPU) dispatchSingleRegister(f1, f2 byte) {
	reg := int(f2)
	switch f1 {
	case 1:
		c.R[reg] = c.aluIncr(c.R[reg])
	case 2:
		c.R[reg] = c.aluDecr(c.R[reg])
	case 3:
		c.R[reg] = c.aluCom(c.R[reg])
	case 4:
		c.R[reg] = c.aluSub(c.R[reg], 0)
	case 5:
		carry := uint16(0)
		if c.F.C {
			carry = 1
		}
		c.R[reg] = c.aluAdd(c.R[reg], 0, carry != 0)
	case 6:
		c.R[reg] = c.gswd()
	case 7:
		c.setFlagsFromNibble((c.R[reg] >> 4) & 0xF)
	default:
		fault(c.step, c.phaseIndex, c.IR, "dispatchSingleRegister: unreachable F1")
	}
	c.enterStep(StepExecPad2)
}

// dispatchShift decodes the shift/rotate/SWAP family. F2 bits[2:1] select
// the register (1..3); reg field 0 has no register to shift and is the
// NOP sub-opcode (spec: "TCI, SIN, NOP: implement as no-ops with the
// documented cycle cost") — it consumes the same pad cycles as a real
// shift of this class but touches no register and no flag.
func (c *CPU) dispatchShift(f1, f2 byte) {
	double := f2&0x1 != 0
	reg := int((f2 >> 1) & 0x3)
	if reg != 0 {
		v := c.R[reg]
		switch f1 {
		case 0:
			c.R[reg] = c.shiftSWAP(v, double)
		case 1:
			c.R[reg] = c.shiftSLL(v, double)
		case 2:
			c.R[reg] = c.shiftSLLC(v, double)
		case 3:
			c.R[reg] = c.shiftSLR(v, double)
		case 4:
			c.R[reg] = c.shiftSAR(v, double)
		case 5:
			c.R[reg] = c.shiftRLC(v, double)
		case 6:
			c.R[reg] = c.shiftSARC(v, double)
		case 7:
			c.R[reg] = c.shiftRRC(v, double)
		}
	}
	if double {
		c.enterStep(StepExecPad4)
	} else {
		c.enterStep(StepExecPad2)
	}
}

func (c *CPU) dispatchRegisterRegister(op, f1, f2 byte) {
	src := int(f1)
	dst := int(f2)
	switch op {
	case 2: // MOVR
		c.R[dst] = c.R[src]
		c.setSZ(c.R[dst])
	case 3: // ADDR
		c.R[dst] = c.aluAdd(c.R[dst], c.R[src], false)
	case 4: // SUBR
		c.R[dst] = c.aluSub(c.R[src], c.R[dst])
	case 5: // CMPR
		c.aluSub(c.R[src], c.R[dst])
	case 6: // ANDR
		c.R[dst] = c.aluAnd(c.R[dst], c.R[src])
	case 7: // XORR
		c.R[dst] = c.aluXor(c.R[dst], c.R[src])
	}
	if dst == 6 || dst == 7 {
		c.enterStep(StepExecPad4)
	} else {
		c.enterStep(StepExecPad2)
	}
}

func (c *CPU) dispatchBranch(f1, f2 byte) {
	cond, invert, forward := splitBranch(f1, f2)
	c.pending.branchTaken = c.branchCondition(cond, invert)
	c.pending.forward = forward
	if c.pending.branchTaken {
		c.enterStep(StepBranchTaken)
	} else {
		c.enterStep(StepBranchNotTaken)
	}
}

func (c *CPU) dispatchMVO(f1, f2 byte, d bool) {
	c.pending.writeValue = c.R[f2]
	if f1 != 0 {
		c.EffectiveAddr = c.resolveIndirectAddress(f1, d, true)
		c.pending.effReg = int(f1)
		c.enterStep(StepAddrIndirectWrite)
		return
	}
	c.enterStep(StepAddrDirectWrite)
}

func (c *CPU) dispatchExternalALU(f1, f2 byte, d bool, mnemonic string) {
	c.pending.loadReg = int(f2)
	if f1 == 0 {
		// Immediate: same as indirect read through R7.
		step := uint16(1)
		if d {
			step = 2
		}
		c.EffectiveAddr = c.R[7]
		c.R[7] += step
		c.pending.effReg = 7
	} else {
		c.EffectiveAddr = c.resolveIndirectAddress(f1, d, false)
		c.pending.effReg = int(f1)
	}
	if d {
		c.enterStep(StepAddrIndirectReadSDBD)
	} else {
		c.enterStep(StepAddrIndirectRead)
	}
}

func (c *CPU) dispatchJump() {
	c.enterStep(StepJump)
}

// applyExternalALU commits the ALU side effect for MVI/ADD/SUB/CMP/AND/XOR
// once the operand word has been read into c.Operand[0].
func (c *CPU) applyExternalALU() {
	reg := c.pending.loadReg
	operand := c.Operand[0]
	switch c.pending.entry.Mnemonic {
	case "MVI":
		c.R[reg] = operand
	case "ADD":
		c.R[reg] = c.aluAdd(c.R[reg], operand, false)
	case "SUB":
		c.R[reg] = c.aluSub(operand, c.R[reg])
	case "CMP":
		c.aluSub(operand, c.R[reg])
	case "AND":
		c.R[reg] = c.aluAnd(c.R[reg], operand)
	case "XOR":
		c.R[reg] = c.aluXor(c.R[reg], operand)
	}
}

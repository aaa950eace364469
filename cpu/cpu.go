// Package cpu implements the CP-1610 instruction decode and micro-cycle
// state machine: an ordered bus-phase sequencer driven by the current
// opcode, plus an arithmetic/logic unit that commits side effects at
// sequence completion.
package cpu

import (
	"cp1610/bus"
	"cp1610/inst"
)

// Flags holds the six CP-1610 condition/control flags as individual
// booleans, kept unpacked in the hot path; GSWD/RSWD pack and unpack them
// into the S/Z/O/C nibble layout on demand.
type Flags struct {
	S, C, Z, O bool
	I, D       bool
}

// pendingOp carries the decoded-but-not-yet-completed instruction's state
// across the micro-cycles of its addressing/execute step.
type pendingOp struct {
	entry       inst.Entry
	ext         bool
	op, f1, f2  byte
	d           bool
	effReg      int
	writeValue  uint16
	loadReg     int
	branchTaken bool
	forward     bool
}

// CPU is the CP-1610 register file, flags, and bus-phase sequencer. It
// exclusively owns its registers, flags, effective-address, and operand
// slots; the Bus it drives is shared, non-owning state.
type CPU struct {
	R       [8]uint16 // R7 is the program counter, R6 the stack pointer
	F       Flags
	IR      uint16
	Operand [2]uint16
	EffectiveAddr uint16
	Halted  bool

	// InterruptVector is delivered during the skeletal INTERRUPT step's
	// IAB phase; the core does not define a connected interrupt source.
	InterruptVector uint16

	// Trace, if set, is called once at the start of every
	// INSTRUCTION_FETCH, before the fetch address is asserted.
	Trace func(pc uint16)

	// TraceUnknownOpcode, if set, is called once per fetched opcode that
	// does not decode to any inst.Entry, before the CPU silently resumes
	// fetching. pc is the address the opcode was fetched from.
	TraceUnknownOpcode func(pc, opcode uint16)

	step       StepKind
	phaseIndex int
	tmpl       []bus.Phase

	pending pendingOp
	sdbdLow uint16
}

const resetVector uint16 = 0x1000

// New constructs a CPU and immediately enters the reset sequence; R7
// becomes resetVector once the first Clock calls carry it through
// INITIALIZATION.
func New() *CPU {
	c := &CPU{InterruptVector: resetVector}
	c.enterStep(StepInitialization)
	return c
}

func (c *CPU) enterStep(kind StepKind) {
	c.step = kind
	c.tmpl = templates[kind]
	c.phaseIndex = 0
	if kind == StepInstructionFetch && c.Trace != nil {
		c.Trace(c.R[7])
	}
}

// Clock advances the CPU by one host tick: it drives or samples the Bus at
// the phase's fixed data slot and, on the last tick of a phase, advances to
// the next phase in the current step's template (or runs the step's
// transition rule when the template completes).
func (c *CPU) Clock(b *bus.Bus) {
	if c.Halted {
		return
	}
	tick := b.Tick()
	if tick == 0 {
		b.Phase = c.tmpl[c.phaseIndex]
	}
	c.driveOrSample(b, tick)
	if tick == 3 {
		c.phaseIndex++
		if c.phaseIndex >= len(c.tmpl) {
			c.completeStep(b)
		}
	}
}

func (c *CPU) barAddress() uint16 {
	switch c.step {
	case StepInstructionFetch, StepAddrDirectRead, StepAddrDirectWrite, StepBranchTaken:
		return c.R[7]
	case StepAddrIndirectRead, StepAddrIndirectWrite:
		return c.EffectiveAddr
	case StepAddrIndirectReadSDBD:
		return c.EffectiveAddr
	case StepJump:
		return c.R[7]
	case StepInterrupt:
		return c.R[6]
	}
	fault(c.step, c.phaseIndex, c.IR, "barAddress: no address source for step")
	return 0
}

// advanceSourceRegister post-increments whichever register supplied the
// current BAR address, mirroring R4/R5/R6/R7's auto-increment behavior for
// steps that consume successive words from the instruction stream. Indirect
// reads/writes resolve their total register displacement once, up front
// (see resolveIndirectAddress and dispatchExternalALU), so they are not
// repeated here.
func (c *CPU) advanceSourceRegister() {
	switch c.step {
	case StepInstructionFetch, StepAddrDirectRead, StepAddrDirectWrite, StepJump, StepBranchTaken:
		c.R[7]++
	}
}

func (c *CPU) driveOrSample(b *bus.Bus, tick int) {
	switch b.Phase {
	case bus.BAR:
		if tick == 2 {
			b.SetData(c.barAddress())
			c.advanceSourceRegister()
		}
	case bus.ADAR:
		// Device-to-device chaining; the CPU neither drives nor samples.
	case bus.DTB:
		if tick == 2 {
			c.sampleDTB(b.Data())
		}
	case bus.DW, bus.DWS:
		b.SetData(c.pending.writeValue)
	case bus.IAB:
		if tick == 1 {
			b.SetData(c.InterruptVector)
		}
		if tick == 2 {
			c.R[7] = b.Data()
		}
	case bus.INTAK:
		if tick == 2 {
			b.SetData(c.R[6])
		}
	case bus.NACT:
		// No bus activity.
	}
}

func (c *CPU) sampleDTB(v uint16) {
	switch c.step {
	case StepInstructionFetch:
		c.IR = v
	case StepAddrIndirectRead, StepAddrDirectRead:
		c.Operand[0] = v
	case StepAddrIndirectReadSDBD:
		if c.phaseIndex == 2 {
			c.sdbdLow = v & 0xFF
			c.EffectiveAddr++ // address the second byte; no register is touched
		} else {
			c.Operand[0] = (v&0xFF)<<8 | c.sdbdLow
		}
	case StepJump:
		if c.phaseIndex == 2 {
			c.Operand[0] = v
		} else {
			c.Operand[1] = v
		}
	case StepBranchTaken:
		c.Operand[0] = v
	}
}

// completeStep runs the transition rule for whichever step's template just
// finished its last micro-cycle.
func (c *CPU) completeStep(b *bus.Bus) {
	switch c.step {
	case StepInitialization:
		c.enterStep(StepInstructionFetch)

	case StepInstructionFetch:
		c.dispatch()

	case StepAddrIndirectRead, StepAddrIndirectReadSDBD, StepAddrDirectRead:
		if c.pending.ext && c.pending.op != 1 {
			c.applyExternalALU()
		}
		c.enterStep(StepInstructionFetch)

	case StepAddrIndirectWrite:
		c.enterStep(StepInstructionFetch)

	case StepAddrDirectWrite:
		c.enterStep(StepInstructionFetch)

	case StepJump:
		c.completeJump()
		c.enterStep(StepInstructionFetch)

	case StepBranchTaken:
		c.completeBranchTaken()
		c.enterStep(StepInstructionFetch)

	case StepBranchNotTaken:
		c.R[7]++ // skip the unread offset word
		c.enterStep(StepInstructionFetch)

	case StepExecPad2, StepExecPad4:
		c.enterStep(StepInstructionFetch)

	case StepInterrupt:
		c.R[6]++
		c.enterStep(StepInstructionFetch)

	default:
		fault(c.step, c.phaseIndex, c.IR, "completeStep: unhandled step kind")
	}
}

func (c *CPU) completeJump() {
	hi, lo := c.Operand[0], c.Operand[1]
	rr := (hi >> 8) & 0x3
	ff := hi & 0x3
	target := (hi&0x00FC)<<8 | (lo & 0x03FF)

	if rr != 3 {
		link := map[uint16]int{0: 4, 1: 5, 2: 6}[rr]
		c.R[link] = c.R[7]
	}
	switch ff {
	case 1:
		c.F.I = true
	case 2:
		c.F.I = false
	case 3:
		// Unknown per spec §9: record the attempt, leave I unchanged.
	}
	c.R[7] = target
}

func (c *CPU) completeBranchTaken() {
	offset := c.Operand[0]
	if c.pending.forward {
		c.R[7] = c.R[7] + offset
	} else {
		c.R[7] = c.R[7] - offset + 1
	}
}

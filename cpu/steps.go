package cpu

import "cp1610/bus"

// StepKind names one "logical step": an ordered, fixed-length sequence of
// bus phases the CPU walks through one micro-cycle at a time.
type StepKind int

const (
	StepInitialization StepKind = iota
	StepInstructionFetch
	StepAddrIndirectRead
	StepAddrIndirectReadSDBD
	StepAddrIndirectWrite
	StepAddrDirectRead
	StepAddrDirectWrite
	StepJump
	StepBranchTaken
	StepBranchNotTaken
	StepExecPad2
	StepExecPad4
	StepInterrupt
)

func (s StepKind) String() string {
	switch s {
	case StepInitialization:
		return "INITIALIZATION"
	case StepInstructionFetch:
		return "INSTRUCTION_FETCH"
	case StepAddrIndirectRead:
		return "ADDR_INDIRECT_READ"
	case StepAddrIndirectReadSDBD:
		return "ADDR_INDIRECT_READ_SDBD"
	case StepAddrIndirectWrite:
		return "ADDR_INDIRECT_WRITE"
	case StepAddrDirectRead:
		return "ADDR_DIRECT_READ"
	case StepAddrDirectWrite:
		return "ADDR_DIRECT_WRITE"
	case StepJump:
		return "JUMP"
	case StepBranchTaken:
		return "BRANCH_TAKEN"
	case StepBranchNotTaken:
		return "BRANCH_NOT_TAKEN"
	case StepExecPad2:
		return "EXEC_PAD_2"
	case StepExecPad4:
		return "EXEC_PAD_4"
	case StepInterrupt:
		return "INTERRUPT"
	default:
		return "UNKNOWN_STEP"
	}
}

// templates holds, for every StepKind, the fixed ordered phase sequence it
// walks through. Each entry costs exactly one micro-cycle (4 host ticks).
var templates = map[StepKind][]bus.Phase{
	StepInitialization:       {bus.NACT, bus.IAB, bus.NACT, bus.NACT, bus.NACT},
	StepInstructionFetch:     {bus.BAR, bus.NACT, bus.DTB, bus.NACT},
	StepAddrIndirectRead:     {bus.BAR, bus.NACT, bus.DTB, bus.NACT},
	StepAddrIndirectReadSDBD: {bus.BAR, bus.NACT, bus.DTB, bus.BAR, bus.NACT, bus.DTB},
	StepAddrIndirectWrite:    {bus.BAR, bus.NACT, bus.DW, bus.DWS, bus.NACT},
	StepAddrDirectRead:       {bus.BAR, bus.NACT, bus.ADAR, bus.NACT, bus.DTB, bus.NACT},
	StepAddrDirectWrite:      {bus.BAR, bus.NACT, bus.ADAR, bus.NACT, bus.DW, bus.DWS, bus.NACT},
	StepJump:                 {bus.BAR, bus.NACT, bus.DTB, bus.NACT, bus.BAR, bus.NACT, bus.DTB, bus.NACT, bus.NACT},
	StepBranchTaken:          {bus.BAR, bus.NACT, bus.DTB, bus.NACT, bus.NACT},
	StepBranchNotTaken:       {bus.NACT, bus.NACT, bus.NACT},
	StepExecPad2:             {bus.NACT, bus.NACT},
	StepExecPad4:             {bus.NACT, bus.NACT, bus.NACT, bus.NACT},
	StepInterrupt:            {bus.INTAK, bus.NACT, bus.DW, bus.DWS, bus.NACT, bus.IAB, bus.NACT},
}

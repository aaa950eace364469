package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cp1610/bus"
	"cp1610/inst"
	"cp1610/memory"
)

func clockTicks(n int, b *bus.Bus, c *CPU, devices ...bus.Device) {
	for i := 0; i < n; i++ {
		b.Clock()
		c.Clock(b)
		for _, d := range devices {
			d.Clock(b)
		}
	}
}

func clockMicroCycles(n int, b *bus.Bus, c *CPU, devices ...bus.Device) {
	clockTicks(n*4, b, c, devices...)
}

// Opcode builders mirroring the bit-field layout in decode.go.
func opMVIImmediate(dst byte) uint16 { return 0x280 | uint16(dst) }
func opIncr(reg byte) uint16        { return 0x008 | uint16(reg) }
func opAddr(src, dst byte) uint16   { return 0x0C0 | uint16(src)<<3 | uint16(dst) }
func opSubr(src, dst byte) uint16   { return 0x100 | uint16(src)<<3 | uint16(dst) }
func opSLL(reg byte, double bool) uint16 {
	op := 0x048 | uint16(reg)<<1
	if double {
		op |= 1
	}
	return op
}

func TestResetLatency(t *testing.T) {
	b := bus.New()
	c := New()

	clockTicks(20, b, c) // INITIALIZATION: 5 phases * 4 ticks
	assert.Equal(t, uint16(0x1000), c.R[7])

	clockTicks(1, b, c) // tick 0 of the first fetch micro-cycle
	assert.Equal(t, bus.BAR, b.Phase)
}

func TestUnconditionalJump(t *testing.T) {
	b := bus.New()
	c := New()
	mem := memory.NewROM(0x1000, []uint16{0x0004, 0x0112, 0x0026})

	clockTicks(20, b, c, mem)      // INITIALIZATION
	clockMicroCycles(4, b, c, mem) // INSTRUCTION_FETCH of 0x0004 (J)
	clockMicroCycles(9, b, c, mem) // JUMP template

	assert.Equal(t, uint16(0x1026), c.R[7])
	assert.False(t, c.F.I)
	assert.Equal(t, uint16(0x1003), c.R[5])
}

func TestRegisterIncrementFlags(t *testing.T) {
	b := bus.New()
	c := New()
	mem := memory.NewRAM(0x1000, 4)
	mem.DebugWrite(0x1000, opMVIImmediate(0))
	mem.DebugWrite(0x1001, 0x7FFF)
	mem.DebugWrite(0x1002, opIncr(0))
	mem.DebugWrite(0x1003, opIncr(0))

	clockTicks(20, b, c, mem)     // INITIALIZATION
	clockMicroCycles(8, b, c, mem) // MVI immediate: fetch(4) + read(4)
	assert.Equal(t, uint16(0x7FFF), c.R[0])

	clockMicroCycles(6, b, c, mem) // INCR: fetch(4) + EXEC_PAD_2(2)
	assert.Equal(t, uint16(0x8000), c.R[0])
	assert.True(t, c.F.S)
	assert.False(t, c.F.Z)

	clockMicroCycles(6, b, c, mem)
	assert.Equal(t, uint16(0x8001), c.R[0])
	assert.True(t, c.F.S)
	assert.False(t, c.F.Z)
}

func TestRegisterIncrementWrapsToZero(t *testing.T) {
	c := New()
	c.R[0] = 0xFFFF
	c.F.C, c.F.O = true, true

	c.dispatchSingleRegister(1, 0) // INCR R0 via the same path fetch would take
	assert.Equal(t, uint16(0x0000), c.R[0])
	assert.False(t, c.F.S)
	assert.True(t, c.F.Z)
	assert.True(t, c.F.C, "INCR must not touch C")
	assert.True(t, c.F.O, "INCR must not touch O")
}

func TestArithmeticOverflow(t *testing.T) {
	b := bus.New()
	c := New()
	mem := memory.NewRAM(0x1000, 8)
	mem.DebugWrite(0x1000, opMVIImmediate(0))
	mem.DebugWrite(0x1001, 0x7FFF)
	mem.DebugWrite(0x1002, opMVIImmediate(1))
	mem.DebugWrite(0x1003, 0x0001)
	mem.DebugWrite(0x1004, opAddr(0, 1))

	clockTicks(20, b, c, mem)
	clockMicroCycles(8, b, c, mem)
	clockMicroCycles(8, b, c, mem)
	clockMicroCycles(6, b, c, mem) // ADDR, dest R1 (not R6/R7): EXEC_PAD_2

	assert.Equal(t, uint16(0x8000), c.R[1])
	assert.True(t, c.F.S)
	assert.False(t, c.F.Z)
	assert.True(t, c.F.O)
	assert.False(t, c.F.C)
}

func TestSignedVsUnsignedSubtraction(t *testing.T) {
	b := bus.New()
	c := New()
	mem := memory.NewRAM(0x1000, 8)
	mem.DebugWrite(0x1000, opMVIImmediate(0))
	mem.DebugWrite(0x1001, 0x0002)
	mem.DebugWrite(0x1002, opMVIImmediate(1))
	mem.DebugWrite(0x1003, 0x8001)
	mem.DebugWrite(0x1004, opSubr(0, 1))

	clockTicks(20, b, c, mem)
	clockMicroCycles(8, b, c, mem)
	clockMicroCycles(8, b, c, mem)
	clockMicroCycles(6, b, c, mem)

	assert.Equal(t, uint16(0x7FFF), c.R[1])
	assert.False(t, c.F.S)
	assert.False(t, c.F.Z)
	assert.True(t, c.F.O)
	assert.True(t, c.F.C)
}

func TestSDBDTwoByteImmediateRead(t *testing.T) {
	b := bus.New()
	c := New()
	mem := memory.NewRAM(0x1000, 4)
	mem.DebugWrite(0x1000, 0x00CD)
	mem.DebugWrite(0x1001, 0x00AB)

	clockTicks(20, b, c, mem) // INITIALIZATION, R7 = 0x1000

	c.pending = pendingOp{entry: inst.Entry{Mnemonic: "MVI"}, ext: true, op: 2, loadReg: 0}
	c.dispatchExternalALU(0, 0, true, "MVI")
	c.F.D = false // dispatch() would have cleared D before resolving addressing
	assert.Equal(t, StepAddrIndirectReadSDBD, c.step)

	clockMicroCycles(6, b, c, mem) // BAR,NACT,DTB,BAR,NACT,DTB

	assert.Equal(t, uint16(0xABCD), c.R[0])
	assert.Equal(t, uint16(0x1002), c.R[7])
	assert.False(t, c.F.D)
}

func TestShiftRegFieldZeroIsNop(t *testing.T) {
	b := bus.New()
	c := New()
	mem := memory.NewRAM(0x1000, 2)
	mem.DebugWrite(0x1000, opSLL(0, false)) // F2 bits[2:1]==00: NOP sub-opcode

	c.R[1] = 0x00FF // any non-reg-0 register should be left untouched
	c.F.S, c.F.Z, c.F.C, c.F.O = true, true, true, true

	clockTicks(20, b, c, mem)     // INITIALIZATION
	clockMicroCycles(6, b, c, mem) // fetch(4) + EXEC_PAD_2(2)

	assert.Equal(t, uint16(0x00FF), c.R[1], "NOP sub-opcode must not touch R1")
	assert.True(t, c.F.S)
	assert.True(t, c.F.Z)
	assert.True(t, c.F.C)
	assert.True(t, c.F.O)
	assert.Equal(t, uint16(0x1001), c.R[7])
}

func TestUnknownOpcodeTracesAndResumes(t *testing.T) {
	b := bus.New()
	c := New()
	mem := memory.NewRAM(0x1000, 2)
	mem.DebugWrite(0x1000, 0x0000) // HLT, but forced to fail decoding below
	mem.DebugWrite(0x1001, opIncr(0))

	orig := decodeInstruction
	decodeInstruction = func(opcode uint16) (inst.Entry, bool) {
		if opcode&0x3FF == 0x0000 {
			return inst.Entry{}, false
		}
		return orig(opcode)
	}
	defer func() { decodeInstruction = orig }()

	var tracedPC, tracedOp uint16
	var traceCount int
	c.TraceUnknownOpcode = func(pc, opcode uint16) {
		tracedPC, tracedOp = pc, opcode
		traceCount++
	}

	clockTicks(20, b, c, mem)     // INITIALIZATION
	clockMicroCycles(4, b, c, mem) // fetch 0x0000: decode fails, trace, resume

	assert.Equal(t, 1, traceCount)
	assert.Equal(t, uint16(0x1000), tracedPC)
	assert.Equal(t, uint16(0x0000), tracedOp)
	assert.Equal(t, uint16(0x1001), c.R[7])
	assert.False(t, c.Halted, "decode failure must not fall through to HLT")
}

func TestFaultErrorOnCorruptedStep(t *testing.T) {
	b := bus.New()
	c := New()
	c.step = StepKind(999)
	c.phaseIndex = 0

	defer func() {
		r := recover()
		fe, ok := r.(*FaultError)
		assert.True(t, ok, "expected a *FaultError panic")
		assert.Contains(t, fe.Error(), "unreachable state")
		assert.Equal(t, StepKind(999), fe.Step)
	}()
	c.completeStep(b)
	t.Fatal("completeStep should have panicked")
}

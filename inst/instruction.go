// Package inst holds the CP-1610's static instruction table: a mapping
// from the 10-bit opcode (the low 10 bits of a fetched word) to instruction
// metadata. The table is organized as inclusive opcode ranges, mirroring
// how the real encoding groups opcodes by operation class (bits 8-6),
// source/dest field (bits 5-3), and register/condition field (bits 2-0).
package inst

// Flag identifies one of the six CP-1610 condition/control flags.
type Flag uint8

const (
	FlagS Flag = 1 << iota // Sign
	FlagC                  // Carry
	FlagZ                  // Zero
	FlagO                  // Overflow
	FlagI                  // Interrupt-enable
	FlagD                  // Double-byte-data
)

// Entry describes one instruction class: its mnemonic, the inclusive range
// of host micro-cycles it may consume (min == max when the cost never
// varies; it varies with branch taken/not taken, single/double shift, an
// R6/R7 destination, or the addressing mode), whether an
// interrupt may be serviced after it completes, and which flags it reads
// or writes.
type Entry struct {
	Mnemonic      string
	Cycles        [2]int
	Interruptible bool
	FlagsRead     Flag
	FlagsWritten  Flag
}

type tableRow struct {
	low, high uint16
	entry     Entry
}

// table is the static, authoritative opcode -> metadata mapping, in
// ascending inclusive-range order. Opcodes not covered by any row decode to
// (Entry{}, false); the CPU treats this as a silent no-op (spec-mandated
// policy for unknown opcodes).
var table = []tableRow{
	// ext=0, op=000, F1=000: HLT / SDBD / EIS / DIS / J / TCI / CLRC / SETC,
	// selected by F2.
	{0x000, 0x000, Entry{Mnemonic: "HLT", Cycles: [2]int{4, 4}, Interruptible: false}},
	{0x001, 0x001, Entry{Mnemonic: "SDBD", Cycles: [2]int{4, 4}, Interruptible: false, FlagsWritten: FlagD}},
	{0x002, 0x002, Entry{Mnemonic: "EIS", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagI}},
	{0x003, 0x003, Entry{Mnemonic: "DIS", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagI}},
	{0x004, 0x004, Entry{Mnemonic: "J", Cycles: [2]int{13, 13}, Interruptible: true, FlagsWritten: FlagI}},
	{0x005, 0x005, Entry{Mnemonic: "TCI", Cycles: [2]int{6, 6}, Interruptible: true}},
	{0x006, 0x006, Entry{Mnemonic: "CLRC", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagC}},
	{0x007, 0x007, Entry{Mnemonic: "SETC", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagC}},

	// ext=0, op=000, F1=1..7: single-register ops, one register per opcode
	// (F2 selects R0..R7).
	{0x008, 0x00F, Entry{Mnemonic: "INCR", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x010, 0x017, Entry{Mnemonic: "DECR", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x018, 0x01F, Entry{Mnemonic: "COMR", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x020, 0x027, Entry{Mnemonic: "NEGR", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x028, 0x02F, Entry{Mnemonic: "ADCR", Cycles: [2]int{6, 6}, Interruptible: true, FlagsRead: FlagC, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x030, 0x037, Entry{Mnemonic: "GSWD", Cycles: [2]int{6, 6}, Interruptible: true, FlagsRead: FlagS | FlagZ | FlagO | FlagC}},
	{0x038, 0x03F, Entry{Mnemonic: "RSWD", Cycles: [2]int{6, 6}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},

	// ext=0, op=001: shift/rotate/SWAP family, F1 selects the operation,
	// F2 bits[2:1] select register (1..3) and bit 0 the single-vs-double
	// shift count. Reg field 0 (F2 in {0,1} of each 8-wide group) has no
	// register to shift and is the documented NOP sub-opcode.
	{0x040, 0x041, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x042, 0x047, Entry{Mnemonic: "SWAP", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x048, 0x049, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x04A, 0x04F, Entry{Mnemonic: "SLL", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x050, 0x051, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x052, 0x057, Entry{Mnemonic: "SLLC", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagC | FlagO}},
	{0x058, 0x059, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x05A, 0x05F, Entry{Mnemonic: "SLR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x060, 0x061, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x062, 0x067, Entry{Mnemonic: "SAR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x068, 0x069, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x06A, 0x06F, Entry{Mnemonic: "RLC", Cycles: [2]int{6, 8}, Interruptible: true, FlagsRead: FlagC | FlagO, FlagsWritten: FlagS | FlagZ | FlagC | FlagO}},
	{0x070, 0x071, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x072, 0x077, Entry{Mnemonic: "SARC", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagC | FlagO}},
	{0x078, 0x079, Entry{Mnemonic: "NOP", Cycles: [2]int{6, 8}, Interruptible: true}},
	{0x07A, 0x07F, Entry{Mnemonic: "RRC", Cycles: [2]int{6, 8}, Interruptible: true, FlagsRead: FlagC | FlagO, FlagsWritten: FlagS | FlagZ | FlagC | FlagO}},

	// ext=0, op=010..111: register-register ops, F1=source, F2=dest.
	{0x080, 0x0BF, Entry{Mnemonic: "MOVR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x0C0, 0x0FF, Entry{Mnemonic: "ADDR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x100, 0x13F, Entry{Mnemonic: "SUBR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x140, 0x17F, Entry{Mnemonic: "CMPR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x180, 0x1BF, Entry{Mnemonic: "ANDR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x1C0, 0x1FF, Entry{Mnemonic: "XORR", Cycles: [2]int{6, 8}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},

	// ext=1, op=000: branch family. Low 4 bits (of the 6-bit F1/F2 field)
	// select condition+invert, bit 5 selects direction.
	{0x200, 0x23F, Entry{Mnemonic: "B", Cycles: [2]int{7, 9}, Interruptible: true, FlagsRead: FlagS | FlagZ | FlagO | FlagC}},

	// ext=1, op=001..111: bus-touching memory ops.
	{0x240, 0x27F, Entry{Mnemonic: "MVO", Cycles: [2]int{9, 11}, Interruptible: true}},
	{0x280, 0x2BF, Entry{Mnemonic: "MVI", Cycles: [2]int{8, 10}, Interruptible: true}},
	{0x2C0, 0x2FF, Entry{Mnemonic: "ADD", Cycles: [2]int{8, 10}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x300, 0x33F, Entry{Mnemonic: "SUB", Cycles: [2]int{8, 10}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x340, 0x37F, Entry{Mnemonic: "CMP", Cycles: [2]int{8, 10}, Interruptible: true, FlagsWritten: FlagS | FlagZ | FlagO | FlagC}},
	{0x380, 0x3BF, Entry{Mnemonic: "AND", Cycles: [2]int{8, 10}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
	{0x3C0, 0x3FF, Entry{Mnemonic: "XOR", Cycles: [2]int{8, 10}, Interruptible: true, FlagsWritten: FlagS | FlagZ}},
}

// Decode looks up the instruction metadata for a 10-bit opcode. It returns
// false for any opcode not covered by the static table.
func Decode(opcode uint16) (Entry, bool) {
	opcode &= 0x3FF
	for _, row := range table {
		if opcode >= row.low && opcode <= row.high {
			return row.entry, true
		}
	}
	return Entry{}, false
}

// Package bus implements the shared 16-bit tri-stated bus that connects the
// CP-1610 to memory and peripheral devices. The Bus is a passive rendezvous:
// it holds a data word, a phase, and a tick counter, and moves no data on
// its own.
//
// CPU     MEM     PERIPHERALS
//
//	|       |       |
//	|-------+-------+------------------------------ BUS
//
// Every attached BusDevice (the CPU included) observes (phase, tick) to
// decide when to latch addresses, drive data, or accept writes.
package bus

import "fmt"

// Phase is one of the eight bus control-line encodings (§6.1).
type Phase byte

const (
	NACT Phase = iota
	ADAR
	IAB
	DTB
	BAR
	DW
	DWS
	INTAK
)

func (p Phase) String() string {
	switch p {
	case NACT:
		return "NACT"
	case ADAR:
		return "ADAR"
	case IAB:
		return "IAB"
	case DTB:
		return "DTB"
	case BAR:
		return "BAR"
	case DW:
		return "DW"
	case DWS:
		return "DWS"
	case INTAK:
		return "INTAK"
	default:
		return fmt.Sprintf("Phase(%d)", byte(p))
	}
}

// floatValue is what Data relaxes to while NACT holds the bus floating.
const floatValue uint16 = 0xFFFF

// A Bus is the central synchronization point shared by the CPU and every
// attached BusDevice. It is owned by neither; it outlives all of them.
type Bus struct {
	data  uint16
	Phase Phase // driven only by the CPU; other devices only observe

	tick int // 0..3, one micro-cycle per wrap
}

// New returns a freshly floating Bus, ready for its first Clock call to
// present tick 0 of the first phase a CPU asserts.
func New() *Bus {
	return &Bus{data: floatValue, tick: 3}
}

// Clock advances the tick counter by one host tick. When the counter wraps
// and the bus is idle (NACT), the data line relaxes to its floating value.
func (b *Bus) Clock() {
	b.tick = (b.tick + 1) % 4
	if b.tick == 0 && b.Phase == NACT {
		b.data = floatValue
	}
}

// Tick returns the current time slot (0..3) within the active micro-cycle.
func (b *Bus) Tick() int { return b.tick }

// Data returns the current value on the data line.
func (b *Bus) Data() uint16 { return b.data }

// SetData drives a new value onto the data line, masked to 16 bits.
func (b *Bus) SetData(v uint16) { b.data = v }

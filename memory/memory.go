// Package memory implements the CP-1610's addressed bus.Device: a word
// array mapped at a base address, reacting to bus phases per the BAR /
// ADAR / DTB / DW / DWS / IAB contract.
package memory

import "cp1610/bus"

// RAM is a readable and writable memory device occupying [Base, Base+len).
type RAM struct {
	Base uint16
	data []uint16

	selected    int
	isSelected  bool
	writable    bool
}

// NewRAM returns a RAM device of the given size mapped at base.
func NewRAM(base uint16, size int) *RAM {
	return &RAM{Base: base, data: make([]uint16, size), writable: true}
}

// NewROM returns a read-only memory device seeded with the given words,
// mapped at base. Writes (DWS) are silently ignored.
func NewROM(base uint16, words []uint16) *RAM {
	data := make([]uint16, len(words))
	copy(data, words)
	return &RAM{Base: base, data: data, writable: false}
}

// Load copies words into the device starting at its base address, clamped
// to its size.
func (m *RAM) Load(words []uint16) {
	n := copy(m.data, words)
	_ = n
}

func (m *RAM) inRange(addr uint16) (int, bool) {
	off := int(addr) - int(m.Base)
	if off < 0 || off >= len(m.data) {
		return 0, false
	}
	return off, true
}

// Clock reacts to the current bus phase, per spec §4.3.
func (m *RAM) Clock(b *bus.Bus) {
	switch b.Phase {
	case bus.BAR:
		if b.Tick() == 3 {
			if off, ok := m.inRange(b.Data()); ok {
				m.selected = off
				m.isSelected = true
			} else {
				m.isSelected = false
			}
		}
	case bus.ADAR:
		if b.Tick() == 1 && m.isSelected {
			b.SetData(m.data[m.selected])
		}
		if b.Tick() == 3 {
			if off, ok := m.inRange(b.Data()); ok {
				m.selected = off
				m.isSelected = true
			} else {
				m.isSelected = false
			}
		}
	case bus.DTB:
		if b.Tick() == 1 && m.isSelected {
			b.SetData(m.data[m.selected])
		}
	case bus.DW:
		// no-op; CPU drives data, device only latches at DWS
	case bus.DWS:
		if b.Tick() == 3 && m.isSelected && m.writable {
			m.data[m.selected] = b.Data()
		}
	case bus.IAB:
		if b.Tick() == 1 && m.isSelected {
			b.SetData(m.data[m.selected])
		}
	case bus.INTAK, bus.NACT:
		// no-op
	}
}

// DebugRead peeks at an address without side effects. Implements
// bus.DebugReader.
func (m *RAM) DebugRead(addr uint16) (uint16, bool) {
	off, ok := m.inRange(addr)
	if !ok {
		return 0, false
	}
	return m.data[off], true
}

// DebugWrite writes directly, bypassing the bus protocol. Used by tests to
// seed memory images.
func (m *RAM) DebugWrite(addr uint16, v uint16) bool {
	off, ok := m.inRange(addr)
	if !ok {
		return false
	}
	m.data[off] = v
	return true
}

package bus

// A Device is any component attachable to a Bus: it advances one host tick
// at a time, reacting to the bus's (phase, tick) state, and may optionally
// answer a side-effect-free debug read.
type Device interface {
	// Clock advances the device by one host tick.
	Clock(b *Bus)
}

// DebugReader is satisfied by devices that can answer an address probe
// without side effects (used only by tests).
type DebugReader interface {
	DebugRead(addr uint16) (data uint16, ok bool)
}

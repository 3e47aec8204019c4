package cpu

// Peripheral is a memory-mapped collaborator driven synchronously by
// the CPU's fetch/decode/execute loop: a terminal, a debugger, or a
// test harness. All three callbacks run on the CPU's own goroutine
// between (or at the end of) instructions, per the single-writer
// discipline — a peripheral may only write to memory from within its
// own Tick.
type Peripheral interface {
	// Tick runs after every instruction, executed or skipped.
	Tick(c *CPU)
	// MemoryChanged runs whenever a writing instruction actually
	// changes the value at addr (address is in the unified space:
	// real memory below MemSize, a register pseudo-address above it).
	MemoryChanged(c *CPU, addr uint32, newVal, oldVal uint16)
	// Shutdown runs once, after the loop exits, in registration order.
	Shutdown(c *CPU)
}

// Stopper is implemented by a Peripheral that can request termination
// of the run loop. Checked after every Tick.
type Stopper interface {
	Stopped() bool
}

// AddPeripheral registers p to receive Tick/MemoryChanged/Shutdown
// callbacks. Order of registration is the order of delivery.
func (c *CPU) AddPeripheral(p Peripheral) {
	c.peripherals = append(c.peripherals, p)
}

func (c *CPU) tickPeripherals() {
	for _, p := range c.peripherals {
		p.Tick(c)
	}
}

func (c *CPU) shutdownPeripherals() {
	for _, p := range c.peripherals {
		p.Shutdown(c)
	}
}

// peripheralsRequestStop reports whether any registered Peripheral
// implementing Stopper has asked the run loop to end.
func (c *CPU) peripheralsRequestStop() bool {
	for _, p := range c.peripherals {
		if s, ok := p.(Stopper); ok && s.Stopped() {
			return true
		}
	}
	return false
}

// StopRequested reports whether any registered peripheral has asked
// for termination, for callers (the emu CLI's own trace loop) driving
// Step directly instead of Run.
func (c *CPU) StopRequested() bool { return c.peripheralsRequestStop() }

// Shutdown runs the Shutdown pass over every registered peripheral, in
// registration order. Run calls this itself; callers driving Step
// directly must call it once after their own loop ends.
func (c *CPU) Shutdown() { c.shutdownPeripherals() }

package cpu_test

import (
	"testing"

	"github.com/dcpu16/dcpu16/cpu"
	"github.com/dcpu16/dcpu16/encoding"
)

func TestMemorySizeInvariant(t *testing.T) {
	c := cpu.New()
	c.LoadProgram([]uint16{0x8401}) // SET A, 1
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	// The real memory window is always exactly 0x10000 words; Peek at
	// the top of that window must still be addressable and zero.
	if v := c.Peek(cpu.MemSize - 1); v != 0 {
		t.Fatalf("expected zero at top of memory, got %04x", v)
	}
}

func TestDivideByZero(t *testing.T) {
	c := cpu.New()
	// SET A, 5 (0x9401); DIV A, 0 (0x8005)
	c.LoadProgram([]uint16{0x9401, 0x8005})
	halted, err := step(t, c)
	if halted || err != nil {
		t.Fatal(err)
	}
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A() != 0 {
		t.Fatalf("expected A=0 after DIV by zero, got %04x", c.A())
	}
	if c.O() != 0 {
		t.Fatalf("expected O=0 after DIV by zero, got %04x", c.O())
	}
}

func TestModByZero(t *testing.T) {
	c := cpu.New()
	// SET A, 5 (0x9401); MOD A, 0 (0x8006)
	c.LoadProgram([]uint16{0x9401, 0x8006})
	mustStep(t, c)
	mustStep(t, c)
	if c.A() != 0 {
		t.Fatalf("expected A=0 after MOD by zero, got %04x", c.A())
	}
}

func TestSubUnderflow(t *testing.T) {
	c := cpu.New()
	// SET A, 0 (0x8001); SUB A, 1 (0x8403)
	c.LoadProgram([]uint16{0x8001, 0x8403})
	mustStep(t, c)
	mustStep(t, c)
	if c.A() != 0xFFFF {
		t.Fatalf("expected A=0xFFFF, got %04x", c.A())
	}
	if c.O() != 0xFFFF {
		t.Fatalf("expected O=0xFFFF, got %04x", c.O())
	}
}

func TestConditionalSkipDiscipline(t *testing.T) {
	// IFE A, 1 (false, A=0) ; SET A, [0x1000+I] (skipped, 2 words,
	// extra word still consumed) ; SET B, 9 (must execute normally).
	c := cpu.New()
	// IFE A,1 -> opcode=C a=0(A) b=0x21(lit1) => word = C | (0<<4) | (0x21<<10)
	ife := uint16(0xC) | (0 << 4) | (0x21 << 10)
	// SET A, [0x1000+I]: opcode=1 a=0(A) b=0x16 ([next+I]) => extra word 0x1000
	setIndexed := uint16(0x1) | (0 << 4) | (0x16 << 10)
	setB9 := uint16(0x1) | (1 << 4) | (0x29 << 10) // SET B, 9
	c.LoadProgram([]uint16{ife, setIndexed, 0x1000, setB9})

	mustStep(t, c) // IFE: false predicate, sets skip
	mustStep(t, c) // skipped SET A, [...]; extra word consumed, A unchanged
	if c.A() != 0 {
		t.Fatalf("skipped instruction must not execute, A=%04x", c.A())
	}
	mustStep(t, c) // SET B, 9 must run normally
	if c.B() != 9 {
		t.Fatalf("expected B=9, got %04x", c.B())
	}
}

func TestCycleAccounting(t *testing.T) {
	c := cpu.New()
	// SET A, 1 (1 cycle) ; ADD A, [0x1000] (2 + 1 surcharge = 3)
	add := uint16(0x2) | (0 << 4) | (0x1E << 10)
	c.LoadProgram([]uint16{0x8401, add, 0x1000})
	mustStep(t, c)
	if c.Cycle() != 1 {
		t.Fatalf("expected cycle=1 after SET, got %d", c.Cycle())
	}
	mustStep(t, c)
	if c.Cycle() != 4 {
		t.Fatalf("expected cycle=4 after ADD with extra word, got %d", c.Cycle())
	}
}

func TestSkippedInstructionChargesNoCycles(t *testing.T) {
	c := cpu.New()
	// IFE A, 1: A=0 != 1, predicate false, sets skip; base 2 + 1
	// skip-surcharge = 3 cycles for this instruction itself.
	ife := uint16(0xC) | (0 << 4) | (0x21 << 10)
	// ADD A, [0x1000] (skipped): has an extra word for b, and ADD's own
	// base cost is 2 + 1 for the extra word when executed normally —
	// but since it is skipped, none of that is charged.
	addSkipped := uint16(0x2) | (0 << 4) | (0x1E << 10)
	c.LoadProgram([]uint16{ife, addSkipped, 0x1000})

	mustStep(t, c)
	if c.Cycle() != 3 {
		t.Fatalf("expected cycle=3 after IFE that sets skip, got %d", c.Cycle())
	}
	mustStep(t, c)
	if c.Cycle() != 3 {
		t.Fatalf("expected cycle to stay at 3 after a skipped instruction, got %d", c.Cycle())
	}
}

func TestSkippedJSRChargesNoCycles(t *testing.T) {
	c := cpu.New()
	ife := uint16(0xC) | (0 << 4) | (0x21 << 10) // IFE A, 1 (false, sets skip)
	jsr := uint16(0x0) | (encoding.JSR << 4) | (0x1F << 10)
	c.LoadProgram([]uint16{ife, jsr, 0x0010})

	mustStep(t, c)
	if c.Cycle() != 3 {
		t.Fatalf("expected cycle=3 after IFE, got %d", c.Cycle())
	}
	spBefore := c.SP()
	mustStep(t, c) // skipped JSR must not push a return address or charge cycles
	if c.Cycle() != 3 {
		t.Fatalf("expected cycle to stay at 3 after a skipped JSR, got %d", c.Cycle())
	}
	if c.SP() != spBefore {
		t.Fatalf("expected SP unchanged by a skipped JSR, got %04x", c.SP())
	}
}

// recordingPeripheral is a cpu.Peripheral that counts Tick calls and
// records every MemoryChanged notification it receives, for asserting
// the bus's fan-out discipline.
type recordingPeripheral struct {
	ticks   int
	changes []memChange
}

type memChange struct {
	addr           uint32
	newVal, oldVal uint16
}

func (r *recordingPeripheral) Tick(c *cpu.CPU) { r.ticks++ }

func (r *recordingPeripheral) MemoryChanged(c *cpu.CPU, addr uint32, newVal, oldVal uint16) {
	r.changes = append(r.changes, memChange{addr, newVal, oldVal})
}

func (r *recordingPeripheral) Shutdown(c *cpu.CPU) {}

func TestPeripheralFanOut(t *testing.T) {
	c := cpu.New()
	rec := &recordingPeripheral{}
	c.AddPeripheral(rec)

	// SET A, 1 (changes A 0->1); SET A, 1 again (no-op, unchanged);
	// IFE A, 2 (false, sets skip, no write); SET B, 9 (skipped, no write).
	setA1 := uint16(0x1) | (0 << 4) | (0x21 << 10)
	ifeA2 := uint16(0xC) | (0 << 4) | (0x22 << 10)
	setB9 := uint16(0x1) | (1 << 4) | (0x29 << 10)
	c.LoadProgram([]uint16{setA1, setA1, ifeA2, setB9})

	mustStep(t, c) // SET A, 1: A changes, one MemoryChanged
	mustStep(t, c) // SET A, 1: unchanged, no MemoryChanged
	mustStep(t, c) // IFE A, 2: sets skip, no write
	mustStep(t, c) // SET B, 9: skipped, no write

	if rec.ticks != 4 {
		t.Fatalf("expected Tick to fire once per instruction including the skipped one, got %d", rec.ticks)
	}
	if len(rec.changes) != 1 {
		t.Fatalf("expected exactly one MemoryChanged notification, got %d: %+v", len(rec.changes), rec.changes)
	}
	if rec.changes[0].newVal != 1 || rec.changes[0].oldVal != 0 {
		t.Fatalf("unexpected MemoryChanged payload: %+v", rec.changes[0])
	}
	if c.B() != 0 {
		t.Fatalf("expected B to remain 0 (SET B,9 was skipped), got %d", c.B())
	}
}

// TestNotchDemo runs the classic 28-word demo program distributed with
// the original DCPU-16 notes and checks it settles into the crash loop
// with X=0x0040.
func TestNotchDemo(t *testing.T) {
	program := []uint16{
		0x7c01, 0x0030,
		0x7de1, 0x1000, 0x0020,
		0x7803, 0x1000,
		0xc00d,
		0x7dc1, 0x001a,
		0xa861,
		0x7c01, 0x2000,
		0x2161, 0x2000,
		0x8463,
		0x806d,
		0x7dc1, 0x000d,
		0x9031,
		0x7c10, 0x0018,
		0x7dc1, 0x001a,
		0x9037,
		0x61c1,
		0x7dc1, 0x001a,
	}
	c := cpu.New()
	c.LoadProgram(program)

	for i := 0; i < 1000; i++ {
		if c.PC() == 0x001A && c.X() == 0x0040 {
			return
		}
		if _, err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	t.Fatalf("program did not settle: PC=%04x X=%04x", c.PC(), c.X())
}

func step(t *testing.T, c *cpu.CPU) (bool, error) {
	t.Helper()
	return c.Step()
}

func mustStep(t *testing.T, c *cpu.CPU) {
	t.Helper()
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
}

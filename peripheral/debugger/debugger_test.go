package debugger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dcpu16/dcpu16/cpu"
)

func newTestDebugger(input string) (*Debugger, *bytes.Buffer) {
	var out bytes.Buffer
	d := New(strings.NewReader(input), &out, nil)
	return d, &out
}

func TestResolveAddrRegister(t *testing.T) {
	d, _ := newTestDebugger("")
	addr, ok := d.resolveAddr("%a")
	if !ok {
		t.Fatal("expected %a to resolve")
	}
	if addr != uint32(cpu.RegBase) {
		t.Fatalf("expected register A's address, got 0x%x", addr)
	}
}

func TestResolveAddrHex(t *testing.T) {
	d, _ := newTestDebugger("")
	addr, ok := d.resolveAddr("0x10")
	if !ok || addr != 0x10 {
		t.Fatalf("expected 0x10, got 0x%x ok=%v", addr, ok)
	}
}

func TestResolveAddrUnknownRegister(t *testing.T) {
	d, _ := newTestDebugger("")
	if _, ok := d.resolveAddr("%notareg"); ok {
		t.Fatal("expected unknown register to fail")
	}
}

func TestCmdGetPrintsValue(t *testing.T) {
	d, out := newTestDebugger("")
	c := cpu.New()
	c.LoadProgram([]uint16{0xBEEF})
	d.cmdGet(c, "0x0000")
	if !strings.Contains(out.String(), "0xbeef") {
		t.Fatalf("expected output to contain the peeked value, got %q", out.String())
	}
}

func TestCmdSetWritesMemory(t *testing.T) {
	d, _ := newTestDebugger("")
	c := cpu.New()
	d.cmdSet(c, "0x0005 002a")
	if v := c.Peek(0x0005); v != 0x2a {
		t.Fatalf("expected memory[5] = 0x2a, got 0x%04x", v)
	}
}

func TestCmdSetRegisterByName(t *testing.T) {
	d, _ := newTestDebugger("")
	c := cpu.New()
	d.cmdSet(c, "%x 0007")
	if c.X() != 7 {
		t.Fatalf("expected X=7, got %d", c.X())
	}
}

func TestBreakAndClear(t *testing.T) {
	d, _ := newTestDebugger("")
	d.cmdBreak("0010 0020")
	if !d.breakpoints[0x10] || !d.breakpoints[0x20] {
		t.Fatal("expected both breakpoints set")
	}
	d.cmdClear("0010")
	if d.breakpoints[0x10] {
		t.Fatal("expected 0x10 cleared")
	}
	if !d.breakpoints[0x20] {
		t.Fatal("expected 0x20 to remain")
	}
	d.cmdClear("")
	if len(d.breakpoints) != 0 {
		t.Fatal("expected clear with no args to remove all breakpoints")
	}
}

func TestDispatchStepSetsSteppingAndReturnsTrue(t *testing.T) {
	d, _ := newTestDebugger("")
	c := cpu.New()
	d.stepping = false
	if !d.dispatch(c, "step") {
		t.Fatal("expected step to signal resume")
	}
	if !d.stepping {
		t.Fatal("expected step to re-enable single-step mode")
	}
}

func TestDispatchContinueDisablesStepping(t *testing.T) {
	d, _ := newTestDebugger("")
	c := cpu.New()
	d.stepping = true
	if !d.dispatch(c, "continue") {
		t.Fatal("expected continue to signal resume")
	}
	if d.stepping {
		t.Fatal("expected continue to disable single-step mode")
	}
}

func TestDispatchGetDoesNotResume(t *testing.T) {
	d, _ := newTestDebugger("")
	c := cpu.New()
	if d.dispatch(c, "get 0x0000") {
		t.Fatal("expected get to keep reading commands")
	}
}

func TestTickEOFStopsEmulator(t *testing.T) {
	d, _ := newTestDebugger("") // empty input: Scan fails immediately
	c := cpu.New()
	d.Tick(c)
	if !d.Stopped() {
		t.Fatal("expected EOF on input to mark the debugger stopped")
	}
}

func TestTickRunsBreakThenContinueResumes(t *testing.T) {
	d, out := newTestDebugger("break 0001\ncontinue\n")
	c := cpu.New()
	c.LoadProgram([]uint16{0x8401, 0x8001}) // SET A,1 ; SET A,0

	d.Tick(c) // pc=0, breakpoint set on 1, continue: stepping=false, resumes
	if d.stepping {
		t.Fatal("expected continue to leave single-step mode")
	}
	if !strings.Contains(out.String(), "0000>") {
		t.Fatalf("expected a prompt for pc 0, got %q", out.String())
	}
}

// Package debugger implements the line-oriented REPL described as an
// external collaborator in the DCPU-16 toolchain's CLI surface: a
// cpu.Peripheral that pauses the run loop on its own Tick and drives a
// step/get/set/break/continue command surface over stdin, in the
// manner of db47h-ngaro's cmd/retro REPL-over-stdin front end.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dcpu16/dcpu16/cpu"
	"github.com/dcpu16/dcpu16/disassembler"
	"github.com/dcpu16/dcpu16/encoding"
)

// Debugger is a cpu.Peripheral that blocks the run loop on its own Tick
// until the user steps or continues, and implements cpu.Stopper so that
// EOF on its input terminates the emulator cleanly.
type Debugger struct {
	in   *bufio.Scanner
	out  io.Writer
	prog []uint16 // loaded program, for rendering the current instruction

	breakpoints map[uint16]bool
	stepping    bool
	stopped     bool
}

// New returns a Debugger reading commands from in and writing prompts
// and output to out. prog is the loaded program, used only to render
// the instruction at the current PC; it is never written to. The
// debugger starts in single-step mode, pausing after every instruction.
func New(in io.Reader, out io.Writer, prog []uint16) *Debugger {
	return &Debugger{
		in:          bufio.NewScanner(in),
		out:         out,
		prog:        prog,
		breakpoints: make(map[uint16]bool),
		stepping:    true,
	}
}

// Tick pauses the run loop and reads commands from stdin whenever the
// debugger is in single-step mode or the current PC is a breakpoint;
// otherwise it returns immediately and the CPU keeps running.
func (d *Debugger) Tick(c *cpu.CPU) {
	if d.stopped {
		return
	}
	pc := c.PC()
	if !d.stepping && !d.breakpoints[pc] {
		return
	}

	for {
		d.printState(c, pc)
		fmt.Fprintf(d.out, "%04x> ", pc)
		if !d.in.Scan() {
			d.stopped = true
			return
		}
		if d.dispatch(c, strings.TrimSpace(d.in.Text())) {
			return
		}
	}
}

// dispatch runs one command line, returning true when the run loop
// should resume (step or continue); false to keep reading commands.
func (d *Debugger) dispatch(c *cpu.CPU, line string) bool {
	cmd, rest := splitFirst(line)
	switch strings.ToLower(cmd) {
	case "", "step", "st":
		d.stepping = true
		return true
	case "continue", "cont", "c":
		d.stepping = false
		return true
	case "get", "g", "print", "p":
		d.cmdGet(c, rest)
	case "set", "s":
		d.cmdSet(c, rest)
	case "break", "b":
		d.cmdBreak(rest)
	case "clear", "cl":
		d.cmdClear(rest)
	default:
		fmt.Fprintf(d.out, "unknown command %q\n", cmd)
	}
	return false
}

func (d *Debugger) printState(c *cpu.CPU, pc uint16) {
	if int(pc) < len(d.prog) {
		text, _, err := disassembler.DecodeOne(d.prog, int(pc))
		if err == nil {
			fmt.Fprintf(d.out, "(%d) %04x: %s\n", c.Cycle(), pc, text)
		}
	}
}

func (d *Debugger) cmdGet(c *cpu.CPU, rest string) {
	tok, _ := splitFirst(rest)
	addr, ok := d.resolveAddr(tok)
	if !ok {
		fmt.Fprintf(d.out, "unknown address or register %q\n", tok)
		return
	}
	v := c.Peek(addr)
	fmt.Fprintf(d.out, "0x%04x = 0x%04x %5d %016b\n", addr, v, v, v)
}

func (d *Debugger) cmdSet(c *cpu.CPU, rest string) {
	tok, valTok := splitFirst(rest)
	addr, ok := d.resolveAddr(tok)
	if !ok {
		fmt.Fprintf(d.out, "unknown address or register %q\n", tok)
		return
	}
	v, err := parseHex(valTok)
	if err != nil {
		fmt.Fprintf(d.out, "bad value %q: %v\n", valTok, err)
		return
	}
	c.Poke(addr, v)
}

func (d *Debugger) cmdBreak(rest string) {
	for _, tok := range strings.Fields(rest) {
		addr, err := parseHex(tok)
		if err != nil {
			fmt.Fprintf(d.out, "bad address %q: %v\n", tok, err)
			continue
		}
		d.breakpoints[addr] = true
	}
}

func (d *Debugger) cmdClear(rest string) {
	toks := strings.Fields(rest)
	if len(toks) == 0 {
		d.breakpoints = make(map[uint16]bool)
		return
	}
	for _, tok := range toks {
		addr, err := parseHex(tok)
		if err != nil {
			fmt.Fprintf(d.out, "bad address %q: %v\n", tok, err)
			continue
		}
		delete(d.breakpoints, addr)
	}
}

// resolveAddr accepts either a hex address or "%reg" (register name,
// case-insensitive) and returns its address in the CPU's unified
// space.
func (d *Debugger) resolveAddr(tok string) (uint32, bool) {
	if strings.HasPrefix(tok, "%") {
		code, ok := encoding.Registers[strings.ToUpper(tok[1:])]
		if !ok {
			return 0, false
		}
		return uint32(cpu.RegBase) + uint32(code), true
	}
	addr, err := parseHex(tok)
	if err != nil {
		return 0, false
	}
	return uint32(addr), true
}

func parseHex(tok string) (uint16, error) {
	tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
	v, err := strconv.ParseUint(tok, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func splitFirst(s string) (first, rest string) {
	fields := strings.SplitN(strings.TrimSpace(s), " ", 2)
	first = fields[0]
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}
	return
}

// MemoryChanged is a no-op: the debugger only inspects state through
// explicit get/set commands, it does not watch writes.
func (d *Debugger) MemoryChanged(c *cpu.CPU, addr uint32, newVal, oldVal uint16) {}

// Shutdown prints a closing message once the run loop exits.
func (d *Debugger) Shutdown(c *cpu.CPU) {
	fmt.Fprintln(d.out, "debugger: emulator halted")
}

// Stopped reports whether EOF was reached on the command input.
func (d *Debugger) Stopped() bool { return d.stopped }

// Command demu runs a DCPU-16 object file through the emulator:
// `demu [--trace] [--debug] [--speed] [--term=<name>] [--geometry=WxH]
// <input.obj>`.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dcpu16/dcpu16/cpu"
	"github.com/dcpu16/dcpu16/disassembler"
	"github.com/dcpu16/dcpu16/object"
	"github.com/dcpu16/dcpu16/peripheral/debugger"
	"github.com/dcpu16/dcpu16/peripheral/terminal"
)

func main() {
	log.SetFlags(0)

	trace := flag.Bool("trace", false, "print (cycle) pc: <disassembled> before each instruction and a register/stack dump after")
	debug := flag.Bool("debug", false, "enable the debugger REPL (implies --trace)")
	speed := flag.Bool("speed", false, "periodically print an approximate kHz execution rate")
	term := flag.String("term", "termbox", "terminal backend name, or \"none\" to run headless")
	geometry := flag.String("geometry", "80x25", "terminal/framebuffer size as WxH")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Printf("Usage: %s [--trace] [--debug] [--speed] [--term=<name>] [--geometry=WxH] <input.obj>", os.Args[0])
		os.Exit(1)
	}
	if *debug {
		*trace = true
	}

	if err := run(flag.Arg(0), *trace, *debug, *speed, *term, *geometry); err != nil {
		log.Fatal(err)
	}
}

func run(inputFile string, trace, debug, speed bool, term, geometry string) error {
	width, height, err := parseGeometry(geometry)
	if err != nil {
		return err
	}

	b, err := os.ReadFile(inputFile)
	if err != nil {
		return errors.Wrapf(err, "reading %s", inputFile)
	}
	words, err := object.Decode(b)
	if err != nil {
		return errors.Wrap(err, "decoding object file")
	}

	c := cpu.New()
	c.LoadProgram(words)

	if term != "none" {
		if term != "termbox" {
			return errors.Errorf("unknown terminal backend %q (only \"termbox\" or \"none\" is built in)", term)
		}
		t, err := terminal.New(width, height)
		if err != nil {
			return errors.Wrap(err, "initializing terminal")
		}
		c.AddPeripheral(t)
	}
	if debug {
		c.AddPeripheral(debugger.New(os.Stdin, os.Stdout, words))
	}

	return execute(c, words, trace, speed)
}

// execute drives the fetch/decode/execute loop one Step at a time so
// the CLI can print the trace line before execution and the state dump
// after, exactly as the spec's --trace format requires; cpu.Run cannot
// be used here since it offers no pre-step hook.
func execute(c *cpu.CPU, words []uint16, trace, speed bool) (err error) {
	defer c.Shutdown()

	start := time.Now()
	lastSpeedPrint := start
	var instrCount int64

	for {
		pc := c.PC()
		cycle := c.Cycle()
		if trace {
			if text, _, derr := disassembler.DecodeOne(words, int(pc)); derr == nil {
				fmt.Printf("(%d) %04x: %s\n", cycle, pc, text)
			}
		}

		halted, stepErr := c.Step()
		if stepErr != nil {
			return errors.Wrapf(stepErr, "at pc=0x%04x", pc)
		}
		instrCount++

		if trace {
			dumpState(c)
		}
		if speed && time.Since(lastSpeedPrint) >= time.Second {
			khz := float64(instrCount) / time.Since(start).Seconds() / 1000
			fmt.Fprintf(os.Stderr, "~%.1f kHz\n", khz)
			lastSpeedPrint = time.Now()
		}
		if halted || c.StopRequested() {
			return nil
		}
	}
}

// dumpState prints the register file and the top few words of the
// stack, in the teacher's terse log-line style.
func dumpState(c *cpu.CPU) {
	fmt.Printf("  A=%04x B=%04x C=%04x X=%04x Y=%04x Z=%04x I=%04x J=%04x\n",
		c.A(), c.B(), c.C(), c.X(), c.Y(), c.Z(), c.I(), c.J())
	fmt.Printf("  PC=%04x SP=%04x O=%04x\n", c.PC(), c.SP(), c.O())

	sp := uint32(c.SP())
	fmt.Print("  stack:")
	for i := 0; i < 4; i++ {
		addr := sp + uint32(i)
		if addr > 0xFFFF {
			break
		}
		fmt.Printf(" %04x", c.Peek(addr))
	}
	fmt.Println()
}

func parseGeometry(s string) (width, height int, err error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("invalid --geometry %q, want WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, errors.Errorf("invalid --geometry width %q", parts[0])
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, errors.Errorf("invalid --geometry height %q", parts[1])
	}
	return w, h, nil
}

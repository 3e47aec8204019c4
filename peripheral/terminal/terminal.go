// Package terminal implements the DCPU-16 character-cell display and
// keyboard ring as a cpu.Peripheral backed by termbox-go.
package terminal

import (
	"github.com/nsf/termbox-go"

	"github.com/dcpu16/dcpu16/cpu"
)

// Memory-mapped layout, per the terminal framebuffer/keyboard ring
// interface.
const (
	FramebufferBase = 0x8000
	KeyboardBase    = 0x9000
	KeyboardSlots   = 16
)

// Special key codes injected into the keyboard ring ahead of any
// printable character codes.
const (
	KeyUp    = 1
	KeyDown  = 2
	KeyLeft  = 3
	KeyRight = 4
)

// palette maps the DCPU-16 cell word's 3-bit RGB fields onto the
// termbox 8-color ANSI set; bit 0 selects red, bit 1 green, bit 2 blue.
var palette = [8]termbox.Attribute{
	termbox.ColorBlack,
	termbox.ColorRed,
	termbox.ColorGreen,
	termbox.ColorYellow,
	termbox.ColorBlue,
	termbox.ColorMagenta,
	termbox.ColorCyan,
	termbox.ColorWhite,
}

// Terminal is a Peripheral driving a termbox-go character-cell screen
// and feeding keypresses into the keyboard ring. Construct with New,
// register with (*cpu.CPU).AddPeripheral.
type Terminal struct {
	width, height int
	keys          chan termbox.Event
	stopped       bool
}

// New initializes termbox and returns a Terminal sized width x height
// cells. The caller must eventually run the CPU it registers the
// Terminal with to completion so Shutdown can close termbox cleanly.
func New(width, height int) (*Terminal, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetOutputMode(termbox.OutputNormal)

	t := &Terminal{
		width:  width,
		height: height,
		keys:   make(chan termbox.Event, 64),
	}
	go t.pollEvents()
	return t, nil
}

// pollEvents runs on its own goroutine, per the single-writer
// discipline: it only enqueues into keys; Tick is the sole writer into
// CPU memory.
func (t *Terminal) pollEvents() {
	for {
		ev := termbox.PollEvent()
		t.keys <- ev
		if ev.Type == termbox.EventKey && ev.Key == termbox.KeyCtrlC {
			return
		}
	}
}

// MemoryChanged redraws the one cell addr maps to, when addr falls
// inside the framebuffer window.
func (t *Terminal) MemoryChanged(c *cpu.CPU, addr uint32, newVal, oldVal uint16) {
	cellCount := uint32(t.width * t.height)
	if addr < FramebufferBase || addr >= FramebufferBase+cellCount {
		return
	}
	offset := addr - FramebufferBase
	x := int(offset) % t.width
	y := int(offset) / t.width
	ch, fg, bg := decodeCell(newVal)
	termbox.SetCell(x, y, ch, fg, bg)
}

// decodeCell splits a framebuffer word into its glyph and colors: bits
// 0-6 are the character code (0 renders as space), bits 8-10 the
// background color, bits 12-14 the foreground color.
func decodeCell(word uint16) (rune, termbox.Attribute, termbox.Attribute) {
	char := word & 0x7F
	bg := palette[(word>>8)&0x7]
	fg := palette[(word>>12)&0x7]
	if char == 0 {
		char = ' '
	}
	return rune(char), fg, bg
}

// Tick drains any buffered keyboard events into the first zero slot of
// the keyboard ring, and flushes pending screen changes.
func (t *Terminal) Tick(c *cpu.CPU) {
	termbox.Flush()
	for {
		select {
		case ev := <-t.keys:
			t.handleEvent(c, ev)
		default:
			return
		}
	}
}

func (t *Terminal) handleEvent(c *cpu.CPU, ev termbox.Event) {
	if ev.Type != termbox.EventKey {
		return
	}
	if ev.Key == termbox.KeyCtrlC {
		t.stopped = true
		return
	}
	code := keyCode(ev)
	if code == 0 {
		return
	}
	t.pushKey(c, code)
}

func keyCode(ev termbox.Event) uint16 {
	switch ev.Key {
	case termbox.KeyArrowUp:
		return KeyUp
	case termbox.KeyArrowDown:
		return KeyDown
	case termbox.KeyArrowLeft:
		return KeyLeft
	case termbox.KeyArrowRight:
		return KeyRight
	}
	if ev.Ch != 0 {
		return uint16(ev.Ch)
	}
	return 0
}

// pushKey writes code into the first zero-valued slot of the keyboard
// ring starting at KeyboardBase, dropping the key if the ring is full.
func (t *Terminal) pushKey(c *cpu.CPU, code uint16) {
	for i := 0; i < KeyboardSlots; i++ {
		addr := uint32(KeyboardBase + i)
		if c.Peek(addr) == 0 {
			c.Poke(addr, code)
			return
		}
	}
}

// Stopped reports whether Ctrl-C has requested emulator termination.
func (t *Terminal) Stopped() bool { return t.stopped }

// Shutdown closes the termbox session.
func (t *Terminal) Shutdown(c *cpu.CPU) { termbox.Close() }

package platform

import (
	"sync"

	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/core"
)

// LineMode is what a simulated line is currently configured as.
type LineMode uint8

const (
	Unused LineMode = iota
	Drive
	Input
	Output
)

type hostLine struct {
	mode   LineMode
	level  bool   // input level seen by Get, or output level
	pulse  uint16 // last pulse width on a drive
	writes int
	fail   bool
}

// Host simulates a board in memory. Tests and the console use it to
// inspect drive pulses and feedback outputs and to move switch inputs.
type Host struct {
	mu    sync.Mutex
	board core.Board
	lines [core.MaxPins]hostLine
}

func NewHost(b core.Board) *Host {
	return &Host{board: b}
}

func (h *Host) Board() core.Board { return h.board }

func (h *Host) check(pin int, need core.Cap) error {
	if pin < 0 || pin >= h.board.Pins() {
		return errcode.OutOfRange
	}
	c := h.board.Caps[pin]
	if need == core.CapPWM && !c.PWM() || !c.Digital() {
		return errcode.PinCapability
	}
	if h.lines[pin].fail {
		return errcode.New(errcode.Error, "host", "line fault")
	}
	return nil
}

func (h *Host) AttachDrive(pin int) (core.Drive, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check(pin, core.CapPWM); err != nil {
		return nil, err
	}
	h.lines[pin] = hostLine{mode: Drive}
	return hostDrive{h: h, n: pin}, nil
}

func (h *Host) ConfigureInput(pin int, pull core.Pull) (core.InputLine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check(pin, core.CapDigital); err != nil {
		return nil, err
	}
	h.lines[pin] = hostLine{mode: Input, level: pull == core.PullUp}
	return hostInput{h: h, n: pin}, nil
}

func (h *Host) ConfigureOutput(pin int, initial bool) (core.OutputLine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check(pin, core.CapDigital); err != nil {
		return nil, err
	}
	h.lines[pin] = hostLine{mode: Output, level: initial}
	return hostOutput{h: h, n: pin}, nil
}

func (h *Host) Detach(pin int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if pin >= 0 && pin < len(h.lines) {
		fail := h.lines[pin].fail
		h.lines[pin] = hostLine{fail: fail}
	}
}

// ---- Simulation controls ----

// SetLevel drives a simulated input line.
func (h *Host) SetLevel(pin int, level bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lines[pin].mode == Input {
		h.lines[pin].level = level
	}
}

// Press closes a switch to ground; Release lets the pull-up win.
func (h *Host) Press(pin int)   { h.SetLevel(pin, false) }
func (h *Host) Release(pin int) { h.SetLevel(pin, true) }

// Fault makes every later attach or configure of pin fail.
func (h *Host) Fault(pin int, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines[pin].fail = on
}

// Mode returns how pin is configured.
func (h *Host) Mode(pin int) LineMode {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lines[pin].mode
}

// Pulse returns the last pulse written to a drive and the write count.
func (h *Host) Pulse(pin int) (us uint16, writes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lines[pin].pulse, h.lines[pin].writes
}

// Level returns the level of an input or output line.
func (h *Host) Level(pin int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lines[pin].level
}

type hostDrive struct {
	h *Host
	n int
}

func (d hostDrive) SetPulse(us uint16) {
	d.h.mu.Lock()
	l := &d.h.lines[d.n]
	if l.mode == Drive {
		l.pulse = us
		l.writes++
	}
	d.h.mu.Unlock()
}

type hostInput struct {
	h *Host
	n int
}

func (i hostInput) Get() bool { return i.h.Level(i.n) }

type hostOutput struct {
	h *Host
	n int
}

func (o hostOutput) Set(v bool) {
	o.h.mu.Lock()
	if l := &o.h.lines[o.n]; l.mode == Output {
		l.level = v
	}
	o.h.mu.Unlock()
}

package core

import "signalbox-go/errcode"

// Fixed table sizes. The service path never allocates.
const (
	MaxServos = 8
	MaxPins   = 32
)

// ---- Pin capabilities ----

type Cap uint8

const (
	CapNone    Cap = iota // not usable
	CapDigital            // digital in/out only
	CapPWM                // digital in/out and PWM
)

func (c Cap) Digital() bool { return c >= CapDigital }
func (c Cap) PWM() bool     { return c >= CapPWM }

func (c Cap) String() string {
	switch c {
	case CapDigital:
		return "digital"
	case CapPWM:
		return "digital+pwm"
	default:
		return "none"
	}
}

// Board describes which lines exist and what each can do, indexed by pin number.
type Board struct {
	Name string
	Caps []Cap
}

// Pins returns the number of addressable lines (never above MaxPins).
func (b Board) Pins() int {
	if len(b.Caps) > MaxPins {
		return MaxPins
	}
	return len(b.Caps)
}

// ---- Hardware handles ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Drive is an attached servo output taking a pulse width in microseconds.
type Drive interface {
	SetPulse(us uint16)
}

type InputLine interface {
	Get() bool
}

type OutputLine interface {
	Set(bool)
}

// Factory hands out hardware handles for pin numbers the registry has
// already validated. Detach returns a line to its reset state.
type Factory interface {
	Board() Board
	AttachDrive(pin int) (Drive, error)
	ConfigureInput(pin int, pull Pull) (InputLine, error)
	ConfigureOutput(pin int, initial bool) (OutputLine, error)
	Detach(pin int)
}

// Clock is a monotonic millisecond counter that may wrap.
type Clock interface {
	Millis() uint32
}

// Store is raw persistence over a fixed-size block.
type Store interface {
	Read(buf []byte) bool
	Write(buf []byte) bool
}

// ---- Servo handles ----

// ServoID is a checked servo slot index.
type ServoID uint8

// ServoIDOf validates n as a slot index.
func ServoIDOf(n int) (ServoID, error) {
	if n < 0 || n >= MaxServos {
		return 0, errcode.OutOfRange
	}
	return ServoID(n), nil
}

func (id ServoID) Int() int { return int(id) }

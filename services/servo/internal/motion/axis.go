// Package motion animates a servo between its two logical extremes using
// one of three interchangeable behaviours.
package motion

import (
	"signalbox-go/services/servo/internal/angle"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/x/mathx"
)

// State is the logical state of a servo.
type State uint8

const (
	Off State = iota
	MovingOn
	MovingOff
	On
)

func (s State) String() string {
	switch s {
	case MovingOn:
		return "moving-on"
	case MovingOff:
		return "moving-off"
	case On:
		return "on"
	default:
		return "off"
	}
}

// Stable reports whether s is OFF or ON.
func (s State) Stable() bool { return s == Off || s == On }

// Axis is the physical side of one servo: where it is, where its extremes
// are, and the lines it drives. Position is kept in [0, Sweep].
type Axis struct {
	State    State
	Pos      uint16
	Sweep    uint16
	Inverted bool

	drive core.Drive
	fbOn  core.OutputLine
	fbOff core.OutputLine
}

// NewAxis returns an axis at OFF with the drive written to match.
func NewAxis(drive core.Drive, sweep uint16, inverted bool) *Axis {
	a := &Axis{Sweep: mathx.Min[uint16](sweep, angle.MaxArc), Inverted: inverted, drive: drive}
	a.Move(a.Extreme(false))
	return a
}

// SetFeedback attaches (or with nils detaches) the feedback outputs and
// writes the current stable state to them.
func (a *Axis) SetFeedback(on, off core.OutputLine) {
	a.fbOn, a.fbOff = on, off
	a.showFeedback()
}

// Extreme returns the arc position of logical ON (on=true) or OFF.
func (a *Axis) Extreme(on bool) uint16 {
	if on != a.Inverted {
		return a.Sweep
	}
	return 0
}

// Committed reports the logical target: ON if on or moving toward it.
func (a *Axis) Committed() bool {
	return a.State == On || a.State == MovingOn
}

// Move sets the position, clamped to the sweep, and writes the pulse width.
func (a *Axis) Move(pos uint16) {
	a.Pos = mathx.Min(pos, a.Sweep)
	if a.drive != nil {
		a.drive.SetPulse(angle.ArcToPulse(a.Pos))
	}
}

// Depart enters the moving state toward on and drops the feedback line of
// the state being left.
func (a *Axis) Depart(on bool) {
	if on {
		a.State = MovingOn
		set(a.fbOff, false)
	} else {
		a.State = MovingOff
		set(a.fbOn, false)
	}
}

// Arrive enters the stable state on and raises its feedback line.
func (a *Axis) Arrive(on bool) {
	if on {
		a.State = On
	} else {
		a.State = Off
	}
	a.showFeedback()
}

// Settle finishes any motion at once at the committed extreme.
func (a *Axis) Settle() {
	on := a.Committed()
	a.Move(a.Extreme(on))
	a.Arrive(on)
}

// Resweep changes the sweep and re-settles at the committed extreme.
func (a *Axis) Resweep(sweep uint16) {
	a.Sweep = mathx.Min[uint16](sweep, angle.MaxArc)
	a.Settle()
}

// Reinvert swaps the physical extremes and re-settles.
func (a *Axis) Reinvert(inverted bool) {
	a.Inverted = inverted
	a.Settle()
}

func (a *Axis) showFeedback() {
	set(a.fbOn, a.State == On)
	set(a.fbOff, a.State == Off)
}

func set(l core.OutputLine, v bool) {
	if l != nil {
		l.Set(v)
	}
}

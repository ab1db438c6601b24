package core

import (
	"strconv"

	"signalbox-go/errcode"
)

// Pin is a pin reference that is either empty (NoPin) or names a line
// number. Range is checked against a Board, not here.
type Pin struct {
	n  uint8
	ok bool
}

// NoPin is the unassigned pin.
var NoPin = Pin{}

func PinOf(n uint8) Pin { return Pin{n: n, ok: true} }

// Number returns the line number and whether the pin is assigned.
func (p Pin) Number() (int, bool) { return int(p.n), p.ok }

func (p Pin) Assigned() bool { return p.ok }

func (p Pin) String() string {
	if !p.ok {
		return "-"
	}
	return strconv.Itoa(int(p.n))
}

// ---- Ownership ----

type Role uint8

const (
	RoleNone Role = iota
	RoleDrive
	RoleInput
	RoleFeedbackOn
	RoleFeedbackOff
)

func (r Role) String() string {
	switch r {
	case RoleDrive:
		return "drive"
	case RoleInput:
		return "input"
	case RoleFeedbackOn:
		return "feedback-on"
	case RoleFeedbackOff:
		return "feedback-off"
	default:
		return "free"
	}
}

// need returns the capability a role requires.
func (r Role) need() Cap {
	if r == RoleDrive {
		return CapPWM
	}
	return CapDigital
}

// Owner records which servo slot holds a pin and in what role.
// The zero Owner means the pin is free.
type Owner struct {
	Servo ServoID
	Role  Role
}

func (o Owner) Free() bool { return o.Role == RoleNone }

// Claim is one pin requested for one role of a servo.
type Claim struct {
	Pin  Pin
	Role Role
}

// Registry is the pin ownership table. It does no locking of its own; the
// owning controller serialises every call, so check-and-set is atomic.
type Registry struct {
	board  Board
	owners [MaxPins]Owner
}

func NewRegistry(b Board) *Registry {
	return &Registry{board: b}
}

func (r *Registry) Board() Board { return r.board }

// Owner returns the owner of p. ok is false if p is not on the board.
func (r *Registry) Owner(p Pin) (Owner, bool) {
	n, set := p.Number()
	if !set || n >= r.board.Pins() {
		return Owner{}, false
	}
	return r.owners[n], true
}

// Check validates p for role without claiming it.
func (r *Registry) Check(p Pin, role Role) error {
	n, set := p.Number()
	if !set || n >= r.board.Pins() {
		return errcode.OutOfRange
	}
	c := r.board.Caps[n]
	if role.need() == CapPWM && !c.PWM() || !c.Digital() {
		return errcode.PinCapability
	}
	if !r.owners[n].Free() {
		return errcode.PinInUse
	}
	return nil
}

// ClaimAll validates every claim and then takes them all for servo id, or
// takes none. Duplicate pins inside one request are rejected first.
func (r *Registry) ClaimAll(id ServoID, claims ...Claim) error {
	for i := range claims {
		for j := i + 1; j < len(claims); j++ {
			if claims[i].Pin == claims[j].Pin {
				return errcode.DuplicatePin
			}
		}
	}
	for _, c := range claims {
		if err := r.Check(c.Pin, c.Role); err != nil {
			return err
		}
	}
	for _, c := range claims {
		n, _ := c.Pin.Number()
		r.owners[n] = Owner{Servo: id, Role: c.Role}
	}
	return nil
}

// Release frees p if servo id holds it.
func (r *Registry) Release(id ServoID, p Pin) {
	n, set := p.Number()
	if !set || n >= r.board.Pins() {
		return
	}
	if o := r.owners[n]; !o.Free() && o.Servo == id {
		r.owners[n] = Owner{}
	}
}

// ReleaseServo frees every pin held by servo id.
func (r *Registry) ReleaseServo(id ServoID) {
	for n := range r.owners {
		if o := r.owners[n]; !o.Free() && o.Servo == id {
			r.owners[n] = Owner{}
		}
	}
}

// Reset frees the whole table.
func (r *Registry) Reset() {
	r.owners = [MaxPins]Owner{}
}

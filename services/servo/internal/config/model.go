// Package config holds the persisted, operator-declared description of each
// servo slot and its fixed-size block encoding.
package config

import (
	"signalbox-go/services/servo/internal/angle"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/x/mathx"
)

// Switch is the discipline of a servo's control input.
type Switch uint8

const (
	Toggle Switch = iota
	Momentary
)

func (s Switch) String() string {
	if s == Momentary {
		return "momentary"
	}
	return "toggle"
}

// Mode tags the realism variant.
type Mode uint8

const (
	ModeNone Mode = iota
	ModePoint
	ModeSignal
)

func (m Mode) String() string {
	switch m {
	case ModePoint:
		return "point"
	case ModeSignal:
		return "signal"
	case ModeNone:
		return "none"
	default:
		return "unknown"
	}
}

// Curve selects a signal-arm acceleration table.
type Curve uint8

const (
	CurveVertical Curve = iota
	CurveUpper
	CurveLower
	CurveFull
	NumCurves
)

func (c Curve) Valid() bool { return c < NumCurves }

func (c Curve) String() string {
	switch c {
	case CurveVertical:
		return "vertical"
	case CurveUpper:
		return "upper"
	case CurveLower:
		return "lower"
	case CurveFull:
		return "full"
	default:
		return "unknown"
	}
}

// ---- Realism sum type ----

// Realism is one of NoRealism, PointRealism, SignalRealism or Unknown.
type Realism interface {
	Mode() Mode
	realism()
}

type NoRealism struct{}

// PointRealism moves one arc unit per Pause milliseconds.
type PointRealism struct {
	Pause uint16
}

// SignalRealism parameterises the simulated signal arm.
type SignalRealism struct {
	Decay       uint8 // % of rebound speed lost per bounce
	Friction    uint8 // % drag applied to drop delays
	Slack       uint8 // arc units taken up before the arm moves
	Stretch     uint8 // arc units of overshoot bounce at the top
	Speed       uint8 // raising speed, 1 slowest
	Curve       Curve
	BounceLimit uint8 // max rebounds per drop, 0 = unlimited
}

// Unknown carries a mode tag read from storage that this build does not know.
type Unknown struct {
	Tag uint8
}

func (NoRealism) Mode() Mode     { return ModeNone }
func (PointRealism) Mode() Mode  { return ModePoint }
func (SignalRealism) Mode() Mode { return ModeSignal }
func (u Unknown) Mode() Mode     { return Mode(u.Tag) }

func (NoRealism) realism()     {}
func (PointRealism) realism()  {}
func (SignalRealism) realism() {}
func (Unknown) realism()       {}

// ---- Parameter limits ----

// Limit is the documented range and default of one parameter.
type Limit struct {
	Min, Max, Def uint16
}

func (l Limit) In(v uint16) bool     { return mathx.Between(v, l.Min, l.Max) }
func (l Limit) Clamp(v uint16) uint16 { return mathx.Clamp(v, l.Min, l.Max) }

var (
	PauseLimit    = Limit{Min: 1, Max: 1000, Def: 20}
	DecayLimit    = Limit{Min: 0, Max: 100, Def: 40}
	FrictionLimit = Limit{Min: 0, Max: 100, Def: 20}
	SlackLimit    = Limit{Min: 0, Max: 40, Def: 8}
	StretchLimit  = Limit{Min: 0, Max: 40, Def: 12}
	SpeedLimit    = Limit{Min: 1, Max: 100, Def: 50}
	BouncesLimit  = Limit{Min: 0, Max: 255, Def: 0}
	SweepLimit    = Limit{Min: 0, Max: angle.MaxArc, Def: angle.MaxArc / 2}
)

const DefaultCurve = CurveUpper

func DefaultPoint() PointRealism {
	return PointRealism{Pause: PauseLimit.Def}
}

func DefaultSignal() SignalRealism {
	return SignalRealism{
		Decay:       uint8(DecayLimit.Def),
		Friction:    uint8(FrictionLimit.Def),
		Slack:       uint8(SlackLimit.Def),
		Stretch:     uint8(StretchLimit.Def),
		Speed:       uint8(SpeedLimit.Def),
		Curve:       DefaultCurve,
		BounceLimit: uint8(BouncesLimit.Def),
	}
}

// DefaultFor returns the default parameter block for mode m.
func DefaultFor(m Mode) (Realism, bool) {
	switch m {
	case ModeNone:
		return NoRealism{}, true
	case ModePoint:
		return DefaultPoint(), true
	case ModeSignal:
		return DefaultSignal(), true
	}
	return NoRealism{}, false
}

func clamp8(v uint8, l Limit) uint8 { return uint8(l.Clamp(uint16(v))) }

// Sanitize clamps every field of r into its documented range. Unknown modes
// and curves are reset to their defaults and reported with ok=false.
func Sanitize(r Realism) (out Realism, ok bool) {
	switch v := r.(type) {
	case nil, NoRealism:
		return NoRealism{}, true
	case PointRealism:
		v.Pause = PauseLimit.Clamp(v.Pause)
		return v, true
	case SignalRealism:
		ok = true
		v.Decay = clamp8(v.Decay, DecayLimit)
		v.Friction = clamp8(v.Friction, FrictionLimit)
		v.Slack = clamp8(v.Slack, SlackLimit)
		v.Stretch = clamp8(v.Stretch, StretchLimit)
		v.Speed = clamp8(v.Speed, SpeedLimit)
		v.BounceLimit = clamp8(v.BounceLimit, BouncesLimit)
		if !v.Curve.Valid() {
			v.Curve = DefaultCurve
			ok = false
		}
		return v, ok
	default:
		return NoRealism{}, false
	}
}

// ---- Servo slot ----

// Servo is one persisted servo slot.
type Servo struct {
	Active   bool
	Sweep    uint16 // arc units
	Inverted bool

	Drive core.Pin
	Input core.Pin

	Feedback    bool
	FeedbackOn  core.Pin
	FeedbackOff core.Pin

	Switch  Switch
	Realism Realism
}

// Empty returns an unused slot.
func Empty() Servo {
	return Servo{Realism: NoRealism{}}
}

// Block is the whole persisted configuration.
type Block [core.MaxServos]Servo

// DefaultBlock returns a block of empty slots.
func DefaultBlock() Block {
	var b Block
	for i := range b {
		b[i] = Empty()
	}
	return b
}

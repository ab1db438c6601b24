package motion

import "signalbox-go/services/servo/internal/config"

// Behavior is a motion strategy bound to one Axis. Every call returns at
// once; in-flight motion continues on later Tick calls. On and Off do
// nothing if the axis already rests at that extreme.
type Behavior interface {
	On(now uint32)
	Off(now uint32)
	Flip(now uint32)
	Tick(now uint32)

	Mode() config.Mode
	// Step is the strategy's cursor; 0 means idle.
	Step() uint8
	// Configure applies new parameters of the same mode.
	Configure(r config.Realism)
}

// Bind returns a fresh behaviour for r on a. The axis is settled first so
// the new strategy always starts idle.
func Bind(a *Axis, r config.Realism) Behavior {
	a.Settle()
	switch v := r.(type) {
	case config.PointRealism:
		return &Point{a: a, p: v}
	case config.SignalRealism:
		s := &Signal{a: a}
		s.Configure(v)
		return s
	default:
		return &None{a: a}
	}
}

// flip resolves the target from the committed state.
func flip(b Behavior, a *Axis, now uint32) {
	if a.Committed() {
		b.Off(now)
	} else {
		b.On(now)
	}
}

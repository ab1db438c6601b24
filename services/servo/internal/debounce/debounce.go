// Package debounce turns a sampled switch line into clean logical events.
package debounce

import "signalbox-go/services/servo/internal/config"

// Window is the number of consecutive samples a new level must hold
// before it is accepted.
const Window = 4

// Filter confirms a raw level after Window identical samples.
type Filter struct {
	stable     bool
	confirming bool
	remaining  uint8
}

// NewFilter starts stable at level.
func NewFilter(level bool) Filter {
	return Filter{stable: level}
}

func (f *Filter) Level() bool { return f.stable }

// Sample feeds one raw reading. changed is true exactly once per accepted
// level change, on the sample that completes the window.
func (f *Filter) Sample(raw bool) (level, changed bool) {
	if raw == f.stable {
		f.confirming = false
		return f.stable, false
	}
	if !f.confirming {
		f.confirming = true
		f.remaining = Window - 1
	} else if f.remaining > 0 {
		f.remaining--
	}
	if f.remaining == 0 {
		f.stable = raw
		f.confirming = false
		return f.stable, true
	}
	return f.stable, false
}

// Event is what one service sample asks of the servo's behaviour.
type Event uint8

const (
	Tick Event = iota // no switch change; continue motion
	On
	Off
	Flip
)

func (e Event) String() string {
	switch e {
	case On:
		return "on"
	case Off:
		return "off"
	case Flip:
		return "flip"
	default:
		return "tick"
	}
}

// Switch applies a switch discipline to a filtered input. Inputs are pulled
// up, so a low line means the switch is enabled.
type Switch struct {
	f     Filter
	latch bool
}

// NewSwitch starts with the switch released.
func NewSwitch() Switch {
	return Switch{f: NewFilter(true)}
}

// Enabled reports the confirmed switch state.
func (s *Switch) Enabled() bool { return !s.f.Level() }

// Latched reports whether a momentary press is waiting for its release.
func (s *Switch) Latched() bool { return s.latch }

// ClearLatch drops any pending momentary press.
func (s *Switch) ClearLatch() { s.latch = false }

// Next samples raw and returns the event for this service slot.
func (s *Switch) Next(raw bool, d config.Switch) Event {
	level, changed := s.f.Sample(raw)
	if !changed {
		return Tick
	}
	enabled := !level
	if d == config.Momentary {
		if enabled {
			s.latch = true
			return Tick
		}
		if s.latch {
			s.latch = false
			return Flip
		}
		return Tick
	}
	if enabled {
		return On
	}
	return Off
}

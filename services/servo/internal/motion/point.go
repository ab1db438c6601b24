package motion

import (
	"signalbox-go/services/servo/internal/config"
	"signalbox-go/x/mathx"
	"signalbox-go/x/timex"
)

// Point moves one arc unit every Pause milliseconds.
type Point struct {
	a    *Axis
	p    config.PointRealism
	next uint32
}

func (m *Point) On(now uint32)   { m.request(true, now) }
func (m *Point) Off(now uint32)  { m.request(false, now) }
func (m *Point) Flip(now uint32) { flip(m, m.a, now) }

func (m *Point) Tick(now uint32) {
	if !m.a.State.Stable() {
		m.advance(now)
	}
}

func (m *Point) Mode() config.Mode { return config.ModePoint }

func (m *Point) Step() uint8 {
	if m.a.State.Stable() {
		return 0
	}
	return 1
}

func (m *Point) Configure(r config.Realism) {
	if p, ok := r.(config.PointRealism); ok {
		m.p = p
	}
}

func (m *Point) request(on bool, now uint32) {
	switch {
	case on && m.a.State == On, !on && m.a.State == Off:
		return
	case on && m.a.State == MovingOn, !on && m.a.State == MovingOff:
		m.advance(now)
	default:
		m.a.Depart(on)
		m.next = timex.Add(now, uint32(m.p.Pause))
	}
}

func (m *Point) advance(now uint32) {
	if !timex.Reached(now, m.next) {
		return
	}
	on := m.a.State == MovingOn
	target := m.a.Extreme(on)
	if m.a.Pos != target {
		m.a.Move(mathx.Toward(m.a.Pos, target))
	}
	if m.a.Pos == target {
		m.a.Arrive(on)
		return
	}
	m.next = timex.Add(now, uint32(m.p.Pause))
}

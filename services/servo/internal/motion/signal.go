package motion

import (
	"signalbox-go/services/servo/internal/config"
	"signalbox-go/x/mathx"
	"signalbox-go/x/timex"
)

// Signal step ids. 1-3 raise the arm on the wire (SIGNAL_ON), 4-6 let it
// fall under gravity (SIGNAL_OFF).
const (
	StepIdle    uint8 = 0
	StepSlack   uint8 = 1 // take up cable slack
	StepSweep   uint8 = 2 // pull toward target, slowing inside the stretch zone
	StepBounce  uint8 = 3 // decaying bounce between target and bounce limit
	StepDrop    uint8 = 4 // fall, one arc unit per table delay
	StepRebound uint8 = 5 // climb back after impact, decelerating
	StepSettle  uint8 = 6 // come to rest on the target
)

const (
	// Slowest raising step in ms, at speed 1.
	maxRaiseDelay = 40
	// Friction 100 multiplies drop delays by this much.
	frictionSpan = 3
	// A rebound at or below this table index settles at once.
	minRebound = 1
)

// entry fixes direction and first step for a request from idle.
type entry struct {
	on    bool
	dir   int8
	first uint8
}

const (
	normalUp = iota
	normalDown
	invertedUp
	invertedDown
)

var entries = [4]entry{
	normalUp:     {on: true, dir: +1, first: StepSlack},
	normalDown:   {on: false, dir: -1, first: StepDrop},
	invertedUp:   {on: true, dir: -1, first: StepSlack},
	invertedDown: {on: false, dir: +1, first: StepDrop},
}

func entryFor(on, inverted bool) entry {
	switch {
	case on && !inverted:
		return entries[normalUp]
	case on:
		return entries[invertedUp]
	case !inverted:
		return entries[normalDown]
	default:
		return entries[invertedDown]
	}
}

// Signal simulates a mechanical signal arm: raised on a stretchy wire with
// slack, dropped under gravity with decaying rebounds.
type Signal struct {
	a   *Axis
	p   config.SignalRealism
	tab Table

	step    uint8
	on      bool   // committed target
	dir     int8   // arc direction toward target
	target  uint16 // arc position of the target
	limit   uint16 // far point of the current bounce
	amp     uint16 // current bounce amplitude (raise)
	away    bool   // raise bounce heading away from target
	idx     int    // table index, i.e. current speed (drop/rebound)
	bounces uint8  // rebounds since this drop began
	next    uint32
}

func (m *Signal) On(now uint32)   { m.request(true, now) }
func (m *Signal) Off(now uint32)  { m.request(false, now) }
func (m *Signal) Flip(now uint32) { flip(m, m.a, now) }

func (m *Signal) Tick(now uint32) {
	if m.step != StepIdle {
		m.run(now)
	}
}

func (m *Signal) Mode() config.Mode { return config.ModeSignal }
func (m *Signal) Step() uint8       { return m.step }

// Configure swaps parameters and acceleration table together and pulls
// the live table index back into range.
func (m *Signal) Configure(r config.Realism) {
	p, ok := r.(config.SignalRealism)
	if !ok {
		return
	}
	m.p = p
	m.tab = TableFor(p.Curve)
	m.idx = mathx.Min(m.idx, m.tab.Len()-1)
}

func (m *Signal) request(on bool, now uint32) {
	if m.step == StepIdle {
		if on && m.a.State == On || !on && m.a.State == Off {
			return
		}
	} else if m.on == on {
		m.run(now)
		return
	}
	m.enter(on, now)
}

func (m *Signal) enter(on bool, now uint32) {
	e := entryFor(on, m.a.Inverted)
	m.on, m.dir, m.step = e.on, e.dir, e.first
	m.target = m.a.Extreme(on)
	m.idx, m.bounces = 0, 0
	m.a.Depart(on)
	if m.step == StepDrop {
		m.next = timex.Add(now, m.dropDelay(0))
		return
	}
	m.next = now
	m.run(now)
}

func (m *Signal) run(now uint32) {
	if !timex.Reached(now, m.next) {
		return
	}
	switch m.step {
	case StepSlack:
		m.a.Move(m.toward(m.a.Pos, uint16(m.p.Slack)))
		m.step = StepSweep
		m.next = timex.Add(now, m.raiseDelay())
		if m.a.Pos == m.target {
			m.startBounce(now)
		}

	case StepSweep:
		m.a.Move(m.toward(m.a.Pos, 1))
		if m.a.Pos == m.target {
			m.startBounce(now)
			return
		}
		m.next = timex.Add(now, m.sweepDelay())

	case StepBounce:
		if m.away {
			m.a.Move(mathx.Toward(m.a.Pos, m.limit))
			if m.a.Pos == m.limit {
				m.away = false
			}
		} else {
			m.a.Move(mathx.Toward(m.a.Pos, m.target))
			if m.a.Pos == m.target {
				m.amp /= 2
				if m.amp == 0 {
					m.finish()
					return
				}
				m.limit = m.back(m.target, m.amp)
				m.away = m.limit != m.target
			}
		}
		m.next = timex.Add(now, m.raiseDelay())

	case StepDrop:
		m.a.Move(m.toward(m.a.Pos, 1))
		if m.a.Pos == m.target {
			m.impact(now)
			return
		}
		m.idx = mathx.Min(m.idx+1, m.tab.Len()-1)
		m.next = timex.Add(now, m.dropDelay(m.idx))

	case StepRebound:
		m.a.Move(m.back(m.a.Pos, 1))
		if m.a.Pos == m.limit {
			// Apex: fall again from rest.
			m.idx = 0
			m.step = StepDrop
		} else if m.idx > 0 {
			m.idx--
		}
		m.next = timex.Add(now, m.dropDelay(m.idx))

	case StepSettle:
		m.a.Move(m.target)
		m.finish()
	}
}

// impact handles the arm hitting its stop at table speed m.idx.
func (m *Signal) impact(now uint32) {
	speed := m.idx + 1
	rebound := int(mathx.MulDiv(uint32(speed), uint32(100-m.p.Decay), 100))
	// The arm cannot climb further than the sweep allows.
	rebound = mathx.Min(rebound, int(m.a.Sweep))
	limited := m.p.BounceLimit != 0 && m.bounces >= m.p.BounceLimit
	if rebound <= minRebound || limited {
		m.step = StepSettle
		m.next = timex.Add(now, m.dropDelay(m.idx))
		return
	}
	if m.bounces < 255 {
		m.bounces++
	}
	m.idx = mathx.Min(rebound, m.tab.Len()) - 1
	m.limit = m.back(m.target, uint16(rebound))
	m.step = StepRebound
	m.next = timex.Add(now, m.dropDelay(m.idx))
}

func (m *Signal) startBounce(now uint32) {
	m.amp = uint16(m.p.Stretch)
	m.limit = m.back(m.target, m.amp)
	if m.amp == 0 || m.limit == m.target {
		m.finish()
		return
	}
	m.away = true
	m.step = StepBounce
	m.next = timex.Add(now, m.raiseDelay())
}

func (m *Signal) finish() {
	m.step = StepIdle
	m.a.Arrive(m.on)
}

// toward moves pos n units toward the target without passing it.
func (m *Signal) toward(pos, n uint16) uint16 {
	if m.dir > 0 {
		return mathx.Min(pos+n, m.target)
	}
	if pos < m.target+n {
		return m.target
	}
	return pos - n
}

// back moves pos n units away from the target, inside [0, Sweep].
func (m *Signal) back(pos, n uint16) uint16 {
	if m.dir > 0 {
		if pos < n {
			return 0
		}
		return pos - n
	}
	return mathx.Min(pos+n, m.a.Sweep)
}

// raiseDelay is the per-step time on the wire, from the speed setting.
func (m *Signal) raiseDelay() uint32 {
	return 1 + mathx.MulDiv[uint32](maxRaiseDelay, uint32(config.SpeedLimit.Max)-uint32(m.p.Speed), uint32(config.SpeedLimit.Max))
}

// sweepDelay slows the raise by up to 2x inside the last Stretch units.
func (m *Signal) sweepDelay() uint32 {
	d := m.raiseDelay()
	st := uint32(m.p.Stretch)
	rem := uint32(m.target) - uint32(m.a.Pos)
	if m.dir < 0 {
		rem = uint32(m.a.Pos) - uint32(m.target)
	}
	if st == 0 || rem >= st {
		return d
	}
	return d + mathx.MulDiv(d, st-rem, st)
}

// dropDelay is the table delay at i, in ms, scaled up by friction.
func (m *Signal) dropDelay(i int) uint32 {
	i = mathx.Clamp(i, 0, m.tab.Len()-1)
	raw := uint32(m.tab.Delay[i])
	mul := 100 + frictionSpan*uint32(m.p.Friction)
	return mathx.Max(mathx.MulDiv(raw, mul, 100*uint32(m.tab.Scale)), 1)
}

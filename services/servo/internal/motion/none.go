package motion

import "signalbox-go/services/servo/internal/config"

// None jumps straight to the requested extreme.
type None struct {
	a *Axis
}

func (m *None) On(now uint32)  { m.set(true) }
func (m *None) Off(now uint32) { m.set(false) }

func (m *None) Flip(now uint32) { flip(m, m.a, now) }

func (m *None) Tick(uint32) {}

func (m *None) Mode() config.Mode          { return config.ModeNone }
func (m *None) Step() uint8                { return 0 }
func (m *None) Configure(r config.Realism) {}

func (m *None) set(on bool) {
	want := Off
	if on {
		want = On
	}
	if m.a.State == want {
		return
	}
	m.a.Move(m.a.Extreme(on))
	m.a.Arrive(on)
}

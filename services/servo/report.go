package servo

import (
	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/angle"
	"signalbox-go/services/servo/internal/config"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/types"
)

func pinNumber(p core.Pin) int {
	if n, ok := p.Number(); ok {
		return n
	}
	return types.PinNone
}

func (c *Controller) report(id core.ServoID) types.ServoReport {
	s := &c.cfg[id]
	r := types.ServoReport{
		ID:          int(id),
		Degrees:     int(angle.ArcToDeg(s.Sweep)),
		Inverted:    s.Inverted,
		Drive:       pinNumber(s.Drive),
		Input:       pinNumber(s.Input),
		Switch:      s.Switch.String(),
		Feedback:    s.Feedback,
		FeedbackOn:  pinNumber(s.FeedbackOn),
		FeedbackOff: pinNumber(s.FeedbackOff),
		Mode:        s.Realism.Mode().String(),
	}
	switch p := s.Realism.(type) {
	case config.PointRealism:
		r.Point = &types.PointParams{PauseMs: int(p.Pause)}
	case config.SignalRealism:
		r.Signal = &types.SignalParams{
			Decay:       int(p.Decay),
			Friction:    int(p.Friction),
			Slack:       int(p.Slack),
			Stretch:     int(p.Stretch),
			Speed:       int(p.Speed),
			Curve:       p.Curve.String(),
			BounceLimit: int(p.BounceLimit),
		}
	}
	if rt := &c.rt[id]; rt.live {
		r.State = rt.axis.State.String()
		r.Arc = rt.axis.Pos
	}
	return r
}

// Servo reports one defined servo.
func (c *Controller) Servo(n int) (types.ServoReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return types.ServoReport{}, err
	}
	return c.report(id), nil
}

// Servos reports every defined servo in slot order.
func (c *Controller) Servos() []types.ServoReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []types.ServoReport
	for i := range c.cfg {
		if c.cfg[i].Active {
			out = append(out, c.report(core.ServoID(i)))
		}
	}
	return out
}

func (c *Controller) pinReport(n int) types.PinReport {
	p := core.PinOf(uint8(n))
	r := types.PinReport{Pin: n, Caps: c.reg.Board().Caps[n].String(), Servo: -1, Role: core.RoleNone.String()}
	if o, _ := c.reg.Owner(p); !o.Free() {
		r.Servo = int(o.Servo)
		r.Role = o.Role.String()
	}
	return r
}

// Pin reports one board pin.
func (c *Controller) Pin(n int) (types.PinReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 0 || n >= c.reg.Board().Pins() {
		return types.PinReport{}, errcode.OutOfRange
	}
	return c.pinReport(n), nil
}

// Pins reports every board pin.
func (c *Controller) Pins() []types.PinReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]types.PinReport, 0, c.reg.Board().Pins())
	for n := 0; n < c.reg.Board().Pins(); n++ {
		out = append(out, c.pinReport(n))
	}
	return out
}

// Board returns the board the controller validates pins against.
func (c *Controller) Board() Board { return c.reg.Board() }

package servo

import (
	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/angle"
	"signalbox-go/services/servo/internal/config"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/services/servo/internal/motion"
)

// Every mutation validates completely before touching anything and
// returns nil or a single errcode.Code.

// Re-exported selectors for mutation arguments.
type (
	Switch = config.Switch
	Mode   = config.Mode
	Curve  = config.Curve
)

const (
	Toggle    = config.Toggle
	Momentary = config.Momentary

	ModeNone   = config.ModeNone
	ModePoint  = config.ModePoint
	ModeSignal = config.ModeSignal

	CurveVertical = config.CurveVertical
	CurveUpper    = config.CurveUpper
	CurveLower    = config.CurveLower
	CurveFull     = config.CurveFull
)

// defined resolves n to an active slot.
func (c *Controller) defined(n int) (core.ServoID, error) {
	id, err := core.ServoIDOf(n)
	if err != nil {
		return 0, err
	}
	if !c.cfg[id].Active {
		return 0, errcode.NotDefined
	}
	return id, nil
}

func degrees(deg int) (uint16, error) {
	if deg < 0 || deg > angle.MaxDegrees {
		return 0, errcode.InvalidParams
	}
	return angle.DegToArc(uint16(deg)), nil
}

// rebind replaces the slot's strategy; the axis settles and the new
// cursor starts idle.
func (c *Controller) rebind(id core.ServoID) {
	c.rt[id].beh = motion.Bind(c.rt[id].axis, c.cfg[id].Realism)
}

// Define creates servo n sweeping deg degrees, driven on drive and
// switched from input.
func (c *Controller) Define(n, deg int, drive, input Pin) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := core.ServoIDOf(n)
	if err != nil {
		return err
	}
	if c.cfg[id].Active {
		return errcode.AlreadyDefined
	}
	sweep, err := degrees(deg)
	if err != nil {
		return err
	}
	s := config.Empty()
	s.Active = true
	s.Sweep = sweep
	s.Drive, s.Input = drive, input
	if err := c.attach(id, &s); err != nil {
		return errcode.Of(err)
	}
	c.cfg[id] = s
	c.rebind(id)
	return nil
}

// Delete removes servo n and frees its pins. confirm must repeat n.
func (c *Controller) Delete(n, confirm int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	if confirm != n {
		return errcode.ConfirmMismatch
	}
	c.teardown(id)
	c.cfg[id] = config.Empty()
	return nil
}

// SetAngle changes the sweep of servo n to deg degrees.
func (c *Controller) SetAngle(n, deg int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	sweep, err := degrees(deg)
	if err != nil {
		return err
	}
	c.cfg[id].Sweep = sweep
	c.rt[id].axis.Resweep(sweep)
	c.rebind(id)
	return nil
}

// SetInverted swaps the ON and OFF extremes. Setting the current value is a
// no-op and leaves motion in flight.
func (c *Controller) SetInverted(n int, inverted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	if c.cfg[id].Inverted == inverted {
		return nil
	}
	c.cfg[id].Inverted = inverted
	c.rt[id].axis.Reinvert(inverted)
	c.rebind(id)
	return nil
}

// SetSwitch selects the switch discipline. A pending momentary press is
// dropped.
func (c *Controller) SetSwitch(n int, d Switch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	if d != config.Toggle && d != config.Momentary {
		return errcode.InvalidParams
	}
	c.cfg[id].Switch = d
	c.rt[id].sw.ClearLatch()
	return nil
}

// EnableFeedback claims on and off as the slot's feedback outputs.
func (c *Controller) EnableFeedback(n int, on, off Pin) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	if c.cfg[id].Feedback {
		return errcode.FeedbackEnabled
	}
	err = c.reg.ClaimAll(id,
		core.Claim{Pin: on, Role: core.RoleFeedbackOn},
		core.Claim{Pin: off, Role: core.RoleFeedbackOff},
	)
	if err != nil {
		return err
	}

	undo := func() {
		for _, p := range [...]core.Pin{on, off} {
			pn, _ := p.Number()
			c.f.Detach(pn)
			c.reg.Release(id, p)
		}
	}
	onN, _ := on.Number()
	offN, _ := off.Number()
	lineOn, err := c.f.ConfigureOutput(onN, false)
	if err != nil {
		undo()
		return errcode.Of(err)
	}
	lineOff, err := c.f.ConfigureOutput(offN, false)
	if err != nil {
		undo()
		return errcode.Of(err)
	}

	s := &c.cfg[id]
	s.Feedback, s.FeedbackOn, s.FeedbackOff = true, on, off
	c.rt[id].axis.SetFeedback(lineOn, lineOff)
	return nil
}

// DisableFeedback releases the feedback outputs.
func (c *Controller) DisableFeedback(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	s := &c.cfg[id]
	if !s.Feedback {
		return errcode.FeedbackDisabled
	}
	c.rt[id].axis.SetFeedback(nil, nil)
	for _, p := range [...]core.Pin{s.FeedbackOn, s.FeedbackOff} {
		pn, _ := p.Number()
		c.f.Detach(pn)
		c.reg.Release(id, p)
	}
	s.Feedback, s.FeedbackOn, s.FeedbackOff = false, core.NoPin, core.NoPin
	return nil
}

// SetRealism selects mode m with default parameters. Selecting the current
// mode keeps its parameters.
func (c *Controller) SetRealism(n int, m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	r, ok := config.DefaultFor(m)
	if !ok {
		return errcode.InvalidParams
	}
	if c.cfg[id].Realism.Mode() == m {
		return nil
	}
	c.cfg[id].Realism = r
	c.rebind(id)
	return nil
}

// DisableRealism is SetRealism(n, ModeNone).
func (c *Controller) DisableRealism(n int) error {
	return c.SetRealism(n, config.ModeNone)
}

// SetPause sets the point-mode step interval in ms.
func (c *Controller) SetPause(n, ms int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	p, ok := c.cfg[id].Realism.(config.PointRealism)
	if !ok {
		return errcode.ModeMismatch
	}
	if !inLimit(ms, config.PauseLimit) {
		return errcode.InvalidParams
	}
	p.Pause = uint16(ms)
	c.cfg[id].Realism = p
	c.rt[id].beh.Configure(p)
	return nil
}

func inLimit(v int, l config.Limit) bool {
	return v >= int(l.Min) && v <= int(l.Max)
}

// setSignal applies one signal parameter after the mode and range checks.
func (c *Controller) setSignal(n, v int, l config.Limit, set func(*config.SignalRealism, int)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.defined(n)
	if err != nil {
		return err
	}
	p, ok := c.cfg[id].Realism.(config.SignalRealism)
	if !ok {
		return errcode.ModeMismatch
	}
	if !inLimit(v, l) {
		return errcode.InvalidParams
	}
	set(&p, v)
	c.cfg[id].Realism = p
	c.rt[id].beh.Configure(p)
	return nil
}

func (c *Controller) SetDecay(n, pct int) error {
	return c.setSignal(n, pct, config.DecayLimit, func(p *config.SignalRealism, v int) { p.Decay = uint8(v) })
}

func (c *Controller) SetFriction(n, pct int) error {
	return c.setSignal(n, pct, config.FrictionLimit, func(p *config.SignalRealism, v int) { p.Friction = uint8(v) })
}

func (c *Controller) SetSlack(n, arc int) error {
	return c.setSignal(n, arc, config.SlackLimit, func(p *config.SignalRealism, v int) { p.Slack = uint8(v) })
}

func (c *Controller) SetStretch(n, arc int) error {
	return c.setSignal(n, arc, config.StretchLimit, func(p *config.SignalRealism, v int) { p.Stretch = uint8(v) })
}

func (c *Controller) SetSpeed(n, speed int) error {
	return c.setSignal(n, speed, config.SpeedLimit, func(p *config.SignalRealism, v int) { p.Speed = uint8(v) })
}

// SetBounceLimit caps rebounds per drop; 0 leaves them unbounded.
func (c *Controller) SetBounceLimit(n, limit int) error {
	return c.setSignal(n, limit, config.BouncesLimit, func(p *config.SignalRealism, v int) { p.BounceLimit = uint8(v) })
}

// SetCurve swaps the acceleration table, including mid-motion.
func (c *Controller) SetCurve(n int, curve Curve) error {
	if !curve.Valid() {
		// Mode is still checked first so a wrong-mode call reports that.
		return c.setSignal(n, -1, config.Limit{}, nil)
	}
	return c.setSignal(n, int(curve), config.Limit{Max: uint16(config.NumCurves) - 1}, func(p *config.SignalRealism, v int) { p.Curve = config.Curve(v) })
}

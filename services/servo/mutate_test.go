package servo

import (
	"testing"

	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/angle"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/services/servo/internal/debounce"
	"signalbox-go/services/servo/internal/platform"
)

func expect(t *testing.T, err error, want errcode.Code) {
	t.Helper()
	if errcode.Of(err) != want {
		t.Fatalf("got %v, want %s", err, want)
	}
}

func TestDefine_Errors(t *testing.T) {
	r := newRig()
	expect(t, r.c.Define(core.MaxServos, 90, PinOf(2), PinOf(3)), errcode.OutOfRange)
	expect(t, r.c.Define(-1, 90, PinOf(2), PinOf(3)), errcode.OutOfRange)
	expect(t, r.c.Define(0, 181, PinOf(2), PinOf(3)), errcode.InvalidParams)
	expect(t, r.c.Define(0, 90, PinOf(2), PinOf(2)), errcode.DuplicatePin)
	expect(t, r.c.Define(0, 90, PinOf(25), PinOf(3)), errcode.PinCapability)
	expect(t, r.c.Define(0, 90, PinOf(2), PinOf(30)), errcode.OutOfRange)
	expect(t, r.c.Define(0, 90, PinOf(2), NoPin), errcode.OutOfRange)

	// None of the failures may leave a claim behind.
	for _, p := range r.c.Pins() {
		if p.Servo != -1 {
			t.Fatalf("pin %d owned after failed defines", p.Pin)
		}
	}

	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	expect(t, r.c.Define(0, 90, PinOf(4), PinOf(5)), errcode.AlreadyDefined)
	expect(t, r.c.Define(1, 90, PinOf(4), PinOf(3)), errcode.PinInUse)
	if p, _ := r.c.Pin(4); p.Servo != -1 {
		t.Fatal("pin 4 claimed by a rejected define")
	}
}

func TestDelete(t *testing.T) {
	r := newRig()
	expect(t, r.c.Delete(0, 0), errcode.NotDefined)
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	must(t, r.c.EnableFeedback(0, PinOf(4), PinOf(5)))

	expect(t, r.c.Delete(0, 1), errcode.ConfirmMismatch)
	if _, err := r.c.Servo(0); err != nil {
		t.Fatal("mismatched confirm deleted the servo")
	}

	must(t, r.c.Delete(0, 0))
	for _, n := range []int{2, 3, 4, 5} {
		if p, _ := r.c.Pin(n); p.Servo != -1 {
			t.Fatalf("pin %d still owned", n)
		}
		if r.host.Mode(n) != platform.Unused {
			t.Fatalf("pin %d still configured", n)
		}
	}
	// Same pins, same slot, straight away.
	must(t, r.c.Define(0, 45, PinOf(2), PinOf(3)))
	must(t, r.c.EnableFeedback(0, PinOf(4), PinOf(5)))
}

func TestDelete_MidMotion(t *testing.T) {
	r := newRig()
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	must(t, r.c.SetRealism(0, ModeSignal))
	r.host.Press(3)
	r.passes(debounce.Window + 2)
	if s, _ := r.c.Servo(0); s.State != "moving-on" {
		t.Fatalf("state = %s", s.State)
	}
	must(t, r.c.Delete(0, 0))
	r.passes(4)
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	if s, _ := r.c.Servo(0); s.State != "off" || s.Mode != "none" {
		t.Fatalf("redefined servo inherited old runtime: %+v", s)
	}
}

func TestSetAngle(t *testing.T) {
	r := newRig()
	expect(t, r.c.SetAngle(0, 10), errcode.NotDefined)
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	expect(t, r.c.SetAngle(0, 200), errcode.InvalidParams)

	r.host.Press(3)
	r.passes(debounce.Window)
	must(t, r.c.SetAngle(0, 120))
	if us, _ := r.host.Pulse(2); us != angle.ArcToPulse(angle.DegToArc(120)) {
		t.Fatalf("servo at ON not moved to new sweep: %d", us)
	}
	if s, _ := r.c.Servo(0); s.Degrees != 120 || s.State != "on" {
		t.Fatalf("report: %+v", s)
	}
}

func TestSetInverted(t *testing.T) {
	r := newRig()
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	must(t, r.c.SetInverted(0, true))
	if us, _ := r.host.Pulse(2); us != angle.ArcToPulse(angle.DegToArc(90)) {
		t.Fatalf("inverted OFF should sit at the sweep: %d", us)
	}
	r.host.Press(3)
	r.passes(debounce.Window)
	if us, _ := r.host.Pulse(2); us != angle.ArcToPulse(0) {
		t.Fatalf("inverted ON should sit at 0: %d", us)
	}
}

func TestSetInverted_SameValueKeepsMotion(t *testing.T) {
	r := newRig()
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	must(t, r.c.SetRealism(0, ModePoint))
	must(t, r.c.SetPause(0, 100))
	r.host.Press(3)
	r.passes(debounce.Window + 3)
	before, _ := r.c.Servo(0)
	if before.State != "moving-on" {
		t.Fatalf("state = %s", before.State)
	}

	must(t, r.c.SetInverted(0, false))
	after, _ := r.c.Servo(0)
	if after.State != "moving-on" || after.Arc != before.Arc {
		t.Fatalf("motion disturbed: before %+v after %+v", before, after)
	}
}

func TestSetSwitch(t *testing.T) {
	r := newRig()
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	expect(t, r.c.SetSwitch(0, Switch(5)), errcode.InvalidParams)
	must(t, r.c.SetSwitch(0, Momentary))

	// A press pending when the discipline changes is dropped.
	r.host.Press(3)
	r.passes(debounce.Window)
	must(t, r.c.SetSwitch(0, Momentary))
	r.host.Release(3)
	r.passes(debounce.Window)
	if s, _ := r.c.Servo(0); s.State != "off" || s.Switch != "momentary" {
		t.Fatalf("report: %+v", s)
	}
}

func TestFeedback(t *testing.T) {
	r := newRig()
	expect(t, r.c.EnableFeedback(0, PinOf(4), PinOf(5)), errcode.NotDefined)
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	expect(t, r.c.DisableFeedback(0), errcode.FeedbackDisabled)
	expect(t, r.c.EnableFeedback(0, PinOf(4), PinOf(4)), errcode.DuplicatePin)
	expect(t, r.c.EnableFeedback(0, PinOf(2), PinOf(5)), errcode.PinInUse)
	expect(t, r.c.EnableFeedback(0, PinOf(4), PinOf(23)), errcode.PinCapability)

	r.host.Fault(5, true)
	expect(t, r.c.EnableFeedback(0, PinOf(4), PinOf(5)), errcode.Error)
	if p, _ := r.c.Pin(4); p.Servo != -1 {
		t.Fatal("pin 4 kept after hardware failure")
	}
	r.host.Fault(5, false)

	// GP25 is digital only, fine for feedback.
	must(t, r.c.EnableFeedback(0, PinOf(25), PinOf(5)))
	expect(t, r.c.EnableFeedback(0, PinOf(6), PinOf(7)), errcode.FeedbackEnabled)
	if r.host.Level(25) || !r.host.Level(5) {
		t.Fatal("feedback should show OFF")
	}

	r.host.Press(3)
	r.passes(debounce.Window)
	if !r.host.Level(25) || r.host.Level(5) {
		t.Fatal("feedback should show ON")
	}

	must(t, r.c.DisableFeedback(0))
	if p, _ := r.c.Pin(25); p.Servo != -1 || r.host.Mode(25) != platform.Unused {
		t.Fatal("feedback pin not released")
	}
	if s, _ := r.c.Servo(0); s.Feedback || s.FeedbackOn != -1 {
		t.Fatalf("report: %+v", s)
	}
}

func TestRealism_ModeAndParams(t *testing.T) {
	r := newRig()
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))

	expect(t, r.c.SetPause(0, 50), errcode.ModeMismatch)
	expect(t, r.c.SetRealism(0, Mode(7)), errcode.InvalidParams)

	must(t, r.c.SetRealism(0, ModePoint))
	expect(t, r.c.SetPause(0, 0), errcode.InvalidParams)
	expect(t, r.c.SetPause(0, 1001), errcode.InvalidParams)
	expect(t, r.c.SetDecay(0, 10), errcode.ModeMismatch)
	must(t, r.c.SetPause(0, 50))
	must(t, r.c.SetRealism(0, ModePoint)) // reselecting keeps params
	if s, _ := r.c.Servo(0); s.Point == nil || s.Point.PauseMs != 50 {
		t.Fatalf("point report: %+v", s.Point)
	}

	must(t, r.c.SetRealism(0, ModeSignal))
	expect(t, r.c.SetPause(0, 50), errcode.ModeMismatch)
	expect(t, r.c.SetDecay(0, 101), errcode.InvalidParams)
	expect(t, r.c.SetFriction(0, -1), errcode.InvalidParams)
	expect(t, r.c.SetSlack(0, 41), errcode.InvalidParams)
	expect(t, r.c.SetStretch(0, 41), errcode.InvalidParams)
	expect(t, r.c.SetSpeed(0, 0), errcode.InvalidParams)
	expect(t, r.c.SetBounceLimit(0, 256), errcode.InvalidParams)
	expect(t, r.c.SetCurve(0, Curve(9)), errcode.InvalidParams)
	must(t, r.c.SetDecay(0, 0))
	must(t, r.c.SetFriction(0, 100))
	must(t, r.c.SetSlack(0, 0))
	must(t, r.c.SetStretch(0, 40))
	must(t, r.c.SetSpeed(0, 100))
	must(t, r.c.SetBounceLimit(0, 3))
	must(t, r.c.SetCurve(0, CurveVertical))

	s, _ := r.c.Servo(0)
	if s.Mode != "signal" || s.Signal == nil {
		t.Fatalf("report: %+v", s)
	}
	want := *s.Signal
	want.Decay, want.Friction, want.Slack, want.Stretch, want.Speed, want.BounceLimit, want.Curve = 0, 100, 0, 40, 100, 3, "vertical"
	if *s.Signal != want {
		t.Fatalf("signal = %+v", *s.Signal)
	}

	must(t, r.c.DisableRealism(0))
	expect(t, r.c.SetCurve(0, CurveFull), errcode.ModeMismatch)
	if s, _ := r.c.Servo(0); s.Mode != "none" || s.Signal != nil {
		t.Fatalf("report: %+v", s)
	}
}

func TestRealism_SwitchMidMotionSettles(t *testing.T) {
	r := newRig()
	must(t, r.c.Define(0, 90, PinOf(2), PinOf(3)))
	must(t, r.c.SetRealism(0, ModePoint))
	must(t, r.c.SetPause(0, 100))
	r.host.Press(3)
	r.passes(debounce.Window + 3)
	if s, _ := r.c.Servo(0); s.State != "moving-on" {
		t.Fatalf("state = %s", s.State)
	}

	must(t, r.c.DisableRealism(0))
	if s, _ := r.c.Servo(0); s.State != "on" || s.Arc != angle.DegToArc(90) {
		t.Fatalf("not settled: %+v", s)
	}
	st, _ := r.c.Step(r.now + 1)
	if st.Step != 0 {
		t.Fatalf("cursor = %d after rebind", st.Step)
	}
}

func TestSetCurve_MidDrop(t *testing.T) {
	r := newRig()
	must(t, r.c.Define(0, 180, PinOf(2), PinOf(3)))
	must(t, r.c.SetRealism(0, ModeSignal))
	must(t, r.c.SetCurve(0, CurveFull))
	must(t, r.c.SetFriction(0, 0))

	r.host.Press(3)
	for i := 0; i < 4000; i++ {
		r.pass()
	}
	if s, _ := r.c.Servo(0); s.State != "on" {
		t.Fatalf("raise did not finish: %s", s.State)
	}
	r.host.Release(3)
	r.passes(debounce.Window + 200)
	must(t, r.c.SetCurve(0, CurveUpper))
	for i := 0; i < 20000; i++ {
		r.pass()
	}
	if s, _ := r.c.Servo(0); s.State != "off" || s.Arc != 0 {
		t.Fatalf("drop did not finish: %+v", s)
	}
}

func TestQueries(t *testing.T) {
	r := newRig()
	expect(t, func() error { _, err := r.c.Servo(0); return err }(), errcode.NotDefined)
	expect(t, func() error { _, err := r.c.Servo(9); return err }(), errcode.OutOfRange)
	expect(t, func() error { _, err := r.c.Pin(30); return err }(), errcode.OutOfRange)
	expect(t, func() error { _, err := r.c.Pin(-1); return err }(), errcode.OutOfRange)

	must(t, r.c.Define(3, 90, PinOf(2), PinOf(3)))
	p, err := r.c.Pin(3)
	if err != nil || p.Servo != 3 || p.Role != "input" || p.Caps != "digital+pwm" {
		t.Fatalf("pin report: %+v %v", p, err)
	}
	if p, _ := r.c.Pin(25); p.Caps != "digital" {
		t.Fatalf("pin 25: %+v", p)
	}
	if n := len(r.c.Pins()); n != 30 {
		t.Fatalf("pins = %d", n)
	}
	all := r.c.Servos()
	if len(all) != 1 || all[0].ID != 3 || all[0].Drive != 2 || all[0].Input != 3 || all[0].FeedbackOn != -1 {
		t.Fatalf("servos: %+v", all)
	}
}

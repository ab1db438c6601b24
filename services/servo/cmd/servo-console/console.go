package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"signalbox-go/errcode"
	"signalbox-go/services/servo"
	"signalbox-go/services/servo/internal/platform"
	"signalbox-go/types"
)

var (
	errQuit  = errors.New("quit")
	errUsage = errors.New("usage")
)

// Console maps text commands onto the controller's mutation API.
type Console struct {
	ctl  *servo.Controller
	host *platform.Host // nil on real hardware
	out  io.Writer
	log  *zap.SugaredLogger
}

type command struct {
	args  string
	help  string
	nargs int
	run   func(c *Console, a []int, raw []string) error
}

var commands map[string]command

func init() {
	param := func(set func(*servo.Controller, int, int) error) func(*Console, []int, []string) error {
		return func(c *Console, a []int, _ []string) error { return set(c.ctl, a[0], a[1]) }
	}
	commands = map[string]command{
		"define": {"<id> <degrees> <drive> <input>", "create a servo", 4, func(c *Console, a []int, _ []string) error {
			return c.ctl.Define(a[0], a[1], pin(a[2]), pin(a[3]))
		}},
		"delete": {"<id> <id>", "delete a servo (id twice to confirm)", 2, func(c *Console, a []int, _ []string) error {
			return c.ctl.Delete(a[0], a[1])
		}},
		"angle":    {"<id> <degrees>", "set the sweep", 2, param((*servo.Controller).SetAngle)},
		"pause":    {"<id> <ms>", "point: step interval", 2, param((*servo.Controller).SetPause)},
		"decay":    {"<id> <0-100>", "signal: rebound loss", 2, param((*servo.Controller).SetDecay)},
		"friction": {"<id> <0-100>", "signal: drop drag", 2, param((*servo.Controller).SetFriction)},
		"slack":    {"<id> <arc>", "signal: cable slack", 2, param((*servo.Controller).SetSlack)},
		"stretch":  {"<id> <arc>", "signal: overshoot at the top", 2, param((*servo.Controller).SetStretch)},
		"speed":    {"<id> <1-100>", "signal: raise speed", 2, param((*servo.Controller).SetSpeed)},
		"bounces":  {"<id> <n>", "signal: rebound cap, 0 = none", 2, param((*servo.Controller).SetBounceLimit)},
		"invert": {"<id> on|off", "swap the ON and OFF extremes", 1, func(c *Console, a []int, raw []string) error {
			on, err := onOff(word(raw, 1))
			if err != nil {
				return err
			}
			return c.ctl.SetInverted(a[0], on)
		}},
		"switch": {"<id> toggle|momentary", "switch discipline", 1, func(c *Console, a []int, raw []string) error {
			switch word(raw, 1) {
			case "toggle":
				return c.ctl.SetSwitch(a[0], servo.Toggle)
			case "momentary":
				return c.ctl.SetSwitch(a[0], servo.Momentary)
			}
			return errUsage
		}},
		"feedback": {"<id> <on-pin> <off-pin> | <id> off", "feedback outputs", 1, func(c *Console, a []int, raw []string) error {
			if word(raw, 1) == "off" {
				return c.ctl.DisableFeedback(a[0])
			}
			n, err := ints(raw[1:], 2)
			if err != nil {
				return err
			}
			return c.ctl.EnableFeedback(a[0], pin(n[0]), pin(n[1]))
		}},
		"realism": {"<id> none|point|signal", "select motion", 1, func(c *Console, a []int, raw []string) error {
			m, ok := modes[word(raw, 1)]
			if !ok {
				return errUsage
			}
			return c.ctl.SetRealism(a[0], m)
		}},
		"curve": {"<id> vertical|upper|lower|full", "signal: gravity profile", 1, func(c *Console, a []int, raw []string) error {
			cv, ok := curves[word(raw, 1)]
			if !ok {
				return errUsage
			}
			return c.ctl.SetCurve(a[0], cv)
		}},
		"list": {"[id]", "show servos", 0, (*Console).list},
		"pins": {"[pin]", "show pin owners", 0, (*Console).pins},
		"save": {"", "persist the configuration", 0, func(c *Console, _ []int, _ []string) error {
			return c.ctl.Save()
		}},
		"press": {"<pin>", "sim: close a switch", 1, func(c *Console, a []int, _ []string) error {
			return c.sim(func(h *platform.Host) { h.Press(a[0]) })
		}},
		"release": {"<pin>", "sim: open a switch", 1, func(c *Console, a []int, _ []string) error {
			return c.sim(func(h *platform.Host) { h.Release(a[0]) })
		}},
	}
}

var modes = map[string]servo.Mode{"none": servo.ModeNone, "point": servo.ModePoint, "signal": servo.ModeSignal}

var curves = map[string]servo.Curve{
	"vertical": servo.CurveVertical,
	"upper":    servo.CurveUpper,
	"lower":    servo.CurveLower,
	"full":     servo.CurveFull,
}

func pin(n int) servo.Pin {
	if n < 0 || n > 0xFE {
		return servo.NoPin
	}
	return servo.PinOf(uint8(n))
}

func onOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, errUsage
}

func word(words []string, i int) string {
	if i < len(words) {
		return words[i]
	}
	return ""
}

// ints parses the first n words.
func ints(words []string, n int) ([]int, error) {
	if len(words) < n {
		return nil, errUsage
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(words[i])
		if err != nil {
			return nil, errUsage
		}
		out[i] = v
	}
	return out, nil
}

// Exec runs one console line.
func (c *Console) Exec(line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	name, args := strings.ToLower(words[0]), words[1:]
	switch name {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		c.help()
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	a, err := ints(args, cmd.nargs)
	if err == nil {
		err = cmd.run(c, a, args)
	}
	switch {
	case err == nil:
		c.log.Debugw("ok", "cmd", name, "args", args)
		return nil
	case errors.Is(err, errUsage):
		return fmt.Errorf("usage: %s %s", name, cmd.args)
	default:
		c.log.Debugw("rejected", "cmd", name, "args", args, "code", errcode.Of(err))
		return err
	}
}

func (c *Console) sim(f func(*platform.Host)) error {
	if c.host == nil {
		return errors.New("only on the simulated board")
	}
	f(c.host)
	return nil
}

func (c *Console) help() {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.AppendHeader(table.Row{"Command", "Arguments", "Description"})
	for _, name := range []string{
		"define", "delete", "angle", "invert", "switch", "feedback", "realism",
		"pause", "decay", "friction", "slack", "stretch", "speed", "curve", "bounces",
		"list", "pins", "save", "press", "release",
	} {
		cmd := commands[name]
		t.AppendRow(table.Row{name, cmd.args, cmd.help})
	}
	t.AppendRow(table.Row{"quit", "", "leave the console"})
	t.Render()
}

func (c *Console) list(_ []int, raw []string) error {
	var rows []types.ServoReport
	if len(raw) > 0 {
		n, err := ints(raw, 1)
		if err != nil {
			return err
		}
		r, err := c.ctl.Servo(n[0])
		if err != nil {
			return err
		}
		rows = append(rows, r)
	} else {
		rows = c.ctl.Servos()
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.AppendHeader(table.Row{"#", "Deg", "Inv", "Drive", "Input", "Switch", "Feedback", "Mode", "Params", "State"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.ID, r.Degrees, r.Inverted, pinText(r.Drive), pinText(r.Input), r.Switch,
			feedbackText(r), r.Mode, paramsText(r), r.State})
	}
	t.Render()
	return nil
}

func (c *Console) pins(_ []int, raw []string) error {
	var rows []types.PinReport
	if len(raw) > 0 {
		n, err := ints(raw, 1)
		if err != nil {
			return err
		}
		p, err := c.ctl.Pin(n[0])
		if err != nil {
			return err
		}
		rows = append(rows, p)
	} else {
		rows = c.ctl.Pins()
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.AppendHeader(table.Row{"Pin", "Caps", "Servo", "Role"})
	for _, p := range rows {
		owner := "-"
		if p.Servo >= 0 {
			owner = strconv.Itoa(p.Servo)
		}
		t.AppendRow(table.Row{p.Pin, p.Caps, owner, p.Role})
	}
	t.Render()
	return nil
}

func pinText(n int) string {
	if n == types.PinNone {
		return "-"
	}
	return strconv.Itoa(n)
}

func feedbackText(r types.ServoReport) string {
	if !r.Feedback {
		return "off"
	}
	return pinText(r.FeedbackOn) + "/" + pinText(r.FeedbackOff)
}

func paramsText(r types.ServoReport) string {
	switch {
	case r.Point != nil:
		return fmt.Sprintf("pause=%dms", r.Point.PauseMs)
	case r.Signal != nil:
		s := r.Signal
		return fmt.Sprintf("decay=%d friction=%d slack=%d stretch=%d speed=%d curve=%s bounces=%d",
			s.Decay, s.Friction, s.Slack, s.Stretch, s.Speed, s.Curve, s.BounceLimit)
	}
	return ""
}

// Package servo owns the servo slots: it validates and applies
// configuration, serves the mutation and query API, persists the block and
// services one slot per scheduling pass.
package servo

import (
	"strconv"
	"sync"

	"go.uber.org/multierr"

	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/angle"
	"signalbox-go/services/servo/internal/config"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/services/servo/internal/debounce"
	"signalbox-go/services/servo/internal/motion"
)

// Hardware contracts, re-exported for callers outside this tree.
type (
	Factory = core.Factory
	Store   = core.Store
	Board   = core.Board
	Pin     = core.Pin
)

var NoPin = core.NoPin

func PinOf(n uint8) Pin { return core.PinOf(n) }

// runtime is the live, never persisted side of one slot.
type runtime struct {
	live  bool
	axis  *motion.Axis
	beh   motion.Behavior
	sw    debounce.Switch
	input core.InputLine
}

// SlotError is one slot dropped or repaired while applying a block.
type SlotError struct {
	ID  int
	Err error
}

func (e *SlotError) Error() string { return "servo " + strconv.Itoa(e.ID) + ": " + e.Err.Error() }
func (e *SlotError) Unwrap() error { return e.Err }
func (e *SlotError) Code() errcode.Code { return errcode.Of(e.Err) }

// Status is a snapshot of one slot after it was serviced.
type Status struct {
	ID     int
	Active bool
	State  motion.State
	Arc    uint16
	Step   uint8
}

// Controller is the explicitly owned servo state. One mutex serialises the
// validator, every mutation and every scheduling pass, so pin claims and
// strategy swaps are never observed half done.
type Controller struct {
	mu    sync.Mutex
	f     core.Factory
	store core.Store
	reg   *core.Registry

	cfg  config.Block
	rt   [core.MaxServos]runtime
	next int // round-robin cursor

	reported [core.MaxServos]Status
	buf      [config.BlockLen]byte
}

// New returns a controller with every slot empty. store may be nil.
func New(f core.Factory, store core.Store) *Controller {
	c := &Controller{
		f:     f,
		store: store,
		reg:   core.NewRegistry(f.Board()),
		cfg:   config.DefaultBlock(),
	}
	for i := range c.reported {
		c.reported[i] = Status{ID: i}
	}
	return c
}

// ---- Validator ----

// Apply replaces the running configuration with blk. Slots with bad pins
// are reset to empty; slots with an unknown realism mode or curve keep
// running with default parameters. The returned count covers both and err
// combines one reason per counted slot.
func (c *Controller) Apply(blk config.Block) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(&blk)
}

func (c *Controller) applyLocked(blk *config.Block) (int, error) {
	for i := range c.rt {
		c.teardown(core.ServoID(i))
	}
	c.reg.Reset()

	var (
		n    int
		errs error
	)
	for i := range blk {
		id := core.ServoID(i)
		s := blk[i]
		if !s.Active {
			c.cfg[i] = config.Empty()
			continue
		}
		if err := c.attach(id, &s); err != nil {
			n++
			errs = multierr.Append(errs, &SlotError{ID: i, Err: &errcode.E{C: errcode.Of(err), Op: "apply", Err: err}})
			c.cfg[i] = config.Empty()
			continue
		}
		r, ok := config.Sanitize(s.Realism)
		if !ok {
			n++
			errs = multierr.Append(errs, &SlotError{ID: i, Err: errcode.New(errcode.InvalidParams, "apply", "unknown realism mode or curve, reset to default")})
		}
		s.Realism = r
		c.cfg[i] = s
		c.rt[i].beh = motion.Bind(c.rt[i].axis, r)
	}
	return n, errs
}

// attach validates and claims every pin s needs, then brings up the
// hardware. On failure nothing stays claimed or attached.
func (c *Controller) attach(id core.ServoID, s *config.Servo) error {
	var buf [4]core.Claim
	claims := append(buf[:0],
		core.Claim{Pin: s.Drive, Role: core.RoleDrive},
		core.Claim{Pin: s.Input, Role: core.RoleInput},
	)
	if s.Feedback {
		claims = append(claims,
			core.Claim{Pin: s.FeedbackOn, Role: core.RoleFeedbackOn},
			core.Claim{Pin: s.FeedbackOff, Role: core.RoleFeedbackOff},
		)
	} else if s.FeedbackOn.Assigned() || s.FeedbackOff.Assigned() {
		return errcode.InvalidParams
	}
	if err := c.reg.ClaimAll(id, claims...); err != nil {
		return err
	}

	s.Sweep = config.SweepLimit.Clamp(s.Sweep)
	rt, err := c.bringUp(s)
	if err != nil {
		c.release(id, s)
		return err
	}
	c.rt[id] = rt
	return nil
}

func (c *Controller) bringUp(s *config.Servo) (runtime, error) {
	pin := func(p core.Pin) int { n, _ := p.Number(); return n }

	drive, err := c.f.AttachDrive(pin(s.Drive))
	if err != nil {
		return runtime{}, err
	}
	drive.SetPulse(angle.ArcToPulse(0))

	in, err := c.f.ConfigureInput(pin(s.Input), core.PullUp)
	if err != nil {
		return runtime{}, err
	}

	rt := runtime{
		live:  true,
		axis:  motion.NewAxis(drive, s.Sweep, s.Inverted),
		sw:    debounce.NewSwitch(),
		input: in,
	}
	if s.Feedback {
		on, err := c.f.ConfigureOutput(pin(s.FeedbackOn), false)
		if err != nil {
			return runtime{}, err
		}
		off, err := c.f.ConfigureOutput(pin(s.FeedbackOff), false)
		if err != nil {
			return runtime{}, err
		}
		rt.axis.SetFeedback(on, off)
	}
	return rt, nil
}

// release detaches and frees every pin s names that id holds.
func (c *Controller) release(id core.ServoID, s *config.Servo) {
	for _, p := range [...]core.Pin{s.Drive, s.Input, s.FeedbackOn, s.FeedbackOff} {
		if o, ok := c.reg.Owner(p); ok && !o.Free() && o.Servo == id {
			n, _ := p.Number()
			c.f.Detach(n)
		}
	}
	c.reg.ReleaseServo(id)
}

// teardown stops slot id and returns its pins. Its configuration is left
// for the caller to replace.
func (c *Controller) teardown(id core.ServoID) {
	if !c.rt[id].live {
		return
	}
	c.release(id, &c.cfg[id])
	c.rt[id] = runtime{}
}

// ---- Persistence ----

// Boot loads the stored block and applies it. An unreadable block or a bad
// checksum resets every slot to empty and is reported, not fatal.
func (c *Controller) Boot() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	blk := config.DefaultBlock()
	if c.store == nil || !c.store.Read(c.buf[:]) || !config.Decode(c.buf[:], &blk) {
		blk = config.DefaultBlock()
		errs = errcode.New(errcode.StoreRead, "boot", "no valid configuration, using defaults")
	}
	n, err := c.applyLocked(&blk)
	return n, multierr.Append(errs, err)
}

// Save writes the running configuration. Failure leaves it untouched.
func (c *Controller) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return errcode.StoreWrite
	}
	config.Encode(&c.cfg, c.buf[:])
	if !c.store.Write(c.buf[:]) {
		return errcode.StoreWrite
	}
	return nil
}

// ---- Scheduling ----

// Step services the next slot in rotation: its input is sampled and
// debounced, then exactly one strategy call is made. changed reports a new
// logical state (or activity) since the slot was last reported.
func (c *Controller) Step(now uint32) (st Status, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next = (c.next + 1) % core.MaxServos

	if rt := &c.rt[id]; rt.live {
		switch rt.sw.Next(rt.input.Get(), c.cfg[id].Switch) {
		case debounce.On:
			rt.beh.On(now)
		case debounce.Off:
			rt.beh.Off(now)
		case debounce.Flip:
			rt.beh.Flip(now)
		default:
			rt.beh.Tick(now)
		}
	}

	st = c.status(id)
	last := c.reported[id]
	changed = st.Active != last.Active || st.State != last.State
	c.reported[id] = st
	return st, changed
}

func (c *Controller) status(id int) Status {
	rt := &c.rt[id]
	if !rt.live {
		return Status{ID: id}
	}
	return Status{ID: id, Active: true, State: rt.axis.State, Arc: rt.axis.Pos, Step: rt.beh.Step()}
}

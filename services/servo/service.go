package servo

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"signalbox-go/bus"
	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/services/servo/internal/platform"
	"signalbox-go/types"
	"signalbox-go/x/conv"
)

const (
	TokServo = "servo"
	TokState = "state"
	TokEvent = "event"
	TokGet   = "get"
	TokList  = "list"
)

var (
	topicState = bus.T(TokServo, TokState)
	topicGet   = bus.T(TokServo, "+", TokGet)
	topicList  = bus.T(TokServo, TokList)
)

// StateTopic is where servo n publishes its retained types.ServoState.
func StateTopic(n int) bus.Topic { return bus.T(TokServo, n, TokState) }

// Hardware re-exports the platform bundle for firmware and tools.
type Hardware = platform.Hardware

// DefaultHardware returns the hardware of the build target.
func DefaultHardware() Hardware { return platform.Default() }

// DefaultPeriod services one slot per millisecond.
const DefaultPeriod = time.Millisecond

// Service runs a Controller from a ticker and exposes it on the bus.
type Service struct {
	conn   *bus.Connection
	ctl    *Controller
	clk    clock.Clock
	epoch  time.Time
	period time.Duration
	tele   io.Writer
	line   []byte
	booted bool
	errs   int
}

var _ core.Clock = (*Service)(nil)

// NewService wires ctl to conn. clk is usually clock.New(); tests pass a mock.
func NewService(conn *bus.Connection, ctl *Controller, clk clock.Clock, period time.Duration) *Service {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Service{
		conn:   conn,
		ctl:    ctl,
		clk:    clk,
		epoch:  clk.Now(),
		period: period,
		line:   make([]byte, 0, 64),
	}
}

// SetTelemetry mirrors each published state change as a text line on w.
func (s *Service) SetTelemetry(w io.Writer) { s.tele = w }

// Millis is the wrapping millisecond counter handed to the strategies.
func (s *Service) Millis() uint32 {
	return uint32(s.clk.Since(s.epoch) / time.Millisecond)
}

// Start boots the controller from its store and publishes the result. Call
// it before issuing mutations from another goroutine: Boot replaces the
// running configuration. Run calls it when it has not been called.
func (s *Service) Start() (int, error) {
	s.publishState("booting", "loading", 0)
	n, err := s.ctl.Boot()
	s.publishBoot(n, err)
	s.booted, s.errs = true, n
	return n, err
}

// Run services slots until ctx is cancelled, booting first unless Start
// already did.
func (s *Service) Run(ctx context.Context) {
	getSub := s.conn.Subscribe(topicGet)
	listSub := s.conn.Subscribe(topicList)
	defer s.conn.Unsubscribe(getSub)
	defer s.conn.Unsubscribe(listSub)

	if !s.booted {
		s.Start()
	}

	tick := s.clk.Ticker(s.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", s.errs)
			return
		case <-tick.C:
			if st, changed := s.ctl.Step(s.Millis()); changed {
				s.publishServo(st)
			}
		case m := <-getSub.Channel():
			s.handleGet(m)
		case m := <-listSub.Channel():
			s.conn.Reply(m, s.ctl.Servos(), false)
		}
	}
}

func (s *Service) publishBoot(n int, err error) {
	status := "ok"
	for _, e := range multierr.Errors(err) {
		var se *SlotError
		if errors.As(e, &se) {
			ev := types.ServoEvent{ID: se.ID, Error: string(errcode.Of(se))}
			s.conn.Publish(s.conn.NewMessage(bus.T(TokServo, se.ID, TokEvent, "dropped"), ev, false))
			continue
		}
		println("[servo] boot:", e.Error())
		status = string(errcode.Of(e))
	}
	if n > 0 {
		println("[servo] boot: slots with errors:", n)
	}
	s.publishState("running", status, n)
}

func (s *Service) publishState(level, status string, errs int) {
	s.conn.Publish(s.conn.NewMessage(topicState, types.ServiceState{
		Level:  level,
		Status: status,
		Errors: errs,
		TS:     s.clk.Now().UnixMilli(),
	}, true))
}

func (s *Service) publishServo(st Status) {
	ss := types.ServoState{
		ID:     st.ID,
		Active: st.Active,
		State:  st.State.String(),
		Arc:    st.Arc,
		Step:   st.Step,
		TS:     s.clk.Now().UnixMilli(),
	}
	if !st.Active {
		ss.State = "inactive"
	}
	s.conn.Publish(s.conn.NewMessage(StateTopic(st.ID), ss, true))
	if s.tele != nil {
		s.line = AppendStateLine(s.line[:0], ss)
		_, _ = s.tele.Write(s.line)
	}
}

func (s *Service) handleGet(m *bus.Message) {
	id, ok := m.Topic[1].(int)
	if !ok {
		s.conn.Reply(m, types.ErrorReply{Error: string(errcode.OutOfRange)}, false)
		return
	}
	r, err := s.ctl.Servo(id)
	if err != nil {
		s.conn.Reply(m, types.ErrorReply{Error: string(errcode.Of(err))}, false)
		return
	}
	s.conn.Reply(m, r, false)
}

// AppendStateLine renders st as "servo id=N state=S arc=A step=K\n".
func AppendStateLine(dst []byte, st types.ServoState) []byte {
	dst = append(dst, "servo"...)
	dst = conv.AppendField(dst, "id", int64(st.ID))
	dst = append(dst, " state="...)
	dst = append(dst, st.State...)
	dst = conv.AppendField(dst, "arc", int64(st.Arc))
	dst = conv.AppendField(dst, "step", int64(st.Step))
	return append(dst, '\n')
}

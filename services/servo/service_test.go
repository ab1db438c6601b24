package servo

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"signalbox-go/bus"
	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/services/servo/internal/platform"
	"signalbox-go/types"
)

type svcRig struct {
	b    *bus.Bus
	conn *bus.Connection
	host *platform.Host
	clk  *clock.Mock
	svc  *Service
}

// startService boots a service on a fresh host from store and waits for it
// to report running.
func startService(t *testing.T, store core.Store) (*svcRig, context.CancelFunc) {
	t.Helper()
	r := &svcRig{
		b:    bus.NewBus(64),
		host: platform.NewHost(platform.PicoBoard()),
		clk:  clock.NewMock(),
	}
	r.conn = r.b.NewConnection("test")
	stateSub := r.conn.Subscribe(topicState)
	defer r.conn.Unsubscribe(stateSub)

	r.svc = NewService(r.b.NewConnection("servo"), New(r.host, store), r.clk, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go r.svc.Run(ctx)

	deadline := time.After(time.Second)
	for {
		select {
		case m := <-stateSub.Channel():
			if st := m.Payload.(types.ServiceState); st.Level == "running" {
				return r, cancel
			}
		case <-deadline:
			cancel()
			t.Fatal("service did not reach running")
		}
	}
}

// waitState advances the mock clock until servo id publishes want.
func (r *svcRig) waitState(t *testing.T, sub *bus.Subscription, want string) types.ServoState {
	t.Helper()
	for i := 0; i < 2000; i++ {
		select {
		case m := <-sub.Channel():
			if st := m.Payload.(types.ServoState); st.State == want {
				return st
			}
			continue
		default:
		}
		r.clk.Add(time.Millisecond)
	}
	t.Fatalf("no %q state published", want)
	return types.ServoState{}
}

func savedStore(t *testing.T) *platform.MemStore {
	t.Helper()
	store := &platform.MemStore{}
	c := New(platform.NewHost(platform.PicoBoard()), store)
	must(t, c.Define(0, 90, PinOf(2), PinOf(3)))
	must(t, c.Define(4, 30, PinOf(6), PinOf(7)))
	must(t, c.Save())
	return store
}

func TestService_PublishesStateChanges(t *testing.T) {
	r, cancel := startService(t, savedStore(t))
	defer cancel()

	sub := r.conn.Subscribe(StateTopic(0))
	defer r.conn.Unsubscribe(sub)

	st := r.waitState(t, sub, "off")
	if !st.Active || st.ID != 0 {
		t.Fatalf("first state: %+v", st)
	}
	r.host.Press(3)
	st = r.waitState(t, sub, "on")
	if st.Arc != 360 {
		t.Fatalf("arc = %d", st.Arc)
	}

	// The last state is retained for late subscribers.
	late := r.conn.Subscribe(StateTopic(0))
	defer r.conn.Unsubscribe(late)
	select {
	case m := <-late.Channel():
		if m.Payload.(types.ServoState).State != "on" {
			t.Fatalf("retained: %+v", m.Payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no retained state")
	}
}

func TestService_GetAndList(t *testing.T) {
	r, cancel := startService(t, savedStore(t))
	defer cancel()

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()

	reply, err := r.conn.RequestWait(ctx, r.conn.NewMessage(bus.T(TokServo, 4, TokGet), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	rep, ok := reply.Payload.(types.ServoReport)
	if !ok || rep.ID != 4 || rep.Degrees != 30 {
		t.Fatalf("get: %#v", reply.Payload)
	}

	reply, err = r.conn.RequestWait(ctx, r.conn.NewMessage(bus.T(TokServo, 5, TokGet), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if e, ok := reply.Payload.(types.ErrorReply); !ok || e.Error != "servo_not_defined" {
		t.Fatalf("get undefined: %#v", reply.Payload)
	}

	reply, err = r.conn.RequestWait(ctx, r.conn.NewMessage(bus.T(TokServo, TokList), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if all := reply.Payload.([]types.ServoReport); len(all) != 2 {
		t.Fatalf("list: %+v", all)
	}
}

func TestService_BootWithoutStore(t *testing.T) {
	r, cancel := startService(t, &platform.MemStore{})
	defer cancel()

	sub := r.conn.Subscribe(topicState)
	defer r.conn.Unsubscribe(sub)
	m := <-sub.Channel()
	if st := m.Payload.(types.ServiceState); st.Status != "store_read_failed" || st.Errors != 0 {
		t.Fatalf("state: %+v", st)
	}
}

func TestService_BootReportsDroppedSlots(t *testing.T) {
	store := savedStore(t)
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	events := conn.Subscribe(bus.T(TokServo, "+", TokEvent, "#"))
	defer conn.Unsubscribe(events)

	// GP6 faults, so slot 4 cannot come up.
	host := platform.NewHost(platform.PicoBoard())
	host.Fault(6, true)
	svc := NewService(b.NewConnection("servo"), New(host, store), clock.NewMock(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	select {
	case m := <-events.Channel():
		ev := m.Payload.(types.ServoEvent)
		if ev.ID != 4 || ev.Error != "error" {
			t.Fatalf("event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no drop event")
	}
}

func TestAppendStateLine(t *testing.T) {
	got := string(AppendStateLine(nil, types.ServoState{ID: 2, State: "moving-off", Arc: 117, Step: 5}))
	if got != "servo id=2 state=moving-off arc=117 step=5\n" {
		t.Fatalf("got %q", got)
	}
}

func TestService_StartBootsOnce(t *testing.T) {
	store := &platform.MemStore{}
	ctl := New(platform.NewHost(platform.PicoBoard()), store)
	svc := NewService(bus.NewBus(8).NewConnection("servo"), ctl, clock.NewMock(), 0)

	if _, err := svc.Start(); errcode.Of(err) != errcode.StoreRead {
		t.Fatalf("start: %v", err)
	}
	must(t, ctl.Define(0, 90, PinOf(2), PinOf(3)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Run(ctx)

	if _, err := ctl.Servo(0); err != nil {
		t.Fatalf("Run rebooted over a live definition: %v", err)
	}
	if store.Reads != 1 {
		t.Fatalf("store read %d times", store.Reads)
	}
}

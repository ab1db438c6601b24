// Command servo-console runs the servo service on a simulated board (or a
// Raspberry Pi through periph.io) and drives its mutation API from a line
// console.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"signalbox-go/bus"
	"signalbox-go/services/servo"
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/services/servo/internal/platform"
	"signalbox-go/types"
)

const (
	flagStore     = "store"
	flagHardware  = "hardware"
	flagPeriod    = "period"
	flagTelemetry = "telemetry"
	flagDebug     = "debug"
	flagReserved  = "reserved"
)

func main() {
	var logger *zap.SugaredLogger

	app := &cli.App{
		Name:  "servo-console",
		Usage: "configure and exercise servo slots from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagStore,
				Usage: "persist the configuration block in `FILE` (default: memory)",
			},
			&cli.StringFlag{
				Name:  flagHardware,
				Value: "sim",
				Usage: "sim (simulated Pico) or periph (Raspberry Pi GPIO)",
			},
			&cli.DurationFlag{
				Name:  flagPeriod,
				Value: servo.DefaultPeriod,
				Usage: "scheduling period per servo slot",
			},
			&cli.IntSliceFlag{
				Name:  flagReserved,
				Usage: "pins the board must not hand out",
			},
			&cli.BoolFlag{
				Name:  flagTelemetry,
				Value: true,
				Usage: "log servo state changes",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			cfg := zap.NewDevelopmentConfig()
			if !c.Bool(flagDebug) {
				cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = l.Sugar()
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return run(c, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context, logger *zap.SugaredLogger) error {
	var (
		factory core.Factory
		host    *platform.Host
	)
	switch hw := c.String(flagHardware); hw {
	case "sim":
		host = platform.NewHost(platform.PicoBoard(c.IntSlice(flagReserved)...))
		factory = host
	case "periph":
		f, err := openPeriph(c.IntSlice(flagReserved))
		if err != nil {
			return err
		}
		factory = f
	default:
		return fmt.Errorf("unknown hardware %q", hw)
	}

	var store core.Store = &platform.MemStore{}
	if path := c.String(flagStore); path != "" {
		store = platform.FileStore{Path: path}
	}

	ctl := servo.New(factory, store)
	b := bus.NewBus(32)
	svc := servo.NewService(b.NewConnection("servo"), ctl, clock.New(), c.Duration(flagPeriod))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	if c.Bool(flagTelemetry) {
		go logStates(ctx, b.NewConnection("console"), logger)
	}
	startService(ctx, svc, ctl, logger)

	con := &Console{ctl: ctl, host: host, out: c.App.Writer, log: logger}
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(c.App.Reader)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		fmt.Fprint(c.App.Writer, "> ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := con.Exec(line); err == errQuit {
				return nil
			} else if err != nil {
				fmt.Fprintln(c.App.Writer, "error:", err)
			}
		}
	}
}

// startService boots ctl before returning, so console commands never race
// the stored configuration, then services slots in the background. The
// returned channel closes when the service stops.
func startService(ctx context.Context, svc *servo.Service, ctl *servo.Controller, logger *zap.SugaredLogger) <-chan struct{} {
	n, err := svc.Start()
	if err != nil {
		logger.Warnw("boot", "error", err, "dropped", n)
	}
	logger.Infow("servo service started", "board", ctl.Board().Name, "pins", ctl.Board().Pins(), "active", len(ctl.Servos()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	return done
}

func logStates(ctx context.Context, conn *bus.Connection, logger *zap.SugaredLogger) {
	sub := conn.Subscribe(bus.T(servo.TokServo, "+", servo.TokState))
	events := conn.Subscribe(bus.T(servo.TokServo, "+", servo.TokEvent, "#"))
	defer conn.Disconnect()
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.Channel():
			st := m.Payload.(types.ServoState)
			logger.Infow("servo state", "id", st.ID, "state", st.State, "arc", st.Arc, "step", st.Step,
				"at", time.UnixMilli(st.TS).Format("15:04:05.000"))
		case m := <-events.Channel():
			ev := m.Payload.(types.ServoEvent)
			logger.Warnw("servo dropped at boot", "id", ev.ID, "error", ev.Error)
		}
	}
}

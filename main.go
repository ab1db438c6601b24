package main

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"signalbox-go/bus"
	"signalbox-go/services/servo"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[servo] boot")

	hw := servo.DefaultHardware()
	ctl := servo.New(hw.Factory, hw.Store)

	b := bus.NewBus(8)
	svc := servo.NewService(b.NewConnection("servo"), ctl, clock.New(), servo.DefaultPeriod)
	if hw.Telemetry != nil {
		svc.SetTelemetry(hw.Telemetry)
	}

	println("[servo] running on", ctl.Board().Name)
	svc.Run(context.Background())
}

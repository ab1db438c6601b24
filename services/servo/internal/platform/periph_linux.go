//go:build linux && !tinygo

package platform

import (
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/angle"
	"signalbox-go/services/servo/internal/core"
)

// Servo frame: 50 Hz.
const (
	frameHz       = 50 * physic.Hertz
	framePeriodUS = 20000
)

// Periph drives a Raspberry Pi header through periph.io.
type Periph struct {
	board core.Board
}

// NewPeriph initialises the periph.io host drivers.
func NewPeriph(b core.Board) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return &Periph{board: b}, nil
}

func (p *Periph) Board() core.Board { return p.board }

func (p *Periph) line(pin int) (gpio.PinIO, error) {
	name := "GPIO" + strconv.Itoa(pin)
	l := gpioreg.ByName(name)
	if l == nil {
		return nil, errcode.New(errcode.PinCapability, "periph", "no line "+name)
	}
	return l, nil
}

func (p *Periph) AttachDrive(pin int) (core.Drive, error) {
	l, err := p.line(pin)
	if err != nil {
		return nil, err
	}
	return periphDrive{l: l}, nil
}

func (p *Periph) ConfigureInput(pin int, pull core.Pull) (core.InputLine, error) {
	l, err := p.line(pin)
	if err != nil {
		return nil, err
	}
	gp := gpio.Float
	switch pull {
	case core.PullUp:
		gp = gpio.PullUp
	case core.PullDown:
		gp = gpio.PullDown
	}
	if err := l.In(gp, gpio.NoEdge); err != nil {
		return nil, err
	}
	return periphInput{l: l}, nil
}

func (p *Periph) ConfigureOutput(pin int, initial bool) (core.OutputLine, error) {
	l, err := p.line(pin)
	if err != nil {
		return nil, err
	}
	if err := l.Out(gpio.Level(initial)); err != nil {
		return nil, err
	}
	return periphOutput{l: l}, nil
}

func (p *Periph) Detach(pin int) {
	if l, err := p.line(pin); err == nil {
		_ = l.Halt()
	}
}

type periphDrive struct{ l gpio.PinIO }

func (d periphDrive) SetPulse(us uint16) {
	duty := angle.PulseToDuty(us, uint32(gpio.DutyMax), framePeriodUS)
	_ = d.l.PWM(gpio.Duty(duty), frameHz)
}

type periphInput struct{ l gpio.PinIO }

func (i periphInput) Get() bool { return i.l.Read() == gpio.High }

type periphOutput struct{ l gpio.PinIO }

func (o periphOutput) Set(v bool) { _ = o.l.Out(gpio.Level(v)) }

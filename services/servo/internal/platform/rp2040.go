//go:build rp2040

package platform

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/servo"

	"signalbox-go/errcode"
	"signalbox-go/services/servo/internal/core"
)

// Select controller handle for a given slice number (0..7).
func pwmGroupBySlice(slice uint8) servo.PWM {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

// Pico drives servos from the RP2040 PWM slices. Two channels of one
// slice share its 50 Hz period, which the servo driver sets identically.
type Pico struct {
	board core.Board
}

func NewPico(b core.Board) *Pico { return &Pico{board: b} }

func (p *Pico) Board() core.Board { return p.board }

func (p *Pico) AttachDrive(pin int) (core.Drive, error) {
	mp := machine.Pin(pin)
	slice, err := machine.PWMPeripheral(mp)
	if err != nil {
		return nil, errcode.PinCapability
	}
	s, err := servo.New(pwmGroupBySlice(slice), mp)
	if err != nil {
		return nil, err
	}
	return picoDrive{s: s}, nil
}

func (p *Pico) ConfigureInput(pin int, pull core.Pull) (core.InputLine, error) {
	mode := machine.PinInput
	switch pull {
	case core.PullUp:
		mode = machine.PinInputPullup
	case core.PullDown:
		mode = machine.PinInputPulldown
	}
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: mode})
	return mp, nil
}

func (p *Pico) ConfigureOutput(pin int, initial bool) (core.OutputLine, error) {
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	mp.Set(initial)
	return mp, nil
}

// Detach leaves the line a floating input.
func (p *Pico) Detach(pin int) {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInput})
}

type picoDrive struct{ s servo.Servo }

func (d picoDrive) SetPulse(us uint16) { d.s.SetMicroseconds(int16(us)) }

// ---- Flash store ----

// flashPage is one program page; the block is padded to it.
const flashPage = 256

// FlashStore keeps the block in the first erase block of the flash data
// area behind the program image.
type FlashStore struct {
	page [flashPage]byte
}

func (s *FlashStore) Read(buf []byte) bool {
	if len(buf) > flashPage {
		return false
	}
	_, err := machine.Flash.ReadAt(buf, 0)
	return err == nil
}

func (s *FlashStore) Write(buf []byte) bool {
	if len(buf) > flashPage {
		return false
	}
	for i := range s.page {
		s.page[i] = 0xFF
	}
	copy(s.page[:], buf)
	if err := machine.Flash.EraseBlocks(0, 1); err != nil {
		return false
	}
	_, err := machine.Flash.WriteAt(s.page[:], 0)
	return err == nil
}

// ---- Telemetry UART ----

// TelemetryUART configures UART0 on GP0/GP1 for line telemetry.
func TelemetryUART(baud uint32) *uartx.UART {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	return u
}

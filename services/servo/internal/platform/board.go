// Package platform provides the hardware behind core.Factory and
// core.Store: a host simulation, a Linux backend on periph.io and an
// RP2040 backend on TinyGo.
package platform

import "signalbox-go/services/servo/internal/core"

// PicoBoard describes a Raspberry Pi Pico. Every user GPIO can drive PWM;
// GP23 and GP24 are board-internal and GP25 is the LED. Pins listed in
// reserved (a console UART, say) are marked unusable.
func PicoBoard(reserved ...int) core.Board {
	caps := make([]core.Cap, 30)
	for n := range caps {
		switch {
		case n <= 22, n >= 26 && n <= 28:
			caps[n] = core.CapPWM
		case n == 25:
			caps[n] = core.CapDigital
		}
	}
	return withReserved(core.Board{Name: "pico", Caps: caps}, reserved)
}

// PiBoard describes the 40-pin header of a Raspberry Pi by BCM number.
// Only GPIO12, 13, 18 and 19 carry hardware PWM; GPIO0 and 1 belong to the
// HAT EEPROM.
func PiBoard(reserved ...int) core.Board {
	caps := make([]core.Cap, 28)
	for n := 2; n < len(caps); n++ {
		caps[n] = core.CapDigital
	}
	for _, n := range [...]int{12, 13, 18, 19} {
		caps[n] = core.CapPWM
	}
	return withReserved(core.Board{Name: "rpi", Caps: caps}, reserved)
}

func withReserved(b core.Board, reserved []int) core.Board {
	for _, n := range reserved {
		if n >= 0 && n < len(b.Caps) {
			b.Caps[n] = core.CapNone
		}
	}
	return b
}

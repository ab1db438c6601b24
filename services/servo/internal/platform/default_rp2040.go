//go:build rp2040

package platform

import "machine"

// Default returns the Pico hardware with telemetry on UART0.
func Default() Hardware {
	board := PicoBoard(int(machine.UART0_TX_PIN), int(machine.UART0_RX_PIN))
	return Hardware{
		Factory:   NewPico(board),
		Store:     &FlashStore{},
		Telemetry: TelemetryUART(115200),
	}
}

//go:build !rp2040

package platform

// Default returns a simulated Pico with its block kept in memory.
func Default() Hardware {
	return Hardware{
		Factory: NewHost(PicoBoard()),
		Store:   &MemStore{},
	}
}

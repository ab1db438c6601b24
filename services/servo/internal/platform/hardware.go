package platform

import (
	"io"

	"signalbox-go/services/servo/internal/core"
)

// Hardware is everything a controller needs from a board.
type Hardware struct {
	Factory core.Factory
	Store   core.Store
	// Telemetry, when set, receives one text line per state change.
	Telemetry io.Writer
}

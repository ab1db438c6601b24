package types

// ---- Service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // "booting", "running", "stopped"
	Status string `json:"status"` // short code
	Errors int    `json:"errors"` // slots dropped at boot
	TS     int64  `json:"ts_ms"`
}

// ---- Per-servo telemetry (retained, servo/<id>/state) ----

type ServoState struct {
	ID     int    `json:"id"`
	Active bool   `json:"active"`
	State  string `json:"state"` // "off", "moving-on", "moving-off", "on"
	Arc    uint16 `json:"arc"`
	Step   uint8  `json:"step"`
	TS     int64  `json:"ts_ms"`
}

// ServoEvent reports a slot problem found while loading configuration
// (servo/<id>/event/<tag>).
type ServoEvent struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

// ---- Reports ----

// PinNone marks an unassigned pin in reports.
const PinNone = -1

type ServoReport struct {
	ID       int    `json:"id"`
	Degrees  int    `json:"degrees"`
	Inverted bool   `json:"inverted"`
	Drive    int    `json:"drive"`
	Input    int    `json:"input"`
	Switch   string `json:"switch"` // "toggle" or "momentary"

	Feedback    bool `json:"feedback"`
	FeedbackOn  int  `json:"feedback_on"`
	FeedbackOff int  `json:"feedback_off"`

	Mode   string        `json:"mode"` // "none", "point", "signal"
	Point  *PointParams  `json:"point,omitempty"`
	Signal *SignalParams `json:"signal,omitempty"`
	State  string        `json:"state"`
	Arc    uint16        `json:"arc"`
}

type PointParams struct {
	PauseMs int `json:"pause_ms"`
}

type SignalParams struct {
	Decay       int    `json:"decay"`
	Friction    int    `json:"friction"`
	Slack       int    `json:"slack"`
	Stretch     int    `json:"stretch"`
	Speed       int    `json:"speed"`
	Curve       string `json:"curve"`
	BounceLimit int    `json:"bounce_limit"`
}

type PinReport struct {
	Pin   int    `json:"pin"`
	Caps  string `json:"caps"`
	Servo int    `json:"servo"` // -1 when free
	Role  string `json:"role"`
}

// ---- Replies ----

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

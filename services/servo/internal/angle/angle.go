// Package angle converts between degrees, arc units and servo pulse widths.
// All conversions go through mathx.MulDiv and truncate.
package angle

import "signalbox-go/x/mathx"

const (
	MaxDegrees   = 180
	ArcPerDegree = 4
	MaxArc       = MaxDegrees * ArcPerDegree

	// Pulse widths at arc 0 and MaxArc.
	MinPulseUS = 500
	MaxPulseUS = 2500
)

// DegToArc converts degrees (clamped to MaxDegrees) to arc units.
func DegToArc(deg uint16) uint16 {
	return mathx.MulDiv(mathx.Min(deg, MaxDegrees), MaxArc, MaxDegrees)
}

// ArcToDeg converts arc units (clamped to MaxArc) to whole degrees.
func ArcToDeg(arc uint16) uint16 {
	return mathx.MulDiv(mathx.Min(arc, MaxArc), MaxDegrees, MaxArc)
}

// ArcToPulse returns the pulse width in microseconds for an arc position.
func ArcToPulse(arc uint16) uint16 {
	return MinPulseUS + mathx.MulDiv(mathx.Min(arc, MaxArc), MaxPulseUS-MinPulseUS, MaxArc)
}

// PulseToDuty scales a pulse width to a duty value out of top for a PWM
// frame of periodUS microseconds.
func PulseToDuty(us uint16, top, periodUS uint32) uint32 {
	return mathx.MulDiv(uint32(us), top, periodUS)
}

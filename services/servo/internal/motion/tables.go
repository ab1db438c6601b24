package motion

import "signalbox-go/services/servo/internal/config"

// Table is a gravity profile: Delay[i] is the time, in 1/Scale ms, an arm
// falling from rest takes for its (i+1)th arc unit. Entries never increase.
// Past the end the arm is at terminal speed and the last entry repeats.
type Table struct {
	Delay []uint16
	Scale uint16
}

func (t Table) Len() int { return len(t.Delay) }

// Tables are generated by integrating theta'' = g*f(theta) from rest and
// normalising the first step. Profiles:
//   vertical  f = 1                     (straight drop)
//   upper     f = cos(theta)            (arm above horizontal)
//   lower     f = sin(theta + 6deg)     (arm below horizontal)
//   full      f = sin(theta/2 + 6deg)   (half-circle sweep)
var tables = [config.NumCurves]Table{
	config.CurveVertical: {Scale: 16, Delay: []uint16{
		896, 371, 285, 240, 212, 191, 176, 164, 154, 145, 138, 132,
		127, 122, 118, 114, 110, 107, 104, 101, 99, 97, 94, 92,
		91, 89, 87, 85, 84, 82, 81, 80, 79, 77, 76, 75,
		74, 73, 72, 71, 70, 70, 69, 68, 67, 66, 66, 65,
	}},
	config.CurveUpper: {Scale: 8, Delay: []uint16{
		512, 212, 163, 137, 121, 110, 101, 94, 89, 84, 80, 77,
		74, 71, 69, 67, 65, 64, 62, 61, 60, 59, 58, 57,
		56, 55, 55, 54, 53, 53, 53, 52, 52, 52, 51, 51,
		51, 51, 51, 51,
	}},
	config.CurveLower: {Scale: 32, Delay: []uint16{
		3072, 1189, 865, 695, 586, 510, 452, 407, 370, 340, 314, 292,
		274, 257, 243, 230, 218, 208, 199, 190, 183, 175, 169, 163,
		157, 152, 147, 143, 139, 135, 131, 127, 124, 121, 118, 115,
		113, 110, 108, 106, 104, 102, 100, 98, 96, 95, 93, 92,
		90, 89, 87, 86, 85, 84, 83, 82,
	}},
	config.CurveFull: {Scale: 16, Delay: []uint16{
		1536, 599, 438, 354, 300, 261, 232, 209, 191, 175, 163, 152,
		142, 134, 126, 120, 114, 108, 104, 99, 95, 91, 88, 85,
		82, 79, 77, 74, 72, 70, 68, 66, 65, 63, 62, 60,
		59, 57, 56, 55, 54, 53, 52, 51, 50, 49, 48, 47,
		47, 46, 45, 44, 44, 43, 43, 42, 41, 41, 40, 40,
		39, 39, 38, 38,
	}},
}

// TableFor returns the table for c, falling back to the default curve.
func TableFor(c config.Curve) Table {
	if !c.Valid() {
		c = config.DefaultCurve
	}
	return tables[c]
}

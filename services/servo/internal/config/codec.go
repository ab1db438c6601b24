package config

import (
	"encoding/binary"

	"signalbox-go/services/servo/internal/core"
)

// Block layout: 2-byte header, MaxServos fixed-size slots, then a 16-bit
// XOR-fold checksum of everything before it. All words little endian.
const (
	magic     = 'S'
	version   = 1
	headerLen = 2
	slotLen   = 16
	sumLen    = 2
	sumSeed   = 0xA55A

	BlockLen = headerLen + core.MaxServos*slotLen + sumLen

	pinNone = 0xFF
)

const (
	flagActive = 1 << iota
	flagInverted
	flagFeedback
	flagMomentary
)

// Checksum XOR-folds buf as 16-bit little-endian words. An odd trailing
// byte is folded as the low half of a final word.
func Checksum(buf []byte) uint16 {
	s := uint16(sumSeed)
	for i := 0; i+1 < len(buf); i += 2 {
		s ^= binary.LittleEndian.Uint16(buf[i:])
	}
	if len(buf)%2 == 1 {
		s ^= uint16(buf[len(buf)-1])
	}
	return s
}

func putPin(p core.Pin) byte {
	if n, ok := p.Number(); ok {
		return byte(n)
	}
	return pinNone
}

func getPin(b byte) core.Pin {
	if b == pinNone {
		return core.NoPin
	}
	return core.PinOf(b)
}

// Encode writes blk into buf, which must be BlockLen bytes.
func Encode(blk *Block, buf []byte) {
	_ = buf[BlockLen-1]
	buf[0], buf[1] = magic, version
	for i := range blk {
		encodeSlot(&blk[i], buf[headerLen+i*slotLen:headerLen+(i+1)*slotLen])
	}
	binary.LittleEndian.PutUint16(buf[BlockLen-sumLen:], Checksum(buf[:BlockLen-sumLen]))
}

func encodeSlot(s *Servo, b []byte) {
	clear(b)
	var f byte
	if s.Active {
		f |= flagActive
	}
	if s.Inverted {
		f |= flagInverted
	}
	if s.Feedback {
		f |= flagFeedback
	}
	if s.Switch == Momentary {
		f |= flagMomentary
	}
	b[0] = f
	binary.LittleEndian.PutUint16(b[1:], s.Sweep)
	b[3] = putPin(s.Drive)
	b[4] = putPin(s.Input)
	b[5] = putPin(s.FeedbackOn)
	b[6] = putPin(s.FeedbackOff)

	switch r := s.Realism.(type) {
	case PointRealism:
		b[7] = byte(ModePoint)
		binary.LittleEndian.PutUint16(b[8:], r.Pause)
	case SignalRealism:
		b[7] = byte(ModeSignal)
		b[8], b[9], b[10], b[11], b[12] = r.Decay, r.Friction, r.Slack, r.Stretch, r.Speed
		b[13] = byte(r.Curve)
		b[14] = r.BounceLimit
	case Unknown:
		b[7] = r.Tag
	default:
		b[7] = byte(ModeNone)
	}
}

// Decode parses buf into blk. It reports false, leaving blk untouched, if
// the header or checksum does not match. Field values are not range checked;
// that is the validator's job.
func Decode(buf []byte, blk *Block) bool {
	if len(buf) < BlockLen || buf[0] != magic || buf[1] != version {
		return false
	}
	if binary.LittleEndian.Uint16(buf[BlockLen-sumLen:]) != Checksum(buf[:BlockLen-sumLen]) {
		return false
	}
	for i := range blk {
		blk[i] = decodeSlot(buf[headerLen+i*slotLen : headerLen+(i+1)*slotLen])
	}
	return true
}

func decodeSlot(b []byte) Servo {
	f := b[0]
	s := Servo{
		Active:      f&flagActive != 0,
		Inverted:    f&flagInverted != 0,
		Feedback:    f&flagFeedback != 0,
		Sweep:       binary.LittleEndian.Uint16(b[1:]),
		Drive:       getPin(b[3]),
		Input:       getPin(b[4]),
		FeedbackOn:  getPin(b[5]),
		FeedbackOff: getPin(b[6]),
	}
	if f&flagMomentary != 0 {
		s.Switch = Momentary
	}
	switch Mode(b[7]) {
	case ModeNone:
		s.Realism = NoRealism{}
	case ModePoint:
		s.Realism = PointRealism{Pause: binary.LittleEndian.Uint16(b[8:])}
	case ModeSignal:
		s.Realism = SignalRealism{
			Decay: b[8], Friction: b[9], Slack: b[10], Stretch: b[11], Speed: b[12],
			Curve:       Curve(b[13]),
			BounceLimit: b[14],
		}
	default:
		s.Realism = Unknown{Tag: b[7]}
	}
	return s
}

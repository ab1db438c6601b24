package errcode

// Code is a stable, operator-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params" // parameter value out of range

	OutOfRange    Code = "out_of_range" // servo or pin index
	PinCapability Code = "pin_capability"
	PinInUse      Code = "pin_in_use"
	DuplicatePin  Code = "duplicate_pin"

	NotDefined     Code = "servo_not_defined"
	AlreadyDefined Code = "servo_already_defined"

	FeedbackDisabled Code = "feedback_not_enabled"
	FeedbackEnabled  Code = "feedback_already_enabled"
	ModeMismatch     Code = "realism_mode_mismatch"
	ConfirmMismatch  Code = "confirm_mismatch"

	StoreWrite Code = "store_write_failed"
	StoreRead  Code = "store_read_failed"

	Error Code = "error" // generic fallback
)

// E keeps a Code together with the operation and detail that produced it.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match an *E against its bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New builds an *E for op.
func New(c Code, op, msg string) *E { return &E{C: c, Op: op, Msg: msg} }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

package msgpack

import "fmt"

// Code is the codec's closed return-status enumeration. Once a context's
// code is anything but OK, the context is poisoned: every further
// operation returns ErrStopped without touching the buffer.
type Code uint8

const (
	// OK indicates the operation completed normally.
	OK Code = iota
	// EndOfInput marks clean stream termination at an item boundary.
	EndOfInput
	// BufferUnderflow marks a truncated item (end-of-input mid-item).
	BufferUnderflow
	// BufferOverflow marks a Packer with no room left and no handler
	// (or a handler that declined to grow the buffer).
	BufferOverflow
	// MalformedInput marks a reserved or otherwise illegal prefix byte.
	MalformedInput
	// Stopped marks a call into an already-poisoned context.
	Stopped
	// WrongByteOrder marks a failed endian self-check at construction.
	WrongByteOrder
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case EndOfInput:
		return "end of input"
	case BufferUnderflow:
		return "buffer underflow"
	case BufferOverflow:
		return "buffer overflow"
	case MalformedInput:
		return "malformed input"
	case Stopped:
		return "stopped"
	case WrongByteOrder:
		return "wrong byte order"
	default:
		return "unknown code"
	}
}

// Error reports a codec failure. Op names the operation that failed
// (e.g. "pack.uint", "unpack.next"); Code identifies which of the closed
// set of statuses applies. Compare against the Err* sentinels with
// errors.Is — it matches by Code alone, ignoring Op.
type Error struct {
	Code Code
	Op   string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("msgpack: %s", e.Code)
	}
	return fmt.Sprintf("msgpack: %s: %s", e.Op, e.Code)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is comparisons; Op is intentionally blank so they
// match any *Error carrying the same Code.
var (
	ErrEndOfInput      = &Error{Code: EndOfInput}
	ErrBufferUnderflow = &Error{Code: BufferUnderflow}
	ErrBufferOverflow  = &Error{Code: BufferOverflow}
	ErrMalformedInput  = &Error{Code: MalformedInput}
	ErrStopped         = &Error{Code: Stopped}
	ErrWrongByteOrder  = &Error{Code: WrongByteOrder}
)

// codeOf extracts the Code carried by err, if any, falling back to def.
func codeOf(err error, def Code) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return def
}

// state is embedded by Packer and Unpacker for the shared sticky-code
// bookkeeping from §4.4: once poisoned, every call is rejected with
// Stopped without touching the buffer.
type state struct {
	code Code
}

// Code returns the context's current sticky status.
func (s *state) Code() Code { return s.code }

func (s *state) poison(c Code) {
	if s.code == OK {
		s.code = c
	}
}

func (s *state) checkStopped(op string) error {
	if s.code != OK {
		return &Error{Code: Stopped, Op: op}
	}
	return nil
}

package vm

import "fmt"

// Kind classifies a fatal engine error, per the error disposition
// table, so callers (such as the debugger's ebreak handling) can tell
// errors apart without string matching. The CLI exits with status 1
// for every kind.
type Kind int

const (
	KindBadOpcode Kind = iota
	KindOutOfBounds
	KindBadRM
	KindUnsupported
	KindBreak
	KindLoadError
	KindHostIOError
)

func (k Kind) String() string {
	switch k {
	case KindBadOpcode:
		return "BadOpcode"
	case KindOutOfBounds:
		return "OutOfBounds"
	case KindBadRM:
		return "BadRM"
	case KindUnsupported:
		return "Unsupported"
	case KindBreak:
		return "Break"
	case KindLoadError:
		return "LoadError"
	case KindHostIOError:
		return "HostIOError"
	default:
		return "Unknown"
	}
}

// Error is a fatal engine condition. All fatal errors carry a Kind so
// callers can decide a disposition (§7 of the design) without parsing
// the message text.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func errBadOpcode(pc uint32, word uint32) error {
	return newError(KindBadOpcode, "unrecognised instruction 0x%08X at pc=0x%08X", word, pc)
}

func errOutOfBounds(addr uint32, size uint32, memSize uint32) error {
	return newError(KindOutOfBounds, "access at 0x%08X size %d exceeds arena of %d bytes", addr, size, memSize)
}

func errBadRM(rm uint8) error {
	return newError(KindBadRM, "reserved rounding-mode encoding 0b%03b", rm)
}

func errUnsupported(what string) error {
	return newError(KindUnsupported, "%s is not supported on this 32-bit core", what)
}

func errBreak(pc uint32) error {
	return newError(KindBreak, "ebreak encountered at pc=0x%08X", pc)
}

func errHostIO(op string, err error) error {
	return newError(KindHostIOError, "%s: %v", op, err)
}

package protocol

// Failure is a categorized action outcome. The empty string means success.
// Failures are plain values: the world returns them from every command and the
// calling system decides whether the owning assignment survives.
type Failure string

const (
	FailNone Failure = ""

	// Non-terminal: adjacency not yet satisfied; the caller moves instead.
	ErrOutOfRange Failure = "E_OUT_OF_RANGE"

	// Terminal rejections.
	ErrNoResource    Failure = "E_NO_RESOURCE"
	ErrFull          Failure = "E_FULL"
	ErrInvalidTarget Failure = "E_INVALID_TARGET"
	ErrNoPermission  Failure = "E_NO_PERMISSION"
	ErrBusy          Failure = "E_BUSY"
)

var knownFailures = map[Failure]struct{}{
	ErrOutOfRange:    {},
	ErrNoResource:    {},
	ErrFull:          {},
	ErrInvalidTarget: {},
	ErrNoPermission:  {},
	ErrBusy:          {},
}

func IsKnownFailure(f Failure) bool {
	if f == FailNone {
		return true
	}
	_, ok := knownFailures[f]
	return ok
}

// Terminal reports whether a failure ends the assignment that produced it.
// Out-of-range is the sole non-terminal case.
func (f Failure) Terminal() bool {
	return f != FailNone && f != ErrOutOfRange
}

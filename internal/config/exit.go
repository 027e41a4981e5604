package config

import "log/slog"

// LevelFatal is the slog level used for unrecoverable failures.
const LevelFatal = slog.LevelError + 4

// ExitConvention describes how the wrapped binary reports success through
// its exit status.
type ExitConvention int

const (
	// ExitNonZeroFailure treats 0 as success and any other status as failure.
	ExitNonZeroFailure ExitConvention = iota
	// ExitLegacyOne treats exactly 1 as success, as early daemon releases did.
	ExitLegacyOne
)

// SuccessCode returns the exit status that signals success.
func (c ExitConvention) SuccessCode() int {
	if c == ExitLegacyOne {
		return 1
	}

	return 0
}

// String implements fmt.Stringer.
func (c ExitConvention) String() string {
	switch c {
	case ExitLegacyOne:
		return "legacy-one"
	default:
		return "nonzero-failure"
	}
}

package cortile

import "github.com/leukipp/cortile-addons/internal/errors"

// Re-export error types from internal package

// CortileError is the marker interface implemented by all typed errors.
type CortileError = errors.CortileError

// SpawnError indicates the daemon binary could not be started.
type SpawnError = errors.SpawnError

// DiscoveryError indicates the daemon binary could not be located.
type DiscoveryError = errors.DiscoveryError

// RemoteError is an Error envelope emitted by the daemon itself.
type RemoteError = errors.RemoteError

// MalformedOutputError indicates the binary printed something other than
// a valid envelope.
type MalformedOutputError = errors.MalformedOutputError

// Re-export sentinel errors from internal package.
var (
	// ErrNotConnected indicates an operation was attempted without a resolved binary.
	ErrNotConnected = errors.ErrNotConnected

	// ErrEmptyCommand indicates a subprocess was requested with no argv.
	ErrEmptyCommand = errors.ErrEmptyCommand

	// ErrNotStarted indicates the process handle was never started.
	ErrNotStarted = errors.ErrNotStarted

	// ErrAlreadyStreaming indicates the process output was already consumed.
	ErrAlreadyStreaming = errors.ErrAlreadyStreaming
)

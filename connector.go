package cortile

import (
	"context"
	"time"

	"github.com/leukipp/cortile-addons/internal/connector"
)

// Connector is a connected, listening client of the cortile daemon.
//
// Lifecycle: Connectors are single-use. After Close, create a new one
// with New.
type Connector interface {
	// ID returns the identifier attached to this connector's log lines.
	ID() string

	// Connected reports whether the event stream is running and the binary
	// still exists.
	Connected() bool

	// Closed reports whether Close has run, either explicitly or because
	// the daemon announced a Disconnect.
	Closed() bool

	// Exit reports whether a termination signal was received.
	Exit() bool

	// Listen registers a listener for every inbound envelope.
	// Listeners run in registration order. A nil listener is ignored.
	Listen(listener Listener)

	// Method invokes a remote method and reports whether it succeeded.
	// Arguments are rendered with fmt.Sprint.
	Method(ctx context.Context, name string, args ...any) bool

	// Property returns a property value. With cached set, a previously
	// observed value is returned without calling the daemon.
	// The second result is false when the property has never been observed.
	Property(ctx context.Context, name string, cached bool) (Value, bool)

	// Help returns the help text of the daemon binary.
	Help(ctx context.Context) string

	// Wait blocks until a termination signal, Close, or ctx is done.
	Wait(ctx context.Context, interval time.Duration) error

	// Close stops listening and disconnects. Safe to call multiple times.
	Close() error
}

// Compile-time verification that the implementation satisfies Connector.
var _ Connector = (*connector.Connector)(nil)

// New discovers the daemon binary and starts listening for events.
//
// If discovery fails, the error is logged at LevelFatal and the configured
// exit function (os.Exit by default) is called with status 1. If that
// function returns, New returns the DiscoveryError.
func New(ctx context.Context, opts ...Option) (Connector, error) {
	c, err := connector.New(ctx, applyOptions(opts))
	if err != nil {
		return nil, err
	}

	return c, nil
}

package cortile

import (
	"log/slog"

	"github.com/leukipp/cortile-addons/internal/config"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options on top of the defaults.
func applyOptions(opts []Option) *Options {
	options := config.Default()
	for _, opt := range opts {
		opt(options)
	}

	return options.Normalize()
}

// ===== Basic Configuration =====

// WithLogger sets the logger for operational output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// ===== Discovery =====

// WithServiceName sets the session bus name queried for the binary path.
func WithServiceName(name string) Option {
	return func(o *Options) {
		o.ServiceName = name
	}
}

// WithObjectPath sets the object path queried for the binary path.
func WithObjectPath(path string) Option {
	return func(o *Options) {
		o.ObjectPath = path
	}
}

// WithBinaryPath uses the given binary instead of querying the session bus.
func WithBinaryPath(path string) Option {
	return func(o *Options) {
		o.BinaryPath = path
	}
}

// WithResolver replaces binary discovery entirely.
// If set, this takes precedence over WithBinaryPath.
func WithResolver(resolver Resolver) Option {
	return func(o *Options) {
		o.Resolver = resolver
	}
}

// ===== Protocol =====

// WithExitConvention selects which exit status of the binary means success.
func WithExitConvention(convention ExitConvention) Option {
	return func(o *Options) {
		o.ExitConvention = convention
	}
}

// WithLegacyExitCodes selects ExitLegacyOne, for binaries that exit with
// status 1 on success.
func WithLegacyExitCodes() Option {
	return WithExitConvention(ExitLegacyOne)
}

// WithListenFilter restricts the event stream to the named events.
func WithListenFilter(events ...string) Option {
	return func(o *Options) {
		o.ListenFilter = append([]string(nil), events...)
	}
}

// ===== Process Lifecycle =====

// WithSignalHandling enables or disables the SIGINT/SIGTERM counter.
// Enabled by default.
func WithSignalHandling(enabled bool) Option {
	return func(o *Options) {
		o.SignalHandling = enabled
	}
}

// WithExitFunc replaces os.Exit for fatal discovery errors and repeated
// termination signals.
func WithExitFunc(exit func(code int)) Option {
	return func(o *Options) {
		o.ExitFunc = exit
	}
}

// Package config provides the resolved configuration for the cortile IPC core.
package config

import (
	"context"
	"io"
	"log/slog"
	"os"
)

const (
	// DefaultServiceName is the well-known session bus name of the daemon.
	DefaultServiceName = "com.github.leukipp.cortile"

	// DefaultObjectPath is the object path exporting the daemon properties.
	DefaultObjectPath = "/com/github/leukipp/cortile"

	// BinaryPathEnv overrides discovery with an explicit binary path.
	BinaryPathEnv = "CORTILE_BINARY_PATH"
)

// Resolver resolves the filesystem path of the daemon binary.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Options configures the connector and its session.
type Options struct {
	// Logger is the slog logger for operational output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// ServiceName is the session bus name used for discovery.
	// Defaults to DefaultServiceName.
	ServiceName string

	// ObjectPath is the object path used for discovery.
	// Defaults to DefaultObjectPath.
	ObjectPath string

	// BinaryPath skips session bus discovery and uses this path directly.
	// Falls back to the CORTILE_BINARY_PATH environment variable.
	BinaryPath string

	// Resolver replaces the default discovery mechanism.
	// Takes precedence over BinaryPath.
	Resolver Resolver

	// ExitConvention selects which exit status the wrapped binary uses for success.
	ExitConvention ExitConvention

	// ListenFilter restricts the event stream to the named events.
	// Empty means all events.
	ListenFilter []string

	// SignalHandling installs SIGINT/SIGTERM handlers feeding the exit counter.
	SignalHandling bool

	// ExitFunc terminates the process on fatal errors and repeated signals.
	// Defaults to os.Exit.
	ExitFunc func(code int)
}

// Default returns options populated with default values.
func Default() *Options {
	return &Options{
		ServiceName:    DefaultServiceName,
		ObjectPath:     DefaultObjectPath,
		ExitConvention: ExitNonZeroFailure,
		SignalHandling: true,
		ExitFunc:       os.Exit,
	}
}

// Normalize fills unset fields with defaults.
func (o *Options) Normalize() *Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if o.ServiceName == "" {
		o.ServiceName = DefaultServiceName
	}

	if o.ObjectPath == "" {
		o.ObjectPath = DefaultObjectPath
	}

	if o.BinaryPath == "" {
		o.BinaryPath = os.Getenv(BinaryPathEnv)
	}

	if o.ExitFunc == nil {
		o.ExitFunc = os.Exit
	}

	return o
}

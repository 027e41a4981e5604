package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/godbus/dbus/v5"

	"github.com/leukipp/cortile-addons/internal/config"
	"github.com/leukipp/cortile-addons/internal/errors"
)

const (
	// PropertiesGet is the standard D-Bus properties getter.
	PropertiesGet = "org.freedesktop.DBus.Properties.Get"

	// ProcessProperty describes the running daemon process.
	ProcessProperty = "Process"

	// pathKey is the entry of ProcessProperty holding the executable path.
	pathKey = "Path"
)

// Config holds configuration for binary discovery.
type Config struct {
	// ServiceName is the bus name and interface of the daemon.
	ServiceName string

	// ObjectPath is the object exporting ProcessProperty.
	ObjectPath string

	// BinaryPath is an explicit path that skips the bus lookup.
	BinaryPath string

	// Logger is an optional logger for discovery operations.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// resolver implements config.Resolver.
type resolver struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that resolver implements config.Resolver.
var _ config.Resolver = (*resolver)(nil)

// NewResolver creates a resolver for the daemon binary path.
func NewResolver(cfg *Config) config.Resolver {
	if cfg == nil {
		cfg = &Config{}
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = config.DefaultServiceName
	}

	if cfg.ObjectPath == "" {
		cfg.ObjectPath = config.DefaultObjectPath
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &resolver{
		cfg: cfg,
		log: log.With("component", "discovery"),
	}
}

// Resolve returns the filesystem path of the daemon binary.
// Every failure is reported as a DiscoveryError.
func (r *resolver) Resolve(ctx context.Context) (string, error) {
	if r.cfg.BinaryPath != "" {
		r.log.Debug("Using explicit binary path", "binary_path", r.cfg.BinaryPath)

		if _, err := os.Stat(r.cfg.BinaryPath); err != nil {
			return "", r.fail(fmt.Errorf("explicit binary path: %w", err))
		}

		return r.cfg.BinaryPath, nil
	}

	r.log.Debug("Looking up daemon on session bus", "service", r.cfg.ServiceName, "path", r.cfg.ObjectPath)

	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return "", r.fail(fmt.Errorf("connect session bus: %w", err))
	}
	defer conn.Close()

	var process dbus.Variant

	obj := conn.Object(r.cfg.ServiceName, dbus.ObjectPath(r.cfg.ObjectPath))

	err = obj.CallWithContext(ctx, PropertiesGet, 0, r.cfg.ServiceName, ProcessProperty).Store(&process)
	if err != nil {
		return "", r.fail(fmt.Errorf("get %s property: %w", ProcessProperty, err))
	}

	path, err := ProcessPath(process)
	if err != nil {
		return "", r.fail(err)
	}

	r.log.Debug("Found daemon binary", "binary_path", path)

	return path, nil
}

func (r *resolver) fail(err error) error {
	r.log.Error("Failed to discover daemon binary", "error", err)

	return &errors.DiscoveryError{
		Service: r.cfg.ServiceName,
		Path:    r.cfg.ObjectPath,
		Err:     err,
	}
}

// ProcessPath extracts the executable path from the Process property value.
func ProcessPath(process dbus.Variant) (string, error) {
	var entry any

	switch v := process.Value().(type) {
	case map[string]dbus.Variant:
		if path, ok := v[pathKey]; ok {
			entry = path.Value()
		}
	case map[string]string:
		if path, ok := v[pathKey]; ok {
			entry = path
		}
	case map[string]any:
		entry = v[pathKey]
	default:
		return "", fmt.Errorf("%s property has unexpected type %s", ProcessProperty, process.Signature())
	}

	path, ok := entry.(string)
	if !ok || path == "" {
		return "", fmt.Errorf("%s property has no %s entry", ProcessProperty, pathKey)
	}

	return path, nil
}

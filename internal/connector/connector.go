package connector

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/leukipp/cortile-addons/internal/cli"
	"github.com/leukipp/cortile-addons/internal/config"
	"github.com/leukipp/cortile-addons/internal/message"
	"github.com/leukipp/cortile-addons/internal/protocol"
	"github.com/leukipp/cortile-addons/internal/shutdown"
	"github.com/leukipp/cortile-addons/internal/subprocess"
)

// DefaultWaitInterval is the poll interval used by Wait when none is given.
const DefaultWaitInterval = time.Second

// Connector is the single point of use for talking to the daemon.
type Connector struct {
	log     *slog.Logger
	id      string
	options *config.Options
	session *protocol.Session
	signals *shutdown.Counter

	// Listening subprocess, owned exclusively by the connector
	streamMu sync.RWMutex
	stream   *subprocess.Process

	// Property cache
	cacheMu sync.RWMutex
	cache   map[string]message.Value
	fetches singleflight.Group

	// Listener set, observe is always first
	listenersMu sync.RWMutex
	listeners   []protocol.Listener

	// Lifecycle management
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New connects to the daemon and starts listening for events.
//
// A failed discovery is fatal: it is logged at LevelFatal and
// options.ExitFunc is called with status 1. If ExitFunc returns, New
// returns the DiscoveryError.
func New(ctx context.Context, options *config.Options) (*Connector, error) {
	if options == nil {
		options = config.Default()
	}

	options.Normalize()

	id := ulid.Make().String()
	log := options.Logger.With("connector_id", id)

	resolver := options.Resolver
	if resolver == nil {
		resolver = cli.NewResolver(&cli.Config{
			ServiceName: options.ServiceName,
			ObjectPath:  options.ObjectPath,
			BinaryPath:  options.BinaryPath,
			Logger:      log,
		})
	}

	c := &Connector{
		log:     log.With("component", "connector"),
		id:      id,
		options: options,
		session: protocol.NewSession(log, resolver, options.ExitConvention),
		signals: shutdown.NewCounter(log, options.ExitFunc),
		cache:   make(map[string]message.Value, 16),
	}
	c.listeners = []protocol.Listener{c.observe}

	if options.SignalHandling {
		c.signals.Notify()
	}

	ret := c.session.Connect(ctx)
	if err := ret.Err(); err != nil {
		c.log.Log(ctx, config.LevelFatal, "Failed to connect to daemon", "error", ret.Message())
		c.signals.Stop()
		options.ExitFunc(1)

		return nil, err
	}

	if ret.Kind == message.KindResult && ret.Success() {
		c.log.Info("Connection established", "binary_path", c.session.Binary())
	}

	c.streamMu.Lock()
	c.stream = c.session.Listen(c.dispatch, options.ListenFilter...)
	c.streamMu.Unlock()

	return c, nil
}

// ID returns the identifier attached to this connector's log lines.
func (c *Connector) ID() string {
	return c.id
}

// Connected reports whether the event stream is running and the binary
// path is still valid.
func (c *Connector) Connected() bool {
	return c.listenerProcess().Running() && c.session.Connected()
}

// Closed reports whether Close has run.
func (c *Connector) Closed() bool {
	return c.closed.Load()
}

// Exit reports whether a termination signal was received.
func (c *Connector) Exit() bool {
	return c.signals.Exit()
}

// Listen registers a listener for every inbound envelope. Listeners run
// in registration order after the built-in cache observer. A nil listener
// is ignored.
func (c *Connector) Listen(listener protocol.Listener) {
	if listener == nil {
		c.log.Warn("Ignoring nil listener")

		return
	}

	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	c.listeners = append(c.listeners, listener)
}

// Method invokes a remote method and reports whether it succeeded.
func (c *Connector) Method(ctx context.Context, name string, args ...any) bool {
	c.log.Info("Method", "name", name, "args", args)

	ret := c.session.Method(ctx, name, args...)
	if ret.Kind == message.KindError {
		c.log.Error("Method failed", "name", name, "error", ret.Message())
	}

	return ret.Kind == message.KindResult && ret.Success()
}

// Property returns the value of a named property.
//
// With cached set, a previously observed value is returned without a
// subprocess call, and concurrent fetches of the same name share one call.
// Cancelling ctx returns early for this caller only; the shared call keeps
// running for the others.
// Without it, the value is always fetched again. The second result is false
// when the property has never been observed, which is a normal outcome.
func (c *Connector) Property(ctx context.Context, name string, cached bool) (message.Value, bool) {
	c.log.Debug("Property", "name", name, "cached", cached)

	if !cached {
		c.fetch(ctx, name)

		return c.cached(name)
	}

	if v, ok := c.cached(name); ok {
		return v, true
	}

	// The shared fetch outlives any single caller's cancellation.
	fetched := c.fetches.DoChan(name, func() (any, error) {
		if _, ok := c.cached(name); !ok {
			c.fetch(context.WithoutCancel(ctx), name)
		}

		return nil, nil
	})

	select {
	case <-fetched:
	case <-ctx.Done():
	}

	return c.cached(name)
}

// Help returns the help text of the daemon binary.
func (c *Connector) Help(ctx context.Context) string {
	ret := c.session.Help(ctx)
	if ret.Kind == message.KindError {
		c.log.Error("Help failed", "error", ret.Message())
	}

	return ret.Message()
}

// Wait blocks until a termination signal was received, the connector was
// closed, or ctx is done. A non-positive interval uses DefaultWaitInterval.
func (c *Connector) Wait(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if c.Exit() || c.Closed() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close disconnects the session and terminates the listening subprocess.
//
// It is safe to call Close multiple times and from a listener.
func (c *Connector) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.log.Info("Closing connector")

		c.session.Disconnect()

		stream := c.listenerProcess()
		stream.Detach()
		c.closeErr = stream.Terminate()

		c.signals.Stop()
	})

	return c.closeErr
}

// observe keeps the property cache current and reacts to disconnects.
func (c *Connector) observe(ret *message.Envelope) {
	if ret == nil || ret.Kind != message.KindProperty {
		return
	}

	if ret.SourceName == message.DisconnectName {
		c.log.Info("Daemon disconnected")

		if err := c.Close(); err != nil {
			c.log.Error("Failed to close connector", "error", err)
		}

		return
	}

	c.log.Debug("Property update", "name", ret.SourceName)
	c.store(ret.SourceName, ret.Payload)
}

// dispatch fans one envelope out to every listener in order.
func (c *Connector) dispatch(ret *message.Envelope) {
	if ret == nil {
		return
	}

	if ret.Kind == message.KindError {
		c.log.Error("Event stream error", "error", ret.Message())
	}

	c.listenersMu.RLock()
	listeners := make([]protocol.Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.RUnlock()

	for _, listener := range listeners {
		if listener == nil {
			continue
		}

		listener(ret)
	}
}

func (c *Connector) fetch(ctx context.Context, name string) {
	ret := c.session.Property(ctx, name)

	switch ret.Kind {
	case message.KindError:
		c.log.Error("Property failed", "name", name, "error", ret.Message())
	case message.KindProperty:
		c.store(name, ret.Payload)
	}
}

func (c *Connector) cached(name string) (message.Value, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	v, ok := c.cache[name]

	return v, ok
}

func (c *Connector) store(name string, v message.Value) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.cache[name] = v
}

func (c *Connector) listenerProcess() *subprocess.Process {
	c.streamMu.RLock()
	defer c.streamMu.RUnlock()

	return c.stream
}

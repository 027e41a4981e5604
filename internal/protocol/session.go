package protocol

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"

	"github.com/leukipp/cortile-addons/internal/cli"
	"github.com/leukipp/cortile-addons/internal/config"
	"github.com/leukipp/cortile-addons/internal/errors"
	"github.com/leukipp/cortile-addons/internal/message"
	"github.com/leukipp/cortile-addons/internal/subprocess"
)

// Listener receives every envelope read from the event stream.
type Listener func(env *message.Envelope)

// Session drives the cortile binary, one subprocess per operation.
type Session struct {
	log         *slog.Logger
	resolver    config.Resolver
	successCode int

	mu     sync.RWMutex
	binary string
}

// NewSession creates a disconnected session.
//
// The resolver is consulted on every Connect. The exit convention decides
// which exit status of the binary counts as success.
func NewSession(
	log *slog.Logger,
	resolver config.Resolver,
	convention config.ExitConvention,
) *Session {
	return &Session{
		log:         log.With("component", "session"),
		resolver:    resolver,
		successCode: convention.SuccessCode(),
	}
}

// Connect resolves the binary path. It may be called repeatedly; each call
// resolves the path again.
//
// Returns Result{Success: true}, or an Error envelope with a DiscoveryError
// cause.
func (s *Session) Connect(ctx context.Context) *message.Envelope {
	path, err := s.resolver.Resolve(ctx)
	if err != nil {
		if _, ok := stderrors.AsType[*errors.DiscoveryError](err); !ok {
			err = &errors.DiscoveryError{Err: err}
		}

		s.setBinary("")

		return message.NewError(err)
	}

	s.setBinary(path)
	s.log.Debug("Session connected", "binary_path", path)

	return message.NewResult(true)
}

// Disconnect forgets the binary path.
func (s *Session) Disconnect() {
	s.setBinary("")
	s.log.Debug("Session disconnected")
}

// Connected reports whether the resolved binary still exists on disk.
func (s *Session) Connected() bool {
	_, ok := s.connectedBinary()

	return ok
}

// Binary returns the resolved binary path, or "" when disconnected.
func (s *Session) Binary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.binary
}

// Method invokes a named remote method. Arguments are converted to strings.
func (s *Session) Method(ctx context.Context, name string, args ...any) *message.Envelope {
	return s.call(ctx, cli.ModeMethod, append([]string{name}, cli.Stringify(args)...)...)
}

// Property fetches the current value of a named property.
func (s *Session) Property(ctx context.Context, name string) *message.Envelope {
	return s.call(ctx, cli.ModeProperty, name)
}

// Help fetches the help text of the binary.
func (s *Session) Help(ctx context.Context) *message.Envelope {
	return s.call(ctx, cli.ModeHelp)
}

// Listen starts the event stream and forwards every parsed line to callback
// from a background goroutine.
//
// If the session is not connected, or the binary cannot be spawned,
// callback is invoked once synchronously with the Error envelope and a
// never-started process handle is returned.
func (s *Session) Listen(callback Listener, args ...string) *subprocess.Process {
	binary, ok := s.connectedBinary()
	if !ok {
		callback(message.NewError(errors.ErrNotConnected))

		return &subprocess.Process{}
	}

	// The listener outlives any caller context; Terminate ends it.
	p, err := subprocess.Start(context.Background(), s.log, cli.BuildArgs(binary, cli.ModeListen, args...))
	if err != nil {
		callback(message.NewError(err))

		return &subprocess.Process{}
	}

	err = p.Stream(func(stdout, stderr []byte, code int) {
		// Streamed lines carry no exit status of their own.
		callback(message.Parse(stdout, stderr, code, code))
	})
	if err != nil {
		_ = p.Terminate()

		callback(message.NewError(err))

		return &subprocess.Process{}
	}

	s.log.Debug("Listening for events", "pid", p.PID(), "filter", args)

	return p
}

func (s *Session) call(ctx context.Context, mode cli.Mode, args ...string) *message.Envelope {
	binary, ok := s.connectedBinary()
	if !ok {
		return message.NewError(errors.ErrNotConnected)
	}

	p, err := subprocess.Start(ctx, s.log, cli.BuildArgs(binary, mode, args...))
	if err != nil {
		return message.NewError(err)
	}

	out, err := p.Communicate()
	if err != nil {
		return message.NewError(err)
	}

	return message.Parse(out.Stdout, out.Stderr, out.ExitCode, s.successCode)
}

func (s *Session) connectedBinary() (string, bool) {
	binary := s.Binary()
	if binary == "" {
		return "", false
	}

	if _, err := os.Stat(binary); err != nil {
		return "", false
	}

	return binary, true
}

func (s *Session) setBinary(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.binary = path
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// CortileError is the base interface for all errors raised by this module.
type CortileError interface {
	error
	IsCortileError() bool
}

// Compile-time verification that all error types implement CortileError.
var (
	_ CortileError = (*SpawnError)(nil)
	_ CortileError = (*DiscoveryError)(nil)
	_ CortileError = (*RemoteError)(nil)
	_ CortileError = (*MalformedOutputError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotConnected indicates an operation was attempted while the cached
	// binary path is absent or no longer exists on disk.
	ErrNotConnected = errors.New("Not connected") //nolint:staticcheck // message is part of the wire-visible envelope

	// ErrEmptyCommand indicates a process was started without a command line.
	ErrEmptyCommand = errors.New("empty command line")

	// ErrNotStarted indicates an operation needs a process that was never started.
	ErrNotStarted = errors.New("process not started")

	// ErrAlreadyStreaming indicates the process output is already being consumed.
	ErrAlreadyStreaming = errors.New("process output already consumed")
)

// SpawnError indicates the subprocess could not be started.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	if len(e.Argv) == 0 {
		return fmt.Sprintf("spawn process: %v", e.Err)
	}

	return fmt.Sprintf("spawn %q: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsCortileError implements CortileError.
func (e *SpawnError) IsCortileError() bool { return true }

// DiscoveryError indicates the session bus lookup of the daemon binary failed.
type DiscoveryError struct {
	Service string
	Path    string
	Err     error
}

func (e *DiscoveryError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("discover daemon binary: %v", e.Err)
	}

	return fmt.Sprintf("discover %s at %s: %v", e.Service, e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// IsCortileError implements CortileError.
func (e *DiscoveryError) IsCortileError() bool { return true }

// RemoteError indicates the wrapped binary itself reported an Error envelope.
type RemoteError struct {
	Name    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("remote error: %s", e.Message)
	}

	return fmt.Sprintf("remote error from %s: %s", e.Name, e.Message)
}

// IsCortileError implements CortileError.
func (e *RemoteError) IsCortileError() bool { return true }

// MalformedOutputError indicates stdout was not a JSON envelope and had to be
// synthesized into an Error envelope.
type MalformedOutputError struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed output (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("malformed output (exit %d)", e.ExitCode)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// IsCortileError implements CortileError.
func (e *MalformedOutputError) IsCortileError() bool { return true }

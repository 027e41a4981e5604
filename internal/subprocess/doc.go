// Package subprocess runs the cortile binary as a child process.
//
// A Process is started immediately by Start and then consumed exactly once,
// either synchronously with Communicate, which collects stdout, stderr and
// the exit status, or asynchronously with Stream, which delivers each stdout
// line to a callback from a background goroutine until the process exits or
// the callback is detached.
//
// The zero Process is a valid, never-started handle: it reports not running
// and Terminate is a no-op.
package subprocess

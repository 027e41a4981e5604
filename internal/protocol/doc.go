// Package protocol translates cortile operations into invocations of the
// cortile binary and normalizes their output into envelopes.
//
// A Session is stateless apart from the resolved binary path. Every
// operation returns an Envelope; failures such as a stale binary path, a
// binary that cannot be spawned or unparseable output arrive as Error
// envelopes carrying a typed cause rather than as Go errors.
package protocol

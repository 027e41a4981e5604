// Package errors defines error types for the cortile IPC core.
//
// Operational failures are usually carried inside an Error envelope rather
// than returned directly; the envelope keeps the typed cause so callers can
// still inspect it with errors.Is, errors.As and errors.AsType.
package errors

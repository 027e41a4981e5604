package cortile

import (
	"github.com/leukipp/cortile-addons/internal/config"
	"github.com/leukipp/cortile-addons/internal/message"
	"github.com/leukipp/cortile-addons/internal/protocol"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options is the resolved connector configuration.
type Options = config.Options

// Resolver resolves the filesystem path of the daemon binary.
type Resolver = config.Resolver

// ExitConvention selects which exit status of the binary means success.
type ExitConvention = config.ExitConvention

const (
	// ExitNonZeroFailure treats exit status 0 as success.
	ExitNonZeroFailure = config.ExitNonZeroFailure
	// ExitLegacyOne treats exit status 1 as success.
	ExitLegacyOne = config.ExitLegacyOne
)

const (
	// DefaultServiceName is the session bus name of the daemon.
	DefaultServiceName = config.DefaultServiceName
	// DefaultObjectPath is the object path exporting the daemon properties.
	DefaultObjectPath = config.DefaultObjectPath
	// BinaryPathEnv is the environment variable overriding discovery.
	BinaryPathEnv = config.BinaryPathEnv
)

// ===== Envelopes =====

// Envelope is one JSON record exchanged with the daemon.
type Envelope = message.Envelope

// Kind is the Type field of an envelope.
type Kind = message.Kind

const (
	// KindResult is the outcome of a method call.
	KindResult = message.KindResult
	// KindError reports a failure.
	KindError = message.KindError
	// KindProperty carries a property value or event.
	KindProperty = message.KindProperty
)

const (
	// ConnectorName is the source name of locally synthesized envelopes.
	ConnectorName = message.ConnectorName
	// DisconnectName is the property event announcing daemon shutdown.
	DisconnectName = message.DisconnectName
)

// Listener receives every inbound envelope.
type Listener = protocol.Listener

// ===== Values =====

// Value is a decoded JSON value with ordered maps.
type Value = message.Value

// ValueKind identifies the variant held by a Value.
type ValueKind = message.ValueKind

// Value kinds.
const (
	ValueNull   = message.ValueNull
	ValueBool   = message.ValueBool
	ValueNumber = message.ValueNumber
	ValueString = message.ValueString
	ValueList   = message.ValueList
	ValueMap    = message.ValueMap
)

// Map is an insertion-ordered string-keyed map of values.
type Map = message.Map

// NewMap returns an empty Map.
func NewMap() *Map {
	return message.NewMap()
}

// ValueOf converts a Go value built from maps, slices and scalars.
func ValueOf(v any) (Value, error) {
	return message.ValueOf(v)
}

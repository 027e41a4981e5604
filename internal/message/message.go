package message

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/leukipp/cortile-addons/internal/errors"
)

// ConnectorName is the source name of locally synthesized envelopes.
const ConnectorName = "Connector"

// DisconnectName is the property name the daemon pushes when it shuts down.
const DisconnectName = "Disconnect"

// Kind classifies an envelope.
type Kind string

const (
	// KindResult is the reply to a method call or connection attempt.
	KindResult Kind = "Result"
	// KindError reports a failure; the payload carries a Message.
	KindError Kind = "Error"
	// KindProperty carries the current value of a named property.
	KindProperty Kind = "Property"
)

// Envelope is the unit exchanged with the wrapped binary.
type Envelope struct {
	ProcessID   int    `json:"Process"`
	TimestampMs int64  `json:"Time"`
	Kind        Kind   `json:"Type"`
	SourceName  string `json:"Name"`
	Payload     Value  `json:"Data"`

	cause error
}

// UnmarshalJSON implements json.Unmarshaler. Missing fields stay zero and
// fractional Process or Time values are truncated.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Process json.Number `json:"Process"`
		Time    json.Number `json:"Time"`
		Type    Kind        `json:"Type"`
		Name    string      `json:"Name"`
		Data    Value       `json:"Data"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Envelope{
		ProcessID:   int(truncate(raw.Process)),
		TimestampMs: truncate(raw.Time),
		Kind:        raw.Type,
		SourceName:  raw.Name,
		Payload:     raw.Data,
	}

	return nil
}

func truncate(n json.Number) int64 {
	if i, err := n.Int64(); err == nil {
		return i
	}

	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}

	return int64(f)
}

// NewResult builds a local Result envelope with the given success flag.
func NewResult(success bool) *Envelope {
	return newLocal(KindResult, NewMap().Set("Success", BoolValue(success)), nil)
}

// NewError builds a local Error envelope whose message is cause.Error().
func NewError(cause error) *Envelope {
	return NewErrorMessage(cause.Error(), cause)
}

// NewErrorMessage builds a local Error envelope with an explicit message.
// The cause may be nil.
func NewErrorMessage(message string, cause error) *Envelope {
	return newLocal(KindError, NewMap().Set("Message", StringValue(message)), cause)
}

func newLocal(kind Kind, payload *Map, cause error) *Envelope {
	return &Envelope{
		ProcessID:   os.Getpid(),
		TimestampMs: time.Now().UnixMilli(),
		Kind:        kind,
		SourceName:  ConnectorName,
		Payload:     MapValue(payload),
		cause:       cause,
	}
}

// Message returns the Message field of the payload, or "".
func (e *Envelope) Message() string {
	if e == nil {
		return ""
	}

	v, _ := e.Payload.Get("Message")
	s, _ := v.Str()

	return s
}

// Success reports whether the payload carries Success: true.
func (e *Envelope) Success() bool {
	if e == nil {
		return false
	}

	v, _ := e.Payload.Get("Success")
	b, _ := v.Bool()

	return b
}

// Time returns the envelope timestamp.
func (e *Envelope) Time() time.Time {
	return time.UnixMilli(e.TimestampMs)
}

// Cause returns the local error recorded when the envelope was synthesized.
func (e *Envelope) Cause() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Err returns nil unless the envelope is an Error. Locally synthesized
// envelopes return their recorded cause; envelopes emitted by the binary
// return a RemoteError.
func (e *Envelope) Err() error {
	if e == nil || e.Kind != KindError {
		return nil
	}

	if e.cause != nil {
		return e.cause
	}

	return &errors.RemoteError{Name: e.SourceName, Message: e.Message()}
}

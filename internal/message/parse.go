package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leukipp/cortile-addons/internal/errors"
)

// noOutputMessage is used when a failed invocation printed nothing at all.
const noOutputMessage = "no output"

// Parse normalizes captured process output into an Envelope.
//
// Trimmed stdout that looks like a JSON object is decoded and returned
// verbatim; the binary's own envelope is authoritative regardless of the
// exit status. Anything else is synthesized into an Error envelope whose
// message joins stdout, stderr and, unless exitCode equals successCode,
// the exit status in parentheses. The returned envelope is never nil.
func Parse(stdout, stderr []byte, exitCode, successCode int) *Envelope {
	out := bytes.TrimSpace(stdout)
	errOut := bytes.TrimSpace(stderr)

	var decodeErr error

	if looksLikeObject(out) {
		env, err := decodeEnvelope(out)
		if err == nil {
			return env
		}

		decodeErr = err
	}

	parts := make([]string, 0, 3)

	if len(out) > 0 {
		parts = append(parts, string(out))
	}

	if len(errOut) > 0 {
		parts = append(parts, string(errOut))
	}

	if exitCode != successCode {
		parts = append(parts, fmt.Sprintf("(%d)", exitCode))
	}

	msg := strings.Join(parts, " ")
	if msg == "" {
		msg = noOutputMessage
	}

	return NewErrorMessage(msg, &errors.MalformedOutputError{
		Stdout:   string(out),
		Stderr:   string(errOut),
		ExitCode: exitCode,
		Err:      decodeErr,
	})
}

func looksLikeObject(data []byte) bool {
	return len(data) >= 2 && data[0] == '{' && data[len(data)-1] == '}'
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	if err := validateEnvelope(doc); err != nil {
		return nil, fmt.Errorf("validate envelope: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	return &env, nil
}

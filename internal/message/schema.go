package message

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// envelopeSchema type-checks the generic envelope fields that are present.
// No field is required and Data is left open.
var envelopeSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"Process": {Type: "number"},
		"Time":    {Type: "number"},
		"Type":    {Type: "string"},
		"Name":    {Type: "string"},
	},
}

var resolvedEnvelopeSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return envelopeSchema.Resolve(nil)
})

// validateEnvelope checks a generically decoded document against the
// envelope schema.
func validateEnvelope(doc any) error {
	resolved, err := resolvedEnvelopeSchema()
	if err != nil {
		return err
	}

	return resolved.Validate(doc)
}

package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"pattern-atlas-service/pkg/errors"
)

//go:embed schema/pattern.schema.json
var patternSchema []byte

// SchemaValidator checks the structure of a pattern document against the
// embedded JSON schema before it is decoded into a record
type SchemaValidator struct {
	root *jsonschema.RootSchema
}

// NewSchemaValidator parses the embedded pattern schema
func NewSchemaValidator() (*SchemaValidator, error) {
	root := &jsonschema.RootSchema{}
	if err := json.Unmarshal(patternSchema, root); err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed,
			"failed to parse pattern schema", err)
	}
	return &SchemaValidator{root: root}, nil
}

// Schema returns the raw JSON schema document
func Schema() []byte {
	out := make([]byte, len(patternSchema))
	copy(out, patternSchema)
	return out
}

// ValidateJSON validates one JSON encoded pattern document
func (sv *SchemaValidator) ValidateJSON(data []byte) error {
	valErrs, err := sv.root.ValidateBytes(data)
	if err != nil {
		return errors.NewParsingError(errors.ErrCodeEncodingIssue,
			"document is not valid JSON", err)
	}
	if len(valErrs) == 0 {
		return nil
	}

	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		path := ve.PropertyPath
		if path == "" {
			path = "/"
		}
		messages = append(messages, fmt.Sprintf("%s: %s", path, ve.Message))
	}

	return errors.NewValidationError(errors.ErrCodeSchemaViolation,
		"document does not match the pattern schema", nil).
		WithDetails(strings.Join(messages, "; ")).
		WithContext("violations", len(valErrs))
}

// ValidateDocument validates an already decoded document (for example from YAML)
func (sv *SchemaValidator) ValidateDocument(doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.NewParsingError(errors.ErrCodeEncodingIssue,
			"document cannot be represented as JSON", err)
	}
	return sv.ValidateJSON(data)
}

package validate

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// createCardSchema is the structural contract for a creation request. The
// card number format is the single source of truth for key validity.
const createCardSchema = `{
	"type": "object",
	"properties": {
		"firstName": { "type": "string" },
		"lastName": { "type": "string" },
		"cardNumber": { "type": "string", "pattern": "^[0-9]{4}-[0-9]{4}-[0-9]{4}-[0-9]{4}$" },
		"points": { "type": "integer", "minimum": 0 }
	},
	"required": ["firstName", "lastName", "cardNumber"],
	"additionalProperties": false
}`

type Result struct {
	Valid        bool
	ErrorMessage string
}

// RowValidator checks a candidate row against the creation-request schema.
// Safe for concurrent use.
type RowValidator struct {
	schema *gojsonschema.Schema
}

func NewCreateCardValidator() (*RowValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(createCardSchema))
	if err != nil {
		return nil, fmt.Errorf("compile create card schema: %w", err)
	}

	return &RowValidator{schema: schema}, nil
}

// Validate reports only the first violation, as "/<field>: <description>"
// when the offending field is known.
func (v *RowValidator) Validate(candidate map[string]interface{}) Result {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(candidate))
	if err != nil {
		return Result{Valid: false, ErrorMessage: err.Error()}
	}

	if result.Valid() {
		return Result{Valid: true}
	}

	first := result.Errors()[0]
	if field := first.Field(); field != "(root)" {
		return Result{Valid: false, ErrorMessage: fmt.Sprintf("/%s: %s", field, first.Description())}
	}

	return Result{Valid: false, ErrorMessage: first.Description()}
}

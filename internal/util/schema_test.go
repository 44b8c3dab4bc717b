package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type searchArgs struct {
	City    string  `json:"city" description:"City name"`
	State   string  `json:"state" description:"2-letter state code"`
	Keyword *string `json:"keyword,omitempty" description:"Specialty filter"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(searchArgs{})

	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "state")
	assert.Contains(t, props, "keyword")

	city, _ := props["city"].(map[string]any)
	assert.Equal(t, "string", city["type"])
	assert.Equal(t, "City name", city["description"])

	// Required excludes pointer and omitempty fields.
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"city", "state"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city":  map[string]any{"type": "string"},
			"state": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
		},
		// Use []any to mirror the JSON-decoded schema shape.
		"required": []any{"city", "state"},
	}

	err := ValidateParameters(map[string]any{"city": "Temecula", "state": "CA"}, schema)
	assert.NoError(t, err)

	// Missing required field.
	err = ValidateParameters(map[string]any{"city": "Temecula"}, schema)
	assert.Error(t, err)
	vErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "state", vErr.Field)

	// Blank required field is rejected the same way.
	err = ValidateParameters(map[string]any{"city": "Temecula", "state": "  "}, schema)
	assert.Error(t, err)

	// Wrong type.
	err = ValidateParameters(map[string]any{"city": "Temecula", "state": 42}, schema)
	assert.Error(t, err)
	vErr, ok = err.(*ValidationError)
	assert.True(t, ok)
	assert.Contains(t, vErr.Message, "expected type string")

	// JSON numbers arrive as float64; whole values satisfy integer.
	err = ValidateParameters(map[string]any{"city": "a", "state": "b", "limit": 3.0}, schema)
	assert.NoError(t, err)
	err = ValidateParameters(map[string]any{"city": "a", "state": "b", "limit": 3.5}, schema)
	assert.Error(t, err)

	// Extra fields are tolerated.
	err = ValidateParameters(map[string]any{"city": "a", "state": "b", "other": true}, schema)
	assert.NoError(t, err)
}

func TestCreateSchemaNonStruct(t *testing.T) {
	schema := CreateSchema("not a struct")
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Empty(t, props)
	assert.NotContains(t, schema, "required")
}

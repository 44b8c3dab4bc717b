// Package tool implements the function / tool calling subsystem: the error
// taxonomy shared across the backend, the Tool interface implemented by every
// model-invocable capability, the immutable Registry advertising the
// catalogue, and the Dispatcher that validates and routes model-issued
// function calls.
package tool

import (
	"context"

	"github.com/scalisek3/CareCompanionAIWebsite/model"
)

// Tool is one model-invocable capability backed by an external API adapter.
//
// Implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define a proper JSON schema for parameters
//   - Convert every upstream failure into *Error before returning
//   - Be safe for concurrent use; dispatch shares one instance across requests
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns a human-readable description provided to the LLM
	// to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	// Used both for validation and for the catalogue advertised to the model.
	Parameters() map[string]any

	// Call executes the tool with already-validated arguments. The context
	// bounds the single upstream call the tool is allowed to make.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Call is a model-issued function call after argument decoding.
type Call struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Definition exposes a tool's catalogue entry in the provider-neutral shape.
func Definition(t Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

package tool

import "fmt"

// Kind classifies every failure the orchestration layer can produce. All four
// kinds are caught at the component boundary that produced them and converted
// into this shape before crossing into the HTTP layer; no raw transport error
// is ever serialized to the caller.
type Kind int

const (
	// KindInvalidArguments marks malformed or missing tool arguments. Raised
	// before any network I/O.
	KindInvalidArguments Kind = iota
	// KindUnknownTool marks a function call naming a tool outside the catalogue.
	KindUnknownTool
	// KindUpstreamError marks a non-2xx status or unparseable body from any
	// external API, including the chat-completion call itself.
	KindUpstreamError
	// KindAuthError marks a failed OAuth2 token exchange.
	KindAuthError
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidArguments:
		return "invalid_arguments"
	case KindUnknownTool:
		return "unknown_tool"
	case KindUpstreamError:
		return "upstream_error"
	case KindAuthError:
		return "auth_error"
	default:
		return "unknown"
	}
}

// Error is the uniform failure shape of the dispatch layer. Tool names the
// capability that failed ("chat" for the completion channel itself).
type Error struct {
	Kind    Kind   `json:"kind"`
	Tool    string `json:"tool,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Kind, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error [%s]: %s", e.Kind, e.Message)
}

// NewInvalidArguments builds an InvalidArguments error for the named tool.
func NewInvalidArguments(tool, message string) *Error {
	return &Error{Kind: KindInvalidArguments, Tool: tool, Message: message}
}

// NewUnknownTool builds an UnknownTool error for an unrecognized name.
func NewUnknownTool(name string) *Error {
	return &Error{Kind: KindUnknownTool, Tool: name, Message: fmt.Sprintf("unknown tool %q", name)}
}

// NewUpstreamError builds an UpstreamError for the named tool or channel.
func NewUpstreamError(tool, message string) *Error {
	return &Error{Kind: KindUpstreamError, Tool: tool, Message: message}
}

// NewAuthError builds an AuthError for a failed token exchange.
func NewAuthError(tool, message string) *Error {
	return &Error{Kind: KindAuthError, Tool: tool, Message: message}
}

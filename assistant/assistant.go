// Package assistant assembles conversations for the chat-completion call and
// interprets its response: either a direct assistant message, or a single
// tool invocation handed to the dispatcher. It guarantees the canonical
// system instruction is present exactly once and keeps chat-channel failures
// distinct from adapter-channel failures.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scalisek3/CareCompanionAIWebsite/logging"
	"github.com/scalisek3/CareCompanionAIWebsite/model"
	"github.com/scalisek3/CareCompanionAIWebsite/tool"
)

// DefaultSystemPrompt is the canonical persona instruction prepended to
// conversations that do not open with a system message.
const DefaultSystemPrompt = "You are CareCompanionAI, a friendly and helpful assistant designed to support seniors in California. " +
	"You specialize in United Healthcare, Medicare, Medicaid, and palliative care. " +
	"You can look up healthcare providers, health topics, drug labels, and clinical trials. " +
	"Be proactive, respond clearly, with empathy, and give concise, useful answers."

// chatChannel tags failures of the completion call itself, keeping them
// separate from adapter errors.
const chatChannel = "chat"

// Conversation is the ordered message history supplied by the caller.
type Conversation []model.Message

// Reply is the outcome of one Handle call. Exactly one of Message or Tool is
// meaningful: when Tool is non-empty the model invoked a tool and Result
// carries its normalized output; otherwise Message is the direct assistant
// answer.
type Reply struct {
	Message *model.Message `json:"message,omitempty"`
	Tool    string         `json:"tool,omitempty"`
	Result  any            `json:"result,omitempty"`
}

// Options configure an Assistant.
type Options struct {
	// SystemPrompt overrides the canonical persona instruction.
	SystemPrompt string
	// Temperature and MaxTokens are forwarded to the model request.
	Temperature float64
	MaxTokens   int64
	// ResultFeedback, when true, feeds the tool result back to the model for
	// a second completion pass that composes a natural-language answer.
	// Default is single-shot: the raw tool result is returned directly.
	ResultFeedback bool
	Logger         logging.Logger
}

// Assistant drives one chat completion per request and routes at most one
// tool call through the dispatcher. It is stateless across requests.
type Assistant struct {
	chat       model.Model
	dispatcher *tool.Dispatcher
	registry   *tool.Registry
	opts       Options
}

// New creates an Assistant over the given model, dispatcher and registry.
func New(chat model.Model, dispatcher *tool.Dispatcher, registry *tool.Registry, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  0.5,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Assistant{chat: chat, dispatcher: dispatcher, registry: registry, opts: opts}
}

// Handle runs one request-response cycle: ensure the system instruction,
// invoke the completion with the tool catalogue advertised, then either
// return the assistant message or dispatch the first selected tool call.
// Additional simultaneous calls, if any, are ignored.
func (a *Assistant) Handle(ctx context.Context, conv Conversation) (*Reply, error) {
	messages := withSystemPrompt(conv, a.opts.SystemPrompt)

	resp, err := a.chat.Generate(ctx, model.Request{
		Messages:    messages,
		Tools:       a.registry.Definitions(),
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	})
	if err != nil {
		a.opts.Logger.Error("assistant.completion_failed", "error", err.Error())
		return nil, tool.NewUpstreamError(chatChannel, fmt.Sprintf("chat completion failed: %v", err))
	}

	if len(resp.ToolCalls) == 0 {
		msg := resp.Message
		return &Reply{Message: &msg}, nil
	}

	call := resp.ToolCalls[0]
	if len(resp.ToolCalls) > 1 {
		a.opts.Logger.Warn("assistant.extra_tool_calls_ignored", "count", len(resp.ToolCalls)-1)
	}

	args, err := decodeArguments(call.Arguments)
	if err != nil {
		return nil, tool.NewInvalidArguments(call.Name, fmt.Sprintf("malformed argument payload: %v", err))
	}

	result, err := a.dispatcher.Dispatch(ctx, tool.Call{ID: call.ID, Name: call.Name, Arguments: args})
	if err != nil {
		return nil, err
	}

	if !a.opts.ResultFeedback {
		return &Reply{Tool: call.Name, Result: result}, nil
	}
	return a.composeAnswer(ctx, messages, call, result)
}

// composeAnswer performs the optional second completion pass: the tool result
// is appended as a tool message and the model writes the final answer.
func (a *Assistant) composeAnswer(ctx context.Context, messages []model.Message, call model.ToolCall, result any) (*Reply, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, tool.NewUpstreamError(call.Name, fmt.Sprintf("encode tool result: %v", err))
	}

	followUp := append(append([]model.Message{}, messages...),
		model.Message{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{call}},
		model.Message{Role: model.RoleTool, Content: string(resultJSON), ToolCallID: call.ID},
	)

	resp, err := a.chat.Generate(ctx, model.Request{
		Messages:    followUp,
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	})
	if err != nil {
		a.opts.Logger.Error("assistant.followup_failed", "tool", call.Name, "error", err.Error())
		return nil, tool.NewUpstreamError(chatChannel, fmt.Sprintf("chat completion failed: %v", err))
	}

	msg := resp.Message
	return &Reply{Message: &msg, Tool: call.Name, Result: result}, nil
}

// withSystemPrompt prepends the canonical instruction unless the conversation
// already opens with a system message. Idempotent; the caller's slice is not
// mutated.
func withSystemPrompt(conv Conversation, prompt string) []model.Message {
	if len(conv) > 0 && conv[0].Role == model.RoleSystem {
		return conv
	}
	messages := make([]model.Message, 0, len(conv)+1)
	messages = append(messages, model.Message{Role: model.RoleSystem, Content: prompt})
	return append(messages, conv...)
}

// decodeArguments parses the model-supplied argument payload. An empty
// payload is a valid empty object.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

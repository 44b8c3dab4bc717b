package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scalisek3/CareCompanionAIWebsite/model"
	"github.com/scalisek3/CareCompanionAIWebsite/tool"
)

// echoTool records its arguments and returns a fixed result.
type echoTool struct {
	name   string
	result any
	args   map[string]any
	calls  int
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "test tool" }

func (e *echoTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"q": map[string]any{"type": "string"}},
		"required":   []string{"q"},
	}
}

func (e *echoTool) Call(_ context.Context, args map[string]any) (any, error) {
	e.calls++
	e.args = args
	return e.result, nil
}

func newAssistant(chat model.Model, tools []tool.Tool, optFns ...func(o *Options)) *Assistant {
	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return New(chat, tool.NewDispatcher(registry), registry, optFns...)
}

func TestHandle_DirectAnswer(t *testing.T) {
	chat := model.NewMockModel("test", "mock")
	chat.AddResponse("hello", "Hi! How can I help you today?")

	a := newAssistant(chat, nil)
	reply, err := a.Handle(context.Background(), Conversation{
		{Role: model.RoleUser, Content: "hello"},
	})
	assert.NoError(t, err)
	assert.NotNil(t, reply.Message)
	assert.Equal(t, "Hi! How can I help you today?", reply.Message.Content)
	assert.Empty(t, reply.Tool)
	assert.Nil(t, reply.Result)
}

func TestHandle_PrependsSystemPromptExactlyOnce(t *testing.T) {
	chat := model.NewMockModel("test", "mock")
	a := newAssistant(chat, nil)

	conv := Conversation{{Role: model.RoleUser, Content: "hi"}}
	_, err := a.Handle(context.Background(), conv)
	assert.NoError(t, err)

	sent := chat.Requests()[0].Messages
	assert.Len(t, sent, 2)
	assert.Equal(t, model.RoleSystem, sent[0].Role)
	assert.Equal(t, DefaultSystemPrompt, sent[0].Content)

	// The caller's slice is left untouched.
	assert.Len(t, conv, 1)
	assert.Equal(t, model.RoleUser, conv[0].Role)
}

func TestHandle_KeepsCallerSystemMessage(t *testing.T) {
	chat := model.NewMockModel("test", "mock")
	a := newAssistant(chat, nil)

	conv := Conversation{
		{Role: model.RoleSystem, Content: "custom instructions"},
		{Role: model.RoleUser, Content: "hi"},
	}
	_, err := a.Handle(context.Background(), conv)
	assert.NoError(t, err)

	sent := chat.Requests()[0].Messages
	assert.Len(t, sent, 2)
	assert.Equal(t, "custom instructions", sent[0].Content)
}

func TestHandle_AdvertisesCatalogue(t *testing.T) {
	chat := model.NewMockModel("test", "mock")
	a := newAssistant(chat, []tool.Tool{&echoTool{name: "lookup"}})

	_, err := a.Handle(context.Background(), Conversation{{Role: model.RoleUser, Content: "hi"}})
	assert.NoError(t, err)

	tools := chat.Requests()[0].Tools
	assert.Len(t, tools, 1)
	assert.Equal(t, "lookup", tools[0].Name)
}

func TestHandle_DispatchesFirstToolCallOnly(t *testing.T) {
	first := &echoTool{name: "first", result: "r1"}
	second := &echoTool{name: "second", result: "r2"}

	chat := model.NewMockModel("test", "mock")
	chat.AddToolCalls("find me a doctor",
		model.ToolCall{ID: "c1", Name: "first", Arguments: json.RawMessage(`{"q": "a"}`)},
		model.ToolCall{ID: "c2", Name: "second", Arguments: json.RawMessage(`{"q": "b"}`)},
	)

	a := newAssistant(chat, []tool.Tool{first, second})
	reply, err := a.Handle(context.Background(), Conversation{{Role: model.RoleUser, Content: "find me a doctor"}})
	assert.NoError(t, err)
	assert.Equal(t, "first", reply.Tool)
	assert.Equal(t, "r1", reply.Result)
	assert.Nil(t, reply.Message)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestHandle_MalformedArguments(t *testing.T) {
	chat := model.NewMockModel("test", "mock")
	chat.AddToolCalls("go", model.ToolCall{ID: "c1", Name: "lookup", Arguments: json.RawMessage(`{not json`)})

	echo := &echoTool{name: "lookup"}
	a := newAssistant(chat, []tool.Tool{echo})

	_, err := a.Handle(context.Background(), Conversation{{Role: model.RoleUser, Content: "go"}})
	assert.Error(t, err)

	var terr *tool.Error
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, tool.KindInvalidArguments, terr.Kind)
	assert.Equal(t, 0, echo.calls)
}

func TestHandle_ChatFailureIsUpstreamError(t *testing.T) {
	chat := model.NewMockModel("test", "mock")
	chat.SetError(errors.New("provider timeout"))

	a := newAssistant(chat, nil)
	_, err := a.Handle(context.Background(), Conversation{{Role: model.RoleUser, Content: "hi"}})
	assert.Error(t, err)

	var terr *tool.Error
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, tool.KindUpstreamError, terr.Kind)
	assert.Equal(t, "chat", terr.Tool)
}

func TestHandle_DispatchErrorPassesThrough(t *testing.T) {
	chat := model.NewMockModel("test", "mock")
	chat.AddToolCalls("go", model.ToolCall{ID: "c1", Name: "nonexistent", Arguments: json.RawMessage(`{}`)})

	a := newAssistant(chat, nil)
	_, err := a.Handle(context.Background(), Conversation{{Role: model.RoleUser, Content: "go"}})

	var terr *tool.Error
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, tool.KindUnknownTool, terr.Kind)
}

func TestHandle_ResultFeedbackComposesAnswer(t *testing.T) {
	echo := &echoTool{name: "lookup", result: map[string]any{"summary": "stay hydrated"}}

	chat := model.NewMockModel("test", "mock")
	chat.AddToolCalls("tell me about hydration",
		model.ToolCall{ID: "c1", Name: "lookup", Arguments: json.RawMessage(`{"q": "hydration"}`)})

	a := newAssistant(chat, []tool.Tool{echo}, func(o *Options) { o.ResultFeedback = true })
	reply, err := a.Handle(context.Background(), Conversation{{Role: model.RoleUser, Content: "tell me about hydration"}})
	assert.NoError(t, err)
	assert.Equal(t, "lookup", reply.Tool)
	assert.NotNil(t, reply.Message)
	assert.NotEmpty(t, reply.Message.Content)

	// Second pass replays the assistant tool call followed by the tool result.
	assert.Len(t, chat.Requests(), 2)
	followUp := chat.Requests()[1].Messages
	n := len(followUp)
	assert.Equal(t, model.RoleAssistant, followUp[n-2].Role)
	assert.Len(t, followUp[n-2].ToolCalls, 1)
	assert.Equal(t, model.RoleTool, followUp[n-1].Role)
	assert.Equal(t, "c1", followUp[n-1].ToolCallID)
	assert.JSONEq(t, `{"summary": "stay hydrated"}`, followUp[n-1].Content)
}

func TestHandle_EmptyArgumentsPayload(t *testing.T) {
	echo := &echoTool{name: "noargs", result: "ok"}

	chat := model.NewMockModel("test", "mock")
	chat.AddToolCalls("go", model.ToolCall{ID: "c1", Name: "noargs"})

	registry, err := tool.NewRegistry(&relaxed{echo})
	assert.NoError(t, err)
	a := New(chat, tool.NewDispatcher(registry), registry)

	reply, err := a.Handle(context.Background(), Conversation{{Role: model.RoleUser, Content: "go"}})
	assert.NoError(t, err)
	assert.Equal(t, "ok", reply.Result)
}

// relaxed wraps a tool with a no-required-fields schema.
type relaxed struct{ *echoTool }

func (r *relaxed) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

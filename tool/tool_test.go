package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scalisek3/CareCompanionAIWebsite/logging"
)

// fakeTool is a scriptable Tool for registry and dispatch tests. It counts
// invocations so tests can assert that rejected calls never reach Call.
type fakeTool struct {
	name    string
	params  map[string]any
	result  any
	err     error
	calls   int
	lastCtx context.Context
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake tool " + f.name }

func (f *fakeTool) Parameters() map[string]any {
	if f.params != nil {
		return f.params
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (f *fakeTool) Call(ctx context.Context, _ map[string]any) (any, error) {
	f.calls++
	f.lastCtx = ctx
	return f.result, f.err
}

// -------------------- Registry Tests --------------------

func TestNewRegistry_RejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(&fakeTool{name: "dup"}, &fakeTool{name: "dup"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dup")
}

func TestRegistry_LookupAndLen(t *testing.T) {
	a := &fakeTool{name: "alpha"}
	b := &fakeTool{name: "beta"}
	r, err := NewRegistry(a, b)
	assert.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	got, ok := r.Lookup("alpha")
	assert.True(t, ok)
	assert.Same(t, a, got.(*fakeTool))

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_CatalogueOrderIsStable(t *testing.T) {
	r, err := NewRegistry(&fakeTool{name: "c"}, &fakeTool{name: "a"}, &fakeTool{name: "b"})
	assert.NoError(t, err)

	want := []string{"c", "a", "b"}
	for i := 0; i < 5; i++ {
		var names []string
		for _, tl := range r.Catalogue() {
			names = append(names, tl.Name())
		}
		assert.Equal(t, want, names)
	}
}

func TestRegistry_DefinitionsMatchCatalogue(t *testing.T) {
	ft := &fakeTool{name: "solo", params: map[string]any{
		"type":       "object",
		"properties": map[string]any{"q": map[string]any{"type": "string"}},
		"required":   []string{"q"},
	}}
	r, err := NewRegistry(ft)
	assert.NoError(t, err)

	defs := r.Definitions()
	assert.Len(t, defs, 1)
	assert.Equal(t, "solo", defs[0].Name)
	assert.Equal(t, ft.Description(), defs[0].Description)
	assert.Equal(t, ft.Parameters(), defs[0].Parameters)
}

// -------------------- Dispatcher Tests --------------------

func TestDispatch_UnknownTool(t *testing.T) {
	r, _ := NewRegistry(&fakeTool{name: "known"})
	d := NewDispatcher(r, func(o *DispatcherOptions) { o.Logger = logging.NoOpLogger{} })

	_, err := d.Dispatch(context.Background(), Call{ID: "fc1", Name: "nope"})
	assert.Error(t, err)

	var terr *Error
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, KindUnknownTool, terr.Kind)
	assert.Equal(t, "nope", terr.Tool)
}

func TestDispatch_ValidationRejectsBeforeCall(t *testing.T) {
	ft := &fakeTool{name: "strict", params: map[string]any{
		"type":       "object",
		"properties": map[string]any{"city": map[string]any{"type": "string"}},
		"required":   []string{"city"},
	}}
	r, _ := NewRegistry(ft)
	d := NewDispatcher(r)

	_, err := d.Dispatch(context.Background(), Call{Name: "strict", Arguments: map[string]any{}})
	assert.Error(t, err)

	var terr *Error
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, KindInvalidArguments, terr.Kind)
	// Rejected before reaching the tool, so no side effects.
	assert.Equal(t, 0, ft.calls)
}

func TestDispatch_Success(t *testing.T) {
	ft := &fakeTool{name: "echo", result: map[string]any{"ok": true}}
	r, _ := NewRegistry(ft)
	d := NewDispatcher(r)

	result, err := d.Dispatch(context.Background(), Call{ID: "fc2", Name: "echo", Arguments: map[string]any{}})
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result)
	assert.Equal(t, 1, ft.calls)
}

func TestDispatch_PassesThroughToolError(t *testing.T) {
	upstream := NewUpstreamError("flaky", "status 503")
	ft := &fakeTool{name: "flaky", err: upstream}
	r, _ := NewRegistry(ft)
	d := NewDispatcher(r)

	_, err := d.Dispatch(context.Background(), Call{Name: "flaky", Arguments: map[string]any{}})
	var terr *Error
	assert.True(t, errors.As(err, &terr))
	assert.Same(t, upstream, terr)
}

func TestDispatch_WrapsRawErrors(t *testing.T) {
	ft := &fakeTool{name: "raw", err: errors.New("connection reset")}
	r, _ := NewRegistry(ft)
	d := NewDispatcher(r)

	_, err := d.Dispatch(context.Background(), Call{Name: "raw", Arguments: map[string]any{}})
	var terr *Error
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, KindUpstreamError, terr.Kind)
	assert.Equal(t, "raw", terr.Tool)
	assert.Contains(t, terr.Message, "connection reset")
}

func TestDispatch_PropagatesContext(t *testing.T) {
	ft := &fakeTool{name: "ctx"}
	r, _ := NewRegistry(ft)
	d := NewDispatcher(r)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	_, err := d.Dispatch(ctx, Call{Name: "ctx", Arguments: map[string]any{}})
	assert.NoError(t, err)
	assert.Equal(t, "v", ft.lastCtx.Value(key{}))
}

// -------------------- Error Formatting --------------------

func TestErrorFormatting(t *testing.T) {
	err := NewInvalidArguments("find_providers", "missing city")
	assert.Contains(t, err.Error(), "invalid_arguments")
	assert.Contains(t, err.Error(), "find_providers")
	assert.Contains(t, err.Error(), "missing city")

	bare := &Error{Kind: KindUpstreamError, Message: "boom"}
	assert.Contains(t, bare.Error(), "upstream_error")
	assert.NotContains(t, bare.Error(), " in ")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "invalid_arguments", KindInvalidArguments.String())
	assert.Equal(t, "unknown_tool", KindUnknownTool.String())
	assert.Equal(t, "upstream_error", KindUpstreamError.String())
	assert.Equal(t, "auth_error", KindAuthError.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

package carecompanion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scalisek3/CareCompanionAIWebsite/config"
	"github.com/scalisek3/CareCompanionAIWebsite/model"
	"github.com/scalisek3/CareCompanionAIWebsite/upstream"
)

func testConfig(upstreamURL string) *config.Config {
	cfg, _ := config.Load("nonexistent.yaml")
	cfg.Assistant.APIKey = "sk-test"
	cfg.Upstreams.NPI.BaseURL = upstreamURL
	cfg.Upstreams.Healthfinder.BaseURL = upstreamURL
	cfg.Upstreams.OpenFDA.BaseURL = upstreamURL
	cfg.Upstreams.Trials.BaseURL = upstreamURL
	cfg.Availity.BaseURL = upstreamURL
	cfg.Availity.TokenURL = upstreamURL + "/availity/v1/token"
	return cfg
}

func TestNew_BuildsFullCatalogue(t *testing.T) {
	backend, err := New(testConfig("http://upstream.invalid"), func(o *Options) {
		o.Chat = model.NewMockModel("test", "mock")
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, backend.Registry().Len())
	assert.NotNil(t, backend.Assistant())
	assert.NotNil(t, backend.Dispatcher())
}

func TestNew_RejectsUnknownProvider(t *testing.T) {
	cfg := testConfig("http://upstream.invalid")
	cfg.Assistant.Provider = "unknown"

	_, err := New(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported assistant provider")
}

func TestBackend_HandlerServesEndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/":
			w.Write([]byte(`{"results": [{"basic": {"first_name": "Jane", "last_name": "Doe"}, "taxonomies": [{"desc": "Geriatrics"}], "addresses": []}]}`))
		case "/availity/v1/coverages":
			assert.Equal(t, "Bearer tok-fake", r.Header.Get("Authorization"))
			w.Write([]byte(`{"status": "active"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	chat := model.NewMockModel("test", "mock")
	chat.AddToolCalls("find a geriatrician",
		model.ToolCall{ID: "c1", Name: "find_providers", Arguments: json.RawMessage(`{"city": "Temecula", "state": "CA"}`)})

	backend, err := New(testConfig(ts.URL), func(o *Options) {
		o.Chat = chat
		o.Doer = ts.Client()
		o.Tokens = fakeTokens{}
	})
	assert.NoError(t, err)
	h := backend.Handler()

	w := httptest.NewRecorder()
	body := `{"messages": [{"role": "user", "content": "find a geriatrician"}]}`
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat-with-tools", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jane Doe")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/coverage-check", strings.NewReader(`{"memberId": "W1"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "active"}`, w.Body.String())
}

type fakeTokens struct{}

func (fakeTokens) Token(context.Context) (upstream.AccessToken, error) {
	return upstream.AccessToken{Value: "tok-fake"}, nil
}

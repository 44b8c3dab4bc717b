package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scalisek3/CareCompanionAIWebsite/upstream"
)

func newAdapters(ts *httptest.Server) Adapters {
	client := upstream.NewClient(func(o *upstream.ClientOptions) {
		o.Doer = ts.Client()
	})
	return Adapters{
		Providers: upstream.NewProviderDirectory(client, func(o *upstream.ProviderDirectoryOptions) { o.BaseURL = ts.URL }),
		Topics:    upstream.NewHealthTopics(client, func(o *upstream.HealthTopicsOptions) { o.BaseURL = ts.URL }),
		Labels:    upstream.NewDrugLabels(client, func(o *upstream.DrugLabelsOptions) { o.BaseURL = ts.URL }),
		Trials:    upstream.NewClinicalTrials(client, func(o *upstream.ClinicalTrialsOptions) { o.BaseURL = ts.URL }),
	}
}

func TestNewRegistry_CatalogueOrder(t *testing.T) {
	r, err := NewRegistry(Adapters{})
	assert.NoError(t, err)

	var names []string
	for _, tl := range r.Catalogue() {
		names = append(names, tl.Name())
	}
	assert.Equal(t, []string{
		"find_providers",
		"lookup_health_topic",
		"lookup_drug_label",
		"search_clinical_trials",
	}, names)

	// The coverage check is not a model-invocable tool.
	_, ok := r.Lookup("coverage_check")
	assert.False(t, ok)
}

func TestRegistry_SchemasDeclareRequiredFields(t *testing.T) {
	r, err := NewRegistry(Adapters{})
	assert.NoError(t, err)

	find, _ := r.Lookup("find_providers")
	schema := find.Parameters()
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "state")
	assert.Contains(t, props, "keyword")

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"city", "state"}, req)

	for _, name := range []string{"lookup_health_topic", "lookup_drug_label", "search_clinical_trials"} {
		tl, ok := r.Lookup(name)
		assert.True(t, ok, name)
		s := tl.Parameters()
		sreq, _ := s["required"].([]string)
		assert.ElementsMatch(t, []string{"q"}, sreq, name)
	}
}

func TestProviderSearchTool_WrapsResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": [{"basic": {"first_name": "Jane", "last_name": "Doe"}, "taxonomies": [{"desc": "Dermatology"}], "addresses": []}]}`))
	}))
	defer ts.Close()

	r, err := NewRegistry(newAdapters(ts))
	assert.NoError(t, err)
	find, _ := r.Lookup("find_providers")

	result, err := find.Call(context.Background(), map[string]any{"city": "Temecula", "state": "CA"})
	assert.NoError(t, err)

	wrapped, ok := result.(map[string]any)
	assert.True(t, ok)
	records, ok := wrapped["providers"].([]upstream.ProviderRecord)
	assert.True(t, ok)
	assert.Len(t, records, 1)
	assert.Equal(t, "Jane Doe", records[0].Name)
}

func TestHealthTopicTool_ReturnsSummary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Result": {"Resources": {"Resource": []}}}`))
	}))
	defer ts.Close()

	r, err := NewRegistry(newAdapters(ts))
	assert.NoError(t, err)
	topic, _ := r.Lookup("lookup_health_topic")

	result, err := topic.Call(context.Background(), map[string]any{"q": "nothing"})
	assert.NoError(t, err)

	summary, ok := result.(upstream.TopicSummary)
	assert.True(t, ok)
	assert.Equal(t, upstream.PlaceholderTopicSummary, summary.Summary)
}

func TestTrialsSearchTool_WrapsResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"studies": [{"protocolSection": {"identificationModule": {"nctId": "NCT1", "briefTitle": "T"}}}]}`))
	}))
	defer ts.Close()

	r, err := NewRegistry(newAdapters(ts))
	assert.NoError(t, err)
	search, _ := r.Lookup("search_clinical_trials")

	result, err := search.Call(context.Background(), map[string]any{"q": "cancer"})
	assert.NoError(t, err)

	wrapped, ok := result.(map[string]any)
	assert.True(t, ok)
	assert.Len(t, wrapped["trials"].([]upstream.TrialRecord), 1)
}

// Package catalog defines the fixed set of model-invocable tools and builds
// the registry advertised to the chat model. Four tools exist: provider
// directory search, health-topic lookup, drug-label lookup, and
// clinical-trials search. The coverage check is deliberately absent — it
// accepts an opaque structured payload unsuitable for free-form
// model-generated arguments and is exposed as a direct endpoint instead.
package catalog

import (
	"context"

	"github.com/scalisek3/CareCompanionAIWebsite/internal/util"
	"github.com/scalisek3/CareCompanionAIWebsite/tool"
	"github.com/scalisek3/CareCompanionAIWebsite/upstream"
)

// Adapters aggregates the upstream clients the catalogue wraps.
type Adapters struct {
	Providers *upstream.ProviderDirectory
	Topics    *upstream.HealthTopics
	Labels    *upstream.DrugLabels
	Trials    *upstream.ClinicalTrials
}

// NewRegistry builds the immutable tool registry in its advertised order.
func NewRegistry(a Adapters) (*tool.Registry, error) {
	return tool.NewRegistry(
		&providerSearchTool{adapter: a.Providers},
		&healthTopicTool{adapter: a.Topics},
		&drugLabelTool{adapter: a.Labels},
		&trialsSearchTool{adapter: a.Trials},
	)
}

// stringArg returns the named argument as a trimmed string; validation has
// already guaranteed type and presence for required fields.
func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// ---- provider directory search ----

type providerSearchArgs struct {
	City    string  `json:"city" description:"City name"`
	State   string  `json:"state" description:"2-letter state code"`
	Keyword *string `json:"keyword,omitempty" description:"Case-insensitive specialty filter, e.g. 'cardiology'"`
}

type providerSearchTool struct {
	adapter *upstream.ProviderDirectory
}

func (t *providerSearchTool) Name() string { return "find_providers" }

func (t *providerSearchTool) Description() string {
	return "Search the national provider directory for healthcare providers by city and state, optionally filtered by specialty keyword"
}

func (t *providerSearchTool) Parameters() map[string]any {
	return util.CreateSchema(providerSearchArgs{})
}

func (t *providerSearchTool) Call(ctx context.Context, args map[string]any) (any, error) {
	records, err := t.adapter.Search(ctx,
		stringArg(args, "city"),
		stringArg(args, "state"),
		stringArg(args, "keyword"),
	)
	if err != nil {
		return nil, err
	}
	return map[string]any{"providers": records}, nil
}

// ---- health-topic lookup ----

type healthTopicArgs struct {
	Q string `json:"q" description:"Health topic to look up, e.g. 'diabetes'"`
}

type healthTopicTool struct {
	adapter *upstream.HealthTopics
}

func (t *healthTopicTool) Name() string { return "lookup_health_topic" }

func (t *healthTopicTool) Description() string {
	return "Look up a plain-language summary of a health topic"
}

func (t *healthTopicTool) Parameters() map[string]any {
	return util.CreateSchema(healthTopicArgs{})
}

func (t *healthTopicTool) Call(ctx context.Context, args map[string]any) (any, error) {
	summary, err := t.adapter.Lookup(ctx, stringArg(args, "q"))
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ---- drug-label lookup ----

type drugLabelArgs struct {
	Q string `json:"q" description:"Drug brand name, e.g. 'Lipitor'"`
}

type drugLabelTool struct {
	adapter *upstream.DrugLabels
}

func (t *drugLabelTool) Name() string { return "lookup_drug_label" }

func (t *drugLabelTool) Description() string {
	return "Look up FDA label information for a drug by brand name"
}

func (t *drugLabelTool) Parameters() map[string]any {
	return util.CreateSchema(drugLabelArgs{})
}

func (t *drugLabelTool) Call(ctx context.Context, args map[string]any) (any, error) {
	records, err := t.adapter.Lookup(ctx, stringArg(args, "q"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": records}, nil
}

// ---- clinical-trials search ----

type trialsSearchArgs struct {
	Q string `json:"q" description:"Condition or keyword, e.g. 'breast cancer'"`
}

type trialsSearchTool struct {
	adapter *upstream.ClinicalTrials
}

func (t *trialsSearchTool) Name() string { return "search_clinical_trials" }

func (t *trialsSearchTool) Description() string {
	return "Search the clinical trials registry for studies matching a condition or keyword"
}

func (t *trialsSearchTool) Parameters() map[string]any {
	return util.CreateSchema(trialsSearchArgs{})
}

func (t *trialsSearchTool) Call(ctx context.Context, args map[string]any) (any, error) {
	records, err := t.adapter.Search(ctx, stringArg(args, "q"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"trials": records}, nil
}

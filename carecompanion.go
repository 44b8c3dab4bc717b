// Package carecompanion provides the high-level façade wiring configuration
// into the assembled backend: the chat model backend, the upstream adapter
// clients, the tool registry and dispatcher, and the conversation assistant.
// The server binary interacts with this package by:
//  1. Loading a config.Config
//  2. Creating a Backend via New() (optionally injecting fakes for tests)
//  3. Mounting Backend.Handler() behind the HTTP server
//
// All clients are constructed once at startup and shared across requests;
// there is no hidden process-wide mutable state.
package carecompanion

import (
	"fmt"
	"net/http"
	"time"

	"github.com/scalisek3/CareCompanionAIWebsite/assistant"
	"github.com/scalisek3/CareCompanionAIWebsite/catalog"
	"github.com/scalisek3/CareCompanionAIWebsite/config"
	"github.com/scalisek3/CareCompanionAIWebsite/logging"
	"github.com/scalisek3/CareCompanionAIWebsite/model"
	"github.com/scalisek3/CareCompanionAIWebsite/model/anthropic"
	"github.com/scalisek3/CareCompanionAIWebsite/model/openai"
	"github.com/scalisek3/CareCompanionAIWebsite/server"
	"github.com/scalisek3/CareCompanionAIWebsite/tool"
	"github.com/scalisek3/CareCompanionAIWebsite/upstream"
)

// Options allow injecting alternatives for the pieces New would otherwise
// construct from config. Used by tests to substitute fakes.
type Options struct {
	// Chat overrides the configured model backend.
	Chat model.Model
	// Doer overrides the HTTP client shared by all upstream adapters.
	Doer upstream.Doer
	// Tokens overrides the Availity token provider.
	Tokens upstream.TokenProvider
	Logger logging.Logger
}

// Backend aggregates every constructed component of the assistant service.
type Backend struct {
	cfg        *config.Config
	chat       model.Model
	registry   *tool.Registry
	dispatcher *tool.Dispatcher
	assistant  *assistant.Assistant

	providers *upstream.ProviderDirectory
	topics    *upstream.HealthTopics
	labels    *upstream.DrugLabels
	trials    *upstream.ClinicalTrials
	coverage  *upstream.Coverage

	logger logging.Logger
}

// New builds the backend from configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Backend, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	chat := opts.Chat
	if chat == nil {
		var err error
		if chat, err = newChatModel(cfg.Assistant); err != nil {
			return nil, err
		}
	}

	newClient := func(u config.UpstreamConfig) *upstream.Client {
		return upstream.NewClient(func(o *upstream.ClientOptions) {
			o.Doer = opts.Doer
			o.Timeout = config.Duration(u.Timeout, o.Timeout)
			o.RateLimit = u.RateLimit
			o.Burst = u.Burst
			o.Logger = opts.Logger
		})
	}

	providers := upstream.NewProviderDirectory(newClient(cfg.Upstreams.NPI), func(o *upstream.ProviderDirectoryOptions) {
		if cfg.Upstreams.NPI.BaseURL != "" {
			o.BaseURL = cfg.Upstreams.NPI.BaseURL
		}
		o.Limit = cfg.Upstreams.NPI.Limit
	})
	topics := upstream.NewHealthTopics(newClient(cfg.Upstreams.Healthfinder), func(o *upstream.HealthTopicsOptions) {
		if cfg.Upstreams.Healthfinder.BaseURL != "" {
			o.BaseURL = cfg.Upstreams.Healthfinder.BaseURL
		}
	})
	labels := upstream.NewDrugLabels(newClient(cfg.Upstreams.OpenFDA), func(o *upstream.DrugLabelsOptions) {
		if cfg.Upstreams.OpenFDA.BaseURL != "" {
			o.BaseURL = cfg.Upstreams.OpenFDA.BaseURL
		}
		o.Limit = cfg.Upstreams.OpenFDA.Limit
	})
	trials := upstream.NewClinicalTrials(newClient(cfg.Upstreams.Trials), func(o *upstream.ClinicalTrialsOptions) {
		if cfg.Upstreams.Trials.BaseURL != "" {
			o.BaseURL = cfg.Upstreams.Trials.BaseURL
		}
		o.PageSize = cfg.Upstreams.Trials.Limit
	})

	availityClient := upstream.NewClient(func(o *upstream.ClientOptions) {
		o.Doer = opts.Doer
		o.Timeout = config.Duration(cfg.Availity.Timeout, 20*time.Second)
		o.Logger = opts.Logger
	})
	tokens := opts.Tokens
	if tokens == nil {
		tokens = newTokenProvider(availityClient, cfg.Availity)
	}
	coverage := upstream.NewCoverage(availityClient, tokens, func(o *upstream.CoverageOptions) {
		if cfg.Availity.BaseURL != "" {
			o.BaseURL = cfg.Availity.BaseURL
		}
	})

	registry, err := catalog.NewRegistry(catalog.Adapters{
		Providers: providers,
		Topics:    topics,
		Labels:    labels,
		Trials:    trials,
	})
	if err != nil {
		return nil, err
	}

	dispatcher := tool.NewDispatcher(registry, func(o *tool.DispatcherOptions) {
		o.Logger = opts.Logger
	})

	asst := assistant.New(chat, dispatcher, registry, func(o *assistant.Options) {
		if cfg.Assistant.SystemPrompt != "" {
			o.SystemPrompt = cfg.Assistant.SystemPrompt
		}
		o.Temperature = cfg.Assistant.Temperature
		o.MaxTokens = cfg.Assistant.MaxTokens
		o.ResultFeedback = cfg.Assistant.ResultFeedback
		o.Logger = opts.Logger
	})

	return &Backend{
		cfg:        cfg,
		chat:       chat,
		registry:   registry,
		dispatcher: dispatcher,
		assistant:  asst,
		providers:  providers,
		topics:     topics,
		labels:     labels,
		trials:     trials,
		coverage:   coverage,
		logger:     opts.Logger,
	}, nil
}

// newChatModel selects the configured provider backend.
func newChatModel(cfg config.AssistantConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unsupported assistant provider %q", cfg.Provider)
	}
}

// newTokenProvider builds the client-credentials provider, wrapped in a
// cache when configured.
func newTokenProvider(client *upstream.Client, cfg config.AvailityConfig) upstream.TokenProvider {
	var provider upstream.TokenProvider = upstream.NewClientCredentialsProvider(
		client, cfg.ClientID, cfg.ClientSecret,
		func(o *upstream.ClientCredentialsOptions) {
			if cfg.TokenURL != "" {
				o.TokenURL = cfg.TokenURL
			}
			if cfg.Scope != "" {
				o.Scope = cfg.Scope
			}
		},
	)
	if cfg.CacheToken {
		provider = upstream.NewCachingTokenProvider(provider, config.Duration(cfg.RefreshMargin, 0))
	}
	return provider
}

// Assistant returns the conversation assembler.
func (b *Backend) Assistant() *assistant.Assistant { return b.assistant }

// Registry returns the immutable tool catalogue.
func (b *Backend) Registry() *tool.Registry { return b.registry }

// Dispatcher returns the function-call dispatcher.
func (b *Backend) Dispatcher() *tool.Dispatcher { return b.dispatcher }

// Handler returns the fully wired HTTP handler for this backend.
func (b *Backend) Handler() http.Handler {
	return server.New(server.Config{
		Assistant:      b.assistant,
		Providers:      b.providers,
		Topics:         b.topics,
		Labels:         b.labels,
		Trials:         b.trials,
		Coverage:       b.coverage,
		AllowedOrigins: b.cfg.Server.AllowedOrigins,
		RequestTimeout: config.Duration(b.cfg.Server.RequestTimeout, 0),
		MaxBodyBytes:   b.cfg.Server.MaxBodyBytes,
		Logger:         b.logger,
	}).Handler()
}

package upstream

import (
	"context"
	"net/url"
	"strings"
)

// DefaultHealthfinderBaseURL is the public MyHealthfinder endpoint.
const DefaultHealthfinderBaseURL = "https://odphp.health.gov"

// PlaceholderTopicSummary is returned when the upstream feed has no entry for
// the queried term.
const PlaceholderTopicSummary = "No health topic information is available for that term."

// TopicSummary is the normalized health-topic result. Summary is never empty;
// an empty upstream feed yields PlaceholderTopicSummary.
type TopicSummary struct {
	Summary string `json:"summary"`
}

// HealthTopicsOptions configure a HealthTopics adapter.
type HealthTopicsOptions struct {
	BaseURL string
}

// HealthTopics queries the MyHealthfinder topic search by free-text term and
// reduces the feed to its first summary entry.
type HealthTopics struct {
	client *Client
	opts   HealthTopicsOptions
}

// NewHealthTopics creates the adapter over the shared client.
func NewHealthTopics(client *Client, optFns ...func(o *HealthTopicsOptions)) *HealthTopics {
	opts := HealthTopicsOptions{BaseURL: DefaultHealthfinderBaseURL}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HealthTopics{client: client, opts: opts}
}

// healthfinderResponse mirrors the subset of the topicsearch payload read here.
// Field casing follows the upstream feed.
type healthfinderResponse struct {
	Result struct {
		Resources struct {
			Resource []struct {
				Title    string `json:"Title"`
				Sections struct {
					Section []struct {
						Title       string `json:"Title"`
						Description string `json:"Description"`
						Content     string `json:"Content"`
					} `json:"section"`
				} `json:"Sections"`
			} `json:"Resource"`
		} `json:"Resources"`
	} `json:"Result"`
}

// Lookup returns the first summary for the term, or the defined placeholder
// when the feed is empty. Two lookups of the same term against an unchanged
// upstream return identical summaries.
func (h *HealthTopics) Lookup(ctx context.Context, term string) (TopicSummary, error) {
	endpoint := strings.TrimRight(h.opts.BaseURL, "/") +
		"/myhealthfinder/api/v3/topicsearch.json?keyword=" + url.QueryEscape(term)

	var body healthfinderResponse
	if err := h.client.getJSON(ctx, "lookup_health_topic", endpoint, &body); err != nil {
		return TopicSummary{}, err
	}

	for _, res := range body.Result.Resources.Resource {
		for _, sec := range res.Sections.Section {
			text := sec.Description
			if text == "" {
				text = sec.Content
			}
			if text == "" {
				continue
			}
			if res.Title != "" {
				return TopicSummary{Summary: res.Title + ": " + text}, nil
			}
			return TopicSummary{Summary: text}, nil
		}
		if res.Title != "" {
			return TopicSummary{Summary: res.Title}, nil
		}
	}
	return TopicSummary{Summary: PlaceholderTopicSummary}, nil
}

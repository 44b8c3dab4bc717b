package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultOpenFDABaseURL is the public openFDA endpoint.
const DefaultOpenFDABaseURL = "https://api.fda.gov"

// dailyMedLabelURL is the browsable label page derived from an SPL set id.
const dailyMedLabelURL = "https://dailymed.nlm.nih.gov/dailymed/drugInfo.cfm?setid=%s"

// DrugLabelRecord is a normalized drug label entry. Title and URL are always
// non-empty; placeholders stand in when the label carries no usable value.
type DrugLabelRecord struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DrugLabelsOptions configure a DrugLabels adapter.
type DrugLabelsOptions struct {
	BaseURL string
	// Limit bounds the label count per lookup; the upstream result is capped
	// at this many records.
	Limit int
}

// DrugLabels queries the openFDA drug-label database by brand name.
type DrugLabels struct {
	client *Client
	opts   DrugLabelsOptions
}

// NewDrugLabels creates the adapter over the shared client.
func NewDrugLabels(client *Client, optFns ...func(o *DrugLabelsOptions)) *DrugLabels {
	opts := DrugLabelsOptions{
		BaseURL: DefaultOpenFDABaseURL,
		Limit:   3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &DrugLabels{client: client, opts: opts}
}

// openFDAResponse mirrors the subset of the label payload read here.
type openFDAResponse struct {
	Results []struct {
		SetID   string `json:"set_id"`
		OpenFDA struct {
			BrandName   []string `json:"brand_name"`
			GenericName []string `json:"generic_name"`
		} `json:"openfda"`
	} `json:"results"`
}

// Lookup searches labels whose brand name matches the query, capped at the
// configured limit. Titles fall back from brand to generic name; the URL is
// derived from the SPL set id when present.
func (d *DrugLabels) Lookup(ctx context.Context, query string) ([]DrugLabelRecord, error) {
	search := url.QueryEscape(fmt.Sprintf("openfda.brand_name:%q", query))
	endpoint := fmt.Sprintf("%s/drug/label.json?search=%s&limit=%d",
		strings.TrimRight(d.opts.BaseURL, "/"), search, d.opts.Limit)

	var body openFDAResponse
	if err := d.client.getJSON(ctx, "lookup_drug_label", endpoint, &body); err != nil {
		return nil, err
	}

	results := body.Results
	if len(results) > d.opts.Limit {
		results = results[:d.opts.Limit]
	}

	records := make([]DrugLabelRecord, 0, len(results))
	for _, r := range results {
		rec := DrugLabelRecord{
			Title: PlaceholderUnavailable,
			URL:   PlaceholderUnavailable,
		}
		if len(r.OpenFDA.BrandName) > 0 && r.OpenFDA.BrandName[0] != "" {
			rec.Title = r.OpenFDA.BrandName[0]
		} else if len(r.OpenFDA.GenericName) > 0 && r.OpenFDA.GenericName[0] != "" {
			rec.Title = r.OpenFDA.GenericName[0]
		}
		if r.SetID != "" {
			rec.URL = fmt.Sprintf(dailyMedLabelURL, url.QueryEscape(r.SetID))
		}
		records = append(records, rec)
	}
	return records, nil
}

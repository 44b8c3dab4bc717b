package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultTrialsBaseURL is the public ClinicalTrials.gov v2 endpoint.
const DefaultTrialsBaseURL = "https://clinicaltrials.gov"

// trialStudyURL is the browsable study page derived from a registry id.
const trialStudyURL = "https://clinicaltrials.gov/study/%s"

// TrialRecord is a normalized clinical trial entry. Title and URL are always
// non-empty; placeholders stand in when the study record omits them.
type TrialRecord struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ClinicalTrialsOptions configure a ClinicalTrials adapter.
type ClinicalTrialsOptions struct {
	BaseURL string
	// PageSize bounds the study count per search.
	PageSize int
}

// ClinicalTrials queries the trials registry by condition or keyword and
// derives a browsable URL per trial from its registry identifier.
type ClinicalTrials struct {
	client *Client
	opts   ClinicalTrialsOptions
}

// NewClinicalTrials creates the adapter over the shared client.
func NewClinicalTrials(client *Client, optFns ...func(o *ClinicalTrialsOptions)) *ClinicalTrials {
	opts := ClinicalTrialsOptions{
		BaseURL:  DefaultTrialsBaseURL,
		PageSize: 5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ClinicalTrials{client: client, opts: opts}
}

// trialsResponse mirrors the subset of the v2 studies payload read here.
type trialsResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}

// Search returns up to PageSize trials matching the term.
func (c *ClinicalTrials) Search(ctx context.Context, term string) ([]TrialRecord, error) {
	q := url.Values{}
	q.Set("query.term", term)
	q.Set("pageSize", fmt.Sprintf("%d", c.opts.PageSize))

	endpoint := fmt.Sprintf("%s/api/v2/studies?%s", strings.TrimRight(c.opts.BaseURL, "/"), q.Encode())

	var body trialsResponse
	if err := c.client.getJSON(ctx, "search_clinical_trials", endpoint, &body); err != nil {
		return nil, err
	}

	records := make([]TrialRecord, 0, len(body.Studies))
	for _, s := range body.Studies {
		ident := s.ProtocolSection.IdentificationModule
		rec := TrialRecord{
			Title: PlaceholderUnavailable,
			URL:   PlaceholderUnavailable,
		}
		if ident.BriefTitle != "" {
			rec.Title = ident.BriefTitle
		}
		if ident.NCTID != "" {
			rec.URL = fmt.Sprintf(trialStudyURL, url.PathEscape(ident.NCTID))
		}
		records = append(records, rec)
	}
	return records, nil
}

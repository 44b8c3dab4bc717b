package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Placeholders substituted for missing upstream sub-fields so every record is
// fully populated. Normalization is mandatory, not best-effort.
const (
	PlaceholderUnavailable = "N/A"
	PlaceholderSpecialty   = "Unknown"
)

// DefaultNPIBaseURL is the public NPI registry endpoint.
const DefaultNPIBaseURL = "https://npiregistry.cms.hhs.gov"

// ProviderRecord is a normalized provider directory entry. All fields are
// always non-empty; placeholders stand in for missing upstream data.
type ProviderRecord struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// ProviderDirectoryOptions configure a ProviderDirectory adapter.
type ProviderDirectoryOptions struct {
	BaseURL string
	// Limit bounds how many registry entries one search requests.
	Limit int
}

// ProviderDirectory searches the national NPI registry by city and state and
// maps each upstream entry to a ProviderRecord.
type ProviderDirectory struct {
	client *Client
	opts   ProviderDirectoryOptions
}

// NewProviderDirectory creates the adapter over the shared client.
func NewProviderDirectory(client *Client, optFns ...func(o *ProviderDirectoryOptions)) *ProviderDirectory {
	opts := ProviderDirectoryOptions{
		BaseURL: DefaultNPIBaseURL,
		Limit:   10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ProviderDirectory{client: client, opts: opts}
}

// npiResponse mirrors the subset of the registry payload the adapter reads.
type npiResponse struct {
	Results []struct {
		Basic struct {
			Name      string `json:"name"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"basic"`
		Taxonomies []struct {
			Desc string `json:"desc"`
		} `json:"taxonomies"`
		Addresses []struct {
			Address1        string `json:"address_1"`
			City            string `json:"city"`
			State           string `json:"state"`
			TelephoneNumber string `json:"telephone_number"`
		} `json:"addresses"`
	} `json:"results"`
}

// Search queries the registry by city/state. When keyword is non-empty the
// result is filtered to records whose specialty contains it
// case-insensitively. A legitimate zero-match search returns an empty slice,
// not an error.
func (p *ProviderDirectory) Search(ctx context.Context, city, state, keyword string) ([]ProviderRecord, error) {
	q := url.Values{}
	q.Set("version", "2.1")
	q.Set("city", city)
	q.Set("state", state)
	q.Set("limit", fmt.Sprintf("%d", p.opts.Limit))

	endpoint := fmt.Sprintf("%s/api/?%s", strings.TrimRight(p.opts.BaseURL, "/"), q.Encode())

	var body npiResponse
	if err := p.client.getJSON(ctx, "find_providers", endpoint, &body); err != nil {
		return nil, err
	}

	records := make([]ProviderRecord, 0, len(body.Results))
	for _, r := range body.Results {
		rec := ProviderRecord{
			Name:      providerName(r.Basic.Name, r.Basic.FirstName, r.Basic.LastName),
			Specialty: PlaceholderSpecialty,
			Phone:     PlaceholderUnavailable,
			Address:   PlaceholderUnavailable,
		}
		if len(r.Taxonomies) > 0 && r.Taxonomies[0].Desc != "" {
			rec.Specialty = r.Taxonomies[0].Desc
		}
		if len(r.Addresses) > 0 {
			addr := r.Addresses[0]
			if addr.TelephoneNumber != "" {
				rec.Phone = addr.TelephoneNumber
			}
			if line := joinAddress(addr.Address1, addr.City, addr.State); line != "" {
				rec.Address = line
			}
		}

		if keyword != "" && !strings.Contains(strings.ToLower(rec.Specialty), strings.ToLower(keyword)) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// providerName prefers the organization name, then the individual name.
func providerName(org, first, last string) string {
	if org != "" {
		return org
	}
	full := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if full == "" {
		return PlaceholderUnavailable
	}
	return full
}

// joinAddress composes "street, city, state" from whatever parts exist.
func joinAddress(parts ...string) string {
	present := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			present = append(present, strings.TrimSpace(p))
		}
	}
	return strings.Join(present, ", ")
}

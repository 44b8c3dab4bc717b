// Package upstream wraps the external REST APIs the assistant can reach:
// the NPI provider registry, the MyHealthfinder health-topic service, the
// openFDA drug-label database, the ClinicalTrials.gov study registry, and the
// Availity coverage API together with its OAuth2 token endpoint.
//
// Each adapter owns the URL building and field mapping for exactly one
// upstream and normalizes its response into a fully-populated record shape:
// missing sub-fields are substituted with defined placeholders, never left
// empty. A non-2xx status or an unparseable body is surfaced uniformly as a
// *tool.Error of kind UpstreamError carrying the upstream status for
// diagnostics, never the raw transport error.
//
// Adapters share a Client that injects the HTTP Doer (testable with fakes),
// applies optional rate limiting, and performs the error classification once.
package upstream

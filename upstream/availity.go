package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/scalisek3/CareCompanionAIWebsite/tool"
)

// Availity endpoint defaults.
const (
	DefaultAvailityBaseURL  = "https://api.availity.com"
	DefaultAvailityTokenURL = "https://api.availity.com/availity/v1/token"
	DefaultAvailityScope    = "hipaa"
)

// coverageChannel names the coverage capability in errors and logs. The
// coverage check is a direct endpoint, not a model-invocable tool.
const coverageChannel = "coverage_check"

// AccessToken is a bearer credential obtained from the token endpoint. It is
// owned exclusively by the token provider; no other component stores it.
type AccessToken struct {
	Value      string
	ObtainedAt time.Time
	TTL        time.Duration
}

// Remaining reports the lifetime left at now.
func (t AccessToken) Remaining(now time.Time) time.Duration {
	return t.TTL - now.Sub(t.ObtainedAt)
}

// Fresh reports whether the token still has at least margin of lifetime left.
func (t AccessToken) Fresh(now time.Time, margin time.Duration) bool {
	return t.Value != "" && t.Remaining(now) > margin
}

// TokenProvider yields a bearer token usable for one authenticated call.
type TokenProvider interface {
	Token(ctx context.Context) (AccessToken, error)
}

// ClientCredentialsOptions configure a ClientCredentialsProvider.
type ClientCredentialsOptions struct {
	TokenURL string
	Scope    string
}

// ClientCredentialsProvider performs the OAuth2 client-credentials exchange:
// client id/secret as HTTP basic credentials, fixed scope, grant type fixed
// to client_credentials. Every Token call performs a fresh exchange; wrap in
// a CachingTokenProvider to reuse tokens across calls.
type ClientCredentialsProvider struct {
	client       *Client
	clientID     string
	clientSecret string
	opts         ClientCredentialsOptions
}

// NewClientCredentialsProvider creates the provider over the shared client.
func NewClientCredentialsProvider(client *Client, clientID, clientSecret string, optFns ...func(o *ClientCredentialsOptions)) *ClientCredentialsProvider {
	opts := ClientCredentialsOptions{
		TokenURL: DefaultAvailityTokenURL,
		Scope:    DefaultAvailityScope,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ClientCredentialsProvider{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		opts:         opts,
	}
}

// tokenResponse mirrors the token endpoint body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token performs the exchange. A non-2xx response or an unusable body yields
// an AuthError carrying the upstream status.
func (p *ClientCredentialsProvider) Token(ctx context.Context) (AccessToken, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", p.opts.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, tool.NewAuthError(coverageChannel, fmt.Sprintf("build token request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.clientID, p.clientSecret)

	resp, err := p.client.do(ctx, coverageChannel, req)
	if err != nil {
		return AccessToken{}, tool.NewAuthError(coverageChannel, fmt.Sprintf("token request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return AccessToken{}, tool.NewAuthError(coverageChannel,
			fmt.Sprintf("token exchange failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&tr); err != nil {
		return AccessToken{}, tool.NewAuthError(coverageChannel, fmt.Sprintf("decode token response: %v", err))
	}
	if tr.AccessToken == "" {
		return AccessToken{}, tool.NewAuthError(coverageChannel, "token response carried no access token")
	}

	return AccessToken{
		Value:      tr.AccessToken,
		ObtainedAt: time.Now(),
		TTL:        time.Duration(tr.ExpiresIn) * time.Second,
	}, nil
}

// CachingTokenProvider reuses a token across calls, refreshing once when the
// remaining lifetime drops below the margin. The mutex enforces read-many /
// refresh-once discipline under concurrent requests.
type CachingTokenProvider struct {
	source TokenProvider
	margin time.Duration
	now    func() time.Time

	mu      sync.Mutex
	current AccessToken
}

// NewCachingTokenProvider wraps a provider with caching. margin <= 0 defaults
// to 60 seconds.
func NewCachingTokenProvider(source TokenProvider, margin time.Duration) *CachingTokenProvider {
	if margin <= 0 {
		margin = 60 * time.Second
	}
	return &CachingTokenProvider{source: source, margin: margin, now: time.Now}
}

// Token returns the cached token while it is fresh, otherwise refreshes
// through the underlying provider. Concurrent callers racing on an expired
// token trigger a single refresh.
func (c *CachingTokenProvider) Token(ctx context.Context) (AccessToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Fresh(c.now(), c.margin) {
		return c.current, nil
	}

	token, err := c.source.Token(ctx)
	if err != nil {
		return AccessToken{}, err
	}
	c.current = token
	return token, nil
}

// CoverageOptions configure a Coverage adapter.
type CoverageOptions struct {
	BaseURL string
}

// Coverage forwards an opaque caller-supplied payload to the Availity
// coverage endpoint with a bearer token attached. The payload shape is
// externally defined and passes through unchanged in both directions.
type Coverage struct {
	client *Client
	tokens TokenProvider
	opts   CoverageOptions
}

// NewCoverage creates the adapter over the shared client and token provider.
func NewCoverage(client *Client, tokens TokenProvider, optFns ...func(o *CoverageOptions)) *Coverage {
	opts := CoverageOptions{BaseURL: DefaultAvailityBaseURL}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coverage{client: client, tokens: tokens, opts: opts}
}

// Check obtains a token, then posts the payload verbatim. A token failure
// aborts before the coverage call; the upstream is never reached with an
// absent or empty token.
func (c *Coverage) Check(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token.Value == "" {
		return nil, tool.NewAuthError(coverageChannel, "token provider returned an empty token")
	}

	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + "/availity/v1/coverages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, tool.NewUpstreamError(coverageChannel, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.client.do(ctx, coverageChannel, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(coverageChannel, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, tool.NewUpstreamError(coverageChannel, fmt.Sprintf("read response: %v", err))
	}
	return json.RawMessage(body), nil
}

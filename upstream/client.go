package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/scalisek3/CareCompanionAIWebsite/logging"
	"github.com/scalisek3/CareCompanionAIWebsite/tool"
)

// Doer executes HTTP requests. *http.Client satisfies it; tests substitute
// fakes or httptest-backed clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxBodyBytes caps how much of an upstream response is read. Upstream feeds
// are small; anything larger indicates a misbehaving endpoint.
const maxBodyBytes = 4 << 20

// ClientOptions configure a Client.
type ClientOptions struct {
	// Doer executes requests. Defaults to an *http.Client with Timeout.
	Doer Doer
	// Timeout bounds each call when the default Doer is used.
	Timeout time.Duration
	// RateLimit is requests per second against this upstream; 0 disables
	// client-side limiting.
	RateLimit float64
	// Burst is the limiter burst size when RateLimit is set.
	Burst  int
	Logger logging.Logger
}

// Client is the shared HTTP core for all upstream adapters. One Client is
// created per upstream so rate limits apply independently.
type Client struct {
	doer    Doer
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewClient creates a Client with the given options.
func NewClient(optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		Timeout: 15 * time.Second,
		Burst:   1,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Doer == nil {
		opts.Doer = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{doer: opts.Doer, logger: opts.Logger}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// do waits for limiter clearance, executes the request, and classifies the
// outcome. channel names the capability on error ("find_providers",
// "coverage_check", ...). Callers own closing the returned body.
func (c *Client) do(ctx context.Context, channel string, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, tool.NewUpstreamError(channel, fmt.Sprintf("rate limiter: %v", err))
		}
	}

	start := time.Now()
	resp, err := c.doer.Do(req.WithContext(ctx))
	if err != nil {
		c.logger.Error("upstream.request_failed", "channel", channel, "url", req.URL.Redacted(), "error", err.Error())
		return nil, tool.NewUpstreamError(channel, fmt.Sprintf("request failed: %v", err))
	}

	c.logger.Debug("upstream.request",
		"channel", channel,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// getJSON performs a GET and decodes a JSON body into out, converting any
// failure into an UpstreamError for the channel.
func (c *Client) getJSON(ctx context.Context, channel, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return tool.NewUpstreamError(channel, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, channel, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(channel, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return tool.NewUpstreamError(channel, fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

// checkStatus converts a non-2xx response into an UpstreamError carrying the
// status code and a bounded slice of the body for diagnostics.
func checkStatus(channel string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return tool.NewUpstreamError(channel, fmt.Sprintf("upstream status %d: %s", resp.StatusCode, string(body)))
}

package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"issuemap_backend/platform/config"

	"golang.org/x/time/rate"
)

// FailureClass distinguishes the ways an upstream request can fail.
type FailureClass int

const (
	// FailureTimeout covers request timeouts and transport-level errors.
	FailureTimeout FailureClass = iota
	// FailureHTTP covers non-2xx upstream status codes.
	FailureHTTP
	// FailureMalformed covers non-JSON or truncated response bodies.
	FailureMalformed
	// FailureUpstream covers provider-reported error payloads.
	FailureUpstream
)

// String returns the failure class name used in structured logs.
func (c FailureClass) String() string {
	switch c {
	case FailureTimeout:
		return "timeout"
	case FailureHTTP:
		return "http_error"
	case FailureMalformed:
		return "malformed"
	case FailureUpstream:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Failure is the structured outcome of a failed upstream request. The
// resolver decides whether to advance to the next endpoint; a Failure is
// never surfaced past the resolver.
type Failure struct {
	Class   FailureClass
	Status  int
	Message string
	Elapsed time.Duration
	Err     error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", f.Class, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Class, f.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (f *Failure) Unwrap() error {
	return f.Err
}

// maxBody caps how much of an upstream response is read.
const maxBody = 1 << 20

// Client performs single requests against one upstream endpoint with a
// bounded timeout. It attaches the identifying header required by the
// upstream usage policy and enforces a minimum inter-request spacing per
// upstream host to avoid being blocked (HTTP 403/429).
type Client struct {
	httpClient     *http.Client
	userAgent      string
	acceptLanguage string
	spacing        time.Duration

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewClient creates a provider client from the geocoding profile.
func NewClient(profile config.GeocodeProfile) *Client {
	return &Client{
		httpClient:     &http.Client{},
		userAgent:      profile.UserAgent,
		acceptLanguage: profile.AcceptLanguage,
		spacing:        profile.HostSpacing,
		hosts:          make(map[string]*rate.Limiter),
	}
}

// Fetch performs one GET against endpoint with the given query parameters
// and timeout. Ordinary network conditions are reported as a typed
// *Failure, never as a panic or a raw transport error.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values, timeout time.Duration) ([]byte, *Failure) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, &Failure{Class: FailureMalformed, Message: "invalid endpoint URL", Err: err}
	}

	if err := c.hostLimiter(parsed.Host).Wait(ctx); err != nil {
		return nil, &Failure{Class: FailureTimeout, Message: "cancelled while waiting for rate limit", Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Failure{Class: FailureMalformed, Message: "failed to build request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", c.acceptLanguage)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		message := "request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "request timed out"
		}
		return nil, &Failure{Class: FailureTimeout, Message: message, Elapsed: time.Since(start), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{Class: FailureHTTP, Status: resp.StatusCode, Message: "upstream returned non-2xx status", Elapsed: time.Since(start)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &Failure{Class: FailureMalformed, Message: "failed to read body", Elapsed: time.Since(start), Err: err}
	}

	if !json.Valid(body) {
		return nil, &Failure{Class: FailureMalformed, Message: "non-JSON response body", Elapsed: time.Since(start)}
	}

	if message, reported := providerError(body); reported {
		return nil, &Failure{Class: FailureUpstream, Message: message, Elapsed: time.Since(start)}
	}

	return body, nil
}

// providerError detects the provider's in-band error reporting: an
// object body carrying an "error" field, or an entirely empty object.
func providerError(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}

	var probe struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return "", false
	}
	if probe.Error != nil {
		return fmt.Sprint(probe.Error), true
	}
	if bytes.Equal(trimmed, []byte("{}")) {
		return "empty response object", true
	}
	return "", false
}

func (c *Client) hostLimiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.hosts[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.spacing), 1)
		c.hosts[host] = limiter
	}
	return limiter
}

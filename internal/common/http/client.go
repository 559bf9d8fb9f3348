// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Options configures an outbound HTTP client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// RequestsPerSecond of 0 disables client-side rate limiting.
	RequestsPerSecond float64
	Burst             int
	// MaxBodyBytes caps how much of a response body Fetch reads. 0 means no cap.
	MaxBodyBytes int64
	Transport    http.RoundTripper
}

// Client is a rate-limited HTTP client shared by outbound integrations.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxBody    int64
}

// Response is a fully read response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	FinalURL    string
}

func NewClient(opts Options) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// Do sends req after waiting for the rate limiter.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

// Fetch GETs url and reads at most MaxBodyBytes of the body. Redirects are followed.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.maxBody > 0 {
		reader = io.LimitReader(resp.Body, c.maxBody)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

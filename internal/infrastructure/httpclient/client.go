package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultUserAgent identifies the shell on its own outbound requests.
const DefaultUserAgent = "whatsapp-shell/1.0"

// Config holds client settings
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Client wraps resty for the shell's few outbound JSON requests.
// Retries are off: callers run under a hard deadline and fall back instead.
type Client struct {
	resty *resty.Client
}

// New creates a client with a pooled transport and sonic JSON codecs
func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	// Pooled transport from go-cleanhttp, as configured by retryablehttp
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTransport(retryClient.HTTPClient.Transport).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	if cfg.Timeout > 0 {
		restyClient.SetTimeout(cfg.Timeout)
	}

	return &Client{resty: restyClient}
}

// GetJSON fetches url and decodes a JSON body into out. Non-2xx statuses
// are returned as *StatusError.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := c.resty.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return &StatusError{URL: url, Code: resp.StatusCode()}
	}

	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

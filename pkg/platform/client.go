// Package platform talks to the screening platform's JSON API: it pages
// through review results and writes screening and duplicate decisions back.
//
// Every call is authorized with the headers and cookies of a captured
// session credential; the client itself never logs in.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/types"
)

// MethodSearch is the non-standard verb the results endpoint answers to.
const MethodSearch = "SEARCH"

// maxErrorBody caps how much of an error response is kept for logging.
const maxErrorBody = 512

// Client is a platform API client for one review.
type Client struct {
	httpClient *http.Client
	baseURL    string
	reviewID   string
	headers    map[string]string
	cookies    []storageCookie
	logger     *logging.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates an unauthorized client. Use Authorize to attach a
// credential before calling the API.
func NewClient(baseURL, reviewID string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		reviewID:   reviewID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authorize returns a copy of c that sends cred's headers and cookies.
func (c *Client) Authorize(cred *types.Credential) (*Client, error) {
	if cred == nil {
		return nil, fmt.Errorf("credential is required")
	}
	cookies, err := parseStorageState(cred.BrowserState)
	if err != nil {
		return nil, err
	}

	clone := *c
	clone.headers = make(map[string]string, len(cred.Headers))
	for k, v := range cred.Headers {
		clone.headers[k] = v
	}
	clone.cookies = cookies
	return &clone, nil
}

func (c *Client) reviewURL(suffix string) string {
	return fmt.Sprintf("%s/api/v1/reviews/%s/%s", c.baseURL, c.reviewID, suffix)
}

// do sends a JSON request and returns the status and body. A non-nil error
// means no response was received.
func (c *Client) do(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, ck := range cookiesFor(c.cookies, req, c.now()) {
		req.AddCookie(ck)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

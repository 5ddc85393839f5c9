// Package transport is the engine's only door to the network: a thin HTTP
// collaborator with get/post/delete semantics. Callers see either decoded
// JSON or a Failure carrying the status and raw body; retry policy, routing
// and rendering all live elsewhere.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Failure wraps a non-2xx response or a malformed body. Status is zero when
// the request never produced a response (network error, timeout).
type Failure struct {
	Status int
	Body   []byte
	cause  error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("transport: %v", f.cause)
	}
	return fmt.Sprintf("transport: status=%d body=%s", f.Status, string(f.Body))
}

func (f *Failure) Unwrap() error { return f.cause }

// Client talks JSON over HTTP with bearer or api-key auth.
type Client struct {
	BaseURL     string
	BearerToken string
	APIKey      string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Timeout: 10 * time.Second}
}

// Get performs a GET and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// Delete performs a DELETE and returns the raw JSON body, which may be empty.
func (c *Client) Delete(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, &Failure{cause: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, &Failure{cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &Failure{cause: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Status: resp.StatusCode, cause: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &Failure{Status: resp.StatusCode, Body: raw}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// Package remote is the HTTP client for the backend API consumed by the sync
// pipelines.
//
// The engine uploads orders one at a time and downloads authoritative
// reference collections; this package owns serialization, bearer auth, and
// mapping HTTP failures onto the engine's error taxonomy. Business logic
// (authorization, order-code generation) stays on the server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the remote API. Construct with New.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
}

// Config holds client configuration.
type Config struct {
	// BaseURL of the remote API, e.g. "https://api.example.com".
	BaseURL string

	// Token is the bearer token. Both standard session tokens and
	// device-local tokens ("local_..." or "mobile_<rep>_<ts>_<rand>") are
	// accepted transparently by the server.
	Token string

	// Timeout per request (default: 30s). A hung request stalls the whole
	// run; the single-flight foreground design accepts that.
	Timeout time.Duration

	// Logger for request activity (default: stderr logger).
	Logger *log.Logger
}

// New creates a remote API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// IsDeviceLocalToken reports whether a token was minted on-device rather than
// by the backend session endpoint. Informational only - the wire format is
// identical either way.
func IsDeviceLocalToken(token string) bool {
	return strings.HasPrefix(token, "local_") || strings.HasPrefix(token, "mobile_")
}

// AuthHeaders returns the headers attached to every request.
func (c *Client) AuthHeaders() http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+c.token)
	h.Set("Content-Type", "application/json")
	return h
}

// do executes one request and maps the outcome onto the error taxonomy.
// A nil out skips body decoding.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header = c.AuthHeaders()

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthenticationError{Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RemoteRejection{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}
	return nil
}

// TestConnection reports whether the remote API is reachable with the current
// token. Transport failures yield false, nil - no connectivity is an expected
// state, not an error.
func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	err := c.do(ctx, "test_connection", http.MethodGet, "/api/ping", nil, nil, nil)
	if err == nil {
		return true, nil
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return false, nil
	}
	return false, err
}

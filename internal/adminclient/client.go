// Package adminclient is a typed client for the admin REST API. It is the
// single place requests, authentication and error mapping happen; callers
// and the list/detail controllers never touch HTTP directly.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"faceattend/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is(err, models.ErrNotFound) work on 404 responses,
// so detail views treat a vanished entity the same on both sides of the
// wire.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return models.ErrNotFound
	}
	return nil
}

// Client talks to the admin service. Every request attaches the stored
// bearer token when one is present. There are no retries; a failed call
// returns the error to the caller.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenStore

	// OnUnauthorized fires when a 401 clears a stored credential. It
	// fires once per sign-in: after the token is cleared, further 401s
	// stay silent until a new token is stored.
	OnUnauthorized func()
}

// New creates a client against baseURL, e.g. "http://localhost:8081".
func New(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
	}
}

// Tokens exposes the credential store, mainly so callers can check
// whether a session exists.
func (c *Client) Tokens() TokenStore { return c.tokens }

// do runs one request. body is JSON-encoded when non-nil; the response is
// decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachToken(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
	}
	if resp.StatusCode >= 300 {
		return c.apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// download runs a GET and returns the raw body plus the filename from the
// Content-Disposition header. Used for CSV exports.
func (c *Client) download(ctx context.Context, path string, query url.Values) (string, []byte, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", nil, err
	}
	c.attachToken(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
	}
	if resp.StatusCode >= 300 {
		return "", nil, c.apiError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read export: %w", err)
	}

	filename := "export.csv"
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}
	return filename, data, nil
}

func (c *Client) attachToken(req *http.Request) {
	if tok := c.tokens.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// handleUnauthorized clears the credential and fires the hook, but only
// when there was a credential to clear.
func (c *Client) handleUnauthorized() {
	if c.tokens.AccessToken() == "" {
		return
	}
	c.tokens.Clear()
	if c.OnUnauthorized != nil {
		c.OnUnauthorized()
	}
}

// apiError turns an error response into an *APIError, preferring the
// server's own message.
func (c *Client) apiError(resp *http.Response) error {
	msg := resp.Status
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		msg = body.Error
		if len(body.Fields) > 0 {
			keys := make([]string, 0, len(body.Fields))
			for k := range body.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+": "+body.Fields[k])
			}
			msg += " (" + strings.Join(parts, "; ") + ")"
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

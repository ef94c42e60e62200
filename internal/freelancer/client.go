// Package freelancer is a typed client for the Freelancer REST API.
package freelancer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://www.freelancer.com/api"

// Client talks to the Freelancer API with a static OAuth token
type Client struct {
	baseURL    string
	token      string
	userID     int64
	httpClient *http.Client

	// Per-skill fetch batching
	BatchSize  int
	BatchDelay time.Duration
}

// NewClient creates a new API client
func NewClient(baseURL, token string, userID int64, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		userID:     userID,
		httpClient: &http.Client{Timeout: timeout},
		BatchSize:  5,
		BatchDelay: 2 * time.Second,
	}
}

// UserID returns the bidder ID the client acts for
func (c *Client) UserID() int64 {
	return c.userID
}

type envelope struct {
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	RequestID string          `json:"request_id"`
}

// do performs a request and decodes the "result" member of the response
// envelope into out. The raw body is returned alongside for callers that
// persist it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Freelancer-OAuth-V1", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "autobid/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return raw, ErrInvalidToken
	case resp.StatusCode == http.StatusTooManyRequests:
		return raw, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return raw, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: raw, Message: http.StatusText(resp.StatusCode)}
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			apiErr.Message = env.Message
			apiErr.ErrorCode = env.ErrorCode
		}
		return raw, apiErr
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw, fmt.Errorf("decode %s response: %w", path, err)
	}
	if env.Status == "error" {
		return raw, &APIError{StatusCode: resp.StatusCode, ErrorCode: env.ErrorCode, Message: env.Message, Body: raw}
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return raw, fmt.Errorf("decode %s result: %w", path, err)
		}
	}

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("API call")
	return raw, nil
}

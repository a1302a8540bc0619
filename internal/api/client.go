// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Configuration constants for the Sofia API.
const (
	// DefaultBaseURL is the hosted backend.
	DefaultBaseURL = "https://sofia.chat"

	// DefaultTimeout bounds one HTTP exchange. A message send waits for the
	// model to answer, so it is long.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the number of extra attempts for idempotent reads.
	DefaultMaxRetries = 2

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second

	// MaxResponseSize caps any response body.
	// SECURITY: prevents a misbehaving backend from exhausting memory.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "sofia-tui/0.1.0"
)

// Error variables for common gateway failures.
var (
	// ErrNoToken indicates no bearer token is configured.
	ErrNoToken = errors.New("not logged in: no bearer token configured")

	// ErrTokenExpired indicates the bearer token's exp claim has passed.
	ErrTokenExpired = errors.New("bearer token expired")

	// ErrUnauthorized indicates the backend rejected the token.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrPaymentRequired indicates the token balance is exhausted.
	ErrPaymentRequired = errors.New("insufficient token balance")

	// ErrNotFound indicates the chat, project or payment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// APIError is a non-success response from the backend. Message holds the
// backend's `error` field verbatim when it sent one.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap exposes the matching sentinel, if any.
func (e *APIError) Unwrap() error { return e.kind }

// HasMessage reports whether the backend supplied its own error text.
func (e *APIError) HasMessage() bool { return e.Message != "" }

// errorBody is the backend's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Sofia backend on behalf of one user.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	tokens     *TokenHolder
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	now        func() time.Time
}

// NewClient creates a client for baseURL authenticating with tokens.
func NewClient(baseURL string, tokens *TokenHolder) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if tokens == nil {
		tokens = NewTokenHolder("")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxRetries sets the number of extra attempts for reads.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	if maxRetries >= 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithRateLimit throttles outbound requests to rps per second. Zero or a
// negative value removes the limiter.
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests use this).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens returns the token holder so callers can log in or out.
func (c *Client) Tokens() *TokenHolder { return c.tokens }

// =============================================================================
// REQUEST/RESPONSE LOGGING (without sensitive data)
// =============================================================================

// logRequest logs method and path only. Headers carry the token and bodies
// carry user text, so neither is logged.
func logRequest(req *http.Request, requestID string) {
	log.Printf("API Request: %s %s [%s]", req.Method, req.URL.Path, shortID(requestID))
}

func logResponse(req *http.Request, status int, requestID string, duration time.Duration) {
	log.Printf("API Response: %d %s %s [%s] (%v)", status, req.Method, req.URL.Path, shortID(requestID), duration.Round(time.Millisecond))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// REQUEST EXECUTION
// =============================================================================

// request describes one API call.
type request struct {
	method      string
	path        string
	body        any
	rawBody     []byte
	contentType string
}

// getJSON performs an idempotent GET with retries and decodes into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, request{method: http.MethodGet, path: path}, out)
}

// sendJSON performs a single write with a JSON body and decodes into out
// when out is non-nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	return c.doJSON(ctx, request{method: method, path: path, body: body}, out)
}

func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	if r.body != nil && r.rawBody == nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r.rawBody = data
		r.contentType = "application/json"
	}

	attempts := 1
	if r.method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		body, err := c.do(ctx, r)
		if err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return err
		}
		if out == nil || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response from %s: %w", r.path, err)
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do performs exactly one HTTP exchange and returns the body of a 2xx
// response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if err := c.tokens.Check(c.now()); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if r.rawBody != nil {
		reader = bytes.NewReader(r.rawBody)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	c.setHeaders(req, r.contentType, requestID)

	logRequest(req, requestID)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(req, resp.StatusCode, requestID, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// setHeaders sets auth, content and tracing headers.
func (c *Client) setHeaders(req *http.Request, contentType, requestID string) {
	req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
}

// readResponse reads at most MaxResponseSize bytes of the body.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse turns a non-2xx response into an *APIError, keeping
// the backend's message and attaching the matching sentinel.
func handleErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = eb.Error
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusUnprocessableEntity:
		// flask-jwt-extended answers 422 for malformed tokens.
		apiErr.kind = ErrUnauthorized
	case http.StatusPaymentRequired:
		apiErr.kind = ErrPaymentRequired
	case http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case http.StatusTooManyRequests:
		apiErr.kind = ErrRateLimited
	}
	return apiErr
}

// isRetryable reports whether a read should be attempted again.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 && apiErr.StatusCode < 600
	}
	return false
}

// calculateBackoff returns the delay before retry number attempt (1-based).
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

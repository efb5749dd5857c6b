// Package relayclient is a client for the relay's HTTP surface.
//
// It is used by the CLI and by the reference authoring agent.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/livelink/internal/scene"
	"github.com/roach88/livelink/internal/syncapi"
)

// DefaultTimeout bounds every relay call.
const DefaultTimeout = 5 * time.Second

const maxErrorBody = 4096

// Error is returned when the relay answers with a non-2xx status.
//
// Code and Message are taken from the error envelope when the body carries
// one; otherwise Message holds the raw body.
type Error struct {
	Method     string
	Route      string
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("relay: %s %s: HTTP %d: %s: %s", e.Method, e.Route, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("relay: %s %s: HTTP %d: %s", e.Method, e.Route, e.StatusCode, e.Message)
}

// IsValidationError returns true if err is a relay rejection of a
// malformed request (HTTP 400).
func IsValidationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusBadRequest
}

// Client talks to a relay.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// New creates a client for the relay at baseURL (e.g. "http://localhost:30013").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health fetches relay health.
func (c *Client) Health(ctx context.Context) (syncapi.HealthResponse, error) {
	var resp syncapi.HealthResponse
	err := c.do(ctx, http.MethodGet, syncapi.RouteHealth, nil, &resp)
	return resp, err
}

// Push submits records from source.
func (c *Client) Push(ctx context.Context, source scene.Side, records []scene.ChangeRecord) (syncapi.PushResponse, error) {
	return c.PushChanges(ctx, source.String(), syncapi.FromRecords(records))
}

// PushChanges submits wire changes under a raw source tag. The relay, not
// the client, validates the tag.
func (c *Client) PushChanges(ctx context.Context, source string, changes []syncapi.Change) (syncapi.PushResponse, error) {
	if changes == nil {
		changes = []syncapi.Change{}
	}
	req := syncapi.PushRequest{Source: source, Changes: changes}

	var resp syncapi.PushResponse
	err := c.do(ctx, http.MethodPost, syncapi.RoutePush, req, &resp)
	return resp, err
}

// Pull drains everything queued for target. Returned records carry the
// opposite side as their origin.
func (c *Client) Pull(ctx context.Context, target scene.Side) ([]scene.ChangeRecord, error) {
	resp, err := c.PullChanges(ctx, target.String())
	if err != nil {
		return nil, err
	}
	return syncapi.ToRecords(resp.Changes, target.Other())
}

// PullChanges drains everything queued for a raw target tag.
func (c *Client) PullChanges(ctx context.Context, target string) (syncapi.PullResponse, error) {
	route := syncapi.RoutePull + "?target=" + url.QueryEscape(target)

	var resp syncapi.PullResponse
	err := c.do(ctx, http.MethodGet, route, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, route string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("relay: encode %s: %w", route, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, body)
	if err != nil {
		return fmt.Errorf("relay: build %s %s: %w", method, route, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay: %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, route, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("relay: decode %s: %w", route, err)
	}
	return nil
}

func decodeError(method, route string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &Error{
		Method:     method,
		Route:      route,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(detail)),
	}

	var envelope syncapi.ErrorResponse
	if json.Unmarshal(detail, &envelope) == nil && envelope.Error.Code != "" {
		e.Code = envelope.Error.Code
		e.Message = envelope.Error.Message
	}
	return e
}

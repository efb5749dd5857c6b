// Package nova is a client for the engine bridge HTTP API (side B).
//
// Only the two routes the relay needs are implemented: listing actors with
// their transforms and moving an actor. The client satisfies relay.Engine.
package nova

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/scene"
)

// DefaultTimeout bounds every engine call. Engine calls are expected to
// fail fast; the relay treats failures as transient.
const DefaultTimeout = 2 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// Error is returned when the engine answers with a non-2xx status.
type Error struct {
	Method     string
	Route      string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("nova: %s %s: HTTP %d: %s", e.Method, e.Route, e.StatusCode, e.Body)
}

// Client talks to the engine bridge.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in the X-API-Key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

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

// BaseURL builds the bridge base URL for host and port.
func BaseURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d/nova", host, port)
}

// New creates a client rooted at baseURL (e.g. "http://localhost:30010/nova").
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

type vectorJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v vectorJSON) vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

type rotatorJSON struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

type actorJSON struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Transform struct {
		Location vectorJSON  `json:"location"`
		Rotation rotatorJSON `json:"rotation"`
		Scale    vectorJSON  `json:"scale"`
	} `json:"transform"`
}

type sceneListJSON struct {
	Actors []actorJSON `json:"actors"`
}

type transformRequestJSON struct {
	Name     string     `json:"name"`
	Location vectorJSON `json:"location"`
}

// ListObjects returns every actor in the editor world. An actor is keyed by
// its label, falling back to its object name; actors with neither are
// dropped. Missing transform components read as 0.
func (c *Client) ListObjects(ctx context.Context) ([]scene.Object, error) {
	var list sceneListJSON
	if err := c.do(ctx, http.MethodGet, "/scene/list", nil, &list); err != nil {
		return nil, err
	}

	objs := make([]scene.Object, 0, len(list.Actors))
	for _, a := range list.Actors {
		name := a.Label
		if name == "" {
			name = a.Name
		}
		if name == "" {
			continue
		}
		rot := a.Transform.Rotation
		objs = append(objs, scene.Object{
			Name: scene.NewHandle(name),
			Transform: scene.TransformState{
				Location: a.Transform.Location.vec(),
				Rotation: mgl64.Vec3{rot.Pitch, rot.Yaw, rot.Roll},
				Scale:    a.Transform.Scale.vec(),
			},
		})
	}
	return objs, nil
}

// SetLocation moves the named actor to loc (engine units).
func (c *Client) SetLocation(ctx context.Context, name scene.Handle, loc mgl64.Vec3) error {
	req := transformRequestJSON{
		Name:     string(name),
		Location: vectorJSON{X: loc[0], Y: loc[1], Z: loc[2]},
	}
	return c.do(ctx, http.MethodPost, "/scene/transform", req, nil)
}

func (c *Client) do(ctx context.Context, method, route string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("nova: encode %s: %w", route, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, body)
	if err != nil {
		return fmt.Errorf("nova: build %s %s: %w", method, route, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("nova: %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Method:     method,
			Route:      route,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(detail)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nova: decode %s: %w", route, err)
	}
	return nil
}

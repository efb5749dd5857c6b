// Package syncapi defines the JSON wire format of the relay surface.
//
// Both the relay's HTTP handlers and its clients use these types, so the
// two ends cannot drift apart.
package syncapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/livelink/internal/scene"
)

// Routes served by the relay.
const (
	RouteHealth  = "/sync/health"
	RoutePush    = "/sync/push"
	RoutePull    = "/sync/pull"
	RouteMetrics = "/metrics"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Change is one change record on the wire. Vectors are 3-element arrays.
type Change struct {
	Name     string    `json:"name"`
	Location []float64 `json:"location"`
	Rotation []float64 `json:"rotation,omitempty"`
	Scale    []float64 `json:"scale,omitempty"`
}

// PushRequest is the body of POST /sync/push.
type PushRequest struct {
	Source  string   `json:"source"`
	Changes []Change `json:"changes"`
}

// PushResponse answers a successful push.
type PushResponse struct {
	Status   string `json:"status"`
	BatchID  string `json:"batch_id,omitempty"`
	Accepted int    `json:"accepted"`
	Applied  int    `json:"applied"`
	Queued   int    `json:"queued"`
	Skipped  int    `json:"skipped"`
}

// PullResponse answers a successful pull. Changes is never null.
type PullResponse struct {
	Status  string   `json:"status"`
	Changes []Change `json:"changes"`
}

// HealthResponse answers GET /sync/health.
type HealthResponse struct {
	Status      string     `json:"status"`
	Port        int        `json:"port,omitempty"`
	PendingForA int        `json:"pending_for_A"`
	PendingForB int        `json:"pending_for_B"`
	LastPoll    *time.Time `json:"last_poll,omitempty"`
}

// ErrorResponse answers a failed request.
type ErrorResponse struct {
	Status string    `json:"status"`
	Error  ErrorBody `json:"error"`
}

// ErrorBody carries a machine-readable code and a message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromRecord converts a record to its wire form.
func FromRecord(rec scene.ChangeRecord) Change {
	c := Change{
		Name:     string(rec.Name),
		Location: rec.Location[:],
	}
	if rec.Rotation != nil {
		c.Rotation = rec.Rotation[:]
	}
	if rec.Scale != nil {
		c.Scale = rec.Scale[:]
	}
	return c
}

// FromRecords converts records to their wire form. The result is never nil.
func FromRecords(recs []scene.ChangeRecord) []Change {
	out := make([]Change, len(recs))
	for i, rec := range recs {
		out[i] = FromRecord(rec)
	}
	return out
}

// ErrMalformedChange is wrapped by ToRecord for unusable wire changes.
var ErrMalformedChange = errors.New("malformed change")

// ToRecord converts a wire change to a record originating from origin.
// The name is NFC normalized. A change without a name, or whose location
// is not exactly three numbers, or whose optional rotation or scale is
// present with a length other than three, is malformed.
func (c Change) ToRecord(origin scene.Side) (scene.ChangeRecord, error) {
	if c.Name == "" {
		return scene.ChangeRecord{}, fmt.Errorf("%w: name is required", ErrMalformedChange)
	}
	loc, err := toVec3("location", c.Location)
	if err != nil {
		return scene.ChangeRecord{}, err
	}

	rec := scene.ChangeRecord{
		Name:     scene.NewHandle(c.Name),
		Location: loc,
		Origin:   origin,
	}
	if c.Rotation != nil {
		rot, err := toVec3("rotation", c.Rotation)
		if err != nil {
			return scene.ChangeRecord{}, err
		}
		rec.Rotation = &rot
	}
	if c.Scale != nil {
		scale, err := toVec3("scale", c.Scale)
		if err != nil {
			return scene.ChangeRecord{}, err
		}
		rec.Scale = &scale
	}
	return rec, nil
}

// ToRecords converts wire changes, failing on the first malformed one.
func ToRecords(changes []Change, origin scene.Side) ([]scene.ChangeRecord, error) {
	out := make([]scene.ChangeRecord, 0, len(changes))
	for i, c := range changes {
		rec, err := c.ToRecord(origin)
		if err != nil {
			return nil, fmt.Errorf("changes[%d]: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func toVec3(field string, v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%w: %s must have 3 components, got %d", ErrMalformedChange, field, len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

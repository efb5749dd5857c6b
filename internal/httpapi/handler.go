// Package httpapi serves the relay over HTTP.
//
// Routes:
//
//	GET  /sync/health          queue depths and poll state
//	POST /sync/push            submit a batch from A or B
//	GET  /sync/pull?target=X   drain everything queued for X
//	GET  /metrics              Prometheus exposition
//
// Every JSON response carries a "status" of "ok" or "error". Errors use the
// envelope {"status":"error","error":{"code","message"}}.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/livelink/internal/relay"
	"github.com/roach88/livelink/internal/scene"
	"github.com/roach88/livelink/internal/syncapi"
)

// MaxBodyBytes bounds the size of a push request body.
const MaxBodyBytes = 8 << 20

// Error codes that do not originate in relay validation.
const (
	ErrCodeInvalidJSON = "INVALID_JSON"
	ErrCodeInternal    = "INTERNAL"
)

// Handler routes relay requests to a relay.Service.
type Handler struct {
	svc      *relay.Service
	port     int
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	mux      *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithPort sets the port reported by the health route.
func WithPort(port int) Option {
	return func(h *Handler) {
		h.port = port
	}
}

// WithGatherer exposes gatherer on /metrics. Without it the route is not
// registered.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.gatherer = g
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler creates a Handler for svc.
func NewHandler(svc *relay.Service, opts ...Option) *Handler {
	h := &Handler{
		svc:    svc,
		logger: slog.Default(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET "+syncapi.RouteHealth, h.handleHealth)
	h.mux.HandleFunc("POST "+syncapi.RoutePush, h.handlePush)
	h.mux.HandleFunc("GET "+syncapi.RoutePull, h.handlePull)
	if h.gatherer != nil {
		h.mux.Handle("GET "+syncapi.RouteMetrics, promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.svc.Health()

	resp := syncapi.HealthResponse{
		Status:      syncapi.StatusOK,
		Port:        h.port,
		PendingForA: health.PendingForAuthoring,
		PendingForB: health.PendingForEngine,
	}
	if !health.LastPoll.IsZero() {
		lastPoll := health.LastPoll.UTC()
		resp.LastPoll = &lastPoll
	}
	writeJSON(w, http.StatusOK, resp)
}

// pushBody is the loosely typed form of syncapi.PushRequest. Changes stay
// raw so malformed elements can be skipped one at a time.
type pushBody struct {
	Source  string          `json:"source"`
	Changes json.RawMessage `json:"changes"`
}

func (h *Handler) handlePush(w http.ResponseWriter, r *http.Request) {
	var body pushBody
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, fmt.Sprintf("decode request: %v", err))
		return
	}

	source, err := scene.ParseSide(body.Source)
	if err != nil {
		h.writeValidation(w, relay.NewSourceError(fmt.Sprintf("%q", body.Source)))
		return
	}

	elems, err := splitChanges(body.Changes)
	if err != nil {
		h.writeValidation(w, relay.NewBatchError(err.Error()))
		return
	}

	batch := make([]scene.ChangeRecord, 0, len(elems))
	skipped := 0
	for i, raw := range elems {
		rec, err := decodeChange(raw, source)
		if err != nil {
			h.logger.Debug("skipping malformed change", "index", i, "error", err)
			skipped++
			continue
		}
		batch = append(batch, rec)
	}

	result, err := h.svc.Push(r.Context(), source, batch)
	if err != nil {
		h.writeValidation(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncapi.PushResponse{
		Status:   syncapi.StatusOK,
		BatchID:  result.BatchID,
		Accepted: len(elems),
		Applied:  result.Applied,
		Queued:   result.Queued,
		Skipped:  skipped,
	})
}

func (h *Handler) handlePull(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("target")
	target, err := scene.ParseSide(tag)
	if err != nil {
		h.writeValidation(w, relay.NewTargetError(fmt.Sprintf("%q", tag)))
		return
	}

	records, err := h.svc.Pull(r.Context(), target)
	if err != nil {
		h.writeValidation(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncapi.PullResponse{
		Status:  syncapi.StatusOK,
		Changes: syncapi.FromRecords(records),
	})
}

// writeValidation maps a relay error to a response. Anything other than a
// ValidationError is unexpected and reported as 500.
func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var ve *relay.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, string(ve.Code), ve.Message)
		return
	}
	h.logger.Error("relay request failed", "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
}

// splitChanges splits the raw changes value into elements. A missing or
// null value is an empty batch; anything other than an array is an error.
func splitChanges(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, errors.New("changes must be an array")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}
	return elems, nil
}

func decodeChange(raw json.RawMessage, origin scene.Side) (scene.ChangeRecord, error) {
	var c syncapi.Change
	if err := json.Unmarshal(raw, &c); err != nil {
		return scene.ChangeRecord{}, fmt.Errorf("%w: %v", syncapi.ErrMalformedChange, err)
	}
	return c.ToRecord(origin)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, syncapi.ErrorResponse{
		Status: syncapi.StatusError,
		Error:  syncapi.ErrorBody{Code: code, Message: message},
	})
}

// NewServer wraps h in an http.Server listening on addr.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

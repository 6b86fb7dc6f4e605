// Package api serves the Living Memory HTTP API. Every handler error passes
// through one boundary that writes it in the wire error format.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bahjat/living-memory/internal/platform/errs"
	"github.com/Bahjat/living-memory/internal/platform/requestid"
	"github.com/Bahjat/living-memory/internal/platform/validate"
)

const (
	maxRequestBody        = 1 << 20 // 1 MB
	defaultRequestTimeout = 30 * time.Second
)

// Transport handles HTTP requests for the API.
type Transport struct {
	backend Backend
	logger  *slog.Logger
	timeout time.Duration
	paths   *http.ServeMux
}

// NewTransport creates an HTTP transport backed by the given backend. A
// non-positive timeout uses the default.
func NewTransport(backend Backend, logger *slog.Logger, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Transport{backend: backend, logger: logger, timeout: timeout, paths: http.NewServeMux()}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	routes := []struct {
		method, path string
		h            http.Handler
	}{
		{http.MethodGet, "/api/health", t.handle(t.handleHealth)},

		{http.MethodGet, "/api/auth/get-session", t.handle(t.handleGetSession)},
		{http.MethodPost, "/api/auth/device/code", http.HandlerFunc(t.handleDeviceCode)},
		{http.MethodPost, "/api/auth/device/token", http.HandlerFunc(t.handleDeviceToken)},

		{http.MethodGet, "/api/onboarding/status", t.authed(t.handleStatus)},
		{http.MethodGet, "/api/onboarding/validate-slug/{slug}", t.authed(t.handleValidateSlug)},
		{http.MethodPost, "/api/onboarding/create-household", t.authed(t.handleCreateHousehold)},
		{http.MethodPost, "/api/onboarding/join-household", t.authed(t.handleJoinHousehold)},
		{http.MethodPost, "/api/onboarding/update-user-info", t.authed(t.handleUpdateUserInfo)},
		{http.MethodPost, "/api/onboarding/set-onboarding-step", t.authed(t.handleSetStep)},
		{http.MethodPost, "/api/onboarding/pair-device/approve", t.authed(t.handleApproveDevice)},
		{http.MethodPost, "/api/onboarding/pair-device/deny", t.authed(t.handleDenyDevice)},

		{http.MethodPost, "/api/household/invite", t.authed(t.handleInvite)},
		{http.MethodDelete, "/api/household/delete/{id}", t.authed(t.handleDeleteHousehold)},
	}
	for _, rt := range routes {
		mux.Handle(rt.method+" "+rt.path, rt.h)
		t.paths.Handle(rt.path, http.NotFoundHandler())
	}
	mux.Handle("/api/", t.handle(t.handleUnmatched))
}

// handle is the error boundary: any error returned by fn is serialized to
// the wire format, logged and written.
func (t *Transport) handle(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), t.timeout)
		defer cancel()
		r = r.WithContext(ctx)

		if err := fn(w, r); err != nil {
			t.renderError(w, r, err)
		}
	})
}

func (t *Transport) authed(fn handlerFunc) http.Handler {
	return t.requireAuth(t.handle(fn))
}

// handleUnmatched distinguishes an unknown path from a known path used with
// the wrong method.
func (t *Transport) handleUnmatched(_ http.ResponseWriter, r *http.Request) error {
	if _, pattern := t.paths.Handler(r); pattern != "" {
		return errs.NewMethodNotAllowed(r.Method)
	}
	return errs.NewNotFound("")
}

func (t *Transport) renderError(w http.ResponseWriter, r *http.Request, err error) {
	wire := errs.Serialize(err)

	level := slog.LevelWarn
	if wire.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	t.logger.Log(r.Context(), level, "request failed",
		"error_type", wire.ErrorType,
		"status", wire.Status,
		"message", wire.Message,
		"error", err,
		"path", r.URL.Path,
		"request_id", requestid.FromContext(r.Context()),
	)
	t.renderJSON(w, wire.Status, wire)
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"status":500,"error_type":"server_error","message":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// respond validates an outgoing payload against its declared contract
// before writing it. route names the handler in the log.
func (t *Transport) respond(w http.ResponseWriter, r *http.Request, route string, data any) error {
	if err := validate.Struct(data); err != nil {
		t.logger.ErrorContext(r.Context(), "response validation failed",
			"route", route,
			"error", err,
			"request_id", requestid.FromContext(r.Context()),
		)
		return errs.NewValidation(errs.Serialize(err).Errors, "Response validation failed")
	}
	t.renderJSON(w, http.StatusOK, data)
	return nil
}

// decode reads a JSON request body into T and validates it.
func decode[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, errs.Wrap(errs.BadRequest, "Invalid request body. Please send a JSON object.", err)
	}
	if err := validate.Struct(v); err != nil {
		return v, err
	}
	return v, nil
}

func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return t.respond(w, r, "health", healthOK)
}

package agent

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/skip2/go-qrcode"

	"github.com/Bahjat/living-memory/internal/platform/errs"
)

const qrSize = 256

// Transport serves the kiosk display.
type Transport struct {
	status *Manager
	pairer *Pairer
	logger *slog.Logger
}

func NewTransport(status *Manager, pairer *Pairer, logger *slog.Logger) *Transport {
	return &Transport{status: status, pairer: pairer, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /status", t.handleStatus)
	mux.HandleFunc("POST /pair/start", t.handlePairStart)
	mux.HandleFunc("GET /pair/qr", t.handlePairQR)
}

func (t *Transport) handleStatus(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, t.status.Status())
}

func (t *Transport) handlePairStart(w http.ResponseWriter, r *http.Request) {
	st := t.status.Status()
	if st.Authorized {
		t.renderError(w, errs.NewBadRequest("The device is already paired"))
		return
	}
	if st.IsPairing() || st.IsError() {
		t.logger.InfoContext(r.Context(), "restarting pairing", "previous_state", st.State)
	}
	code, err := t.pairer.Start(r.Context())
	if err != nil {
		t.logger.ErrorContext(r.Context(), "pairing failed to start", "error", err)
		t.renderError(w, errs.NewServerError("There was an issue when trying to start the pairing process"))
		return
	}
	t.renderJSON(w, http.StatusOK, code)
}

// handlePairQR renders the complete verification URI as a PNG so a phone
// can open it directly.
func (t *Transport) handlePairQR(w http.ResponseWriter, r *http.Request) {
	st := t.status.Status()
	if !st.IsPairing() {
		t.renderError(w, errs.NewNotFound("The device is not pairing"))
		return
	}
	png, err := qrcode.Encode(st.VerificationURIComplete, qrcode.Medium, qrSize)
	if err != nil {
		t.logger.ErrorContext(r.Context(), "qr encoding failed", "error", err)
		t.renderError(w, errs.NewServerError("Could not render the pairing code"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
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

func (t *Transport) renderError(w http.ResponseWriter, e *errs.Error) {
	t.renderJSON(w, e.Status, e.Wire())
}

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
)

// SessionCookie is the cookie carrying the session token for browser callers.
const SessionCookie = "lm_session"

var healthOK = model.HealthResponse{Status: "ok"}

type sessionKey struct{}

func withSession(ctx context.Context, s model.SessionResponse) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) (model.SessionResponse, bool) {
	s, ok := ctx.Value(sessionKey{}).(model.SessionResponse)
	return s, ok
}

// userID returns the signed-in user. Handlers behind requireAuth always have
// one.
func userID(r *http.Request) (string, error) {
	s, ok := sessionFrom(r.Context())
	if !ok {
		return "", errs.NewUnauthenticated("")
	}
	return s.User.ID, nil
}

// sessionToken reads a bearer token, falling back to the session cookie.
func sessionToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (t *Transport) lookupSession(r *http.Request) (model.SessionResponse, bool) {
	token := sessionToken(r)
	if token == "" {
		return model.SessionResponse{}, false
	}
	return t.backend.Session(token)
}

// requireAuth rejects requests without a valid session and stores the
// session in the request context.
func (t *Transport) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := t.lookupSession(r)
		if !ok {
			t.renderError(w, r, errs.NewUnauthenticated(""))
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// handleGetSession answers with the session, or JSON null when signed out.
func (t *Transport) handleGetSession(w http.ResponseWriter, r *http.Request) error {
	sess, ok := t.lookupSession(r)
	if !ok {
		t.renderJSON(w, http.StatusOK, nil)
		return nil
	}
	return t.respond(w, r, "auth.getSession", sess)
}

// Device endpoints follow RFC 8628 and answer errors in the OAuth shape
// rather than the wire error format.

func (t *Transport) renderOAuth(w http.ResponseWriter, status int, oe model.OAuthError) {
	w.Header().Set("Cache-Control", "no-store")
	t.renderJSON(w, status, oe)
}

func (t *Transport) handleDeviceCode(w http.ResponseWriter, r *http.Request) {
	req, err := decode[model.DeviceCodeRequest](w, r)
	if err != nil {
		t.renderOAuth(w, http.StatusBadRequest, model.OAuthError{Code: model.OAuthInvalidRequest, Description: err.Error()})
		return
	}

	code, err := t.backend.StartDevice(req.ClientID, req.Scope)
	if err != nil {
		t.renderError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	t.renderJSON(w, http.StatusOK, code)
}

func (t *Transport) handleDeviceToken(w http.ResponseWriter, r *http.Request) {
	req, err := decode[model.DeviceTokenRequest](w, r)
	if err != nil {
		t.renderOAuth(w, http.StatusBadRequest, model.OAuthError{Code: model.OAuthInvalidRequest, Description: err.Error()})
		return
	}
	if req.GrantType != model.DeviceGrantType {
		t.renderOAuth(w, http.StatusBadRequest, model.OAuthError{Code: "unsupported_grant_type", Description: "Unsupported grant type"})
		return
	}

	token, oe := t.backend.PollDevice(req.DeviceCode, req.ClientID)
	if oe != nil {
		t.renderOAuth(w, http.StatusBadRequest, *oe)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	t.renderJSON(w, http.StatusOK, token)
}

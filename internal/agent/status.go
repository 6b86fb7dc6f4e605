// Package agent runs on a kiosk device: it pairs the device with a household
// through the device authorization grant and reports its state to the local
// display.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/Bahjat/living-memory/internal/apiclient"
	"github.com/Bahjat/living-memory/internal/model"
)

// State is the pairing state shown by the kiosk.
type State string

const (
	StateBooting    State = "BOOTING"
	StateIdle       State = "IDLE"
	StatePairing    State = "PAIRING"
	StateAuthorized State = "AUTHORIZED"
	StateDenied     State = "DENIED"
	StateExpired    State = "EXPIRED"
	StateError      State = "ERROR"
)

// Status is the body of GET /status. Pairing fields are set only while
// PAIRING; Message only in DENIED, EXPIRED and ERROR.
type Status struct {
	State      State   `json:"state"`
	Authorized bool    `json:"authorized"`
	Playlist   *string `json:"playlist"`

	UserCode                string     `json:"user_code,omitempty"`
	VerificationURI         string     `json:"verification_uri,omitempty"`
	VerificationURIComplete string     `json:"verification_uri_complete,omitempty"`
	ExpiresAt               *time.Time `json:"expires_at,omitempty"`
	Interval                int        `json:"interval,omitempty"`

	Message string `json:"message,omitempty"`
}

// Manager owns the current Status and the device credential file.
type Manager struct {
	mu       sync.RWMutex
	status   Status
	authPath string
	clientID string
	now      func() time.Time
}

func NewManager(authPath, clientID string) *Manager {
	return &Manager{
		status:   Status{State: StateBooting},
		authPath: authPath,
		clientID: clientID,
		now:      time.Now,
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) set(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

// Restore leaves BOOTING using the credential file: a stored access token
// means the device is already paired. A missing file means IDLE.
func (m *Manager) Restore() error {
	auth, err := ReadDeviceAuth(m.authPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.SetIdle()
		return nil
	case err != nil:
		m.SetError("Could not read the device credentials")
		return err
	case auth.AccessToken != nil && *auth.AccessToken != "":
		m.set(Status{State: StateAuthorized, Authorized: true})
		return nil
	default:
		m.SetIdle()
		return nil
	}
}

// AccessToken returns the stored token of a paired device.
func (m *Manager) AccessToken() (string, bool) {
	auth, err := ReadDeviceAuth(m.authPath)
	if err != nil || auth.AccessToken == nil || *auth.AccessToken == "" {
		return "", false
	}
	return *auth.AccessToken, true
}

// SessionChecker resolves the session behind a client's credentials.
// *sdk.AuthClient implements it.
type SessionChecker interface {
	GetSession(ctx context.Context, inbound *http.Request) apiclient.Result[*model.SessionResponse]
}

// Verify confirms a restored token with the API through a checker built for
// that token. A token the API no longer knows is dropped from the credential
// file and the device goes back to IDLE. If the API cannot be reached the
// state is kept and the error returned.
func (m *Manager) Verify(ctx context.Context, checkerFor func(token string) SessionChecker) error {
	token, ok := m.AccessToken()
	if !ok {
		return nil
	}
	res := checkerFor(token).GetSession(ctx, nil)
	if !res.Success {
		return res.Err()
	}
	if res.Data != nil {
		return nil
	}

	auth, err := ReadDeviceAuth(m.authPath)
	if err != nil {
		return err
	}
	if err := writeDeviceAuth(m.authPath, DeviceAuth{ClientID: auth.ClientID, DeviceCode: auth.DeviceCode}); err != nil {
		return fmt.Errorf("agent: drop token: %w", err)
	}
	m.SetIdle()
	return nil
}

func (m *Manager) SetIdle() {
	m.set(Status{State: StateIdle})
}

// SetPairing shows the user code and records the pending device code.
func (m *Manager) SetPairing(code model.DeviceCodeResponse) error {
	expiresAt := m.now().Add(time.Duration(code.ExpiresIn) * time.Second).UTC()
	m.set(Status{
		State:                   StatePairing,
		UserCode:                code.UserCode,
		VerificationURI:         code.VerificationURI,
		VerificationURIComplete: code.VerificationURIComplete,
		ExpiresAt:               &expiresAt,
		Interval:                code.Interval,
	})

	if err := writeDeviceAuth(m.authPath, DeviceAuth{ClientID: m.clientID, DeviceCode: code.DeviceCode}); err != nil {
		return fmt.Errorf("agent: save pairing: %w", err)
	}
	return nil
}

// SetAuthorized persists the token and marks the device as paired.
func (m *Manager) SetAuthorized(deviceCode, token string) error {
	if err := writeDeviceAuth(m.authPath, DeviceAuth{ClientID: m.clientID, DeviceCode: deviceCode, AccessToken: &token}); err != nil {
		m.SetError("Could not save the device credentials")
		return fmt.Errorf("agent: save token: %w", err)
	}
	m.set(Status{State: StateAuthorized, Authorized: true})
	return nil
}

func (m *Manager) SetDenied(msg string) {
	m.set(Status{State: StateDenied, Message: msg})
}

func (m *Manager) SetExpired(msg string) {
	m.set(Status{State: StateExpired, Message: msg})
}

func (m *Manager) SetError(msg string) {
	m.set(Status{State: StateError, Message: msg})
}

func (m *Manager) IsAuthorized() bool { return m.Status().Authorized }

func (s Status) IsPairing() bool { return s.State == StatePairing }

// IsError reports a terminal failure: DENIED, EXPIRED or ERROR.
func (s Status) IsError() bool {
	switch s.State {
	case StateDenied, StateExpired, StateError:
		return true
	default:
		return false
	}
}

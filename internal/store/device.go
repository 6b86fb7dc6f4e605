package store

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
)

// slowDownStep is added to a grant's interval each time a device polls too
// early (RFC 8628 section 3.5).
const slowDownStep = 5 * time.Second

// userCodeAlphabet avoids vowels and look-alike characters.
const userCodeAlphabet = "BCDFGHJKLMNPQRSTVWXZ"

const userCodeLength = 8

type grantState int

const (
	grantPending grantState = iota
	grantApproved
	grantDenied
)

type deviceGrant struct {
	clientID  string
	scope     string
	userCode  string
	state     grantState
	userID    string
	interval  time.Duration
	expiresAt time.Time
	lastPoll  time.Time
}

// StartDevice opens a device authorization grant.
func (s *Store) StartDevice(clientID, scope string) (model.DeviceCodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userCode, err := s.newUserCodeLocked()
	if err != nil {
		return model.DeviceCodeResponse{}, errs.Wrap(errs.ServerError, "Could not generate a user code", err)
	}
	deviceCode := uuid.NewString()
	s.devices[deviceCode] = &deviceGrant{
		clientID:  clientID,
		scope:     scope,
		userCode:  userCode,
		interval:  s.deviceInterval,
		expiresAt: s.now().Add(s.deviceTTL),
	}
	s.userCodes[userCode] = deviceCode

	return model.DeviceCodeResponse{
		DeviceCode:              deviceCode,
		UserCode:                userCode,
		VerificationURI:         s.verifyURI,
		VerificationURIComplete: s.verifyURI + "?user_code=" + userCode,
		ExpiresIn:               int(s.deviceTTL / time.Second),
		Interval:                int(s.deviceInterval / time.Second),
	}, nil
}

func (s *Store) newUserCodeLocked() (string, error) {
	buf := make([]byte, userCodeLength)
	for {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for i, b := range buf {
			buf[i] = userCodeAlphabet[int(b)%len(userCodeAlphabet)]
		}
		if _, taken := s.userCodes[string(buf)]; !taken {
			return string(buf), nil
		}
	}
}

// PollDevice exchanges a device code for a token. A non-nil OAuthError is
// returned while the grant is not approved.
func (s *Store) PollDevice(deviceCode, clientID string) (model.TokenResponse, *model.OAuthError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.devices[deviceCode]
	if !ok || g.clientID != clientID {
		return model.TokenResponse{}, &model.OAuthError{Code: model.OAuthInvalidGrant, Description: "Invalid device code"}
	}

	now := s.now()
	if !now.Before(g.expiresAt) {
		s.dropGrantLocked(deviceCode, g)
		return model.TokenResponse{}, &model.OAuthError{Code: model.OAuthExpiredToken, Description: "Device code has expired"}
	}

	switch g.state {
	case grantDenied:
		s.dropGrantLocked(deviceCode, g)
		return model.TokenResponse{}, &model.OAuthError{Code: model.OAuthAccessDenied, Description: "Access denied"}
	case grantApproved:
		s.dropGrantLocked(deviceCode, g)
		sess := s.newSessionLocked(g.userID, "")
		return model.TokenResponse{
			AccessToken: sess.Token,
			TokenType:   "Bearer",
			ExpiresIn:   int(s.sessionTTL / time.Second),
			Scope:       g.scope,
		}, nil
	case grantPending:
		if !g.lastPoll.IsZero() && now.Sub(g.lastPoll) < g.interval {
			g.interval += slowDownStep
			g.lastPoll = now
			return model.TokenResponse{}, &model.OAuthError{Code: model.OAuthSlowDown, Description: "Polling too frequently"}
		}
		g.lastPoll = now
		return model.TokenResponse{}, &model.OAuthError{Code: model.OAuthAuthorizationPending, Description: "Authorization pending"}
	default:
		panic("store: unhandled grant state")
	}
}

func (s *Store) dropGrantLocked(deviceCode string, g *deviceGrant) {
	delete(s.devices, deviceCode)
	delete(s.userCodes, g.userCode)
}

func (s *Store) pendingGrantLocked(userCode string) (*deviceGrant, error) {
	deviceCode, ok := s.userCodes[userCode]
	if !ok {
		return nil, errs.NewBadRequest("Invalid user code")
	}
	g := s.devices[deviceCode]
	if !s.now().Before(g.expiresAt) {
		s.dropGrantLocked(deviceCode, g)
		return nil, errs.NewBadRequest("The user code has expired")
	}
	if g.state != grantPending {
		return nil, errs.NewBadRequest("The device has already been processed")
	}
	return g, nil
}

// ApproveDevice authorizes the device waiting on userCode for the user and
// completes their onboarding.
func (s *Store) ApproveDevice(userID, userCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(userID)
	if err != nil {
		return err
	}
	g, err := s.pendingGrantLocked(userCode)
	if err != nil {
		return err
	}
	g.state = grantApproved
	g.userID = userID

	u.CurrentOnboardingStep = model.StepPairDevice
	u.IsOnboarded = true
	if hid, ok := s.memberships[userID]; ok {
		s.paired[hid]++
	}
	return nil
}

// DenyDevice rejects the device waiting on userCode.
func (s *Store) DenyDevice(userID, userCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.userLocked(userID); err != nil {
		return err
	}
	g, err := s.pendingGrantLocked(userCode)
	if err != nil {
		return err
	}
	g.state = grantDenied
	return nil
}

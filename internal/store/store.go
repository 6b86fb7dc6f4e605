// Package store is the in-memory account, household and device-grant state
// behind the API server.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
)

const (
	defaultSessionTTL     = 7 * 24 * time.Hour
	defaultDeviceInterval = 5 * time.Second
	defaultDeviceTTL      = 30 * time.Minute
	defaultInvitationTTL  = 7 * 24 * time.Hour
	defaultVerifyURI      = "http://localhost:5173/pair-device"
)

type invitation struct {
	householdID string
	email       string
	role        string
	expiresAt   time.Time
	accepted    bool
}

// Store holds all state behind one mutex. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	users       map[string]*model.User
	sessions    map[string]*model.Session // by token
	households  map[string]*model.Household
	slugs       map[string]string // slug -> household id
	memberships map[string]string // user id -> household id
	invitations map[string]*invitation
	paired      map[string]int // household id -> active devices
	devices     map[string]*deviceGrant
	userCodes   map[string]string // user code -> device code

	now            func() time.Time
	sessionTTL     time.Duration
	deviceInterval time.Duration
	deviceTTL      time.Duration
	invitationTTL  time.Duration
	verifyURI      string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDeviceTiming sets the polling interval and lifetime of device grants.
func WithDeviceTiming(interval, ttl time.Duration) Option {
	return func(s *Store) {
		s.deviceInterval = interval
		s.deviceTTL = ttl
	}
}

// WithInvitationTTL sets how long household invitations stay valid.
func WithInvitationTTL(ttl time.Duration) Option {
	return func(s *Store) { s.invitationTTL = ttl }
}

// WithVerificationURI sets the page where users enter a device's code.
func WithVerificationURI(uri string) Option {
	return func(s *Store) { s.verifyURI = uri }
}

func New(opts ...Option) *Store {
	s := &Store{
		users:          make(map[string]*model.User),
		sessions:       make(map[string]*model.Session),
		households:     make(map[string]*model.Household),
		slugs:          make(map[string]string),
		memberships:    make(map[string]string),
		invitations:    make(map[string]*invitation),
		paired:         make(map[string]int),
		devices:        make(map[string]*deviceGrant),
		userCodes:      make(map[string]string),
		now:            time.Now,
		sessionTTL:     defaultSessionTTL,
		deviceInterval: defaultDeviceInterval,
		deviceTTL:      defaultDeviceTTL,
		invitationTTL:  defaultInvitationTTL,
		verifyURI:      defaultVerifyURI,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser registers a user and signs them in. An empty token is replaced
// by a random one.
func (s *Store) CreateUser(email, name, token string) (model.SessionResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return model.SessionResponse{}, errs.NewBadRequest("Email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return model.SessionResponse{}, errs.NewBadRequest(fmt.Sprintf("A user with email '%s' already exists", email))
		}
	}
	if token != "" {
		if _, taken := s.sessions[token]; taken {
			return model.SessionResponse{}, errs.NewBadRequest("Session token already in use")
		}
	}

	u := &model.User{
		ID:                    uuid.NewString(),
		Email:                 email,
		Name:                  name,
		CurrentOnboardingStep: model.StepUserInfo,
		CreatedAt:             s.now(),
	}
	s.users[u.ID] = u
	sess := s.newSessionLocked(u.ID, token)
	return model.SessionResponse{Session: *sess, User: *u}, nil
}

func (s *Store) newSessionLocked(userID, token string) *model.Session {
	if token == "" {
		token = uuid.NewString()
	}
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if hid, ok := s.memberships[userID]; ok {
		sess.ActiveOrganizationID = &hid
	}
	s.sessions[token] = sess
	return sess
}

// Session resolves a session token. Expired sessions are dropped.
func (s *Store) Session(token string) (model.SessionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return model.SessionResponse{}, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		return model.SessionResponse{}, false
	}
	u, ok := s.users[sess.UserID]
	if !ok {
		return model.SessionResponse{}, false
	}

	out := model.SessionResponse{Session: *sess, User: *u}
	out.Session.ActiveOrganizationID = nil
	if hid, ok := s.memberships[u.ID]; ok {
		out.Session.ActiveOrganizationID = &hid
	}
	return out, true
}

func (s *Store) userLocked(userID string) (*model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, errs.NewUnauthenticated("")
	}
	return u, nil
}

// Status reports where the user is in onboarding.
func (s *Store) Status(userID string) (model.OnboardingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(userID)
	if err != nil {
		return model.OnboardingStatus{}, err
	}
	st := model.OnboardingStatus{
		CurrentStep: u.CurrentOnboardingStep,
		IsOnboarded: u.IsOnboarded,
	}
	if st.CurrentStep == "" {
		st.CurrentStep = model.StepUserInfo
	}
	if hid, ok := s.memberships[u.ID]; ok {
		h := s.households[hid]
		id, name := h.ID, h.Name
		st.HasHousehold = true
		st.HouseholdID = &id
		st.HouseholdName = &name
		st.HasPairedDevice = s.paired[hid] > 0
	}
	return st, nil
}

// UpdateUserInfo stores the user's full name and moves them on to picking a
// household option.
func (s *Store) UpdateUserInfo(userID, firstName, lastName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(userID)
	if err != nil {
		return "", err
	}
	u.Name = strings.TrimSpace(firstName + " " + lastName)
	u.CurrentOnboardingStep = model.StepPickHouseholdOption
	return u.Name, nil
}

func (s *Store) SetStep(userID string, step model.OnboardingStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(userID)
	if err != nil {
		return err
	}
	u.CurrentOnboardingStep = step
	return nil
}

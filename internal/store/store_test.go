package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now), WithDeviceTiming(5*time.Second, time.Minute)), clock
}

func mustUser(t *testing.T, s *Store, email string) model.SessionResponse {
	t.Helper()
	sess, err := s.CreateUser(email, "", "")
	require.NoError(t, err)
	return sess
}

func TestCreateUserAndSession(t *testing.T) {
	s, clock := newTestStore(t)

	created, err := s.CreateUser("Ada@Example.com", "Ada", "seed-token")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.User.Email)
	assert.Equal(t, "seed-token", created.Session.Token)

	got, ok := s.Session("seed-token")
	require.True(t, ok)
	assert.Equal(t, created.User.ID, got.User.ID)

	_, err = s.CreateUser("ada@example.com", "", "")
	assert.True(t, errs.Is(err, errs.BadRequest))

	clock.Advance(defaultSessionTTL)
	_, ok = s.Session("seed-token")
	assert.False(t, ok)
}

func TestOnboardingFlow(t *testing.T) {
	s, _ := newTestStore(t)
	owner := mustUser(t, s, "owner@example.com")
	uid := owner.User.ID

	st, err := s.Status(uid)
	require.NoError(t, err)
	assert.Equal(t, model.StepUserInfo, st.CurrentStep)
	assert.False(t, st.HasHousehold)
	assert.Nil(t, st.HouseholdID)

	name, err := s.UpdateUserInfo(uid, "Ada", "Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	assert.True(t, s.SlugAvailable("lovelaces"))
	h, err := s.CreateHousehold(uid, "The Lovelaces", "lovelaces")
	require.NoError(t, err)
	assert.False(t, s.SlugAvailable("lovelaces"))
	require.Len(t, h.Members, 1)
	assert.Equal(t, "owner", h.Members[0].Role)

	st, err = s.Status(uid)
	require.NoError(t, err)
	assert.Equal(t, model.StepPairDevice, st.CurrentStep)
	require.NotNil(t, st.HouseholdName)
	assert.Equal(t, "The Lovelaces", *st.HouseholdName)

	sess, ok := s.Session(owner.Session.Token)
	require.True(t, ok)
	require.NotNil(t, sess.Session.ActiveOrganizationID)
	assert.Equal(t, h.ID, *sess.Session.ActiveOrganizationID)
}

func TestCreateHousehold_SlugTaken(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")

	_, err := s.CreateHousehold(a.User.ID, "A", "home")
	require.NoError(t, err)

	_, err = s.CreateHousehold(b.User.ID, "B", "home")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.BadRequest))
	assert.Contains(t, err.Error(), "The slug 'home' is already taken")
}

func TestJoinHousehold(t *testing.T) {
	s, clock := newTestStore(t)
	owner := mustUser(t, s, "owner@example.com")
	guest := mustUser(t, s, "guest@example.com")
	h, err := s.CreateHousehold(owner.User.ID, "Home", "home")
	require.NoError(t, err)

	inv, err := s.Invite(owner.User.ID, "Guest@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, h.ID, inv.HouseholdID)
	assert.Equal(t, "guest@example.com", inv.Email)
	assert.Equal(t, "member", inv.Role)
	assert.Equal(t, clock.Now().Add(defaultInvitationTTL), inv.ExpiresAt)
	code := inv.Code

	_, err = s.JoinHousehold(owner.User.ID, code)
	assert.EqualError(t, err, "bad_request: User already has a household")

	res, err := s.JoinHousehold(guest.User.ID, code)
	require.NoError(t, err)
	assert.Equal(t, h.ID, res.HouseholdID)
	assert.Equal(t, "Successfully joined household", res.Message)

	_, err = s.JoinHousehold(guest.User.ID, code)
	assert.EqualError(t, err, "bad_request: User already has a household")

	expired, err := s.Invite(guest.User.ID, "late@example.com", "member")
	require.NoError(t, err)
	late := mustUser(t, s, "late@example.com")
	clock.Advance(defaultInvitationTTL + time.Minute)
	_, err = s.JoinHousehold(late.User.ID, expired.Code)
	assert.EqualError(t, err, "bad_request: Invalid or expired invitation")
}

func TestInvite_RequiresHousehold(t *testing.T) {
	s, _ := newTestStore(t)
	loner := mustUser(t, s, "loner@example.com")

	_, err := s.Invite(loner.User.ID, "friend@example.com", "")
	assert.EqualError(t, err, "bad_request: You need a household to invite members")

	_, err = s.Invite("nobody", "friend@example.com", "")
	assert.True(t, errs.Is(err, errs.Unauthenticated))
}

func TestDeleteHousehold(t *testing.T) {
	s, _ := newTestStore(t)
	owner := mustUser(t, s, "owner@example.com")
	other := mustUser(t, s, "other@example.com")
	h, err := s.CreateHousehold(owner.User.ID, "Home", "home")
	require.NoError(t, err)

	_, err = s.DeleteHousehold(other.User.ID, h.ID)
	assert.True(t, errs.Is(err, errs.Unauthorized))

	_, err = s.DeleteHousehold(owner.User.ID, "missing")
	assert.True(t, errs.Is(err, errs.NotFound))

	name, err := s.DeleteHousehold(owner.User.ID, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", name)
	assert.True(t, s.SlugAvailable("home"))

	st, err := s.Status(owner.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepJoinHousehold, st.CurrentStep)
	assert.False(t, st.HasHousehold)
}

func TestDeviceGrant_Approved(t *testing.T) {
	s, clock := newTestStore(t)
	owner := mustUser(t, s, "owner@example.com")
	_, err := s.CreateHousehold(owner.User.ID, "Home", "home")
	require.NoError(t, err)

	code, err := s.StartDevice("agent", "openid")
	require.NoError(t, err)
	assert.Len(t, code.UserCode, userCodeLength)
	assert.Equal(t, 5, code.Interval)
	assert.Equal(t, 60, code.ExpiresIn)
	assert.Equal(t, defaultVerifyURI+"?user_code="+code.UserCode, code.VerificationURIComplete)

	_, oe := s.PollDevice(code.DeviceCode, "agent")
	require.NotNil(t, oe)
	assert.Equal(t, model.OAuthAuthorizationPending, oe.Code)

	require.NoError(t, s.ApproveDevice(owner.User.ID, code.UserCode))
	assert.Error(t, s.DenyDevice(owner.User.ID, code.UserCode))

	clock.Advance(5 * time.Second)
	tok, oe := s.PollDevice(code.DeviceCode, "agent")
	require.Nil(t, oe)
	assert.Equal(t, "Bearer", tok.TokenType)

	sess, ok := s.Session(tok.AccessToken)
	require.True(t, ok)
	assert.Equal(t, owner.User.ID, sess.User.ID)
	assert.True(t, sess.User.IsOnboarded)

	st, err := s.Status(owner.User.ID)
	require.NoError(t, err)
	assert.True(t, st.HasPairedDevice)

	_, oe = s.PollDevice(code.DeviceCode, "agent")
	require.NotNil(t, oe)
	assert.Equal(t, model.OAuthInvalidGrant, oe.Code)
}

func TestDeviceGrant_SlowDownDeniedExpired(t *testing.T) {
	s, clock := newTestStore(t)
	user := mustUser(t, s, "u@example.com")

	code, err := s.StartDevice("agent", "")
	require.NoError(t, err)

	_, oe := s.PollDevice(code.DeviceCode, "agent")
	assert.Equal(t, model.OAuthAuthorizationPending, oe.Code)
	_, oe = s.PollDevice(code.DeviceCode, "agent")
	assert.Equal(t, model.OAuthSlowDown, oe.Code)

	// The interval grew to 10s, so a 6s wait is still too early.
	clock.Advance(6 * time.Second)
	_, oe = s.PollDevice(code.DeviceCode, "agent")
	assert.Equal(t, model.OAuthSlowDown, oe.Code)

	_, oe = s.PollDevice(code.DeviceCode, "someone-else")
	assert.Equal(t, model.OAuthInvalidGrant, oe.Code)

	require.NoError(t, s.DenyDevice(user.User.ID, code.UserCode))
	_, oe = s.PollDevice(code.DeviceCode, "agent")
	assert.Equal(t, model.OAuthAccessDenied, oe.Code)

	expiring, err := s.StartDevice("agent", "")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, oe = s.PollDevice(expiring.DeviceCode, "agent")
	assert.Equal(t, model.OAuthExpiredToken, oe.Code)
	assert.Error(t, s.ApproveDevice(user.User.ID, expiring.UserCode))
}

func TestApproveDevice_UnknownCode(t *testing.T) {
	s, _ := newTestStore(t)
	user := mustUser(t, s, "u@example.com")

	err := s.ApproveDevice(user.User.ID, "BCDFGHJK")
	assert.EqualError(t, err, "bad_request: Invalid user code")

	err = s.ApproveDevice("ghost", "BCDFGHJK")
	assert.True(t, errs.Is(err, errs.Unauthenticated))
}

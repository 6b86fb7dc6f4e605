package agent

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/living-memory/internal/api"
	"github.com/Bahjat/living-memory/internal/apiclient"
	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
	"github.com/Bahjat/living-memory/internal/platform/logger"
	"github.com/Bahjat/living-memory/internal/sdk"
	"github.com/Bahjat/living-memory/internal/store"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type kiosk struct {
	client  *apiclient.Client
	manager *Manager
	pairer  *Pairer
	owner   *sdk.API
	release chan struct{}
}

// newKiosk wires an agent to a live API backed by an in-memory store. The
// pairer's poll loop blocks until release is closed.
func newKiosk(t *testing.T) *kiosk {
	t.Helper()
	log := logger.Discard()

	st := store.New(store.WithDeviceTiming(time.Second, time.Minute), store.WithVerificationURI("http://app.test/pair-device"))
	_, err := st.CreateUser("owner@example.com", "Owner", "owner-session")
	require.NoError(t, err)

	apiMux := http.NewServeMux()
	api.NewTransport(st, log, time.Second).RegisterRoutes(apiMux)
	apiSrv := httptest.NewServer(apiMux)
	t.Cleanup(apiSrv.Close)

	device := sdk.New(apiSrv.URL, apiclient.Direct(), apiclient.WithLogger(log))
	owner := sdk.New(apiSrv.URL, apiclient.Direct(apiclient.WithBearerToken("owner-session")), apiclient.WithLogger(log))

	m := NewManager(authPath(t), "agent")
	require.NoError(t, m.Restore())

	release := make(chan struct{})
	p := NewPairer(device.Auth, m, "agent", "openid", log)
	p.sleep = func(ctx context.Context, _ time.Duration) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.Cleanup(p.Close)

	agentMux := http.NewServeMux()
	NewTransport(m, p, log).RegisterRoutes(agentMux)
	agentSrv := httptest.NewServer(agentMux)
	t.Cleanup(agentSrv.Close)

	return &kiosk{
		client:  apiclient.New(agentSrv.URL, apiclient.Direct(), apiclient.WithLogger(log)),
		manager: m,
		pairer:  p,
		owner:   owner,
		release: release,
	}
}

func (k *kiosk) status(t *testing.T) Status {
	t.Helper()
	res := apiclient.Get[Status](context.Background(), k.client, apiclient.GetRequest{Path: "/status"})
	require.True(t, res.Success, "error: %+v", res.Error)
	return res.Data
}

func TestTransport_PairingFlow(t *testing.T) {
	ctx := context.Background()
	k := newKiosk(t)

	assert.Equal(t, StateIdle, k.status(t).State)

	qr := apiclient.Get[[]byte](ctx, k.client, apiclient.GetRequest{Path: "/pair/qr"})
	require.False(t, qr.Success)
	assert.Equal(t, errs.NotFound, qr.Error.ErrorType)

	started := apiclient.Mutate[model.DeviceCodeResponse](ctx, k.client, apiclient.MutateRequest{Path: "/pair/start", Method: http.MethodPost})
	require.True(t, started.Success, "error: %+v", started.Error)
	assert.Len(t, started.Data.UserCode, 8)

	st := k.status(t)
	assert.Equal(t, StatePairing, st.State)
	assert.Equal(t, started.Data.UserCode, st.UserCode)
	assert.Equal(t, "http://app.test/pair-device?user_code="+started.Data.UserCode, st.VerificationURIComplete)

	qr = apiclient.Get[[]byte](ctx, k.client, apiclient.GetRequest{Path: "/pair/qr"})
	require.True(t, qr.Success, "error: %+v", qr.Error)
	assert.True(t, bytes.HasPrefix(qr.Data, pngSignature))

	approved := k.owner.Onboarding.ApproveDevice(ctx, model.DeviceDecisionRequest{UserCode: started.Data.UserCode}, nil)
	require.True(t, approved.Success, "error: %+v", approved.Error)
	close(k.release)

	require.Eventually(t, k.manager.IsAuthorized, 2*time.Second, 10*time.Millisecond)
	token, ok := k.manager.AccessToken()
	require.True(t, ok)
	assert.NotEmpty(t, token)

	again := apiclient.Mutate[model.DeviceCodeResponse](ctx, k.client, apiclient.MutateRequest{Path: "/pair/start", Method: http.MethodPost})
	require.False(t, again.Success)
	assert.Equal(t, errs.BadRequest, again.Error.ErrorType)
	assert.Equal(t, "The device is already paired", again.Error.Message)
}

func TestTransport_PairingDenied(t *testing.T) {
	ctx := context.Background()
	k := newKiosk(t)

	started := apiclient.Mutate[model.DeviceCodeResponse](ctx, k.client, apiclient.MutateRequest{Path: "/pair/start", Method: http.MethodPost})
	require.True(t, started.Success, "error: %+v", started.Error)

	denied := k.owner.Onboarding.DenyDevice(ctx, model.DeviceDecisionRequest{UserCode: started.Data.UserCode}, nil)
	require.True(t, denied.Success, "error: %+v", denied.Error)
	close(k.release)

	require.Eventually(t, func() bool { return k.manager.Status().State == StateDenied }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, k.manager.Status().IsError())
	assert.Equal(t, "Pairing was denied", k.status(t).Message)
}

func TestTransport_PairStartFailure(t *testing.T) {
	log := logger.Discard()
	m := NewManager(authPath(t), "agent")
	m.SetIdle()
	auth := &scriptedAuthorizer{
		code: apiclient.ErrorResult[model.DeviceCodeResponse](errs.NewServerError("down"), http.MethodPost),
	}
	mux := http.NewServeMux()
	NewTransport(m, NewPairer(auth, m, "agent", "openid", log), log).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pair/start", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t,
		`{"status":500,"error_type":"server_error","message":"There was an issue when trying to start the pairing process"}`,
		rec.Body.String())
	assert.Equal(t, StateIdle, m.Status().State)
}

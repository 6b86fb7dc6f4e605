package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/living-memory/internal/platform/logger"
)

func TestSSR_ForwardsInboundHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("lm_session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	inbound := httptest.NewRequest(http.MethodGet, "/onboarding", nil)
	inbound.Header.Set("Cookie", "lm_session=abc")
	inbound.Header.Set("Authorization", "Bearer t1")
	inbound.Header.Set("Accept-Encoding", "gzip, br")

	c := New(srv.URL, SSR(), WithLogger(logger.Discard()))
	res := Get[any](context.Background(), c, GetRequest{Path: "/x", Inbound: inbound})
	assert.True(t, res.Success, "error: %+v", res.Error)
	assert.Equal(t, "gzip, br", inbound.Header.Get("Accept-Encoding"))
}

func TestSSR_PanicsWithoutInboundRequest(t *testing.T) {
	c := New("http://unused.invalid", SSR(), WithLogger(logger.Discard()))

	assert.PanicsWithValue(t, ErrInboundRequestRequired, func() {
		Get[any](context.Background(), c, GetRequest{Path: "/x"})
	})
}

func TestBrowser_KeepsCookiesAndIgnoresInbound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "lm_session", Value: "fresh", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("lm_session")
		if assert.NoError(t, err) {
			assert.Equal(t, "fresh", cookie.Value)
		}
		assert.Empty(t, r.Header.Get("X-Inbound"))
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, Browser(), WithLogger(logger.Discard()))
	ctx := context.Background()

	login := Mutate[any](ctx, c, MutateRequest{Path: "/login", Method: http.MethodPost})
	require.True(t, login.Success, "error: %+v", login.Error)

	inbound := httptest.NewRequest(http.MethodGet, "/", nil)
	inbound.Header.Set("X-Inbound", "1")
	inbound.Header.Set("Cookie", "lm_session=stale")
	me := Get[any](ctx, c.Sub("/"), GetRequest{Path: "/me", Inbound: inbound})
	assert.True(t, me.Success, "error: %+v", me.Error)
}

func TestDirect_BearerAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer device-token", r.Header.Get("Authorization"))
		assert.Equal(t, "kiosk", r.Header.Get("X-Client"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, Direct(WithBearerToken("device-token"), WithHeader("X-Client", "kiosk")), WithLogger(logger.Discard()))
	assert.True(t, Get[any](context.Background(), c, GetRequest{Path: "/x"}).Success)
}

func TestDirect_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, Direct(WithTimeout(50*time.Millisecond)), WithLogger(logger.Discard()))
	res := Get[any](context.Background(), c, GetRequest{Path: "/slow"})
	require.False(t, res.Success)
	assert.Contains(t, res.Error.Message, "Network error while fetching")
}

func TestDirect_HTTPClientUntouchedWithoutTimeout(t *testing.T) {
	base := &http.Client{}
	assert.Same(t, base, Direct().HTTPClient(base))

	adapted := Direct(WithTimeout(time.Second)).HTTPClient(base)
	assert.NotSame(t, base, adapted)
	assert.Equal(t, time.Second, adapted.Timeout)
	assert.Zero(t, base.Timeout)
}

package sdk

import (
	"context"
	"net/http"

	"github.com/Bahjat/living-memory/internal/apiclient"
	"github.com/Bahjat/living-memory/internal/model"
)

// AuthClient talks to /api/auth.
type AuthClient struct {
	c *apiclient.Client
}

// GetSession returns the caller's session, or nil data when signed out.
func (a *AuthClient) GetSession(ctx context.Context, inbound *http.Request) apiclient.Result[*model.SessionResponse] {
	return apiclient.Get[*model.SessionResponse](ctx, a.c, apiclient.GetRequest{
		Path:    "/get-session",
		Inbound: inbound,
	})
}

// DeviceCode starts a device authorization.
func (a *AuthClient) DeviceCode(ctx context.Context, req model.DeviceCodeRequest, inbound *http.Request) apiclient.Result[model.DeviceCodeResponse] {
	return apiclient.Mutate[model.DeviceCodeResponse](ctx, a.c, apiclient.MutateRequest{
		Path:    "/device/code",
		Method:  http.MethodPost,
		Body:    apiclient.JSON(req),
		Inbound: inbound,
	})
}

// DeviceToken polls for the device's access token. Pending and denied
// states arrive as failed results; see OAuthErrorOf.
func (a *AuthClient) DeviceToken(ctx context.Context, req model.DeviceTokenRequest, inbound *http.Request) apiclient.Result[model.TokenResponse] {
	return apiclient.Mutate[model.TokenResponse](ctx, a.c, apiclient.MutateRequest{
		Path:    "/device/token",
		Method:  http.MethodPost,
		Body:    apiclient.JSON(req),
		Inbound: inbound,
	})
}

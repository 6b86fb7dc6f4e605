package model

import "time"

// User is the authenticated account as returned by the session endpoint.
type User struct {
	ID                    string         `json:"id" validate:"required"`
	Email                 string         `json:"email" validate:"required,email"`
	Name                  string         `json:"name"`
	EmailVerified         bool           `json:"emailVerified"`
	CurrentOnboardingStep OnboardingStep `json:"currentOnboardingStep,omitempty"`
	IsOnboarded           bool           `json:"isOnboarded"`
	CreatedAt             time.Time      `json:"createdAt"`
}

// Session is an active sign-in.
type Session struct {
	ID                   string    `json:"id" validate:"required"`
	UserID               string    `json:"userId" validate:"required"`
	Token                string    `json:"token" validate:"required"`
	ExpiresAt            time.Time `json:"expiresAt"`
	ActiveOrganizationID *string   `json:"activeOrganizationId"`
}

// SessionResponse is the body of GET /api/auth/get-session. The endpoint
// returns JSON null when there is no session.
type SessionResponse struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

// DeviceCodeRequest starts an RFC 8628 device authorization.
type DeviceCodeRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	Scope    string `json:"scope,omitempty"`
}

// DeviceCodeResponse is the device authorization response.
type DeviceCodeResponse struct {
	DeviceCode              string `json:"device_code" validate:"required"`
	UserCode                string `json:"user_code" validate:"required"`
	VerificationURI         string `json:"verification_uri" validate:"required"`
	VerificationURIComplete string `json:"verification_uri_complete" validate:"required"`
	ExpiresIn               int    `json:"expires_in" validate:"min=1"`
	Interval                int    `json:"interval" validate:"min=1"`
}

// DeviceGrantType is the grant_type a device sends while polling.
const DeviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// DeviceTokenRequest polls for the outcome of a device authorization.
type DeviceTokenRequest struct {
	GrantType  string `json:"grant_type" validate:"required"`
	DeviceCode string `json:"device_code" validate:"required"`
	ClientID   string `json:"client_id" validate:"required"`
}

// TokenResponse is issued once the user approves the device.
type TokenResponse struct {
	AccessToken string `json:"access_token" validate:"required"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// OAuth device flow error codes.
const (
	OAuthAuthorizationPending = "authorization_pending"
	OAuthSlowDown             = "slow_down"
	OAuthAccessDenied         = "access_denied"
	OAuthExpiredToken         = "expired_token"
	OAuthInvalidRequest       = "invalid_request"
	OAuthInvalidGrant         = "invalid_grant"
)

// OAuthError is the error body of the device endpoints.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

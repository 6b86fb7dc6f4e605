package api

import "github.com/Bahjat/living-memory/internal/model"

// Backend is the account, household and device-grant state the API serves.
// Business failures are returned as *errs.Error values.
type Backend interface {
	Session(token string) (model.SessionResponse, bool)
	Status(userID string) (model.OnboardingStatus, error)
	UpdateUserInfo(userID, firstName, lastName string) (string, error)
	SetStep(userID string, step model.OnboardingStep) error

	SlugAvailable(slug string) bool
	CreateHousehold(userID, name, slug string) (model.Household, error)
	Invite(userID, email, role string) (model.Invitation, error)
	JoinHousehold(userID, code string) (model.JoinHouseholdResponse, error)
	DeleteHousehold(userID, householdID string) (string, error)

	StartDevice(clientID, scope string) (model.DeviceCodeResponse, error)
	PollDevice(deviceCode, clientID string) (model.TokenResponse, *model.OAuthError)
	ApproveDevice(userID, userCode string) error
	DenyDevice(userID, userCode string) error
}

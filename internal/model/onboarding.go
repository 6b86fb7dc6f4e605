package model

import "time"

// OnboardingStep is where a user is in the onboarding flow.
type OnboardingStep string

const (
	StepUserInfo            OnboardingStep = "USER_INFO"
	StepPickHouseholdOption OnboardingStep = "PICK_HOUSEHOLD_OPTION"
	StepCreateHousehold     OnboardingStep = "CREATE_HOUSEHOLD"
	StepJoinHousehold       OnboardingStep = "JOIN_HOUSEHOLD"
	StepPairDevice          OnboardingStep = "PAIR_DEVICE"
)

// OnboardingStatus is the body of GET /api/onboarding/status.
type OnboardingStatus struct {
	CurrentStep     OnboardingStep `json:"currentStep" validate:"oneof=USER_INFO PICK_HOUSEHOLD_OPTION CREATE_HOUSEHOLD JOIN_HOUSEHOLD PAIR_DEVICE"`
	IsOnboarded     bool           `json:"isOnboarded"`
	HasHousehold    bool           `json:"hasHousehold"`
	HouseholdID     *string        `json:"householdId"`
	HouseholdName   *string        `json:"householdName"`
	HasPairedDevice bool           `json:"hasPairedDevice"`
}

type ValidateSlugRequest struct {
	Slug string `json:"slug" validate:"required,slug"`
}

type ValidateSlugResponse struct {
	IsAvailable bool `json:"isAvailable"`
}

type CreateHouseholdRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required,slug"`
}

// HouseholdMember links a user to a household with a role.
type HouseholdMember struct {
	ID             string     `json:"id" validate:"required"`
	OrganizationID string     `json:"organizationId" validate:"required"`
	UserID         string     `json:"userId" validate:"required"`
	Role           string     `json:"role" validate:"required"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// Household is a shared space owned by one or more members.
type Household struct {
	ID        string            `json:"id" validate:"required"`
	Name      string            `json:"name" validate:"required"`
	Slug      string            `json:"slug" validate:"required,slug"`
	Logo      *string           `json:"logo,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
	Members   []HouseholdMember `json:"members" validate:"dive"`
}

// InviteRequest invites someone into the caller's household.
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=owner member"`
}

// Invitation is a pending invitation; Code is what the invitee enters.
type Invitation struct {
	Code        string    `json:"code" validate:"required"`
	HouseholdID string    `json:"householdId" validate:"required"`
	Email       string    `json:"email" validate:"required,email"`
	Role        string    `json:"role" validate:"required"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type JoinHouseholdRequest struct {
	InvitationCode string `json:"invitationCode" validate:"required"`
}

type JoinHouseholdResponse struct {
	HouseholdID   string `json:"householdId" validate:"required"`
	HouseholdName string `json:"householdName" validate:"required"`
	Message       string `json:"message" validate:"required"`
}

type UpdateUserInfoRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type UpdateUserInfoResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name" validate:"required"`
}

type SetStepRequest struct {
	Step OnboardingStep `json:"step" validate:"required,oneof=USER_INFO PICK_HOUSEHOLD_OPTION CREATE_HOUSEHOLD JOIN_HOUSEHOLD PAIR_DEVICE"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// DeviceDecisionRequest approves or denies a pending device by its user code.
type DeviceDecisionRequest struct {
	UserCode string `json:"user_code" validate:"len=8"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" validate:"required"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status" validate:"required"`
}

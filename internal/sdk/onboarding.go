package sdk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Bahjat/living-memory/internal/apiclient"
	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/validate"
)

// OnboardingClient talks to /api/onboarding.
type OnboardingClient struct {
	c *apiclient.Client
}

// GetStatus returns where the signed-in user is in onboarding.
func (o *OnboardingClient) GetStatus(ctx context.Context, inbound *http.Request) apiclient.Result[model.OnboardingStatus] {
	return apiclient.Get[model.OnboardingStatus](ctx, o.c, apiclient.GetRequest{
		Path:    "/status",
		Inbound: inbound,
	})
}

// ValidateSlug checks whether a household slug is free. The slug is
// validated locally before it is placed in the path.
func (o *OnboardingClient) ValidateSlug(ctx context.Context, req model.ValidateSlugRequest, inbound *http.Request) apiclient.Result[model.ValidateSlugResponse] {
	if err := validate.Struct(req); err != nil {
		return apiclient.ErrorResult[model.ValidateSlugResponse](err, http.MethodGet)
	}
	return apiclient.Get[model.ValidateSlugResponse](ctx, o.c, apiclient.GetRequest{
		Path:    "/validate-slug/" + url.PathEscape(req.Slug),
		Inbound: inbound,
	})
}

// CreateHousehold creates a household owned by the signed-in user.
func (o *OnboardingClient) CreateHousehold(ctx context.Context, req model.CreateHouseholdRequest, inbound *http.Request) apiclient.Result[model.Household] {
	return post[model.Household](ctx, o.c, "/create-household", req, inbound)
}

// JoinHousehold accepts an invitation by its code.
func (o *OnboardingClient) JoinHousehold(ctx context.Context, req model.JoinHouseholdRequest, inbound *http.Request) apiclient.Result[model.JoinHouseholdResponse] {
	return post[model.JoinHouseholdResponse](ctx, o.c, "/join-household", req, inbound)
}

// UpdateUserInfo saves the user's name and moves onboarding on.
func (o *OnboardingClient) UpdateUserInfo(ctx context.Context, req model.UpdateUserInfoRequest, inbound *http.Request) apiclient.Result[model.UpdateUserInfoResponse] {
	return post[model.UpdateUserInfoResponse](ctx, o.c, "/update-user-info", req, inbound)
}

// SetStep moves the user to an onboarding step.
func (o *OnboardingClient) SetStep(ctx context.Context, req model.SetStepRequest, inbound *http.Request) apiclient.Result[model.SuccessResponse] {
	return post[model.SuccessResponse](ctx, o.c, "/set-onboarding-step", req, inbound)
}

// ApproveDevice grants the device waiting on user code its token.
func (o *OnboardingClient) ApproveDevice(ctx context.Context, req model.DeviceDecisionRequest, inbound *http.Request) apiclient.Result[model.MessageResponse] {
	return post[model.MessageResponse](ctx, o.c, "/pair-device/approve", req, inbound)
}

// DenyDevice rejects the device waiting on user code.
func (o *OnboardingClient) DenyDevice(ctx context.Context, req model.DeviceDecisionRequest, inbound *http.Request) apiclient.Result[model.MessageResponse] {
	return post[model.MessageResponse](ctx, o.c, "/pair-device/deny", req, inbound)
}

func post[T any](ctx context.Context, c *apiclient.Client, path string, body any, inbound *http.Request) apiclient.Result[T] {
	return apiclient.Mutate[T](ctx, c, apiclient.MutateRequest{
		Path:    path,
		Method:  http.MethodPost,
		Body:    apiclient.JSON(body),
		Inbound: inbound,
	})
}

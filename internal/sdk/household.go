package sdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Bahjat/living-memory/internal/apiclient"
	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
)

// HouseholdClient talks to /api/household.
type HouseholdClient struct {
	c *apiclient.Client
}

// DeleteHousehold removes a household by id.
func (h *HouseholdClient) DeleteHousehold(ctx context.Context, householdID string, inbound *http.Request) apiclient.Result[model.MessageResponse] {
	if strings.TrimSpace(householdID) == "" {
		err := errs.NewValidation(errs.FieldErrors{"id": {"Missing param ':household-id'"}}, "")
		return apiclient.ErrorResult[model.MessageResponse](err, http.MethodDelete)
	}
	return apiclient.Mutate[model.MessageResponse](ctx, h.c, apiclient.MutateRequest{
		Path:    "/delete/" + url.PathEscape(householdID),
		Method:  http.MethodDelete,
		Inbound: inbound,
	})
}

// Invite creates an invitation into the caller's household.
func (h *HouseholdClient) Invite(ctx context.Context, req model.InviteRequest, inbound *http.Request) apiclient.Result[model.Invitation] {
	return post[model.Invitation](ctx, h.c, "/invite", req, inbound)
}

// HealthClient talks to /api/health.
type HealthClient struct {
	c *apiclient.Client
}

// Check reports whether the API is up.
func (h *HealthClient) Check(ctx context.Context) apiclient.Result[model.HealthResponse] {
	return apiclient.Get[model.HealthResponse](ctx, h.c, apiclient.GetRequest{Path: "/health"})
}

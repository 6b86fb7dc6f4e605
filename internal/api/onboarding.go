package api

import (
	"fmt"
	"net/http"

	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/validate"
)

func (t *Transport) handleStatus(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	st, err := t.backend.Status(uid)
	if err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.getStatus", st)
}

func (t *Transport) handleValidateSlug(w http.ResponseWriter, r *http.Request) error {
	req := model.ValidateSlugRequest{Slug: r.PathValue("slug")}
	if err := validate.Struct(req); err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.validateSlug", model.ValidateSlugResponse{
		IsAvailable: t.backend.SlugAvailable(req.Slug),
	})
}

func (t *Transport) handleCreateHousehold(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	req, err := decode[model.CreateHouseholdRequest](w, r)
	if err != nil {
		return err
	}
	h, err := t.backend.CreateHousehold(uid, req.Name, req.Slug)
	if err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.createHousehold", h)
}

func (t *Transport) handleJoinHousehold(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	req, err := decode[model.JoinHouseholdRequest](w, r)
	if err != nil {
		return err
	}
	res, err := t.backend.JoinHousehold(uid, req.InvitationCode)
	if err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.joinHousehold", res)
}

func (t *Transport) handleUpdateUserInfo(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	req, err := decode[model.UpdateUserInfoRequest](w, r)
	if err != nil {
		return err
	}
	name, err := t.backend.UpdateUserInfo(uid, req.FirstName, req.LastName)
	if err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.updateUserInfo", model.UpdateUserInfoResponse{Success: true, Name: name})
}

func (t *Transport) handleSetStep(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	req, err := decode[model.SetStepRequest](w, r)
	if err != nil {
		return err
	}
	if err := t.backend.SetStep(uid, req.Step); err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.setStep", model.SuccessResponse{Success: true})
}

func (t *Transport) handleApproveDevice(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	req, err := decode[model.DeviceDecisionRequest](w, r)
	if err != nil {
		return err
	}
	if err := t.backend.ApproveDevice(uid, req.UserCode); err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.approveDevice", model.MessageResponse{Message: "Device approved"})
}

func (t *Transport) handleDenyDevice(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	req, err := decode[model.DeviceDecisionRequest](w, r)
	if err != nil {
		return err
	}
	if err := t.backend.DenyDevice(uid, req.UserCode); err != nil {
		return err
	}
	return t.respond(w, r, "onboarding.denyDevice", model.MessageResponse{Message: "Device denied"})
}

func (t *Transport) handleInvite(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	req, err := decode[model.InviteRequest](w, r)
	if err != nil {
		return err
	}
	inv, err := t.backend.Invite(uid, req.Email, req.Role)
	if err != nil {
		return err
	}
	return t.respond(w, r, "household.invite", inv)
}

func (t *Transport) handleDeleteHousehold(w http.ResponseWriter, r *http.Request) error {
	uid, err := userID(r)
	if err != nil {
		return err
	}
	name, err := t.backend.DeleteHousehold(uid, r.PathValue("id"))
	if err != nil {
		return err
	}
	return t.respond(w, r, "household.deleteHousehold", model.MessageResponse{
		Message: fmt.Sprintf("Successfully deleted '%s' household", name),
	})
}

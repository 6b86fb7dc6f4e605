package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
)

// SlugAvailable reports whether no household uses slug.
func (s *Store) SlugAvailable(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, taken := s.slugs[slug]
	return !taken
}

// CreateHousehold creates a household owned by userID and advances the
// user to device pairing.
func (s *Store) CreateHousehold(userID, name, slug string) (model.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(userID)
	if err != nil {
		return model.Household{}, err
	}
	if _, taken := s.slugs[slug]; taken {
		return model.Household{}, errs.NewBadRequest(fmt.Sprintf("The slug '%s' is already taken. Please try another one.", slug))
	}
	if _, member := s.memberships[userID]; member {
		return model.Household{}, errs.NewBadRequest("User already has a household")
	}

	now := s.now()
	h := &model.Household{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
	}
	h.Members = []model.HouseholdMember{{
		ID:             uuid.NewString(),
		OrganizationID: h.ID,
		UserID:         userID,
		Role:           "owner",
		CreatedAt:      now,
	}}
	s.households[h.ID] = h
	s.slugs[slug] = h.ID
	s.memberships[userID] = h.ID
	u.CurrentOnboardingStep = model.StepPairDevice

	return cloneHousehold(h), nil
}

// Invite lets a member invite email into their household. The returned code
// is accepted by JoinHousehold for that email only.
func (s *Store) Invite(userID, email, role string) (model.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.userLocked(userID); err != nil {
		return model.Invitation{}, err
	}
	hid, ok := s.memberships[userID]
	if !ok {
		return model.Invitation{}, errs.NewBadRequest("You need a household to invite members")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if role == "" {
		role = "member"
	}

	inv := model.Invitation{
		Code:        uuid.NewString(),
		HouseholdID: hid,
		Email:       email,
		Role:        role,
		ExpiresAt:   s.now().Add(s.invitationTTL),
	}
	s.invitations[inv.Code] = &invitation{
		householdID: hid,
		email:       email,
		role:        role,
		expiresAt:   inv.ExpiresAt,
	}
	return inv, nil
}

// JoinHousehold accepts a pending invitation addressed to the user.
func (s *Store) JoinHousehold(userID, code string) (model.JoinHouseholdResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userLocked(userID)
	if err != nil {
		return model.JoinHouseholdResponse{}, err
	}
	if _, member := s.memberships[userID]; member {
		return model.JoinHouseholdResponse{}, errs.NewBadRequest("User already has a household")
	}

	inv, ok := s.invitations[code]
	if !ok || inv.accepted || inv.email != u.Email || !s.now().Before(inv.expiresAt) {
		return model.JoinHouseholdResponse{}, errs.NewBadRequest("Invalid or expired invitation")
	}
	h, ok := s.households[inv.householdID]
	if !ok {
		return model.JoinHouseholdResponse{}, errs.NewBadRequest("Invalid or expired invitation")
	}

	h.Members = append(h.Members, model.HouseholdMember{
		ID:             uuid.NewString(),
		OrganizationID: h.ID,
		UserID:         userID,
		Role:           inv.role,
		CreatedAt:      s.now(),
	})
	inv.accepted = true
	s.memberships[userID] = h.ID
	u.CurrentOnboardingStep = model.StepPairDevice

	return model.JoinHouseholdResponse{
		HouseholdID:   h.ID,
		HouseholdName: h.Name,
		Message:       "Successfully joined household",
	}, nil
}

// DeleteHousehold removes a household the user belongs to and sends every
// member back to the join step. It returns the deleted household's name.
func (s *Store) DeleteHousehold(userID, householdID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.userLocked(userID); err != nil {
		return "", err
	}
	h, ok := s.households[householdID]
	if !ok {
		return "", errs.NewNotFound(fmt.Sprintf("Household '%s' does not exist", householdID))
	}
	if s.memberships[userID] != householdID {
		return "", errs.NewUnauthorized("You are not a member of this household")
	}

	for _, m := range h.Members {
		delete(s.memberships, m.UserID)
		if u, ok := s.users[m.UserID]; ok {
			u.CurrentOnboardingStep = model.StepJoinHousehold
			u.IsOnboarded = false
		}
	}
	delete(s.slugs, h.Slug)
	delete(s.paired, h.ID)
	delete(s.households, h.ID)
	return h.Name, nil
}

func cloneHousehold(h *model.Household) model.Household {
	out := *h
	out.Members = append([]model.HouseholdMember(nil), h.Members...)
	return out
}

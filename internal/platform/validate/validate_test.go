package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/living-memory/internal/platform/errs"
)

type member struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"oneof=owner member"`
}

type household struct {
	Name    string   `json:"name" validate:"min=1"`
	Slug    string   `json:"slug" validate:"required,slug"`
	Code    string   `json:"user_code,omitempty" validate:"omitempty,len=8"`
	Members []member `json:"members" validate:"dive"`
	Page    int      `query:"page" validate:"gte=0"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(household{Name: "Home", Slug: "the-home-1", Members: []member{{ID: "u1", Role: "owner"}}})
	assert.NoError(t, err)
}

func TestStruct_SlugRule(t *testing.T) {
	err := Struct(&household{Name: "Home", Slug: "Invalid Slug!"})

	require.Error(t, err)
	wire := errs.Serialize(err)
	assert.Equal(t, errs.Validation, wire.ErrorType)
	assert.Equal(t, 400, wire.Status)
	require.NotEmpty(t, wire.Errors["slug"])
	assert.Equal(t, "slug must contain only lowercase letters, numbers, and hyphens", wire.Errors["slug"][0])
}

func TestStruct_FieldPaths(t *testing.T) {
	err := Struct(household{
		Slug:    "ok",
		Code:    "short",
		Members: []member{{ID: "u1", Role: "owner"}, {Role: "guest"}},
		Page:    -1,
	})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	fields := errs.Flatten(verr.Issues())

	assert.Equal(t, []string{"name is required"}, fields["name"])
	assert.Equal(t, []string{"user_code must be 8 characters"}, fields["user_code"])
	assert.Equal(t, []string{"id is required"}, fields["members.1.id"])
	assert.Equal(t, []string{"role must be one of: owner, member"}, fields["members.1.role"])
	assert.Contains(t, fields, "page")
}

func TestStruct_NonStructsPass(t *testing.T) {
	var nilPtr *household
	assert.NoError(t, Struct(nil))
	assert.NoError(t, Struct(nilPtr))
	assert.NoError(t, Struct("plain"))
	assert.NoError(t, Struct(map[string]any{"a": 1}))
}

func TestError_Message(t *testing.T) {
	err := Struct(household{Name: "x"})
	assert.EqualError(t, err, "validation failed: slug: slug is required")
}

// Package validate checks request and response contracts declared with
// struct tags and reports failures as field-level issues.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Bahjat/living-memory/internal/platform/errs"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Error lists every failed rule of a single validation pass.
type Error struct {
	issues []errs.Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.issues))
	for _, is := range e.issues {
		parts = append(parts, strings.Join(is.Path, ".")+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Issues implements errs.IssueLister.
func (e *Error) Issues() []errs.Issue {
	return e.issues
}

// Validator wraps a configured validator.Validate. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields by their json (or query) tag and
// knows the "slug" rule.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// Struct validates s. Values that are not structs (or pointers to structs)
// have no declared contract and always pass.
func (v *Validator) Struct(s any) error {
	if s == nil {
		return nil
	}
	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := v.v.Struct(rv.Interface())
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	issues := make([]errs.Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, errs.Issue{Path: path(fe.Namespace()), Message: message(fe)})
	}
	return &Error{issues: issues}
}

var std = New()

// Struct validates s with the shared Validator.
func Struct(s any) error {
	return std.Struct(s)
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "query"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// path drops the root type name and turns "members[0].id" into
// ["members", "0", "id"].
func path(namespace string) []string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return []string{namespace}
	}
	rest = strings.ReplaceAll(rest, "]", "")
	rest = strings.ReplaceAll(rest, "[", ".")
	return strings.Split(rest, ".")
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return field + " is required"
			}
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "slug":
		return field + " must contain only lowercase letters, numbers, and hyphens"
	case "email":
		return field + " must be a valid email address"
	case "url", "http_url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed the %q rule", field, fe.Tag())
	}
}

package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Wire statuses must be valid HTTP status codes.
const (
	minStatus = 100
	maxStatus = 599
)

// unknownFormatMessage is used when a payload does not match the wire schema.
const unknownFormatMessage = "Unknown error format received from server"

var (
	errMissingStatus    = errors.New("missing, non-integer or out of range \"status\"")
	errMissingMessage   = errors.New("missing or non-string \"message\"")
	errInvalidErrorType = errors.New("missing or unknown \"error_type\"")
	errMissingErrors    = errors.New("validation payload requires an \"errors\" object")
)

// ErrorResponse is the JSON shape every error takes across a network boundary.
// Errors is present if and only if ErrorType is Validation.
type ErrorResponse struct {
	Status    int         `json:"status"`
	ErrorType Kind        `json:"error_type"`
	Message   string      `json:"message"`
	Errors    FieldErrors `json:"errors,omitempty"`
}

// MarshalJSON keeps the errors-iff-validation invariant regardless of how the
// value was built.
func (r ErrorResponse) MarshalJSON() ([]byte, error) {
	type wire struct {
		Status    int          `json:"status"`
		ErrorType Kind         `json:"error_type"`
		Message   string       `json:"message"`
		Errors    *FieldErrors `json:"errors,omitempty"`
	}
	w := wire{Status: r.Status, ErrorType: r.ErrorType, Message: r.Message}
	if r.ErrorType == Validation {
		fields := r.Errors
		if fields == nil {
			fields = FieldErrors{}
		}
		w.Errors = &fields
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts only payloads matching the wire schema.
func (r *ErrorResponse) UnmarshalJSON(data []byte) error {
	parsed, err := ParseErrorResponse(data)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Error lets a decoded wire payload travel as an error value.
func (r ErrorResponse) Error() string {
	return fmt.Sprintf("%s (%d): %s", r.ErrorType, r.Status, r.Message)
}

// ParseErrorResponse validates raw JSON against the wire schema. Unknown keys
// are ignored; an "errors" key on a non-validation payload is dropped.
func ParseErrorResponse(data []byte) (ErrorResponse, error) {
	var raw struct {
		Status    *float64        `json:"status"`
		ErrorType *string         `json:"error_type"`
		Message   *string         `json:"message"`
		Errors    json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrorResponse{}, fmt.Errorf("error response: %w", err)
	}

	if raw.Status == nil || *raw.Status != math.Trunc(*raw.Status) ||
		*raw.Status < minStatus || *raw.Status > maxStatus {
		return ErrorResponse{}, errMissingStatus
	}
	if raw.Message == nil {
		return ErrorResponse{}, errMissingMessage
	}
	if raw.ErrorType == nil || !Kind(*raw.ErrorType).Valid() {
		return ErrorResponse{}, errInvalidErrorType
	}

	resp := ErrorResponse{
		Status:    int(*raw.Status),
		ErrorType: Kind(*raw.ErrorType),
		Message:   *raw.Message,
	}
	if resp.ErrorType == Validation {
		var fields FieldErrors
		if len(raw.Errors) == 0 {
			return ErrorResponse{}, errMissingErrors
		}
		if err := json.Unmarshal(raw.Errors, &fields); err != nil {
			return ErrorResponse{}, fmt.Errorf("%w: %w", errMissingErrors, err)
		}
		if fields == nil {
			return ErrorResponse{}, errMissingErrors
		}
		resp.Errors = fields
	}
	return resp, nil
}

// Valid reports whether r satisfies the wire schema.
func (r ErrorResponse) Valid() bool {
	if !r.ErrorType.Valid() {
		return false
	}
	return r.ErrorType != Validation || r.Errors != nil
}

// Issue is a single field-level validation failure.
type Issue struct {
	Path    []string
	Message string
}

// IssueLister is implemented by structured validation errors.
type IssueLister interface {
	Issues() []Issue
}

// Flatten groups issues by dot-joined path, keeping messages in the order
// they were detected.
func Flatten(issues []Issue) FieldErrors {
	fields := make(FieldErrors, len(issues))
	for _, is := range issues {
		path := strings.Join(is.Path, ".")
		fields[path] = append(fields[path], is.Message)
	}
	return fields
}

// Serialize converts any value into a wire payload:
//   - structured validation errors become a validation payload;
//   - *Error values use their own wire form;
//   - ErrorResponse values or JSON matching the schema pass through;
//   - anything else becomes an unknown error carrying its string form.
func Serialize(v any) ErrorResponse {
	switch t := v.(type) {
	case nil:
		return NewUnknown("", 0).Wire()
	case ErrorResponse:
		if t.Valid() {
			return t
		}
	case *ErrorResponse:
		if t != nil && t.Valid() {
			return *t
		}
	case []byte:
		if resp, err := ParseErrorResponse(t); err == nil {
			return resp
		}
		return NewUnknown(string(t), 0).Wire()
	case json.RawMessage:
		if resp, err := ParseErrorResponse(t); err == nil {
			return resp
		}
		return NewUnknown(string(t), 0).Wire()
	case map[string]any:
		if data, err := json.Marshal(t); err == nil {
			if resp, err := ParseErrorResponse(data); err == nil {
				return resp
			}
		}
	}

	if err, ok := v.(error); ok {
		var lister IssueLister
		if errors.As(err, &lister) {
			return NewValidation(Flatten(lister.Issues()), "").Wire()
		}
		var e *Error
		if errors.As(err, &e) {
			return e.Wire()
		}
		return NewUnknown(err.Error(), 0).Wire()
	}
	return NewUnknown(fmt.Sprint(v), 0).Wire()
}

// FromWire rebuilds a kind-specific *Error from a wire payload. The method is
// only used for MethodNotAllowed, which does not carry it on the wire; an empty
// method becomes "UNKNOWN". The wire message is kept verbatim.
func FromWire(resp ErrorResponse, method string) *Error {
	if !resp.Valid() {
		return NewServerError(unknownFormatMessage)
	}

	e := &Error{Kind: resp.ErrorType, Status: resp.Status, Message: resp.Message}
	switch resp.ErrorType {
	case Validation:
		e.Fields = resp.Errors
	case MethodNotAllowed:
		if method == "" {
			method = "UNKNOWN"
		}
		e.Method = method
	case Unknown, Unauthenticated, Unauthorized, ServerError, NotFound, BadRequest:
	default:
		panic(fmt.Sprintf("errs: unhandled kind %q", string(resp.ErrorType)))
	}
	return e
}

package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind categorizes application errors. The set is closed; every kind has a
// conventional HTTP status.
type Kind string

const (
	// Unknown represents an unclassified error (HTTP 500 unless overridden).
	Unknown Kind = "unknown"
	// Unauthenticated indicates a missing or invalid session (HTTP 401).
	Unauthenticated Kind = "unauthenticated"
	// Unauthorized indicates the caller may not perform the action (HTTP 403).
	Unauthorized Kind = "unauthorized"
	// MethodNotAllowed indicates the HTTP method is not supported (HTTP 405).
	MethodNotAllowed Kind = "method_not_allowed"
	// ServerError indicates a failure on the serving side (HTTP 500).
	ServerError Kind = "server_error"
	// NotFound indicates the resource does not exist (HTTP 404).
	NotFound Kind = "not_found"
	// BadRequest indicates the request was malformed (HTTP 400).
	BadRequest Kind = "bad_request"
	// Validation indicates field-level validation failures (HTTP 400).
	Validation Kind = "validation"
)

// Kinds lists every member of the taxonomy.
var Kinds = []Kind{
	Unknown, Unauthenticated, Unauthorized, MethodNotAllowed,
	ServerError, NotFound, BadRequest, Validation,
}

// Valid reports whether k is a member of the taxonomy.
func (k Kind) Valid() bool {
	switch k {
	case Unknown, Unauthenticated, Unauthorized, MethodNotAllowed,
		ServerError, NotFound, BadRequest, Validation:
		return true
	}
	return false
}

// DefaultStatus returns the conventional HTTP status for k. It panics on a
// value outside the taxonomy, so a new kind cannot be added without updating
// this switch.
func (k Kind) DefaultStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized:
		return http.StatusForbidden
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case NotFound:
		return http.StatusNotFound
	case BadRequest, Validation:
		return http.StatusBadRequest
	case ServerError, Unknown:
		return http.StatusInternalServerError
	default:
		panic(fmt.Sprintf("errs: unhandled kind %q", string(k)))
	}
}

// FieldErrors maps a dot-joined field path to its messages in detection order.
type FieldErrors map[string][]string

// Error is the in-process form of every API failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  FieldErrors // set only for Validation
	Method  string      // set only for MethodNotAllowed; never on the wire
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wire converts e into its cross-boundary representation.
func (e *Error) Wire() ErrorResponse {
	resp := ErrorResponse{
		Status:    e.Status,
		ErrorType: e.Kind,
		Message:   e.Message,
	}
	if e.Kind == Validation {
		resp.Errors = e.Fields
		if resp.Errors == nil {
			resp.Errors = FieldErrors{}
		}
	}
	return resp
}

// New builds an error of the given kind with its default status.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: kind.DefaultStatus(), Message: message}
}

// Wrap is New with a cause attached.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.Cause = cause
	return e
}

// NewValidation reports field-level failures. An empty message defaults to
// "Validation failed".
func NewValidation(fields FieldErrors, message string) *Error {
	if message == "" {
		message = "Validation failed"
	}
	if fields == nil {
		fields = FieldErrors{}
	}
	return &Error{Kind: Validation, Status: http.StatusBadRequest, Message: message, Fields: fields}
}

// NewBadRequest returns a bad_request error.
func NewBadRequest(message string) *Error {
	return New(BadRequest, orDefault(message, "Bad request"))
}

// NewUnauthenticated returns an unauthenticated error.
func NewUnauthenticated(message string) *Error {
	return New(Unauthenticated, orDefault(message, "You need to sign in to access this resource."))
}

// NewUnauthorized returns an unauthorized error.
func NewUnauthorized(message string) *Error {
	return New(Unauthorized, orDefault(message, "Not authorized"))
}

// NewNotFound returns a not_found error.
func NewNotFound(message string) *Error {
	return New(NotFound, orDefault(message, "The requested resource does not exist"))
}

// NewMethodNotAllowed names the rejected method in the message.
func NewMethodNotAllowed(method string) *Error {
	e := New(MethodNotAllowed, fmt.Sprintf("%q is not allowed.", method))
	e.Method = method
	return e
}

// NewServerError returns a server_error carrying message as-is.
func NewServerError(message string) *Error {
	return New(ServerError, orDefault(message, "There was an internal server error"))
}

// NewUnknown returns an unknown error. A zero status defaults to 500.
func NewUnknown(message string, status int) *Error {
	e := New(Unknown, orDefault(message, "An unknown error occurred"))
	if status != 0 {
		e.Status = status
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

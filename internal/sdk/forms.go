package sdk

import (
	"encoding/json"

	"github.com/Bahjat/living-memory/internal/model"
	"github.com/Bahjat/living-memory/internal/platform/errs"
)

// ValidationErrors returns the first message of every field of a validation
// failure, keyed by field path. It returns nil for any other failure or when
// no field carries a message.
func ValidationErrors(resp *errs.ErrorResponse) map[string]string {
	if resp == nil || resp.ErrorType != errs.Validation {
		return nil
	}
	fields := make(map[string]string, len(resp.Errors))
	for field, messages := range resp.Errors {
		if len(messages) > 0 {
			fields[field] = messages[0]
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// OAuthErrorOf extracts an OAuth error body. The device endpoints reply with
// their own error shape, which the client reports as an unknown failure
// carrying the raw body as its message.
func OAuthErrorOf(resp *errs.ErrorResponse) (model.OAuthError, bool) {
	if resp == nil || resp.ErrorType != errs.Unknown {
		return model.OAuthError{}, false
	}
	var oe model.OAuthError
	if err := json.Unmarshal([]byte(resp.Message), &oe); err != nil || oe.Code == "" {
		return model.OAuthError{}, false
	}
	return oe, true
}

package authsdk

import (
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/bearer/pkg/httpx"
)

// APIError is the error body returned by the service: {"detail": "..."}.
// Handlers write it with WriteError; the client decodes failed responses
// back into it, so errors.Is works on both sides of the wire.
type APIError struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`

	// Challenge, when set, is sent as the WWW-Authenticate header.
	Challenge string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Detail)
}

// Is matches on status and detail so decoded errors compare equal to the
// predefined values below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Detail == t.Detail
}

func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.Challenge != "" {
		w.Header().Set("WWW-Authenticate", e.Challenge)
	}
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	// ErrIncorrectCredentials is the only login failure a client ever sees.
	// Unknown usernames and wrong passwords are indistinguishable.
	ErrIncorrectCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     "Incorrect username or password",
		Challenge:  "Bearer",
	}

	// ErrInvalidCredentials rejects a missing, malformed, forged or expired
	// bearer token, and tokens whose subject no longer exists.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Detail:     "Invalid authentication credentials",
		Challenge:  "Bearer",
	}

	// ErrInactiveUser means the token was valid but the account is disabled.
	ErrInactiveUser = &APIError{
		StatusCode: http.StatusBadRequest,
		Detail:     "Inactive user",
	}

	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Detail:     "username and password form fields are required",
	}

	ErrUnsupportedMediaType = &APIError{
		StatusCode: http.StatusUnsupportedMediaType,
		Detail:     "Content-Type must be application/x-www-form-urlencoded",
	}

	ErrInternal = &APIError{
		StatusCode: http.StatusInternalServerError,
		Detail:     "Internal server error",
	}
)

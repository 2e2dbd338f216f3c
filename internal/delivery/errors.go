package delivery

import (
	"errors"
	"fmt"
)

// ErrCredentialExpired marks a delivery failure caused by an expired bearer
// credential. It is an operational condition, not a transient one: the token
// needs rotation, re-sending the request cannot fix it.
var ErrCredentialExpired = errors.New("delivery credential expired")

// Platform error code for an expired or invalidated OAuth access token.
const codeOAuthExpired = 190

// APIError is the structured error body returned by the delivery platform.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("delivery api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// wrap classifies the platform error, attaching the credential-expiry
// sentinel when the code indicates a dead token.
func (e *APIError) wrap() error {
	if e.Code == codeOAuthExpired {
		return fmt.Errorf("%w: %w", ErrCredentialExpired, e)
	}
	return e
}

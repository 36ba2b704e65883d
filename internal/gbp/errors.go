package gbp

import (
	"fmt"

	"github.com/google/uuid"
)

// AuthError indicates the refresh-token exchange failed for a shop. Callers
// record it on the shop's sync result instead of aborting sibling shops.
type AuthError struct {
	ShopID uuid.UUID
	Err    error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("google token exchange failed for shop %s: %v", e.ShopID, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// FetchError indicates a paginated GBP endpoint returned a non-success
// response. It is fatal to the affected shop's sync only.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("gbp %s request failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

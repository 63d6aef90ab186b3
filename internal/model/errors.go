package model

import "errors"

// Error kinds shared by every layer. Wrap them with fmt.Errorf("%w: ...") and
// test with errors.Is.
var (
	// ErrAuth means the operation needs a signed-in session and there is none
	// (or the token is invalid, expired or revoked).
	ErrAuth = errors.New("authentication required")
	// ErrValidation means required input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrPermission means the action needs an identity the caller did not supply.
	ErrPermission = errors.New("permission denied")
	// ErrStore wraps any document or blob store failure.
	ErrStore = errors.New("store error")
	// ErrNotFound means the note does not exist (or is not visible to the caller).
	ErrNotFound = errors.New("note not found")
)

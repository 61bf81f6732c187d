// Package auth implements the session manager: credential verification,
// access/refresh token issuance, rotation and revocation. Expected failures
// are reported through the sentinel errors below so that handlers can map
// them to HTTP statuses with errors.Is instead of string matching.
package auth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the email is unknown
	// or the password does not verify. Callers map it to HTTP 401.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrAccountInactive is returned when the account exists but its status
	// is not active. Callers map it to HTTP 403.
	ErrAccountInactive = errors.New("auth: account is not active")

	// ErrInvalidToken covers every expected token failure: bad signature,
	// malformed input, expired, revoked, or no matching stored record.
	// Callers map it to HTTP 401.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrDuplicateEmail is returned when registration hits the unique email
	// constraint. Callers map it to HTTP 400.
	ErrDuplicateEmail = errors.New("auth: email already registered")

	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound = errors.New("auth: not found")
)

package models

import "errors"

// Domain errors surfaced verbatim to the user at the failing operation.
var (
	ErrDuplicateUsername  = errors.New("Username already taken.")
	ErrInvalidCredentials = errors.New("Invalid credentials.")
	ErrUnknownOwner       = errors.New("unknown owner")
	ErrNotFound           = errors.New("not found")
)

// ValidationError carries a user-facing reason for rejecting input.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

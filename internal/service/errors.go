package service

import "errors"

// ErrNotFound indicates the requested resource was not found.
var ErrNotFound = errors.New("not found")

// ErrDuplicateAccount indicates a registration with an email that is
// already taken (compared case-insensitively).
var ErrDuplicateAccount = errors.New("account already exists")

// ErrAlreadyResolved indicates an approval request that was resolved by
// an earlier call. The losing side of a concurrent resolution race sees
// this error.
var ErrAlreadyResolved = errors.New("registration request already resolved")

// ValidationError represents a bad-request condition (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError represents a conflict condition (HTTP 409).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

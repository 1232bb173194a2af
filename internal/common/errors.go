package common

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation needs an identity
	// and none is active. No network call is made.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidInput marks locally rejected arguments (bad id, empty name).
	ErrInvalidInput = errors.New("invalid input")
)

package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrDuplicateUsername = errors.New("username is already taken")
)

package errors

import (
	"errors"
)

// Common error types
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNoPrivileges = errors.New("not enough rights to restrict/unrestrict chat member")
	ErrUnresolved   = errors.New("target user could not be resolved")
)

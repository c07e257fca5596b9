package domain

import "errors"

var (
	ErrValidation         = errors.New("all fields are required")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email and/or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
)

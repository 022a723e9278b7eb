package domain

import "errors"

// Error taxonomy shared by services and handlers
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrNotFound        = errors.New("resource not found")
	ErrUpstream        = errors.New("upstream failure")
)

// ErrDuplicate is returned by repositories when a unique key is violated.
// Services treat it as a signal, it never reaches a handler.
var ErrDuplicate = errors.New("duplicate entry")

// Token errors
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

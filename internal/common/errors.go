// Package common defines shared constants and sentinel errors used across
// repositories, services and the HTTP layer. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors returned to the transport layer.
	ErrorInternal = errors.New("internal error")

	// Login failure taxonomy. The HTTP layer collapses the first three into
	// one authentication failure; they stay distinct for logs and metrics.
	ErrUnknownRole   = errors.New("unknown role")
	ErrUserNotFound  = errors.New("user not found")
	ErrBadCredential = errors.New("bad credential")

	// Crypto faults: cipher, key or signing failures. Never a credential error.
	ErrCryptoFault = errors.New("crypto fault")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

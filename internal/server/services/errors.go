package services

import (
	"errors"

	"github.com/dmitrijs2005/todoauth/internal/common"
)

// Failure reason labels used in logs and metrics.
const (
	ReasonUnknownRole   = "unknown_role"
	ReasonUserNotFound  = "user_not_found"
	ReasonBadCredential = "bad_credential"
	ReasonCryptoFault   = "crypto_fault"
	ReasonTokenExpired  = "token_expired"
	ReasonTokenInvalid  = "token_invalid"
	ReasonTokenRevoked  = "token_revoked"
	ReasonAlreadyExists = "already_exists"
	ReasonInternal      = "internal"
)

// FailureReason maps an error returned by this package to a stable label.
// nil maps to "".
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrUnknownRole):
		return ReasonUnknownRole
	case errors.Is(err, common.ErrUserNotFound):
		return ReasonUserNotFound
	case errors.Is(err, common.ErrBadCredential):
		return ReasonBadCredential
	case errors.Is(err, common.ErrCryptoFault):
		return ReasonCryptoFault
	case errors.Is(err, common.ErrTokenExpired):
		return ReasonTokenExpired
	case errors.Is(err, common.ErrInvalidToken):
		return ReasonTokenInvalid
	case errors.Is(err, common.ErrTokenRevoked):
		return ReasonTokenRevoked
	case errors.Is(err, common.ErrAlreadyExists):
		return ReasonAlreadyExists
	default:
		return ReasonInternal
	}
}

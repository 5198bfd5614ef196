// Package auth signs and verifies session tokens and checks passwords
// against stored bcrypt hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Use tells which policy a token was minted under. Both kinds share one
// format; Use only prevents replaying one kind as the other.
type Use string

const (
	UseAccess  Use = "access"
	UseRefresh Use = "refresh"
)

// Claims are the JWT claims of every token. Data holds an encrypted
// payload, never plaintext identity fields.
type Claims struct {
	jwt.RegisteredClaims
	Use  Use    `json:"use"`
	Data string `json:"data"`
}

// Token is a signed token plus the metadata the issuer embedded into it.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Issuer signs payloads into HS256 tokens with an embedded expiry.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer returns an Issuer for secret. A nil clock means time.Now.
func NewIssuer(secret []byte, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: secret, now: now}
}

// Issue signs payload as a token of the given use, valid for ttl.
func (i *Issuer) Issue(payload string, use Use, ttl time.Duration) (Token, error) {
	return i.IssueUntil(payload, use, i.now().Add(ttl))
}

// IssueUntil signs payload as a token that expires at expiresAt. The
// expiry is truncated to whole seconds, as JWT NumericDate requires.
func (i *Issuer) IssueUntil(payload string, use Use, expiresAt time.Time) (Token, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Use:  use,
		Data: payload,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign jwt: %w", err)
	}

	return Token{Value: tokenString, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verifier checks signature, algorithm, expiry and use of tokens minted by
// an Issuer sharing the same secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a Verifier for secret. A nil clock means time.Now.
func NewVerifier(secret []byte, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: secret, now: now}
}

// Verify parses tokenString and returns its claims.
//
// A token is valid while now < exp; at exactly exp it is expired. There is
// no leeway. Errors wrap common.ErrTokenExpired when the signature is valid
// but the token has expired, and common.ErrInvalidToken for everything
// else (bad signature, malformed input, wrong algorithm, wrong use).
func (v *Verifier) Verify(tokenString string, use Use) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Use != use {
		return nil, fmt.Errorf("%w: expected %s token, got %q", common.ErrInvalidToken, use, claims.Use)
	}

	if claims.Data == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing payload", common.ErrInvalidToken)
	}

	return claims, nil
}

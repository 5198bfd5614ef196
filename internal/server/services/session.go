// Package services contains the server-side business logic: the login
// pipeline, session verification and user registration.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/auth"
	"github.com/dmitrijs2005/todoauth/internal/server/config"
	"github.com/dmitrijs2005/todoauth/internal/server/metrics"
	"github.com/dmitrijs2005/todoauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todoauth/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
)

// Stage is a step of the login pipeline. A failed login is reported with
// the last stage it reached.
type Stage string

const (
	StageReceived          Stage = "Received"
	StageRoleResolved      Stage = "RoleResolved"
	StageCredentialFetched Stage = "CredentialFetched"
	StagePasswordChecked   Stage = "PasswordChecked"
	StagePayloadEncrypted  Stage = "PayloadEncrypted"
	StageTokensIssued      Stage = "TokensIssued"
	StageCompleted         Stage = "Completed"
)

// PayloadCipher seals token payloads. *cryptox.PayloadCipher implements it.
type PayloadCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type LoginInput struct {
	Username     string
	Password     string
	Role         string
	StaySignedIn bool
}

// AuthResult is what a successful login or refresh hands to the boundary.
// RefreshToken must only ever reach the client as an http-only cookie.
type AuthResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             Identity
	Authenticated    bool
}

// SessionService issues and verifies session tokens.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	revocations revocations.Repository
	revocable   bool
	cipher      PayloadCipher
	issuer      *auth.Issuer
	verifier    *auth.Verifier
	log         logging.Logger
	now         func() time.Time

	accessTTL              time.Duration
	refreshTTL             time.Duration
	staySignedInMultiplier int
}

type SessionOption func(*SessionService)

// WithClock replaces time.Now for issuance and verification.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// WithRevocations enables the token denylist consulted on verification and
// filled on logout.
func WithRevocations(repo revocations.Repository) SessionOption {
	return func(s *SessionService) {
		s.revocations = repo
		s.revocable = true
	}
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cipher PayloadCipher, cfg *config.Config, log logging.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		db:                     db,
		repomanager:            m,
		revocations:            revocations.Noop{},
		cipher:                 cipher,
		log:                    log.With("component", "session"),
		now:                    time.Now,
		accessTTL:              cfg.AccessTokenValidityDuration,
		refreshTTL:             cfg.RefreshTokenValidityDuration,
		staySignedInMultiplier: cfg.StaySignedInMultiplier,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.staySignedInMultiplier < 1 {
		s.staySignedInMultiplier = 1
	}
	s.issuer = auth.NewIssuer([]byte(cfg.SecretKey), s.now)
	s.verifier = auth.NewVerifier([]byte(cfg.SecretKey), s.now)
	return s
}

// Login checks the credentials for username under the role slug and, on
// success, issues an access token carrying the encrypted Identity and a
// refresh token carrying the encrypted user id.
//
// Errors: common.ErrBadCredential, ErrUnknownRole and ErrUserNotFound for
// credential problems, common.ErrCryptoFault for cipher or signing faults,
// common.ErrorInternal when the store fails.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	start := time.Now()
	log := s.log.With("username", in.Username, "role", in.Role)
	metricRole := "unknown"

	fail := func(stage Stage, err error) (*AuthResult, error) {
		reason := FailureReason(err)
		if reason == ReasonCryptoFault || reason == ReasonInternal {
			log.Error(ctx, "login failed", "stage", string(stage), "reason", reason, "error", err)
		} else {
			log.Warn(ctx, "login failed", "stage", string(stage), "reason", reason)
		}
		metrics.RecordLoginFailure(string(stage), reason)
		metrics.RecordLogin(metricRole, reason, time.Since(start))
		return nil, err
	}

	log.Debug(ctx, "login stage", "stage", string(StageReceived))
	if in.Username == "" || in.Password == "" {
		return fail(StageReceived, fmt.Errorf("%w: empty username or password", common.ErrBadCredential))
	}

	role, ok := roles.Resolve(in.Role)
	if !ok {
		return fail(StageReceived, fmt.Errorf("%w: %q", common.ErrUnknownRole, in.Role))
	}
	metricRole = in.Role
	log.Debug(ctx, "login stage", "stage", string(StageRoleResolved))

	user, err := s.repomanager.Users(s.db).GetActiveUser(ctx, in.Username, role)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fail(StageRoleResolved, common.ErrUserNotFound)
		}
		return fail(StageRoleResolved, fmt.Errorf("%w: %v", common.ErrorInternal, err))
	}
	log.Debug(ctx, "login stage", "stage", string(StageCredentialFetched))

	if user.PasswordHash == "" {
		return fail(StageCredentialFetched, fmt.Errorf("%w: no stored hash", common.ErrBadCredential))
	}
	if !auth.VerifyPassword(in.Password, user.PasswordHash) {
		return fail(StageCredentialFetched, common.ErrBadCredential)
	}
	log.Debug(ctx, "login stage", "stage", string(StagePasswordChecked))

	identity, err := newIdentity(user)
	if err != nil {
		return fail(StagePasswordChecked, err)
	}
	identityPayload, err := s.sealIdentity(identity)
	if err != nil {
		return fail(StagePasswordChecked, err)
	}
	userIDPayload, err := s.cipher.Encrypt(user.ID)
	if err != nil {
		return fail(StagePasswordChecked, fmt.Errorf("%w: encrypt user id: %v", common.ErrCryptoFault, err))
	}
	log.Debug(ctx, "login stage", "stage", string(StagePayloadEncrypted))

	now := s.now()
	refreshTTL := s.refreshTTL
	if in.StaySignedIn {
		refreshTTL *= time.Duration(s.staySignedInMultiplier)
	}
	refreshExpiresAt := now.Add(refreshTTL)
	accessExpiresAt := clamp(now.Add(s.accessTTL), refreshExpiresAt)

	refresh, err := s.issuer.IssueUntil(userIDPayload, auth.UseRefresh, refreshExpiresAt)
	if err != nil {
		return fail(StagePayloadEncrypted, fmt.Errorf("%w: %v", common.ErrCryptoFault, err))
	}
	access, err := s.issuer.IssueUntil(identityPayload, auth.UseAccess, accessExpiresAt)
	if err != nil {
		return fail(StagePayloadEncrypted, fmt.Errorf("%w: %v", common.ErrCryptoFault, err))
	}
	metrics.RecordTokenIssued(string(auth.UseRefresh))
	metrics.RecordTokenIssued(string(auth.UseAccess))
	log.Debug(ctx, "login stage", "stage", string(StageTokensIssued))

	metrics.RecordLogin(metricRole, "", time.Since(start))
	log.Info(ctx, "login completed", "stage", string(StageCompleted), "user_id", user.ID, "stay_signed_in", in.StaySignedIn)

	return &AuthResult{
		AccessToken:      access.Value,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh.Value,
		RefreshExpiresAt: refresh.ExpiresAt,
		User:             identity,
		Authenticated:    true,
	}, nil
}

// VerifySession resolves a refresh token to the current Identity of its
// user. The user must still be active.
func (s *SessionService) VerifySession(ctx context.Context, refreshToken string) (*Identity, error) {
	identity, _, err := s.loadSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// VerifyAccess resolves an access token to the Identity sealed inside it
// without touching the credential store.
func (s *SessionService) VerifyAccess(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.verify(ctx, accessToken, auth.UseAccess)
	if err != nil {
		return nil, err
	}

	plain, err := s.cipher.Decrypt(claims.Data)
	if err != nil {
		return nil, s.verifyFailed(ctx, auth.UseAccess, fmt.Errorf("%w: decrypt identity: %v", common.ErrCryptoFault, err))
	}
	identity, err := decodeIdentity(plain)
	if err != nil {
		return nil, s.verifyFailed(ctx, auth.UseAccess, fmt.Errorf("%w: %v", common.ErrInvalidToken, err))
	}

	metrics.RecordVerification(string(auth.UseAccess), "")
	return &identity, nil
}

// Refresh mints a new access token from a valid refresh token. The new
// access token never outlives the refresh token; the refresh token itself
// is returned unchanged.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	identity, claims, err := s.loadSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	payload, err := s.sealIdentity(*identity)
	if err != nil {
		s.log.Error(ctx, "refresh failed", "reason", FailureReason(err), "error", err)
		return nil, err
	}

	refreshExpiresAt := claims.ExpiresAt.Time
	access, err := s.issuer.IssueUntil(payload, auth.UseAccess, clamp(s.now().Add(s.accessTTL), refreshExpiresAt))
	if err != nil {
		err = fmt.Errorf("%w: %v", common.ErrCryptoFault, err)
		s.log.Error(ctx, "refresh failed", "reason", FailureReason(err), "error", err)
		return nil, err
	}
	metrics.RecordTokenIssued(string(auth.UseAccess))

	return &AuthResult{
		AccessToken:      access.Value,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
		User:             *identity,
		Authenticated:    true,
	}, nil
}

// Logout denylists the presented tokens when revocation is enabled. Tokens
// that no longer verify are skipped. Without revocation it is a no-op and
// clearing the cookie is left entirely to the caller.
func (s *SessionService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if !s.revocable {
		return nil
	}

	var errs []error
	for _, t := range []struct {
		value string
		use   auth.Use
	}{{refreshToken, auth.UseRefresh}, {accessToken, auth.UseAccess}} {
		if t.value == "" {
			continue
		}
		claims, err := s.verifier.Verify(t.value, t.use)
		if err != nil {
			continue
		}
		if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			errs = append(errs, fmt.Errorf("revoke %s token: %w", t.use, err))
			continue
		}
		metrics.RecordRevocation()
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error(ctx, "logout revocation failed", "error", err)
		return err
	}
	s.log.Info(ctx, "logout completed")
	return nil
}

func (s *SessionService) loadSession(ctx context.Context, refreshToken string) (*Identity, *auth.Claims, error) {
	claims, err := s.verify(ctx, refreshToken, auth.UseRefresh)
	if err != nil {
		return nil, nil, err
	}

	userID, err := s.cipher.Decrypt(claims.Data)
	if err != nil {
		return nil, nil, s.verifyFailed(ctx, auth.UseRefresh, fmt.Errorf("%w: decrypt user id: %v", common.ErrCryptoFault, err))
	}

	user, err := s.repomanager.Users(s.db).GetActiveUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, s.verifyFailed(ctx, auth.UseRefresh, common.ErrUserNotFound)
		}
		return nil, nil, s.verifyFailed(ctx, auth.UseRefresh, fmt.Errorf("%w: %v", common.ErrorInternal, err))
	}

	identity, err := newIdentity(user)
	if err != nil {
		return nil, nil, s.verifyFailed(ctx, auth.UseRefresh, err)
	}

	metrics.RecordVerification(string(auth.UseRefresh), "")
	return &identity, claims, nil
}

// verify checks the token and the denylist.
func (s *SessionService) verify(ctx context.Context, token string, use auth.Use) (*auth.Claims, error) {
	if token == "" {
		return nil, s.verifyFailed(ctx, use, fmt.Errorf("%w: empty token", common.ErrInvalidToken))
	}

	claims, err := s.verifier.Verify(token, use)
	if err != nil {
		return nil, s.verifyFailed(ctx, use, err)
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, s.verifyFailed(ctx, use, fmt.Errorf("%w: revocation lookup: %v", common.ErrorInternal, err))
	}
	if revoked {
		return nil, s.verifyFailed(ctx, use, common.ErrTokenRevoked)
	}
	return claims, nil
}

func (s *SessionService) verifyFailed(ctx context.Context, use auth.Use, err error) error {
	reason := FailureReason(err)
	if reason == ReasonCryptoFault || reason == ReasonInternal {
		s.log.Error(ctx, "token verification failed", "use", string(use), "reason", reason, "error", err)
	} else {
		s.log.Debug(ctx, "token verification failed", "use", string(use), "reason", reason)
	}
	metrics.RecordVerification(string(use), reason)
	return err
}

func (s *SessionService) sealIdentity(identity Identity) (string, error) {
	plain, err := encodeIdentity(identity)
	if err != nil {
		return "", fmt.Errorf("%w: encode identity: %v", common.ErrCryptoFault, err)
	}
	sealed, err := s.cipher.Encrypt(plain)
	if err != nil {
		return "", fmt.Errorf("%w: encrypt identity: %v", common.ErrCryptoFault, err)
	}
	return sealed, nil
}

func clamp(t, limit time.Time) time.Time {
	if t.After(limit) {
		return limit
	}
	return t
}

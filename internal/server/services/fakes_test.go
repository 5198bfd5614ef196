package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/cryptox"
	"github.com/dmitrijs2005/todoauth/internal/dbx"
	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/config"
	"github.com/dmitrijs2005/todoauth/internal/server/models"
	"github.com/dmitrijs2005/todoauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
	"golang.org/x/crypto/bcrypt"
)

// --- users repository ---

type fakeUsersRepo struct {
	byLogin map[string]*models.User
	byID    map[string]*models.User
	getErr  error

	createOut *models.User
	createErr error
	created   []*models.User
}

func newFakeUsersRepo(us ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byLogin: map[string]*models.User{}, byID: map[string]*models.User{}}
	for _, u := range us {
		f.byLogin[loginKey(u.UserName, u.Role)] = u
		f.byID[u.ID] = u
	}
	return f
}

func loginKey(name string, role roles.Code) string {
	return name + "/" + role.String()
}

func (f *fakeUsersRepo) GetActiveUser(_ context.Context, userName string, role roles.Code) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byLogin[loginKey(userName, role)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetActiveUserByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.created = append(f.created, u)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return m.u }

// --- revocations ---

type fakeRevocations struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	revokeErr error
	lookupErr error
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: map[string]time.Time{}}
}

func (f *fakeRevocations) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[jti] = expiresAt
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	_, ok := f.revoked[jti]
	return ok, nil
}

// --- cipher ---

type failingCipher struct {
	PayloadCipher
	encryptErr error
}

func (c failingCipher) Encrypt(plaintext string) (string, error) {
	if c.encryptErr != nil {
		return "", c.encryptErr
	}
	return c.PayloadCipher.Encrypt(plaintext)
}

func newCipher(t *testing.T, secret string) *cryptox.PayloadCipher {
	t.Helper()
	c, err := cryptox.NewPayloadCipher(cryptox.DeriveKey([]byte(secret), []byte("test-salt")))
	if err != nil {
		t.Fatalf("NewPayloadCipher: %v", err)
	}
	return c
}

// --- clock ---

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- fixtures ---

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "jwt-test-secret"
	cfg.EncryptionKey = "enc-test-secret"
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

// legacyHash rewrites a modern hash to the $2y$ prefix older PHP stacks wrote.
func legacyHash(t *testing.T, plain string) string {
	t.Helper()
	h := mustHash(t, plain)
	if !strings.HasPrefix(h, "$2a$") {
		t.Fatalf("unexpected bcrypt prefix: %s", h)
	}
	return "$2y$" + h[4:]
}

func newTestLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(h)), &buf
}

var errStoreDown = errors.New("connection refused")

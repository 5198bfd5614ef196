package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/config"
	"github.com/dmitrijs2005/todoauth/internal/server/models"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
	"github.com/dmitrijs2005/todoauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeSessions struct {
	login         func(context.Context, services.LoginInput) (*services.AuthResult, error)
	verifySession func(context.Context, string) (*services.Identity, error)
	verifyAccess  func(context.Context, string) (*services.Identity, error)
	refresh       func(context.Context, string) (*services.AuthResult, error)
	logoutErr     error

	loginCalls    int
	logoutRefresh string
	logoutAccess  string
}

func (f *fakeSessions) Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error) {
	f.loginCalls++
	if f.login == nil {
		return nil, common.ErrBadCredential
	}
	return f.login(ctx, in)
}

func (f *fakeSessions) VerifySession(ctx context.Context, token string) (*services.Identity, error) {
	if f.verifySession == nil {
		return nil, common.ErrInvalidToken
	}
	return f.verifySession(ctx, token)
}

func (f *fakeSessions) VerifyAccess(ctx context.Context, token string) (*services.Identity, error) {
	if f.verifyAccess == nil {
		return nil, common.ErrInvalidToken
	}
	return f.verifyAccess(ctx, token)
}

func (f *fakeSessions) Refresh(ctx context.Context, token string) (*services.AuthResult, error) {
	if f.refresh == nil {
		return nil, common.ErrInvalidToken
	}
	return f.refresh(ctx, token)
}

func (f *fakeSessions) Logout(_ context.Context, refreshToken, accessToken string) error {
	f.logoutRefresh = refreshToken
	f.logoutAccess = accessToken
	return f.logoutErr
}

type fakeUsers struct {
	out   *models.User
	err   error
	got   services.RegisterInput
	calls int
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	f.calls++
	f.got = in
	return f.out, f.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "jwt"
	cfg.EncryptionKey = "enc"
	return cfg
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestRouter(t *testing.T, sessions SessionService, users UserService, checks map[string]HealthCheck) *gin.Engine {
	t.Helper()
	cfg := testConfig()
	hs := NewHandlerSet(discardLogger(), cfg, sessions, users, checks)
	hs.now = func() time.Time { return fixedNow }
	return NewRouter(cfg, discardLogger(), hs)
}

func adminIdentity() *services.Identity {
	return &services.Identity{Version: 1, ID: "UID-alice", Name: "alice", Role: "admin", RoleValue: roles.Admin}
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func do(t *testing.T, r http.Handler, method, path string, body any, opts ...func(*http.Request)) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

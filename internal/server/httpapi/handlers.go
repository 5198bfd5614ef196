// Package httpapi is the HTTP boundary of the auth service. It owns cookie
// delivery and collapses service errors into the uniform response envelope.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/config"
	"github.com/dmitrijs2005/todoauth/internal/server/models"
	"github.com/dmitrijs2005/todoauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type SessionService interface {
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	VerifySession(ctx context.Context, refreshToken string) (*services.Identity, error)
	VerifyAccess(ctx context.Context, accessToken string) (*services.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
}

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HandlerSet struct {
	log      logging.Logger
	cfg      *config.Config
	sessions SessionService
	users    UserService
	checks   map[string]HealthCheck
	now      func() time.Time
}

func NewHandlerSet(log logging.Logger, cfg *config.Config, sessions SessionService, users UserService, checks map[string]HealthCheck) HandlerSet {
	registerValidators()
	return HandlerSet{
		log:      log.With("component", "http"),
		cfg:      cfg,
		sessions: sessions,
		users:    users,
		checks:   checks,
		now:      time.Now,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.POST("/login", h.Login)
	auth.GET("/verifyToken", h.VerifyToken)
	auth.POST("/refresh", h.Refresh)
	auth.GET("/logout", h.Logout)
	auth.GET("/me", Auth(h.sessions), h.Me)

	user := router.Group("/user")
	user.POST("/createUser", h.CreateUser)

	router.GET("/:role/me", Auth(h.sessions), RequireRoleParam(), h.Me)
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	statuses := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		statuses[name] = "ok"
		if err := check(ctx); err != nil {
			statuses[name] = "error"
			healthy = false
			h.log.Error(ctx, "health check failed", "dependency", name, "error", err)
		}
	}

	data := gin.H{"environment": h.cfg.Environment, "dependencies": statuses}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, envelope{
			Message: msgUnavailable,
			Data:    data,
			Error:   &apiError{Code: http.StatusServiceUnavailable, Message: msgUnavailable},
		})
		return
	}
	sendSuccess(c, http.StatusOK, "ok", data)
}

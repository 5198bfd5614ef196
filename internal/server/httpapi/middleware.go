package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
	"github.com/dmitrijs2005/todoauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	identityKey     = "current_identity"
	accessTokenKey  = "access_token"
)

// RequestID propagates or creates X-Request-Id and stores it in the request
// context for the loggers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDHeader, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

func Logger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		emit := log.Info
		if status >= 500 {
			emit = log.Error
		} else if status >= 400 {
			emit = log.Warn
		}

		emit(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"status", status,
			"latency", time.Since(start).String(),
		)
	}
}

func Recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered", "error", fmt.Sprint(r))
				sendError(c, http.StatusInternalServerError, msgInternal)
			}
		}()
		c.Next()
	}
}

// CORS allows every origin when allowedOrigins is empty, but without
// credentials. Only listed origins may send the refresh cookie.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originMap[strings.TrimSpace(origin)] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			} else if allowAll {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			}
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Auth requires a valid access token in the Authorization header and stores
// the caller's Identity on the context.
func Auth(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			sendError(c, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}

		identity, err := sessions.VerifyAccess(c.Request.Context(), token)
		if err != nil {
			status, msg := collapseSessionError(err)
			sendError(c, status, msg)
			return
		}

		c.Set(accessTokenKey, token)
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRoleParam checks the :role path segment against the caller's
// role. Unknown slugs are 404, a different role is 403.
func RequireRoleParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("role")
		if _, ok := roles.Resolve(slug); !ok {
			sendError(c, http.StatusNotFound, msgNotFound)
			return
		}

		identity, ok := currentIdentity(c)
		if !ok {
			sendError(c, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		if identity.Role != slug {
			sendError(c, http.StatusForbidden, msgForbidden)
			return
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(common.AccessTokenHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	return token, token != ""
}

func currentIdentity(c *gin.Context) (*services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*services.Identity)
	return identity, ok && identity != nil
}

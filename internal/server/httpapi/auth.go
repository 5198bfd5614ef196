package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Role         string `json:"role" binding:"required"`
	StaySignedIn bool   `json:"staySignedIn"`
}

type loginResponse struct {
	AccessToken   string             `json:"accessToken"`
	User          *services.Identity `json:"user"`
	Authenticated bool               `json:"authenticated"`
}

type sessionResponse struct {
	User          *services.Identity `json:"user"`
	Authenticated bool               `json:"authenticated"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, msgInvalidData)
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), services.LoginInput{
		Username:     req.Username,
		Password:     req.Password,
		Role:         req.Role,
		StaySignedIn: req.StaySignedIn,
	})
	if err != nil {
		status, msg := collapseLoginError(err)
		sendError(c, status, msg)
		return
	}

	h.setRefreshCookie(c, result)
	sendSuccess(c, http.StatusOK, "Successfully logged in!", loginResponse{
		AccessToken:   result.AccessToken,
		User:          &result.User,
		Authenticated: true,
	})
}

func (h HandlerSet) VerifyToken(c *gin.Context) {
	identity, err := h.sessions.VerifySession(c.Request.Context(), h.refreshCookie(c))
	if err != nil {
		status, msg := collapseSessionError(err)
		sendError(c, status, msg)
		return
	}
	sendSuccess(c, http.StatusOK, "Authenticated!", sessionResponse{User: identity, Authenticated: true})
}

func (h HandlerSet) Refresh(c *gin.Context) {
	result, err := h.sessions.Refresh(c.Request.Context(), h.refreshCookie(c))
	if err != nil {
		status, msg := collapseSessionError(err)
		sendError(c, status, msg)
		return
	}
	sendSuccess(c, http.StatusOK, "Token refreshed!", loginResponse{
		AccessToken:   result.AccessToken,
		User:          &result.User,
		Authenticated: true,
	})
}

// Logout always clears the cookie; a failed revocation is only logged.
func (h HandlerSet) Logout(c *gin.Context) {
	access, _ := bearerToken(c)
	if err := h.sessions.Logout(c.Request.Context(), h.refreshCookie(c), access); err != nil {
		h.log.Error(c.Request.Context(), "logout revocation failed", "error", err)
	}
	h.clearRefreshCookie(c)
	sendSuccess(c, http.StatusOK, "Successfully logged out!", nil)
}

func (h HandlerSet) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}
	sendSuccess(c, http.StatusOK, "", gin.H{"user": identity})
}

// collapseLoginError hides which credential check failed.
func collapseLoginError(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrUnknownRole),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrBadCredential):
		return http.StatusUnauthorized, msgAuthFailed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// collapseSessionError turns every token, crypto and lookup failure into
// "not authenticated"; only store faults surface as 500.
func collapseSessionError(err error) (int, string) {
	if services.FailureReason(err) == services.ReasonInternal {
		return http.StatusInternalServerError, msgInternal
	}
	return http.StatusUnauthorized, msgNotAuthenticated
}

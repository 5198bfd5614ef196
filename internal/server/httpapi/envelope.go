package httpapi

import (
	"github.com/gin-gonic/gin"
)

const (
	msgAuthFailed       = "Authentication failed!"
	msgNotAuthenticated = "Not authenticated!"
	msgInternal         = "Internal Server Error!"
	msgInvalidData      = "Invalid Data!"
	msgNotFound         = "Page not found!"
	msgForbidden        = "Forbidden!"
	msgUserExists       = "User already exists!"
	msgUnavailable      = "Service Unavailable!"
)

// envelope is the body shape of every JSON response.
type envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func sendSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func sendError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Error: &apiError{Code: status, Message: message}})
}

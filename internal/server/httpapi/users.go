package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
	"github.com/dmitrijs2005/todoauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6,password,nefield=Username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Mobile   string `json:"mobile" binding:"omitempty,max=32"`
	// Public registration only creates employees.
	Role     string `json:"role" binding:"omitempty,eq=employee"`
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, msgInvalidData)
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Role:     roles.SlugEmployee,
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrAlreadyExists):
		sendError(c, http.StatusConflict, msgUserExists)
		return
	case errors.Is(err, common.ErrUnknownRole), errors.Is(err, common.ErrBadCredential):
		sendError(c, http.StatusBadRequest, msgInvalidData)
		return
	default:
		h.log.Error(c.Request.Context(), "create user failed", "error", err)
		sendError(c, http.StatusInternalServerError, msgInternal)
		return
	}

	sendSuccess(c, http.StatusOK, "Successfully created user!", gin.H{"id": user.ID})
}

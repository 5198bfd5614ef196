// Package users is the credential store: read access to active user
// accounts plus account creation.
package users

import (
	"context"

	"github.com/dmitrijs2005/todoauth/internal/server/models"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
)

// Repository looks up and creates user accounts.
//
// Lookups return common.ErrorNotFound both for missing rows and for rows
// that are deleted or inactive; the two cases are never distinguished.
type Repository interface {
	GetActiveUser(ctx context.Context, userName string, role roles.Code) (*models.User, error)
	GetActiveUserByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

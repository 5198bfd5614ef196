// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/todoauth/internal/server/roles"
)

// User is an account row as read by the authentication core. Repositories
// only return active, non-deleted users.
type User struct {
	ID       string
	UserName string
	// PasswordHash is a bcrypt hash in "$2y$" (legacy) or "$2a$"/"$2b$"
	// format; empty when the column is NULL.
	PasswordHash string
	Role         roles.Code

	Email  string
	Mobile string
	Image  string

	CreatedAt time.Time
}

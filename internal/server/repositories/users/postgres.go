package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/dbx"
	"github.com/dmitrijs2005/todoauth/internal/server/models"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetActiveUser(ctx context.Context, userName string, role roles.Code) (*models.User, error) {
	query :=
		`SELECT user_id, username, password_hash, role, email, mobile, image FROM users
		 WHERE username = $1 AND role = $2 AND deleted = false AND status = 1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, userName, int(role)))
}

func (r *PostgresRepository) GetActiveUserByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT user_id, username, password_hash, role, email, mobile, image FROM users
		 WHERE user_id = $1 AND deleted = false AND status = 1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user                          models.User
		role                          int
		hash, email, mobile, imageRef sql.NullString
	)

	err := row.Scan(&user.ID, &user.UserName, &hash, &role, &email, &mobile, &imageRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.PasswordHash = hash.String
	user.Role = roles.Code(role)
	user.Email = email.String
	user.Mobile = mobile.String
	user.Image = imageRef.String

	return &user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (user_id, username, password_hash, role, email, mobile)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.PasswordHash, int(user.Role),
		nullString(user.Email), nullString(user.Mobile)).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

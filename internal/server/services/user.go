package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/todoauth/internal/common"
	"github.com/dmitrijs2005/todoauth/internal/dbx"
	"github.com/dmitrijs2005/todoauth/internal/logging"
	"github.com/dmitrijs2005/todoauth/internal/server/auth"
	"github.com/dmitrijs2005/todoauth/internal/server/config"
	"github.com/dmitrijs2005/todoauth/internal/server/models"
	"github.com/dmitrijs2005/todoauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todoauth/internal/server/roles"
	"github.com/segmentio/ksuid"
)

type RegisterInput struct {
	Username string
	Password string
	Email    string
	Mobile   string
	Role     string
}

// UserService creates credential records.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bcryptCost  int
	log         logging.Logger
	newID       func() string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		bcryptCost:  cfg.BcryptCost,
		log:         log.With("component", "users"),
		newID:       func() string { return "UID" + ksuid.New().String() },
	}
}

// Register stores a new active user. An empty role defaults to employee.
// A taken username for the same role yields common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrBadCredential)
	}

	slug := in.Role
	if slug == "" {
		slug = roles.SlugEmployee
	}
	role, ok := roles.Resolve(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownRole, in.Role)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoFault, err)
	}

	user := &models.User{
		ID:           s.newID(),
		UserName:     in.Username,
		PasswordHash: hash,
		Role:         role,
		Email:        in.Email,
		Mobile:       in.Mobile,
	}

	var created *models.User
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var createErr error
		created, createErr = s.repomanager.Users(tx).Create(ctx, user)
		return createErr
	}); err != nil {
		s.log.Warn(ctx, "register failed", "username", in.Username, "role", slug, "reason", FailureReason(err))
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID, "role", slug)
	return created, nil
}

package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/pagemark/pagemark/pkg/auth"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Register creates a new active user with a bcrypt-hashed password. Usernames
// are unique case-insensitively.
func (s *Service) Register(ctx context.Context, username string, email *string, password string) (*models.User, error) {
	count, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ? COLLATE NOCASE", username).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if count > 0 {
		return nil, errcodes.ValidationError("Username is already taken.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}

	_, err = s.db.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Retrieve fetches a user by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, errcodes.NotFound("User")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// UpdateParams are the optional fields Update can change.
type UpdateParams struct {
	Email    *string
	Password *string
}

// Update modifies a user's email or password.
func (s *Service) Update(ctx context.Context, id int, params UpdateParams) (*models.User, error) {
	user, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if params.Email != nil {
		user.Email = params.Email
		columns = append(columns, "email")
	}
	if params.Password != nil {
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		columns = append(columns, "password_hash")
	}

	if len(columns) == 0 {
		return user, nil
	}

	user.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err = s.db.NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Package users implements the user directory: profile reads, partial
// updates, deletion, and the paginated listing used by role management.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
)

// UserService defines user directory operations.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*auth.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, skip, limit int) ([]auth.User, error)
}

type userService struct {
	db *pgxpool.Pool
}

// NewUserService creates a UserService backed by the given pool.
func NewUserService(db *pgxpool.Pool) UserService {
	return &userService{db: db}
}

const userColumns = `id, email, username, phone, hashed_password, address, city, state, postal_code,
	is_verified, is_superuser, oauth_provider, oauth_id, admin_granted_by, admin_granted_at,
	created_at, updated_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.Phone, &u.HashedPassword,
		&u.Address, &u.City, &u.State, &u.PostalCode,
		&u.IsVerified, &u.IsSuperuser, &u.OAuthProvider, &u.OAuthID,
		&u.AdminGrantedBy, &u.AdminGrantedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser retrieves a user by id.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return user, nil
}

// UpdateUser applies the fields present in req and refreshes updated_at.
// Identity collisions (email, username, phone) surface as conflicts.
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*auth.User, error) {
	if !req.hasUpdates() {
		return s.GetUser(ctx, id)
	}

	setClauses, args, err := buildUserUpdate(&req)
	if err != nil {
		return nil, err
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), userColumns,
	)

	user, err := scanUser(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, uniqueViolationConflict(pgErr)
		}
		return nil, apperror.NewDatabaseError("failed to update user", err)
	}
	return user, nil
}

// buildUserUpdate assembles the dynamic SET clause for a partial update.
// Positional placeholders start at $1; the caller appends the id.
func buildUserUpdate(req *UpdateUserRequest) ([]string, []interface{}, error) {
	var setClauses []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Email != nil {
		add("email", strings.ToLower(*req.Email))
	}
	if req.Username != nil {
		add("username", *req.Username)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, nil, apperror.NewInternalError("failed to hash password", err)
		}
		add("hashed_password", hashed)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.City != nil {
		add("city", *req.City)
	}
	if req.State != nil {
		add("state", *req.State)
	}
	if req.PostalCode != nil {
		add("postal_code", *req.PostalCode)
	}

	return setClauses, args, nil
}

func uniqueViolationConflict(pgErr *pgconn.PgError) *apperror.AppError {
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return apperror.NewConflictError("email already exists", nil)
	case strings.Contains(pgErr.ConstraintName, "username"):
		return apperror.NewConflictError("username already exists", nil)
	case strings.Contains(pgErr.ConstraintName, "phone"):
		return apperror.NewConflictError("phone already exists", nil)
	default:
		return apperror.NewConflictError("identity already exists", nil)
	}
}

// DeleteUser removes a user record.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("user not found", nil)
	}
	return nil
}

// ListUsers returns users most-recent-first, offset by skip and bounded by
// limit.
func (s *userService) ListUsers(ctx context.Context, skip, limit int) ([]auth.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	defer rows.Close()

	users := make([]auth.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan user", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	return users, nil
}

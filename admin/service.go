// Package admin implements superuser role management. The access-token
// claim gates the routes, but every operation re-checks the actor's
// stored record so a stale token cannot grant roles.
package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
)

// AdminService defines superuser role management operations. The actor is
// the already-loaded record of the user performing the operation.
type AdminService interface {
	ListAdmins(ctx context.Context, actor *auth.User, skip, limit int) ([]auth.User, error)
	Promote(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error)
	Demote(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error)
}

type adminService struct {
	db *pgxpool.Pool
}

// NewAdminService creates an AdminService backed by the given pool.
func NewAdminService(db *pgxpool.Pool) AdminService {
	return &adminService{db: db}
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

// requireSuperuser rejects operations by actors whose stored record is not
// a superuser. Runs before any database work.
func requireSuperuser(actor *auth.User) error {
	if actor == nil || !actor.IsSuperuser {
		return apperror.NewForbiddenError("superuser privileges required", nil)
	}
	return nil
}

// ListAdmins returns superusers most-recent-first.
func (s *adminService) ListAdmins(ctx context.Context, actor *auth.User, skip, limit int) ([]auth.User, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_superuser
		 ORDER BY created_at DESC OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list admins", err)
	}
	defer rows.Close()

	admins := make([]auth.User, 0, limit)
	for rows.Next() {
		admin, err := scanUser(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan admin", err)
		}
		admins = append(admins, *admin)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list admins", err)
	}
	return admins, nil
}

// Promote grants the superuser role to the target and records who granted
// it and when.
func (s *adminService) Promote(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx,
		`UPDATE users
		 SET is_superuser = TRUE, admin_granted_by = $1, admin_granted_at = now(), updated_at = now()
		 WHERE id = $2 AND NOT is_superuser
		 RETURNING `+userColumns,
		actor.ID, targetID,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyNoRows(ctx, targetID, "user is already an admin")
		}
		return nil, apperror.NewDatabaseError("failed to promote user", err)
	}
	return user, nil
}

// Demote revokes the superuser role and clears the grant tracking columns.
func (s *adminService) Demote(ctx context.Context, actor *auth.User, targetID uuid.UUID) (*auth.User, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx,
		`UPDATE users
		 SET is_superuser = FALSE, admin_granted_by = NULL, admin_granted_at = NULL, updated_at = now()
		 WHERE id = $1 AND is_superuser
		 RETURNING `+userColumns,
		targetID,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyNoRows(ctx, targetID, "user is not an admin")
		}
		return nil, apperror.NewDatabaseError("failed to demote user", err)
	}
	return user, nil
}

// Bootstrap grants the superuser role to the account with the given email
// without requiring an acting superuser. It exists for first-deployment
// seeding through the CLI; admin_granted_by stays NULL, which the
// users_admin_tracking constraint permits.
func Bootstrap(ctx context.Context, db *pgxpool.Pool, email string) (*auth.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperror.NewValidationError("email is required", nil)
	}

	row := db.QueryRow(ctx,
		`UPDATE users
		 SET is_superuser = TRUE, admin_granted_at = now(), updated_at = now()
		 WHERE email = $1 AND NOT is_superuser
		 RETURNING `+userColumns,
		email,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := db.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
				return nil, apperror.NewDatabaseError("failed to check user", err)
			}
			if !exists {
				return nil, apperror.NewNotFoundError("user not found", nil)
			}
			return nil, apperror.NewConflictError("user is already an admin", nil)
		}
		return nil, apperror.NewDatabaseError("failed to promote user", err)
	}
	return user, nil
}

// classifyNoRows distinguishes a missing target from one whose role state
// already matched, after a guarded UPDATE affected no rows.
func (s *adminService) classifyNoRows(ctx context.Context, targetID uuid.UUID, conflictMsg string) error {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, targetID).Scan(&exists)
	if err != nil {
		return apperror.NewDatabaseError("failed to check user", err)
	}
	if !exists {
		return apperror.NewNotFoundError("user not found", nil)
	}
	return apperror.NewConflictError(conflictMsg, nil)
}

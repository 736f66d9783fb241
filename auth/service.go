// Package auth handles authentication and the account lifecycle: user
// registration, credential exchange, email verification, and password
// reset. Tokens are stateless and purpose-scoped (see tokens.go); the only
// persisted state is the user record itself.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/config"
	"github.com/user/storefront-go/mailer"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// AuthService defines the account lifecycle operations exposed over HTTP.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	VerifyEmail(ctx context.Context, token string) (*User, error)
	// RequestPasswordReset never reports whether the email exists; all
	// internal failures are logged and swallowed.
	RequestPasswordReset(ctx context.Context, email string)
	ResetPassword(ctx context.Context, token, newPassword string) (*User, error)
}

type authService struct {
	db     *pgxpool.Pool
	codec  *TokenCodec
	mail   mailer.Mailer
	config config.AuthConfig
}

// NewAuthService creates the AuthService backed by the given pool, token
// codec and mail dispatcher.
func NewAuthService(db *pgxpool.Pool, codec *TokenCodec, mail mailer.Mailer, cfg config.AuthConfig) AuthService {
	return &authService{
		db:     db,
		codec:  codec,
		mail:   mail,
		config: cfg,
	}
}

// userColumns is the canonical select list for scanning a full User.
const userColumns = `id, email, username, phone, hashed_password, address, city, state, postal_code,
	is_verified, is_superuser, oauth_provider, oauth_id, admin_granted_by, admin_granted_at,
	created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
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

// Register creates a new user. The account starts unverified; a
// verification token is issued and emailed best-effort, so a mail failure
// is logged but does not fail the registration.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var hashedPassword string
	if req.Password != "" {
		var err error
		hashedPassword, err = HashPassword(req.Password)
		if err != nil {
			return nil, apperror.NewInternalError("failed to hash password", err)
		}
	}

	query := `INSERT INTO users
			(email, username, phone, hashed_password, address, city, state, postal_code, oauth_provider, oauth_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	row := s.db.QueryRow(ctx, query,
		strings.ToLower(req.Email), req.Username, req.Phone, hashedPassword,
		req.Address, req.City, req.State, req.PostalCode,
		req.OAuthProvider, req.OAuthID,
	)
	user, err := scanUser(row)
	if err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	s.dispatchVerificationEmail(ctx, user)

	return user, nil
}

// dispatchVerificationEmail issues a verification token for the user and
// emails it. Failures are logged, never surfaced: the user can request a
// fresh token later.
func (s *authService) dispatchVerificationEmail(ctx context.Context, user *User) {
	token, err := s.codec.Issue(user.ID, PurposeVerify, s.config.VerifyTokenDuration)
	if err != nil {
		slog.ErrorContext(ctx, "issuing verification token", "user_id", user.ID, "error", err)
		return
	}
	if err := s.mail.SendVerificationEmail(ctx, user.Email, token); err != nil {
		slog.ErrorContext(ctx, "sending verification email", "user_id", user.ID, "error", err)
		return
	}
	slog.InfoContext(ctx, "verification email sent", "user_id", user.ID)
}

// Login exchanges a credential for an access/refresh token pair. The same
// generic failure is returned whether the email is unknown or the password
// wrong.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.getUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewAuthError("invalid credentials", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if user.HashedPassword == "" && user.OAuthProvider != nil {
		return nil, apperror.NewBadRequestError("account uses OAuth sign-in; password login is unavailable", nil)
	}

	if !VerifyPassword(req.Password, user.HashedPassword) {
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}

	return s.issueTokenPair(user)
}

// Refresh exchanges a valid refresh token for a new access token. The user
// record is re-read so the access token carries a current superuser flag.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.codec.Verify(refreshToken, PurposeRefresh)
	if err != nil {
		return nil, tokenError(err)
	}

	userID, _ := claims.UserID()
	user, err := s.getUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewAuthError("invalid refresh token: user no longer exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	accessToken, err := s.codec.IssueSession(user.ID, user.IsSuperuser, s.config.AccessTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue access token", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.config.AccessTokenDuration.Seconds()),
	}, nil
}

// VerifyEmail consumes a verification token. Verifying an already-verified
// account succeeds idempotently without touching the row.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*User, error) {
	claims, err := s.codec.Verify(token, PurposeVerify)
	if err != nil {
		return nil, tokenError(err)
	}

	userID, _ := claims.UserID()
	user, err := s.getUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if user.IsVerified {
		return user, nil
	}

	row := s.db.QueryRow(ctx,
		`UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1 RETURNING `+userColumns,
		user.ID,
	)
	updated, err := scanUser(row)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to mark user verified", err)
	}

	slog.InfoContext(ctx, "user verified", "user_id", updated.ID)
	return updated, nil
}

// RequestPasswordReset issues and emails a reset token if the email
// resolves to an account. It deliberately reports nothing to the caller:
// the HTTP envelope is identical whether or not the account exists.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) {
	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			slog.ErrorContext(ctx, "looking up user for password reset", "error", err)
		}
		return
	}

	token, err := s.codec.Issue(user.ID, PurposeReset, s.config.ResetTokenDuration)
	if err != nil {
		slog.ErrorContext(ctx, "issuing reset token", "user_id", user.ID, "error", err)
		return
	}
	if err := s.mail.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		slog.ErrorContext(ctx, "sending password reset email", "user_id", user.ID, "error", err)
		return
	}
	slog.InfoContext(ctx, "password reset email sent", "user_id", user.ID)
}

// ResetPassword consumes a reset token and stores the re-hashed credential.
// A new password identical to the old one is accepted.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) (*User, error) {
	claims, err := s.codec.Verify(token, PurposeReset)
	if err != nil {
		return nil, tokenError(err)
	}

	userID, _ := claims.UserID()
	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	row := s.db.QueryRow(ctx,
		`UPDATE users SET hashed_password = $1, updated_at = now() WHERE id = $2 RETURNING `+userColumns,
		hashedPassword, userID,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to reset password", err)
	}

	slog.InfoContext(ctx, "password reset", "user_id", user.ID)
	return user, nil
}

func (s *authService) issueTokenPair(user *User) (*TokenResponse, error) {
	accessToken, err := s.codec.IssueSession(user.ID, user.IsSuperuser, s.config.AccessTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue access token", err)
	}
	refreshToken, err := s.codec.Issue(user.ID, PurposeRefresh, s.config.RefreshTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue refresh token", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.config.AccessTokenDuration.Seconds()),
	}, nil
}

func (s *authService) getUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(email),
	)
	return scanUser(row)
}

func (s *authService) getUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// translateUniqueViolation converts a 23505 into a ConflictError naming the
// colliding identity. A duplicate insert under a race fails here at the
// storage layer and must not surface as a generic server error.
func translateUniqueViolation(err error) *apperror.AppError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return apperror.NewConflictError("email already exists", nil)
	case strings.Contains(pgErr.ConstraintName, "username"):
		return apperror.NewConflictError("username already exists", nil)
	case strings.Contains(pgErr.ConstraintName, "phone"):
		return apperror.NewConflictError("phone already exists", nil)
	case strings.Contains(pgErr.ConstraintName, "oauth"):
		return apperror.NewConflictError("oauth account already linked", nil)
	default:
		return apperror.NewConflictError("identity already exists", nil)
	}
}

// tokenError maps codec sentinel errors onto the error taxonomy.
func tokenError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return apperror.NewAuthError("token has expired", err)
	case errors.Is(err, ErrTokenAudienceMismatch):
		return apperror.NewAuthError("token is not valid for this purpose", err)
	case errors.Is(err, ErrTokenMissingSubject):
		return apperror.NewAuthError("token carries no subject", err)
	default:
		return apperror.NewAuthError("invalid token", err)
	}
}

// Request and response payloads for the auth endpoints. Validation rules
// live on the structs as validator tags and are enforced at the handler
// boundary before any service logic runs.
package auth

import (
	"github.com/google/uuid"
)

// RegisterRequest represents the registration request payload. A password
// is required unless the account is being linked to an OAuth provider, in
// which case the credential may be absent entirely.
type RegisterRequest struct {
	Username      string  `json:"username" validate:"required,min=3,max=255" example:"newuser"`
	Email         string  `json:"email" validate:"required,email" example:"user@example.com"`
	Password      string  `json:"password" validate:"required_without=OAuthProvider,omitempty,min=8,max=128" example:"strongpassword123"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20" example:"+12025550123"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State         *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode    *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	OAuthProvider *string `json:"oauth_provider,omitempty" validate:"omitempty,max=50" example:"google"`
	OAuthID       *string `json:"oauth_id,omitempty" validate:"omitempty,max=255,required_with=OAuthProvider"`
}

// LoginRequest represents the credential exchange payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"strongpassword123"`
}

// RefreshTokenRequest carries a refresh token to exchange for a new access
// token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest asks for a password-reset email.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

// ResetPasswordRequest consumes a reset token and sets a new credential.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// TokenResponse is returned on successful login or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int64  `json:"expires_in" example:"3600"` // access token lifetime in seconds
}

// ForgotPasswordResponse is the envelope returned by forgot-password. It is
// identical whether or not the email resolves to an account.
type ForgotPasswordResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"If the email exists, password reset instructions will be sent"`
	Email   string `json:"email" example:"user@example.com"`
}

// ResetPasswordResponse is returned after a successful password reset.
type ResetPasswordResponse struct {
	Status  string    `json:"status" example:"success"`
	Message string    `json:"message" example:"Password has been reset successfully"`
	UserID  uuid.UUID `json:"user_id"`
}

// VerifyEmailResponse is returned after consuming a verification token.
type VerifyEmailResponse struct {
	Message    string    `json:"message" example:"Email verified successfully"`
	UserID     uuid.UUID `json:"user_id"`
	IsVerified bool      `json:"is_verified" example:"true"`
}

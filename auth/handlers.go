package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/storefront-go/apperror"
)

// Handlers exposes the auth endpoints over HTTP. It owns the request
// validator; the business logic lives behind the AuthService interface.
type Handlers struct {
	service  AuthService
	validate *validator.Validate
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service AuthService) *Handlers {
	return &Handlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user; the account starts unverified and a verification email is dispatched.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.User "User created"
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Failure 409 {object} apperror.ErrorResponse "Email, username or phone already registered"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := h.decode(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusCreated, user)
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Exchanges email and password for access and refresh tokens.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.TokenResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input or OAuth-only account"
// @Failure 401 {object} apperror.ErrorResponse "Invalid credentials"
// @Router /auth/jwt/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := h.decode(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleRefreshToken godoc
// @Summary Refresh Access Token
// @Description Provides a new access token using a valid refresh token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param refreshBody body auth.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} auth.TokenResponse
// @Failure 401 {object} apperror.ErrorResponse "Invalid or expired refresh token"
// @Router /auth/jwt/refresh [post]
func (h *Handlers) HandleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshTokenRequest
		if err := h.decode(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleVerifyEmail godoc
// @Summary Verify Email
// @Description Consumes a verification token from the emailed link. Idempotent for already-verified accounts.
// @Tags Auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} auth.VerifyEmailResponse
// @Failure 401 {object} apperror.ErrorResponse "Invalid, expired or wrong-purpose token"
// @Failure 404 {object} apperror.ErrorResponse "User no longer exists"
// @Router /auth/verify [get]
func (h *Handlers) HandleVerifyEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			WriteError(w, r, apperror.NewValidationError("token query parameter is required", nil))
			return
		}

		user, err := h.service.VerifyEmail(r.Context(), token)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, VerifyEmailResponse{
			Message:    "Email verified successfully",
			UserID:     user.ID,
			IsVerified: user.IsVerified,
		})
	}
}

// HandleForgotPassword godoc
// @Summary Request Password Reset
// @Description Emails a reset token if the address belongs to an account. The response is identical either way.
// @Tags Auth
// @Accept json
// @Produce json
// @Param forgotBody body auth.ForgotPasswordRequest true "Account email"
// @Success 200 {object} auth.ForgotPasswordResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /auth/forgot-password [post]
func (h *Handlers) HandleForgotPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ForgotPasswordRequest
		if err := h.decode(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		h.service.RequestPasswordReset(r.Context(), req.Email)

		// Same envelope whether or not the account exists.
		WriteJSON(w, http.StatusOK, ForgotPasswordResponse{
			Status:  "success",
			Message: "If the email exists, password reset instructions will be sent",
			Email:   req.Email,
		})
	}
}

// HandleResetPassword godoc
// @Summary Reset Password
// @Description Consumes a reset token and stores the new credential.
// @Tags Auth
// @Accept json
// @Produce json
// @Param resetBody body auth.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} auth.ResetPasswordResponse
// @Failure 401 {object} apperror.ErrorResponse "Invalid, expired or wrong-purpose token"
// @Failure 404 {object} apperror.ErrorResponse "User no longer exists"
// @Router /auth/reset-password [post]
func (h *Handlers) HandleResetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest
		if err := h.decode(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		user, err := h.service.ResetPassword(r.Context(), req.Token, req.Password)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, ResetPasswordResponse{
			Status:  "success",
			Message: "Password has been reset successfully",
			UserID:  user.ID,
		})
	}
}

// decode unmarshals the JSON body into dst and runs struct validation,
// translating failures into ValidationErrors.
func (h *Handlers) decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewBadRequestError("invalid request body: "+err.Error(), err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperror.NewValidationError(validationMessage(err), err)
	}
	return nil
}

// validationMessage flattens validator errors into a readable message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_without", "required_with":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address", strings.ToLower(fe.Field())))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(parts, "; ")
}

// WriteJSON serializes data to JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"status":"error","message":"failed to encode response","error_type":"server_error"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError maps any error onto the standardized error body. Errors that
// are not AppErrors are logged with detail and returned as a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", appErr.Error())
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}

// HTTP boundary for the user directory. The /users/me routes operate on
// the authenticated subject; the /users/{id} routes and the listing are
// superuser-only.
package users

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserHandlers handles HTTP requests for user profiles.
type UserHandlers struct {
	service  UserService
	validate *validator.Validate
}

// NewUserHandlers creates a new UserHandlers instance.
func NewUserHandlers(service UserService) *UserHandlers {
	return &UserHandlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the user routes. The router is expected to already
// carry the session middleware; superuser-only routes are gated here.
func (h *UserHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleGetMe)
	r.Patch("/me", h.handleUpdateMe)
	r.Delete("/me", h.handleDeleteMe)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSuperuser())
		r.Get("/", h.handleListUsers)
		r.Get("/{id}", h.handleGetUser)
		r.Patch("/{id}", h.handleUpdateUser)
		r.Delete("/{id}", h.handleDeleteUser)
	})
}

// handleGetMe godoc
// @Summary Get Own Profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.User
// @Failure 401 {object} apperror.ErrorResponse
// @Router /users/me [get]
func (h *UserHandlers) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("no authentication context found", nil))
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user)
}

// handleUpdateMe godoc
// @Summary Update Own Profile
// @Description Applies only the fields present in the payload.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param updateBody body users.UpdateUserRequest true "Fields to update"
// @Success 200 {object} auth.User
// @Failure 409 {object} apperror.ErrorResponse "Email, username or phone already taken"
// @Router /users/me [patch]
func (h *UserHandlers) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("no authentication context found", nil))
		return
	}
	h.update(w, r, userID)
}

// handleDeleteMe godoc
// @Summary Delete Own Account
// @Tags Users
// @Security BearerAuth
// @Success 204 "Account deleted"
// @Router /users/me [delete]
func (h *UserHandlers) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("no authentication context found", nil))
		return
	}
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListUsers godoc
// @Summary List Users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {array} auth.User
// @Failure 403 {object} apperror.ErrorResponse
// @Router /users [get]
func (h *UserHandlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := parsePagination(r)
	users, err := h.service.ListUsers(r.Context(), skip, limit)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandlers) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	h.update(w, r, id)
}

func (h *UserHandlers) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandlers) update(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	defer r.Body.Close()
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		auth.WriteError(w, r, apperror.NewValidationError("invalid update payload", err))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user)
}

// pathID parses the {id} path parameter as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperror.NewValidationError("id must be a valid UUID", err)
	}
	return id, nil
}

// parsePagination reads skip/limit query parameters, clamping limit to
// [1, maxPageSize] with a default of defaultPageSize.
func parsePagination(r *http.Request) (skip, limit int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			skip = n
		}
	}
	return skip, limit
}

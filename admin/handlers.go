package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
	"github.com/user/storefront-go/users"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminHandlers handles HTTP requests for role management. The actor's
// record is loaded fresh on every request.
type AdminHandlers struct {
	service  AdminService
	users    users.UserService
	validate *validator.Validate
}

// NewAdminHandlers creates a new AdminHandlers instance.
func NewAdminHandlers(service AdminService, userService users.UserService) *AdminHandlers {
	return &AdminHandlers{
		service:  service,
		users:    userService,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the admin routes. The router is expected to already
// carry the session and superuser middleware.
func (h *AdminHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/list", h.handleListAdmins)
	r.Post("/add", h.handleAddAdmin)
	r.Delete("/remove/{id}", h.handleRemoveAdmin)
}

// actor loads the stored record of the authenticated user.
func (h *AdminHandlers) actor(r *http.Request) (*auth.User, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperror.NewAuthError("no authentication context found", nil)
	}
	actor, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewAuthError("account no longer exists", nil)
		}
		return nil, err
	}
	return actor, nil
}

// handleListAdmins godoc
// @Summary List Admins
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {array} auth.User
// @Failure 403 {object} apperror.ErrorResponse
// @Router /admin/list [get]
func (h *AdminHandlers) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	skip, limit := pagination(r)
	admins, err := h.service.ListAdmins(r.Context(), actor, skip, limit)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, admins)
}

// handleAddAdmin godoc
// @Summary Grant Admin Role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param addBody body admin.AddAdminRequest true "Target user"
// @Success 200 {object} auth.User
// @Failure 404 {object} apperror.ErrorResponse "Target does not exist"
// @Failure 409 {object} apperror.ErrorResponse "Target is already an admin"
// @Router /admin/add [post]
func (h *AdminHandlers) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}

	defer r.Body.Close()
	var req AddAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		auth.WriteError(w, r, apperror.NewValidationError("user_id must be a valid UUID", err))
		return
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		auth.WriteError(w, r, apperror.NewValidationError("user_id must be a valid UUID", err))
		return
	}

	user, err := h.service.Promote(r.Context(), actor, targetID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user)
}

// handleRemoveAdmin godoc
// @Summary Revoke Admin Role
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Target user id"
// @Success 200 {object} auth.User
// @Failure 404 {object} apperror.ErrorResponse "Target does not exist"
// @Failure 409 {object} apperror.ErrorResponse "Target is not an admin"
// @Router /admin/remove/{id} [delete]
func (h *AdminHandlers) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		auth.WriteError(w, r, apperror.NewValidationError("id must be a valid UUID", err))
		return
	}

	user, err := h.service.Demote(r.Context(), actor, targetID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user)
}

func pagination(r *http.Request) (skip, limit int) {
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
